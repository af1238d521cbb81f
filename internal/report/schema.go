package report

// Schema is the JSON Schema (Draft 2020-12) for the subset of
// wptreport.json this tool consumes. Useful for validating reports
// before processing, or for generating producer types.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/ctsmeta/wptreport.schema.json",
  "title": "WPT Execution Report",
  "description": "Input schema for ctsmeta update-expected report files",
  "type": "object",
  "required": ["run_info", "results"],
  "properties": {
    "run_info": { "$ref": "#/$defs/RunInfo" },
    "results": {
      "type": "array",
      "items": { "$ref": "#/$defs/TestResult" }
    }
  },
  "$defs": {
    "RunInfo": {
      "type": "object",
      "required": ["os", "debug"],
      "properties": {
        "os": {
          "type": "string",
          "enum": ["win", "linux", "mac"],
          "description": "Platform the run executed on"
        },
        "debug": {
          "type": "boolean",
          "description": "True for debug builds, false for optimized"
        }
      }
    },
    "TestResult": {
      "type": "object",
      "required": ["test", "status"],
      "properties": {
        "test": {
          "type": "string",
          "description": "Runner URL path of the test, with variant"
        },
        "status": {
          "type": "string",
          "enum": ["OK", "TIMEOUT", "CRASH", "ERROR", "SKIP", ""],
          "description": "Test outcome; empty marks a maybe-timed-out job"
        },
        "subtests": {
          "type": "array",
          "items": { "$ref": "#/$defs/SubtestResult" }
        }
      }
    },
    "SubtestResult": {
      "type": "object",
      "required": ["name", "status"],
      "properties": {
        "name": {
          "type": "string",
          "description": "Subtest name as reported by the harness"
        },
        "status": {
          "type": "string",
          "enum": ["PASS", "FAIL", "TIMEOUT", "NOTRUN", "CRASH"],
          "description": "Subtest outcome"
        }
      }
    }
  }
}`
