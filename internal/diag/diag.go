// Package diag collects leveled, human-readable advisory messages
// produced while correlating and reconciling expectation data. The
// engine never escalates a diagnostic by itself; callers decide
// whether any level aborts the run.
package diag

import "fmt"

// Level orders diagnostics by severity. Levels mirror the CLI
// logger's so messages can be forwarded one to one.
type Level int

// Severity levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Diagnostic is one advisory message.
type Diagnostic struct {
	Level   Level
	Message string
}

// Collector accumulates diagnostics in emission order. The zero
// value is ready to use.
type Collector struct {
	diags []Diagnostic
}

// Debugf records a debug-level diagnostic.
func (c *Collector) Debugf(format string, args ...any) {
	c.append(LevelDebug, format, args...)
}

// Infof records an info-level diagnostic.
func (c *Collector) Infof(format string, args ...any) {
	c.append(LevelInfo, format, args...)
}

// Warnf records a warn-level diagnostic.
func (c *Collector) Warnf(format string, args ...any) {
	c.append(LevelWarn, format, args...)
}

// Errorf records an error-level diagnostic.
func (c *Collector) Errorf(format string, args ...any) {
	c.append(LevelError, format, args...)
}

func (c *Collector) append(level Level, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

// All returns every collected diagnostic in emission order.
func (c *Collector) All() []Diagnostic {
	return c.diags
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}
