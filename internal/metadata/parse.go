package metadata

import (
	"fmt"
	"strings"

	"github.com/unbound-force/ctsmeta/internal/expect"
)

// indentWidth is the per-level indentation the format uses.
const indentWidth = 2

// line is one significant (non-blank, non-comment) source line.
type line struct {
	num   int
	depth int
	text  string
}

// Parse reads a metadata file. The accepted dialect is exactly what
// Format emits: two-space indentation, "[name]" sections nested at
// most two deep, "disabled:" flags, and "expected:" values that are
// either inline or a condition block over os and debug.
func Parse(src string) (File, error) {
	lines, err := splitLines(src)
	if err != nil {
		return File{}, err
	}

	var file File
	var curTest *Test

	for i := 0; i < len(lines); {
		ln := lines[i]
		switch {
		case isSection(ln.text):
			name := sectionName(ln.text)
			switch ln.depth {
			case 0:
				file.Tests = append(file.Tests, Test{Name: name})
				curTest = &file.Tests[len(file.Tests)-1]
				i++
			case 1:
				if curTest == nil {
					return File{}, fmt.Errorf(
						"line %d: subtest section %q outside a test section", ln.num, name)
				}
				curTest.Subtests = append(curTest.Subtests, Subtest{Name: name})
				i++
			default:
				return File{}, fmt.Errorf(
					"line %d: section %q nested too deeply", ln.num, name)
			}

		case ln.depth == 0 && curTest == nil:
			// File-level property, preserved verbatim.
			file.Props = append(file.Props, ln.text)
			i++

		default:
			if curTest == nil {
				return File{}, fmt.Errorf(
					"line %d: property %q outside a section", ln.num, ln.text)
			}
			var next int
			var err error
			if len(curTest.Subtests) > 0 && ln.depth == 2 {
				sub := &curTest.Subtests[len(curTest.Subtests)-1]
				next, err = parseProperty(lines, i, &sub.Props.Disabled,
					&sub.Props.Expectations, expect.ParseSubtestOutcome)
			} else if ln.depth == 1 {
				next, err = parseProperty(lines, i, &curTest.Props.Disabled,
					&curTest.Props.Expectations, expect.ParseTestOutcome)
			} else {
				return File{}, fmt.Errorf(
					"line %d: unexpected indentation for %q", ln.num, ln.text)
			}
			if err != nil {
				return File{}, err
			}
			i = next
		}
	}

	return file, nil
}

// splitLines strips blanks and comments and computes depths.
func splitLines(src string) ([]line, error) {
	var out []line
	for num, raw := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		spaces := len(raw) - len(strings.TrimLeft(raw, " "))
		if strings.HasPrefix(strings.TrimLeft(raw, " "), "\t") || spaces%indentWidth != 0 {
			return nil, fmt.Errorf("line %d: indentation must be multiples of %d spaces",
				num+1, indentWidth)
		}
		out = append(out, line{num: num + 1, depth: spaces / indentWidth, text: trimmed})
	}
	return out, nil
}

func isSection(text string) bool {
	return strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")
}

func sectionName(text string) string {
	return strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
}

// parseProperty consumes one "key: value" property (and, for
// "expected:", any following condition block) starting at index i.
// It returns the index of the first unconsumed line.
func parseProperty[O expect.Outcome[O]](
	lines []line,
	i int,
	disabled *bool,
	expectations **expect.Normalized[O],
	parseOutcome func(string) (O, error),
) (int, error) {
	ln := lines[i]
	key, value, ok := strings.Cut(ln.text, ":")
	if !ok {
		return 0, fmt.Errorf("line %d: expected \"key: value\", got %q", ln.num, ln.text)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "disabled":
		*disabled = true
		return i + 1, nil

	case "expected":
		if value != "" {
			set, err := parseSetValue(value, parseOutcome, ln.num)
			if err != nil {
				return 0, err
			}
			n := expect.Collapse(expect.UniformMatrix(set))
			*expectations = &n
			return i + 1, nil
		}
		return parseConditionBlock(lines, i, expectations, parseOutcome)

	default:
		return 0, fmt.Errorf("line %d: unrecognized property %q", ln.num, key)
	}
}

// condition is one "if ..." arm of an expected block.
type condition struct {
	hasOS    bool
	os       expect.Platform
	hasDebug bool
	debug    bool
}

func (c condition) matches(p expect.Platform, b expect.BuildProfile) bool {
	if c.hasOS && c.os != p {
		return false
	}
	if c.hasDebug && c.debug != (b == expect.Debug) {
		return false
	}
	return true
}

// parseConditionBlock reads the indented arms under a bare
// "expected:" key, resolving each matrix cell by first-match-wins
// with an optional trailing unconditional default.
func parseConditionBlock[O expect.Outcome[O]](
	lines []line,
	i int,
	expectations **expect.Normalized[O],
	parseOutcome func(string) (O, error),
) (int, error) {
	keyLine := lines[i]
	type arm struct {
		cond    *condition
		set     expect.Set[O]
		lineNum int
	}
	var arms []arm

	j := i + 1
	for ; j < len(lines) && lines[j].depth > keyLine.depth; j++ {
		ln := lines[j]
		if expr, rest, ok := cutConditionArm(ln.text); ok {
			cond, err := parseCondition(expr, ln.num)
			if err != nil {
				return 0, err
			}
			set, err := parseSetValue(rest, parseOutcome, ln.num)
			if err != nil {
				return 0, err
			}
			arms = append(arms, arm{cond: &cond, set: set, lineNum: ln.num})
		} else {
			set, err := parseSetValue(ln.text, parseOutcome, ln.num)
			if err != nil {
				return 0, err
			}
			arms = append(arms, arm{set: set, lineNum: ln.num})
		}
	}
	if len(arms) == 0 {
		return 0, fmt.Errorf("line %d: \"expected:\" with no value or conditions", keyLine.num)
	}

	var resolveErr error
	m := expect.MatrixFromQuery(func(p expect.Platform, b expect.BuildProfile) expect.Set[O] {
		for _, a := range arms {
			if a.cond == nil || a.cond.matches(p, b) {
				return a.set
			}
		}
		if resolveErr == nil {
			resolveErr = fmt.Errorf(
				"line %d: conditions do not cover os %v with %v build and give no default",
				keyLine.num, p, b)
		}
		return expect.DefaultSet[O]()
	})
	if resolveErr != nil {
		return 0, resolveErr
	}

	n := expect.Collapse(m)
	*expectations = &n
	return j, nil
}

// cutConditionArm splits `if <expr>: <value>` into expr and value.
func cutConditionArm(text string) (expr, value string, ok bool) {
	rest, found := strings.CutPrefix(text, "if ")
	if !found {
		return "", "", false
	}
	expr, value, found = strings.Cut(rest, ":")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(expr), strings.TrimSpace(value), true
}

// parseCondition understands `os == "<os>"`, `debug`, `not debug`,
// and conjunctions of one os term with one debug term.
func parseCondition(expr string, lineNum int) (condition, error) {
	var c condition
	for _, term := range strings.Split(expr, " and ") {
		term = strings.TrimSpace(term)
		switch {
		case term == "debug":
			if c.hasDebug {
				return c, fmt.Errorf("line %d: duplicate debug term in %q", lineNum, expr)
			}
			c.hasDebug, c.debug = true, true
		case term == "not debug":
			if c.hasDebug {
				return c, fmt.Errorf("line %d: duplicate debug term in %q", lineNum, expr)
			}
			c.hasDebug, c.debug = true, false
		case strings.HasPrefix(term, "os == "):
			if c.hasOS {
				return c, fmt.Errorf("line %d: duplicate os term in %q", lineNum, expr)
			}
			osName := strings.Trim(strings.TrimPrefix(term, "os == "), `"`)
			p, err := expect.ParsePlatform(osName)
			if err != nil {
				return c, fmt.Errorf("line %d: %w", lineNum, err)
			}
			c.hasOS, c.os = true, p
		default:
			return c, fmt.Errorf("line %d: unrecognized condition term %q", lineNum, term)
		}
	}
	return c, nil
}

// parseSetValue reads `LABEL` or `[LABEL, LABEL, ...]`.
func parseSetValue[O expect.Outcome[O]](
	value string,
	parseOutcome func(string) (O, error),
	lineNum int,
) (expect.Set[O], error) {
	var labels []string
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
		for _, l := range strings.Split(inner, ",") {
			labels = append(labels, strings.TrimSpace(l))
		}
	} else {
		labels = []string{value}
	}

	outcomes := make([]O, 0, len(labels))
	for _, l := range labels {
		o, err := parseOutcome(l)
		if err != nil {
			return expect.Set[O]{}, fmt.Errorf("line %d: %w", lineNum, err)
		}
		outcomes = append(outcomes, o)
	}
	set, err := expect.NewSet(outcomes...)
	if err != nil {
		return expect.Set[O]{}, fmt.Errorf("line %d: %w", lineNum, err)
	}
	return set, nil
}
