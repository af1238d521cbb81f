package metadata

import (
	"sort"
	"strings"

	"github.com/unbound-force/ctsmeta/internal/expect"
)

// Format renders a file in normalized form: file properties first,
// then tests and their subtests sorted by section name, expectations
// in their most compact conditional encoding. Format output parses
// back to an equivalent File.
func Format(f File) string {
	var b strings.Builder

	for _, p := range f.Props {
		b.WriteString(p)
		b.WriteByte('\n')
	}

	tests := append([]Test(nil), f.Tests...)
	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })

	for _, test := range tests {
		writeSection(&b, 0, test.Name)
		writeProps(&b, 1, test.Props)

		subtests := append([]Subtest(nil), test.Subtests...)
		sort.Slice(subtests, func(i, j int) bool {
			return subtests[i].Name < subtests[j].Name
		})
		for _, sub := range subtests {
			writeSection(&b, 1, sub.Name)
			writeProps(&b, 2, sub.Props)
		}
	}

	return b.String()
}

func writeSection(b *strings.Builder, depth int, name string) {
	writeIndent(b, depth)
	b.WriteByte('[')
	b.WriteString(name)
	b.WriteString("]\n")
}

func writeProps[O expect.Outcome[O]](b *strings.Builder, depth int, p Props[O]) {
	if p.Disabled {
		writeIndent(b, depth)
		b.WriteString("disabled: true\n")
	}
	if p.Expectations != nil {
		writeExpected(b, depth, *p.Expectations)
	}
}

// writeExpected emits the expectation value: inline when fully
// collapsed, otherwise a first-match-wins condition block covering
// every cell.
func writeExpected[O expect.Outcome[O]](b *strings.Builder, depth int, n expect.Normalized[O]) {
	if bp, ok := n.Uniform(); ok {
		if set, ok := bp.Uniform(); ok {
			writeIndent(b, depth)
			b.WriteString("expected: ")
			b.WriteString(set.String())
			b.WriteByte('\n')
			return
		}

		// Profiles disagree but platforms agree: condition on debug
		// with the optimized value as the default arm.
		profiles, _ := bp.Profiles()
		writeIndent(b, depth)
		b.WriteString("expected:\n")
		writeArm(b, depth+1, "if debug: ", profiles[expect.Debug])
		writeArm(b, depth+1, "", profiles[expect.Optimized])
		return
	}

	byPlatform, _ := n.Platforms()
	writeIndent(b, depth)
	b.WriteString("expected:\n")
	for _, p := range expect.Platforms {
		bp := byPlatform[p]
		if set, ok := bp.Uniform(); ok {
			writeArm(b, depth+1, `if os == "`+p.String()+`": `, set)
			continue
		}
		profiles, _ := bp.Profiles()
		writeArm(b, depth+1, `if os == "`+p.String()+`" and debug: `, profiles[expect.Debug])
		writeArm(b, depth+1, `if os == "`+p.String()+`": `, profiles[expect.Optimized])
	}
}

func writeArm[O expect.Outcome[O]](b *strings.Builder, depth int, prefix string, set expect.Set[O]) {
	writeIndent(b, depth)
	b.WriteString(prefix)
	b.WriteString(set.String())
	b.WriteByte('\n')
}

func writeIndent(b *strings.Builder, depth int) {
	for range depth {
		b.WriteString(strings.Repeat(" ", indentWidth))
	}
}
