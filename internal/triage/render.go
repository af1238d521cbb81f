package triage

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/ctsmeta/internal/expect"
)

// Styles defines the visual theme for terminal triage output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for per-platform section headers.
	Header lipgloss.Style

	// PriorityHigh through PriorityLow color-code bucket priority.
	PriorityHigh   lipgloss.Style
	PriorityMedium lipgloss.Style
	PriorityLow    lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for triage output.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),

		PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Border:      lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// PriorityStyle returns the style for a bucket priority.
func (s Styles) PriorityStyle(p Priority) lipgloss.Style {
	switch p {
	case High:
		return s.PriorityHigh
	case Medium:
		return s.PriorityMedium
	}
	return s.PriorityLow
}

// bucket pairs one tally slice with its display metadata.
type bucket struct {
	title    string
	priority Priority
	cases    []Case
}

func buckets(t *Tally) []bucket {
	return []bucket{
		{"PERMA-CRASHES", High, t.PermaCrash},
		{"PERMA-FAILURES", High, t.PermaFail},
		{"PERMA-TIMEOUTS", Medium, t.PermaTimeout},
		{"INTERMITTENT CRASHES", Medium, t.IntermittentCrash},
		{"INTERMITTENTS", Low, t.Intermittent},
	}
}

// RenderOptions controls triage output.
type RenderOptions struct {
	// ShowEmpty keeps zero-item buckets in the output.
	ShowEmpty bool
}

// WriteText writes the triage report as human-readable styled text.
// Output uses lipgloss for color when the output is a TTY; degrades
// gracefully for pipes and CI.
func WriteText(w io.Writer, r *Report, opts RenderOptions) error {
	s := DefaultStyles()
	if _, err := fmt.Fprint(w, Render(r, opts, s)); err != nil {
		return err
	}
	return nil
}

// Render produces the styled triage text. Split out from WriteText so
// the interactive viewer can reuse it.
func Render(r *Report, opts RenderOptions, s Styles) string {
	out := ""

	for _, p := range expect.Platforms {
		t := r.ByPlatform[p]
		if t == nil {
			t = &Tally{}
		}
		out += s.Header.Render(fmt.Sprintf("=== %s ===", p)) + "\n"
		wrote := false
		for _, b := range buckets(t) {
			if len(b.cases) == 0 && !opts.ShowEmpty {
				continue
			}
			wrote = true
			out += renderBucket(b, s)
		}
		if !wrote {
			out += s.Muted.Render("    nothing to triage") + "\n"
		}
		out += "\n"
	}

	if len(r.Disabled) > 0 || opts.ShowEmpty {
		out += renderBucket(bucket{"DISABLED", Low, r.Disabled}, s)
		out += "\n"
	}

	out += s.Header.Render(fmt.Sprintf("%d finding(s) across %d platform(s)",
		r.TotalCases(), len(expect.Platforms))) + "\n"
	return out
}

func renderBucket(b bucket, s Styles) string {
	label := s.PriorityStyle(b.priority).Render(fmt.Sprintf("[%s]", b.priority))
	head := fmt.Sprintf("%s %s: %d", label, b.title, len(b.cases))
	if len(b.cases) == 0 {
		return head + "\n"
	}

	const maxName = 46
	rows := make([][]string, 0, len(b.cases))
	for _, c := range b.cases {
		name := c.Name()
		if len(name) > maxName {
			name = name[:maxName-3] + "..."
		}
		rows = append(rows, []string{name, c.File})
	}

	t := table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			return lipgloss.NewStyle().PaddingRight(1)
		}).
		Headers("TEST", "FILE").
		Rows(rows...)

	return head + "\n" + t.String() + "\n"
}
