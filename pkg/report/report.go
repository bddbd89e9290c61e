// Package report renders findings for people and for downstream tooling.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/user/e8audit/pkg/engine"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatText     Format = "text"
	FormatTemplate Format = "template"
)

var (
	ErrUnknownFormat   = errors.New("unknown report format")
	ErrMissingTemplate = errors.New("template format requires a template file")

	AllFormats = []string{string(FormatJSON), string(FormatYAML), string(FormatText), string(FormatTemplate)}
)

// Report is the document handed to every renderer
type Report struct {
	Findings []engine.Finding `json:"findings" yaml:"findings"`
	Summary  engine.Summary   `json:"summary" yaml:"summary"`
}

// New builds a report over findings.
func New(findings []engine.Finding) Report {
	if findings == nil {
		findings = []engine.Finding{}
	}
	return Report{Findings: findings, Summary: engine.Summarize(findings)}
}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatYAML, FormatText, FormatTemplate:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Renderer writes reports in a fixed format
type Renderer struct {
	format Format
	tmpl   *template.Template
}

// NewRenderer returns a renderer for format. templatePath is required for
// [FormatTemplate] and ignored otherwise.
func NewRenderer(format Format, templatePath string) (*Renderer, error) {
	r := &Renderer{format: format}
	switch format {
	case FormatJSON, FormatYAML, FormatText:
		return r, nil
	case FormatTemplate:
		if templatePath == "" {
			return nil, ErrMissingTemplate
		}
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		t, err := template.New(filepath.Base(templatePath)).Funcs(templateFuncs).Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", templatePath, err)
		}
		r.tmpl = t
		return r, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

var templateFuncs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"byPriority": func(fs []engine.Finding) []engine.Finding {
		return engine.SortByPriority(fs)
	},
}

// Render writes the report to w.
func (r *Renderer) Render(w io.Writer, rep Report) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()

	case FormatTemplate:
		return r.tmpl.Execute(w, rep)

	default:
		_, err := io.WriteString(w, renderText(rep))
		return err
	}
}

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	idStyle      = lipgloss.NewStyle().Width(12)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func verdictBadge(v engine.Verdict) string {
	if v == engine.VerdictPass {
		return passStyle.Render("PASS")
	}
	return failStyle.Render("FAIL")
}

func renderText(rep Report) string {
	var sb strings.Builder

	if len(rep.Findings) == 0 {
		sb.WriteString(mutedStyle.Render("No findings: the evidence did not mention any checked control."))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(headingStyle.Render(fmt.Sprintf("Findings (%d)", len(rep.Findings))))
	sb.WriteString("\n\n")

	for _, f := range rep.Findings {
		sb.WriteString(fmt.Sprintf("%s %s %s %s\n",
			verdictBadge(f.Verdict),
			idStyle.Render(f.TestID),
			f.SubStrategy,
			mutedStyle.Render(fmt.Sprintf("[%s, %s]", f.Level, f.Priority)),
		))
		if len(f.Evidence) > 0 {
			sb.WriteString(fmt.Sprintf("     evidence: %s\n", strings.Join(f.Evidence, ", ")))
		}
		sb.WriteString(fmt.Sprintf("     %s\n", f.Recommendation))
	}

	s := rep.Summary
	sb.WriteString(fmt.Sprintf("\nSummary: %d checks, %d passed, %d failed", s.Total, s.Passed, s.Failed))
	if s.Failed > 0 {
		sb.WriteString(fmt.Sprintf(" (high %d, medium %d, low %d)",
			s.Fails[engine.PriorityHigh], s.Fails[engine.PriorityMedium], s.Fails[engine.PriorityLow]))
	}
	sb.WriteString("\n")
	return sb.String()
}

// RenderDiff writes a snapshot comparison in the text style.
func RenderDiff(w io.Writer, baseline string, diff engine.SnapshotDiff) error {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render(fmt.Sprintf("Snapshot comparison (vs %s)", baseline)))
	sb.WriteString("\n\n")

	section := func(title, mark string, fs []engine.Finding) {
		sb.WriteString(fmt.Sprintf("%s: %d\n", title, len(fs)))
		for _, f := range fs {
			sb.WriteString(fmt.Sprintf("  [%s] %s %s %s (%s)\n", mark, verdictBadge(f.Verdict), f.TestID, f.SubStrategy, strings.Join(f.Evidence, ", ")))
		}
		sb.WriteString("\n")
	}
	section("NEW", "+", diff.New)
	section("RESOLVED", "-", diff.Resolved)
	section("UNCHANGED", "=", diff.Unchanged)

	_, err := io.WriteString(w, sb.String())
	return err
}
