package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Format selects how a Result is written.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat converts a flag or config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatJSON, FormatYAML, FormatText:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", errors.Newf("unknown output format %q (must be auto, json, yaml or text)", s)
	}
}

// wire is the document layout shared by the JSON and YAML encoders.
type wire struct {
	Changed bool      `json:"changed" yaml:"changed"`
	Failed  bool      `json:"failed,omitempty" yaml:"failed,omitempty"`
	Message string    `json:"message,omitempty" yaml:"message,omitempty"`
	Msg     string    `json:"msg,omitempty" yaml:"msg,omitempty"`
	Jobs    *[]string `json:"jobs,omitempty" yaml:"jobs,omitempty"`
}

func (r Result) wire() wire {
	w := wire{Changed: r.Changed, Failed: r.Failed, Message: r.Message, Msg: r.Msg}
	if r.Jobs != nil {
		jobs := r.Jobs
		w.Jobs = &jobs
	}
	return w
}

// Encode writes r in the given format. FormatAuto must be resolved by
// the caller.
func Encode(w io.Writer, r Result, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(r.wire())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.wire()); err != nil {
			return errors.Wrap(err, "encode yaml result")
		}
		return enc.Close()
	case FormatText:
		_, err := io.WriteString(w, RenderText(r, DefaultStyles()))
		return err
	default:
		return errors.Newf("cannot encode result as %q", format)
	}
}

// Styles contains the lipgloss styles for text output.
type Styles struct {
	OK      lipgloss.Style
	Changed lipgloss.Style
	Failed  lipgloss.Style
	Message lipgloss.Style
	Job     lipgloss.Style
}

// DefaultStyles returns the default text styles.
func DefaultStyles() Styles {
	return Styles{
		OK:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Changed: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Failed:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Message: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Job:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
}

// RenderText renders r for a terminal.
func RenderText(r Result, s Styles) string {
	var b strings.Builder

	status, msg := s.OK.Render("ok"), r.Message
	switch {
	case r.Failed:
		status, msg = s.Failed.Render("failed"), r.Msg
	case r.Changed:
		status = s.Changed.Render("changed")
	}

	b.WriteString(status)
	if text := unquote(msg); text != "" {
		fmt.Fprintf(&b, ": %s", s.Message.Render(text))
	}
	b.WriteString("\n")

	for _, job := range r.Jobs {
		fmt.Fprintf(&b, "  • %s\n", s.Job.Render(job))
	}
	return b.String()
}

func unquote(s string) string {
	var out string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return s
	}
	return out
}
