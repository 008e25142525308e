package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Style selects how Print lays out an error.
type Style uint8

const (
	StylePretty  Style = iota // Multi-line with source context, for terminals
	StyleCompact              // One line, for pipes and log files
	StyleJSON                 // One JSON object per line
)

// StyleFor picks the style for w: JSON when the log format is json, pretty
// on a terminal, compact otherwise.
func StyleFor(logFormat string, w io.Writer) Style {
	if strings.EqualFold(logFormat, "json") {
		return StyleJSON
	}
	if isTerminal(w) {
		return StylePretty
	}
	return StyleCompact
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Print writes err to w in the given style. Errors that are not an *Error
// anywhere in their chain are printed with their message only.
func Print(w io.Writer, err error, style Style) {
	if err == nil {
		return
	}
	var e *Error
	if !stderrors.As(err, &e) {
		e = &Error{Category: CategoryCLI, Message: err.Error()}
	}

	switch style {
	case StyleJSON:
		fmt.Fprintln(w, e.FormatJSON())
	case StyleCompact:
		fmt.Fprintln(w, e.FormatCompact())
	default:
		color := isTerminal(w) && os.Getenv("NO_COLOR") == ""
		fmt.Fprint(w, e.Format(color))
	}
}

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

// painter adds ANSI codes when on is set.
type painter bool

func (p painter) paint(code, s string) string {
	if !p {
		return s
	}
	return code + s + ansiReset
}

// Format lays the error out over several lines: header, the offending
// lines of the file with a caret under Location, then detail, hint,
// example and cause. color adds ANSI escapes.
func (e *Error) Format(color bool) string {
	p := painter(color)
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(p.paint(ansiRed+ansiBold, "ERROR"))
	if e.Code != "" {
		b.WriteString(" " + p.paint(ansiBold, e.Code))
	}
	b.WriteString(": " + e.Message + "\n\n")

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", p.paint(ansiCyan, e.Location.String()))
		if len(e.Context) > 0 {
			e.writeContext(&b, p)
			b.WriteString("\n")
		}
	}

	for _, line := range wrapText(e.Detail, 70) {
		b.WriteString("  " + line + "\n")
	}
	if e.Detail != "" {
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", p.paint(ansiCyan, "Hint: "), e.Suggestion)
	}

	if e.Example != "" {
		fmt.Fprintf(&b, "  %s\n", p.paint(ansiCyan, "Example:"))
		for _, line := range strings.Split(e.Example, "\n") {
			b.WriteString("    " + line + "\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n", p.paint(ansiGray, "Cause: "), e.Wrapped)
	}
	return b.String()
}

// writeContext prints the context lines, marking Location's line with an
// arrow and its column with a caret.
func (e *Error) writeContext(b *strings.Builder, p painter) {
	bar := p.paint(ansiGray, " │ ")
	first := e.Location.Line - len(e.Context)/2
	for i, line := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, bar, line)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", p.paint(ansiRed, "→ "), n, bar, line)
		if e.Location.Column > 0 {
			fmt.Fprintf(b, "        %s%s%s\n", p.paint(ansiGray, "│ "),
				strings.Repeat(" ", e.Location.Column-1), p.paint(ansiRed, "^"))
		}
	}
}

// FormatCompact returns the error on one line, prefixed by its location:
//
//	blockwire.toml:3:8: E122: Invalid address: <cause>
func (e *Error) FormatCompact() string {
	if e.Location == nil {
		return e.Error()
	}
	return e.Location.String() + ": " + e.Error()
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Cause      string        `json:"cause,omitempty"`
}

// FormatJSON returns the error as a single-line JSON object.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapText breaks text into lines of at most width bytes at word boundaries.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}
