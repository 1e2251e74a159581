package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"hlsc/internal/ir"
)

// ErrorLevel represents the severity of an error
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// CompilerError is a diagnostic anchored at a source position, and for CFG
// problems at a scope and block
type CompilerError struct {
	Level       ErrorLevel
	Code        string
	Message     string
	Scope       string // optional
	Block       string // optional
	Position    ir.Position
	Length      int     // width of the primary span
	Labels      []Label // secondary spans, in the order they are shown
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

// Label marks a secondary span, usually another block involved in the problem
type Label struct {
	Position ir.Position
	Length   int
	Message  string
}

// BlockLabel points at the header of b
func BlockLabel(b *ir.Block, message string) Label {
	return Label{Position: b.Pos, Length: len("block"), Message: message}
}

// Suggestion represents a suggested fix
type Suggestion struct {
	Message     string
	Replacement string      // optional
	Position    ir.Position // optional
	Length      int         // optional
}

// ErrorReporter renders diagnostics against the source of one file
type ErrorReporter struct {
	filename string
	lines    []string
}

// NewErrorReporter creates a new error reporter for a file
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatError renders err in the usual compiler layout: a header, the
// location, the primary span with one line of context on each side, every
// secondary label, then suggestions, notes and help.
func (er *ErrorReporter) FormatError(err *CompilerError) string {
	r := &report{
		lines: er.lines,
		level: levelColor(err.Level),
		dim:   color.New(color.Faint),
	}
	r.width = gutterWidth(err)
	r.indent = strings.Repeat(" ", r.width)

	r.header(err)

	filename := er.filename
	if err.Position.Filename != "" {
		filename = err.Position.Filename
	}
	r.printf("%s %s %s:%d:%d\n", r.indent, r.dim.Sprint("-->"), filename, err.Position.Line, err.Position.Column)
	if where := anchor(err); where != "" {
		r.gutter(r.dim.Sprint(where))
	}
	r.gutter("")

	if err.Position.Line > 0 {
		r.source(err.Position.Line-1, false)
		if r.source(err.Position.Line, true) {
			r.underline(err.Position.Column, err.Length, "^", r.level, "")
		}
		r.source(err.Position.Line+1, false)
	}

	labelColor := color.New(color.FgBlue, color.Bold)
	for _, l := range err.Labels {
		if l.Position.Line <= 0 {
			continue
		}
		r.printf("%s %s\n", r.indent, r.dim.Sprint("..."))
		if r.source(l.Position.Line, true) {
			r.underline(l.Position.Column, l.Length, "-", labelColor, l.Message)
		}
	}

	r.suggestions(err.Suggestions)

	noteColor := color.New(color.FgBlue)
	for _, note := range err.Notes {
		r.gutter(noteColor.Sprint("note:") + " " + note)
	}
	if err.HelpText != "" {
		r.gutter(color.New(color.FgGreen).Sprint("help:") + " " + err.HelpText)
	}

	r.out.WriteString("\n")
	return r.out.String()
}

// anchor names the scope and block a CFG diagnostic belongs to
func anchor(err *CompilerError) string {
	if err.Scope == "" {
		return ""
	}
	where := "scope " + err.Scope
	if err.Block != "" {
		where += ", block " + err.Block
	}
	return where
}

type report struct {
	out    strings.Builder
	lines  []string
	width  int
	indent string
	level  *color.Color
	dim    *color.Color
}

func (r *report) printf(format string, args ...any) {
	fmt.Fprintf(&r.out, format, args...)
}

func (r *report) gutter(text string) {
	if text == "" {
		r.printf("%s %s\n", r.indent, r.dim.Sprint("│"))
		return
	}
	r.printf("%s %s %s\n", r.indent, r.dim.Sprint("│"), text)
}

func (r *report) header(err *CompilerError) {
	level := r.level.Sprint(string(err.Level))
	if err.Code != "" {
		r.printf("%s[%s]: %s\n", level, err.Code, err.Message)
		return
	}
	r.printf("%s: %s\n", level, err.Message)
}

// source writes line n with its number and reports whether the file has it
func (r *report) source(n int, emphasize bool) bool {
	if n < 1 || n > len(r.lines) {
		return false
	}
	num := fmt.Sprintf("%*d", r.width, n)
	if emphasize {
		num = color.New(color.Bold).Sprint(num)
	} else {
		num = r.dim.Sprint(num)
	}
	r.printf("%s %s %s\n", num, r.dim.Sprint("│"), r.lines[n-1])
	return true
}

func (r *report) underline(column, length int, ch string, c *color.Color, message string) {
	text := marker(column, length, ch)
	pad := len(text) - len(strings.TrimLeft(text, " "))
	line := text[:pad] + c.Sprint(text[pad:])
	if message != "" {
		line += " " + c.Sprint(message)
	}
	r.gutter(line)
}

func (r *report) suggestions(suggestions []Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	cyan := color.New(color.FgCyan)
	r.gutter("")
	for i, s := range suggestions {
		if i == 0 {
			r.printf("%s %s %s: %s\n", r.indent, cyan.Sprint("help"), cyan.Sprint("try"), s.Message)
		} else {
			r.printf("%s %s %s\n", r.indent, cyan.Sprint("    "), s.Message)
		}
		if s.Replacement != "" {
			r.gutter("")
			replacement := strings.ReplaceAll(s.Replacement, "\n", fmt.Sprintf("\n%s %s ", r.indent, r.dim.Sprint("│")))
			r.printf("%s %s %s\n", r.indent, cyan.Sprint("│"), cyan.Sprint(replacement))
		}
	}
}

// marker is the plain underline of a span starting at column (1-based)
func marker(column, length int, ch string) string {
	if length <= 0 {
		length = 1
	}
	return strings.Repeat(" ", max(0, column-1)) + strings.Repeat(ch, length)
}

func levelColor(level ErrorLevel) *color.Color {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold)
	case Note:
		return color.New(color.FgBlue, color.Bold)
	case Help:
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// gutterWidth fits the largest line number shown, with a minimum of 3
func gutterWidth(err *CompilerError) int {
	last := err.Position.Line + 1
	for _, l := range err.Labels {
		last = max(last, l.Position.Line)
	}
	return max(3, len(fmt.Sprint(last)))
}
