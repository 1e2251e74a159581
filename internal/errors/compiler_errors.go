package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"hlsc/internal/ir"
)

// ErrorBuilder provides a fluent interface for creating compiler errors
type ErrorBuilder struct {
	err CompilerError
}

// NewCompilerError creates a new error builder
func NewCompilerError(code, message string) *ErrorBuilder {
	return &ErrorBuilder{
		err: CompilerError{
			Level:   Error,
			Code:    code,
			Message: message,
			Length:  1,
		},
	}
}

// NewCompilerWarning creates a new warning builder
func NewCompilerWarning(code, message string) *ErrorBuilder {
	b := NewCompilerError(code, message)
	b.err.Level = Warning
	return b
}

// WithScope records the scope the error belongs to
func (b *ErrorBuilder) WithScope(name string) *ErrorBuilder {
	b.err.Scope = name
	return b
}

// WithBlock records the block the error points at and takes its position
func (b *ErrorBuilder) WithBlock(block *ir.Block) *ErrorBuilder {
	if block != nil {
		b.err.Block = block.Name
		if b.err.Position == (ir.Position{}) {
			b.err.Position = block.Pos
			b.err.Length = len("block")
		}
	}
	return b
}

// WithPosition sets the source position
func (b *ErrorBuilder) WithPosition(pos ir.Position) *ErrorBuilder {
	b.err.Position = pos
	return b
}

// WithLength sets the length of the error span
func (b *ErrorBuilder) WithLength(length int) *ErrorBuilder {
	b.err.Length = length
	return b
}

// WithLabels adds secondary spans to the error
func (b *ErrorBuilder) WithLabels(labels ...Label) *ErrorBuilder {
	b.err.Labels = append(b.err.Labels, labels...)
	return b
}

// WithSuggestion adds a suggestion to the error
func (b *ErrorBuilder) WithSuggestion(message string) *ErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the error
func (b *ErrorBuilder) WithNote(note string) *ErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error
func (b *ErrorBuilder) WithHelp(help string) *ErrorBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error
func (b *ErrorBuilder) Build() *CompilerError {
	err := b.err
	return &err
}

// Error implements the error interface
func (e *CompilerError) Error() string {
	var sb strings.Builder
	if e.Code != "" {
		sb.WriteString(fmt.Sprintf("%s[%s]: ", e.Level, e.Code))
	} else {
		sb.WriteString(fmt.Sprintf("%s: ", e.Level))
	}
	if e.Scope != "" {
		sb.WriteString("scope " + e.Scope)
		if e.Block != "" {
			sb.WriteString(", block " + e.Block)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// HasCode reports whether err, or any error it wraps, is a CompilerError with code
func HasCode(err error, code string) bool {
	var ce *CompilerError
	if stderrors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// AsCompilerError unwraps err into a CompilerError if it holds one
func AsCompilerError(err error) (*CompilerError, bool) {
	var ce *CompilerError
	ok := stderrors.As(err, &ce)
	return ce, ok
}

// Common constructors

// MalformedCFG reports a CFG the SSA pass cannot work on
func MalformedCFG(scope string, block *ir.Block, reason string, related ...Label) *CompilerError {
	return NewCompilerError(ErrorMalformedCFG, "malformed control-flow graph: "+reason).
		WithScope(scope).
		WithBlock(block).
		WithLabels(related...).
		WithHelp("every block must be reachable from the entry block and every edge must be listed on both ends").
		Build()
}

// AmbiguousPhi reports a phi whose arguments do not match the predecessor
// edges. Every edge is labelled at its predecessor with the value it carries.
func AmbiguousPhi(scope string, block *ir.Block, phi *ir.Phi, reason string) *CompilerError {
	return NewCompilerError(ErrorAmbiguousPhi, fmt.Sprintf("using ambiguous variable in '%s': %s", phi, reason)).
		WithScope(scope).
		WithBlock(block).
		WithLabels(phiEdges(block, phi)...).
		WithNote(fmt.Sprintf("block '%s' has %d predecessor edge(s)", block.Name, len(block.Preds))).
		Build()
}

func phiEdges(block *ir.Block, phi *ir.Phi) []Label {
	labels := make([]Label, 0, len(block.Preds))
	for i, pred := range block.Preds {
		switch {
		case i >= len(phi.Args):
			labels = append(labels, BlockLabel(pred, fmt.Sprintf("edge %d: no argument slot", i)))
		case phi.Args[i].Var == nil:
			labels = append(labels, BlockLabel(pred, fmt.Sprintf("edge %d: no value for '%s'", i, phi.Var)))
		default:
			labels = append(labels, BlockLabel(pred, fmt.Sprintf("edge %d: %s", i, phi.Args[i].Var)))
		}
	}
	return labels
}

// UnknownSymbolClass reports a symbol the exclusion policy cannot classify
func UnknownSymbolClass(scope string, sym *ir.Symbol) *CompilerError {
	return NewCompilerError(ErrorUnknownSymbolClass, fmt.Sprintf("cannot classify symbol '%s' (kind %s)", sym.Name, sym.Kind)).
		WithScope(scope).
		WithSuggestion(fmt.Sprintf("declare it, for example 'var %s;'", sym.Name)).
		WithNote("renaming a symbol that must keep a flat name would produce unsound SSA").
		Build()
}

// SSAViolation reports a broken SSA property found by verification
func SSAViolation(scope string, block *ir.Block, reason string, related ...Label) *CompilerError {
	return NewCompilerError(ErrorSSAViolation, reason).
		WithScope(scope).
		WithBlock(block).
		WithLabels(related...).
		Build()
}

// Syntax reports a parse failure
func Syntax(message string, pos ir.Position) *CompilerError {
	return NewCompilerError(ErrorSyntax, message).
		WithPosition(pos).
		Build()
}

// List collects the diagnostics of one run, warnings included
type List []*CompilerError

// HasErrors reports whether any entry is an error rather than a warning
func (l List) HasErrors() bool {
	for _, e := range l {
		if e.Level == Error {
			return true
		}
	}
	return false
}

// Errors returns only the entries at error level
func (l List) Errors() List {
	var out List
	for _, e := range l {
		if e.Level == Error {
			out = append(out, e)
		}
	}
	return out
}

// Err joins the error-level entries, or returns nil when there are none
func (l List) Err() error {
	errs := l.Errors()
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return stderrors.Join(joined...)
}
