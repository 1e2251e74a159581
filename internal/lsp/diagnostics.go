package lsp

import (
	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"hlsc/grammar"
	"hlsc/internal/builder"
	"hlsc/internal/config"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
	"hlsc/internal/pipeline"
)

// Analyze parses, builds and converts every scope of a document and returns
// the problems found along the way. Conversion runs on a private copy of
// the document, so the source is never modified.
func Analyze(path, content string, cfg *config.Config) []protocol.Diagnostic {
	file, err := grammar.ParseString(path, content)
	if err != nil {
		return ConvertParseError(err)
	}

	scopes, diags := builder.Build(file)
	diagnostics := ConvertCompilerErrors(diags)

	p := pipeline.New(cfg)
	for _, scope := range scopes {
		if err := p.Run(scope); err != nil {
			diagnostics = append(diagnostics, convertPipelineError(scope, err))
		}
	}
	return diagnostics
}

// ConvertParseError turns a participle error into a single diagnostic
func ConvertParseError(err error) []protocol.Diagnostic {
	var pos ir.Position
	message := err.Error()
	if pe, ok := err.(participle.Error); ok {
		p := pe.Position()
		pos = ir.Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
		message = pe.Message()
	}

	return []protocol.Diagnostic{{
		Range:    span(pos, 1),
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Code:     &protocol.IntegerOrString{Value: errors.ErrorSyntax},
		Source:   ptrString("hlsc-parser"),
		Message:  message,
	}}
}

// ConvertCompilerErrors transforms builder and SSA diagnostics for IDE display
func ConvertCompilerErrors(list errors.List) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, ce := range list {
		diagnostics = append(diagnostics, convertCompilerError(ce))
	}
	return diagnostics
}

func convertCompilerError(ce *errors.CompilerError) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	if ce.Level == errors.Warning {
		severity = protocol.DiagnosticSeverityWarning
	}

	message := ce.Message
	if ce.HelpText != "" {
		message += "\nhelp: " + ce.HelpText
	}
	for _, s := range ce.Suggestions {
		message += "\nhelp: " + s.Message
	}

	return protocol.Diagnostic{
		Range:    span(ce.Position, ce.Length),
		Severity: ptrSeverity(severity),
		Code:     &protocol.IntegerOrString{Value: ce.Code},
		Source:   ptrString("hlsc"),
		Message:  message,
	}
}

// convertPipelineError attaches errors that carry no position to the scope header
func convertPipelineError(scope *ir.Scope, err error) protocol.Diagnostic {
	ce, ok := errors.AsCompilerError(err)
	if !ok {
		ce = errors.NewCompilerError("", err.Error()).
			WithScope(scope.Name).
			Build()
	}
	if ce.Position == (ir.Position{}) {
		copied := *ce
		copied.Position = scope.Pos
		copied.Length = len("scope")
		ce = &copied
	}
	return convertCompilerError(ce)
}

// span converts a 1-based position into a 0-based LSP range
func span(pos ir.Position, length int) protocol.Range {
	line := max(pos.Line-1, 0)
	char := max(pos.Column-1, 0)
	if length < 1 {
		length = 1
	}
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: uint32(char)},
		End:   protocol.Position{Line: uint32(line), Character: uint32(char + length)},
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
