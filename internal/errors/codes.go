package errors

// Error codes for the hlsc compiler core
// These codes appear in diagnostics from the CLI and the language server.
//
// Error code ranges:
// E0100-E0199: Textual IR (parser and builder) errors
// E0700-E0799: SSA construction errors
// W0001-W0099: Warnings

const (
	// Textual IR errors (E0100-E0199)

	// E0100: Syntax error reported by the parser
	ErrorSyntax = "E0100"

	// E0101: Two blocks share a name
	ErrorDuplicateBlock = "E0101"

	// E0102: Jump or phi argument names a block that does not exist
	ErrorUndefinedBlock = "E0102"

	// E0103: Terminator followed by more statements
	ErrorMisplacedTerminator = "E0103"

	// E0104: Block does not end with a terminator
	ErrorMissingTerminator = "E0104"

	// E0105: Symbol declared twice
	ErrorDuplicateDeclaration = "E0105"

	// E0106: Scope without blocks
	ErrorEmptyScope = "E0106"

	// SSA construction errors (E0700-E0799)

	// E0700: Unreachable block, entry with predecessors or asymmetric edge
	ErrorMalformedCFG = "E0700"

	// E0701: Phi missing or duplicating an argument for a predecessor edge
	ErrorAmbiguousPhi = "E0701"

	// E0702: Symbol whose exclusion class cannot be determined
	ErrorUnknownSymbolClass = "E0702"

	// E0703: Transformed scope violates an SSA property
	ErrorSSAViolation = "E0703"

	// Warning codes

	// W0001: Symbol used but never declared
	WarningUndeclaredSymbol = "W0001"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "Textual IR does not follow the grammar"
	case ErrorDuplicateBlock:
		return "Block name is used more than once in a scope"
	case ErrorUndefinedBlock:
		return "Referenced block does not exist"
	case ErrorMisplacedTerminator:
		return "Statements follow a terminator"
	case ErrorMissingTerminator:
		return "Block does not end with jump, cjump or ret"
	case ErrorDuplicateDeclaration:
		return "Symbol declared more than once"
	case ErrorEmptyScope:
		return "Scope has no blocks"
	case ErrorMalformedCFG:
		return "Control-flow graph is not connected from a predecessor-free entry"
	case ErrorAmbiguousPhi:
		return "Phi does not have exactly one argument per predecessor edge"
	case ErrorUnknownSymbolClass:
		return "Symbol class is not known to the SSA exclusion policy"
	case ErrorSSAViolation:
		return "Scope is not in valid SSA form"
	case WarningUndeclaredSymbol:
		return "Symbol is used without a declaration"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return code != "" && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code == "":
		return "Unknown"
	case code[0] == 'W':
		return "Warning"
	case code >= "E0100" && code < "E0200":
		return "Textual IR"
	case code >= "E0700" && code < "E0800":
		return "SSA Construction"
	default:
		return "Unknown"
	}
}
