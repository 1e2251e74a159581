package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var HIRLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"Comment", `//[^\n]*`, nil},

		// Identifiers, with optional input marker and SSA version suffix
		{"Ident", `@?[a-zA-Z_][a-zA-Z0-9_]*(#[0-9]+)?`, nil},

		// Integer literals
		{"Integer", `[0-9]+`, nil},

		// Operators (longest first)
		{"Operator", `(<<|>>|<=|>=|==|!=|&&|\|\||[-+*/%&|^<>=!~])`, nil},

		// Punctuation
		{"Punctuation", `[{}[\]();,?:]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
