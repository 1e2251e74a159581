package lsp

import (
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"hlsc/grammar"
)

// SemanticToken represents a single LSP semantic token entry
// Line and StartChar are 0-based positions
// TokenType is an index into SemanticTokenTypes
// TokenModifiers is a bitmask based on SemanticTokenModifiers
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int // index into SemanticTokenTypes
	TokenModifiers int // bitmask
}

// declaration keyword -> token type
var kindTokenTypes = map[string]string{
	"var":   "variable",
	"cond":  "variable",
	"temp":  "variable",
	"param": "parameter",
	"mem":   "property",
	"func":  "function",
}

// collector gathers the tokens of one scope; kinds maps declared names to
// their token type
type collector struct {
	tokens []SemanticToken
	kinds  map[string]string
}

func collectSemanticTokens(file *grammar.File) []SemanticToken {
	var tokens []SemanticToken
	if file == nil {
		return tokens
	}

	for _, scope := range file.Scopes {
		c := &collector{kinds: make(map[string]string)}
		c.add(scope.Pos, len("scope"), "keyword", 0)

		for _, decl := range scope.Decls {
			c.add(decl.Pos, len(decl.Kind), "keyword", 0)
			for _, name := range decl.Names {
				typ := kindTokenTypes[decl.Kind]
				c.kinds[name.Value] = typ
				c.name(name, typ, modifierMask("declaration"))
			}
		}

		for _, block := range scope.Blocks {
			c.add(block.Pos, len("block"), "keyword", 0)
			for _, stmt := range block.Stmts {
				c.stmt(stmt)
			}
		}
		tokens = append(tokens, c.tokens...)
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].StartChar < tokens[j].StartChar
	})
	return tokens
}

func (c *collector) stmt(s *grammar.Stmt) {
	switch {
	case s.Phi != nil:
		c.add(s.Phi.Pos, len("phi"), "keyword", 0)
		c.symbol(s.Phi.Dst, modifierMask("definition"))
		for _, arg := range s.Phi.Args {
			if arg.Var != "?" {
				c.symbol(&grammar.Name{Pos: arg.Pos, Value: arg.Var}, 0)
			}
			c.name(arg.Block, "namespace", 0)
		}
	case s.Jump != nil:
		c.add(s.Jump.Pos, len("jump"), "keyword", 0)
		c.name(s.Jump.Target, "namespace", 0)
	case s.CJump != nil:
		c.add(s.CJump.Pos, len("cjump"), "keyword", 0)
		c.expr(s.CJump.Cond)
		c.name(s.CJump.True, "namespace", 0)
		c.name(s.CJump.False, "namespace", 0)
	case s.Ret != nil:
		c.add(s.Ret.Pos, len("ret"), "keyword", 0)
		if s.Ret.Value != nil {
			c.expr(s.Ret.Value)
		}
	case s.Store != nil:
		c.name(s.Store.Mem, "property", 0)
		c.expr(s.Store.Offset)
		c.expr(s.Store.Value)
	case s.Move != nil:
		c.symbol(s.Move.Dst, modifierMask("definition"))
		c.expr(s.Move.Src)
	case s.Expr != nil:
		c.expr(s.Expr.Expr)
	}
}

func (c *collector) expr(e *grammar.Expr) {
	if e == nil {
		return
	}
	c.unary(e.Left)
	if e.Tail != nil {
		c.add(e.Tail.Pos, len(e.Tail.Op), "operator", 0)
		c.unary(e.Tail.Right)
	}
}

func (c *collector) unary(u *grammar.Unary) {
	if u == nil {
		return
	}
	if u.Operand != nil {
		c.add(u.Pos, len(u.Op), "operator", 0)
		c.unary(u.Operand)
		return
	}

	p := u.Primary
	switch {
	case p == nil:
	case p.Int != nil:
		c.add(p.Pos, len(strconv.FormatInt(*p.Int, 10)), "number", 0)
	case p.Call != nil:
		c.name(p.Call.Func, "function", 0)
		for _, arg := range p.Call.Args {
			c.expr(arg)
		}
	case p.Index != nil:
		c.name(p.Index.Mem, "property", 0)
		c.expr(p.Index.Offset)
	case p.Ident != nil:
		c.symbol(p.Ident, 0)
	case p.Sub != nil:
		c.expr(p.Sub)
	}
}

// symbol marks a reference whose type comes from the scope declarations;
// versioned names take the type of their base
func (c *collector) symbol(n *grammar.Name, mods int) {
	if n == nil {
		return
	}
	base, _, _ := strings.Cut(n.Value, "#")
	typ, ok := c.kinds[base]
	if !ok {
		typ = "variable"
	}
	c.name(n, typ, mods)
}

func (c *collector) name(n *grammar.Name, typ string, mods int) {
	if n == nil {
		return
	}
	c.add(n.Pos, len(n.Value), typ, mods)
}

func (c *collector) add(pos lexer.Position, length int, typ string, mods int) {
	if pos.Line < 1 || length < 1 {
		return
	}
	c.tokens = append(c.tokens, SemanticToken{
		Line:           uint32(pos.Line - 1),
		StartChar:      uint32(pos.Column - 1),
		Length:         uint32(length),
		TokenType:      tokenTypeIndex(typ),
		TokenModifiers: mods,
	})
}

func tokenTypeIndex(name string) int {
	for i, t := range SemanticTokenTypes {
		if t == name {
			return i
		}
	}
	return 0
}

func modifierMask(names ...string) int {
	mask := 0
	for _, name := range names {
		for i, m := range SemanticTokenModifiers {
			if m == name {
				mask |= 1 << i
			}
		}
	}
	return mask
}

// encodeSemanticTokens packs tokens into the LSP wire format, using
// delta-line and delta-start compression
func encodeSemanticTokens(tokens []SemanticToken) []uint32 {
	var data []uint32
	var prevLine, prevStart uint32

	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}

		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))

		prevLine = token.Line
		prevStart = token.StartChar
	}
	return data
}
