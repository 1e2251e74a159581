package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is a textual IR document holding one or more scopes
type File struct {
	Pos    lexer.Position
	Scopes []*Scope `@@*`
}

type Scope struct {
	Pos    lexer.Position
	Name   string   `"scope" @Ident "{"`
	Decls  []*Decl  `@@*`
	Blocks []*Block `@@* "}"`
}

// Decl declares symbols of one kind, e.g. "var i, j;"
type Decl struct {
	Pos   lexer.Position
	Kind  string  `@("var" | "cond" | "temp" | "mem" | "func" | "param")`
	Names []*Name `@@ { "," @@ } ";"`
}

type Name struct {
	Pos   lexer.Position
	Value string `@Ident`
}

type Block struct {
	Pos   lexer.Position
	Name  string  `"block" @Ident "{"`
	Stmts []*Stmt `@@* "}"`
}

type Stmt struct {
	Pos   lexer.Position
	Phi   *PhiStmt   `  @@`
	Jump  *JumpStmt  `| @@`
	CJump *CJumpStmt `| @@`
	Ret   *RetStmt   `| @@`
	Store *StoreStmt `| @@`
	Move  *MoveStmt  `| @@`
	Expr  *ExprStmt  `| @@`
}

type PhiStmt struct {
	Pos  lexer.Position
	Dst  *Name     `"phi" @@ "="`
	Args []*PhiArg `"(" [ @@ { "," @@ } ] ")" ";"`
}

// PhiArg pairs an incoming value with its predecessor; "?" marks a slot
// that has not been filled yet.
type PhiArg struct {
	Pos   lexer.Position
	Var   string `@(Ident | "?") ":"`
	Block *Name  `@@`
}

type JumpStmt struct {
	Pos    lexer.Position
	Target *Name `"jump" @@ ";"`
}

type CJumpStmt struct {
	Pos   lexer.Position
	Cond  *Expr `"cjump" @@ "?"`
	True  *Name `@@ ":"`
	False *Name `@@ ";"`
}

type RetStmt struct {
	Pos   lexer.Position
	Value *Expr `"ret" [ @@ ] ";"`
}

type StoreStmt struct {
	Pos    lexer.Position
	Mem    *Name `@@ "["`
	Offset *Expr `@@ "]" "="`
	Value  *Expr `@@ ";"`
}

type MoveStmt struct {
	Pos lexer.Position
	Dst *Name `@@ "="`
	Src *Expr `@@ ";"`
}

type ExprStmt struct {
	Pos  lexer.Position
	Expr *Expr `@@ ";"`
}

// Expr is a unary operand optionally followed by one binary operator.
// Nesting uses parentheses; there is no precedence climbing.
type Expr struct {
	Pos  lexer.Position
	Left *Unary   `@@`
	Tail *BinTail `@@?`
}

type BinTail struct {
	Pos   lexer.Position
	Op    string `@("<<" | ">>" | "<=" | ">=" | "==" | "!=" | "&&" | "||" | "+" | "-" | "*" | "/" | "%" | "&" | "|" | "^" | "<" | ">")`
	Right *Unary `@@`
}

type Unary struct {
	Pos     lexer.Position
	Op      string   `  @("-" | "!" | "~")`
	Operand *Unary   `  @@`
	Primary *Primary `| @@`
}

type Primary struct {
	Pos   lexer.Position
	Int   *int64 `  @Integer`
	Call  *Call  `| @@`
	Index *Index `| @@`
	Ident *Name  `| @@`
	Sub   *Expr  `| "(" @@ ")"`
}

type Call struct {
	Pos  lexer.Position
	Func *Name   `@@ "("`
	Args []*Expr `[ @@ { "," @@ } ] ")"`
}

type Index struct {
	Pos    lexer.Position
	Mem    *Name `@@ "["`
	Offset *Expr `@@ "]"`
}
