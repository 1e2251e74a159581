package ir

import (
	"fmt"
	"strings"
)

// IR types for the SSA construction core.
// Statements and expressions are closed sum types: the unexported marker
// methods keep other packages from adding variants, so every type switch in
// this module can be exhaustive.

// Ctx is the load/store mode of a variable reference
type Ctx int

const (
	Load Ctx = iota
	Store
)

func (c Ctx) String() string {
	if c == Store {
		return "Store"
	}
	return "Load"
}

// Expr is any expression
type Expr interface {
	String() string
	expr()
}

// Stmt is any statement
type Stmt interface {
	String() string
	IsTerminator() bool
	stmt()
}

// Expressions

// Temp is a reference to a variable symbol
type Temp struct {
	Sym *Symbol
	Ctx Ctx
}

type Const struct {
	Value int64
}

type UnOp struct {
	Op  string
	Exp Expr
}

type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

// Call invokes a function reference
type Call struct {
	Func *Temp
	Args []Expr
}

// MRef reads a memory at an offset
type MRef struct {
	Mem    *Temp
	Offset Expr
}

// Statements

// Move assigns Src to the variable Dst
type Move struct {
	Dst *Temp
	Src Expr
}

// Store writes Exp into memory Mem at Offset
type Store struct {
	Mem    *Temp
	Offset Expr
	Exp    Expr
}

// ExprStmt evaluates an expression for its effects
type ExprStmt struct {
	Exp Expr
}

type Jump struct {
	Target *Block
}

type CJump struct {
	Cond  Expr
	True  *Block
	False *Block
}

type Ret struct {
	Exp Expr // nil for a bare return
}

// PhiArg is the value flowing into a phi along the edge from Pred.
// A nil Var marks a missing argument.
type PhiArg struct {
	Var  *Temp
	Pred *Block
}

// Phi selects a value depending on the predecessor edge taken.
// Once complete, Args holds one entry per predecessor of the containing
// block, in predecessor order.
type Phi struct {
	Var  *Temp
	Args []PhiArg
}

// Constructors

// NewTemp creates a variable reference
func NewTemp(sym *Symbol, ctx Ctx) *Temp {
	return &Temp{Sym: sym, Ctx: ctx}
}

// NewPhi creates a phi for sym with one empty argument slot per predecessor of block
func NewPhi(sym *Symbol, block *Block) *Phi {
	args := make([]PhiArg, len(block.Preds))
	for i, pred := range block.Preds {
		args[i].Pred = pred
	}
	return &Phi{Var: NewTemp(sym, Store), Args: args}
}

// Marker methods

func (*Temp) expr()  {}
func (*Const) expr() {}
func (*UnOp) expr()  {}
func (*BinOp) expr() {}
func (*Call) expr()  {}
func (*MRef) expr()  {}

func (*Move) stmt()     {}
func (*Store) stmt()    {}
func (*ExprStmt) stmt() {}
func (*Jump) stmt()     {}
func (*CJump) stmt()    {}
func (*Ret) stmt()      {}
func (*Phi) stmt()      {}

func (*Move) IsTerminator() bool     { return false }
func (*Store) IsTerminator() bool    { return false }
func (*ExprStmt) IsTerminator() bool { return false }
func (*Jump) IsTerminator() bool     { return true }
func (*CJump) IsTerminator() bool    { return true }
func (*Ret) IsTerminator() bool      { return true }
func (*Phi) IsTerminator() bool      { return false }

// String implementations print the textual IR syntax

func (t *Temp) String() string  { return t.Sym.Name }
func (c *Const) String() string { return fmt.Sprintf("%d", c.Value) }
func (u *UnOp) String() string  { return u.Op + operand(u.Exp) }
func (b *BinOp) String() string {
	return fmt.Sprintf("%s %s %s", operand(b.Left), b.Op, operand(b.Right))
}
func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Func, strings.Join(args, ", "))
}
func (m *MRef) String() string { return fmt.Sprintf("%s[%s]", m.Mem, m.Offset) }

func (m *Move) String() string     { return fmt.Sprintf("%s = %s;", m.Dst, m.Src) }
func (s *Store) String() string    { return fmt.Sprintf("%s[%s] = %s;", s.Mem, s.Offset, s.Exp) }
func (e *ExprStmt) String() string { return e.Exp.String() + ";" }
func (j *Jump) String() string     { return fmt.Sprintf("jump %s;", j.Target.Name) }
func (c *CJump) String() string {
	return fmt.Sprintf("cjump %s ? %s : %s;", c.Cond, c.True.Name, c.False.Name)
}
func (r *Ret) String() string {
	if r.Exp == nil {
		return "ret;"
	}
	return fmt.Sprintf("ret %s;", r.Exp)
}
func (p *Phi) String() string {
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		switch {
		case a.Var == nil && a.Pred == nil:
			args[i] = "?"
		case a.Var == nil:
			args[i] = "? : " + a.Pred.Name
		default:
			args[i] = fmt.Sprintf("%s : %s", a.Var, a.Pred.Name)
		}
	}
	return fmt.Sprintf("phi %s = (%s);", p.Var, strings.Join(args, ", "))
}

// operand parenthesizes nested operators so printed IR parses back unchanged
func operand(e Expr) string {
	switch e.(type) {
	case *BinOp:
		return "(" + e.String() + ")"
	default:
		return e.String()
	}
}

// Successors returns the blocks a terminator may transfer control to
func Successors(s Stmt) []*Block {
	switch t := s.(type) {
	case *Jump:
		return []*Block{t.Target}
	case *CJump:
		return []*Block{t.True, t.False}
	default:
		return nil
	}
}
