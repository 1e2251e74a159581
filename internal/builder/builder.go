package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"hlsc/grammar"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
)

// Builder converts a parsed textual IR file into scopes
type Builder struct {
	scope  *ir.Scope
	blocks map[string]*ir.Block
	edges  map[*ir.Block][]*ir.Block

	// Undeclared names already warned about in the current scope
	undeclared map[string]bool

	diags errors.List
}

// NewBuilder creates a new IR builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Build lowers every scope of file. Scopes with errors are left out of the
// result; their diagnostics are returned alongside warnings for the others.
func Build(file *grammar.File) ([]*ir.Scope, errors.List) {
	return NewBuilder().Build(file)
}

// Build converts a grammar file to IR scopes
func (b *Builder) Build(file *grammar.File) ([]*ir.Scope, errors.List) {
	b.diags = nil
	var scopes []*ir.Scope
	seen := make(map[string]bool)

	for _, s := range file.Scopes {
		if seen[s.Name] {
			b.report(errors.NewCompilerError(errors.ErrorDuplicateDeclaration,
				fmt.Sprintf("scope '%s' is defined more than once", s.Name)).
				WithScope(s.Name).
				WithPosition(position(s.Pos)).
				WithLength(len("scope")).
				Build())
			continue
		}
		seen[s.Name] = true

		before := len(b.diags.Errors())
		scope := b.buildScope(s)
		if len(b.diags.Errors()) == before {
			scopes = append(scopes, scope)
		}
	}

	return scopes, b.diags
}

func (b *Builder) buildScope(s *grammar.Scope) *ir.Scope {
	b.scope = ir.NewScope(s.Name)
	b.scope.Pos = position(s.Pos)
	b.blocks = make(map[string]*ir.Block)
	b.edges = make(map[*ir.Block][]*ir.Block)
	b.undeclared = make(map[string]bool)

	if len(s.Blocks) == 0 {
		b.report(errors.NewCompilerError(errors.ErrorEmptyScope, fmt.Sprintf("scope '%s' has no blocks", s.Name)).
			WithScope(s.Name).
			WithPosition(position(s.Pos)).
			WithLength(len("scope")).
			Build())
		return b.scope
	}

	// First pass: declarations
	for _, decl := range s.Decls {
		b.declare(decl)
	}

	// Second pass: create blocks so forward references resolve
	for _, gb := range s.Blocks {
		if _, dup := b.blocks[gb.Name]; dup {
			b.errorf(errors.ErrorDuplicateBlock, gb.Pos, len("block"), "block '%s' is defined more than once", gb.Name)
			continue
		}
		block := b.scope.NewBlock(gb.Name)
		block.Pos = position(gb.Pos)
		b.blocks[gb.Name] = block
	}

	// Third pass: statements
	for _, gb := range s.Blocks {
		block := b.blocks[gb.Name]
		if block == nil || block.Pos != position(gb.Pos) {
			continue
		}
		b.buildBlock(block, gb)
	}

	// Edges are connected in textual block order, which fixes predecessor order
	for _, block := range b.scope.Blocks {
		for _, succ := range b.edges[block] {
			block.Connect(succ)
		}
	}

	return b.scope
}

func (b *Builder) declare(decl *grammar.Decl) {
	kind, ok := ir.KindFromKeyword(decl.Kind)
	if !ok {
		b.errorf(errors.ErrorSyntax, decl.Pos, len(decl.Kind), "unknown declaration kind '%s'", decl.Kind)
		return
	}
	for _, name := range decl.Names {
		if strings.Contains(name.Value, ir.VersionSeparator) {
			b.errorf(errors.ErrorSyntax, name.Pos, len(name.Value), "cannot declare versioned name '%s'", name.Value)
			continue
		}
		if _, err := b.scope.Symbols.New(name.Value, kind); err != nil {
			b.errorf(errors.ErrorDuplicateDeclaration, name.Pos, len(name.Value), "symbol '%s' is declared more than once", name.Value)
		}
	}
}

func (b *Builder) buildBlock(block *ir.Block, gb *grammar.Block) {
	for i, gs := range gb.Stmts {
		stmt := b.buildStmt(block, gs)
		if stmt == nil {
			continue
		}
		if stmt.IsTerminator() && i != len(gb.Stmts)-1 {
			b.errorf(errors.ErrorMisplacedTerminator, gs.Pos, 1, "'%s' must be the last statement of block '%s'", stmt, block.Name)
		}
		block.Append(stmt)
	}

	if len(gb.Stmts) == 0 || !isTerminator(gb.Stmts[len(gb.Stmts)-1]) {
		b.report(errors.NewCompilerError(errors.ErrorMissingTerminator,
			fmt.Sprintf("block '%s' does not end with a terminator", block.Name)).
			WithScope(b.scope.Name).
			WithBlock(block).
			WithHelp("end the block with 'jump', 'cjump' or 'ret'").
			Build())
		return
	}
	if block.Terminator() == nil {
		// The terminator named an undefined block, already reported
		return
	}

	for _, succ := range ir.Successors(block.Terminator()) {
		b.edges[block] = append(b.edges[block], succ)
	}
}

func (b *Builder) buildStmt(block *ir.Block, gs *grammar.Stmt) ir.Stmt {
	switch {
	case gs.Phi != nil:
		return b.buildPhi(gs.Phi)
	case gs.Jump != nil:
		target := b.block(gs.Jump.Target)
		if target == nil {
			return nil
		}
		return &ir.Jump{Target: target}
	case gs.CJump != nil:
		cond := b.expr(gs.CJump.Cond)
		t, f := b.block(gs.CJump.True), b.block(gs.CJump.False)
		if t == nil || f == nil {
			return nil
		}
		return &ir.CJump{Cond: cond, True: t, False: f}
	case gs.Ret != nil:
		ret := &ir.Ret{}
		if gs.Ret.Value != nil {
			ret.Exp = b.expr(gs.Ret.Value)
		}
		return ret
	case gs.Store != nil:
		return &ir.Store{
			Mem:    b.temp(gs.Store.Mem, ir.Load),
			Offset: b.expr(gs.Store.Offset),
			Exp:    b.expr(gs.Store.Value),
		}
	case gs.Move != nil:
		src := b.expr(gs.Move.Src)
		return &ir.Move{Dst: b.temp(gs.Move.Dst, ir.Store), Src: src}
	case gs.Expr != nil:
		return &ir.ExprStmt{Exp: b.expr(gs.Expr.Expr)}
	}
	b.errorf(errors.ErrorSyntax, gs.Pos, 1, "empty statement in block '%s'", block.Name)
	return nil
}

func isTerminator(gs *grammar.Stmt) bool {
	return gs.Jump != nil || gs.CJump != nil || gs.Ret != nil
}

func (b *Builder) buildPhi(gp *grammar.PhiStmt) ir.Stmt {
	phi := &ir.Phi{Args: make([]ir.PhiArg, len(gp.Args))}
	for i, ga := range gp.Args {
		pred := b.block(ga.Block)
		if pred == nil {
			return nil
		}
		phi.Args[i].Pred = pred
		if ga.Var != "?" {
			phi.Args[i].Var = b.temp(&grammar.Name{Pos: ga.Pos, Value: ga.Var}, ir.Load)
		}
	}
	phi.Var = b.temp(gp.Dst, ir.Store)
	return phi
}

func (b *Builder) expr(ge *grammar.Expr) ir.Expr {
	left := b.unary(ge.Left)
	if ge.Tail == nil {
		return left
	}
	return &ir.BinOp{Op: ge.Tail.Op, Left: left, Right: b.unary(ge.Tail.Right)}
}

func (b *Builder) unary(gu *grammar.Unary) ir.Expr {
	if gu.Primary != nil {
		return b.primary(gu.Primary)
	}
	operand := b.unary(gu.Operand)
	// Fold negative literals so printed constants parse back as constants
	if c, ok := operand.(*ir.Const); ok && gu.Op == "-" {
		return &ir.Const{Value: -c.Value}
	}
	return &ir.UnOp{Op: gu.Op, Exp: operand}
}

func (b *Builder) primary(gp *grammar.Primary) ir.Expr {
	switch {
	case gp.Int != nil:
		return &ir.Const{Value: *gp.Int}
	case gp.Call != nil:
		call := &ir.Call{Func: b.temp(gp.Call.Func, ir.Load)}
		for _, a := range gp.Call.Args {
			call.Args = append(call.Args, b.expr(a))
		}
		return call
	case gp.Index != nil:
		return &ir.MRef{Mem: b.temp(gp.Index.Mem, ir.Load), Offset: b.expr(gp.Index.Offset)}
	case gp.Ident != nil:
		return b.temp(gp.Ident, ir.Load)
	default:
		return b.expr(gp.Sub)
	}
}

// temp resolves a name to a variable reference. "x#2" resolves to version 2
// of x; unknown names are created with KindUnknown and a warning.
func (b *Builder) temp(name *grammar.Name, ctx ir.Ctx) *ir.Temp {
	base, version, versioned := strings.Cut(name.Value, ir.VersionSeparator)

	sym, ok := b.scope.Symbols.Lookup(base)
	if !ok {
		sym, _ = b.scope.Symbols.New(base, ir.KindUnknown)
	}
	if sym.Kind == ir.KindUnknown && !b.undeclared[base] {
		b.undeclared[base] = true
		b.report(errors.NewCompilerWarning(errors.WarningUndeclaredSymbol,
			fmt.Sprintf("symbol '%s' is not declared", base)).
			WithScope(b.scope.Name).
			WithPosition(position(name.Pos)).
			WithLength(len(base)).
			WithSuggestion(fmt.Sprintf("declare it, for example 'var %s;'", base)).
			Build())
	}

	if versioned {
		n, err := strconv.Atoi(version)
		if err != nil {
			b.errorf(errors.ErrorSyntax, name.Pos, len(name.Value), "invalid version in '%s'", name.Value)
		} else {
			sym = b.scope.Symbols.InheritSym(sym, n)
		}
	}
	return ir.NewTemp(sym, ctx)
}

func (b *Builder) block(name *grammar.Name) *ir.Block {
	if block, ok := b.blocks[name.Value]; ok {
		return block
	}
	known := make([]string, 0, len(b.scope.Blocks))
	for _, blk := range b.scope.Blocks {
		known = append(known, blk.Name)
	}
	err := errors.UndefinedBlock(name.Value, position(name.Pos), known)
	err.Scope = b.scope.Name
	b.report(err)
	return nil
}

func (b *Builder) errorf(code string, pos lexer.Position, length int, format string, args ...interface{}) {
	scope := ""
	if b.scope != nil {
		scope = b.scope.Name
	}
	b.report(errors.NewCompilerError(code, fmt.Sprintf(format, args...)).
		WithScope(scope).
		WithPosition(position(pos)).
		WithLength(length).
		Build())
}

func (b *Builder) report(err *errors.CompilerError) {
	b.diags = append(b.diags, err)
}

func position(pos lexer.Position) ir.Position {
	return ir.Position{Filename: pos.Filename, Line: pos.Line, Column: pos.Column}
}
