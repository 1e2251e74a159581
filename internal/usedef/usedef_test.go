package usedef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hlsc/internal/ir"
)

// diamond builds entry -> (left | right) -> merge with x assigned on both arms
func diamond(t *testing.T) (*ir.Scope, *ir.Symbol, *ir.Symbol) {
	t.Helper()
	s := ir.NewScope("diamond")
	x, err := s.Symbols.New("x", ir.KindVar)
	require.NoError(t, err)
	c, err := s.Symbols.New("c", ir.KindCond)
	require.NoError(t, err)

	entry := s.NewBlock("entry")
	left := s.NewBlock("left")
	right := s.NewBlock("right")
	merge := s.NewBlock("merge")

	entry.Append(&ir.CJump{Cond: ir.NewTemp(c, ir.Load), True: left, False: right})
	entry.Connect(left)
	entry.Connect(right)
	left.Append(&ir.Move{Dst: ir.NewTemp(x, ir.Store), Src: &ir.Const{Value: 1}})
	left.Append(&ir.Jump{Target: merge})
	left.Connect(merge)
	right.Append(&ir.Move{Dst: ir.NewTemp(x, ir.Store), Src: &ir.Const{Value: 2}})
	right.Append(&ir.Jump{Target: merge})
	right.Connect(merge)
	merge.Append(&ir.Ret{Exp: &ir.BinOp{Op: "+", Left: ir.NewTemp(x, ir.Load), Right: ir.NewTemp(x, ir.Load)}})
	return s, x, c
}

func TestDetect(t *testing.T) {
	s, x, c := diamond(t)
	table := Detect(s)

	assert.Equal(t, []*ir.Block{s.Block("left"), s.Block("right")}, table.DefBlocks(x))
	assert.Nil(t, table.DefBlocks(c))

	assert.True(t, table.BlockDefSyms(s.Block("left")).Contains(x))
	assert.True(t, table.BlockUseSyms(s.Block("entry")).Contains(c))
	assert.True(t, table.BlockUseSyms(s.Block("merge")).Contains(x))
	assert.Equal(t, 0, table.BlockDefSyms(s.Block("merge")).Cardinality())

	ret := s.Block("merge").Stmts[0]
	assert.Len(t, table.StmUses(ret), 2)
	assert.Empty(t, table.StmDefs(ret))
	assert.Len(t, table.UseStmts(x), 1)
	assert.Len(t, table.DefStmts(x), 2)
	assert.Equal(t, s.Block("merge"), table.BlockOf(ret))

	assert.Equal(t, []*ir.Symbol{x}, table.DefinedSymbols())
	assert.Equal(t, []*ir.Symbol{x, c}, table.Symbols())
}

func TestPhiIsNotADirectDefinition(t *testing.T) {
	s, x, _ := diamond(t)
	table := Detect(s)

	merge := s.Block("merge")
	phi := ir.NewPhi(x, merge)
	merge.Prepend(phi)
	table.AddVarDef(merge, phi, phi.Var)

	assert.Len(t, table.DefBlocks(x), 2, "phi must not join the direct definition blocks")
	assert.True(t, table.BlockDefSyms(merge).Contains(x))
	assert.Equal(t, []*ir.Temp{phi.Var}, table.StmDefs(phi))
	assert.Contains(t, table.DefStmts(x), ir.Stmt(phi))
}

func TestUsesBeforeDefsInOneStatement(t *testing.T) {
	s := ir.NewScope("s")
	k, _ := s.Symbols.New("k", ir.KindVar)
	b := s.NewBlock("")
	move := &ir.Move{Dst: ir.NewTemp(k, ir.Store), Src: &ir.BinOp{Op: "+", Left: ir.NewTemp(k, ir.Load), Right: &ir.Const{Value: 1}}}
	b.Append(move)
	b.Append(&ir.Ret{})

	table := Detect(s)
	assert.Len(t, table.StmUses(move), 1)
	assert.Len(t, table.StmDefs(move), 1)
	assert.Equal(t, []ir.Stmt{move}, table.DefStmts(k))
	assert.Equal(t, []ir.Stmt{move}, table.UseStmts(k))
	assert.Equal(t, "b0", b.Name)
}

func TestEmptyLookups(t *testing.T) {
	table := New()
	b := &ir.Block{Name: "b"}

	assert.Nil(t, table.DefBlocks(&ir.Symbol{Name: "nope"}))
	assert.Equal(t, 0, table.BlockDefSyms(b).Cardinality())
	assert.Equal(t, 0, table.BlockUseSyms(b).Cardinality())
	assert.Empty(t, table.Symbols())
}
