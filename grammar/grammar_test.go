package grammar_test

import (
	"testing"

	"github.com/alecthomas/participle/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hlsc/grammar"
)

func TestLoopExample(t *testing.T) {
	file, source, err := grammar.ParseFile(`../examples/loop.hir`)
	if err != nil {
		grammar.ReportParseError(source, err)
		t.Fatalf("Parse failed: %v", err)
	}

	require.Len(t, file.Scopes, 1)
	scope := file.Scopes[0]
	assert.Equal(t, "s", scope.Name)

	// Declarations
	require.Len(t, scope.Decls, 2)
	assert.Equal(t, "var", scope.Decls[0].Kind)
	assert.Equal(t, []string{"i", "j", "k", "result"}, names(scope.Decls[0].Names))
	assert.Equal(t, "cond", scope.Decls[1].Kind)

	// Blocks
	require.Len(t, scope.Blocks, 7)
	assert.Equal(t, "b1", scope.Blocks[0].Name)
	assert.Equal(t, "b7", scope.Blocks[6].Name)

	b1 := scope.Blocks[0]
	require.Len(t, b1.Stmts, 4)
	assert.NotNil(t, b1.Stmts[0].Move)
	assert.Equal(t, "i", b1.Stmts[0].Move.Dst.Value)
	assert.Equal(t, int64(1), *b1.Stmts[0].Move.Src.Left.Primary.Int)
	assert.NotNil(t, b1.Stmts[3].Jump)
	assert.Equal(t, "b2", b1.Stmts[3].Jump.Target.Value)

	b2 := scope.Blocks[1]
	require.Len(t, b2.Stmts, 2)
	cmp := b2.Stmts[0].Move.Src
	require.NotNil(t, cmp.Tail)
	assert.Equal(t, "<", cmp.Tail.Op)
	cj := b2.Stmts[1].CJump
	require.NotNil(t, cj)
	assert.Equal(t, "b3", cj.True.Value)
	assert.Equal(t, "b4", cj.False.Value)

	b4 := scope.Blocks[3]
	require.NotNil(t, b4.Stmts[1].Ret)
	assert.NotNil(t, b4.Stmts[1].Ret.Value)
}

func TestMemoryExample(t *testing.T) {
	file, _, err := grammar.ParseFile(`../examples/memory.hir`)
	require.NoError(t, err)
	require.Len(t, file.Scopes, 2)

	body := file.Scopes[0].Blocks[2]
	assert.Equal(t, "body", body.Name)

	// t = buf[n];
	load := body.Stmts[0].Move
	require.NotNil(t, load)
	require.NotNil(t, load.Src.Left.Primary.Index)
	assert.Equal(t, "buf", load.Src.Left.Primary.Index.Mem.Value)

	// buf[n] = acc;
	store := body.Stmts[2].Store
	require.NotNil(t, store)
	assert.Equal(t, "buf", store.Mem.Value)

	done := file.Scopes[0].Blocks[3]
	call := done.Stmts[0].Move.Src.Left.Primary.Call
	require.NotNil(t, call)
	assert.Equal(t, "sum", call.Func.Value)
	assert.Len(t, call.Args, 2)

	leaf := file.Scopes[1]
	ret := leaf.Blocks[0].Stmts[1].Ret
	require.NotNil(t, ret)
	assert.Equal(t, "-", ret.Value.Left.Op)
}

func TestPhiAndVersionedNames(t *testing.T) {
	src := `
scope s {
  var x;
  block a { x#1 = 1; jump c; }
  block b { jump c; }
  block c {
    phi x#2 = (x#1 : a, ? : b);
    ret x#2;
  }
}`
	file, err := grammar.ParseString("phi.hir", src)
	require.NoError(t, err)

	c := file.Scopes[0].Blocks[2]
	phi := c.Stmts[0].Phi
	require.NotNil(t, phi)
	assert.Equal(t, "x#2", phi.Dst.Value)
	require.Len(t, phi.Args, 2)
	assert.Equal(t, "x#1", phi.Args[0].Var)
	assert.Equal(t, "a", phi.Args[0].Block.Value)
	assert.Equal(t, "?", phi.Args[1].Var)
	assert.Equal(t, "b", phi.Args[1].Block.Value)
}

func TestParenthesizedExpr(t *testing.T) {
	src := `scope s { var a, b; block e { a = (b + 1) * (b - 1); ret; } }`
	file, err := grammar.ParseString("paren.hir", src)
	require.NoError(t, err)

	move := file.Scopes[0].Blocks[0].Stmts[0].Move
	require.NotNil(t, move)
	assert.NotNil(t, move.Src.Left.Primary.Sub)
	assert.Equal(t, "*", move.Src.Tail.Op)
	assert.NotNil(t, move.Src.Tail.Right.Primary.Sub)

	ret := file.Scopes[0].Blocks[0].Stmts[1].Ret
	require.NotNil(t, ret)
	assert.Nil(t, ret.Value)
}

func TestSyntaxErrorPosition(t *testing.T) {
	src := "scope s {\n  block e {\n    x = ;\n  }\n}"
	_, err := grammar.ParseString("bad.hir", src)
	require.Error(t, err)

	pe, ok := err.(participle.Error)
	require.True(t, ok)
	assert.Equal(t, 3, pe.Position().Line)
	assert.Equal(t, "bad.hir", pe.Position().Filename)
}

func TestCommentsAreElided(t *testing.T) {
	src := `// leading
scope s { // trailing
  block e { ret; } // after block
}`
	file, err := grammar.ParseString("comments.hir", src)
	require.NoError(t, err)
	assert.Len(t, file.Scopes[0].Blocks, 1)
}

func names(ns []*grammar.Name) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Value
	}
	return out
}
