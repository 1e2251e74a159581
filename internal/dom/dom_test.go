package dom

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hlsc/grammar"
	"hlsc/internal/builder"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
	"pgregory.net/rapid"
)

func buildScope(t *testing.T, src string) *ir.Scope {
	t.Helper()
	file, err := grammar.ParseString("test.hir", src)
	require.NoError(t, err)
	scopes, diags := builder.Build(file)
	require.False(t, diags.HasErrors(), "%v", diags.Err())
	require.Len(t, scopes, 1)
	return scopes[0]
}

func loadExample(t *testing.T, path string) *ir.Scope {
	t.Helper()
	file, _, err := grammar.ParseFile(path)
	require.NoError(t, err)
	scopes, diags := builder.Build(file)
	require.False(t, diags.HasErrors(), "%v", diags.Err())
	return scopes[0]
}

func names(blocks []*ir.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Name
	}
	return out
}

func TestDiamond(t *testing.T) {
	s := loadExample(t, "../../examples/diamond.hir")
	tree, err := Build(s)
	require.NoError(t, err)

	entry, left, right, merge := s.Block("entry"), s.Block("left"), s.Block("right"), s.Block("merge")
	assert.Nil(t, tree.Idom(entry))
	assert.Equal(t, entry, tree.Idom(left))
	assert.Equal(t, entry, tree.Idom(right))
	assert.Equal(t, entry, tree.Idom(merge))
	assert.Equal(t, []string{"left", "right", "merge"}, names(tree.Children(entry)))

	assert.True(t, tree.Dominates(entry, merge))
	assert.True(t, tree.Dominates(merge, merge))
	assert.False(t, tree.StrictlyDominates(merge, merge))
	assert.False(t, tree.Dominates(left, merge))

	df := BuildFrontier(tree)
	assert.Empty(t, df.Of(entry))
	assert.Equal(t, []string{"merge"}, names(df.Of(left)))
	assert.Equal(t, []string{"merge"}, names(df.Of(right)))
	assert.Empty(t, df.Of(merge))
}

func TestLoop(t *testing.T) {
	s := loadExample(t, "../../examples/loop.hir")
	tree, err := Build(s)
	require.NoError(t, err)

	idoms := map[string]string{
		"b2": "b1", "b3": "b2", "b4": "b2",
		"b5": "b3", "b6": "b3", "b7": "b3",
	}
	for b, d := range idoms {
		assert.Equal(t, d, tree.Idom(s.Block(b)).Name, "idom(%s)", b)
	}

	df := BuildFrontier(tree)
	frontiers := map[string][]string{
		"b1": {},
		"b2": {"b2"},
		"b3": {"b2"},
		"b4": {},
		"b5": {"b7"},
		"b6": {"b7"},
		"b7": {"b2"},
	}
	for b, want := range frontiers {
		assert.Equal(t, want, names(df.Of(s.Block(b))), "DF(%s)", b)
	}
	assert.True(t, df.Set(s.Block("b7")).Contains(s.Block("b2")))
}

func TestSelfLoop(t *testing.T) {
	s := buildScope(t, `
scope s {
  cond c;
  block entry { jump body; }
  block body { cjump c ? body : exit; }
  block exit { ret; }
}`)
	tree, err := Build(s)
	require.NoError(t, err)

	body := s.Block("body")
	assert.Equal(t, s.Block("entry"), tree.Idom(body))
	assert.Equal(t, body, tree.Idom(s.Block("exit")))
	assert.Equal(t, []string{"body"}, names(BuildFrontier(tree).Of(body)))
}

func TestTreeString(t *testing.T) {
	s := loadExample(t, "../../examples/diamond.hir")
	tree, err := Build(s)
	require.NoError(t, err)

	assert.Equal(t, "entry\n  left\n  right\n  merge\n", tree.String())
	assert.Equal(t, []string{"entry", "left", "right", "merge"}, names(tree.PreOrder()))
	assert.Equal(t, []string{"left", "right", "merge", "entry"}, names(tree.PostOrder()))
}

func TestMalformed(t *testing.T) {
	t.Run("unreachable block", func(t *testing.T) {
		s := buildScope(t, `scope s { block a { ret; } block orphan { ret; } }`)
		_, err := Build(s)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrorMalformedCFG))
		ce, _ := errors.AsCompilerError(err)
		assert.Equal(t, "orphan", ce.Block)
		assert.Contains(t, ce.Message, "unreachable")
	})

	t.Run("entry with predecessors", func(t *testing.T) {
		s := buildScope(t, `scope s { block a { jump a; } }`)
		_, err := Build(s)
		assert.True(t, errors.HasCode(err, errors.ErrorMalformedCFG))
	})

	t.Run("empty scope", func(t *testing.T) {
		_, err := Build(ir.NewScope("empty"))
		assert.True(t, errors.HasCode(err, errors.ErrorMalformedCFG))
	})

	t.Run("asymmetric edge", func(t *testing.T) {
		s := ir.NewScope("s")
		a, b := s.NewBlock("a"), s.NewBlock("b")
		a.Connect(b)
		a.Succs = append(a.Succs, b)
		err := Check(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not recorded symmetrically")

		ce, ok := errors.AsCompilerError(err)
		require.True(t, ok)
		require.Len(t, ce.Labels, 1)
		assert.Equal(t, "lists 'a' 1 time(s) as predecessor", ce.Labels[0].Message)
	})

	t.Run("foreign block", func(t *testing.T) {
		s := ir.NewScope("s")
		a := s.NewBlock("a")
		a.Connect(&ir.Block{ID: 7, Name: "elsewhere"})
		err := Check(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not part of the scope")
	})
}

// randomCFG draws a connected CFG: every block past the entry gets a tree edge
// from an earlier block, plus a few arbitrary edges that never enter the entry.
func randomCFG(t *rapid.T) *ir.Scope {
	n := rapid.IntRange(1, 12).Draw(t, "blocks")
	s := ir.NewScope("random")
	for i := 0; i < n; i++ {
		s.NewBlock("")
	}
	for i := 1; i < n; i++ {
		from := rapid.IntRange(0, i-1).Draw(t, fmt.Sprintf("parent%d", i))
		s.Blocks[from].Connect(s.Blocks[i])
	}
	if n > 1 {
		extra := rapid.IntRange(0, 2*n).Draw(t, "extra")
		for e := 0; e < extra; e++ {
			from := rapid.IntRange(0, n-1).Draw(t, fmt.Sprintf("from%d", e))
			to := rapid.IntRange(1, n-1).Draw(t, fmt.Sprintf("to%d", e))
			s.Blocks[from].Connect(s.Blocks[to])
		}
	}
	return s
}

// reachableWithout reports which blocks stay reachable from the entry when
// removed is taken out of the graph
func reachableWithout(s *ir.Scope, removed *ir.Block) []bool {
	seen := make([]bool, len(s.Blocks))
	if s.Entry() == removed {
		return seen
	}
	stack := []*ir.Block{s.Entry()}
	seen[s.Entry().ID] = true
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range b.Succs {
			if succ != removed && !seen[succ.ID] {
				seen[succ.ID] = true
				stack = append(stack, succ)
			}
		}
	}
	return seen
}

func TestDominatorsMatchDefinition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := randomCFG(t)
		tree, err := Build(s)
		if err != nil {
			t.Fatalf("build: %v", err)
		}

		for _, a := range s.Blocks {
			reach := reachableWithout(s, a)
			for _, b := range s.Blocks {
				// a dominates b iff b is a or b is cut off by removing a
				want := a == b || !reach[b.ID]
				if got := tree.Dominates(a, b); got != want {
					t.Fatalf("Dominates(%s, %s) = %v, want %v\n%s", a, b, got, want, spew.Sdump(names(s.Blocks)))
				}
			}
		}
	})
}

func TestFrontierMatchesDefinition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := randomCFG(t)
		tree, err := Build(s)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		df := BuildFrontier(tree)

		for _, b := range s.Blocks {
			for _, w := range s.Blocks {
				// w is in DF(b) iff b dominates a predecessor of w but does not strictly dominate w
				want := false
				for _, p := range w.Preds {
					if tree.Dominates(b, p) && !tree.StrictlyDominates(b, w) {
						want = true
					}
				}
				if got := df.Set(b).Contains(w); got != want {
					t.Fatalf("%s in DF(%s) = %v, want %v", w, b, got, want)
				}
			}
		}
	})
}
