package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hlsc/grammar"
	"hlsc/internal/builder"
	"hlsc/internal/config"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
)

func buildScopes(t *testing.T, src string) []*ir.Scope {
	t.Helper()
	file, err := grammar.ParseString("test.hir", src)
	require.NoError(t, err)
	scopes, diags := builder.Build(file)
	require.False(t, diags.HasErrors(), "%v", diags.Err())
	return scopes
}

func TestDefaultPasses(t *testing.T) {
	cfg := config.Default()
	names := func(p *Pipeline) []string {
		var out []string
		for _, pass := range p.Passes() {
			out = append(out, pass.Name())
			assert.NotEmpty(t, pass.Description())
		}
		return out
	}

	assert.Equal(t, []string{"CFG Check", "SSA Construction", "SSA Verify"}, names(New(cfg)))

	cfg.SSA.Verify = false
	assert.Equal(t, []string{"CFG Check", "SSA Construction"}, names(New(cfg)))
}

func TestRun(t *testing.T) {
	s := buildScopes(t, `scope s { var x; cond c;
  block e { cjump c ? a : b; }
  block a { x = 1; jump m; }
  block b { x = 2; jump m; }
  block m { ret x; } }`)[0]

	require.NoError(t, New(config.Default()).Run(s))
	assert.Len(t, s.Phis(), 1)
}

func TestRunWrapsPassErrors(t *testing.T) {
	s := buildScopes(t, `scope s { block a { ret; } block dead { ret; } }`)[0]

	err := New(config.Default()).Run(s)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "CFG Check: "))
	assert.True(t, errors.HasCode(err, errors.ErrorMalformedCFG))
}

type recordPass struct {
	seen []string
}

func (*recordPass) Name() string        { return "Record" }
func (*recordPass) Description() string { return "Records scope names" }
func (r *recordPass) Apply(scope *ir.Scope) (bool, error) {
	r.seen = append(r.seen, scope.Name)
	return false, nil
}

func TestAddPass(t *testing.T) {
	s := buildScopes(t, `scope only { block a { ret; } }`)[0]

	rec := &recordPass{}
	p := &Pipeline{}
	p.AddPass(rec)
	require.NoError(t, p.Run(s))
	assert.Equal(t, []string{"only"}, rec.seen)
}

func TestDriverRunsScopesIndependently(t *testing.T) {
	var src strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&src, `scope good%d { var x; cond c;
  block e { cjump c ? a : m; }
  block a { x = %d; jump m; }
  block m { x = x + 1; ret x; } }
`, i, i)
	}
	src.WriteString(`scope bad { var x; block a { x = 1; ret x; } block dead { ret; } }`)
	scopes := buildScopes(t, src.String())

	results, err := NewDriver(New(config.Default()), 3).RunAll(context.Background(), scopes)
	require.NoError(t, err)
	require.Len(t, results, 9)

	for i, r := range results[:8] {
		assert.Equal(t, scopes[i], r.Scope)
		assert.NoError(t, r.Err)
		assert.Len(t, r.Scope.Phis(), 1, r.Scope.Name)
	}
	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "bad", failed[0].Scope.Name)
	assert.True(t, errors.HasCode(failed[0].Err, errors.ErrorMalformedCFG))
}

func TestDriverHonorsCancellation(t *testing.T) {
	scopes := buildScopes(t, `scope a { block e { ret; } } scope b { block e { ret; } }`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewDriver(New(config.Default()), 0).RunAll(ctx, scopes)
	assert.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
