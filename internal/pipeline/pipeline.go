package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
	"hlsc/internal/config"
	"hlsc/internal/ir"
)

var log = commonlog.GetLogger("hlsc.pipeline")

// Pipeline manages the sequence of passes run on every scope
type Pipeline struct {
	passes []Pass
}

// New creates a pipeline with the default passes for cfg
func New(cfg *config.Config) *Pipeline {
	p := &Pipeline{}

	// Add passes in order of execution
	p.AddPass(&CFGCheck{})
	p.AddPass(&SSAConstruction{Policy: cfg.Policy()})
	if cfg.SSA.Verify {
		p.AddPass(&SSAVerify{Policy: cfg.Policy()})
	}

	return p
}

// AddPass adds a pass to the end of the pipeline
func (p *Pipeline) AddPass(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Passes returns the passes in execution order
func (p *Pipeline) Passes() []Pass {
	return p.passes
}

// Run executes every pass on scope and stops at the first error
func (p *Pipeline) Run(scope *ir.Scope) error {
	logger := commonlog.NewScopeLogger(log, scope.Name)
	logger.Debugf("running %d passes", len(p.passes))

	for _, pass := range p.passes {
		changed, err := pass.Apply(scope)
		if err != nil {
			return fmt.Errorf("%s: %w", pass.Name(), err)
		}
		if changed {
			logger.Debugf("%s: applied", pass.Name())
		} else {
			logger.Debugf("%s: no changes", pass.Name())
		}
	}
	return nil
}

// Result is the outcome of running the pipeline on one scope
type Result struct {
	Scope    *ir.Scope
	Err      error
	Duration time.Duration
}

// Driver runs a pipeline over independent scopes in parallel
type Driver struct {
	pipeline *Pipeline
	jobs     int
}

// NewDriver creates a driver running at most jobs scopes at once
func NewDriver(p *Pipeline, jobs int) *Driver {
	if jobs < 1 {
		jobs = 1
	}
	return &Driver{pipeline: p, jobs: jobs}
}

// RunAll processes every scope and returns one result per scope, in input
// order. A failing scope does not stop the others. Once ctx is done no new
// scope is started; scopes never started report the context error.
func (d *Driver) RunAll(ctx context.Context, scopes []*ir.Scope) ([]Result, error) {
	results := make([]Result, len(scopes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.jobs)

	for i, scope := range scopes {
		results[i] = Result{Scope: scope}
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			start := time.Now()
			results[i].Err = d.pipeline.Run(scope)
			results[i].Duration = time.Since(start)
			if results[i].Err != nil {
				log.Errorf("scope %s: %s", scope.Name, results[i].Err)
			} else {
				log.Infof("scope %s: done in %s", scope.Name, results[i].Duration)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// Failed returns the results that carry an error
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
