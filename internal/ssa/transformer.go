package ssa

import (
	"fmt"
	"time"

	"github.com/tliron/commonlog"
	"hlsc/internal/dom"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
	"hlsc/internal/usedef"
)

var log = commonlog.GetLogger("hlsc.ssa")

// Transformer converts scopes into SSA form: phi insertion at the iterated
// dominance frontier, then renaming along the dominator tree.
type Transformer struct {
	policy Policy

	// Results of the last Process call
	tree     *dom.Tree
	frontier *dom.Frontier
	usedef   *usedef.Table
	phis     []*ir.Phi
}

// New creates a transformer with the given exclusion policy
func New(policy Policy) *Transformer {
	return &Transformer{policy: policy}
}

// Run converts scope to SSA form with the default policy
func Run(scope *ir.Scope) error {
	return New(DefaultPolicy()).Process(scope)
}

// Process converts scope in place. On error the scope is left as it was:
// inserted phis are removed and created versions are dropped.
func (t *Transformer) Process(scope *ir.Scope) error {
	start := time.Now()
	logger := commonlog.NewScopeLogger(log, scope.Name)
	t.tree, t.frontier, t.usedef, t.phis = nil, nil, nil, nil

	tree, err := dom.Build(scope)
	if err != nil {
		return err
	}
	frontier := dom.BuildFrontier(tree)
	ud := usedef.Detect(scope)

	mergeable := make(map[*ir.Symbol]bool)
	var syms []*ir.Symbol
	for _, sym := range ud.Symbols() {
		ok, err := t.policy.Mergeable(scope, sym)
		if err != nil {
			return err
		}
		if ok {
			mergeable[sym] = true
			syms = append(syms, sym)
		}
	}

	checkpoint := scope.Symbols.Len()
	phis := insertPhis(syms, ud, frontier)

	r := newRenamer(scope, tree, ud, mergeable, phis, logger)
	err = r.rename(tree.Root())
	if err == nil {
		err = t.checkPhis(scope, ud, phis)
	}
	if err != nil {
		for _, phi := range phis {
			ud.BlockOf(phi).Remove(phi)
		}
		scope.Symbols.Truncate(checkpoint)
		t.usedef = usedef.Detect(scope)
		return err
	}
	r.apply()

	t.tree, t.frontier, t.phis = tree, frontier, phis
	t.usedef = usedef.Detect(scope)
	logger.Infof("inserted %d phi(s), created %d version(s) in %s",
		len(phis), scope.Symbols.Len()-checkpoint, time.Since(start))
	return nil
}

// checkPhis requires every inserted phi to hold one argument per predecessor
// edge, in predecessor order
func (t *Transformer) checkPhis(scope *ir.Scope, ud *usedef.Table, phis []*ir.Phi) error {
	for _, phi := range phis {
		block := ud.BlockOf(phi)
		if err := verifyPhi(scope, block, phi); err != nil {
			return err
		}
		if !t.policy.StrictUndefined {
			continue
		}
		for _, arg := range phi.Args {
			if v, ok := scope.Symbols.VersionOf(arg.Var.Sym); ok && v.Number == 0 {
				return errors.AmbiguousPhi(scope.Name, block, phi,
					fmt.Sprintf("'%s' is undefined on the edge from '%s'", arg.Var, arg.Pred.Name))
			}
		}
	}
	return nil
}

// Tree returns the dominator tree of the last successful Process
func (t *Transformer) Tree() *dom.Tree { return t.tree }

// Frontier returns the dominance frontiers of the last successful Process
func (t *Transformer) Frontier() *dom.Frontier { return t.frontier }

// UseDef returns the use-def table of the last processed scope, rebuilt after
// renaming or rollback
func (t *Transformer) UseDef() *usedef.Table { return t.usedef }

// Phis returns the phis inserted by the last successful Process
func (t *Transformer) Phis() []*ir.Phi { return t.phis }
