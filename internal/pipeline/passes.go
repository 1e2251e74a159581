package pipeline

import (
	"hlsc/internal/dom"
	"hlsc/internal/ir"
	"hlsc/internal/ssa"
)

// Pass represents a single transformation or check over one scope
type Pass interface {
	Name() string
	Description() string
	Apply(scope *ir.Scope) (bool, error) // Returns true if changes were made
}

// CFGCheck rejects scopes the SSA pass cannot work on
type CFGCheck struct{}

func (*CFGCheck) Name() string {
	return "CFG Check"
}

func (*CFGCheck) Description() string {
	return "Checks that every block is reachable from an entry without predecessors and that edges are symmetric"
}

func (*CFGCheck) Apply(scope *ir.Scope) (bool, error) {
	return false, dom.Check(scope)
}

// SSAConstruction converts a scope into SSA form
type SSAConstruction struct {
	Policy ssa.Policy
}

func (*SSAConstruction) Name() string {
	return "SSA Construction"
}

func (*SSAConstruction) Description() string {
	return "Inserts phis at the iterated dominance frontier and renames variables along the dominator tree"
}

func (p *SSAConstruction) Apply(scope *ir.Scope) (bool, error) {
	before := scope.Symbols.Len()
	tr := ssa.New(p.Policy)
	if err := tr.Process(scope); err != nil {
		return false, err
	}
	return len(tr.Phis()) > 0 || scope.Symbols.Len() > before, nil
}

// SSAVerify checks the SSA properties of a converted scope
type SSAVerify struct {
	Policy ssa.Policy
}

func (*SSAVerify) Name() string {
	return "SSA Verify"
}

func (*SSAVerify) Description() string {
	return "Checks single definition, dominance of uses and phi completeness"
}

func (p *SSAVerify) Apply(scope *ir.Scope) (bool, error) {
	return false, ssa.VerifyWith(scope, p.Policy)
}
