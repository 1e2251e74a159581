package ssa

import (
	"fmt"

	"github.com/tliron/commonlog"
	"hlsc/internal/dom"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
	"hlsc/internal/usedef"
)

type rename struct {
	ref *ir.Temp
	sym *ir.Symbol
}

// renamer walks the dominator tree with one counter and one version stack per
// mergeable symbol. Rewrites of existing references are collected, not
// applied, so a failed walk leaves the statements untouched.
type renamer struct {
	scope     *ir.Scope
	tree      *dom.Tree
	ud        *usedef.Table
	mergeable map[*ir.Symbol]bool
	inserted  map[*ir.Phi]bool
	log       commonlog.Logger

	count   map[*ir.Symbol]int
	stacks  map[*ir.Symbol][]int
	renames []rename
}

func newRenamer(scope *ir.Scope, tree *dom.Tree, ud *usedef.Table, mergeable map[*ir.Symbol]bool, inserted []*ir.Phi, logger commonlog.Logger) *renamer {
	r := &renamer{
		scope:     scope,
		tree:      tree,
		ud:        ud,
		mergeable: mergeable,
		inserted:  make(map[*ir.Phi]bool, len(inserted)),
		log:       logger,
		count:     make(map[*ir.Symbol]int),
		stacks:    make(map[*ir.Symbol][]int),
	}
	for _, phi := range inserted {
		r.inserted[phi] = true
	}

	// Versions already present in the input are taken; new ones start above them
	for _, sym := range scope.Symbols.Symbols() {
		v, ok := scope.Symbols.VersionOf(sym)
		if !ok {
			continue
		}
		base := scope.Symbols.Root(sym)
		if mergeable[base] && v.Number > r.count[base] {
			r.count[base] = v.Number
		}
	}
	return r
}

// top is the version reaching the current point; 0 is the value live on entry
func (r *renamer) top(sym *ir.Symbol) int {
	if s := r.stacks[sym]; len(s) > 0 {
		return s[len(s)-1]
	}
	return 0
}

func (r *renamer) version(sym *ir.Symbol, n int) *ir.Symbol {
	name := fmt.Sprintf("%s%s%d", sym.Name, ir.VersionSeparator, n)
	if v, ok := r.scope.Symbols.Lookup(name); ok {
		return v
	}
	v := r.scope.Symbols.InheritSym(sym, n)
	r.log.Debugf("%s ancestor is %s", v, sym)
	return v
}

func (r *renamer) define(ref *ir.Temp) *ir.Symbol {
	sym := ref.Sym
	r.count[sym]++
	n := r.count[sym]
	r.stacks[sym] = append(r.stacks[sym], n)
	r.renames = append(r.renames, rename{ref: ref, sym: r.version(sym, n)})
	return sym
}

func (r *renamer) rename(b *ir.Block) error {
	var pushed []*ir.Symbol

	for _, s := range b.Stmts {
		if phi, ok := s.(*ir.Phi); ok {
			if r.mergeable[phi.Var.Sym] {
				pushed = append(pushed, r.define(phi.Var))
			}
			continue
		}
		for _, use := range r.ud.StmUses(s) {
			if r.mergeable[use.Sym] {
				r.renames = append(r.renames, rename{ref: use, sym: r.version(use.Sym, r.top(use.Sym))})
			}
		}
		for _, def := range r.ud.StmDefs(s) {
			if r.mergeable[def.Sym] {
				pushed = append(pushed, r.define(def))
			}
		}
	}

	// Fill this block's edge into every phi inserted at a successor
	for _, succ := range b.UniqueSuccs() {
		edges := succ.PredIndexes(b)
		for _, phi := range succ.Phis() {
			if !r.inserted[phi] {
				continue
			}
			// Renames are deferred, so the destination still names the base symbol
			base := phi.Var.Sym
			arg := ir.NewTemp(r.version(base, r.top(base)), ir.Load)
			for _, j := range edges {
				if j >= len(phi.Args) {
					return errors.AmbiguousPhi(r.scope.Name, succ, phi,
						fmt.Sprintf("edge %d from '%s' has no argument slot", j, b.Name))
				}
				if phi.Args[j].Var != nil {
					return errors.AmbiguousPhi(r.scope.Name, succ, phi,
						fmt.Sprintf("edge %d from '%s' already has an argument", j, b.Name))
				}
				phi.Args[j] = ir.PhiArg{Var: arg, Pred: b}
			}
		}
	}

	for _, c := range r.tree.Children(b) {
		if err := r.rename(c); err != nil {
			return err
		}
	}

	for _, sym := range pushed {
		s := r.stacks[sym]
		r.stacks[sym] = s[:len(s)-1]
	}
	return nil
}

// apply performs the collected rewrites
func (r *renamer) apply() {
	for _, rn := range r.renames {
		rn.ref.Sym = rn.sym
	}
}
