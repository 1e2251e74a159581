package ssa

import (
	"fmt"

	"hlsc/internal/dom"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
	"hlsc/internal/usedef"
)

// Verify checks that scope is in SSA form under the default policy
func Verify(scope *ir.Scope) error {
	return VerifyWith(scope, DefaultPolicy())
}

// VerifyWith checks that scope is in SSA form:
//   - every phi has one argument per predecessor edge, in predecessor order
//   - every versioned symbol has exactly one defining statement
//   - every non-phi use of a versioned symbol is dominated by its definition
//   - every phi argument's definition dominates the edge it comes from
//   - no symbol the policy would rename is still defined under its flat name
func VerifyWith(scope *ir.Scope, policy Policy) error {
	tree, err := dom.Build(scope)
	if err != nil {
		return err
	}
	ud := usedef.Detect(scope)

	for _, b := range scope.Blocks {
		for _, phi := range b.Phis() {
			if err := verifyPhi(scope, b, phi); err != nil {
				return err
			}
		}
	}

	// Position of every statement inside its block
	index := make(map[ir.Stmt]int)
	for _, b := range scope.Blocks {
		for i, s := range b.Stmts {
			index[s] = i
		}
	}

	for _, sym := range ud.Symbols() {
		defs := ud.DefStmts(sym)
		v, versioned := scope.Symbols.VersionOf(sym)
		if !versioned {
			if ok, _ := policy.Mergeable(scope, sym); ok && len(defs) > 0 {
				return errors.SSAViolation(scope.Name, ud.BlockOf(defs[0]),
					fmt.Sprintf("'%s' is assigned but was not renamed", sym))
			}
			continue
		}

		switch {
		case len(defs) > 1:
			return errors.SSAViolation(scope.Name, ud.BlockOf(defs[1]),
				fmt.Sprintf("'%s' is defined %d times", sym, len(defs)),
				errors.BlockLabel(ud.BlockOf(defs[0]), fmt.Sprintf("first definition of '%s'", sym)))
		case len(defs) == 0 && v.Number != 0:
			return errors.SSAViolation(scope.Name, ud.BlockOf(ud.UseStmts(sym)[0]),
				fmt.Sprintf("'%s' is used but never defined", sym))
		case len(defs) == 0:
			// Version 0 is the value live on entry
			continue
		}

		def := defs[0]
		defBlock := ud.BlockOf(def)
		for _, use := range ud.UseStmts(sym) {
			useBlock := ud.BlockOf(use)
			if phi, ok := use.(*ir.Phi); ok {
				for _, arg := range phi.Args {
					if arg.Var != nil && arg.Var.Sym == sym && !tree.Dominates(defBlock, arg.Pred) {
						return errors.SSAViolation(scope.Name, useBlock,
							fmt.Sprintf("'%s' does not reach the edge from '%s' in '%s'", sym, arg.Pred.Name, phi),
							errors.BlockLabel(defBlock, fmt.Sprintf("'%s' is defined here", sym)),
							errors.BlockLabel(arg.Pred, "edge leaves here"))
					}
				}
				continue
			}
			if useBlock == defBlock {
				if index[def] >= index[use] {
					return errors.SSAViolation(scope.Name, useBlock,
						fmt.Sprintf("'%s' is used before its definition in block '%s'", sym, useBlock.Name))
				}
				continue
			}
			if !tree.Dominates(defBlock, useBlock) {
				return errors.SSAViolation(scope.Name, useBlock,
					fmt.Sprintf("definition of '%s' in '%s' does not dominate its use in '%s'", sym, defBlock.Name, useBlock.Name),
					errors.BlockLabel(defBlock, fmt.Sprintf("'%s' is defined here", sym)))
			}
		}
	}
	return nil
}

func verifyPhi(scope *ir.Scope, b *ir.Block, phi *ir.Phi) error {
	if len(phi.Args) != len(b.Preds) {
		return errors.AmbiguousPhi(scope.Name, b, phi,
			fmt.Sprintf("%d argument(s) for %d predecessor edge(s)", len(phi.Args), len(b.Preds)))
	}
	for i, arg := range phi.Args {
		if arg.Var == nil {
			return errors.AmbiguousPhi(scope.Name, b, phi,
				fmt.Sprintf("no argument for edge from '%s'", b.Preds[i].Name))
		}
		if arg.Pred != b.Preds[i] {
			return errors.AmbiguousPhi(scope.Name, b, phi,
				fmt.Sprintf("argument %d names '%s' but edge %d comes from '%s'", i, arg.Pred.Name, i, b.Preds[i].Name))
		}
	}
	return nil
}
