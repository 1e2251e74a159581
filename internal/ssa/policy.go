package ssa

import (
	"strings"

	"hlsc/internal/errors"
	"hlsc/internal/ir"
)

// DefaultInputPrefix marks input parameters that keep their flat name
const DefaultInputPrefix = "@in"

// Policy decides which symbols take part in phi insertion and renaming
type Policy struct {
	// InputPrefix excludes every symbol whose name starts with it
	InputPrefix string

	// UnknownAsMergeable makes the policy total: symbols of unknown kind are
	// renamed instead of failing the pass
	UnknownAsMergeable bool

	// StrictUndefined rejects phi arguments that read the value live on entry
	StrictUndefined bool
}

// DefaultPolicy returns the policy used by Run
func DefaultPolicy() Policy {
	return Policy{InputPrefix: DefaultInputPrefix}
}

// Mergeable reports whether sym gets phis and versions. Conditions,
// temporaries, memories and functions never do, nor do input-marked names
// or symbols that already carry a version.
func (p Policy) Mergeable(scope *ir.Scope, sym *ir.Symbol) (bool, error) {
	if scope.Symbols.IsVersioned(sym) {
		return false, nil
	}
	if p.InputPrefix != "" && strings.HasPrefix(sym.Name, p.InputPrefix) {
		return false, nil
	}

	switch sym.Kind {
	case ir.KindVar, ir.KindParam:
		return true, nil
	case ir.KindCond, ir.KindTemp, ir.KindMemory, ir.KindFunction:
		return false, nil
	default:
		if p.UnknownAsMergeable {
			return true, nil
		}
		return false, errors.UnknownSymbolClass(scope.Name, sym)
	}
}
