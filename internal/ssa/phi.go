package ssa

import (
	"github.com/oleiade/lane"
	"hlsc/internal/dom"
	"hlsc/internal/ir"
	"hlsc/internal/usedef"
)

// insertPhis places phis for every symbol at the iterated dominance frontier
// of its direct definition blocks. The entry block counts as an implicit
// definition of the value live on entry, so one assigning block is enough to
// need a merge wherever its frontier is not empty. New phis go to the head of
// their block and are registered as definitions in ud.
//
// A block enters the worklist at most once per symbol, so every block of the
// frontier closure gets exactly one phi whether or not it also assigns the
// symbol directly.
func insertPhis(syms []*ir.Symbol, ud *usedef.Table, df *dom.Frontier) []*ir.Phi {
	var inserted []*ir.Phi

	for _, sym := range syms {
		defs := ud.DefBlocks(sym)
		if len(defs) == 0 {
			continue
		}

		hasPhi := make(map[*ir.Block]bool)
		queued := make(map[*ir.Block]bool, len(defs))
		q := lane.NewQueue()
		for _, b := range defs {
			queued[b] = true
			q.Enqueue(b)
		}

		for !q.Empty() {
			x := q.Dequeue().(*ir.Block)
			for _, y := range df.Of(x) {
				if hasPhi[y] {
					continue
				}
				phi := ir.NewPhi(sym, y)
				y.Prepend(phi)
				ud.AddVarDef(y, phi, phi.Var)
				hasPhi[y] = true
				inserted = append(inserted, phi)

				if !queued[y] {
					queued[y] = true
					q.Enqueue(y)
				}
			}
		}
	}
	return inserted
}
