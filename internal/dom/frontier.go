package dom

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tliron/commonlog"
	"hlsc/internal/ir"
)

// Frontier maps every block to its dominance frontier: the blocks where its
// dominance ends.
type Frontier struct {
	df []mapset.Set[*ir.Block]
}

// BuildFrontier computes dominance frontiers bottom-up over the dominator
// tree (Cytron et al.). A block's frontier starts with its successors it does
// not strictly dominate, then takes every frontier member of its children
// that it does not strictly dominate either.
func BuildFrontier(t *Tree) *Frontier {
	f := &Frontier{df: make([]mapset.Set[*ir.Block], len(t.scope.Blocks))}

	for _, b := range t.PostOrder() {
		df := mapset.NewThreadUnsafeSet[*ir.Block]()
		for _, succ := range b.Succs {
			if !t.StrictlyDominates(b, succ) {
				df.Add(succ)
			}
		}
		for _, c := range t.Children(b) {
			f.df[c.ID].Each(func(w *ir.Block) bool {
				if !t.StrictlyDominates(b, w) {
					df.Add(w)
				}
				return false
			})
		}
		f.df[b.ID] = df
	}

	if log.AllowLevel(commonlog.Debug) {
		for _, b := range t.scope.Blocks {
			if members := f.Of(b); len(members) > 0 {
				log.Debugf("DF of %s = %s", b.Name, names(members))
			}
		}
	}
	return f
}

// Of returns the frontier of b ordered by block ID
func (f *Frontier) Of(b *ir.Block) []*ir.Block {
	blocks := f.df[b.ID].ToSlice()
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
	return blocks
}

// Set returns the frontier of b as a set
func (f *Frontier) Set(b *ir.Block) mapset.Set[*ir.Block] {
	return f.df[b.ID]
}

func names(blocks []*ir.Block) string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Name
	}
	return strings.Join(out, ", ")
}
