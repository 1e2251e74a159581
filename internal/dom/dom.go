package dom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	"hlsc/internal/ir"
)

var log = commonlog.GetLogger("hlsc.dom")

// Tree is the dominator tree of one scope.
//
// Dominance queries are answered in constant time from a pre/post numbering
// of the tree: a dominates b iff pre[a] <= pre[b] and post[b] <= post[a].
type Tree struct {
	scope    *ir.Scope
	idom     []*ir.Block
	children [][]*ir.Block
	pre      []int
	post     []int
}

// Build computes the dominator tree of scope with the iterative algorithm of
// Cooper, Harvey and Kennedy over reverse postorder. The CFG is validated
// first; an unreachable block is a MalformedCFG error.
func Build(scope *ir.Scope) (*Tree, error) {
	if err := Check(scope); err != nil {
		return nil, err
	}

	n := len(scope.Blocks)
	entry := scope.Entry()
	po := postorder(entry)

	ponum := make([]int, n)
	for i, b := range po {
		ponum[b.ID] = i
	}

	idom := make([]*ir.Block, n)
	idom[entry.ID] = entry

	intersect := func(a, b *ir.Block) *ir.Block {
		for a != b {
			for ponum[a.ID] < ponum[b.ID] {
				a = idom[a.ID]
			}
			for ponum[b.ID] < ponum[a.ID] {
				b = idom[b.ID]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		// Reverse postorder, entry excluded
		for i := len(po) - 2; i >= 0; i-- {
			b := po[i]
			var newIdom *ir.Block
			for _, p := range b.Preds {
				if idom[p.ID] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = intersect(p, newIdom)
				}
			}
			if idom[b.ID] != newIdom {
				idom[b.ID] = newIdom
				changed = true
			}
		}
	}
	idom[entry.ID] = nil

	t := &Tree{
		scope:    scope,
		idom:     idom,
		children: make([][]*ir.Block, n),
		pre:      make([]int, n),
		post:     make([]int, n),
	}
	// Program order keeps children, and every walk over them, deterministic
	for _, b := range scope.Blocks {
		if d := idom[b.ID]; d != nil {
			t.children[d.ID] = append(t.children[d.ID], b)
		}
	}
	t.number(entry)

	if log.AllowLevel(commonlog.Debug) {
		log.Debugf("dominator tree of %s:\n%s", scope.Name, t)
	}
	return t, nil
}

func (t *Tree) number(root *ir.Block) {
	type frame struct {
		b    *ir.Block
		next int
	}
	clock := 0
	stack := []frame{{b: root}}
	t.pre[root.ID] = clock
	clock++
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := t.children[top.b.ID]
		if top.next < len(kids) {
			c := kids[top.next]
			top.next++
			t.pre[c.ID] = clock
			clock++
			stack = append(stack, frame{b: c})
			continue
		}
		t.post[top.b.ID] = clock
		clock++
		stack = stack[:len(stack)-1]
	}
}

// Scope returns the scope the tree was built for
func (t *Tree) Scope() *ir.Scope { return t.scope }

// Root returns the entry block
func (t *Tree) Root() *ir.Block { return t.scope.Entry() }

// Idom returns the immediate dominator of b, or nil for the entry
func (t *Tree) Idom(b *ir.Block) *ir.Block { return t.idom[b.ID] }

// Children returns the blocks b immediately dominates, in program order
func (t *Tree) Children(b *ir.Block) []*ir.Block { return t.children[b.ID] }

// Dominates reports whether a dominates b. Every block dominates itself.
func (t *Tree) Dominates(a, b *ir.Block) bool {
	return t.pre[a.ID] <= t.pre[b.ID] && t.post[b.ID] <= t.post[a.ID]
}

// StrictlyDominates reports whether a dominates b and a != b
func (t *Tree) StrictlyDominates(a, b *ir.Block) bool {
	return a != b && t.Dominates(a, b)
}

// PreOrder returns the blocks in dominator-tree pre-order
func (t *Tree) PreOrder() []*ir.Block {
	order := make([]*ir.Block, len(t.scope.Blocks))
	copy(order, t.scope.Blocks)
	sort.Slice(order, func(i, j int) bool { return t.pre[order[i].ID] < t.pre[order[j].ID] })
	return order
}

// PostOrder returns the blocks in dominator-tree post-order
func (t *Tree) PostOrder() []*ir.Block {
	order := make([]*ir.Block, len(t.scope.Blocks))
	copy(order, t.scope.Blocks)
	sort.Slice(order, func(i, j int) bool { return t.post[order[i].ID] < t.post[order[j].ID] })
	return order
}

// String dumps the tree with one indented line per block
func (t *Tree) String() string {
	var sb strings.Builder
	var dump func(b *ir.Block, depth int)
	dump = func(b *ir.Block, depth int) {
		sb.WriteString(fmt.Sprintf("%s%s\n", strings.Repeat("  ", depth), b.Name))
		for _, c := range t.children[b.ID] {
			dump(c, depth+1)
		}
	}
	dump(t.Root(), 0)
	return sb.String()
}
