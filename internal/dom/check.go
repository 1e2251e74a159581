package dom

import (
	"fmt"

	"hlsc/internal/errors"
	"hlsc/internal/ir"
)

// Check verifies the CFG shape the dominator computation relies on: a
// non-empty scope, an entry without predecessors, edges recorded on both ends
// with the same multiplicity, and every block reachable from the entry.
func Check(scope *ir.Scope) error {
	entry := scope.Entry()
	if entry == nil {
		return errors.MalformedCFG(scope.Name, nil, "scope has no blocks")
	}
	if len(entry.Preds) > 0 {
		return errors.MalformedCFG(scope.Name, entry,
			fmt.Sprintf("entry block '%s' has %d predecessor(s)", entry.Name, len(entry.Preds)))
	}

	for _, b := range scope.Blocks {
		for _, succ := range b.Succs {
			if !scope.Contains(succ) {
				return errors.MalformedCFG(scope.Name, b,
					fmt.Sprintf("successor '%s' of '%s' is not part of the scope", succ.Name, b.Name))
			}
			if count(b.Succs, succ) != count(succ.Preds, b) {
				return errors.MalformedCFG(scope.Name, b,
					fmt.Sprintf("edge '%s' -> '%s' is not recorded symmetrically", b.Name, succ.Name),
					errors.BlockLabel(succ, fmt.Sprintf("lists '%s' %d time(s) as predecessor", b.Name, count(succ.Preds, b))))
			}
		}
		for _, pred := range b.Preds {
			if !scope.Contains(pred) {
				return errors.MalformedCFG(scope.Name, b,
					fmt.Sprintf("predecessor '%s' of '%s' is not part of the scope", pred.Name, b.Name))
			}
			if count(pred.Succs, b) != count(b.Preds, pred) {
				return errors.MalformedCFG(scope.Name, b,
					fmt.Sprintf("edge '%s' -> '%s' is not recorded symmetrically", pred.Name, b.Name),
					errors.BlockLabel(pred, fmt.Sprintf("lists '%s' %d time(s) as successor", b.Name, count(pred.Succs, b))))
			}
		}
	}

	reached := make([]bool, len(scope.Blocks))
	for _, b := range postorder(entry) {
		reached[b.ID] = true
	}
	for _, b := range scope.Blocks {
		if !reached[b.ID] {
			return errors.MalformedCFG(scope.Name, b,
				fmt.Sprintf("block '%s' is unreachable from entry", b.Name))
		}
	}
	return nil
}

func count(blocks []*ir.Block, b *ir.Block) int {
	n := 0
	for _, x := range blocks {
		if x == b {
			n++
		}
	}
	return n
}

// postorder returns the blocks reachable from entry in DFS postorder.
// Successors are visited in edge order.
func postorder(entry *ir.Block) []*ir.Block {
	type frame struct {
		b    *ir.Block
		next int
	}
	visited := map[*ir.Block]bool{entry: true}
	stack := []frame{{b: entry}}
	var order []*ir.Block

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			succ := top.b.Succs[top.next]
			top.next++
			if !visited[succ] {
				visited[succ] = true
				stack = append(stack, frame{b: succ})
			}
			continue
		}
		order = append(order, top.b)
		stack = stack[:len(stack)-1]
	}
	return order
}
