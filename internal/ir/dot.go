package ir

import (
	"fmt"
	"html"
	"strings"

	"github.com/oleiade/lane"
)

// DOT renders the CFG of a scope as a Graphviz digraph. Blocks are visited
// breadth first from the entry; unreachable blocks are left out.
func DOT(s *Scope) string {
	buf := []string{
		fmt.Sprintf("digraph %q {", s.Name),
		`    node [ fontname = "monospace" shape = "plaintext" ]`,
		`    START [ shape = "circle" ]`,
	}
	entry := s.Entry()
	if entry == nil {
		return strings.Join(append(buf, "}"), "\n") + "\n"
	}
	buf = append(buf, fmt.Sprintf("    START -> %s", entry.Name))

	q := lane.NewQueue()
	seen := map[*Block]bool{entry: true}
	for q.Enqueue(entry); !q.Empty(); {
		b := q.Dequeue().(*Block)
		buf = append(buf, fmt.Sprintf("    %s [ label = < %s > ]", b.Name, dotLabel(b)))
		for i, succ := range b.Succs {
			if !seen[succ] {
				seen[succ] = true
				q.Enqueue(succ)
			}
			buf = append(buf, fmt.Sprintf("    %s -> %s [ label = %q ]", b.Name, succ.Name, edgeLabel(b, i)))
		}
	}
	buf = append(buf, "}")
	return strings.Join(buf, "\n") + "\n"
}

func dotLabel(b *Block) string {
	rows := []string{
		`<table border="1" cellborder="0" cellspacing="0">`,
		fmt.Sprintf(`<tr><td><b>%s</b></td></tr>`, html.EscapeString(b.Name)),
	}
	for _, s := range b.Stmts {
		rows = append(rows, fmt.Sprintf(`<tr><td align="left">%s</td></tr>`, html.EscapeString(s.String())))
	}
	rows = append(rows, "</table>")
	return strings.Join(rows, "")
}

func edgeLabel(b *Block, i int) string {
	if cj, ok := b.Terminator().(*CJump); ok && len(b.Succs) == 2 {
		if i == 0 && b.Succs[0] == cj.True {
			return "true"
		}
		return "false"
	}
	return "goto"
}
