package ir

import (
	"fmt"
	"strings"
)

// Printer renders scopes in textual IR syntax. The output parses back into an
// equivalent scope, phis and versioned names included.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new IR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the textual form of one or more scopes
func Print(scopes ...*Scope) string {
	p := NewPrinter()
	for i, s := range scopes {
		if i > 0 {
			p.writeLine("")
		}
		p.printScope(s)
	}
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

// declOrder fixes the order declarations are printed in
var declOrder = []Kind{KindVar, KindCond, KindTemp, KindMemory, KindFunction, KindParam}

func (p *Printer) printScope(s *Scope) {
	p.writeLine("scope %s {", s.Name)
	p.indent++

	// Only base symbols are declared; versions are rebuilt from their names
	byKind := make(map[Kind][]string)
	for _, sym := range s.Symbols.Symbols() {
		if s.Symbols.IsVersioned(sym) || sym.Kind == KindUnknown {
			continue
		}
		byKind[sym.Kind] = append(byKind[sym.Kind], sym.Name)
	}
	for _, k := range declOrder {
		if names := byKind[k]; len(names) > 0 {
			p.writeLine("%s %s;", k, strings.Join(names, ", "))
		}
	}

	for _, b := range s.Blocks {
		p.printBlock(b)
	}

	p.indent--
	p.writeLine("}")
}

func (p *Printer) printBlock(b *Block) {
	preds := make([]string, len(b.Preds))
	for i, pred := range b.Preds {
		preds[i] = pred.Name
	}
	if len(preds) > 0 {
		p.writeLine("// preds: %s", strings.Join(preds, ", "))
	}
	p.writeLine("block %s {", b.Name)
	p.indent++
	for _, s := range b.Stmts {
		p.writeLine("%s", s)
	}
	p.indent--
	p.writeLine("}")
}
