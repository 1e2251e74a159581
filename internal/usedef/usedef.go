package usedef

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"hlsc/internal/ir"
)

// Table indexes where each symbol of a scope is defined and used.
//
// Direct definitions are assignments other than phis; they are what phi
// placement starts from. Phi destinations still count as definitions of their
// statement and block.
type Table struct {
	directDefs map[*ir.Symbol]mapset.Set[*ir.Block]
	blockDefs  map[*ir.Block]mapset.Set[*ir.Symbol]
	blockUses  map[*ir.Block]mapset.Set[*ir.Symbol]
	stmDefs    map[ir.Stmt][]*ir.Temp
	stmUses    map[ir.Stmt][]*ir.Temp
	defStmts   map[*ir.Symbol][]ir.Stmt
	useStmts   map[*ir.Symbol][]ir.Stmt
	stmBlock   map[ir.Stmt]*ir.Block
}

// New creates an empty table
func New() *Table {
	return &Table{
		directDefs: make(map[*ir.Symbol]mapset.Set[*ir.Block]),
		blockDefs:  make(map[*ir.Block]mapset.Set[*ir.Symbol]),
		blockUses:  make(map[*ir.Block]mapset.Set[*ir.Symbol]),
		stmDefs:    make(map[ir.Stmt][]*ir.Temp),
		stmUses:    make(map[ir.Stmt][]*ir.Temp),
		defStmts:   make(map[*ir.Symbol][]ir.Stmt),
		useStmts:   make(map[*ir.Symbol][]ir.Stmt),
		stmBlock:   make(map[ir.Stmt]*ir.Block),
	}
}

// Detect builds the table for every statement of scope
func Detect(scope *ir.Scope) *Table {
	t := New()
	for _, b := range scope.Blocks {
		for _, s := range b.Stmts {
			defs, uses := ir.Refs(s)
			for _, u := range uses {
				t.AddVarUse(b, s, u)
			}
			for _, d := range defs {
				t.AddVarDef(b, s, d)
			}
		}
	}
	return t
}

// AddVarDef records that stmt in block defines ref
func (t *Table) AddVarDef(block *ir.Block, stmt ir.Stmt, ref *ir.Temp) {
	sym := ref.Sym
	if _, isPhi := stmt.(*ir.Phi); !isPhi {
		if _, ok := t.directDefs[sym]; !ok {
			t.directDefs[sym] = mapset.NewThreadUnsafeSet[*ir.Block]()
		}
		t.directDefs[sym].Add(block)
	}
	if _, ok := t.blockDefs[block]; !ok {
		t.blockDefs[block] = mapset.NewThreadUnsafeSet[*ir.Symbol]()
	}
	t.blockDefs[block].Add(sym)
	t.stmDefs[stmt] = append(t.stmDefs[stmt], ref)
	t.defStmts[sym] = appendOnce(t.defStmts[sym], stmt)
	t.stmBlock[stmt] = block
}

// AddVarUse records that stmt in block reads ref
func (t *Table) AddVarUse(block *ir.Block, stmt ir.Stmt, ref *ir.Temp) {
	sym := ref.Sym
	if _, ok := t.blockUses[block]; !ok {
		t.blockUses[block] = mapset.NewThreadUnsafeSet[*ir.Symbol]()
	}
	t.blockUses[block].Add(sym)
	t.stmUses[stmt] = append(t.stmUses[stmt], ref)
	t.useStmts[sym] = appendOnce(t.useStmts[sym], stmt)
	t.stmBlock[stmt] = block
}

// DefBlocks returns the blocks holding a direct definition of sym, by block ID
func (t *Table) DefBlocks(sym *ir.Symbol) []*ir.Block {
	set, ok := t.directDefs[sym]
	if !ok {
		return nil
	}
	blocks := set.ToSlice()
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
	return blocks
}

// BlockDefSyms returns the symbols defined in block
func (t *Table) BlockDefSyms(block *ir.Block) mapset.Set[*ir.Symbol] {
	if set, ok := t.blockDefs[block]; ok {
		return set
	}
	return mapset.NewThreadUnsafeSet[*ir.Symbol]()
}

// BlockUseSyms returns the symbols read in block
func (t *Table) BlockUseSyms(block *ir.Block) mapset.Set[*ir.Symbol] {
	if set, ok := t.blockUses[block]; ok {
		return set
	}
	return mapset.NewThreadUnsafeSet[*ir.Symbol]()
}

// StmDefs returns the references stmt defines
func (t *Table) StmDefs(stmt ir.Stmt) []*ir.Temp { return t.stmDefs[stmt] }

// StmUses returns the references stmt reads, in evaluation order
func (t *Table) StmUses(stmt ir.Stmt) []*ir.Temp { return t.stmUses[stmt] }

// DefStmts returns every statement defining sym, phis included
func (t *Table) DefStmts(sym *ir.Symbol) []ir.Stmt { return t.defStmts[sym] }

// UseStmts returns every statement reading sym
func (t *Table) UseStmts(sym *ir.Symbol) []ir.Stmt { return t.useStmts[sym] }

// BlockOf returns the block a recorded statement belongs to
func (t *Table) BlockOf(stmt ir.Stmt) *ir.Block { return t.stmBlock[stmt] }

// DefinedSymbols returns every symbol with at least one direct definition,
// ordered by symbol ID
func (t *Table) DefinedSymbols() []*ir.Symbol {
	syms := make([]*ir.Symbol, 0, len(t.directDefs))
	for sym := range t.directDefs {
		syms = append(syms, sym)
	}
	return ir.SortSymbols(syms)
}

// Symbols returns every symbol defined or used, ordered by symbol ID
func (t *Table) Symbols() []*ir.Symbol {
	seen := mapset.NewThreadUnsafeSet[*ir.Symbol]()
	for sym := range t.defStmts {
		seen.Add(sym)
	}
	for sym := range t.useStmts {
		seen.Add(sym)
	}
	return ir.SortSymbols(seen.ToSlice())
}

func appendOnce(stmts []ir.Stmt, s ir.Stmt) []ir.Stmt {
	if n := len(stmts); n > 0 && stmts[n-1] == s {
		return stmts
	}
	return append(stmts, s)
}
