package ir

import (
	"fmt"
	"sort"
)

// Kind classifies a symbol. The zero value means the classification was never
// determined; the SSA pass refuses such symbols unless its policy is total.
type Kind int

const (
	KindUnknown Kind = iota
	KindVar
	KindCond
	KindTemp
	KindMemory
	KindFunction
	KindParam
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindVar:      "var",
	KindCond:     "cond",
	KindTemp:     "temp",
	KindMemory:   "mem",
	KindFunction: "func",
	KindParam:    "param",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindFromKeyword maps a declaration keyword of the textual IR to its kind
func KindFromKeyword(keyword string) (Kind, bool) {
	for k, name := range kindNames {
		if k != KindUnknown && name == keyword {
			return k, true
		}
	}
	return KindUnknown, false
}

// VersionSeparator joins a base name and its SSA version, as in "x#2"
const VersionSeparator = "#"

// SymbolID identifies a symbol inside its scope's table
type SymbolID int

// Symbol is a variable identity. Symbols are never mutated once created;
// renaming produces a new symbol that records its base in the table's
// version index.
type Symbol struct {
	ID   SymbolID
	Name string
	Kind Kind
}

func (s *Symbol) String() string { return s.Name }

// Version records where a versioned symbol came from
type Version struct {
	Base   SymbolID
	Number int
}

// SymbolTable owns every symbol of one scope. It replaces a process-wide
// registry: nothing here is shared between scopes.
type SymbolTable struct {
	symbols  []*Symbol
	byName   map[string]*Symbol
	versions map[SymbolID]Version
}

// NewSymbolTable creates an empty table
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName:   make(map[string]*Symbol),
		versions: make(map[SymbolID]Version),
	}
}

// New declares a fresh symbol. It fails if the name is already taken.
func (t *SymbolTable) New(name string, kind Kind) (*Symbol, error) {
	if _, exists := t.byName[name]; exists {
		return nil, fmt.Errorf("symbol %q already declared", name)
	}
	return t.add(name, kind), nil
}

// Lookup finds a symbol by its full name
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// InheritSym returns the symbol for version n of base, creating it on first
// request. Versions of versions are rooted at the original base.
func (t *SymbolTable) InheritSym(base *Symbol, n int) *Symbol {
	root := t.Root(base)
	name := fmt.Sprintf("%s%s%d", root.Name, VersionSeparator, n)
	if sym, ok := t.byName[name]; ok {
		return sym
	}
	sym := t.add(name, root.Kind)
	t.versions[sym.ID] = Version{Base: root.ID, Number: n}
	return sym
}

// Ancestor returns the base symbol a versioned symbol was renamed from
func (t *SymbolTable) Ancestor(sym *Symbol) (*Symbol, bool) {
	v, ok := t.versions[sym.ID]
	if !ok {
		return nil, false
	}
	return t.symbols[v.Base], true
}

// VersionOf reports the version index entry of sym
func (t *SymbolTable) VersionOf(sym *Symbol) (Version, bool) {
	v, ok := t.versions[sym.ID]
	return v, ok
}

// Root follows the version index back to the unversioned symbol
func (t *SymbolTable) Root(sym *Symbol) *Symbol {
	if anc, ok := t.Ancestor(sym); ok {
		return anc
	}
	return sym
}

// IsVersioned reports whether sym was produced by renaming
func (t *SymbolTable) IsVersioned(sym *Symbol) bool {
	_, ok := t.versions[sym.ID]
	return ok
}

// Len returns the number of symbols, usable as a checkpoint for Truncate
func (t *SymbolTable) Len() int { return len(t.symbols) }

// Truncate drops every symbol created after the checkpoint n
func (t *SymbolTable) Truncate(n int) {
	for _, sym := range t.symbols[n:] {
		delete(t.byName, sym.Name)
		delete(t.versions, sym.ID)
	}
	t.symbols = t.symbols[:n]
}

// Symbols returns all symbols in creation order
func (t *SymbolTable) Symbols() []*Symbol {
	out := make([]*Symbol, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// SortSymbols orders symbols by ID in place and returns the slice
func SortSymbols(syms []*Symbol) []*Symbol {
	sort.Slice(syms, func(i, j int) bool { return syms[i].ID < syms[j].ID })
	return syms
}

func (t *SymbolTable) add(name string, kind Kind) *Symbol {
	sym := &Symbol{ID: SymbolID(len(t.symbols)), Name: name, Kind: kind}
	t.symbols = append(t.symbols, sym)
	t.byName[name] = sym
	return sym
}
