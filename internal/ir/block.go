package ir

import "fmt"

// Position locates a construct in a textual IR file
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Block is a basic block. Preds is ordered: the index of a predecessor is the
// index of its phi argument.
type Block struct {
	ID    int // position in program order; 0 is the entry
	Name  string
	Stmts []Stmt
	Preds []*Block
	Succs []*Block
	Pos   Position
}

func (b *Block) String() string { return b.Name }

// Connect adds the edge b -> succ
func (b *Block) Connect(succ *Block) {
	b.Succs = append(b.Succs, succ)
	succ.Preds = append(succ.Preds, b)
}

// Append adds a statement to the end of the block
func (b *Block) Append(s Stmt) {
	b.Stmts = append(b.Stmts, s)
}

// Prepend inserts a statement at the head of the block
func (b *Block) Prepend(s Stmt) {
	b.Stmts = append([]Stmt{s}, b.Stmts...)
}

// Remove deletes the first occurrence of s and reports whether it was found
func (b *Block) Remove(s Stmt) bool {
	for i, stm := range b.Stmts {
		if stm == s {
			b.Stmts = append(b.Stmts[:i], b.Stmts[i+1:]...)
			return true
		}
	}
	return false
}

// Phis returns the phi nodes of the block in statement order
func (b *Block) Phis() []*Phi {
	var phis []*Phi
	for _, s := range b.Stmts {
		if phi, ok := s.(*Phi); ok {
			phis = append(phis, phi)
		}
	}
	return phis
}

// PredIndexes returns every predecessor-edge index that comes from pred
func (b *Block) PredIndexes(pred *Block) []int {
	var idx []int
	for i, p := range b.Preds {
		if p == pred {
			idx = append(idx, i)
		}
	}
	return idx
}

// UniqueSuccs returns the successors without repeated edges, in order
func (b *Block) UniqueSuccs() []*Block {
	seen := make(map[*Block]bool, len(b.Succs))
	var out []*Block
	for _, s := range b.Succs {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Terminator returns the last statement if it ends the block
func (b *Block) Terminator() Stmt {
	if n := len(b.Stmts); n > 0 && b.Stmts[n-1].IsTerminator() {
		return b.Stmts[n-1]
	}
	return nil
}

// Scope is one compilation unit: a CFG plus the symbols it owns.
// Scopes share no mutable state and can be processed independently.
type Scope struct {
	Name    string
	Blocks  []*Block
	Symbols *SymbolTable
	Pos     Position
}

// NewScope creates an empty scope
func NewScope(name string) *Scope {
	return &Scope{Name: name, Symbols: NewSymbolTable()}
}

// NewBlock creates a block at the end of program order
func (s *Scope) NewBlock(name string) *Block {
	if name == "" {
		name = fmt.Sprintf("b%d", len(s.Blocks))
	}
	b := &Block{ID: len(s.Blocks), Name: name}
	s.Blocks = append(s.Blocks, b)
	return b
}

// Entry returns block 0, or nil for an empty scope
func (s *Scope) Entry() *Block {
	if len(s.Blocks) == 0 {
		return nil
	}
	return s.Blocks[0]
}

// Block finds a block by name
func (s *Scope) Block(name string) *Block {
	for _, b := range s.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Contains reports whether b belongs to the scope
func (s *Scope) Contains(b *Block) bool {
	return b != nil && b.ID >= 0 && b.ID < len(s.Blocks) && s.Blocks[b.ID] == b
}

// Phis returns every phi of the scope, block by block
func (s *Scope) Phis() []*Phi {
	var phis []*Phi
	for _, b := range s.Blocks {
		phis = append(phis, b.Phis()...)
	}
	return phis
}
