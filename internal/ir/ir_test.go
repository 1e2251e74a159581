package ir

import (
	"strings"
	"testing"
)

func TestSymbolTableVersions(t *testing.T) {
	table := NewSymbolTable()

	x, err := table.New("x", KindVar)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := table.New("x", KindCond); err == nil {
		t.Error("declaring x twice should fail")
	}

	x1 := table.InheritSym(x, 1)
	if x1.Name != "x#1" {
		t.Errorf("expected x#1, got %s", x1.Name)
	}
	if x1.Kind != KindVar {
		t.Errorf("versions keep the kind of their base, got %s", x1.Kind)
	}
	if again := table.InheritSym(x, 1); again != x1 {
		t.Error("InheritSym should return the same symbol for the same version")
	}

	// versions of versions are rooted at the base
	x2 := table.InheritSym(x1, 2)
	if anc, ok := table.Ancestor(x2); !ok || anc != x {
		t.Errorf("ancestor of x#2 should be x, got %v", anc)
	}
	if v, ok := table.VersionOf(x2); !ok || v.Number != 2 || v.Base != x.ID {
		t.Errorf("unexpected version entry %+v", v)
	}
	if table.IsVersioned(x) {
		t.Error("x is not versioned")
	}
	if table.Root(x2) != x {
		t.Error("Root of x#2 should be x")
	}
}

func TestSymbolTableTruncate(t *testing.T) {
	table := NewSymbolTable()
	x, _ := table.New("x", KindVar)
	checkpoint := table.Len()

	x1 := table.InheritSym(x, 1)
	table.Truncate(checkpoint)

	if table.Len() != 1 {
		t.Fatalf("expected 1 symbol after truncate, got %d", table.Len())
	}
	if _, ok := table.Lookup("x#1"); ok {
		t.Error("x#1 should be gone")
	}
	if table.IsVersioned(x1) {
		t.Error("version index entry of x#1 should be gone")
	}
	if again := table.InheritSym(x, 1); again.ID != x1.ID {
		t.Errorf("recreated x#1 should reuse ID %d, got %d", x1.ID, again.ID)
	}
}

func TestKindFromKeyword(t *testing.T) {
	for _, k := range []Kind{KindVar, KindCond, KindTemp, KindMemory, KindFunction, KindParam} {
		got, ok := KindFromKeyword(k.String())
		if !ok || got != k {
			t.Errorf("keyword %q maps to %v", k.String(), got)
		}
	}
	if _, ok := KindFromKeyword("unknown"); ok {
		t.Error("unknown is not a declaration keyword")
	}
	if Kind(42).String() != "kind(42)" {
		t.Errorf("unexpected name %q", Kind(42).String())
	}
}

func diamond() (*Scope, *Block, *Block, *Block, *Block) {
	s := NewScope("d")
	entry, left, right, merge := s.NewBlock("entry"), s.NewBlock("left"), s.NewBlock("right"), s.NewBlock("merge")
	entry.Connect(left)
	entry.Connect(right)
	left.Connect(merge)
	right.Connect(merge)
	return s, entry, left, right, merge
}

func TestBlockEditing(t *testing.T) {
	s, entry, left, _, merge := diamond()
	x, _ := s.Symbols.New("x", KindVar)

	move := &Move{Dst: NewTemp(x, Store), Src: &Const{Value: 1}}
	ret := &Ret{Exp: NewTemp(x, Load)}
	merge.Append(move)
	merge.Append(ret)

	phi := NewPhi(x, merge)
	merge.Prepend(phi)
	if merge.Stmts[0] != phi {
		t.Fatal("Prepend should put the phi first")
	}
	if got := phi.String(); got != "phi x = (? : left, ? : right);" {
		t.Errorf("unexpected phi %q", got)
	}
	if merge.Terminator() != ret {
		t.Error("ret should be the terminator")
	}
	if len(s.Phis()) != 1 {
		t.Errorf("expected 1 phi in scope, got %d", len(s.Phis()))
	}

	if !merge.Remove(phi) {
		t.Error("Remove should find the phi")
	}
	if merge.Remove(phi) {
		t.Error("Remove should not find the phi twice")
	}
	if len(merge.Phis()) != 0 {
		t.Error("phi should be gone")
	}

	if s.Entry() != entry || s.Block("left") != left || s.Block("nope") != nil {
		t.Error("block lookup is broken")
	}
	if !s.Contains(left) || s.Contains(&Block{ID: 1, Name: "left"}) {
		t.Error("Contains must compare identity")
	}
}

func TestRepeatedEdges(t *testing.T) {
	s := NewScope("r")
	a, b := s.NewBlock(""), s.NewBlock("")
	a.Connect(b)
	a.Connect(b)

	if a.Name != "b0" || b.Name != "b1" {
		t.Errorf("unexpected default names %s, %s", a.Name, b.Name)
	}
	if idx := b.PredIndexes(a); len(idx) != 2 || idx[0] != 0 || idx[1] != 1 {
		t.Errorf("expected both edges, got %v", idx)
	}
	if succs := a.UniqueSuccs(); len(succs) != 1 || succs[0] != b {
		t.Errorf("expected one unique successor, got %v", succs)
	}
}

func TestRefsOrder(t *testing.T) {
	s := NewScope("w")
	table := s.Symbols
	x, _ := table.New("x", KindVar)
	f, _ := table.New("f", KindFunction)
	m, _ := table.New("m", KindMemory)

	// x = f(x, m[x]) + 1
	stmt := &Move{
		Dst: NewTemp(x, Store),
		Src: &BinOp{
			Op: "+",
			Left: &Call{Func: NewTemp(f, Load), Args: []Expr{
				NewTemp(x, Load),
				&MRef{Mem: NewTemp(m, Load), Offset: NewTemp(x, Load)},
			}},
			Right: &Const{Value: 1},
		},
	}

	defs, uses := Refs(stmt)
	if len(defs) != 1 || defs[0] != stmt.Dst {
		t.Errorf("expected the destination as only def, got %v", defs)
	}
	var names []string
	for _, u := range uses {
		names = append(names, u.Sym.Name)
	}
	if got := strings.Join(names, " "); got != "f x m x" {
		t.Errorf("unexpected use order %q", got)
	}
	if got := stmt.String(); got != "x = f(x, m[x]) + 1;" {
		t.Errorf("unexpected statement text %q", got)
	}
}

func TestNestedOperatorsAreParenthesized(t *testing.T) {
	s := NewScope("p")
	a, _ := s.Symbols.New("a", KindVar)
	e := &BinOp{Op: "*", Left: &BinOp{Op: "+", Left: NewTemp(a, Load), Right: &Const{Value: 1}}, Right: &UnOp{Op: "-", Exp: NewTemp(a, Load)}}

	if got := e.String(); got != "(a + 1) * -a" {
		t.Errorf("unexpected expression %q", got)
	}
}

func TestPrint(t *testing.T) {
	s, entry, left, right, merge := diamond()
	x, _ := s.Symbols.New("x", KindVar)
	c, _ := s.Symbols.New("c", KindCond)
	x1 := s.Symbols.InheritSym(x, 1)

	entry.Append(&CJump{Cond: NewTemp(c, Load), True: left, False: right})
	left.Append(&Move{Dst: NewTemp(x1, Store), Src: &Const{Value: 1}})
	left.Append(&Jump{Target: merge})
	right.Append(&Jump{Target: merge})
	merge.Append(&Ret{})

	want := `scope d {
  var x;
  cond c;
  block entry {
    cjump c ? left : right;
  }
  // preds: entry
  block left {
    x#1 = 1;
    jump merge;
  }
  // preds: entry
  block right {
    jump merge;
  }
  // preds: left, right
  block merge {
    ret;
  }
}
`
	if got := Print(s); got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}

	two := Print(s, s)
	if !strings.Contains(two, "}\n\nscope d {") {
		t.Error("scopes should be separated by a blank line")
	}
}

func TestDOT(t *testing.T) {
	s, entry, left, right, merge := diamond()
	c, _ := s.Symbols.New("c", KindCond)
	entry.Append(&CJump{Cond: &BinOp{Op: "<", Left: NewTemp(c, Load), Right: &Const{Value: 2}}, True: left, False: right})
	left.Append(&Jump{Target: merge})
	right.Append(&Jump{Target: merge})
	merge.Append(&Ret{})
	s.NewBlock("orphan")

	out := DOT(s)
	for _, want := range []string{
		`digraph "d" {`,
		"START -> entry",
		`entry -> left [ label = "true" ]`,
		`entry -> right [ label = "false" ]`,
		`left -> merge [ label = "goto" ]`,
		"c &lt; 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output misses %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "orphan") {
		t.Error("unreachable blocks are not drawn")
	}
	if strings.Count(out, "    merge [ label = <") != 1 {
		t.Error("every block is drawn once")
	}
}
