package ir

// WalkExpr calls fn for every variable reference inside e, left to right
func WalkExpr(e Expr, fn func(*Temp)) {
	switch x := e.(type) {
	case nil:
	case *Temp:
		fn(x)
	case *Const:
	case *UnOp:
		WalkExpr(x.Exp, fn)
	case *BinOp:
		WalkExpr(x.Left, fn)
		WalkExpr(x.Right, fn)
	case *Call:
		fn(x.Func)
		for _, a := range x.Args {
			WalkExpr(a, fn)
		}
	case *MRef:
		fn(x.Mem)
		WalkExpr(x.Offset, fn)
	}
}

// Walk calls fn for every variable reference of a statement. Sources are
// visited before destinations so the order matches evaluation order.
func Walk(s Stmt, fn func(*Temp)) {
	switch x := s.(type) {
	case *Move:
		WalkExpr(x.Src, fn)
		fn(x.Dst)
	case *Store:
		fn(x.Mem)
		WalkExpr(x.Offset, fn)
		WalkExpr(x.Exp, fn)
	case *ExprStmt:
		WalkExpr(x.Exp, fn)
	case *Jump:
	case *CJump:
		WalkExpr(x.Cond, fn)
	case *Ret:
		WalkExpr(x.Exp, fn)
	case *Phi:
		for _, a := range x.Args {
			if a.Var != nil {
				fn(a.Var)
			}
		}
		fn(x.Var)
	}
}

// Refs splits the references of a statement into definitions and uses
func Refs(s Stmt) (defs, uses []*Temp) {
	Walk(s, func(t *Temp) {
		if t.Ctx == Store {
			defs = append(defs, t)
		} else {
			uses = append(uses, t)
		}
	})
	return defs, uses
}
