// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import "fmt"

// anfState mints the synthetic $anf<n> temporary names ANF introduces,
// reset per compiled function.
type anfState struct {
	nextCtr int
}

func (s *anfState) freshName() string {
	s.nextCtr++
	return fmt.Sprintf("$anf%d", s.nextCtr)
}

// bindingsBuilder accumulates the temporaries a single node's own
// needs-immediate children require; the node is wrapped in a NewScope
// or ExprScope around these bindings once all of its fields have been
// processed.
type bindingsBuilder struct {
	state    *CompilerState
	anfState *anfState
	bindings []Statement
}

// processImm coerces an already-visited expression into an immediate:
// a Name is left alone, a poolable constant literal is interned, and
// anything else is hoisted into a fresh temporary binding.
func (b *bindingsBuilder) processImm(e Expression) Expression {
	switch n := e.(type) {
	case *Name:
		return n
	case *ImmConstLiteral:
		return n
	default:
		if ty, val, ok := constLiteralRecord(e); ok {
			return b.state.ConstPool.Pool(ty, val, e.Span())
		}
		name := b.anfState.freshName()
		info := newVarInfo(-1, false)
		b.bindings = append(b.bindings, &Binding{Sp: e.Span(), Mutable: false, Name: name, InitVal: e, Info: info})
		return &Name{Sp: e.Span(), Name: name, Info: info}
	}
}

// ANF lowers every compiled function's body to A-Normal Form: every
// needs-immediate slot ends up holding a Name or a pooled constant
// reference, with fresh temporaries dominating the node that required
// them.
func ANF(state *CompilerState, funcs []*CompiledFunction) {
	for _, f := range funcs {
		an := &anfState{}
		f.Body = visitScope(state, an, f.Body)
	}
}

func visitScope(state *CompilerState, an *anfState, sc *Scope) *Scope {
	for i, st := range sc.Statements {
		sc.Statements[i] = visitStmt(state, an, st)
	}
	return sc
}

func wrapExpr(sp SourceSpan, bindings []Statement, node Expression) Expression {
	if len(bindings) == 0 {
		return node
	}
	return mkExprScope(sp, bindings, node)
}

func wrapStmt(sp SourceSpan, bindings []Statement, node Statement) Statement {
	if len(bindings) == 0 {
		return node
	}
	stmts := make([]Statement, 0, len(bindings)+1)
	stmts = append(stmts, bindings...)
	stmts = append(stmts, node)
	// Tagged directly since this scope is synthesized after the tagger's
	// scope-info walk has already run; nothing else will visit it.
	return &NewScopeStmt{Sp: sp, Body: &Scope{Statements: stmts, Info: &ScopeInformation{Funcs: nil}}}
}

func visitStmt(state *CompilerState, an *anfState, st Statement) Statement {
	b := &bindingsBuilder{state: state, anfState: an}
	switch n := st.(type) {
	case *EvalExpr:
		n.Expr = visitExpr(state, an, n.Expr)
		return wrapStmt(n.Sp, b.bindings, n)
	case *Binding:
		n.InitVal = visitExpr(state, an, n.InitVal)
		return wrapStmt(n.Sp, b.bindings, n)
	case *Assignment:
		n.Src = visitExpr(state, an, n.Src)
		return wrapStmt(n.Sp, b.bindings, n)
	case *NoOp:
		return n
	case *NewScopeStmt:
		n.Body = visitScope(state, an, n.Body)
		return wrapStmt(n.Sp, b.bindings, n)
	case *IfStmt:
		n.Test = b.processImm(visitExpr(state, an, n.Test))
		n.Body = visitScope(state, an, n.Body)
		if n.OrElse != nil {
			n.OrElse = visitScope(state, an, n.OrElse)
		}
		return wrapStmt(n.Sp, b.bindings, n)
	case *While:
		n.Test = visitExpr(state, an, n.Test)
		n.Body = visitScope(state, an, n.Body)
		return wrapStmt(n.Sp, b.bindings, n)
	default:
		panic("anf: unhandled statement type")
	}
}

func visitExpr(state *CompilerState, an *anfState, ex Expression) Expression {
	b := &bindingsBuilder{state: state, anfState: an}
	switch n := ex.(type) {
	case *Name, *Integer, *Boolean, *StringLiteral, *TypeLiteral, *Unit, *ImmConstLiteral:
		return n
	case *GetType:
		n.Ex = visitExpr(state, an, n.Ex)
		return wrapExpr(n.Sp, b.bindings, n)
	case *Prim1:
		n.Ex1 = b.processImm(visitExpr(state, an, n.Ex1))
		return wrapExpr(n.Sp, b.bindings, n)
	case *Prim2:
		n.Left = b.processImm(visitExpr(state, an, n.Left))
		n.Right = b.processImm(visitExpr(state, an, n.Right))
		return wrapExpr(n.Sp, b.bindings, n)
	case *Print:
		for i, a := range n.Args {
			n.Args[i] = b.processImm(visitExpr(state, an, a))
		}
		return wrapExpr(n.Sp, b.bindings, n)
	case *Input:
		for i, a := range n.Args {
			n.Args[i] = b.processImm(visitExpr(state, an, a))
		}
		return wrapExpr(n.Sp, b.bindings, n)
	case *RuntimeCall:
		for i, a := range n.Args {
			n.Args[i] = b.processImm(visitExpr(state, an, a))
		}
		return wrapExpr(n.Sp, b.bindings, n)
	case *ExprScope:
		n.Scope = visitScope(state, an, n.Scope)
		return wrapExpr(n.Sp, b.bindings, n)
	case *IfExpr:
		n.Test = visitExpr(state, an, n.Test)
		n.Body = visitExpr(state, an, n.Body)
		n.OrElse = visitExpr(state, an, n.OrElse)
		return wrapExpr(n.Sp, b.bindings, n)
	default:
		panic("anf: unhandled expression type")
	}
}
