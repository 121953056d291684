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

// TagStrings walks the whole program after ANF and hands every
// StringLiteral to the string pool, assigning its DataLabel. Run as a
// dedicated pass rather than folded into ANF because string interning
// does not care whether a literal sits in an immediate slot.
func TagStrings(state *CompilerState, top *Scope) {
	tagStringsScope(state, top)
}

func tagStringsScope(state *CompilerState, sc *Scope) {
	for _, st := range sc.Statements {
		tagStringsStatement(state, st)
	}
}

func tagStringsStatement(state *CompilerState, st Statement) {
	switch n := st.(type) {
	case *EvalExpr:
		tagStringsExpr(state, n.Expr)
	case *Binding:
		tagStringsExpr(state, n.InitVal)
	case *Assignment:
		tagStringsExpr(state, n.Src)
	case *NoOp:
	case *NewScopeStmt:
		tagStringsScope(state, n.Body)
	case *IfStmt:
		tagStringsExpr(state, n.Test)
		tagStringsScope(state, n.Body)
		if n.OrElse != nil {
			tagStringsScope(state, n.OrElse)
		}
	case *While:
		tagStringsExpr(state, n.Test)
		tagStringsScope(state, n.Body)
	default:
		panic("strliteral: unhandled statement type")
	}
}

func tagStringsExpr(state *CompilerState, ex Expression) {
	switch n := ex.(type) {
	case *StringLiteral:
		state.StringPool.Process(n)
	case *Name, *Integer, *Boolean, *TypeLiteral, *Unit, *ImmConstLiteral:
	case *GetType:
		tagStringsExpr(state, n.Ex)
	case *Prim1:
		tagStringsExpr(state, n.Ex1)
	case *Prim2:
		tagStringsExpr(state, n.Left)
		tagStringsExpr(state, n.Right)
	case *Print:
		for _, a := range n.Args {
			tagStringsExpr(state, a)
		}
	case *Input:
		for _, a := range n.Args {
			tagStringsExpr(state, a)
		}
	case *RuntimeCall:
		for _, a := range n.Args {
			tagStringsExpr(state, a)
		}
	case *ExprScope:
		tagStringsScope(state, n.Scope)
	case *IfExpr:
		tagStringsExpr(state, n.Test)
		tagStringsExpr(state, n.Body)
		tagStringsExpr(state, n.OrElse)
	default:
		panic("strliteral: unhandled expression type")
	}
}
