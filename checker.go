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

import "math/big"

// Signed 64-bit integer bounds for literal range checking.
var (
	maxInt64 = big.NewInt(1<<63 - 1)
	minInt64 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 63))
)

// Check walks the full program tree accumulating non-fatal diagnostics:
// out-of-range integer literals and built-in arity mismatches. Unlike the
// parser, the Checker never aborts -- all findings land in state.Errors
// and are flushed together before ANF.
func Check(state *CompilerState, top *Scope) {
	checkScope(state, top)
}

func checkScope(state *CompilerState, sc *Scope) {
	for _, st := range sc.Statements {
		checkStatement(state, st)
	}
}

func checkStatement(state *CompilerState, st Statement) {
	switch n := st.(type) {
	case *EvalExpr:
		checkExpr(state, n.Expr)
	case *Binding:
		checkExpr(state, n.InitVal)
	case *Assignment:
		checkExpr(state, n.Src)
	case *NoOp:
	case *NewScopeStmt:
		checkScope(state, n.Body)
	case *IfStmt:
		checkExpr(state, n.Test)
		checkScope(state, n.Body)
		if n.OrElse != nil {
			checkScope(state, n.OrElse)
		}
	case *While:
		checkExpr(state, n.Test)
		checkScope(state, n.Body)
	default:
		panic("checker: unhandled statement type")
	}
}

func checkExpr(state *CompilerState, ex Expression) {
	switch n := ex.(type) {
	case *Name, *Boolean, *StringLiteral, *TypeLiteral, *Unit:
		// leaves
	case *Integer:
		if n.Value.Cmp(minInt64) < 0 || n.Value.Cmp(maxInt64) > 0 {
			state.Err(integerOOBError(n.Span()))
		}
	case *GetType:
		checkExpr(state, n.Ex)
	case *Prim1:
		checkExpr(state, n.Ex1)
	case *Prim2:
		checkExpr(state, n.Left)
		checkExpr(state, n.Right)
	case *Print:
		for _, a := range n.Args {
			checkExpr(state, a)
		}
	case *Input:
		for _, a := range n.Args {
			checkExpr(state, a)
		}
		if len(n.Args) > 1 {
			msg := "input() expects " + pluralArgs(0) + " or 1 but got " + pluralArgs(len(n.Args))
			state.Err(funcArgsError(msg, n.Span()))
		}
	case *RuntimeCall:
		for _, a := range n.Args {
			checkExpr(state, a)
		}
		if errMsg := n.checkArity(); errMsg != "" {
			state.Err(funcArgsError(n.Name+"() "+errMsg, n.Span()))
		}
	case *ExprScope:
		checkScope(state, n.Scope)
	case *IfExpr:
		checkExpr(state, n.Test)
		checkExpr(state, n.Body)
		checkExpr(state, n.OrElse)
	case *ImmConstLiteral:
		// produced post-ANF; never seen by the checker
	default:
		panic("checker: unhandled expression type")
	}
}
