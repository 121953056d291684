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

// Tag runs the two tagger sub-passes and returns
// the list of compiled functions discovered. For this revision that list
// always holds exactly one entry: the whole program under the reserved
// symbol MAIN.
func Tag(state *CompilerState, top *Scope) []*CompiledFunction {
	funcs := tagFunctions(top)
	tagVariables(state, top)
	return funcs
}

// tagFunctions is Walk A: a post-order pass that attaches a fresh
// ScopeInformation to every Scope. The function list inside it is always
// empty today (see CompiledFunction's doc comment).
func tagFunctions(top *Scope) []*CompiledFunction {
	tagScopeInfo(top)
	return []*CompiledFunction{{Symbol: MAIN, Body: top, ID: mainFuncID}}
}

func tagScopeInfo(sc *Scope) {
	for _, st := range sc.Statements {
		tagScopeInfoStatement(st)
	}
	sc.Info = &ScopeInformation{Funcs: nil}
}

func tagScopeInfoStatement(st Statement) {
	switch n := st.(type) {
	case *NewScopeStmt:
		tagScopeInfo(n.Body)
	case *IfStmt:
		tagScopeInfoExpr(n.Test)
		tagScopeInfo(n.Body)
		if n.OrElse != nil {
			tagScopeInfo(n.OrElse)
		}
	case *While:
		tagScopeInfoExpr(n.Test)
		tagScopeInfo(n.Body)
	case *EvalExpr:
		tagScopeInfoExpr(n.Expr)
	case *Binding:
		tagScopeInfoExpr(n.InitVal)
	case *Assignment:
		tagScopeInfoExpr(n.Src)
	case *NoOp:
	}
}

func tagScopeInfoExpr(ex Expression) {
	switch n := ex.(type) {
	case *ExprScope:
		tagScopeInfo(n.Scope)
	case *GetType:
		tagScopeInfoExpr(n.Ex)
	case *Prim1:
		tagScopeInfoExpr(n.Ex1)
	case *Prim2:
		tagScopeInfoExpr(n.Left)
		tagScopeInfoExpr(n.Right)
	case *Print:
		for _, a := range n.Args {
			tagScopeInfoExpr(a)
		}
	case *Input:
		for _, a := range n.Args {
			tagScopeInfoExpr(a)
		}
	case *RuntimeCall:
		for _, a := range n.Args {
			tagScopeInfoExpr(a)
		}
	case *IfExpr:
		tagScopeInfoExpr(n.Test)
		tagScopeInfoExpr(n.Body)
		tagScopeInfoExpr(n.OrElse)
	}
}

// variableContext carries the scope-local binding table for Walk B. It is
// cloned on entry to every Scope so that lexical shadowing stays
// scope-local.
type variableContext struct {
	currentFuncID int
	bindings      map[string]*VarInfo
}

func newVariableContext(funcID int) *variableContext {
	return &variableContext{currentFuncID: funcID, bindings: map[string]*VarInfo{}}
}

func (c *variableContext) clone() *variableContext {
	cp := make(map[string]*VarInfo, len(c.bindings))
	for k, v := range c.bindings {
		cp[k] = v
	}
	return &variableContext{currentFuncID: c.currentFuncID, bindings: cp}
}

// tagVariables is Walk B: resolves every Name/Assignment to the VarInfo of
// its dominating Binding, flags unbound references, read-only assignment,
// and mutable-closure-variable capture.
func tagVariables(state *CompilerState, top *Scope) {
	tagVarScope(state, top, newVariableContext(mainFuncID))
}

func (c *variableContext) reference(state *CompilerState, name string, sp SourceSpan) *VarInfo {
	info, ok := c.bindings[name]
	if !ok {
		state.Err(unboundVarError(name, sp))
		return nil
	}
	if c.currentFuncID != info.OriginFunctionID && info.Mutable {
		state.Err(mutableClosureVarError(name, sp))
	}
	return info
}

func tagVarScope(state *CompilerState, sc *Scope, ctx *variableContext) {
	if sc.Info == nil {
		panic("tagger: untagged scope")
	}
	inner := ctx.clone()
	for _, st := range sc.Statements {
		tagVarStatement(state, st, inner)
	}
}

func tagVarStatement(state *CompilerState, st Statement, ctx *variableContext) {
	switch n := st.(type) {
	case *Binding:
		tagVarExpr(state, n.InitVal, ctx)
		info := newVarInfo(ctx.currentFuncID, n.Mutable)
		n.Info = info
		ctx.bindings[n.Name] = info
	case *Assignment:
		tagVarExpr(state, n.Src, ctx)
		info := ctx.reference(state, n.Name, n.TargetSpan)
		if info == nil {
			return
		}
		n.Info = info
		if !info.Mutable {
			state.Err(immutableVarError(n.Name, n.TargetSpan))
		}
	case *EvalExpr:
		tagVarExpr(state, n.Expr, ctx)
	case *NoOp:
	case *NewScopeStmt:
		tagVarScope(state, n.Body, ctx)
	case *IfStmt:
		tagVarExpr(state, n.Test, ctx)
		tagVarScope(state, n.Body, ctx)
		if n.OrElse != nil {
			tagVarScope(state, n.OrElse, ctx)
		}
	case *While:
		tagVarExpr(state, n.Test, ctx)
		tagVarScope(state, n.Body, ctx)
	default:
		panic("tagger: unhandled statement type")
	}
}

func tagVarExpr(state *CompilerState, ex Expression, ctx *variableContext) {
	switch n := ex.(type) {
	case *Name:
		if info := ctx.reference(state, n.Name, n.Sp); info != nil {
			n.Info = info
		}
	case *Integer, *Boolean, *StringLiteral, *TypeLiteral, *Unit, *ImmConstLiteral:
		// leaves
	case *GetType:
		tagVarExpr(state, n.Ex, ctx)
	case *Prim1:
		tagVarExpr(state, n.Ex1, ctx)
	case *Prim2:
		tagVarExpr(state, n.Left, ctx)
		tagVarExpr(state, n.Right, ctx)
	case *Print:
		for _, a := range n.Args {
			tagVarExpr(state, a, ctx)
		}
	case *Input:
		for _, a := range n.Args {
			tagVarExpr(state, a, ctx)
		}
	case *RuntimeCall:
		for _, a := range n.Args {
			tagVarExpr(state, a, ctx)
		}
	case *ExprScope:
		tagVarScope(state, n.Scope, ctx)
	case *IfExpr:
		tagVarExpr(state, n.Test, ctx)
		tagVarExpr(state, n.Body, ctx)
		tagVarExpr(state, n.OrElse, ctx)
	default:
		panic("tagger: unhandled expression type")
	}
}
