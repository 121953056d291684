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

import "testing"

func runTagger(t *testing.T, src string) (*CompilerState, *Scope) {
	t.Helper()
	top, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) raised an error: %v", src, err)
	}
	state := NewCompilerState()
	Tag(state, top)
	return state, top
}

func TestTaggerUnboundVariable(t *testing.T) {
	state, _ := runTagger(t, "print(x)\n")
	if len(state.Errors) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(state.Errors), state.Errors)
	}
}

func TestTaggerResolvesDeclaredBinding(t *testing.T) {
	state, top := runTagger(t, "val(x := 1)\nprint(x)\n")
	if len(state.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", state.Errors)
	}
	binding := top.Statements[0].(*Binding)
	pr := top.Statements[1].(*EvalExpr).Expr.(*Print)
	name := pr.Args[0].(*Name)
	if name.Info != binding.Info {
		t.Errorf("Name.Info should be the same VarInfo pointer as the Binding it resolves to")
	}
}

func TestTaggerAssignmentToImmutableIsError(t *testing.T) {
	state, _ := runTagger(t, "val(x := 1)\nx = 2\n")
	if len(state.Errors) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(state.Errors), state.Errors)
	}
}

func TestTaggerAssignmentToMutableIsFine(t *testing.T) {
	state, _ := runTagger(t, "var(x := 1)\nx = 2\n")
	if len(state.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", state.Errors)
	}
}

func TestTaggerAssignmentToUnboundIsUnbound(t *testing.T) {
	state, _ := runTagger(t, "x = 2\n")
	if len(state.Errors) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(state.Errors), state.Errors)
	}
}

func TestTaggerShadowingIsScopeLocal(t *testing.T) {
	// The inner 'x' shadows the outer one only within the with-block;
	// after the block, the outer (still immutable) binding governs.
	state, _ := runTagger(t, "val(x := 1)\nwith _:\n    var(x := 2)\n    x = 3\nprint(x)\n")
	if len(state.Errors) != 0 {
		t.Fatalf("expected no diagnostics (inner mutable shadow), got %v", state.Errors)
	}
}

func TestTaggerBindingVisibleToLaterSiblingsOnly(t *testing.T) {
	// Using a binding before its declaration in the same scope is unbound,
	// even though it is declared later in that same scope.
	state, _ := runTagger(t, "print(x)\nval(x := 1)\n")
	if len(state.Errors) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(state.Errors), state.Errors)
	}
}

func TestTaggerFunctionDiscoveryProducesSingleMain(t *testing.T) {
	top, err := Parse("print(1)\n")
	if err != nil {
		t.Fatalf("Parse raised an error: %v", err)
	}
	state := NewCompilerState()
	funcs := Tag(state, top)
	if len(funcs) != 1 {
		t.Fatalf("expected exactly one CompiledFunction, got %d", len(funcs))
	}
	if funcs[0].Symbol != MAIN {
		t.Errorf("symbol = %q, want %q", funcs[0].Symbol, MAIN)
	}
	if top.Info == nil {
		t.Fatalf("expected the top-level Scope to be tagged with ScopeInformation")
	}
	if len(top.Info.Funcs) != 0 {
		t.Errorf("expected an empty function list in this revision, got %v", top.Info.Funcs)
	}
}
