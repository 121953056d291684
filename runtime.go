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

// runtimeFunc describes one fixed-arity built-in exposed by the native
// runtime library.
type runtimeFunc struct {
	Symbol string
	Arity  int
}

// fixedArityFuncs maps a source-level built-in name to its mangled runtime
// symbol and declared arity. The Checker compares a RuntimeCall's argument
// count against this table; codegen calls the symbol directly.
var fixedArityFuncs = map[string]runtimeFunc{
	"time_int": {Symbol: "compy_time_int", Arity: 0},
	"sleep":    {Symbol: "compy_sleep", Arity: 1},
	"exit":     {Symbol: "compy_exit", Arity: 1},
}

func isRuntimeCallName(name string) bool {
	_, ok := fixedArityFuncs[name]
	return ok
}

// Extern symbols the generated assembly must declare, beyond the
// per-operator symbols derived from UnaryOp/BinaryOp.Symbol().
const (
	externExtractBool   = "extract_bool"
	externPrintVariadic  = "print_variadic"
	externEvalInput      = "eval_input"
)
