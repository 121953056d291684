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

import (
	"fmt"
	"os"
)

// Run drives the full compiler pipeline for one source file: parse,
// check, tag, flush diagnostics, lower to ANF, allocate the stack
// frame, generate code, then assemble and link.
func Run(info *CompilerInfo) error {
	srcBytes, err := os.ReadFile(info.SrcPath)
	if err != nil {
		return &UserError{Msg: fmt.Sprintf("cannot read %s: %s", info.SrcPath, err)}
	}
	code := string(srcBytes)

	top, perr := Parse(code)
	if perr != nil {
		reportError(info, code, perr)
		return perr
	}
	if info.Debug.Pipeline {
		fmt.Fprintln(os.Stderr, "**** bare AST ****")
		fmt.Fprintf(os.Stderr, "%#v\n", top)
	}

	state := NewCompilerState()
	Check(state, top)
	funcs := Tag(state, top)
	if info.Debug.Pipeline {
		fmt.Fprintln(os.Stderr, "**** tagged AST ****")
		fmt.Fprintf(os.Stderr, "%#v\n", top)
	}

	if len(state.Errors) > 0 {
		for _, e := range state.Errors {
			reportError(info, code, e)
		}
		return state.Errors[0]
	}

	// Every stage from here on is assumed infallible: ANF, the stack
	// allocator, and codegen only ever fail via programmer-error panics.
	ANF(state, funcs)
	TagStrings(state, top)
	if info.Debug.Pipeline {
		fmt.Fprintln(os.Stderr, "**** post-ANF AST ****")
		fmt.Fprintf(os.Stderr, "%#v\n", funcs)
	}

	AllocateStack(funcs)
	if info.Debug.Pipeline {
		fmt.Fprintln(os.Stderr, "**** post-stack-allocation ****")
		fmt.Fprintf(os.Stderr, "%#v\n", funcs)
	}

	lines := CompileProgram(state, funcs)
	if err := Assemble(info, lines); err != nil {
		return err
	}

	if info.Run {
		return RunExecutable(info.OutPath)
	}
	return nil
}
