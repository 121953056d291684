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
	"strings"
)

// MAIN is the reserved symbol name of the single compiled function.
const MAIN = "compy_main"

// UserError is an operational error: bad CLI usage, a missing source file,
// or an assembler/linker failure. It is distinct from CompileError, which
// carries a source span and is batched through CompilerState.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

// CompileError is a user-facing diagnostic anchored to a SourceSpan.
// Parser errors are raised immediately; Checker and Tagger errors are
// accumulated in a CompilerState and flushed together before ANF.
type CompileError struct {
	Msg  string
	Span SourceSpan
}

func (e *CompileError) Error() string { return "Aborted due to compile error" }

func newCompileError(msg string, sp SourceSpan) *CompileError {
	return &CompileError{Msg: msg, Span: sp}
}

func unboundVarError(name string, sp SourceSpan) *CompileError {
	return newCompileError(fmt.Sprintf("Unbound variable '%s'", name), sp)
}

func immutableVarError(name string, sp SourceSpan) *CompileError {
	return newCompileError(fmt.Sprintf("Assignment to read-only variable (val) '%s'", name), sp)
}

func mutableClosureVarError(name string, sp SourceSpan) *CompileError {
	return newCompileError(fmt.Sprintf("Variable defined outside closure must be immutable (val): '%s' is mutable", name), sp)
}

func integerOOBError(sp SourceSpan) *CompileError {
	return newCompileError("Integer literal out of range of a signed 64-bit integer", sp)
}

func funcArgsError(msg string, sp SourceSpan) *CompileError {
	return newCompileError(msg, sp)
}

// CompilerState is the shared, mutable object a single compilation owns:
// the accumulated diagnostic list plus the constant and string pools that
// ANF populates and codegen later consumes.
type CompilerState struct {
	Errors     []*CompileError
	ConstPool  *ConstPool
	StringPool *StringPool
}

func NewCompilerState() *CompilerState {
	return &CompilerState{
		ConstPool:  NewConstPool(),
		StringPool: NewStringPool(),
	}
}

func (s *CompilerState) Err(e *CompileError) {
	s.Errors = append(s.Errors, e)
}

// CompilerInfo bundles the information one compilation run needs about its
// source and destination paths, plus debug toggles threaded down to the
// assembler driver.
type CompilerInfo struct {
	SrcPath   string
	SrcPrefix string
	OutPath   string
	Debug     DebugFlags
	Run       bool
}

// DebugFlags mirrors the CLI's debug flag surface.
type DebugFlags struct {
	Pipeline bool
	Asm      bool
	Obj      bool
}

// reportError prints a compile error as the offending source line
// followed by a caret underline spanning the error's columns.
func reportError(info *CompilerInfo, code string, ce *CompileError) {
	lines := strings.Split(code, "\n")
	sp := ce.Span
	fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", info.SrcPath, sp.Lineno, sp.ColOffset+1, ce.Msg)
	endLineno := sp.Lineno
	if sp.EndLineno != nil {
		endLineno = *sp.EndLineno
	}
	if sp.Lineno == endLineno && sp.Lineno-1 >= 0 && sp.Lineno-1 < len(lines) {
		line := lines[sp.Lineno-1]
		fmt.Fprintln(os.Stderr, line)
		end := len(line)
		if sp.EndColOffset != nil {
			end = *sp.EndColOffset
		}
		if end < sp.ColOffset {
			end = sp.ColOffset
		}
		fmt.Fprintln(os.Stderr, strings.Repeat(" ", sp.ColOffset)+strings.Repeat("^", end-sp.ColOffset))
	} else {
		fmt.Fprintln(os.Stderr, "<Multiline error>")
	}
}
