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
	"strings"
	"testing"
)

// compileSource drives source through the whole front half of the
// pipeline and returns the rendered assembly, one string per emitted
// line -- everything Run does short of writing the file and shelling
// out to nasm/gcc.
func compileSource(t *testing.T, src string) []string {
	t.Helper()
	top, perr := Parse(src)
	if perr != nil {
		t.Fatalf("Parse(%q) raised an error: %v", src, perr)
	}
	state := NewCompilerState()
	Check(state, top)
	funcs := Tag(state, top)
	if len(state.Errors) != 0 {
		t.Fatalf("expected no diagnostics, got %v", state.Errors)
	}
	ANF(state, funcs)
	TagStrings(state, top)
	AllocateStack(funcs)
	lines := CompileProgram(state, funcs)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Assemble()
	}
	return out
}

// mustIndex returns the index of the first line equal to want, failing
// the test when it is absent.
func mustIndex(t *testing.T, lines []string, want string) int {
	t.Helper()
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	t.Fatalf("expected emitted assembly to contain %q\nfull listing:\n%s", want, strings.Join(lines, "\n"))
	return -1
}

func TestCodegenPrologueAndEpilogue(t *testing.T) {
	lines := compileSource(t, "print(42)\n")
	entry := mustIndex(t, lines, "compy_main:")
	push := mustIndex(t, lines, "\tpush rbp")
	setup := mustIndex(t, lines, "\tmov rbp, rsp")
	reserve := mustIndex(t, lines, "\tsub rsp, 0")
	ret := mustIndex(t, lines, "\tret")
	pop := mustIndex(t, lines, "\tpop rbp")
	if !(entry < push && push < setup && setup < reserve) {
		t.Errorf("prologue lines out of order: label=%d push=%d mov=%d sub=%d", entry, push, setup, reserve)
	}
	if !(pop < ret) {
		t.Errorf("epilogue should pop rbp before ret: pop=%d ret=%d", pop, ret)
	}
	// The implicit return value is None, loaded just before the epilogue.
	none := mustIndex(t, lines, "\tmov rdx, 1")
	if !(none < pop) {
		t.Errorf("load_none should precede the epilogue: none=%d pop=%d", none, pop)
	}
}

func TestCodegenProgramPrologueDirectives(t *testing.T) {
	lines := compileSource(t, "print(1)\n")
	if lines[0] != "global compy_main" {
		t.Errorf("first line = %q, want the global directive", lines[0])
	}
	for _, sym := range []string{
		"negate", "boolean_not", "add1", "sub1",
		"add", "sub", "mul", "div", "mod",
		"is_identical", "is_eq", "is_lt", "is_gt", "is_le", "is_ge",
		"extract_bool", "print_variadic", "eval_input",
		"compy_time_int", "compy_sleep", "compy_exit",
	} {
		mustIndex(t, lines, "extern "+sym)
	}
	rodata := mustIndex(t, lines, "section .rodata")
	text := mustIndex(t, lines, "section .text")
	if !(rodata < text) {
		t.Errorf("rodata section should precede text: rodata=%d text=%d", rodata, text)
	}
}

func TestCodegenPooledConstantInRodata(t *testing.T) {
	lines := compileSource(t, "print(42)\n")
	label := mustIndex(t, lines, "_compy_const_1:")
	payload := mustIndex(t, lines, "\tdq 42")
	tyCode := mustIndex(t, lines, "\tdq 0")
	if !(label < payload && payload < tyCode) {
		t.Errorf("constant pool entry out of order: label=%d payload=%d type=%d", label, payload, tyCode)
	}
	mustIndex(t, lines, "\tlea rdx, [rel _compy_const_1]")
}

func TestCodegenPrintZeroesALBeforeVariadicCall(t *testing.T) {
	lines := compileSource(t, "print(42)\n")
	xor := mustIndex(t, lines, "\txor rax, rax")
	call := mustIndex(t, lines, "\tcall print_variadic")
	if call != xor+1 {
		t.Errorf("expected the AL zeroing to immediately precede the variadic call: xor=%d call=%d", xor, call)
	}
	// lineno then the argument count, in the first two argument registers.
	mustIndex(t, lines, "\tmov rdi, 1")
	mustIndex(t, lines, "\tmov rsi, 1")
}

func TestCodegenVariableTwoSlotAccess(t *testing.T) {
	lines := compileSource(t, "val(x := 1)\nprint(x)\n")
	// Binding: initializer lands in RVAL/RTYPE, then two stores.
	storeVal := mustIndex(t, lines, "\tmov qword [rbp - 16], rax")
	storeType := mustIndex(t, lines, "\tmov qword [rbp - 8], rdx")
	if storeType != storeVal+1 {
		t.Errorf("the two stores of a binding should be adjacent: val=%d type=%d", storeVal, storeType)
	}
	// The print argument is passed by address of the variable's slot.
	mustIndex(t, lines, "\tlea rdx, qword [rbp - 16]")
}

func TestCodegenPrim2CallsRuntimeByAddress(t *testing.T) {
	lines := compileSource(t, "val(x := 1)\nval(y := x + x)\n")
	mustIndex(t, lines, "\tlea rsi, qword [rbp - 16]")
	mustIndex(t, lines, "\tlea rdx, qword [rbp - 16]")
	call := mustIndex(t, lines, "\tcall add")
	lineno := mustIndex(t, lines, "\tmov rdi, 2")
	if !(lineno < call) {
		t.Errorf("the lineno argument should be loaded before the call: lineno=%d call=%d", lineno, call)
	}
}

func TestCodegenGetTypeStaysInRegisters(t *testing.T) {
	lines := compileSource(t, "print(type(1))\n")
	shuffle := mustIndex(t, lines, "\tmov rax, rdx")
	retag := mustIndex(t, lines, "\tmov rdx, 2")
	if retag != shuffle+1 {
		t.Errorf("GetType should move the tag into RVAL then retag, adjacently: %d then %d", shuffle, retag)
	}
}

func TestCodegenStringLiteral(t *testing.T) {
	lines := compileSource(t, "print(\"hi\")\n")
	label := mustIndex(t, lines, "_compy_str_1:")
	bytes := mustIndex(t, lines, "\tdb 104, 105, 0")
	if bytes != label+1 {
		t.Errorf("string data should immediately follow its label: label=%d db=%d", label, bytes)
	}
	lea := mustIndex(t, lines, "\tlea rax, [rel _compy_str_1]")
	tag := mustIndex(t, lines, "\tmov rdx, 4")
	if tag != lea+1 {
		t.Errorf("the string tag should follow the payload load: lea=%d tag=%d", lea, tag)
	}
}

func TestCodegenIfStmtShape(t *testing.T) {
	lines := compileSource(t, "if True:\n    pass\nelse:\n    pass\n")
	extract := mustIndex(t, lines, "\tcall extract_bool")
	cmp := mustIndex(t, lines, "\tcmp rax, 0")
	je := mustIndex(t, lines, "\tje .Lif_else1")
	jmp := mustIndex(t, lines, "\tjmp .Lif_end2")
	elseLabel := mustIndex(t, lines, ".Lif_else1:")
	endLabel := mustIndex(t, lines, ".Lif_end2:")
	if !(extract < cmp && cmp < je && je < jmp && jmp < elseLabel && elseLabel < endLabel) {
		t.Errorf("if-statement control flow out of order: extract=%d cmp=%d je=%d jmp=%d else=%d end=%d",
			extract, cmp, je, jmp, elseLabel, endLabel)
	}
}

func TestCodegenWhileBottomTestLoop(t *testing.T) {
	lines := compileSource(t, "var(x := 5)\nwhile x > 0:\n    x = x - 1\n")
	jmpCond := mustIndex(t, lines, "\tjmp .Lwhile_cond1")
	bodyLabel := mustIndex(t, lines, ".Lwhile_body2:")
	condLabel := mustIndex(t, lines, ".Lwhile_cond1:")
	test := mustIndex(t, lines, "\tcall is_gt")
	jne := mustIndex(t, lines, "\tjne .Lwhile_body2")
	if !(jmpCond < bodyLabel && bodyLabel < condLabel && condLabel < test && test < jne) {
		t.Errorf("while loop shape out of order: jmp=%d body=%d cond=%d test=%d jne=%d",
			jmpCond, bodyLabel, condLabel, test, jne)
	}
	// The body's subtraction sits between the body label and the condition.
	sub := mustIndex(t, lines, "\tcall sub")
	if !(bodyLabel < sub && sub < condLabel) {
		t.Errorf("loop body should sit between the body and condition labels: body=%d sub=%d cond=%d",
			bodyLabel, sub, condLabel)
	}
}

func TestCodegenExtractBoolPassesValueAndType(t *testing.T) {
	lines := compileSource(t, "if True:\n    pass\n")
	moveVal := mustIndex(t, lines, "\tmov rsi, rax")
	call := mustIndex(t, lines, "\tcall extract_bool")
	if !(moveVal < call) {
		t.Errorf("the value should move into arg1 before the call: mov=%d call=%d", moveVal, call)
	}
}

func TestCodegenOverflowArgumentsSpillAligned(t *testing.T) {
	// print with five arguments needs seven call arguments in total
	// (lineno, count, five addresses): one spills past the six registers,
	// so the call site pads the stack by 8 to stay 16-byte aligned and
	// releases 16 afterwards.
	lines := compileSource(t, "print(1, 2, 3, 4, 5)\n")
	pad := mustIndex(t, lines, "\tsub rsp, 8")
	push := mustIndex(t, lines, "\tpush rax")
	call := mustIndex(t, lines, "\tcall print_variadic")
	release := mustIndex(t, lines, "\tadd rsp, 16")
	if !(pad < push && push < call && call < release) {
		t.Errorf("spill sequence out of order: pad=%d push=%d call=%d release=%d", pad, push, call, release)
	}
}

func TestCodegenInputWithoutPromptPassesNull(t *testing.T) {
	lines := compileSource(t, "val(x := input())\n")
	null := mustIndex(t, lines, "\tmov rsi, 0")
	call := mustIndex(t, lines, "\tcall eval_input")
	if !(null < call) {
		t.Errorf("the null prompt should load before the call: mov=%d call=%d", null, call)
	}
}

func TestCodegenRuntimeCallUsesMangledSymbol(t *testing.T) {
	lines := compileSource(t, "sleep(1)\n")
	mustIndex(t, lines, "\tcall compy_sleep")
	mustIndex(t, lines, "\tlea rsi, [rel _compy_const_1]")
}
