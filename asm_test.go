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

func TestOperandRendering(t *testing.T) {
	cases := []struct {
		op   Operand
		want string
	}{
		{RAX, "rax"},
		{Const(-42), "-42"},
		{Symbol{Name: "compy_main"}, "compy_main"},
		{MemRegOffset{Reg: RBP, Offset: -16, Size: SizeQword}, "qword [rbp - 16]"},
		{MemRegOffset{Reg: RBP, Offset: 8, Size: SizeQword}, "qword [rbp + 8]"},
		{MemRegOffset{Reg: RBP, Offset: 0, Size: SizeQword}, "qword [rbp]"},
		{MemRegOffset{Reg: RSP, Offset: -8}, "qword [rsp - 8]"}, // size defaults to qword
		{RipRef{Sym: "_compy_str_1"}, "[rel _compy_str_1]"},
		{MemRip{Sym: "_compy_const_2", Offset: 8}, "qword [rel _compy_const_2 + 8]"},
	}
	for _, c := range cases {
		if got := c.op.Assemble(); got != c.want {
			t.Errorf("Assemble() = %q, want %q", got, c.want)
		}
	}
}

func TestLineRendering(t *testing.T) {
	cases := []struct {
		line AsmLine
		want string
	}{
		{Label("compy_main"), "compy_main:"},
		{mov(RAX, Const(0)), "\tmov rax, 0"},
		{retIns(), "\tret"},
		{callIns(Symbol{Name: "add"}), "\tcall add"},
		{globalDirective("compy_main"), "global compy_main"},
		{externDirective("extract_bool"), "extern extract_bool"},
		{dq(Const(42)), "\tdq 42"},
		{dbBytes([]Operand{Const(104), Const(105), Const(0)}), "\tdb 104, 105, 0"},
	}
	for _, c := range cases {
		if got := c.line.Assemble(); got != c.want {
			t.Errorf("Assemble() = %q, want %q", got, c.want)
		}
	}
}

func TestOpStackAddressesValueAndTypeSlots(t *testing.T) {
	val := opStack(-16, 0)
	ty := opStack(-16, 8)
	if val.Assemble() != "qword [rbp - 16]" {
		t.Errorf("value slot = %q, want qword [rbp - 16]", val.Assemble())
	}
	if ty.Assemble() != "qword [rbp - 8]" {
		t.Errorf("type slot = %q, want qword [rbp - 8]", ty.Assemble())
	}
}
