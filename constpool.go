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

import "strconv"

// constRecord is the dedup key for the constant pool: a primitive type
// tag paired with its raw 64-bit payload.
type constRecord struct {
	ty  PrimType
	val int64
}

// ConstPool interns the (type, value) pairs produced when ANF hoists a
// constant literal into .rodata, handing back a stable
// _compy_const_<n> symbol. Entries are kept in insertion order so the
// emitted assembly is deterministic across runs.
type ConstPool struct {
	index   map[constRecord]string
	order   []constRecord
	nextNum int
}

func NewConstPool() *ConstPool {
	return &ConstPool{index: map[constRecord]string{}}
}

func (p *ConstPool) genSymbol() string {
	p.nextNum++
	return "_compy_const_" + strconv.Itoa(p.nextNum)
}

// Pool interns a constant literal and returns the ImmConstLiteral that
// should replace it in the tree. Calling Pool twice with an equal
// (type, value) pair returns the same symbol both times.
func (p *ConstPool) Pool(ty PrimType, val int64, sp SourceSpan) *ImmConstLiteral {
	rec := constRecord{ty: ty, val: val}
	sym, ok := p.index[rec]
	if !ok {
		sym = p.genSymbol()
		p.index[rec] = sym
		p.order = append(p.order, rec)
	}
	return &ImmConstLiteral{Sp: sp, Symbol: sym}
}

// ToAsmLines renders the pool into .rodata: each symbol is followed by
// its payload quad then its type-code quad.
func (p *ConstPool) ToAsmLines() []AsmLine {
	var lines []AsmLine
	for _, rec := range p.order {
		sym := p.index[rec]
		lines = append(lines, Label(sym))
		lines = append(lines, dq(Const(rec.val)))
		lines = append(lines, dq(Const(rec.ty.Code())))
	}
	return lines
}
