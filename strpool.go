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

// StringPool interns string literal contents into _compy_str_<n> data
// labels, deduplicating identical literals across the whole program.
type StringPool struct {
	index   map[string]string
	order   []string
	nextNum int
}

func NewStringPool() *StringPool {
	return &StringPool{index: map[string]string{}}
}

func (p *StringPool) genSymbol() string {
	p.nextNum++
	return "_compy_str_" + strconv.Itoa(p.nextNum)
}

// Process assigns sl.DataLabel, reusing the symbol of an earlier
// literal with identical content.
func (p *StringPool) Process(sl *StringLiteral) {
	sym, ok := p.index[sl.Content]
	if !ok {
		sym = p.genSymbol()
		p.index[sl.Content] = sym
		p.order = append(p.order, sl.Content)
	}
	sl.DataLabel = sym
}

// ToAsmLines renders each pooled string as a label followed by a
// NUL-terminated byte sequence. There is no separate length field: the
// runtime ABI treats Compy strings as NUL-terminated C strings.
func (p *StringPool) ToAsmLines() []AsmLine {
	var lines []AsmLine
	for _, content := range p.order {
		sym := p.index[content]
		lines = append(lines, Label(sym))
		bytes := make([]Operand, 0, len(content)+1)
		for i := 0; i < len(content); i++ {
			bytes = append(bytes, Const(int64(content[i])))
		}
		bytes = append(bytes, Const(0))
		lines = append(lines, dbBytes(bytes))
	}
	return lines
}
