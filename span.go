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

import "fmt"

// SourceSpan locates a node in the original source. Only Lineno and
// ColOffset are load-bearing; the end fields are best-effort and may be
// absent for synthesized nodes.
type SourceSpan struct {
	Lineno       int
	EndLineno    *int
	ColOffset    int
	EndColOffset *int
}

func span(lineno, colOffset int) SourceSpan {
	return SourceSpan{Lineno: lineno, ColOffset: colOffset}
}

func spanRange(lineno, endLineno, colOffset, endColOffset int) SourceSpan {
	el, ec := endLineno, endColOffset
	return SourceSpan{Lineno: lineno, EndLineno: &el, ColOffset: colOffset, EndColOffset: &ec}
}

func (s SourceSpan) String() string {
	end := "?"
	if s.EndLineno != nil && s.EndColOffset != nil {
		end = fmt.Sprintf("%d:%d", *s.EndLineno, *s.EndColOffset)
	}
	return fmt.Sprintf("%d:%d-%s", s.Lineno, s.ColOffset, end)
}
