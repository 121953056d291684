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

// Reserved call-style keywords.
// These lex as plain identifiers but the parser special-cases them when
// immediately followed by '(': using one bare (as a Name reference, or as
// a `name := expr` / `name = expr` assignment target) is a compile error.
const (
	kwVal   = "val"
	kwVar   = "var"
	kwPrint = "print"
	kwInput = "input"
	kwAdd1  = "add1"
	kwSub1  = "sub1"
	kwUnder = "_"
	kwType  = "type"
	kwLet   = "let"
)

// primTypeNames maps a reserved type-name identifier to its PrimType.
var primTypeNames = map[string]PrimType{
	"int":      PrimInt,
	"NoneType": PrimNone,
	"type":     PrimType_,
	"bool":     PrimBool,
	"str":      PrimString,
}

// allKeywords is the full reserved-identifier set: using any of these as a
// bare variable reference or binding target is rejected by the parser.
var allKeywords = buildAllKeywords()

func buildAllKeywords() map[string]struct{} {
	set := map[string]struct{}{
		kwVal: {}, kwVar: {}, kwPrint: {}, kwInput: {}, kwAdd1: {}, kwSub1: {},
		kwUnder: {}, kwType: {}, kwLet: {},
	}
	for name := range primTypeNames {
		set[name] = struct{}{}
	}
	return set
}

func isKeyword(s string) bool {
	_, ok := allKeywords[s]
	return ok
}

func isTypeName(s string) bool {
	_, ok := primTypeNames[s]
	return ok
}
