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

// CompiledFunction is a unit of code generation: its own frame, symbol,
// and stack extent. Only one ever exists today -- the program body -- but
// the shape is kept general in anticipation of user-defined functions.
type CompiledFunction struct {
	Symbol     string
	Body       *Scope
	ID         int
	StackUsage int // set by the stack allocator
}

const mainFuncID = 1
