// Copyright 2024 The relexgen Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codetree

// BlockProgram is the code tree produced for a single lexer block: its
// declarations (locals, bitmaps, tables) followed by its body (the state
// dispatch, in whichever emission model the block uses).
type BlockProgram struct {
	Name    string
	Decls   []Node
	Body    Node
	IsFuncs bool
}

// Program is the whole pipeline's output: one BlockProgram per block plus
// whatever the directive expander produced from cross-block accumulators.
// It is the type Generate (see the root package) returns.
type Program struct {
	Blocks     []BlockProgram
	Directives []Node
}
