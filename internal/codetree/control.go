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

import (
	"golang.org/x/exp/slices"

	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/diag"
)

// LabelDecl marks the point a Goto (or a fallthrough dispatch) transfers
// control to. lbl.Used can still change after this node is built, which
// is why label numbering takes a second pass; internal/render's test
// renderer prints every LabelDecl whether or not its label is used.
type LabelDecl struct {
	Base
	Lbl *dfa.Label
}

// NewLabelDecl returns a LabelDecl node for lbl.
func NewLabelDecl(a *arena.Arena, lbl *dfa.Label) *LabelDecl {
	return &LabelDecl{Base: newBase(a), Lbl: lbl}
}

// Goto transfers control to lbl unconditionally. Constructing a Goto
// marks the label used.
type Goto struct {
	Base
	Lbl *dfa.Label
}

// NewGoto returns a Goto node and marks lbl used.
func NewGoto(a *arena.Arena, lbl *dfa.Label) *Goto {
	lbl.Use()
	return &Goto{Base: newBase(a), Lbl: lbl}
}

// TailCall is a REC_FUNC-model transfer: instead of a goto, control
// passes to another state's function via `return calleeFn(args...)`.
type TailCall struct {
	Base
	Func string
	Args []string
}

// NewTailCall returns a TailCall node.
func NewTailCall(a *arena.Arena, fn string, args []string) *TailCall {
	return &TailCall{Base: newBase(a), Func: fn, Args: args}
}

// If is a conditional. Else is nil for a bare `if cond { then }`.
type If struct {
	Base
	Cond string
	Then Node
	Else Node
}

// NewIf returns an If node.
func NewIf(a *arena.Arena, cond string, then, els Node) *If {
	return &If{Base: newBase(a), Cond: cond, Then: then, Else: els}
}

// CaseClause is one arm of a Switch: one or more matched values (or none,
// for the switch's own default arm handled separately via Switch.Default)
// and a body.
type CaseClause struct {
	Values []string
	Body   Node
}

// Switch dispatches on Discriminant across Cases, falling through to
// Default (which may be nil) when nothing matches.
type Switch struct {
	Base
	Discriminant string
	Cases        []CaseClause
	Default      Node
}

// NewSwitch returns an empty Switch over discriminant.
func NewSwitch(a *arena.Arena, discriminant string) *Switch {
	return &Switch{Base: newBase(a), Discriminant: discriminant}
}

// AddCase appends a case arm matching any of values. Every value must be
// unique across the switch's existing cases: a fused block that assembled
// two groups sharing a state index would otherwise render two case labels
// no Go switch accepts.
func (s *Switch) AddCase(body Node, values ...string) *Switch {
	for _, c := range s.Cases {
		for _, v := range values {
			diag.Assertf(!slices.Contains(c.Values, v), "duplicate case value %q in switch on %s", v, s.Discriminant)
		}
	}
	s.Cases = append(s.Cases, CaseClause{Values: values, Body: body})
	return s
}
