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
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/dfa"
)

// ArrayLit declares a named array with the given element type and
// literal elements, used for bitmaps, computed-goto tables (element type
// being a label address), and condition tables.
type ArrayLit struct {
	Base
	Name     string
	ElemType string
	Elems    []string

	// LabelElems, if non-nil, gives the label each element ultimately
	// refers to, parallel to Elems; only meaningful for computed-goto
	// tables, where every referenced label must be marked used.
	LabelElems []*dfa.Label
}

// NewArrayLit returns an ArrayLit node with elems already resolved to
// text. Any accompanying labels are marked used.
func NewArrayLit(a *arena.Arena, name, elemType string, elems []string, labels []*dfa.Label) *ArrayLit {
	for _, l := range labels {
		l.Use()
	}
	return &ArrayLit{Base: newBase(a), Name: name, ElemType: elemType, Elems: elems, LabelElems: labels}
}

// FuncDef declares a function, used by the REC_FUNC emission model (one
// per DFA state) and by the per-condition entry/dispatch functions.
type FuncDef struct {
	Base
	Name       string
	Params     []string
	ReturnType string
	Body       Node
}

// NewFuncDef returns a FuncDef node.
func NewFuncDef(a *arena.Arena, name string, params []string, returnType string, body Node) *FuncDef {
	return &FuncDef{Base: newBase(a), Name: name, Params: params, ReturnType: returnType, Body: body}
}

// EnumMember is one member of an Enum, with an optional explicit value
// (used only in loop/switch and rec/func modes).
type EnumMember struct {
	Name     string
	Value    string
	HasValue bool
}

// Enum declares the condition-number enum types:re2c can emit.
type Enum struct {
	Base
	Name    string
	Members []EnumMember
}

// NewEnum returns an empty Enum named name.
func NewEnum(a *arena.Arena, name string) *Enum {
	return &Enum{Base: newBase(a), Name: name}
}

// Add appends a member, with an explicit numeric value when hasValue.
func (e *Enum) Add(name, value string, hasValue bool) *Enum {
	e.Members = append(e.Members, EnumMember{Name: name, Value: value, HasValue: hasValue})
	return e
}

// DotEdge is a single labeled graph edge, used only when Options.Target
// is TargetDot.
type DotEdge struct {
	Base
	From  int
	To    int
	Label string
}

// NewDotEdge returns a DotEdge node.
func NewDotEdge(a *arena.Arena, from, to int, label string) *DotEdge {
	return &DotEdge{Base: newBase(a), From: from, To: to, Label: label}
}
