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

import "github.com/relexgen/relexgen/internal/arena"

// List is an ordered sequence of statements emitted one after another.
// Nearly every emitter builds a List and appends to it as it goes.
type List struct {
	Base
	Stmts []Node
}

// NewList returns an empty List.
func NewList(a *arena.Arena) *List {
	return &List{Base: newBase(a)}
}

// Append adds nodes to the list in order, skipping nils so callers can
// conditionally build a node and append it unconditionally.
func (l *List) Append(nodes ...Node) *List {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		l.Stmts = append(l.Stmts, n)
	}
	return l
}

// Raw is a pre-resolved text fragment: the output of the API templater
// resolving a primitive, or any other piece of target-language text this
// repository's components decided not to model more finely.
// Naked records the "naked flag" of the API primitive the text came from.
// Text is carried verbatim: any statement separator is already part of
// it, and none is added or removed on account of Naked.
type Raw struct {
	Base
	Text  string
	Naked bool
}

// NewRaw wraps text as a Raw node.
func NewRaw(a *arena.Arena, text string, naked bool) *Raw {
	return &Raw{Base: newBase(a), Text: text, Naked: naked}
}

// Assign is a single assignment statement, lhs = rhs (or lhs := rhs when
// Declare is true).
type Assign struct {
	Base
	Lhs     string
	Rhs     string
	Declare bool
}

// NewAssign returns an Assign node.
func NewAssign(a *arena.Arena, lhs, rhs string, declare bool) *Assign {
	return &Assign{Base: newBase(a), Lhs: lhs, Rhs: rhs, Declare: declare}
}

// VarDecl declares a local variable, optionally with an initializer.
type VarDecl struct {
	Base
	Name string
	Type string
	Init string
}

// NewVarDecl returns a VarDecl node. Init may be empty for a
// zero-initialized declaration.
func NewVarDecl(a *arena.Arena, name, typ, init string) *VarDecl {
	return &VarDecl{Base: newBase(a), Name: name, Type: typ, Init: init}
}

// Comment carries a single-line comment through the tree. Used sparingly,
// only where a later reader would otherwise have to reconstruct why a
// node is shaped the way it is.
type Comment struct {
	Base
	Text string
}

// NewComment returns a Comment node.
func NewComment(a *arena.Arena, text string) *Comment {
	return &Comment{Base: newBase(a), Text: text}
}
