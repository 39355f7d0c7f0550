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

// Package codetree is the algebraic code-tree model: statements,
// expressions, declarations, and control-flow nodes built by every other
// component and consumed by a later, external render pass (see
// internal/render for the small test-only stand-in).
//
// Node is a closed sum type: a tagged variant realized as a sealed Go
// interface, not subtyping. Every concrete node embeds Base, which
// carries the node's arena identity (an int, not a pointer) so
// cross-references can be compared without caring which node kind is on
// the other end.
package codetree

import "github.com/relexgen/relexgen/internal/arena"

// Node is implemented by every code-tree node kind.
type Node interface {
	arenaID() int
}

// Base is embedded by every concrete node kind to satisfy Node and carry
// its arena-issued identity.
type Base struct {
	ID int
}

func (b Base) arenaID() int { return b.ID }

// newBase allocates a fresh Base from a, or a Base with ID -1 if a is nil (some
// call sites, mostly in tests, build nodes without a live arena).
func newBase(a *arena.Arena) Base {
	if a == nil {
		return Base{ID: -1}
	}
	return Base{ID: a.Alloc()}
}
