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

package dfa

// TCID0 denotes an empty tag-command list.
const TCID0 = 0

// TagCommandKind is the run-time classification of one command node.
type TagCommandKind int

const (
	TagCmdCopy TagCommandKind = iota
	TagCmdSave
	TagCmdSaveHistory
)

// TagCommand is one node of a singly-linked list drawn from the
// tag-command pool (tcpool). Real re2c-style pools intern these nodes;
// here each command is heap-allocated and linked via Next, which is
// enough to preserve the pool's only externally visible property: nodes
// are shared and read-only once built.
type TagCommand struct {
	Lhs int // left-hand tag-version
	Rhs int // right-hand tag-version

	// IsSave distinguishes a plain copy (Lhs = Rhs, false) from a save
	// without history (true, History empty). Save-with-history is
	// implied whenever History is non-empty regardless of IsSave.
	IsSave bool

	// Sign is the recorded value of a save-without-history command,
	// used only to select its tag-setter sign (TagVerBottom is
	// negative). Save-with-history commands carry their values in
	// History instead and ignore this field.
	Sign int

	// History holds one recorded position per loop iteration, most
	// recent last, terminated conceptually by TagVerZero. A save
	// command with a non-empty History is a save-with-history command.
	History []int

	Next *TagCommand
}

// Classify returns this command's kind.D.
func (c *TagCommand) Classify() TagCommandKind {
	switch {
	case len(c.History) > 0:
		return TagCmdSaveHistory
	case c.IsSave:
		return TagCmdSave
	default:
		return TagCmdCopy
	}
}

// ReverseHistory returns the command's history in emission order: most
// recently recorded first, i.e. the slice reversed. Forward iteration
// produces observably different captures on histories containing
// interleaved positive/negative tags, so every caller must go through
// this helper rather than ranging over History directly.
func (c *TagCommand) ReverseHistory() []int {
	n := len(c.History)
	out := make([]int, n)
	for i, v := range c.History {
		out[n-1-i] = v
	}
	return out
}
