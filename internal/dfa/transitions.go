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

// GoKind selects how a state's outgoing transitions should be dispatched.
type GoKind int

const (
	GoDot GoKind = iota
	GoSwitchIf
	GoBitmap
	GoCpgoto
)

// CodeJump is one leaf transition: the destination state, the tag-command
// to run on the way there (unless hoisted onto the owning state), and the
// skip/elide/eof flags lists.
type CodeJump struct {
	To *State

	// Tags is TCID0 unless this specific jump carries its own
	// tag-command (as opposed to one hoisted onto the state).
	Tags int

	// Skip is true when crossing this edge consumes the peeked
	// character (advances the cursor past it).
	Skip bool

	// Elide is true when this jump is a fallback transition that may
	// be dropped because the physically following transition already
	// does the same thing.
	Elide bool

	// EOF is true when this jump must be routed through the fill
	// pipeline rather than emitted as a bare goto: the jump becomes the
	// code that runs once the fill at its destination succeeds.
	EOF bool
}

// Span is an interval of character values, inclusive, that all take the
// same CodeJump.
type Span struct {
	Lo, Hi rune
	Jump   CodeJump
}

// To is a convenience accessor mirroring the destination pointer directly
// on Span, since almost every caller only cares about the destination and
// not the whole embedded CodeJump.
func (s Span) To() *State { return s.Jump.To }

// Go is the outgoing-transitions group attached to a state.
type Go struct {
	Kind GoKind

	// Spans is always populated (even for GoBitmap/GoCpgoto, which
	// derive their tables from it) so a single representation drives
	// every transition emitter branch and the fallback-elision check.
	Spans []Span

	// HighByteBranch, when non-nil, records the transition for
	// characters above 0xFF, which the bitmap and computed-goto table
	// do not cover. The emitters use it only to guard a bitmap test
	// against such characters; no transfer to it is emitted.
	HighByteBranch *CodeJump

	// BitmapOffset is the starting byte offset this Go's states occupy
	// within the block-wide bitmap array, meaningful only for GoBitmap.
	BitmapOffset int
}
