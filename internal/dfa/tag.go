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

// TagVerZero terminates a history array.
const TagVerZero = 0

// TagVerBottom denotes a negative history element: the tag did not match
// on that iteration of the loop that produced the history.
const TagVerBottom = -1

// Rightmost is the sentinel base-tag index meaning "based on the cursor",
// as opposed to being based on another, earlier tag.
const Rightmost = -1

// TagKind discriminates the three kinds of tag describes.
type TagKind int

const (
	// TagFictive tags are structural bookkeeping only; they never
	// surface as a capture and are never assigned a fintag.
	TagFictive TagKind = iota
	// TagNamed tags come from a named capture group.
	TagNamed
	// TagCapture tags come from a numbered (parenthesized) capture group.
	TagCapture
)

// Tag carries everything the tag-action and fin-tag emitters need to know
// about one tag-version-tracked position.
type Tag struct {
	Kind TagKind

	// Trailing is true for the tag marking the end of a trailing
	// context split (the tag whose position restores the cursor).
	Trailing bool

	// History is true for m-tags: tags whose value is a stack of
	// positions recorded along the match path rather than a single
	// position.
	History bool

	// Fixed is true when the tag's distance to some base is a
	// compile-time constant; a fixed tag's History must always be false.
	Fixed bool

	// Dist is the fixed distance from Base, meaningful only if Fixed.
	Dist int

	// Base is the tag index this tag's position is expressed relative
	// to, or Rightmost if it is based directly on the cursor.
	Base int

	// Toplevel is true when the tag belongs to the outermost
	// alternative of the rule rather than to a nested sub-expression.
	Toplevel bool

	// LSub, HSub give the submatch index range [LSub, HSub) this tag
	// contributes fintags to.
	LSub, HSub int

	// Name is the tag's display name, used by named-capture fintags
	// and by stags:re2c / mtags:re2c.
	Name string
}

// IsFictive reports whether the tag is purely structural.
func (t *Tag) IsFictive() bool { return t.Kind == TagFictive }
