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

// Package directive expands the cross-block directives that collect
// data from every block the pipeline was asked to process and emit a
// single combined fragment: condition types, tag-name unions, fill/
// match-count maxima, and the fill-resume dispatch table.
package directive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/opts"
)

// Expander expands cross-block directives into codetree fragments.
type Expander struct {
	Arena *arena.Arena
	Opts  *opts.Options
}

// New returns an Expander.
func New(a *arena.Arena, o *opts.Options) *Expander {
	return &Expander{Arena: a, Opts: o}
}

// Condition is one start-condition name/value pair as a block declares
// it, before any cross-block prefix qualification.
type Condition struct {
	Name  string
	Value int
}

// BlockConditions is one referenced block's condition set, together
// with the prefix types:re2c should qualify its names with.
type BlockConditions struct {
	Prefix     string
	Conditions []Condition
}

// ExpandTypes implements types:re2c: dedupe conditions (prefix-
// qualified) across blocks, erroring if two blocks define the same
// qualified name with different values, then emit either a formatted
// text block or an enum declaration (numeric values only outside
// GOTO_LABEL, where conditions have no numeric identity).
func (e *Expander) ExpandTypes(blocks []BlockConditions, format, separator string) (codetree.Node, error) {
	seen := map[string]int{}
	var order []string
	for _, b := range blocks {
		for _, c := range b.Conditions {
			name := b.Prefix + c.Name
			if v, ok := seen[name]; ok {
				if v != c.Value {
					return nil, errors.Errorf("condition %q declared with conflicting values %d and %d across blocks", name, v, c.Value)
				}
				continue
			}
			seen[name] = c.Value
			order = append(order, name)
		}
	}

	if e.Opts.CodeModel != opts.CodeModelGotoLabel {
		enum := codetree.NewEnum(e.Arena, e.Opts.Primitives.CondType)
		for _, name := range order {
			enum.Add(e.Opts.Primitives.CondEnumPfx+name, strconv.Itoa(seen[name]), true)
		}
		return enum, nil
	}

	parts := make([]string, len(order))
	for i, name := range order {
		parts[i] = fmt.Sprintf(format, name)
	}
	return codetree.NewRaw(e.Arena, strings.Join(parts, separator), true), nil
}

// ExpandTagNames implements stags:re2c / mtags:re2c: union the tag-name
// sets contributed by every referenced block, in first-seen order, and
// format them with the caller-supplied format/separator. A trailing
// newline is appended when line directives are enabled, since the
// fragment is expected to sit on its own source line either way.
func (e *Expander) ExpandTagNames(perBlock [][]string, format, separator string) codetree.Node {
	seen := map[string]bool{}
	var order []string
	for _, names := range perBlock {
		for _, n := range names {
			if seen[n] {
				continue
			}
			seen[n] = true
			order = append(order, n)
		}
	}
	parts := make([]string, len(order))
	for i, n := range order {
		parts[i] = fmt.Sprintf(format, n)
	}
	text := strings.Join(parts, separator)
	if e.Opts.LineDirs {
		text += "\n"
	}
	return codetree.NewRaw(e.Arena, text, true)
}

// ExpandMax implements maxfill:re2c / maxnmatch:re2c: the maximum across
// every referenced block's own maximum, emitted as a constant
// declaration or as caller-formatted text.
func (e *Expander) ExpandMax(perBlock []int, name string, asConst bool) codetree.Node {
	max := 0
	for _, v := range perBlock {
		if v > max {
			max = v
		}
	}
	if asConst {
		return codetree.NewVarDecl(e.Arena, name, "const int", strconv.Itoa(max))
	}
	return codetree.NewRaw(e.Arena, fmt.Sprintf("%s = %d", name, max), false)
}

// GetStateEntry is one fill-resumable state contributed by a block to
// getstate:re2c's dispatch table.
type GetStateEntry struct {
	Label *dfa.Label
}

// ExpandGetState implements getstate:re2c: a switch on the state
// variable mapping each contributing state's slot to its fill-resume
// label, with -1 mapped to the start of the first contributing block,
// and either an abort or a fall-through default.
func (e *Expander) ExpandGetState(entries []GetStateEntry, firstBlockStart *dfa.Label, abortLabel *dfa.Label) codetree.Node {
	sw := codetree.NewSwitch(e.Arena, e.Opts.Vars.State)
	for i, ent := range entries {
		if ent.Label == nil {
			continue
		}
		sw.AddCase(codetree.NewGoto(e.Arena, ent.Label), strconv.Itoa(i))
	}
	if firstBlockStart != nil {
		sw.AddCase(codetree.NewGoto(e.Arena, firstBlockStart), "-1")
	}
	if e.Opts.StateAbort && abortLabel != nil {
		sw.Default = codetree.NewGoto(e.Arena, abortLabel)
	}
	return sw
}
