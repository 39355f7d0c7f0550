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

// FuncCommon holds the parameter/argument/return-type strings shared by
// every function the REC_FUNC emission model generates for a block, so
// each per-state function definition does not have to re-derive them.
type FuncCommon struct {
	ReturnType string
	Params     []string
	Args       []string

	// PeekParams/PeekArgs are the variants that additionally thread the
	// peek value (yych) as a parameter, used when a callee needs the
	// caller's already-read character.
	PeekParams []string
	PeekArgs   []string
}

// Block groups one or more DFAs sharing a condition namespace. Blocks
// own the accumulators the directive expander later reduces across the
// whole run.
type Block struct {
	Name string

	DFAs []*DFA

	StartLabel *Label

	// FillGoto maps a save-slot to the label resumable fills should
	// jump back to; Accumulate fills it from each added state's
	// FillLabel, keyed by that label's Index.
	FillGoto map[int]*Label

	// SNames / MNames are the accumulated s-tag and m-tag display
	// names this block contributes to stags:re2c / mtags:re2c.
	SNames []string
	MNames []string

	// Conditions lists the start-condition names declared in this
	// block, in declaration order, feeding types:re2c.
	Conditions []string

	// ConditionValues maps a condition name to its numeric value, for
	// the collision check types:re2c performs across blocks.
	ConditionValues map[string]int

	MaxFill    int
	MaxNMatch  int
	FuncCommon FuncCommon
}

// NewBlock returns an empty block ready to accumulate state as its DFAs
// are processed.
func NewBlock(name string) *Block {
	return &Block{
		Name:            name,
		FillGoto:        map[int]*Label{},
		ConditionValues: map[string]int{},
	}
}

// Accumulate folds one DFA's contribution into the block: its condition
// (if any), its s-tag/m-tag names, its fill-resume labels, and the
// running maxima the directive expander later reduces across blocks.
// DFAs must be accumulated in the order they are assembled, since the
// first one accumulated becomes the block's StartLabel.
func (b *Block) Accumulate(d *DFA) {
	first := len(b.DFAs) == 0
	b.DFAs = append(b.DFAs, d)
	if first {
		if init := d.InitialState(); init != nil {
			b.StartLabel = init.Label
		}
	}

	if d.Cond != "" {
		b.Conditions = append(b.Conditions, d.Cond)
		b.ConditionValues[d.Cond] = d.CondValue
	}

	for i := range d.Tags {
		t := &d.Tags[i]
		if t.IsFictive() || t.Name == "" {
			continue
		}
		if t.History {
			b.MNames = appendUnique(b.MNames, t.Name)
		} else {
			b.SNames = appendUnique(b.SNames, t.Name)
		}
	}

	for _, s := range d.States {
		if s.Fill > b.MaxFill {
			b.MaxFill = s.Fill
		}
		if s.FillLabel != nil {
			b.FillGoto[s.FillLabel.Index] = s.FillLabel
		}
	}
	for _, r := range d.Rules {
		if r.NCap > b.MaxNMatch {
			b.MaxNMatch = r.NCap
		}
	}
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
