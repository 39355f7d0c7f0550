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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBlockStartsEmpty(t *testing.T) {
	b := NewBlock("scan")
	require.Equal(t, "scan", b.Name)
	require.Empty(t, b.DFAs)
	require.Empty(t, b.Conditions)
	require.NotNil(t, b.FillGoto)
	require.NotNil(t, b.ConditionValues)
}

func TestAccumulateSetsStartLabelFromFirstDFAOnly(t *testing.T) {
	init1 := &State{Index: 0, Label: NewLabel("yy0")}
	d1 := &DFA{Name: "a", States: []*State{init1}, Initial: 0}
	init2 := &State{Index: 0, Label: NewLabel("yy1")}
	d2 := &DFA{Name: "b", States: []*State{init2}, Initial: 0}

	b := NewBlock("scan")
	b.Accumulate(d1)
	b.Accumulate(d2)

	require.Same(t, init1.Label, b.StartLabel)
	require.Equal(t, []*DFA{d1, d2}, b.DFAs)
}

func TestAccumulateCollectsConditionsInOrder(t *testing.T) {
	d1 := &DFA{Name: "a", Cond: "INIT", CondValue: 0, States: []*State{{Index: 0}}}
	d2 := &DFA{Name: "b", Cond: "STRING", CondValue: 1, States: []*State{{Index: 0}}}

	b := NewBlock("scan")
	b.Accumulate(d1)
	b.Accumulate(d2)

	require.Equal(t, []string{"INIT", "STRING"}, b.Conditions)
	require.Equal(t, map[string]int{"INIT": 0, "STRING": 1}, b.ConditionValues)
}

func TestAccumulateSkipsConditionlessDFA(t *testing.T) {
	d := &DFA{Name: "a", States: []*State{{Index: 0}}}
	b := NewBlock("scan")
	b.Accumulate(d)
	require.Empty(t, b.Conditions)
	require.Empty(t, b.ConditionValues)
}

func TestAccumulateRoutesTagsBySTagVsMTagAndDedupes(t *testing.T) {
	d := &DFA{
		Name:   "a",
		States: []*State{{Index: 0}},
		Tags: []Tag{
			{Kind: TagNamed, Name: "s1"},
			{Kind: TagNamed, Name: "s1"},
			{Kind: TagNamed, Name: "m1", History: true},
			{Kind: TagFictive},
		},
	}
	b := NewBlock("scan")
	b.Accumulate(d)

	require.Equal(t, []string{"s1"}, b.SNames)
	require.Equal(t, []string{"m1"}, b.MNames)
}

func TestAccumulateTracksMaxFillAndMaxNMatchAcrossDFAs(t *testing.T) {
	d1 := &DFA{
		Name:   "a",
		States: []*State{{Index: 0, Fill: 2}},
		Rules:  []Rule{{NCap: 1}},
	}
	d2 := &DFA{
		Name:   "b",
		States: []*State{{Index: 0, Fill: 5}},
		Rules:  []Rule{{NCap: 3}},
	}
	b := NewBlock("scan")
	b.Accumulate(d1)
	b.Accumulate(d2)

	require.Equal(t, 5, b.MaxFill)
	require.Equal(t, 3, b.MaxNMatch)
}

func TestAccumulateCollectsFillGotoBySlot(t *testing.T) {
	fillA := NewLabel("yyfill0")
	fillB := NewLabel("yyfill1")
	fillA.Index = 0
	fillB.Index = 1
	d := &DFA{
		Name: "a",
		States: []*State{
			{Index: 0, FillLabel: fillA},
			{Index: 1, FillLabel: fillB},
			{Index: 2},
		},
	}
	b := NewBlock("scan")
	b.Accumulate(d)

	require.Equal(t, fillA, b.FillGoto[0])
	require.Equal(t, fillB, b.FillGoto[1])
	require.Len(t, b.FillGoto, 2)
}
