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

package fillplan

import (
	"testing"

	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/opts"
	"github.com/relexgen/relexgen/internal/render"
	"github.com/stretchr/testify/require"
)

func newPlanner(o *opts.Options) *Planner {
	return New(arena.New(), api.New(o.APIStyle, o.Sigil), o.Primitives, o.Vars, o)
}

func TestNeedsFalseForEndState(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	accept := &dfa.State{Action: dfa.Action{Kind: dfa.ActionAccept}}
	s := &dfa.State{Fill: 3, Go: &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: accept}}}}}
	require.True(t, s.EndState())
	require.False(t, p.Needs(&dfa.DFA{}, s))
}

func TestNeedsTrueUnderEOFRuleRegardlessOfFillAmount(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	s := &dfa.State{Fill: 0, Go: &dfa.Go{}}
	require.True(t, p.Needs(&dfa.DFA{EOFRule: true}, s))
}

func TestNeedsFollowsFillEnableAndStateFillAmount(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	d := &dfa.DFA{}

	withFill := &dfa.State{Fill: 2, Go: &dfa.Go{}}
	require.True(t, p.Needs(d, withFill))

	noFill := &dfa.State{Fill: 0, Go: &dfa.Go{}}
	require.False(t, p.Needs(d, noFill))

	o.FillEnable = false
	require.False(t, p.Needs(d, withFill))
}

func TestNeedReturnsOneUnderEOFRuleElseStateFill(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	s := &dfa.State{Fill: 5}
	require.Equal(t, 1, p.Need(&dfa.DFA{EOFRule: true}, s))
	require.Equal(t, 5, p.Need(&dfa.DFA{}, s))
}

func TestPlanNotNeededReturnsZeroValue(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	accept := &dfa.State{Action: dfa.Action{Kind: dfa.ActionAccept}}
	s := &dfa.State{Go: &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: accept}}}}}
	plan, err := p.Plan(&dfa.DFA{}, s, nil, nil)
	require.NoError(t, err)
	require.False(t, plan.Needed)
}

func TestPlanOrdinaryFillWrapsResumeAfterFillCall(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	s := &dfa.State{Fill: 3, Go: &dfa.Go{}}
	resume := codetree.NewGoto(p.Arena, dfa.NewLabel("yy7"))

	plan, err := p.Plan(&dfa.DFA{}, s, resume, nil)
	require.NoError(t, err)
	require.True(t, plan.Needed)
	require.Equal(t, 3, plan.Need)
	require.False(t, plan.Branches)
	require.Nil(t, plan.StateSet)

	got := render.Block(&codetree.BlockProgram{Name: "t", Body: plan.FillNode})
	require.Equal(t, "// block t\nYYFILL(3);\ngoto yy7\n", got)
	require.Equal(t, "YYLIMIT - YYCURSOR < 3", plan.GuardCond)
}

func TestPlanEOFRuleWithoutStorableStateBranchesOnFillResult(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	s := &dfa.State{Go: &dfa.Go{}}
	resume := codetree.NewRaw(p.Arena, "goto resumed", true)
	fallback := codetree.NewRaw(p.Arena, "goto failed", true)

	plan, err := p.Plan(&dfa.DFA{EOFRule: true}, s, resume, fallback)
	require.NoError(t, err)
	require.True(t, plan.Branches)

	got := render.Block(&codetree.BlockProgram{Name: "t", Body: plan.FillNode})
	require.Equal(t, "// block t\nif YYFILL() == 0 {\n\tgoto resumed\n} else {\n\tgoto failed\n}\n", got)
}

func TestPlanStorableStateEmitsStateSetFromFillLabelIndex(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	o.StorableState = true

	fillLabel := dfa.NewLabel("yyfill3")
	fillLabel.Index = 3
	target := &dfa.State{Index: 9, FillLabel: fillLabel}
	s := &dfa.State{Fill: 2, Go: &dfa.Go{}, FillState: target}

	plan, err := p.Plan(&dfa.DFA{}, s, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, plan.StateSet)
	got := render.Block(&codetree.BlockProgram{Name: "t", Body: plan.StateSet})
	require.Equal(t, "// block t\nYYSETSTATE(3);\n", got)
}

func TestPlanStorableStateWithoutFillStateIsAnError(t *testing.T) {
	o := opts.Default()
	p := newPlanner(o)
	o.StorableState = true
	s := &dfa.State{Fill: 2, Go: &dfa.Go{}}

	_, err := p.Plan(&dfa.DFA{}, s, nil, nil)
	require.Error(t, err)
}

func TestPlanGuardUsesLessThanPrimitiveWhenConfigured(t *testing.T) {
	o := opts.Default()
	o.Primitives.LessThan = "YYLESSTHAN"
	p := newPlanner(o)
	s := &dfa.State{Fill: 4, Go: &dfa.Go{}}

	plan, err := p.Plan(&dfa.DFA{}, s, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "YYLESSTHAN(4)", plan.GuardCond)
}

func TestPlanSkipsGuardWhenFillCheckDisabled(t *testing.T) {
	o := opts.Default()
	o.FillCheck = false
	p := newPlanner(o)
	s := &dfa.State{Fill: 4, Go: &dfa.Go{}}

	plan, err := p.Plan(&dfa.DFA{}, s, nil, nil)
	require.NoError(t, err)
	require.Empty(t, plan.GuardCond)
}
