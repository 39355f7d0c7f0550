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

package action

import (
	"testing"

	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/fillplan"
	"github.com/relexgen/relexgen/internal/opts"
	"github.com/relexgen/relexgen/internal/render"
	"github.com/relexgen/relexgen/internal/tagcode"
	"github.com/stretchr/testify/require"
)

func newEmitter(o *opts.Options, multiAccept bool) *Emitter {
	a := arena.New()
	tmpl := api.New(o.APIStyle, o.Sigil)
	fill := fillplan.New(a, tmpl, o.Primitives, o.Vars, o)
	tag := tagcode.New(a, tmpl, o.Primitives, o.Vars, "")
	return New(a, tmpl, o.Primitives, o.Vars, o, fill, tag, multiAccept)
}

func renderNode(n codetree.Node) string {
	return render.Block(&codetree.BlockProgram{Name: "t", Body: n})
}

func TestOmitPeekForMoveState(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	s := &dfa.State{Action: dfa.Action{Kind: dfa.ActionMove}}
	require.True(t, e.OmitPeek(s))
}

func TestOmitPeekForSingleNonMoveDestination(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionRule}}
	s := &dfa.State{Go: &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}}}
	require.True(t, e.OmitPeek(s))
}

func TestOmitPeekFalseWhenMultipleSpans(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionRule}}
	s := &dfa.State{Go: &dfa.Go{Spans: []dfa.Span{
		{Jump: dfa.CodeJump{To: dest}},
		{Jump: dfa.CodeJump{To: dest}},
	}}}
	require.False(t, e.OmitPeek(s))
}

func TestEmitMatchSkipsAndPeeks(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionMove}}
	s := &dfa.State{Go: &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}}}

	n, err := e.EmitMatch(&dfa.DFA{}, s)
	require.NoError(t, err)
	require.Equal(t, "// block t\nYYSKIP();\nyych = YYPEEK()\n", renderNode(n))
}

func TestEmitMatchEagerSkipOmitsSkipCall(t *testing.T) {
	o := opts.Default()
	o.EagerSkip = true
	e := newEmitter(o, false)
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionMove}}
	s := &dfa.State{Go: &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}}}

	n, err := e.EmitMatch(&dfa.DFA{}, s)
	require.NoError(t, err)
	require.Equal(t, "// block t\nyych = YYPEEK()\n", renderNode(n))
}

func TestEmitMatchEOFRuleWithNoFallbackAborts(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionMove}}
	s := &dfa.State{Go: &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}}}

	n, err := e.EmitMatch(&dfa.DFA{EOFRule: true}, s)
	require.NoError(t, err)
	require.Contains(t, renderNode(n), "goto yyabort")
}

func TestEmitMatchEOFRuleUsesPrecomputedFallback(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionMove}}
	fall := &dfa.State{Label: dfa.NewLabel("yyfall")}
	s := &dfa.State{Go: &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}}, Fallback: fall}

	n, err := e.EmitMatch(&dfa.DFA{EOFRule: true}, s)
	require.NoError(t, err)
	got := renderNode(n)
	require.Contains(t, got, "goto yyfall")
	require.NotContains(t, got, "goto yyabort")
}

func TestEmitInitialStoresAcceptWhenSaveSlotSetAndMultiAccept(t *testing.T) {
	e := newEmitter(opts.Default(), true)
	lbl := dfa.NewLabel("yy0")
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionRule}}
	s := &dfa.State{
		Label:  lbl,
		Action: dfa.Action{Kind: dfa.ActionInitial, SaveSlot: 2},
		Go:     &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}},
	}

	n, err := e.EmitInitial(&dfa.DFA{}, s)
	require.NoError(t, err)
	got := renderNode(n)
	require.Contains(t, got, "yyaccept = 2")
	require.Contains(t, got, "yy0:\n")
	require.Contains(t, got, "YYBACKUP();")
}

func TestEmitInitialOmitsAcceptStoreWithoutMultiAccept(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	lbl := dfa.NewLabel("yy0")
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionRule}}
	s := &dfa.State{
		Label:  lbl,
		Action: dfa.Action{Kind: dfa.ActionInitial, SaveSlot: 2},
		Go:     &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}},
	}

	n, err := e.EmitInitial(&dfa.DFA{}, s)
	require.NoError(t, err)
	require.NotContains(t, renderNode(n), "yyaccept")
}

func TestEmitInitialOmitsAcceptStoreWhenNoSaveSlot(t *testing.T) {
	e := newEmitter(opts.Default(), true)
	lbl := dfa.NewLabel("yy0")
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionRule}}
	s := &dfa.State{
		Label:  lbl,
		Action: dfa.Action{Kind: dfa.ActionInitial, SaveSlot: dfa.NoSaveSlot},
		Go:     &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}},
	}

	n, err := e.EmitInitial(&dfa.DFA{}, s)
	require.NoError(t, err)
	require.NotContains(t, renderNode(n), "yyaccept")
}

func TestEmitSaveAlwaysStoresAcceptUnderMultiAccept(t *testing.T) {
	e := newEmitter(opts.Default(), true)
	dest := &dfa.State{Action: dfa.Action{Kind: dfa.ActionRule}}
	s := &dfa.State{Action: dfa.Action{Kind: dfa.ActionSave, SaveSlot: 4}, Go: &dfa.Go{Spans: []dfa.Span{{Jump: dfa.CodeJump{To: dest}}}}}

	n, err := e.EmitSave(&dfa.DFA{}, s)
	require.NoError(t, err)
	got := renderNode(n)
	require.Contains(t, got, "yyaccept = 4")
	require.Contains(t, got, "YYBACKUP();")
}

func TestEmitMoveIsANoOp(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	n, err := e.EmitMove(&dfa.DFA{}, &dfa.State{})
	require.NoError(t, err)
	require.Nil(t, n)
}

func TestEmitAcceptSingleDestinationSkipsDispatch(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	dest := &dfa.State{Index: 1, Label: dfa.NewLabel("yy1")}
	d := &dfa.DFA{States: []*dfa.State{{}, dest}}
	s := &dfa.State{Action: dfa.Action{Kind: dfa.ActionAccept, AcceptTable: []int{1, 1, 1}}}

	n, err := e.EmitAccept(d, s)
	require.NoError(t, err)
	got := renderNode(n)
	require.Contains(t, got, "YYRESTORE();")
	require.Contains(t, got, "goto yy1")
	require.NotContains(t, got, "switch")
}

func TestEmitAcceptMultiDestinationEmitsSwitchSortedByValue(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	d0 := &dfa.State{Index: 0, Label: dfa.NewLabel("yy0")}
	d1 := &dfa.State{Index: 1, Label: dfa.NewLabel("yy1")}
	d := &dfa.DFA{States: []*dfa.State{d0, d1}}
	s := &dfa.State{Action: dfa.Action{Kind: dfa.ActionAccept, AcceptTable: []int{0, 1, 0}}}

	n, err := e.EmitAccept(d, s)
	require.NoError(t, err)
	got := renderNode(n)
	require.Contains(t, got, "switch yyaccept {")
	require.Contains(t, got, "case 0, 2:\n\tgoto yy0")
	require.Contains(t, got, "case 1:\n\tgoto yy1")
}

func TestEmitAcceptNestedIfsBuildsBinaryTree(t *testing.T) {
	o := opts.Default()
	o.NestedIfs = true
	e := newEmitter(o, false)
	d0 := &dfa.State{Index: 0, Label: dfa.NewLabel("yy0")}
	d1 := &dfa.State{Index: 1, Label: dfa.NewLabel("yy1")}
	d2 := &dfa.State{Index: 2, Label: dfa.NewLabel("yy2")}
	d := &dfa.DFA{States: []*dfa.State{d0, d1, d2}}
	s := &dfa.State{Action: dfa.Action{Kind: dfa.ActionAccept, AcceptTable: []int{0, 1, 2}}}

	n, err := e.EmitAccept(d, s)
	require.NoError(t, err)
	got := renderNode(n)
	require.Contains(t, got, "if yyaccept <= 1 {")
	require.NotContains(t, got, "switch")
}

func TestEmitAcceptComputedGotoAboveThreshold(t *testing.T) {
	o := opts.Default()
	o.ComputedGotos = true
	o.ComputedGotosThreshold = 2
	e := newEmitter(o, false)
	d0 := &dfa.State{Index: 0, Label: dfa.NewLabel("yy0")}
	d1 := &dfa.State{Index: 1, Label: dfa.NewLabel("yy1")}
	d := &dfa.DFA{States: []*dfa.State{d0, d1}}
	s := &dfa.State{Action: dfa.Action{Kind: dfa.ActionAccept, AcceptTable: []int{0, 1}}}

	n, err := e.EmitAccept(d, s)
	require.NoError(t, err)
	got := renderNode(n)
	require.Contains(t, got, "yyacceptgoto")
	require.Contains(t, got, "goto *yyacceptgoto[yyaccept]")
}

func TestEmitRuleSkipsCondSetWhenUnchanged(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	rule := &dfa.Rule{Action: dfa.SemanticAction{Body: "doSomething()"}}
	ctx := RuleContext{CurrentCond: "INITIAL", NextCond: "INITIAL"}

	n, err := e.EmitRule(&dfa.DFA{}, &dfa.State{}, rule, ctx)
	require.NoError(t, err)
	got := renderNode(n)
	require.NotContains(t, got, "YYSETCONDITION")
	require.Contains(t, got, "doSomething()")
}

func TestEmitRuleEmitsCondSetWhenChanged(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	rule := &dfa.Rule{Action: dfa.SemanticAction{Body: "doSomething()"}}
	ctx := RuleContext{CurrentCond: "INITIAL", NextCond: "STRING", NextCondValue: "yycSTRING"}

	n, err := e.EmitRule(&dfa.DFA{}, &dfa.State{}, rule, ctx)
	require.NoError(t, err)
	got := renderNode(n)
	require.Contains(t, got, "YYSETCONDITION(yycSTRING);")
}

func TestEmitRuleAutoGeneratedJumpWithoutBody(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	rule := &dfa.Rule{Action: dfa.SemanticAction{AutoGenerated: true}}
	next := dfa.NewLabel("yy9")
	ctx := RuleContext{CurrentCond: "INITIAL", NextCond: "INITIAL", NextLabel: next}

	n, err := e.EmitRule(&dfa.DFA{}, &dfa.State{}, rule, ctx)
	require.NoError(t, err)
	require.Contains(t, renderNode(n), "goto yy9")
}

func TestEmitRuleStorableStateGotoLabelUsesNegativeOne(t *testing.T) {
	o := opts.Default()
	o.StorableState = true
	e := newEmitter(o, false)
	rule := &dfa.Rule{Action: dfa.SemanticAction{Body: "x()"}}
	ctx := RuleContext{CurrentCond: "INITIAL", NextCond: "INITIAL"}

	n, err := e.EmitRule(&dfa.DFA{}, &dfa.State{}, rule, ctx)
	require.NoError(t, err)
	require.Contains(t, renderNode(n), "YYSETSTATE(-1);")
}

func TestEmitStateDispatchesOnActionKind(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	n, err := e.EmitState(&dfa.DFA{}, &dfa.State{Action: dfa.Action{Kind: dfa.ActionMove}}, nil, RuleContext{})
	require.NoError(t, err)
	require.Nil(t, n)
}

func TestEmitStateRuleWithoutBoundRuleErrors(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	_, err := e.EmitState(&dfa.DFA{}, &dfa.State{Index: 3, Action: dfa.Action{Kind: dfa.ActionRule}}, nil, RuleContext{})
	require.Error(t, err)
}

func TestEmitStateUnknownActionKindErrors(t *testing.T) {
	e := newEmitter(opts.Default(), false)
	_, err := e.EmitState(&dfa.DFA{}, &dfa.State{Action: dfa.Action{Kind: dfa.ActionKind(99)}}, nil, RuleContext{})
	require.Error(t, err)
}
