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

// Package action emits the code a state runs on entry, before its
// outgoing transitions are dispatched: the MATCH/INITIAL/SAVE/MOVE/
// ACCEPT/RULE action kinds every dfa.State carries.
package action

import (
	"sort"
	"strconv"

	"github.com/pingcap/errors"
	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/fillplan"
	"github.com/relexgen/relexgen/internal/opts"
	"github.com/relexgen/relexgen/internal/tagcode"
)

// Emitter emits per-state entry actions.
type Emitter struct {
	Arena     *arena.Arena
	Templater *api.Templater
	Prims     opts.Primitives
	Vars      opts.Vars
	Opts      *opts.Options
	Fill      *fillplan.Planner
	Tag       *tagcode.Emitter

	// MultiAccept is true when the owning block's DFA can reach more
	// than one distinct accept value, which is what makes accept-store
	// (and, downstream, emit_accept's dispatch) necessary at all.
	MultiAccept bool
}

// New returns an Emitter.
func New(a *arena.Arena, t *api.Templater, prims opts.Primitives, vars opts.Vars, o *opts.Options, fill *fillplan.Planner, tag *tagcode.Emitter, multiAccept bool) *Emitter {
	return &Emitter{Arena: a, Templater: t, Prims: prims, Vars: vars, Opts: o, Fill: fill, Tag: tag, MultiAccept: multiAccept}
}

// OmitPeek reports whether s should skip emitting its own peek: it is a
// MOVE state (inherits the predecessor's peek), or it has exactly one
// outgoing transition to a non-MOVE destination (that edge never needs
// to inspect the character it is holding).
func (e *Emitter) OmitPeek(s *dfa.State) bool {
	if s.Action.Kind == dfa.ActionMove {
		return true
	}
	if s.Go != nil && len(s.Go.Spans) == 1 {
		to := s.Go.Spans[0].To()
		if to != nil && to.Action.Kind != dfa.ActionMove {
			return true
		}
	}
	return false
}

func (e *Emitter) emitPeek(s *dfa.State) (codetree.Node, error) {
	if e.OmitPeek(s) {
		return nil, nil
	}
	text, err := e.Templater.Resolve(e.Prims.Peek, true, nil, nil, "")
	if err != nil {
		return nil, errors.Annotate(err, "resolving peek primitive")
	}
	return codetree.NewAssign(e.Arena, e.Vars.Char, text, false), nil
}

func (e *Emitter) emitSkip() (codetree.Node, error) {
	if e.Opts.EagerSkip {
		return nil, nil
	}
	text, err := e.Templater.Resolve(e.Prims.Skip, false, nil, nil, "")
	if err != nil {
		return nil, errors.Annotate(err, "resolving skip primitive")
	}
	return codetree.NewRaw(e.Arena, text, false), nil
}

func (e *Emitter) emitBackup() (codetree.Node, error) {
	text, err := e.Templater.Resolve(e.Prims.Backup, false, nil, nil, "")
	if err != nil {
		return nil, errors.Annotate(err, "resolving backup primitive")
	}
	return codetree.NewRaw(e.Arena, text, false), nil
}

func (e *Emitter) emitAcceptStore(slot int) codetree.Node {
	return codetree.NewAssign(e.Arena, e.Vars.Accept, strconv.Itoa(slot), false)
}

func (e *Emitter) emitDebugHook(s *dfa.State) (codetree.Node, error) {
	if !e.Opts.Debug || e.Prims.Debug == "" {
		return nil, nil
	}
	arg := strconv.Itoa(s.Index)
	text, err := e.Templater.Resolve(e.Prims.Debug, false, []string{arg, e.Vars.Char}, map[string]string{"state": arg, "char": e.Vars.Char}, arg)
	if err != nil {
		return nil, errors.Annotate(err, "resolving debug primitive")
	}
	return codetree.NewRaw(e.Arena, text, false), nil
}

// emitFillWrap places s.FillLabel (if the state ever resumes there) and
// wraps rest in the fill pipeline when s actually requires one; rest
// runs unconditionally otherwise.
func (e *Emitter) emitFillWrap(d *dfa.DFA, s *dfa.State, rest codetree.Node) (codetree.Node, error) {
	out := codetree.NewList(e.Arena)
	if e.Fill == nil || !e.Fill.Needs(d, s) {
		out.Append(rest)
		return out, nil
	}
	if s.FillLabel != nil {
		out.Append(codetree.NewLabelDecl(e.Arena, s.FillLabel))
	}
	fallback, err := e.buildFallback(d, s)
	if err != nil {
		return nil, errors.Annotate(err, "building fill fallback transfer")
	}
	plan, err := e.Fill.Plan(d, s, rest, fallback)
	if err != nil {
		return nil, errors.Annotate(err, "planning fill")
	}
	if !plan.Needed {
		out.Append(rest)
		return out, nil
	}
	body := codetree.NewList(e.Arena)
	body.Append(plan.StateSet)
	fillPart := plan.FillNode
	if plan.GuardCond != "" && !plan.Branches {
		fillPart = codetree.NewIf(e.Arena, plan.GuardCond, fillPart, nil)
	}
	body.Append(fillPart)
	out.Append(body)
	return out, nil
}

// buildFallback returns the transfer code taken when a fill can never
// succeed at s: a goto to s.Fallback preceded by s.FallbackTags's tag
// actions, unless those tags are already hoisted onto s.Tags. This
// per-state entry check never compares against a physically-following
// jump (there is none to compare against here), so it never elides.
// States with no precomputed fallback degrade to an unconditional abort.
func (e *Emitter) buildFallback(d *dfa.DFA, s *dfa.State) (codetree.Node, error) {
	if s.Fallback == nil {
		return codetree.NewRaw(e.Arena, "goto yyabort", false), nil
	}
	tags := s.FallbackTags
	if s.Tags != dfa.TCID0 {
		tags = dfa.TCID0
	}
	out := codetree.NewList(e.Arena)
	if tags != dfa.TCID0 {
		cmd := d.Command(tags)
		if cmd != nil {
			n, err := e.Tag.EmitCommands(cmd)
			if err != nil {
				return nil, errors.Annotate(err, "emitting fallback tag actions")
			}
			out.Append(n)
		}
	}
	out.Append(codetree.NewGoto(e.Arena, s.Fallback.Label))
	return out, nil
}

// EmitMatch emits: skip (unless eager-skip), fill+label, peek.
func (e *Emitter) EmitMatch(d *dfa.DFA, s *dfa.State) (codetree.Node, error) {
	out := codetree.NewList(e.Arena)
	skip, err := e.emitSkip()
	if err != nil {
		return nil, err
	}
	out.Append(skip)
	peek, err := e.emitPeek(s)
	if err != nil {
		return nil, err
	}
	wrapped, err := e.emitFillWrap(d, s, peek)
	if err != nil {
		return nil, err
	}
	out.Append(wrapped)
	return out, nil
}

// EmitInitial emits: accept-store (if a save-slot is present and the
// block is multi-accept), skip, the state's own numeric label, fill+
// label, backup, peek, debug hook.
func (e *Emitter) EmitInitial(d *dfa.DFA, s *dfa.State) (codetree.Node, error) {
	out := codetree.NewList(e.Arena)
	if s.Action.SaveSlot != dfa.NoSaveSlot && e.MultiAccept {
		out.Append(e.emitAcceptStore(s.Action.SaveSlot))
	}
	skip, err := e.emitSkip()
	if err != nil {
		return nil, err
	}
	out.Append(skip)
	out.Append(codetree.NewLabelDecl(e.Arena, s.Label))

	rest := codetree.NewList(e.Arena)
	backup, err := e.emitBackup()
	if err != nil {
		return nil, err
	}
	rest.Append(backup)
	peek, err := e.emitPeek(s)
	if err != nil {
		return nil, err
	}
	rest.Append(peek)
	dbg, err := e.emitDebugHook(s)
	if err != nil {
		return nil, err
	}
	rest.Append(dbg)

	wrapped, err := e.emitFillWrap(d, s, rest)
	if err != nil {
		return nil, err
	}
	out.Append(wrapped)
	return out, nil
}

// EmitSave emits: accept-store (if multi-accept), skip, backup, fill+
// label, peek.
func (e *Emitter) EmitSave(d *dfa.DFA, s *dfa.State) (codetree.Node, error) {
	out := codetree.NewList(e.Arena)
	if e.MultiAccept {
		out.Append(e.emitAcceptStore(s.Action.SaveSlot))
	}
	skip, err := e.emitSkip()
	if err != nil {
		return nil, err
	}
	out.Append(skip)
	backup, err := e.emitBackup()
	if err != nil {
		return nil, err
	}
	out.Append(backup)
	peek, err := e.emitPeek(s)
	if err != nil {
		return nil, err
	}
	wrapped, err := e.emitFillWrap(d, s, peek)
	if err != nil {
		return nil, err
	}
	out.Append(wrapped)
	return out, nil
}

// EmitMove emits nothing; a MOVE state inherits its peek from whichever
// predecessor state transitioned into it.
func (e *Emitter) EmitMove(*dfa.DFA, *dfa.State) (codetree.Node, error) {
	return nil, nil
}

// acceptGroup is one distinct destination among a uniq_vector, together
// with every original accept value that shares it.
type acceptGroup struct {
	dest   *dfa.State
	values []int
}

// uniqVector collapses table (one destination state index per accept
// value) into the distinct destinations, in first-seen order, each
// carrying every accept value that maps to it. This is the dedupe step
// emit_accept's dispatch is built over.
func uniqVector(d *dfa.DFA, table []int) []acceptGroup {
	order := make([]int, 0, len(table))
	byDest := make(map[int][]int, len(table))
	for value, destIdx := range table {
		if _, ok := byDest[destIdx]; !ok {
			order = append(order, destIdx)
		}
		byDest[destIdx] = append(byDest[destIdx], value)
	}
	out := make([]acceptGroup, 0, len(order))
	for _, destIdx := range order {
		var dest *dfa.State
		if destIdx >= 0 && destIdx < len(d.States) {
			dest = d.States[destIdx]
		}
		out = append(out, acceptGroup{dest: dest, values: byDest[destIdx]})
	}
	return out
}

// EmitAccept dispatches to emit_accept: restore, then select among the
// uniq_vector of accept-transitions by switch, nested ifs, binary tree,
// or computed-goto-table, per options.
func (e *Emitter) EmitAccept(d *dfa.DFA, s *dfa.State) (codetree.Node, error) {
	out := codetree.NewList(e.Arena)
	restoreText, err := e.Templater.Resolve(e.Prims.Restore, false, nil, nil, "")
	if err != nil {
		return nil, errors.Annotate(err, "resolving restore primitive")
	}
	if restoreText != "" {
		out.Append(codetree.NewRaw(e.Arena, restoreText, false))
	}

	groups := uniqVector(d, s.Action.AcceptTable)
	if len(groups) == 0 {
		return out, nil
	}
	if len(groups) == 1 {
		if groups[0].dest != nil {
			out.Append(codetree.NewGoto(e.Arena, groups[0].dest.Label))
		}
		return out, nil
	}

	if e.Opts.ComputedGotos && len(groups) >= e.Opts.ComputedGotosThreshold {
		out.Append(e.emitAcceptCpgoto(s.Action.AcceptTable, d))
		return out, nil
	}
	if e.Opts.NestedIfs {
		out.Append(e.emitAcceptNestedIfs(groups))
		return out, nil
	}
	out.Append(e.emitAcceptSwitch(groups))
	return out, nil
}

func (e *Emitter) emitAcceptSwitch(groups []acceptGroup) codetree.Node {
	sw := codetree.NewSwitch(e.Arena, e.Vars.Accept)
	for _, gr := range groups {
		if gr.dest == nil {
			continue
		}
		values := make([]string, len(gr.values))
		for i, v := range gr.values {
			values[i] = strconv.Itoa(v)
		}
		sort.Strings(values)
		sw.AddCase(codetree.NewGoto(e.Arena, gr.dest.Label), values...)
	}
	return sw
}

// emitAcceptNestedIfs builds a binary-tree-shaped chain of ifs over the
// accept variable instead of a flat switch, halving the comparison
// count in the average case at the cost of more branches in the tree.
func (e *Emitter) emitAcceptNestedIfs(groups []acceptGroup) codetree.Node {
	type entry struct {
		value int
		dest  *dfa.State
	}
	var flat []entry
	for _, gr := range groups {
		if gr.dest == nil {
			continue
		}
		for _, v := range gr.values {
			flat = append(flat, entry{value: v, dest: gr.dest})
		}
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].value < flat[j].value })
	var build func(lo, hi int) codetree.Node
	build = func(lo, hi int) codetree.Node {
		if lo > hi {
			return nil
		}
		if lo == hi {
			return codetree.NewGoto(e.Arena, flat[lo].dest.Label)
		}
		mid := (lo + hi) / 2
		cond := e.Vars.Accept + " <= " + strconv.Itoa(flat[mid].value)
		return codetree.NewIf(e.Arena, cond, build(lo, mid), build(mid+1, hi))
	}
	if len(flat) == 0 {
		return nil
	}
	return build(0, len(flat)-1)
}

func (e *Emitter) emitAcceptCpgoto(table []int, d *dfa.DFA) codetree.Node {
	elems := make([]string, len(table))
	labels := make([]*dfa.Label, 0, len(table))
	for i, destIdx := range table {
		if destIdx < 0 || destIdx >= len(d.States) {
			elems[i] = "nil"
			continue
		}
		lbl := d.States[destIdx].Label
		elems[i] = "&&" + lbl.Name
		labels = append(labels, lbl)
	}
	table1 := codetree.NewArrayLit(e.Arena, "yyacceptgoto", "unsafe.Pointer", elems, labels)
	dispatch := codetree.NewRaw(e.Arena, "goto *yyacceptgoto["+e.Vars.Accept+"]", false)
	out := codetree.NewList(e.Arena)
	out.Append(table1, dispatch)
	return out
}

// RuleContext supplies the block-level facts EmitRule needs beyond the
// rule and its tags: the block assembler owns condition switching and
// the storable-state numbering scheme, so it decides these rather than
// the action emitter guessing at them.
type RuleContext struct {
	Tags []dfa.Tag

	// CurrentCond is the start condition this rule fires within; equal
	// to NextCond when the rule does not change condition.
	CurrentCond string
	NextCond    string

	// NextCondValue is the next condition's enum member name: the
	// argument cond_set receives, and the value state-set receives
	// outside GOTO_LABEL (GOTO_LABEL always state-sets -1).
	NextCondValue string

	// NextLabel is where an auto-generated jump (no user action body)
	// transfers control, when the rule changes condition without a
	// user-written body.
	NextLabel *dfa.Label
}

// EmitRule emits: final-tag assignments, condition-set (omitted when
// unchanged, or when storable state and LOOP_SWITCH co-use the state
// variable for the condition too), state-set (if storable state), then
// either the user's action body or an auto-generated jump.
func (e *Emitter) EmitRule(d *dfa.DFA, s *dfa.State, rule *dfa.Rule, ctx RuleContext) (codetree.Node, error) {
	out := codetree.NewList(e.Arena)

	fin, err := e.Tag.EmitFinTags(rule, ctx.Tags, d.OldStyleCtxMarker)
	if err != nil {
		return nil, errors.Annotate(err, "emitting rule fin-tags")
	}
	out.Append(fin.All()...)

	condChanged := ctx.NextCond != "" && ctx.NextCond != ctx.CurrentCond
	condSetRedundant := e.Opts.StorableState && e.Opts.CodeModel == opts.CodeModelLoopSwitch
	if condChanged && !condSetRedundant && e.Prims.CondSet != "" {
		text, err := e.Templater.Resolve(e.Prims.CondSet, false, []string{ctx.NextCondValue}, map[string]string{"cond": ctx.NextCondValue}, ctx.NextCondValue)
		if err != nil {
			return nil, errors.Annotate(err, "resolving cond_set primitive")
		}
		out.Append(codetree.NewRaw(e.Arena, text, false))
	}

	if e.Opts.StorableState {
		var stateArg string
		if e.Opts.CodeModel == opts.CodeModelGotoLabel {
			stateArg = "-1"
		} else {
			stateArg = ctx.NextCondValue
		}
		text, err := e.Templater.Resolve(e.Prims.StateSet, false, []string{stateArg}, map[string]string{"state": stateArg}, stateArg)
		if err != nil {
			return nil, errors.Annotate(err, "resolving state_set primitive")
		}
		out.Append(codetree.NewRaw(e.Arena, text, false))
	}

	if rule.Action.Body != "" {
		out.Append(codetree.NewRaw(e.Arena, rule.Action.Body, true))
	} else if ctx.NextLabel != nil {
		out.Append(codetree.NewGoto(e.Arena, ctx.NextLabel))
	}
	return out, nil
}

// EmitState dispatches to the emitter matching s.Action.Kind. rule and
// ctx are only meaningful (and must be non-nil/populated) when
// s.Action.Kind is ActionRule.
func (e *Emitter) EmitState(d *dfa.DFA, s *dfa.State, rule *dfa.Rule, ctx RuleContext) (codetree.Node, error) {
	switch s.Action.Kind {
	case dfa.ActionMatch:
		return e.EmitMatch(d, s)
	case dfa.ActionInitial:
		return e.EmitInitial(d, s)
	case dfa.ActionSave:
		return e.EmitSave(d, s)
	case dfa.ActionMove:
		return e.EmitMove(d, s)
	case dfa.ActionAccept:
		return e.EmitAccept(d, s)
	case dfa.ActionRule:
		if rule == nil {
			return nil, errors.Errorf("state %d is a RULE state with no rule bound", s.Index)
		}
		return e.EmitRule(d, s, rule, ctx)
	default:
		return nil, errors.Errorf("state %d has unknown action kind %v", s.Index, s.Action.Kind)
	}
}
