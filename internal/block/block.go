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

// Package block assembles a whole DFA's states into one of the three
// emission models a block can use: GOTO_LABEL (label per state, plain
// gotos), LOOP_SWITCH (numbered cases of a switch on a state variable), or
// REC_FUNC (one function per state, transfers as tail calls).
package block

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pingcap/errors"
	"github.com/relexgen/relexgen/internal/action"
	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/opts"
	"github.com/relexgen/relexgen/internal/transition"
)

// RuleLookup resolves the rule and rule context bound to a RULE-kind
// state; the block assembler has no rule/condition bookkeeping of its
// own, so it asks the caller (the pipeline, which owns the DFA's rule
// table and start-condition graph) for both.
type RuleLookup func(d *dfa.DFA, s *dfa.State) (*dfa.Rule, action.RuleContext)

// Assembler builds one BlockProgram from a Block's DFAs.
type Assembler struct {
	Arena     *arena.Arena
	Templater *api.Templater
	Opts      *opts.Options
	Trans     *transition.Emitter
	Act       *action.Emitter

	// Abort is the label a computed-goto table entry falls back to when
	// no span covers its character. Fill fallbacks do not use it; they
	// emit a literal "goto yyabort".
	Abort *dfa.Label
}

// New returns an Assembler.
func New(a *arena.Arena, t *api.Templater, o *opts.Options, trans *transition.Emitter, act *action.Emitter, abort *dfa.Label) *Assembler {
	return &Assembler{Arena: a, Templater: t, Opts: o, Trans: trans, Act: act, Abort: abort}
}

// Assemble builds blk's BlockProgram under the Assembler's configured
// emission model. blk's DFAs share blk's condition namespace: a block
// with more than one DFA gets a condition-dispatch switch ahead of its
// state dispatch, folded into the model-appropriate shape (a goto switch
// for GOTO_LABEL, a state-variable assignment switch for LOOP_SWITCH, a
// tail-call switch for REC_FUNC).
func (a *Assembler) Assemble(blk *dfa.Block, lookup RuleLookup) (*codetree.BlockProgram, error) {
	switch a.Opts.CodeModel {
	case opts.CodeModelGotoLabel:
		return a.assembleGotoLabel(blk, lookup)
	case opts.CodeModelLoopSwitch:
		return a.assembleLoopSwitch(blk, lookup)
	case opts.CodeModelRecFunc:
		return a.assembleRecFunc(blk, lookup)
	default:
		return nil, errors.Errorf("unknown code model %v", a.Opts.CodeModel)
	}
}

// conditionSwitch builds the cross-DFA condition dispatch a block with
// more than one DFA needs, reading the active condition through the
// cond_get primitive and handing each DFA's entry transfer to build.
// Returns nil when blk has at most one DFA, since a single condition
// namespace needs no dispatch at all.
func (a *Assembler) conditionSwitch(blk *dfa.Block, build func(d *dfa.DFA) codetree.Node) (codetree.Node, error) {
	if len(blk.DFAs) < 2 {
		return nil, nil
	}
	condExpr, err := a.Templater.Resolve(a.Opts.Primitives.CondGet, true, nil, nil, "")
	if err != nil {
		return nil, errors.Annotate(err, "resolving cond_get primitive for condition dispatch")
	}
	sw := codetree.NewSwitch(a.Arena, condExpr)
	for _, d := range blk.DFAs {
		body := build(d)
		if body == nil {
			continue
		}
		value := strconv.Itoa(d.CondValue)
		if a.Opts.CodeModel != opts.CodeModelGotoLabel {
			value = a.Opts.Primitives.CondEnumPfx + d.Cond
		}
		sw.AddCase(body, value)
	}
	return sw, nil
}

// multiAccept reports whether any state's accept table spans more than
// one distinct destination, which is what makes accept-store and
// emit_accept's dispatch necessary at all.
func multiAccept(d *dfa.DFA) bool {
	for _, s := range d.States {
		if s.Action.Kind != dfa.ActionAccept {
			continue
		}
		seen := map[int]bool{}
		for _, v := range s.Action.AcceptTable {
			seen[v] = true
			if len(seen) > 1 {
				return true
			}
		}
	}
	return false
}

func (a *Assembler) preamble(blk *dfa.Block) []codetree.Node {
	var decls []codetree.Node
	decls = append(decls, codetree.NewVarDecl(a.Arena, a.Act.Vars.Char, "byte", ""))
	for _, d := range blk.DFAs {
		if multiAccept(d) {
			decls = append(decls, codetree.NewVarDecl(a.Arena, a.Act.Vars.Accept, "int", ""))
			break
		}
	}
	return decls
}

// buildTransitions renders s's outgoing-transitions group per its Kind.
func (a *Assembler) buildTransitions(d *dfa.DFA, s *dfa.State) (codetree.Node, error) {
	if s.Go == nil || len(s.Go.Spans) == 0 {
		return nil, nil
	}
	switch s.Go.Kind {
	case dfa.GoDot:
		return a.Trans.EmitDot(s.Index, s.Go), nil
	case dfa.GoCpgoto:
		var labels [256]*dfa.Label
		for _, sp := range s.Go.Spans {
			lo, hi := sp.Lo, sp.Hi
			if lo < 0 {
				lo = 0
			}
			if hi > 255 {
				hi = 255
			}
			to := sp.To()
			if to == nil {
				continue
			}
			for c := lo; c <= hi; c++ {
				labels[c] = to.Label
			}
		}
		return a.Trans.EmitCpgoto(labels, a.Abort), nil
	case dfa.GoBitmap:
		return a.buildBitmap(d, s, s.Go.Spans)
	default:
		return a.Trans.EmitSwitchIf(d, s, func(sp dfa.Span) (codetree.Node, error) {
			return a.Trans.EmitJump(d, s, sp.Jump)
		})
	}
}

// buildBitmap folds spans[0] into the bitmap's positive branch and
// recurses over the remainder for the negative branch, so a Go with
// more than the typical two destinations still produces correct
// (if nested) code.
func (a *Assembler) buildBitmap(d *dfa.DFA, s *dfa.State, spans []dfa.Span) (codetree.Node, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	then, err := a.Trans.EmitJump(d, s, spans[0].Jump)
	if err != nil {
		return nil, err
	}
	var els codetree.Node
	if len(spans) > 1 {
		els, err = a.buildBitmap(d, s, spans[1:])
		if err != nil {
			return nil, err
		}
	}
	lowOnly := s.Go.HighByteBranch != nil
	return a.Trans.EmitBitmap(s.Go, 1, lowOnly, then, els), nil
}

func (a *Assembler) buildState(d *dfa.DFA, s *dfa.State, lookup RuleLookup) (codetree.Node, error) {
	out := codetree.NewList(a.Arena)
	var rule *dfa.Rule
	var ctx action.RuleContext
	if s.Action.Kind == dfa.ActionRule {
		rule, ctx = lookup(d, s)
	}
	actNode, err := a.Act.EmitState(d, s, rule, ctx)
	if err != nil {
		return nil, errors.Annotatef(err, "emitting action for state %d", s.Index)
	}
	out.Append(actNode)
	transNode, err := a.buildTransitions(d, s)
	if err != nil {
		return nil, errors.Annotatef(err, "emitting transitions for state %d", s.Index)
	}
	out.Append(transNode)
	return out, nil
}

// assembleGotoLabel emits the block's condition dispatch (if it has more
// than one DFA), or a jump to the lone DFA's initial label (if it is ever
// the target of a later goto), followed by every DFA's states in turn as
// label+action+transitions.
func (a *Assembler) assembleGotoLabel(blk *dfa.Block, lookup RuleLookup) (*codetree.BlockProgram, error) {
	body := codetree.NewList(a.Arena)
	dispatch, err := a.conditionSwitch(blk, func(d *dfa.DFA) codetree.Node {
		init := d.InitialState()
		if init == nil || init.Label == nil {
			return nil
		}
		return codetree.NewGoto(a.Arena, init.Label)
	})
	if err != nil {
		return nil, err
	}
	if dispatch != nil {
		body.Append(dispatch)
	} else if len(blk.DFAs) == 1 {
		init := blk.DFAs[0].InitialState()
		if init != nil && init.Label != nil && init.Label.Used {
			body.Append(codetree.NewGoto(a.Arena, init.Label))
		}
	}
	for _, d := range blk.DFAs {
		for _, s := range d.States {
			if s.Label != nil {
				body.Append(codetree.NewLabelDecl(a.Arena, s.Label))
			}
			node, err := a.buildState(d, s, lookup)
			if err != nil {
				return nil, err
			}
			body.Append(node)
		}
	}
	return &codetree.BlockProgram{Name: blk.Name, Decls: a.preamble(blk), Body: body, IsFuncs: false}, nil
}

// assembleLoopSwitch declares yystate, emits a switch dispatching on it,
// and fuses consecutive states whose labels ended up unused into a single
// case (they can never be jumped to directly, so falling through to the
// next state's code in the same case is observably identical and saves a
// trip through the switch). No loop is emitted around the switch: the
// code tree has no loop node, so the block body runs the switch once.
// Case values are numbered globally across every DFA in blk, since a
// LOOP_SWITCH block shares a single yystate namespace between conditions;
// a block with more than one DFA gets a condition-dispatch switch ahead
// of the state switch, assigning yystate to the right DFA's initial state
// number.
func (a *Assembler) assembleLoopSwitch(blk *dfa.Block, lookup RuleLookup) (*codetree.BlockProgram, error) {
	stateType := "int"
	if !a.Opts.StorableState {
		stateType = "uint"
	}
	init := "0"
	if a.Opts.StorableState && a.Opts.Primitives.StateGet != "" {
		text, err := a.Templater.Resolve(a.Opts.Primitives.StateGet, true, nil, nil, "")
		if err == nil {
			init = text
		}
	} else if a.Opts.Primitives.CondGet != "" {
		text, err := a.Templater.Resolve(a.Opts.Primitives.CondGet, true, nil, nil, "")
		if err == nil {
			init = text
		}
	}
	decls := a.preamble(blk)
	decls = append(decls, codetree.NewVarDecl(a.Arena, a.Act.Vars.State, stateType, init))

	offsets := make(map[*dfa.DFA]int, len(blk.DFAs))
	offset := 0
	for _, d := range blk.DFAs {
		offsets[d] = offset
		offset += len(d.States)
	}

	sw := codetree.NewSwitch(a.Arena, a.Act.Vars.State)
	for di, d := range blk.DFAs {
		groups := fuseUnusedLabels(d.States)
		for _, gr := range groups {
			body := codetree.NewList(a.Arena)
			for _, s := range gr.states {
				node, err := a.buildState(d, s, lookup)
				if err != nil {
					return nil, err
				}
				body.Append(node)
			}
			values := []string{fmt.Sprintf("%d", offsets[d]+gr.states[0].Index)}
			if di == 0 && a.Opts.StorableState && gr.states[0].Index == d.Initial {
				values = append(values, "-1")
			}
			sw.AddCase(body, values...)
		}
	}

	dispatch, err := a.conditionSwitch(blk, func(d *dfa.DFA) codetree.Node {
		return codetree.NewAssign(a.Arena, a.Act.Vars.State, strconv.Itoa(offsets[d]+d.Initial), false)
	})
	if err != nil {
		return nil, err
	}

	loopBody := codetree.NewList(a.Arena)
	if dispatch != nil {
		loopBody.Append(dispatch)
	}
	loopBody.Append(sw)
	return &codetree.BlockProgram{Name: blk.Name, Decls: decls, Body: loopBody, IsFuncs: false}, nil
}

type stateGroup struct {
	states []*dfa.State
}

// fuseUnusedLabels groups consecutive states whose label is unused into
// the same switch case, in DFA state order.
func fuseUnusedLabels(states []*dfa.State) []stateGroup {
	var out []stateGroup
	var cur stateGroup
	for _, s := range states {
		if len(cur.states) == 0 {
			cur.states = []*dfa.State{s}
			continue
		}
		if s.Label == nil || !s.Label.Used {
			cur.states = append(cur.states, s)
			continue
		}
		out = append(out, cur)
		cur = stateGroup{states: []*dfa.State{s}}
	}
	if len(cur.states) > 0 {
		out = append(out, cur)
	}
	return out
}

// needYychArg reports whether s's rec/func function needs to receive
// the already-peeked character as a parameter rather than peeking
// itself: it is possible only when the function's own peek is elided
// (omit_peek), it has more than one outgoing span (so it must inspect
// the value), and it is not an end state (which needs no dispatch at
// all).
func needYychArg(act *action.Emitter, s *dfa.State) bool {
	if !act.OmitPeek(s) {
		return false
	}
	if s.Go == nil || len(s.Go.Spans) <= 1 {
		return false
	}
	return !s.EndState()
}

// assembleRecFunc turns every state, across every DFA in blk, into a
// function; inter-state transfers become tail calls instead of gotos.
// A block with a single DFA gets one top-level entry function tail-
// calling its initial state; a block with more than one DFA (sharing a
// condition namespace) gets an entry function whose body is the
// condition-dispatch switch, one tail call per condition.
func (a *Assembler) assembleRecFunc(blk *dfa.Block, lookup RuleLookup) (*codetree.BlockProgram, error) {
	fc := a.buildFuncCommon(blk)
	var funcs []codetree.Node
	for _, d := range blk.DFAs {
		for _, s := range d.States {
			fnName := funcName(blk.Name, d, s)
			params := fc.Params
			if needYychArg(a.Act, s) {
				params = fc.PeekParams
			}
			body, err := a.buildRecFuncBody(d, s, blk.Name, lookup)
			if err != nil {
				return nil, err
			}
			funcs = append(funcs, codetree.NewFuncDef(a.Arena, fnName, params, fc.ReturnType, body))
		}
	}

	var top codetree.Node
	dispatch, err := a.conditionSwitch(blk, func(d *dfa.DFA) codetree.Node {
		init := d.InitialState()
		if init == nil {
			return nil
		}
		return codetree.NewTailCall(a.Arena, funcName(blk.Name, d, init), fc.Args)
	})
	if err != nil {
		return nil, err
	}
	if dispatch != nil {
		top = dispatch
	} else if len(blk.DFAs) == 1 {
		if init := blk.DFAs[0].InitialState(); init != nil {
			top = codetree.NewTailCall(a.Arena, funcName(blk.Name, blk.DFAs[0], init), fc.Args)
		}
	}
	funcs = append(funcs, codetree.NewFuncDef(a.Arena, blk.Name+"Entry", fc.Params, fc.ReturnType, top))

	body := codetree.NewList(a.Arena)
	body.Append(funcs...)
	return &codetree.BlockProgram{Name: blk.Name, Decls: a.preamble(blk), Body: body, IsFuncs: true}, nil
}

// buildFuncCommon derives the parameter/argument lists every rec/func
// function in blk shares and stores them on blk for callers (such as the
// directive expander) that need the same shapes.
func (a *Assembler) buildFuncCommon(blk *dfa.Block) dfa.FuncCommon {
	params := []string{"yycursor *int", "yylimit int"}
	args := []string{"yycursor", "yylimit"}
	fc := dfa.FuncCommon{
		Params:     params,
		Args:       args,
		PeekParams: append(append([]string{}, params...), a.Act.Vars.Char+" byte"),
		PeekArgs:   append(append([]string{}, args...), a.Act.Vars.Char),
	}
	blk.FuncCommon = fc
	return fc
}

// funcName names one state's function, namespaced by the DFA's condition
// when d belongs to a block with more than one condition so distinct
// DFAs' State0, State1, ... do not collide.
func funcName(block string, d *dfa.DFA, s *dfa.State) string {
	tag := d.Cond
	if tag == "" {
		tag = block
	}
	return fmt.Sprintf("%sState%d", tag, s.Index)
}

// buildRecFuncBody emits a state's function body using the same action
// emitter as the other two models, but rewrites the transition dispatch
// so every leaf ends in a tail call. Every state gets a function of its
// own: fall-through states (those whose label ended up unused) are not
// inlined into the preceding state's body.
func (a *Assembler) buildRecFuncBody(d *dfa.DFA, s *dfa.State, name string, lookup RuleLookup) (codetree.Node, error) {
	trans := a.Trans
	trans.RecFunc = true
	defer func() { trans.RecFunc = false }()

	out := codetree.NewList(a.Arena)
	var rule *dfa.Rule
	var ctx action.RuleContext
	if s.Action.Kind == dfa.ActionRule {
		rule, ctx = lookup(d, s)
	}
	actNode, err := a.Act.EmitState(d, s, rule, ctx)
	if err != nil {
		return nil, err
	}
	out.Append(actNode)

	if s.Go == nil || len(s.Go.Spans) == 0 {
		return out, nil
	}
	transNode, err := trans.EmitSwitchIf(d, s, func(sp dfa.Span) (codetree.Node, error) {
		return a.recFuncJump(d, s, name, sp.Jump)
	})
	if err != nil {
		return nil, err
	}
	out.Append(transNode)
	return out, nil
}

// recFuncJump is EmitJump's REC_FUNC counterpart: the destination
// transfer is a tail call to the target state's function rather than a
// goto to its label.
func (a *Assembler) recFuncJump(d *dfa.DFA, s *dfa.State, name string, jump dfa.CodeJump) (codetree.Node, error) {
	if jump.Elide {
		return nil, nil
	}
	body := codetree.NewList(a.Arena)
	if jump.Tags != s.Tags {
		cmd := d.Command(jump.Tags)
		if cmd != nil {
			n, err := a.Act.Tag.EmitCommands(cmd)
			if err != nil {
				return nil, err
			}
			body.Append(n)
		}
	}
	if jump.Skip {
		skipText, err := a.Templater.Resolve(a.Act.Prims.Skip, false, nil, nil, "")
		if err != nil {
			return nil, err
		}
		body.Append(codetree.NewRaw(a.Arena, skipText, false))
	}
	if jump.To != nil {
		args := []string{"yycursor", "yylimit"}
		if needYychArg(a.Act, jump.To) {
			args = append(args, a.Act.Vars.Char)
		}
		body.Append(codetree.NewTailCall(a.Arena, funcName(name, d, jump.To), args))
	}
	return body, nil
}

// sortedConditionNames returns names in sorted order, independent of map
// iteration order.
func sortedConditionNames(names map[string]struct{}) []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
