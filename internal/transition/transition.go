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

// Package transition emits the outgoing-transitions group attached to a
// state: DOT graph edges, SWITCH_IF chains or trees, BITMAP lookups, and
// CPGOTO computed-goto tables, plus the leaf-jump code every dispatch
// kind eventually bottoms out in.
package transition

import (
	"fmt"
	"sort"

	"github.com/pingcap/errors"
	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/fillplan"
	"github.com/relexgen/relexgen/internal/opts"
	"github.com/relexgen/relexgen/internal/tagcode"
)

// Emitter emits a state's outgoing-transitions group and the leaf jumps
// it bottoms out in.
type Emitter struct {
	Arena     *arena.Arena
	Templater *api.Templater
	Prims     opts.Primitives
	Vars      opts.Vars
	Opts      *opts.Options
	Tag       *tagcode.Emitter
	Fill      *fillplan.Planner

	// RecFunc is true when the owning block uses the REC_FUNC emission
	// model, which forces SWITCH_IF into a single if/else-if/else chain
	// so every branch ends in a tail call.
	RecFunc bool
}

// New returns an Emitter.
func New(a *arena.Arena, t *api.Templater, prims opts.Primitives, vars opts.Vars, o *opts.Options, tag *tagcode.Emitter, fill *fillplan.Planner, recFunc bool) *Emitter {
	return &Emitter{Arena: a, Templater: t, Prims: prims, Vars: vars, Opts: o, Tag: tag, Fill: fill, RecFunc: recFunc}
}

// spanCond renders the condition text matching one Span's character
// range against the char variable.
func (e *Emitter) spanCond(sp dfa.Span) string {
	char := e.Vars.Char
	if sp.Lo == sp.Hi {
		return fmt.Sprintf("%s == %s", char, quoteRune(sp.Lo))
	}
	return fmt.Sprintf("%s >= %s && %s <= %s", char, quoteRune(sp.Lo), char, quoteRune(sp.Hi))
}

func quoteRune(r rune) string {
	return fmt.Sprintf("%d", r)
}

// EmitDot renders g as a flat list of DotEdge nodes, one per span,
// labeled with the span's character range. Used only for graph output.
func (e *Emitter) EmitDot(from int, g *dfa.Go) codetree.Node {
	out := codetree.NewList(e.Arena)
	for _, sp := range g.Spans {
		to := sp.To()
		if to == nil {
			continue
		}
		out.Append(codetree.NewDotEdge(e.Arena, from, to.Index, e.spanCond(sp)))
	}
	return out
}

// EmitSwitchIf renders g as a chain of independent if statements (goto/
// label and loop/switch models) or a single if/else-if/else expression
// (rec/func model), dispatching each span to its jump's code via jumps.
func (e *Emitter) EmitSwitchIf(d *dfa.DFA, s *dfa.State, jumps func(dfa.Span) (codetree.Node, error)) (codetree.Node, error) {
	if e.RecFunc {
		return e.emitIfElseChain(g(s), jumps)
	}
	out := codetree.NewList(e.Arena)
	for _, sp := range sortSpansByCond(e, g(s).Spans) {
		body, err := jumps(sp)
		if err != nil {
			return nil, err
		}
		out.Append(codetree.NewIf(e.Arena, e.spanCond(sp), body, nil))
	}
	return out, nil
}

func (e *Emitter) emitIfElseChain(gr *dfa.Go, jumps func(dfa.Span) (codetree.Node, error)) (codetree.Node, error) {
	spans := gr.Spans
	if len(spans) == 0 {
		return nil, nil
	}
	last, err := jumps(spans[len(spans)-1])
	if err != nil {
		return nil, err
	}
	chain := last
	for i := len(spans) - 2; i >= 0; i-- {
		body, err := jumps(spans[i])
		if err != nil {
			return nil, err
		}
		chain = codetree.NewIf(e.Arena, e.spanCond(spans[i]), body, chain)
	}
	return chain, nil
}

func g(s *dfa.State) *dfa.Go { return s.Go }

// EmitBitmap renders a bitmap lookup: bitmap[offset + char] & mask,
// parenthesized per ImplicitBoolConversion, preceded by a high-byte guard
// when the bitmap only covers the low 256 characters.
func (e *Emitter) EmitBitmap(gr *dfa.Go, mask int, lowOnly bool, then, els codetree.Node) codetree.Node {
	expr := fmt.Sprintf("%s[%d+%s] & %d", e.Vars.Bitmaps, gr.BitmapOffset, e.Vars.Char, mask)
	if !e.Opts.ImplicitBoolConversion {
		expr = expr + " != 0"
	} else {
		expr = "(" + expr + ")"
	}
	if lowOnly && gr.HighByteBranch != nil {
		hi := fmt.Sprintf("%s >= 256", e.Vars.Char)
		expr = fmt.Sprintf("!(%s) && %s", hi, expr)
	}
	return codetree.NewIf(e.Arena, expr, then, els)
}

// EmitCpgoto declares the 256-entry computed-goto table and the dispatch
// through it. labels[c] is the label control transfers to on character
// c; a nil entry falls back to the scanner's abort label.
func (e *Emitter) EmitCpgoto(labels [256]*dfa.Label, abort *dfa.Label) codetree.Node {
	elems := make([]string, 256)
	used := make([]*dfa.Label, 0, 256)
	for i, lbl := range labels {
		target := lbl
		if target == nil {
			target = abort
		}
		if target == nil {
			elems[i] = "nil"
			continue
		}
		elems[i] = "&&" + target.Name
		used = append(used, target)
	}
	table := codetree.NewArrayLit(e.Arena, e.Vars.ComputedGotosTable, "unsafe.Pointer", elems, used)
	dispatch := codetree.NewRaw(e.Arena, fmt.Sprintf("goto *%s[%s]", e.Vars.ComputedGotosTable, e.Vars.Char), false)
	out := codetree.NewList(e.Arena)
	out.Append(table, dispatch)
	return out
}

// EmitJump emits one leaf jump: tag actions (unless hoisted onto the
// owning state), skip, destination transfer, and — if jump.EOF — wraps
// the whole thing in the fill pipeline.
func (e *Emitter) EmitJump(d *dfa.DFA, s *dfa.State, jump dfa.CodeJump) (codetree.Node, error) {
	if jump.Elide {
		return nil, nil
	}
	body := codetree.NewList(e.Arena)

	if jump.Tags != s.Tags {
		cmd := d.Command(jump.Tags)
		if cmd != nil {
			n, err := e.Tag.EmitCommands(cmd)
			if err != nil {
				return nil, errors.Annotate(err, "emitting leaf jump tag actions")
			}
			body.Append(n)
		}
	}

	if jump.Skip {
		skipText, err := e.Templater.Resolve(e.Prims.Skip, false, nil, nil, "")
		if err != nil {
			return nil, errors.Annotate(err, "resolving skip primitive")
		}
		body.Append(codetree.NewRaw(e.Arena, skipText, false))
	}

	var transfer codetree.Node
	if jump.To != nil {
		transfer = codetree.NewGoto(e.Arena, jump.To.Label)
	}
	body.Append(transfer)

	if !jump.EOF {
		return body, nil
	}
	if e.Fill == nil || jump.To == nil {
		return body, nil
	}
	fallback, err := e.buildFallback(d, s, &jump)
	if err != nil {
		return nil, errors.Annotate(err, "building EOF fallback transfer")
	}
	plan, err := e.Fill.Plan(d, jump.To, body, fallback)
	if err != nil {
		return nil, errors.Annotate(err, "planning fill for EOF jump")
	}
	if !plan.Needed {
		return body, nil
	}
	out := codetree.NewList(e.Arena)
	out.Append(plan.StateSet)
	fillPart := plan.FillNode
	if plan.GuardCond != "" && !plan.Branches {
		fillPart = codetree.NewIf(e.Arena, plan.GuardCond, fillPart, nil)
	}
	out.Append(fillPart)
	return out, nil
}

// buildFallback returns the transfer code taken when a fill attempted
// while at s can never succeed and a partial match must yield: a goto to
// s.Fallback, preceded by s.FallbackTags's tag actions unless they are
// already hoisted onto s.Tags. following is the jump this fallback is
// built alongside (nil when there is none to compare against); when
// following already transfers to the same destination with the same
// tags, no skip, and the block is not a fill-enabled REC_FUNC, the
// fallback transition is redundant and elided. States with no
// precomputed fallback (no EOF rule reaches them) degrade to an
// unconditional abort.
func (e *Emitter) buildFallback(d *dfa.DFA, s *dfa.State, following *dfa.CodeJump) (codetree.Node, error) {
	if s.Fallback == nil {
		return codetree.NewRaw(e.Arena, "goto yyabort", false), nil
	}
	tags := s.FallbackTags
	if s.Tags != dfa.TCID0 {
		tags = dfa.TCID0
	}
	if following != nil && following.To == s.Fallback && following.Tags == tags &&
		!following.Skip && !(e.RecFunc && e.Opts.FillEnable) {
		return nil, nil
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

// sortSpansByCond stabilizes the emission order of independent-if chains
// so re-runs over the same DFA produce byte-identical output.
func sortSpansByCond(e *Emitter, spans []dfa.Span) []dfa.Span {
	out := make([]dfa.Span, len(spans))
	copy(out, spans)
	sort.Slice(out, func(i, j int) bool {
		return e.spanCond(out[i]) < e.spanCond(out[j])
	})
	return out
}
