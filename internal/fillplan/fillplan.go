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

// Package fillplan decides, for a single DFA state, whether a fill is
// required before the state's transitions can be taken, and if so builds
// the state-set, fill-call, and guard fragments that a block assembler
// stitches around the state's own transition code. It never decides how
// those fragments compose with the surrounding emission model; that is
// the block assembler's job.
package fillplan

import (
	"fmt"

	"github.com/pingcap/errors"
	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/opts"
)

// Planner holds everything the fill/EOF planner needs beyond the DFA/
// state data itself.
type Planner struct {
	Arena     *arena.Arena
	Templater *api.Templater
	Prims     opts.Primitives
	Vars      opts.Vars
	Opts      *opts.Options
}

// New returns a Planner.
func New(a *arena.Arena, t *api.Templater, prims opts.Primitives, vars opts.Vars, o *opts.Options) *Planner {
	return &Planner{Arena: a, Templater: t, Prims: prims, Vars: vars, Opts: o}
}

// Plan is the outcome of planning fill/EOF handling for one state. Needed
// is false when the state requires no fill at all, in which case every
// other field is a zero value.
type Plan struct {
	Needed bool
	Need   int

	// GuardCond is the less-than guard condition text, or empty when
	// fill_check is off or the fill block would be empty.
	GuardCond string

	// StateSet records the resumable fill-state, present only under
	// storable state.
	StateSet codetree.Node

	// FillNode is the fill call itself: either a plain statement, or —
	// under an EOF rule without storable state — an If whose Then is
	// resume and whose Else is fallback.
	FillNode codetree.Node

	// Branches is true when FillNode is the If described above, i.e.
	// the fill call's return value gates resume vs fallback.
	Branches bool
}

// Needs reports whether d's EOF rule forces unconditional fill at every
// non-endstate, or whether fill_enable and s's own fill amount call for
// one, per the ordinary (non-EOF) rule.
func (p *Planner) Needs(d *dfa.DFA, s *dfa.State) bool {
	if s.EndState() {
		return false
	}
	if d.EOFRule {
		return true
	}
	return p.Opts.FillEnable && p.Opts.FillEOF == opts.NOEOF && s.Fill > 0
}

// Need returns the character count a fill at s must obtain: 1 under an
// EOF rule, else the state's own recorded fill amount.
func (p *Planner) Need(d *dfa.DFA, s *dfa.State) int {
	if d.EOFRule {
		return 1
	}
	return s.Fill
}

// Plan builds the fragments for a fill at state s. resume is the code
// that continues scanning after a successful fill (a Goto to s's fill
// label, a tail call, or nil to fall through to whatever the caller
// emits next); fallback is the code taken when an EOF-rule fill without
// storable state reports failure, and is unused otherwise.
func (p *Planner) Plan(d *dfa.DFA, s *dfa.State, resume, fallback codetree.Node) (*Plan, error) {
	if !p.Needs(d, s) {
		return &Plan{Needed: false}, nil
	}
	need := p.Need(d, s)
	plan := &Plan{Needed: true, Need: need}

	if p.Opts.StorableState {
		if s.FillState == nil || s.FillState.FillLabel == nil {
			return nil, errors.Errorf("state %d requires a fill but has no fill-state/fill-label to resume at", s.Index)
		}
		slot := fmt.Sprintf("%d", s.FillState.FillLabel.Index)
		stateSetText, err := p.Templater.Resolve(p.Prims.StateSet, false, []string{slot}, map[string]string{"state": slot}, slot)
		if err != nil {
			return nil, errors.Annotate(err, "resolving state_set primitive")
		}
		plan.StateSet = codetree.NewRaw(p.Arena, stateSetText, false)
	}

	eofRule := d.EOFRule
	var fillArgs []string
	var lenArg string
	if !eofRule {
		lenArg = fmt.Sprintf("%d", need)
		fillArgs = []string{lenArg}
	}
	fillText, err := p.Templater.Resolve(p.Prims.Fill, true, fillArgs, map[string]string{"len": lenArg}, lenArg)
	if err != nil {
		return nil, errors.Annotate(err, "resolving fill primitive")
	}

	if eofRule && !p.Opts.StorableState {
		cond := fmt.Sprintf("%s == 0", fillText)
		plan.FillNode = codetree.NewIf(p.Arena, cond, resume, fallback)
		plan.Branches = true
	} else {
		body := codetree.NewList(p.Arena)
		body.Append(codetree.NewRaw(p.Arena, fillText+";", true))
		body.Append(resume)
		plan.FillNode = body
	}

	if p.Opts.FillCheck {
		// Under FUNCTIONS style Cursor and Limit already name the
		// expressions; only FREEFORM templates need resolving.
		cursor, limit := p.Prims.Cursor, p.Prims.Limit
		if p.Templater.Style != opts.APIFunctions {
			if cursor, err = p.Templater.Resolve(p.Prims.Cursor, true, nil, nil, ""); err != nil {
				return nil, errors.Annotate(err, "resolving cursor primitive")
			}
			if limit, err = p.Templater.Resolve(p.Prims.Limit, true, nil, nil, ""); err != nil {
				return nil, errors.Annotate(err, "resolving limit primitive")
			}
		}
		needArg := fmt.Sprintf("%d", need)
		if p.Prims.LessThan != "" {
			plan.GuardCond, err = p.Templater.Resolve(p.Prims.LessThan, true, []string{needArg}, map[string]string{"len": needArg}, needArg)
			if err != nil {
				return nil, errors.Annotate(err, "resolving less_than primitive")
			}
		} else {
			plan.GuardCond = fmt.Sprintf("%s - %s < %d", limit, cursor, need)
		}
	}

	return plan, nil
}
