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

// Package relexgen wires the DFA/tag/fill/transition/action/block/
// directive components into two entry points, GenerateBlocks and its
// single-DFA convenience wrapper Generate: a synchronous, single-
// threaded transformation from already-built DFAs into a code tree
// ready for a textual render pass.
package relexgen

import (
	"github.com/relexgen/relexgen/internal/action"
	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/block"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/diag"
	"github.com/relexgen/relexgen/internal/directive"
	"github.com/relexgen/relexgen/internal/fillplan"
	"github.com/relexgen/relexgen/internal/opts"
	"github.com/relexgen/relexgen/internal/tagcode"
	"github.com/relexgen/relexgen/internal/transition"
)

// RuleFor resolves the *dfa.Rule and action.RuleContext a RULE-kind
// state fires, given the DFA and the state itself. The core has no
// start-condition graph of its own — that belongs to the scanner
// front-end that built the DFA — so callers of Generate must supply it.
type RuleFor func(d *dfa.DFA, s *dfa.State) (*dfa.Rule, action.RuleContext)

// Generate runs one DFA through every stage of the backend and returns
// the resulting code tree, plus a diagnostic sink that accumulates
// configuration errors and advisory warnings encountered along the way.
// The DFA is assumed already validated and structurally complete (fallback
// states resolved, tag actions hoisted where applicable); Generate itself
// performs no such analysis. It is a convenience wrapper around
// GenerateBlocks for the common case of a single, condition-less DFA.
func Generate(d *dfa.DFA, o *opts.Options, ruleFor RuleFor) (*codetree.Program, *diag.Sink) {
	blk := dfa.NewBlock(blockName(d))
	blk.Accumulate(d)
	return GenerateBlocks([]*dfa.Block{blk}, o, ruleFor)
}

// GenerateBlocks runs every block through assembly and returns the
// combined program: one BlockProgram per block, in order, plus whatever
// cross-block directives (types:re2c, stags:re2c/mtags:re2c,
// maxfill:re2c/maxnmatch:re2c, getstate:re2c) the accumulators the
// blocks collected while their DFAs were assembled call for. A block
// whose DFAs share more than one start condition contributes a
// condition-dispatch switch to its own BlockProgram (see
// internal/block); GenerateBlocks itself only reduces what the blocks
// accumulated into the file-wide directives.
func GenerateBlocks(blocks []*dfa.Block, o *opts.Options, ruleFor RuleFor) (*codetree.Program, *diag.Sink) {
	sink := &diag.Sink{}
	if o == nil {
		o = opts.Default()
	}
	prog, err := generateBlocks(blocks, o, ruleFor, sink)
	if err != nil {
		sink.Errorf(diag.Pos{}, diag.CodeBlockNotFound, "%s", err.Error())
		return nil, sink
	}
	return prog, sink
}

func blockName(d *dfa.DFA) string {
	if d.Name != "" {
		return d.Name
	}
	return "block0"
}

func generateBlocks(blocks []*dfa.Block, o *opts.Options, ruleFor RuleFor, sink *diag.Sink) (*codetree.Program, error) {
	a := arena.New()
	tmpl := api.New(o.APIStyle, o.Sigil)

	tagEmitter := tagcode.New(a, tmpl, o.Primitives, o.Vars, "")
	fillPlanner := fillplan.New(a, tmpl, o.Primitives, o.Vars, o)

	var abort *dfa.Label
	if o.StateAbort {
		abort = dfa.NewLabel("yyabort")
	}

	bps := make([]codetree.BlockProgram, 0, len(blocks))
	var blockConds []directive.BlockConditions
	var sNames, mNames [][]string
	var maxFills, maxNMatches []int
	fillGoto := map[int]*dfa.Label{}
	var firstStart *dfa.Label

	for _, blk := range blocks {
		if len(blk.Conditions) > 1 && o.CodeModel == opts.CodeModelGotoLabel {
			sink.Warnf(diag.Pos{}, diag.CodeConditionOrder,
				"block %q dispatches %d conditions by internal numbering; GOTO_LABEL exports no condition-type header", blk.Name, len(blk.Conditions))
		}

		recFunc := o.CodeModel == opts.CodeModelRecFunc
		transEmitter := transition.New(a, tmpl, o.Primitives, o.Vars, o, tagEmitter, fillPlanner, recFunc)
		actEmitter := action.New(a, tmpl, o.Primitives, o.Vars, o, fillPlanner, tagEmitter, blockMultiAccept(blk))
		assembler := block.New(a, tmpl, o, transEmitter, actEmitter, abort)

		bp, err := assembler.Assemble(blk, func(d *dfa.DFA, s *dfa.State) (*dfa.Rule, action.RuleContext) {
			return ruleFor(d, s)
		})
		if err != nil {
			return nil, err
		}
		bps = append(bps, *bp)

		if firstStart == nil {
			firstStart = blk.StartLabel
		}
		if len(blk.Conditions) > 0 {
			conds := make([]directive.Condition, len(blk.Conditions))
			for i, name := range blk.Conditions {
				conds[i] = directive.Condition{Name: name, Value: blk.ConditionValues[name]}
			}
			blockConds = append(blockConds, directive.BlockConditions{Prefix: o.Primitives.CondEnumPfx, Conditions: conds})
		}
		sNames = append(sNames, blk.SNames)
		mNames = append(mNames, blk.MNames)
		maxFills = append(maxFills, blk.MaxFill)
		maxNMatches = append(maxNMatches, blk.MaxNMatch)
		for slot, label := range blk.FillGoto {
			fillGoto[slot] = label
		}
	}

	dirs, err := expandDirectives(a, o, blockConds, sNames, mNames, maxFills, maxNMatches, fillGoto, firstStart, abort)
	if err != nil {
		return nil, err
	}
	return &codetree.Program{Blocks: bps, Directives: dirs}, nil
}

// expandDirectives reduces every block's accumulators into the file-wide
// directive fragments. types:re2c is omitted when no block declared
// conditions, stags:re2c/mtags:re2c when no block named such tags, and
// getstate:re2c without storable state; maxfill:re2c and maxnmatch:re2c
// are always emitted.
func expandDirectives(a *arena.Arena, o *opts.Options, blockConds []directive.BlockConditions, sNames, mNames [][]string, maxFills, maxNMatches []int, fillGoto map[int]*dfa.Label, firstStart *dfa.Label, abort *dfa.Label) ([]codetree.Node, error) {
	exp := directive.New(a, o)
	var out []codetree.Node

	if len(blockConds) > 0 {
		format := "#define %s"
		if o.CodeModel != opts.CodeModelGotoLabel {
			format = "%s"
		}
		types, err := exp.ExpandTypes(blockConds, format, "\n")
		if err != nil {
			return nil, err
		}
		out = append(out, types)
	}

	if hasAny(sNames) {
		out = append(out, exp.ExpandTagNames(sNames, "// stag %s", "\n"))
	}
	if hasAny(mNames) {
		out = append(out, exp.ExpandTagNames(mNames, "// mtag %s", "\n"))
	}

	out = append(out, exp.ExpandMax(maxFills, o.Primitives.MaxFill, true))
	out = append(out, exp.ExpandMax(maxNMatches, o.Primitives.MaxNMatch, true))

	if o.StorableState {
		entries := fillGotoEntries(fillGoto)
		out = append(out, exp.ExpandGetState(entries, firstStart, abort))
	}

	return out, nil
}

// fillGotoEntries turns a slot->label map into the positionally-indexed
// slice ExpandGetState expects, leaving gaps as nil-label entries.
func fillGotoEntries(fillGoto map[int]*dfa.Label) []directive.GetStateEntry {
	maxSlot := -1
	for slot := range fillGoto {
		if slot > maxSlot {
			maxSlot = slot
		}
	}
	if maxSlot < 0 {
		return nil
	}
	entries := make([]directive.GetStateEntry, maxSlot+1)
	for slot, label := range fillGoto {
		entries[slot] = directive.GetStateEntry{Label: label}
	}
	return entries
}

func hasAny(lists [][]string) bool {
	for _, l := range lists {
		if len(l) > 0 {
			return true
		}
	}
	return false
}

// blockMultiAccept reports whether any DFA in blk has a state whose
// accept table spans more than one distinct destination.
func blockMultiAccept(blk *dfa.Block) bool {
	for _, d := range blk.DFAs {
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
	}
	return false
}
