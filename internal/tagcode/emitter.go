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

// Package tagcode implements the tag-command-list emitter and the final
// ("fin-") tag emitter: translating a tag-command list into assignments
// and API calls, and translating a matched rule's tag range into the
// assignments that populate its submatches.
package tagcode

import (
	"fmt"

	"github.com/pingcap/errors"
	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/opts"
)

// Emitter holds everything the tag emitters need beyond the DFA/rule
// data itself: an arena for the nodes it builds and the API templater
// used to resolve every primitive call.
type Emitter struct {
	Arena     *arena.Arena
	Templater *api.Templater
	Prims     opts.Primitives
	Vars      opts.Vars

	// VarPrefix names tag-version variables; tagExpr(3) with the
	// default prefix produces "yyt3".
	VarPrefix string
}

// New returns an Emitter. If prefix is empty, "yyt" is used.
func New(a *arena.Arena, t *api.Templater, prims opts.Primitives, vars opts.Vars, prefix string) *Emitter {
	if prefix == "" {
		prefix = "yyt"
	}
	return &Emitter{Arena: a, Templater: t, Prims: prims, Vars: vars, VarPrefix: prefix}
}

func (e *Emitter) tagExpr(v int) string {
	return fmt.Sprintf("%s%d", e.VarPrefix, v)
}

// cursorExpr returns the cursor expression: the Cursor primitive as is
// under FUNCTIONS style, where it already names that expression, or its
// resolved template under FREEFORM style.
func (e *Emitter) cursorExpr() (string, error) {
	if e.Templater.Style == opts.APIFunctions {
		return e.Prims.Cursor, nil
	}
	return e.Templater.Resolve(e.Prims.Cursor, true, nil, nil, "")
}

// EmitCommands walks a tag-command list starting at head and returns the
// code tree implementing every command in order.
func (e *Emitter) EmitCommands(head *dfa.TagCommand) (codetree.Node, error) {
	out := codetree.NewList(e.Arena)
	for cmd := head; cmd != nil; {
		switch cmd.Classify() {
		case dfa.TagCmdCopy:
			out.Append(e.emitCopy(cmd))
			cmd = cmd.Next

		case dfa.TagCmdSaveHistory:
			n, err := e.emitSaveHistory(cmd)
			if err != nil {
				return nil, err
			}
			out.Append(n)
			cmd = cmd.Next

		case dfa.TagCmdSave:
			if e.Templater.Style == opts.APIFunctions {
				run, rest := collectSaveRun(cmd)
				n, err := e.emitSaveRunFixed(run)
				if err != nil {
					return nil, err
				}
				out.Append(n)
				cmd = rest
			} else {
				n, err := e.emitSaveFreeform(cmd)
				if err != nil {
					return nil, err
				}
				out.Append(n)
				cmd = cmd.Next
			}

		default:
			return nil, errors.Errorf("unknown tag command classification for lhs=%d rhs=%d", cmd.Lhs, cmd.Rhs)
		}
	}
	return out, nil
}

func (e *Emitter) emitCopy(cmd *dfa.TagCommand) codetree.Node {
	return codetree.NewAssign(e.Arena, e.tagExpr(cmd.Lhs), e.tagExpr(cmd.Rhs), false)
}

// emitSaveHistory emits a save-with-history command: an optional
// self-copy, then one tag-set per history element, iterated in reverse
// (the reverse order is load-bearing: forward iteration would produce
// observably different captures on histories with interleaved
// positive/negative tags).
func (e *Emitter) emitSaveHistory(cmd *dfa.TagCommand) (codetree.Node, error) {
	out := codetree.NewList(e.Arena)
	if cmd.Lhs != cmd.Rhs {
		out.Append(e.emitCopy(cmd))
	}
	arg := e.tagExpr(cmd.Lhs)
	for _, v := range cmd.ReverseHistory() {
		setter := api.TagSetterPrimitive(e.Prims, true, v)
		text, err := e.Templater.Resolve(setter, false, []string{arg}, map[string]string{"tag": arg}, arg)
		if err != nil {
			return nil, errors.Annotate(err, "emitting history tag-set")
		}
		out.Append(codetree.NewRaw(e.Arena, text, false))
	}
	return out, nil
}

// emitSaveFreeform emits the FREEFORM half of a save-without-history
// command: a single tag-set, sign taken from the command's own recorded
// sign.
func (e *Emitter) emitSaveFreeform(cmd *dfa.TagCommand) (codetree.Node, error) {
	arg := e.tagExpr(cmd.Lhs)
	setter := api.TagSetterPrimitive(e.Prims, false, cmd.Sign)
	text, err := e.Templater.Resolve(setter, false, []string{arg}, map[string]string{"tag": arg}, arg)
	if err != nil {
		return nil, errors.Annotate(err, "emitting freeform tag-set")
	}
	return codetree.NewRaw(e.Arena, text, false), nil
}

// collectSaveRun collects a maximal run of consecutive save-without-
// history commands starting at cmd, returning the run and the first
// command after it (nil at end of list).
func collectSaveRun(cmd *dfa.TagCommand) ([]*dfa.TagCommand, *dfa.TagCommand) {
	var run []*dfa.TagCommand
	for cmd != nil && cmd.Classify() == dfa.TagCmdSave {
		run = append(run, cmd)
		cmd = cmd.Next
	}
	return run, cmd
}

// emitSaveRunFixed emits the FUNCTIONS-API half of a save-without-history
// run: collect a run of consecutive save commands into two vector
// assignments, positive ones to the cursor expression and negative ones
// to a null literal.
func (e *Emitter) emitSaveRunFixed(run []*dfa.TagCommand) (codetree.Node, error) {
	cursor, err := e.cursorExpr()
	if err != nil {
		return nil, errors.Annotate(err, "resolving cursor primitive")
	}

	var posLhs, negLhs []string
	for _, cmd := range run {
		expr := e.tagExpr(cmd.Lhs)
		if cmd.Sign == dfa.TagVerBottom {
			negLhs = append(negLhs, expr)
		} else {
			posLhs = append(posLhs, expr)
		}
	}

	out := codetree.NewList(e.Arena)
	if len(posLhs) > 0 {
		out.Append(codetree.NewAssign(e.Arena, joinComma(posLhs), repeatJoin(cursor, len(posLhs)), false))
	}
	if len(negLhs) > 0 {
		out.Append(codetree.NewAssign(e.Arena, joinComma(negLhs), repeatJoin("nil", len(negLhs)), false))
	}
	return out, nil
}

// EmitCtxMarker emits the old-style single trailing-context marker.
func (e *Emitter) EmitCtxMarker() (codetree.Node, error) {
	if e.Templater.Style == opts.APIFreeform {
		text, err := e.Templater.Resolve(e.Prims.BackupCtx, false, nil, nil, "")
		if err != nil {
			return nil, errors.Annotate(err, "resolving backup_ctx primitive")
		}
		return codetree.NewRaw(e.Arena, text, false), nil
	}
	cursor, err := e.cursorExpr()
	if err != nil {
		return nil, errors.Annotate(err, "resolving cursor primitive")
	}
	name := e.Vars.CtxMarker
	if name == "" {
		name = "ctxmarker"
	}
	return codetree.NewAssign(e.Arena, name, cursor, true), nil
}

func joinComma(items []string) string {
	out := items[0]
	for _, s := range items[1:] {
		out += ", " + s
	}
	return out
}

func repeatJoin(s string, n int) string {
	out := s
	for i := 1; i < n; i++ {
		out += ", " + s
	}
	return out
}
