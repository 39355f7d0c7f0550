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

package tagcode

import (
	"fmt"
	"strconv"

	"github.com/pingcap/errors"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/diag"
	"github.com/relexgen/relexgen/internal/opts"
)

// FinTags is the result of EmitFinTags: four lists assembled in emission
// order, plus the FREEFORM-only fence between the third and fourth.
// Every field may be nil when the rule contributes nothing to that list.
type FinTags struct {
	VarAssigns    codetree.Node
	FixedAssigns  codetree.Node
	CursorRestore codetree.Node
	Fence         codetree.Node
	PostFix       codetree.Node
}

// All flattens the four-or-five lists into emission order.
func (f *FinTags) All() []codetree.Node {
	return []codetree.Node{f.VarAssigns, f.FixedAssigns, f.CursorRestore, f.Fence, f.PostFix}
}

// EmitFinTags is called once per matched rule, before its semantic
// action; it assigns yynmatch (if the rule declares
// captures) and every fintag the rule's tag range populates.
func (e *Emitter) EmitFinTags(rule *dfa.Rule, tags []dfa.Tag, oldStyleCtxMarker bool) (*FinTags, error) {
	res := &FinTags{
		VarAssigns:    codetree.NewList(e.Arena),
		FixedAssigns:  codetree.NewList(e.Arena),
		CursorRestore: codetree.NewList(e.Arena),
		PostFix:       codetree.NewList(e.Arena),
	}
	varAssigns := res.VarAssigns.(*codetree.List)
	fixedAssigns := res.FixedAssigns.(*codetree.List)
	cursorRestore := res.CursorRestore.(*codetree.List)
	postFix := res.PostFix.(*codetree.List)

	if rule.NCap > 0 {
		varAssigns.Append(codetree.NewAssign(e.Arena, e.Vars.NMatch, strconv.Itoa(rule.NCap), false))
	}

	freeform := e.Templater.Style == opts.APIFreeform
	negtagName := e.Vars.NegTag
	if negtagName == "" {
		negtagName = "negtag"
	}
	haveFence := false

	for i := rule.LTag; i < rule.HTag; i++ {
		if i < 0 || i >= len(tags) {
			return nil, errors.Errorf("tag index %d out of range [0,%d)", i, len(tags))
		}
		t := &tags[i]
		if t.IsFictive() {
			continue
		}
		fts := e.fintags(t, i)
		if len(fts) == 0 {
			return nil, errors.Errorf("tag %d (%s) produced no fintags", i, t.Name)
		}

		switch {
		case !t.Fixed && t.Trailing:
			n, err := e.emitVariableTrailingRestore(i, oldStyleCtxMarker)
			if err != nil {
				return nil, err
			}
			cursorRestore.Append(n)

		case !t.Fixed && !t.Trailing:
			for _, f := range fts {
				varAssigns.Append(codetree.NewAssign(e.Arena, f, e.tagExpr(i), false))
			}

		case t.Fixed && t.Trailing:
			diag.Assertf(t.Toplevel, "fixed trailing tag %d must be toplevel", i)
			if t.Base != dfa.Rightmost {
				n, err := e.emitVariableTrailingRestore(t.Base, oldStyleCtxMarker)
				if err != nil {
					return nil, err
				}
				cursorRestore.Append(n)
			}
			shiftArg := strconv.Itoa(-t.Dist)
			shiftText, err := e.Templater.Resolve(e.Prims.Shift, false, []string{shiftArg}, map[string]string{"shift": shiftArg}, shiftArg)
			if err != nil {
				return nil, errors.Annotate(err, "resolving shift primitive")
			}
			cursorRestore.Append(codetree.NewRaw(e.Arena, shiftText, false))

		case t.Fixed && !t.Trailing && t.Toplevel:
			base := e.baseExpr(t)
			val := base
			if t.Dist != 0 {
				val = fmt.Sprintf("%s - %d", base, t.Dist)
			}
			for _, f := range fts {
				fixedAssigns.Append(codetree.NewAssign(e.Arena, f, val, false))
			}

		default: // fixed, non-trailing, inner
			first := fts[0]
			base := e.baseExpr(t)
			if freeform && !haveFence {
				res.Fence = codetree.NewAssign(e.Arena, negtagName, base, true)
				haveFence = true
			}
			fixedAssigns.Append(codetree.NewAssign(e.Arena, first, base, false))

			var guardCond string
			if freeform {
				guardCond = fmt.Sprintf("%s != %s", first, negtagName)
			} else {
				guardCond = fmt.Sprintf("%s != nil", first)
			}
			body := codetree.NewList(e.Arena)
			if t.Dist != 0 {
				body.Append(codetree.NewAssign(e.Arena, first, fmt.Sprintf("%s - %d", first, t.Dist), false))
			}
			for _, f := range fts[1:] {
				body.Append(codetree.NewAssign(e.Arena, f, first, false))
			}
			guarded := codetree.NewIf(e.Arena, guardCond, body, nil)
			if freeform {
				postFix.Append(guarded)
			} else {
				fixedAssigns.Append(guarded)
			}
		}
	}

	if !freeform || !haveFence {
		res.Fence = nil
	}
	return res, nil
}

func (e *Emitter) emitVariableTrailingRestore(tagIndex int, oldStyleCtxMarker bool) (codetree.Node, error) {
	if oldStyleCtxMarker {
		text, err := e.Templater.Resolve(e.Prims.RestoreCtx, false, nil, nil, "")
		if err != nil {
			return nil, errors.Annotate(err, "resolving restore_ctx primitive")
		}
		return codetree.NewRaw(e.Arena, text, false), nil
	}
	arg := e.tagExpr(tagIndex)
	text, err := e.Templater.Resolve(e.Prims.Restore, false, []string{arg}, map[string]string{"tag": arg}, arg)
	if err != nil {
		return nil, errors.Annotate(err, "resolving restore primitive")
	}
	return codetree.NewRaw(e.Arena, text, false), nil
}

func (e *Emitter) baseExpr(t *dfa.Tag) string {
	if t.Base == dfa.Rightmost {
		cursor, err := e.cursorExpr()
		if err != nil {
			return e.Prims.Cursor
		}
		return cursor
	}
	return e.tagExpr(t.Base)
}

// fintags expands a tag to the capture-parenthesis element expressions
// (numbered captures) or the single named expression (named captures) it
// populates.
func (e *Emitter) fintags(t *dfa.Tag, tagIndex int) []string {
	switch t.Kind {
	case dfa.TagCapture:
		out := make([]string, 0, t.HSub-t.LSub)
		for s := t.LSub; s < t.HSub; s++ {
			out = append(out, fmt.Sprintf("%s[%d]", e.Vars.PMatch, s))
		}
		return out
	case dfa.TagNamed:
		name := t.Name
		if name == "" {
			name = e.tagExpr(tagIndex)
		}
		return []string{name}
	default:
		return nil
	}
}
