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
	"testing"

	"github.com/relexgen/relexgen/internal/api"
	"github.com/relexgen/relexgen/internal/arena"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/opts"
	"github.com/relexgen/relexgen/internal/render"
	"github.com/stretchr/testify/require"
)

func newFunctionsEmitter() *Emitter {
	o := opts.Default()
	return New(arena.New(), api.New(opts.APIFunctions, ""), o.Primitives, o.Vars, "")
}

func newFreeformEmitter() *Emitter {
	o := opts.Default()
	o.Primitives.STagSetPos = "@@tag = @@"
	o.Primitives.STagSetNeg = "@@tag = nil"
	o.Primitives.MTagSetPos = "push(@@tag, @@)"
	o.Primitives.MTagSetNeg = "push(@@tag, nil)"
	return New(arena.New(), api.New(opts.APIFreeform, "@@"), o.Primitives, o.Vars, "")
}

func renderNode(n codetree.Node) string {
	return render.Block(&codetree.BlockProgram{Name: "t", Body: n})
}

func TestEmitCommandsPlainCopy(t *testing.T) {
	e := newFunctionsEmitter()
	cmd := &dfa.TagCommand{Lhs: 2, Rhs: 1}
	n, err := e.EmitCommands(cmd)
	require.NoError(t, err)
	require.Equal(t, "// block t\nyyt2 = yyt1\n", renderNode(n))
}

func TestEmitCommandsSaveRunFixedSplitsPositiveAndNegative(t *testing.T) {
	e := newFunctionsEmitter()
	c1 := &dfa.TagCommand{Lhs: 1, IsSave: true, Sign: 0}
	c2 := &dfa.TagCommand{Lhs: 2, IsSave: true, Sign: dfa.TagVerBottom}
	c3 := &dfa.TagCommand{Lhs: 3, IsSave: true, Sign: 0}
	c1.Next, c2.Next = c2, c3

	n, err := e.EmitCommands(c1)
	require.NoError(t, err)
	require.Equal(t, "// block t\nyyt1, yyt3 = YYCURSOR, YYCURSOR\nyyt2 = nil\n", renderNode(n))
}

func TestEmitCommandsSaveFreeformSingleTag(t *testing.T) {
	e := newFreeformEmitter()
	cmd := &dfa.TagCommand{Lhs: 4, IsSave: true, Sign: 0}
	n, err := e.EmitCommands(cmd)
	require.NoError(t, err)
	require.Equal(t, "// block t\nyyt4 = yyt4;\n", renderNode(n))
}

func TestEmitCommandsSaveHistoryReversesOrderAndKeepsSign(t *testing.T) {
	e := newFunctionsEmitter()
	cmd := &dfa.TagCommand{Lhs: 5, Rhs: 5, History: []int{7, dfa.TagVerBottom, 9}}
	n, err := e.EmitCommands(cmd)
	require.NoError(t, err)
	// no self-copy since Lhs == Rhs; history emitted most-recent-first: 9, -1, 7.
	require.Equal(t, "// block t\nYYMTAGP(yyt5);\nYYMTAGN(yyt5);\nYYMTAGP(yyt5);\n", renderNode(n))
}

func TestEmitCommandsSaveHistoryEmitsSelfCopyWhenLhsDiffersFromRhs(t *testing.T) {
	e := newFunctionsEmitter()
	cmd := &dfa.TagCommand{Lhs: 6, Rhs: 2, History: []int{3}}
	n, err := e.EmitCommands(cmd)
	require.NoError(t, err)
	require.Equal(t, "// block t\nyyt6 = yyt2\nYYMTAGP(yyt6);\n", renderNode(n))
}

func TestEmitCtxMarkerFunctionsStyleAssignsCursorToCtxVar(t *testing.T) {
	e := newFunctionsEmitter()
	n, err := e.EmitCtxMarker()
	require.NoError(t, err)
	require.Equal(t, "// block t\nctxmarker := YYCURSOR\n", renderNode(n))
}

func TestEmitCtxMarkerFreeformStyleCallsBackupCtx(t *testing.T) {
	e := newFreeformEmitter()
	e.Prims.BackupCtx = "backupctx()"
	n, err := e.EmitCtxMarker()
	require.NoError(t, err)
	require.Equal(t, "// block t\nbackupctx();\n", renderNode(n))
}

func TestEmitFinTagsNumberedCaptureVariable(t *testing.T) {
	e := newFunctionsEmitter()
	tags := []dfa.Tag{{Kind: dfa.TagCapture, LSub: 2, HSub: 3, Toplevel: true}}
	rule := &dfa.Rule{LTag: 0, HTag: 1, NCap: 1}

	fin, err := e.EmitFinTags(rule, tags, false)
	require.NoError(t, err)
	got := renderNode(codetree.NewList(e.Arena).Append(fin.All()...))
	require.Contains(t, got, "yynmatch = 1")
	require.Contains(t, got, "yypmatch[2] = yyt0")
}

func TestEmitFinTagsFixedTrailingEmitsShift(t *testing.T) {
	e := newFunctionsEmitter()
	tags := []dfa.Tag{{Kind: dfa.TagNamed, Name: "eol", Fixed: true, Trailing: true, Toplevel: true, Base: dfa.Rightmost, Dist: 3}}
	rule := &dfa.Rule{LTag: 0, HTag: 1}

	fin, err := e.EmitFinTags(rule, tags, false)
	require.NoError(t, err)
	got := renderNode(fin.CursorRestore)
	require.Equal(t, "// block t\nYYSHIFT(-3);\n", got)
}

func TestEmitFinTagsFixedInnerToplevelAssignsDirectly(t *testing.T) {
	e := newFunctionsEmitter()
	tags := []dfa.Tag{{Kind: dfa.TagNamed, Name: "yr", Fixed: true, Toplevel: true, Base: dfa.Rightmost, Dist: 2}}
	rule := &dfa.Rule{LTag: 0, HTag: 1}

	fin, err := e.EmitFinTags(rule, tags, false)
	require.NoError(t, err)
	got := renderNode(fin.FixedAssigns)
	require.Equal(t, "// block t\nyr = YYCURSOR - 2\n", got)
}

func TestEmitFinTagsFixedInnerNonToplevelGuardsOnNilFunctionsStyle(t *testing.T) {
	e := newFunctionsEmitter()
	tags := []dfa.Tag{{Kind: dfa.TagNamed, Name: "inner", Fixed: true, Toplevel: false, Base: dfa.Rightmost, Dist: 0}}
	rule := &dfa.Rule{LTag: 0, HTag: 1}

	fin, err := e.EmitFinTags(rule, tags, false)
	require.NoError(t, err)
	require.Nil(t, fin.Fence, "FUNCTIONS style never needs the negtag fence")
	got := renderNode(fin.FixedAssigns)
	require.Contains(t, got, "inner = YYCURSOR")
	require.Contains(t, got, "if inner != nil {")
}

func TestEmitFinTagsFixedInnerNonToplevelUsesFenceUnderFreeform(t *testing.T) {
	e := newFreeformEmitter()
	tags := []dfa.Tag{{Kind: dfa.TagNamed, Name: "inner", Fixed: true, Toplevel: false, Base: dfa.Rightmost, Dist: 0}}
	rule := &dfa.Rule{LTag: 0, HTag: 1}

	fin, err := e.EmitFinTags(rule, tags, false)
	require.NoError(t, err)
	require.NotNil(t, fin.Fence)
	fenceText := renderNode(fin.Fence)
	require.Contains(t, fenceText, "negtag := YYCURSOR")
	postFixText := renderNode(fin.PostFix)
	require.Contains(t, postFixText, "if inner != negtag {")
}

func TestEmitFinTagsVariableTrailingUsesRestorePrimitive(t *testing.T) {
	e := newFunctionsEmitter()
	tags := []dfa.Tag{{Kind: dfa.TagNamed, Name: "eol", Fixed: false, Trailing: true, Toplevel: true}}
	rule := &dfa.Rule{LTag: 0, HTag: 1}

	fin, err := e.EmitFinTags(rule, tags, false)
	require.NoError(t, err)
	got := renderNode(fin.CursorRestore)
	require.Equal(t, "// block t\nYYRESTORE(yyt0);\n", got)
}

func TestEmitFinTagsVariableTrailingOldStyleUsesRestoreCtx(t *testing.T) {
	e := newFunctionsEmitter()
	tags := []dfa.Tag{{Kind: dfa.TagNamed, Name: "eol", Fixed: false, Trailing: true, Toplevel: true}}
	rule := &dfa.Rule{LTag: 0, HTag: 1}

	fin, err := e.EmitFinTags(rule, tags, true)
	require.NoError(t, err)
	got := renderNode(fin.CursorRestore)
	require.Equal(t, "// block t\nYYRESTORECTX();\n", got)
}

func TestEmitFinTagsRejectsOutOfRangeTagIndex(t *testing.T) {
	e := newFunctionsEmitter()
	rule := &dfa.Rule{LTag: 0, HTag: 2}
	_, err := e.EmitFinTags(rule, []dfa.Tag{{}}, false)
	require.Error(t, err)
}
