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

package opts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultUsesFunctionsAPIAndGotoLabelModel(t *testing.T) {
	o := Default()
	require.Equal(t, APIFunctions, o.APIStyle)
	require.Equal(t, CodeModelGotoLabel, o.CodeModel)
	require.Equal(t, TargetCode, o.Target)
	require.Equal(t, APIDefault, o.API)
}

func TestDefaultFillEOFIsNOEOF(t *testing.T) {
	o := Default()
	require.Equal(t, NOEOF, o.FillEOF)
	require.Equal(t, 0, NOEOF)
}

func TestDefaultPrimitivesAndVarsAreFullyPopulated(t *testing.T) {
	o := Default()
	require.Equal(t, "YYPEEK", o.Primitives.Peek)
	require.Equal(t, "YYFILL", o.Primitives.Fill)
	require.Equal(t, "YYCURSOR", o.Primitives.Cursor)
	require.Equal(t, "YYLIMIT", o.Primitives.Limit)
	require.Equal(t, "yych", o.Vars.Char)
	require.Equal(t, "yystate", o.Vars.State)
	require.Equal(t, "yytarget", o.Vars.ComputedGotosTable)
	require.NotEmpty(t, o.Vars.NegTag)
	require.NotEmpty(t, o.Vars.CtxMarker)
}

func TestDefaultReturnsIndependentInstances(t *testing.T) {
	a := Default()
	b := Default()
	a.Vars.Char = "mutated"
	require.Equal(t, "yych", b.Vars.Char, "Default must not share state across calls")
}

func TestDefaultEnablesFillWithComputedGotosThresholdEight(t *testing.T) {
	o := Default()
	require.True(t, o.FillEnable)
	require.True(t, o.FillCheck)
	require.Equal(t, 8, o.ComputedGotosThreshold)
	require.False(t, o.ComputedGotos)
}
