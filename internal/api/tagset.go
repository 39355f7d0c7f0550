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

package api

import (
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/opts"
)

// TagSetterPrimitive picks one of the four tag-setter primitives, based
// on whether the tag carries history and the sign of the history element
// currently being emitted (TagVerBottom is negative).
func TagSetterPrimitive(prims opts.Primitives, history bool, value int) string {
	negative := value == dfa.TagVerBottom
	switch {
	case history && negative:
		return prims.MTagSetNeg
	case history && !negative:
		return prims.MTagSetPos
	case !history && negative:
		return prims.STagSetNeg
	default:
		return prims.STagSetPos
	}
}
