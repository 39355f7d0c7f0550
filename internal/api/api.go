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

// Package api resolves the API primitives an emitted lexer calls, either
// as parenthesized function calls (FUNCTIONS style, positional
// arguments) or by substituting a user-supplied template (FREEFORM
// style, named placeholders plus a single sigil-marked unnamed one).
package api

import (
	"fmt"
	"strings"

	"github.com/pingcap/errors"
	"github.com/relexgen/relexgen/internal/opts"
)

// Style is an alias of opts.APIStyle, so the two names are
// interchangeable.
type Style = opts.APIStyle

// NamedKeys lists every named placeholder the FREEFORM substitution
// recognizes, in the order named substitutions must be attempted (this list is also the
// membership test: any sigil occurrence not immediately followed by one
// of these names is the unnamed placeholder).
var NamedKeys = []string{"tag", "shift", "len", "cond", "state", "num", "char"}

// Templater resolves primitives for one block, given its style and sigil.
type Templater struct {
	Style opts.APIStyle
	Sigil string
}

// New returns a Templater for the given style and sigil. Sigil is only
// meaningful for FREEFORM style.
func New(style opts.APIStyle, sigil string) *Templater {
	return &Templater{Style: style, Sigil: sigil}
}

// Resolve renders one primitive call.
//
// nameOrTemplate is opts.Primitives.* field: under FUNCTIONS style it is
// a bare function name; under FREEFORM style it is a template string.
// args are positional arguments used only in FUNCTIONS style. named and
// unnamed feed FREEFORM substitution; named must be a subset of
// NamedKeys, and unnamed may be empty if the template has no unnamed
// placeholder.
//
// naked suppresses the trailing statement separator.
func (t *Templater) Resolve(nameOrTemplate string, naked bool, args []string, named map[string]string, unnamed string) (string, error) {
	var body string
	var err error
	switch t.Style {
	case opts.APIFunctions:
		body = fmt.Sprintf("%s(%s)", nameOrTemplate, strings.Join(args, ", "))
	case opts.APIFreeform:
		body, err = t.substitute(nameOrTemplate, named, unnamed)
		if err != nil {
			return "", errors.Annotatef(err, "resolving freeform primitive %q", nameOrTemplate)
		}
	default:
		return "", errors.Errorf("unknown API style %v", t.Style)
	}
	if naked {
		return body, nil
	}
	return body + ";", nil
}

// substitute implements the FREEFORM substitution rules:
// named placeholders (sigil immediately followed by one of NamedKeys)
// are replaced from named; at most one unnamed placeholder (a bare sigil
// occurrence not followed by a known name) is permitted, and every named
// placeholder must appear before it in the template text.
func (t *Templater) substitute(template string, named map[string]string, unnamed string) (string, error) {
	if t.Sigil == "" {
		return "", errors.New("freeform API style requires a non-empty sigil")
	}
	var out strings.Builder
	rest := template
	seenUnnamed := false
	for {
		idx := strings.Index(rest, t.Sigil)
		if idx < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:idx])
		rest = rest[idx+len(t.Sigil):]

		key, matched := matchNamedKey(rest)
		if matched {
			if seenUnnamed {
				return "", errors.Errorf("named placeholder %q follows the unnamed placeholder in template %q", key, template)
			}
			val, ok := named[key]
			if !ok {
				return "", errors.Errorf("template %q references undefined named value %q", template, key)
			}
			out.WriteString(val)
			rest = rest[len(key):]
			continue
		}

		if seenUnnamed {
			return "", errors.Errorf("template %q has more than one unnamed placeholder", template)
		}
		seenUnnamed = true
		out.WriteString(unnamed)
	}
	return out.String(), nil
}

// matchNamedKey reports whether rest begins with one of NamedKeys.
func matchNamedKey(rest string) (string, bool) {
	for _, k := range NamedKeys {
		if strings.HasPrefix(rest, k) {
			return k, true
		}
	}
	return "", false
}
