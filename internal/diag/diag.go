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

// Package diag implements three kinds of diagnostic: configuration
// errors, structural assertions, and the "conditions
// implicit order" warning. All of it is a synchronous accumulate-then-
// report shape, mirrored on Lexer.AppendError/AppendWarn in TiDB's
// pkg/parser/lexer_helpers.go.
package diag

import (
	"fmt"

	"github.com/pingcap/errors"
)

// Severity distinguishes a hard failure from an advisory warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Code identifies the specific diagnostic, independent of its message
// text, so callers (and tests) can match on it rather than substrings.
type Code string

const (
	// CodeBlockNotFound: a directive referenced a block name that no
	// block in this run declared.
	CodeBlockNotFound Code = "block_not_found"
	// CodeEmptyBlockList: getstate:re2c named an empty block list.
	CodeEmptyBlockList Code = "empty_block_list"
	// CodeConditionCollision: two blocks declared the same condition
	// name with different numeric values.
	CodeConditionCollision Code = "condition_collision"
	// CodeConditionOrder: the "conditions implicit order" warning.
	CodeConditionOrder Code = "condition_order"
)

// Pos is a source location, threaded through from whatever produced the
// block or directive at fault. The core never constructs positions
// itself; it only carries them.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Diagnostic is one configuration error or warning.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Pos      Pos
	Message  string
}

func (d Diagnostic) Error() string {
	sev := "error"
	if d.Severity == SeverityWarning {
		return fmt.Sprintf("%s: warning: %s", d.Pos, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Pos, sev, d.Message)
}

// Sink accumulates diagnostics across an entire pipeline run.
// relexgen.GenerateBlocks stops at the first block that fails to
// assemble and records that one failure; no later block is checked.
type Sink struct {
	items []Diagnostic
}

// Errorf records a configuration error at pos.
func (s *Sink) Errorf(pos Pos, code Code, format string, args ...any) {
	s.items = append(s.items, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnf records an advisory warning at pos.
func (s *Sink) Warnf(pos Pos, code Code, format string, args ...any) {
	s.items = append(s.items, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any SeverityError diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// All returns every diagnostic recorded so far, in recording order.
func (s *Sink) All() []Diagnostic {
	return s.items
}

// AssertionError models an internal consistency check that cannot fire
// in a correct implementation. It is raised with panic, not
// returned, because by construction the caller has no recovery strategy
// for a corrupted DFA.
type AssertionError struct {
	Message string
	err     error
}

func (e *AssertionError) Error() string { return e.Message }
func (e *AssertionError) Unwrap() error { return e.err }

// Assertf panics with an *AssertionError, wrapped with a stack trace via
// pingcap/errors, when cond is false. Every call site in this repository
// checks a structural invariant that a correct pipeline must never
// violate.
func Assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	panic(&AssertionError{Message: msg, err: errors.Errorf("%s", msg)})
}
