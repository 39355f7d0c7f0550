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

// Package dfa holds the data model the code-generation core consumes: an
// already-built, already-optimized DFA together with its rules, tags, and
// tag-command pool. Nothing in this package builds a DFA from a regular
// expression; that is the scanner's job, an external collaborator.
package dfa
