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

// Package render is a minimal, test-only flattening of a codetree.Program
// to text. It exists so tests can assert on emitted shape with plain
// string matching; it is not the production render pass, which belongs
// to a downstream target-language backend this repository does not
// implement.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
)

// Program flattens every block in p, in order, separated by a blank
// line, followed by any cross-block directive fragments.
func Program(p *codetree.Program) string {
	var b strings.Builder
	for i, blk := range p.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Block(&blk))
	}
	for _, d := range p.Directives {
		writeNode(&b, d, 0)
	}
	return b.String()
}

// Block flattens one BlockProgram: its declarations, then its body.
func Block(b *codetree.BlockProgram) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// block %s\n", b.Name)
	for _, d := range b.Decls {
		writeNode(&sb, d, 0)
	}
	writeNode(&sb, b.Body, 0)
	return sb.String()
}

func indentStr(depth int) string {
	return strings.Repeat("\t", depth)
}

// writeNode is the single recursive dispatch every node kind goes
// through; unhandled kinds fall through to a %#v dump instead of a
// panic, since this is a debug aid, not a shipped renderer.
func writeNode(b *strings.Builder, n codetree.Node, depth int) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *codetree.List:
		for _, s := range v.Stmts {
			writeNode(b, s, depth)
		}
	case *codetree.Raw:
		b.WriteString(indentStr(depth))
		b.WriteString(v.Text)
		if v.Naked {
			b.WriteString("\n")
		} else {
			b.WriteString("\n")
		}
	case *codetree.Assign:
		op := "="
		if v.Declare {
			op = ":="
		}
		fmt.Fprintf(b, "%s%s %s %s\n", indentStr(depth), v.Lhs, op, v.Rhs)
	case *codetree.VarDecl:
		if v.Init != "" {
			fmt.Fprintf(b, "%svar %s %s = %s\n", indentStr(depth), v.Name, v.Type, v.Init)
		} else {
			fmt.Fprintf(b, "%svar %s %s\n", indentStr(depth), v.Name, v.Type)
		}
	case *codetree.Comment:
		fmt.Fprintf(b, "%s// %s\n", indentStr(depth), v.Text)
	case *codetree.LabelDecl:
		fmt.Fprintf(b, "%s:\n", labelText(v.Lbl))
	case *codetree.Goto:
		fmt.Fprintf(b, "%sgoto %s\n", indentStr(depth), labelText(v.Lbl))
	case *codetree.TailCall:
		fmt.Fprintf(b, "%sreturn %s(%s)\n", indentStr(depth), v.Func, strings.Join(v.Args, ", "))
	case *codetree.If:
		fmt.Fprintf(b, "%sif %s {\n", indentStr(depth), v.Cond)
		writeNode(b, v.Then, depth+1)
		if v.Else != nil {
			fmt.Fprintf(b, "%s} else {\n", indentStr(depth))
			writeNode(b, v.Else, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indentStr(depth))
	case *codetree.Switch:
		fmt.Fprintf(b, "%sswitch %s {\n", indentStr(depth), v.Discriminant)
		for _, c := range v.Cases {
			fmt.Fprintf(b, "%scase %s:\n", indentStr(depth), strings.Join(c.Values, ", "))
			writeNode(b, c.Body, depth+1)
		}
		if v.Default != nil {
			fmt.Fprintf(b, "%sdefault:\n", indentStr(depth))
			writeNode(b, v.Default, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indentStr(depth))
	case *codetree.ArrayLit:
		fmt.Fprintf(b, "%svar %s = [%d]%s{%s}\n", indentStr(depth), v.Name, len(v.Elems), v.ElemType, strings.Join(v.Elems, ", "))
	case *codetree.FuncDef:
		ret := v.ReturnType
		if ret != "" {
			ret = " " + ret
		}
		fmt.Fprintf(b, "%sfunc %s(%s)%s {\n", indentStr(depth), v.Name, strings.Join(v.Params, ", "), ret)
		writeNode(b, v.Body, depth+1)
		fmt.Fprintf(b, "%s}\n", indentStr(depth))
	case *codetree.Enum:
		fmt.Fprintf(b, "%stype %s int\n%sconst (\n", indentStr(depth), v.Name, indentStr(depth))
		for _, m := range v.Members {
			if m.HasValue {
				fmt.Fprintf(b, "%s\t%s = %s\n", indentStr(depth), m.Name, m.Value)
			} else {
				fmt.Fprintf(b, "%s\t%s\n", indentStr(depth), m.Name)
			}
		}
		fmt.Fprintf(b, "%s)\n", indentStr(depth))
	case *codetree.DotEdge:
		fmt.Fprintf(b, "%s%d -> %d [label=%q]\n", indentStr(depth), v.From, v.To, v.Label)
	default:
		fmt.Fprintf(b, "%s%#v\n", indentStr(depth), n)
	}
}

func labelText(l *dfa.Label) string {
	if l == nil {
		return "<nil-label>"
	}
	if l.Index == dfa.LabelNone {
		return l.Name
	}
	return l.Name + strconv.Itoa(l.Index)
}
