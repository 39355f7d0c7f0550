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

package render

import (
	"fmt"
	"strings"

	"github.com/relexgen/relexgen/internal/codetree"
)

// Dump renders p as an indented S-expression instead of Go-shaped text,
// for callers that want the raw tree shape rather than something that
// reads like generated source.
func Dump(p *codetree.Program) string {
	var b strings.Builder
	b.WriteString("(program\n")
	for _, blk := range p.Blocks {
		dumpBlock(&b, &blk, 1)
	}
	for _, d := range p.Directives {
		dumpNode(&b, d, 1)
	}
	b.WriteString(")\n")
	return b.String()
}

func dumpBlock(b *strings.Builder, blk *codetree.BlockProgram, depth int) {
	fmt.Fprintf(b, "%s(block %q\n", dumpIndent(depth), blk.Name)
	for _, d := range blk.Decls {
		dumpNode(b, d, depth+1)
	}
	dumpNode(b, blk.Body, depth+1)
	fmt.Fprintf(b, "%s)\n", dumpIndent(depth))
}

func dumpIndent(depth int) string {
	return strings.Repeat("  ", depth)
}

func dumpNode(b *strings.Builder, n codetree.Node, depth int) {
	if n == nil {
		return
	}
	ind := dumpIndent(depth)
	switch v := n.(type) {
	case *codetree.List:
		for _, s := range v.Stmts {
			dumpNode(b, s, depth)
		}
	case *codetree.Raw:
		fmt.Fprintf(b, "%s(raw %q)\n", ind, v.Text)
	case *codetree.Assign:
		fmt.Fprintf(b, "%s(assign %s %s %s)\n", ind, v.Lhs, v.Rhs, boolTag(v.Declare, "declare"))
	case *codetree.VarDecl:
		fmt.Fprintf(b, "%s(vardecl %s %s %q)\n", ind, v.Name, v.Type, v.Init)
	case *codetree.Comment:
		fmt.Fprintf(b, "%s(comment %q)\n", ind, v.Text)
	case *codetree.LabelDecl:
		fmt.Fprintf(b, "%s(label %s)\n", ind, labelText(v.Lbl))
	case *codetree.Goto:
		fmt.Fprintf(b, "%s(goto %s)\n", ind, labelText(v.Lbl))
	case *codetree.TailCall:
		fmt.Fprintf(b, "%s(tailcall %s %s)\n", ind, v.Func, strings.Join(v.Args, " "))
	case *codetree.If:
		fmt.Fprintf(b, "%s(if %q\n", ind, v.Cond)
		dumpNode(b, v.Then, depth+1)
		if v.Else != nil {
			dumpNode(b, v.Else, depth+1)
		}
		fmt.Fprintf(b, "%s)\n", ind)
	case *codetree.Switch:
		fmt.Fprintf(b, "%s(switch %s\n", ind, v.Discriminant)
		for _, c := range v.Cases {
			fmt.Fprintf(b, "%s(case (%s)\n", dumpIndent(depth+1), strings.Join(c.Values, " "))
			dumpNode(b, c.Body, depth+2)
			fmt.Fprintf(b, "%s)\n", dumpIndent(depth+1))
		}
		if v.Default != nil {
			fmt.Fprintf(b, "%s(default\n", dumpIndent(depth+1))
			dumpNode(b, v.Default, depth+2)
			fmt.Fprintf(b, "%s)\n", dumpIndent(depth+1))
		}
		fmt.Fprintf(b, "%s)\n", ind)
	case *codetree.ArrayLit:
		fmt.Fprintf(b, "%s(arraylit %s %s (%s))\n", ind, v.Name, v.ElemType, strings.Join(v.Elems, " "))
	case *codetree.FuncDef:
		fmt.Fprintf(b, "%s(funcdef %s (%s) %q\n", ind, v.Name, strings.Join(v.Params, " "), v.ReturnType)
		dumpNode(b, v.Body, depth+1)
		fmt.Fprintf(b, "%s)\n", ind)
	case *codetree.Enum:
		fmt.Fprintf(b, "%s(enum %s\n", ind, v.Name)
		for _, m := range v.Members {
			fmt.Fprintf(b, "%s(member %s %q)\n", dumpIndent(depth+1), m.Name, m.Value)
		}
		fmt.Fprintf(b, "%s)\n", ind)
	case *codetree.DotEdge:
		fmt.Fprintf(b, "%s(dotedge %d %d %q)\n", ind, v.From, v.To, v.Label)
	default:
		fmt.Fprintf(b, "%s(unknown %#v)\n", ind, n)
	}
}

func boolTag(v bool, name string) string {
	if v {
		return name
	}
	return "-"
}
