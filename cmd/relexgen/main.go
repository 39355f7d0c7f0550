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

// Command relexgen is a small demo/test harness for the relexgen
// backend: it loads an option bundle from YAML, builds a fixture DFA (or
// a fixture two-condition block), runs it through relexgen.Generate or
// relexgen.GenerateBlocks, and prints the resulting code tree with the
// debug renderer.
package main

import (
	"fmt"
	"os"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	relexgen "github.com/relexgen/relexgen"
	"github.com/relexgen/relexgen/internal/action"
	"github.com/relexgen/relexgen/internal/codetree"
	"github.com/relexgen/relexgen/internal/dfa"
	"github.com/relexgen/relexgen/internal/diag"
	"github.com/relexgen/relexgen/internal/opts"
	"github.com/relexgen/relexgen/internal/render"
)

var (
	optsPath   string
	sexpr      bool
	conditions bool
)

func main() {
	root := &cobra.Command{
		Use:   "relexgen",
		Short: "Generate a lexer's dispatch code tree from a DFA and an option bundle",
		RunE:  run,
	}
	flags := pflag.NewFlagSet("relexgen", pflag.ContinueOnError)
	flags.StringVar(&optsPath, "opts", "", "path to a YAML option-bundle file (defaults to opts.Default())")
	flags.BoolVar(&sexpr, "sexpr", false, "dump the code tree as an S-expression instead of Go-shaped text")
	flags.BoolVar(&conditions, "conditions", false, "demo a block sharing two start conditions instead of the single-DFA fixture")
	root.Flags().AddFlagSet(flags)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, props, err := log.InitLogger(&log.Config{Level: "info"})
	if err != nil {
		return err
	}
	log.ReplaceGlobals(logger, props)

	o := opts.Default()
	if optsPath != "" {
		raw, err := os.ReadFile(optsPath)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(raw, o); err != nil {
			return err
		}
	}

	var prog *codetree.Program
	var sink *diag.Sink
	if conditions {
		prog, sink = relexgen.GenerateBlocks([]*dfa.Block{fixtureConditionBlock()}, o, fixtureRuleFor)
	} else {
		prog, sink = relexgen.Generate(fixtureDFA(), o, fixtureRuleFor)
	}
	for _, diagItem := range sink.All() {
		log.Warn("diagnostic", zap.String("code", string(diagItem.Code)), zap.String("message", diagItem.Message))
	}
	if sink.HasErrors() {
		return fmt.Errorf("generation failed, see diagnostics above")
	}
	if sexpr {
		fmt.Println(render.Dump(prog))
	} else {
		fmt.Println(render.Program(prog))
	}
	return nil
}

// fixtureDFA builds a tiny two-state DFA for a single-character rule: an
// INITIAL state whose only transition skips an 'a' and jumps to a RULE
// state. There is no loop back and no ACCEPT state, so it matches exactly
// one 'a'. It stands in for the scanner front-end this repository does
// not implement.
func fixtureDFA() *dfa.DFA {
	lblInit := dfa.NewLabel("yy_init")
	lblRule := dfa.NewLabel("yy_rule0")

	rule := dfa.State{
		Label:  lblRule,
		Index:  1,
		Action: dfa.Action{Kind: dfa.ActionRule, RuleIndex: 0},
		Go:     &dfa.Go{Kind: dfa.GoSwitchIf},
	}
	init := dfa.State{
		Label: lblInit,
		Index: 0,
		Action: dfa.Action{
			Kind:     dfa.ActionInitial,
			SaveSlot: dfa.NoSaveSlot,
		},
		Go: &dfa.Go{
			Kind: dfa.GoSwitchIf,
			Spans: []dfa.Span{
				{Lo: 'a', Hi: 'a', Jump: dfa.CodeJump{To: &rule, Skip: true}},
			},
		},
	}
	return &dfa.DFA{
		Name:    "demo",
		States:  []*dfa.State{&init, &rule},
		Initial: 0,
		Rules: []dfa.Rule{
			{Action: dfa.SemanticAction{Body: "// matched 'a'"}},
		},
		Pool: map[int]*dfa.TagCommand{},
	}
}

func fixtureRuleFor(d *dfa.DFA, s *dfa.State) (*dfa.Rule, action.RuleContext) {
	return &d.Rules[s.Action.RuleIndex], action.RuleContext{}
}

// fixtureConditionBlock builds a block whose two DFAs each stand in for a
// start condition: INIT matches a single 'a', STRING a single 'b'. Neither
// front-end nor condition-transition tables exist in this repository, so
// both DFAs are otherwise as small as fixtureDFA's.
func fixtureConditionBlock() *dfa.Block {
	blk := dfa.NewBlock("scan")
	blk.Accumulate(fixtureConditionDFA("INIT", 0, 'a'))
	blk.Accumulate(fixtureConditionDFA("STRING", 1, 'b'))
	return blk
}

func fixtureConditionDFA(cond string, condValue int, ch rune) *dfa.DFA {
	rule := dfa.State{
		Label:  dfa.NewLabel("yy_" + cond + "_rule0"),
		Index:  1,
		Action: dfa.Action{Kind: dfa.ActionRule, RuleIndex: 0},
		Go:     &dfa.Go{Kind: dfa.GoSwitchIf},
	}
	init := dfa.State{
		Label: dfa.NewLabel("yy_" + cond + "_init"),
		Index: 0,
		Action: dfa.Action{
			Kind:     dfa.ActionInitial,
			SaveSlot: dfa.NoSaveSlot,
		},
		Go: &dfa.Go{
			Kind: dfa.GoSwitchIf,
			Spans: []dfa.Span{
				{Lo: ch, Hi: ch, Jump: dfa.CodeJump{To: &rule, Skip: true}},
			},
		},
	}
	return &dfa.DFA{
		Name:      "scan",
		Cond:      cond,
		CondValue: condValue,
		States:    []*dfa.State{&init, &rule},
		Initial:   0,
		Rules: []dfa.Rule{
			{Action: dfa.SemanticAction{Body: "// matched '" + string(ch) + "'"}},
		},
		Pool: map[int]*dfa.TagCommand{},
	}
}
