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

// Package opts is the per-block option bundle. It is a plain struct with
// yaml tags so cmd/relexgen can load it from a file, but the core
// packages only ever see the struct itself.
package opts

// Target selects the kind of output the pipeline is ultimately building
// towards. The core only ever produces a code tree; Target tells the
// downstream renderer (out of scope) how to interpret it.
type Target int

const (
	TargetCode Target = iota
	TargetDot
	TargetSkeleton
)

// CodeModel selects among the three emission strategies a block can use.
type CodeModel int

const (
	CodeModelGotoLabel CodeModel = iota
	CodeModelLoopSwitch
	CodeModelRecFunc
)

// APIStyle selects how API primitives are resolved.
type APIStyle int

const (
	APIFunctions APIStyle = iota
	APIFreeform
)

// API selects between the built-in primitive set and a user override.
type API int

const (
	APIDefault API = iota
	APICustom
)

// Primitives names every API primitive an emitted lexer can call. Each
// value is either a FUNCTIONS-style function name or a FREEFORM-style
// template string, depending on the owning Options.APIStyle.
type Primitives struct {
	Peek        string `yaml:"peek"`
	Skip        string `yaml:"skip"`
	Backup      string `yaml:"backup"`
	Restore     string `yaml:"restore"`
	RestoreCtx  string `yaml:"restore_ctx"`
	BackupCtx   string `yaml:"backup_ctx"`
	Fill        string `yaml:"fill"`
	LessThan    string `yaml:"less_than"`
	Shift       string `yaml:"shift"`
	STagSetPos  string `yaml:"stag_set_pos"`
	STagSetNeg  string `yaml:"stag_set_neg"`
	MTagSetPos  string `yaml:"mtag_set_pos"`
	MTagSetNeg  string `yaml:"mtag_set_neg"`
	Debug       string `yaml:"debug"`
	CondGet     string `yaml:"cond_get"`
	CondSet     string `yaml:"cond_set"`
	StateGet    string `yaml:"state_get"`
	StateSet    string `yaml:"state_set"`
	MaxFill     string `yaml:"maxfill"`
	MaxNMatch   string `yaml:"maxnmatch"`
	CondType    string `yaml:"cond_type"`
	CondEnumPfx string `yaml:"cond_enum_prefix"`

	// Cursor and Limit are zero-argument, naked primitives naming the
	// input-position and end-of-buffer expressions. Every other
	// primitive above operates implicitly on these; the tag/fin-tag
	// emitters (internal/tagcode) need to name them explicitly when
	// building assignments such as a fixed-mode context-marker copy
	// or a save-run's "positive ones to the cursor expression".
	Cursor string `yaml:"cursor"`
	Limit  string `yaml:"limit"`
}

// Vars names the variables emitted code refers to by convention.
type Vars struct {
	Char               string `yaml:"char"`
	Accept             string `yaml:"accept"`
	State              string `yaml:"state"`
	Bitmaps            string `yaml:"bitmaps"`
	CondTable          string `yaml:"cond_table"`
	ComputedGotosTable string `yaml:"computed_gotos_table"`
	Fill               string `yaml:"fill"`

	// NMatch and PMatch name the match-count and per-submatch-pointer
	// variables the fin-tag emitter populates.
	NMatch string `yaml:"nmatch"`
	PMatch string `yaml:"pmatch"`

	// NegTag names the canonical-negative sentinel variable the
	// fin-tag emitter materializes under the FREEFORM API when a
	// fixed inner tag needs a "no match" comparison and no null
	// literal is available.
	NegTag string `yaml:"negtag"`

	// CtxMarker names the old-style single trailing-context marker
	// variable.
	CtxMarker string `yaml:"ctxmarker"`
}

// Options is the option bundle passed alongside a DFA into the pipeline.
// Every field is exported and yaml-tagged so cmd/relexgen can round-trip
// it losslessly.
type Options struct {
	Target    Target    `yaml:"target"`
	CodeModel CodeModel `yaml:"code_model"`
	API       API       `yaml:"api"`
	APIStyle  APIStyle  `yaml:"api_style"`
	Sigil     string    `yaml:"sigil"`

	LabelPrefix string `yaml:"label_prefix"`

	Vars       Vars       `yaml:"vars"`
	Primitives Primitives `yaml:"primitives"`

	FillEnable bool `yaml:"fill_enable"`
	FillCheck  bool `yaml:"fill_check"`
	FillNaked  bool `yaml:"fill_naked"`
	// FillEOF selects EOF-rule handling. NOEOF (the zero value)
	// disables it.
	FillEOF int `yaml:"fill_eof"`

	StorableState bool `yaml:"storable_state"`
	StartConds    bool `yaml:"start_conditions"`
	StateAbort    bool `yaml:"state_abort"`
	StateNext     bool `yaml:"state_next"`
	CondAbort     bool `yaml:"cond_abort"`

	ComputedGotos          bool `yaml:"computed_gotos"`
	ComputedGotosThreshold int  `yaml:"computed_gotos_threshold"`
	NestedIfs              bool `yaml:"nested_ifs"`

	Bitmaps    bool `yaml:"bitmaps"`
	BitmapsHex bool `yaml:"bitmaps_hex"`

	EagerSkip              bool `yaml:"eager_skip"`
	LineDirs               bool `yaml:"line_dirs"`
	IndentationSensitive   bool `yaml:"indentation_sensitive"`
	WrapBlocksInBraces     bool `yaml:"wrap_blocks_in_braces"`
	Debug                  bool `yaml:"debug"`
	ImplicitBoolConversion bool `yaml:"implicit_bool_conversion"`
}

// NOEOF disables EOF-rule semantics.
const NOEOF = 0

// Default returns an Options value with the FUNCTIONS API style and the
// GOTO_LABEL emission model, matching the most common re2c invocation.
func Default() *Options {
	return &Options{
		Target:      TargetCode,
		CodeModel:   CodeModelGotoLabel,
		API:         APIDefault,
		APIStyle:    APIFunctions,
		LabelPrefix: "yy",
		Vars: Vars{
			Char:               "yych",
			Accept:             "yyaccept",
			State:              "yystate",
			Bitmaps:            "yybm",
			CondTable:          "yycondtable",
			ComputedGotosTable: "yytarget",
			Fill:               "yyfill",
			NMatch:             "yynmatch",
			PMatch:             "yypmatch",
			NegTag:             "negtag",
			CtxMarker:          "ctxmarker",
		},
		Primitives: Primitives{
			Peek:        "YYPEEK",
			Skip:        "YYSKIP",
			Backup:      "YYBACKUP",
			Restore:     "YYRESTORE",
			RestoreCtx:  "YYRESTORECTX",
			BackupCtx:   "YYBACKUPCTX",
			Fill:        "YYFILL",
			LessThan:    "",
			Shift:       "YYSHIFT",
			STagSetPos:  "YYSTAGP",
			STagSetNeg:  "YYSTAGN",
			MTagSetPos:  "YYMTAGP",
			MTagSetNeg:  "YYMTAGN",
			Debug:       "YYDEBUG",
			CondGet:     "YYGETCONDITION",
			CondSet:     "YYSETCONDITION",
			StateGet:    "YYGETSTATE",
			StateSet:    "YYSETSTATE",
			MaxFill:     "YYMAXFILL",
			MaxNMatch:   "YYMAXNMATCH",
			CondType:    "YYCONDTYPE",
			CondEnumPfx: "yyc",
			Cursor:      "YYCURSOR",
			Limit:       "YYLIMIT",
		},
		FillEnable:             true,
		FillCheck:              true,
		FillEOF:                NOEOF,
		ComputedGotosThreshold: 8,
	}
}
