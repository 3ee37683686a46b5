// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ast

import (
	"fmt"
	"strings"

	"github.com/stratumcore/stratum/symbols"
)

// Adornment is a bitmask over a rule's head arity marking which positions
// are bound at the call site. Bit i (Adornment[i]) is true if head position
// i is bound.
type Adornment []bool

// Popcount returns the number of set (bound) bits.
func (a Adornment) Popcount() int {
	n := 0
	for _, b := range a {
		if b {
			n++
		}
	}
	return n
}

// HasBound reports whether at least one bit is set.
func (a Adornment) HasBound() bool {
	for _, b := range a {
		if b {
			return true
		}
	}
	return false
}

func (a Adornment) String() string {
	var sb strings.Builder
	for _, b := range a {
		if b {
			sb.WriteByte('b')
		} else {
			sb.WriteByte('f')
		}
	}
	return sb.String()
}

// Equal compares two adornments bit for bit.
func (a Adornment) Equal(o Adornment) bool {
	if len(a) != len(o) {
		return false
	}
	for i := range a {
		if a[i] != o[i] {
			return false
		}
	}
	return true
}

// MagicSymbol is the output of adornment: one of Muggle, Magic, Input, Sup
// (spec §3). It is a closed sum type, like NormalAtom.
type MagicSymbol interface {
	isMagicSymbol()
	// Inner returns the original rule symbol this magic symbol specializes.
	Inner() symbols.Symbol
	// Adornment returns the bound/free bitmask, or nil for Muggle.
	Adornment() Adornment
	String() string
}

// Muggle is a rule head not subject to magic rewriting: no bound argument
// pattern, retained verbatim.
type Muggle struct {
	InnerSym symbols.Symbol
}

func (Muggle) isMagicSymbol()              {}
func (m Muggle) Inner() symbols.Symbol     { return m.InnerSym }
func (m Muggle) Adornment() Adornment      { return nil }
func (m Muggle) String() string            { return m.InnerSym.Name }

// Magic is a specialized copy of a rule for one particular bound/free
// calling pattern.
type Magic struct {
	InnerSym  symbols.Symbol
	Adorn     Adornment
}

func (Magic) isMagicSymbol()             {}
func (m Magic) Inner() symbols.Symbol    { return m.InnerSym }
func (m Magic) Adornment() Adornment     { return m.Adorn }
func (m Magic) String() string           { return fmt.Sprintf("%s[%s]", m.InnerSym.Name, m.Adorn) }

// Input is the generated relation feeding a Magic rule with actual
// query-time bound tuples.
type Input struct {
	InnerSym symbols.Symbol
	Adorn    Adornment
}

func (Input) isMagicSymbol()            {}
func (m Input) Inner() symbols.Symbol   { return m.InnerSym }
func (m Input) Adornment() Adornment    { return m.Adorn }
func (m Input) String() string          { return fmt.Sprintf("input:%s[%s]", m.InnerSym.Name, m.Adorn) }

// Sup is a supplementary rule generated during magic rewriting, uniquely
// identified by its originating rule and position within that rule's body.
type Sup struct {
	InnerSym symbols.Symbol
	Adorn    Adornment
	RuleIdx  int
	SupIdx   int
}

func (Sup) isMagicSymbol()            {}
func (m Sup) Inner() symbols.Symbol   { return m.InnerSym }
func (m Sup) Adornment() Adornment    { return m.Adorn }
func (m Sup) String() string {
	return fmt.Sprintf("sup:%s[%s]#%d.%d", m.InnerSym.Name, m.Adorn, m.RuleIdx, m.SupIdx)
}

// MagicSymbolKey returns a value suitable for use as a map key: Go interface
// values holding only comparable fields (string, bool slices converted to
// string, ints) already compare correctly with ==, but Adornment is a slice
// and thus not comparable; MagicSymbolKey flattens it into a string key.
func MagicSymbolKey(m MagicSymbol) string {
	return m.String()
}

// MagicAtom is a single body element of a rewritten (magic or supplementary)
// rule. Mirrors NormalAtom, but rule references carry a MagicSymbol instead
// of a plain Symbol.
type MagicAtom interface {
	isMagicAtom()
	String() string
}

// MagicRelation is a positive reference to a persisted relation.
type MagicRelation struct {
	Name symbols.Symbol
	Args []Var
	Span symbols.Span
}

func (MagicRelation) isMagicAtom() {}
func (r MagicRelation) String() string { return fmt.Sprintf("%s(%s)", r.Name, joinVars(r.Args)) }

// MagicNegatedRelation is a negated reference to a persisted relation.
type MagicNegatedRelation struct {
	Name symbols.Symbol
	Args []Var
	Span symbols.Span
}

func (MagicNegatedRelation) isMagicAtom() {}
func (r MagicNegatedRelation) String() string { return fmt.Sprintf("!%s(%s)", r.Name, joinVars(r.Args)) }

// MagicRule is a reference to a (possibly magic/input/sup) rule.
type MagicRule struct {
	Name MagicSymbol
	Args []Var
	Span symbols.Span
}

func (MagicRule) isMagicAtom() {}
func (r MagicRule) String() string { return fmt.Sprintf("%s(%s)", r.Name, joinVars(r.Args)) }

// MagicNegatedRule is a negated reference to a (possibly magic) rule.
type MagicNegatedRule struct {
	Name MagicSymbol
	Args []Var
	Span symbols.Span
}

func (MagicNegatedRule) isMagicAtom() {}
func (r MagicNegatedRule) String() string { return fmt.Sprintf("!%s(%s)", r.Name, joinVars(r.Args)) }

// MagicPredicate is a scalar boolean filter.
type MagicPredicate struct {
	E Expr
}

func (MagicPredicate) isMagicAtom() {}
func (p MagicPredicate) String() string { return p.E.String() }

// MagicUnification binds a single variable to the value of an expression.
type MagicUnification struct {
	Binding Var
	E       Expr
}

func (MagicUnification) isMagicAtom() {}
func (u MagicUnification) String() string { return fmt.Sprintf("%s = %s", u.Binding, u.E.String()) }

// MagicInlineRule is a single rewritten rule definition.
type MagicInlineRule struct {
	Head []Var
	Aggr []*AggSlot
	Body []MagicAtom
}

// MagicAlgoRuleArg mirrors AlgoRuleArg, but an InMem reference names a
// MagicSymbol instead of a plain Symbol (the referenced rule has itself been
// adorned).
type MagicAlgoRuleArg interface {
	isMagicAlgoRuleArg()
}

// MagicInMemArg references another (magic-adorned) rule's output.
type MagicInMemArg struct {
	Name     MagicSymbol
	Bindings []Var
	Span     symbols.Span
}

func (MagicInMemArg) isMagicAlgoRuleArg() {}

// MagicStoredArg positionally binds a persisted relation's columns.
type MagicStoredArg struct {
	Name     symbols.Symbol
	Bindings []Var
	Span     symbols.Span
}

func (MagicStoredArg) isMagicAlgoRuleArg() {}

// MagicAlgoApply is an algorithm application surviving rewriting unchanged,
// with InMem arguments re-pointed at their adorned (Muggle, since exempt
// rules are never rewritten) symbol.
type MagicAlgoApply struct {
	Algorithm string
	RuleArgs  []MagicAlgoRuleArg
	Options   map[string]Expr
	Arity     int
	Span      symbols.Span
}

// MagicRuleDef is either a ruleset or an algorithm application, keyed by
// MagicSymbol in a MagicProgram.
type MagicRuleDef struct {
	Rules []MagicInlineRule
	Algo  *MagicAlgoApply
}

func (d MagicRuleDef) IsAlgo() bool { return d.Algo != nil }

// MagicProgram maps each (possibly adorned) rule head to its definition.
// Map keys are the String() rendering of a MagicSymbol since MagicSymbol
// values themselves (holding a slice Adornment) are not comparable; Entries
// preserves the actual MagicSymbol alongside for callers that need it.
type MagicProgram struct {
	Entries map[string]*MagicProgramEntry
}

// MagicProgramEntry pairs a MagicSymbol with its definition.
type MagicProgramEntry struct {
	Head MagicSymbol
	Def  MagicRuleDef
}

// NewMagicProgram constructs an empty program.
func NewMagicProgram() *MagicProgram {
	return &MagicProgram{Entries: make(map[string]*MagicProgramEntry)}
}

// Get looks up the definition for head, if any.
func (p *MagicProgram) Get(head MagicSymbol) (MagicRuleDef, bool) {
	e, ok := p.Entries[MagicSymbolKey(head)]
	if !ok {
		return MagicRuleDef{}, false
	}
	return e.Def, true
}

// Set installs (or overwrites) the definition for head.
func (p *MagicProgram) Set(head MagicSymbol, def MagicRuleDef) {
	p.Entries[MagicSymbolKey(head)] = &MagicProgramEntry{Head: head, Def: def}
}

// AppendRule appends rule to head's ruleset, creating it if necessary. It is
// an error (panic) to append to a head that already holds an Algo
// definition.
func (p *MagicProgram) AppendRule(head MagicSymbol, rule MagicInlineRule) {
	e, ok := p.Entries[MagicSymbolKey(head)]
	if !ok {
		p.Entries[MagicSymbolKey(head)] = &MagicProgramEntry{
			Head: head,
			Def:  MagicRuleDef{Rules: []MagicInlineRule{rule}},
		}
		return
	}
	if e.Def.Algo != nil {
		panic("ast: AppendRule on an algorithm-application head")
	}
	e.Def.Rules = append(e.Def.Rules, rule)
}

// StratifiedMagicProgram is the output contract to the downstream evaluator
// (spec §6): an ordered sequence of strata, each a self-contained
// MagicProgram.
type StratifiedMagicProgram struct {
	Strata []*MagicProgram
}
