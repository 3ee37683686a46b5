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

// Package ast contains the intermediate representations consumed and
// produced by the query-planning core: the normalized program (input to
// stratification) and the magic program (output of adornment and rewriting).
package ast

import (
	"fmt"
	"strings"

	"github.com/stratumcore/stratum/symbols"
)

// Expr is the boundary to the scalar expression language (predicates,
// unification right-hand sides, algorithm option values, A*/BFS
// heuristic/condition expressions). The expression grammar and its
// arithmetic/comparison value semantics are an external collaborator; this
// core only needs to hold a reference to one and hand it to an Evaluator.
type Expr interface {
	// Span returns the expression's source span, for diagnostics.
	Span() symbols.Span
	// String returns a human-readable rendering, for debug/test output.
	String() string
}

// Evaluator is the boundary to the scalar expression engine: given an Expr
// and a row of bound values (column order matches the binding map the
// caller constructed), it returns the expression's value. Algorithms that
// need a predicate (BFS's condition) or a heuristic (A*'s heuristic) hold a
// reference to one rather than interpreting the expression grammar
// themselves (spec §1: arithmetic/comparison semantics are out of scope).
type Evaluator interface {
	EvalBool(e Expr, row []interface{}) (bool, error)
	EvalFloat(e Expr, row []interface{}) (float64, error)
}

// Literal is a constant Expr: the concrete case this core needs to resolve
// algorithm options (`k:pos-int`, `undirected:bool`, `limit:pos-int`)
// without reimplementing the full scalar expression language, which stays
// an external collaborator for anything richer (predicates, heuristics).
type Literal struct {
	Value interface{}
	Sp    symbols.Span
}

func (l Literal) Span() symbols.Span { return l.Sp }
func (l Literal) String() string     { return fmt.Sprintf("%v", l.Value) }

// Var is a rule variable, distinct from a Symbol (which names rules and
// relations, not their arguments).
type Var struct {
	Name string
}

func (v Var) String() string { return v.Name }

// NormalAtom is a single body element of a normalized rule. It is a closed
// sum type over Relation, NegatedRelation, Rule, NegatedRule, Predicate and
// Unification (spec §3).
type NormalAtom interface {
	isNormalAtom()
	String() string
}

// Relation is a positive reference to a persisted (EDB) relation.
type Relation struct {
	Name symbols.Symbol
	Args []Var
	Span symbols.Span
}

func (Relation) isNormalAtom() {}
func (r Relation) String() string {
	return fmt.Sprintf("%s(%s)", r.Name, joinVars(r.Args))
}

// NegatedRelation is a negated reference to a persisted (EDB) relation.
type NegatedRelation struct {
	Name symbols.Symbol
	Args []Var
	Span symbols.Span
}

func (NegatedRelation) isNormalAtom() {}
func (r NegatedRelation) String() string {
	return fmt.Sprintf("!%s(%s)", r.Name, joinVars(r.Args))
}

// Rule is a positive reference to another user-defined rule.
type Rule struct {
	Name symbols.Symbol
	Args []Var
	Span symbols.Span
}

func (Rule) isNormalAtom() {}
func (r Rule) String() string {
	return fmt.Sprintf("%s(%s)", r.Name, joinVars(r.Args))
}

// NegatedRule is a negated reference to another user-defined rule.
type NegatedRule struct {
	Name symbols.Symbol
	Args []Var
	Span symbols.Span
}

func (NegatedRule) isNormalAtom() {}
func (r NegatedRule) String() string {
	return fmt.Sprintf("!%s(%s)", r.Name, joinVars(r.Args))
}

// Predicate is a scalar boolean filter. It introduces no new bindings.
type Predicate struct {
	E Expr
}

func (Predicate) isNormalAtom() {}
func (p Predicate) String() string { return p.E.String() }

// Unification binds a single variable to the value of an expression.
type Unification struct {
	Binding Var
	E       Expr
}

func (Unification) isNormalAtom() {}
func (u Unification) String() string {
	return fmt.Sprintf("%s = %s", u.Binding, u.E.String())
}

func joinVars(vs []Var) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Name
	}
	return strings.Join(parts, ", ")
}

// AggSlot is one head-position's optional aggregator. A nil AggSlot means
// the position is not aggregated.
type AggSlot struct {
	Fn     symbols.FunctionSym
	Args   []Var
	IsMeet bool
}

// NormalRule is a single rule definition: a head (ordered variables), one
// optional aggregator slot per head position, and an ordered body.
type NormalRule struct {
	Head []Var
	Aggr []*AggSlot // len(Aggr) == len(Head); nil entries are non-aggregated.
	Body []NormalAtom
}

// HasAggregation reports whether any head position is aggregated.
func (r NormalRule) HasAggregation() bool {
	for _, a := range r.Aggr {
		if a != nil {
			return true
		}
	}
	return false
}

// IsMeet reports whether the rule is safe under self-recursion: it has at
// least one aggregator slot, and every aggregator slot is either absent or a
// monotone meet (spec §4.1).
func (r NormalRule) IsMeet() bool {
	has := false
	for _, a := range r.Aggr {
		if a == nil {
			continue
		}
		has = true
		if !a.IsMeet {
			return false
		}
	}
	return has
}

// AlgoRuleArg is one argument relation fed into an algorithm application.
type AlgoRuleArg interface {
	isAlgoRuleArg()
}

// InMemArg references another user rule's (already-stratified) output.
type InMemArg struct {
	Name     symbols.Symbol
	Bindings []Var
	Span     symbols.Span
}

func (InMemArg) isAlgoRuleArg() {}

// StoredArg positionally binds a persisted relation's columns.
type StoredArg struct {
	Name     symbols.Symbol
	Bindings []Var
	Span     symbols.Span
}

func (StoredArg) isAlgoRuleArg() {}

// NamedStoredArg binds a persisted relation's columns by name.
type NamedStoredArg struct {
	Name     symbols.Symbol
	Bindings map[string]Var
	Span     symbols.Span
}

func (NamedStoredArg) isAlgoRuleArg() {}

// AlgoApply invokes a built-in fixed-point graph algorithm.
type AlgoApply struct {
	Algorithm string
	RuleArgs  []AlgoRuleArg
	Options   map[string]Expr
	Arity     int
	Span      symbols.Span
}

// RuleDef is either an ordered sequence of rules, or a single algorithm
// application, per spec §3's NormalProgram value type.
type RuleDef struct {
	Rules []NormalRule // nil if Algo != nil
	Algo  *AlgoApply   // nil if Rules != nil
}

// IsAlgo reports whether this definition is an algorithm application.
func (d RuleDef) IsAlgo() bool { return d.Algo != nil }

// NormalProgramEntry pairs a rule name (with its defining span) with its
// definition.
type NormalProgramEntry struct {
	Name symbols.Symbol
	Def  RuleDef
}

// NormalProgram maps each rule name to its definition. This is the input
// contract to stratification (spec §6): it is assumed to already satisfy
// disjunctive normal form.
//
// Rules is keyed by Symbol.Name (not by Symbol itself): per spec §3, symbol
// equality ignores source span, and a map keyed by the Symbol struct would
// let two spans of the same rule name collide into distinct entries.
type NormalProgram struct {
	Rules map[string]*NormalProgramEntry
}

// NewNormalProgram constructs an empty program.
func NewNormalProgram() *NormalProgram {
	return &NormalProgram{Rules: make(map[string]*NormalProgramEntry)}
}

// Set installs (or overwrites) the definition for name.
func (p *NormalProgram) Set(name symbols.Symbol, def RuleDef) {
	p.Rules[name.Name] = &NormalProgramEntry{Name: name, Def: def}
}

// Get looks up the definition for name, if any.
func (p *NormalProgram) Get(name symbols.Symbol) (RuleDef, bool) {
	e, ok := p.Rules[name.Name]
	if !ok {
		return RuleDef{}, false
	}
	return e.Def, true
}
