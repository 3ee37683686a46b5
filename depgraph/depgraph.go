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

// Package depgraph builds the stratified dependency graph over rule names:
// a labelled directed graph where an edge is "poisoned" when evaluating its
// source's fixed point before its target's is finalised would be unsound
// (negation, non-meet aggregation, or an algorithm application crossed).
package depgraph

import (
	"bitbucket.org/creachadair/stringset"
	"github.com/golang/glog"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/symbols"
)

// EdgeMap maps a dependency target's name to whether the edge is poisoned.
type EdgeMap map[string]bool

// Graph maps each rule name to its edge map. Rule names are tracked by
// their Symbol.Name string (spans never distinguish rules).
type Graph struct {
	Edges map[string]EdgeMap
	// Symbols records one representative Symbol (with span) per node name,
	// for diagnostics.
	Symbols map[string]symbols.Symbol
}

// New builds an empty graph.
func New() *Graph {
	return &Graph{Edges: make(map[string]EdgeMap), Symbols: make(map[string]symbols.Symbol)}
}

func (g *Graph) initNode(s symbols.Symbol) {
	if _, ok := g.Edges[s.Name]; !ok {
		g.Edges[s.Name] = make(EdgeMap)
		g.Symbols[s.Name] = s
	}
}

func (g *Graph) addEdge(src, dst symbols.Symbol, poisoned bool) {
	g.initNode(src)
	g.initNode(dst)
	edges := g.Edges[src.Name]
	edges[dst.Name] = edges[dst.Name] || poisoned
}

// Build derives the stratified dependency graph for prog, per spec §4.1.
func Build(prog *ast.NormalProgram) *Graph {
	g := New()

	meet := make(map[string]bool)
	isAlgo := make(map[string]bool)
	for _, entry := range prog.Rules {
		name, def := entry.Name, entry.Def
		g.initNode(name)
		if def.IsAlgo() {
			isAlgo[name.Name] = true
			continue
		}
		meet[name.Name] = ruleSetIsMeet(def.Rules)
	}

	for _, entry := range prog.Rules {
		name, def := entry.Name, entry.Def
		if def.IsAlgo() {
			buildAlgoEdges(g, name, def.Algo)
			continue
		}
		hasAggr := ruleSetHasAggregation(def.Rules)
		callerIsMeet := meet[name.Name]
		for _, rule := range def.Rules {
			for _, atom := range rule.Body {
				target, negated, ok := contained(atom)
				if !ok {
					continue
				}
				poisoned := poisonEdge(name.Name, target.Name, negated, hasAggr, callerIsMeet, isAlgo[target.Name], meet[target.Name])
				g.addEdge(name, target, poisoned)
			}
		}
	}
	glog.V(1).Infof("depgraph: built %d nodes", len(g.Edges))
	return g
}

// poisonEdge implements spec §4.1's poisoning predicate for an edge from a
// rule named callerName to a body reference target, where negated reports
// whether the reference is a NegatedRule/NegatedRelation.
func poisonEdge(callerName, targetName string, negated, callerHasAggr, callerIsMeet, targetIsAlgo, targetIsMeet bool) bool {
	if callerHasAggr {
		if callerIsMeet && callerName == targetName {
			// Self-meet-recursion is monotone; poison only if the callee is
			// itself an algorithm application, or the reference is negated.
			return targetIsAlgo || negated
		}
		return true
	}
	return targetIsAlgo || (targetIsMeet && callerName != targetName) || negated
}

// contained returns the referenced rule symbol and whether the reference is
// negated, for atoms that reference another rule defined in this program.
// Relation/NegatedRelation reference a persisted (EDB) relation, never a
// rule name this program defines, so they contribute no dependency edge
// (mirrors contained_rules returning empty for these two variants).
// Predicate and Unification atoms introduce no dependency edge either.
func contained(atom ast.NormalAtom) (symbols.Symbol, bool, bool) {
	switch a := atom.(type) {
	case ast.Rule:
		return a.Name, false, true
	case ast.NegatedRule:
		return a.Name, true, true
	default:
		return symbols.Symbol{}, false, false
	}
}

func buildAlgoEdges(g *Graph, name symbols.Symbol, algo *ast.AlgoApply) {
	g.initNode(name)
	for _, arg := range algo.RuleArgs {
		if in, ok := arg.(ast.InMemArg); ok {
			g.addEdge(name, in.Name, true)
		}
	}
}

func ruleSetHasAggregation(rules []ast.NormalRule) bool {
	for _, r := range rules {
		if r.HasAggregation() {
			return true
		}
	}
	return false
}

// ruleSetIsMeet reports whether every rule in the set is is_meet (spec
// §4.1's "is_meet iff it has at least one aggregator slot and every
// aggregator slot either is absent or is_meet").
func ruleSetIsMeet(rules []ast.NormalRule) bool {
	has := false
	for _, r := range rules {
		if r.HasAggregation() {
			has = true
		}
		if !r.IsMeet() && r.HasAggregation() {
			return false
		}
	}
	return has
}

// ReachableFrom returns the set of node names reachable from start
// (inclusive), ignoring poisoning flags (spec §4.2 step 1-2).
func (g *Graph) ReachableFrom(start symbols.Symbol) stringset.Set {
	seen := stringset.New()
	var visit func(name string)
	visit = func(name string) {
		if seen.Contains(name) {
			return
		}
		seen.Add(name)
		for dst := range g.Edges[name] {
			visit(dst)
		}
	}
	visit(start.Name)
	return seen
}

// Prune returns a copy of g containing only nodes whose name is in keep.
func (g *Graph) Prune(keep stringset.Set) *Graph {
	out := New()
	for name, sym := range g.Symbols {
		if !keep.Contains(name) {
			continue
		}
		out.initNode(sym)
	}
	for src, edges := range g.Edges {
		if !keep.Contains(src) {
			continue
		}
		for dst, poisoned := range edges {
			if !keep.Contains(dst) {
				continue
			}
			out.Edges[src][dst] = poisoned
		}
	}
	return out
}
