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

// Package adorn specializes each rewritable rule on the bound/free argument
// pattern of its calls, producing magic-program rule heads whose name
// carries an adornment bitmask (spec §4.3). Ported from the worklist
// algorithm in cozo's query/magic.rs (NormalFormProgram::adorn).
package adorn

import (
	"bitbucket.org/creachadair/stringset"
	"github.com/golang/glog"

	"github.com/stratumcore/stratum/ast"
)

// ExemptAggregationRules returns exempt with every rule in prog that has at
// least one aggregated head position added: a rule computed via aggregation
// can't be usefully specialized on a bound/free calling pattern, so magic
// rewriting leaves it untouched (cozo's exempt_aggr_rules_for_magic_sets).
func ExemptAggregationRules(prog *ast.NormalProgram, exempt stringset.Set) stringset.Set {
	out := exempt.Union(stringset.New())
	for name, entry := range prog.Rules {
		if entry.Def.IsAlgo() {
			continue
		}
		for _, r := range entry.Def.Rules {
			if r.HasAggregation() {
				out.Add(name)
				break
			}
		}
	}
	return out
}

// DownstreamRules returns the set of rule names referenced by prog but not
// defined in it: relations/rules belonging to an earlier stratum, or
// algorithm InMem arguments. A later stratum's magic rewrite must treat
// these as exempt, since they were already fully materialized (cozo's
// get_downstream_rules).
func DownstreamRules(prog *ast.NormalProgram) stringset.Set {
	out := stringset.New()
	for _, entry := range prog.Rules {
		if entry.Def.IsAlgo() {
			for _, arg := range entry.Def.Algo.RuleArgs {
				if in, ok := arg.(ast.InMemArg); ok {
					if _, own := prog.Rules[in.Name.Name]; !own {
						out.Add(in.Name.Name)
					}
				}
			}
			continue
		}
		for _, r := range entry.Def.Rules {
			for _, atom := range r.Body {
				var name string
				switch a := atom.(type) {
				case ast.Rule:
					name = a.Name.Name
				case ast.NegatedRule:
					name = a.Name.Name
				default:
					continue
				}
				if _, own := prog.Rules[name]; !own {
					out.Add(name)
				}
			}
		}
	}
	return out
}

// Adorn adorns prog's rules, treating every name in exempt as upstream and
// never subject to rewriting (spec §4.3: the worklist is seeded with the
// program entry and every rule referenced from an exempt downstream rule,
// each as Muggle). exempt must contain symbols.ProgEntrySymbol.
func Adorn(prog *ast.NormalProgram, exempt stringset.Set) *ast.MagicProgram {
	rulesToRewrite := stringset.New()
	for name := range prog.Rules {
		if !exempt.Contains(name) {
			rulesToRewrite.Add(name)
		}
	}

	out := ast.NewMagicProgram()
	var pending []ast.MagicSymbol

	for name, entry := range prog.Rules {
		if rulesToRewrite.Contains(name) {
			continue
		}
		head := ast.Muggle{InnerSym: entry.Name}
		if entry.Def.IsAlgo() {
			out.Set(head, ast.MagicRuleDef{Algo: adornAlgo(entry.Def.Algo, rulesToRewrite)})
			continue
		}
		rules := make([]ast.MagicInlineRule, 0, len(entry.Def.Rules))
		for _, r := range entry.Def.Rules {
			rules = append(rules, adornRule(r, nil, rulesToRewrite, &pending))
		}
		out.Set(head, ast.MagicRuleDef{Rules: rules})
	}

	for len(pending) > 0 {
		head := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if _, ok := out.Get(head); ok {
			continue
		}
		magic, ok := head.(ast.Magic)
		if !ok {
			continue
		}
		entry, ok := prog.Rules[magic.InnerSym.Name]
		if !ok {
			continue
		}
		rules := make([]ast.MagicInlineRule, 0, len(entry.Def.Rules))
		for _, r := range entry.Def.Rules {
			seen := boundSeed(r.Head, magic.Adorn)
			rules = append(rules, adornRule(r, seen, rulesToRewrite, &pending))
		}
		out.Set(head, ast.MagicRuleDef{Rules: rules})
	}

	glog.V(2).Infof("adorn: produced %d magic-program entries", len(out.Entries))
	return out
}

// boundSeed returns the set of head variables at bit positions set in
// adornment: for a Magic head, those positions start bound (spec §4.3).
func boundSeed(head []ast.Var, adornment ast.Adornment) map[string]bool {
	seen := make(map[string]bool, len(head))
	for i, v := range head {
		if i < len(adornment) && adornment[i] {
			seen[v.Name] = true
		}
	}
	return seen
}

func adornAlgo(algo *ast.AlgoApply, rulesToRewrite stringset.Set) *ast.MagicAlgoApply {
	args := make([]ast.MagicAlgoRuleArg, 0, len(algo.RuleArgs))
	for _, arg := range algo.RuleArgs {
		switch a := arg.(type) {
		case ast.InMemArg:
			// Algorithm InMem arguments are always exempt from rewriting
			// (spec §4.1: algorithm-application edges are poisoned, so the
			// referenced rule is computed in full before the algorithm
			// stratum runs) and so always adorn as Muggle.
			args = append(args, ast.MagicInMemArg{
				Name:     ast.Muggle{InnerSym: a.Name},
				Bindings: a.Bindings,
				Span:     a.Span,
			})
		case ast.StoredArg:
			args = append(args, ast.MagicStoredArg{Name: a.Name, Bindings: a.Bindings, Span: a.Span})
		case ast.NamedStoredArg:
			// Named-to-positional column resolution requires the storage
			// engine's relation metadata, an external collaborator (spec
			// §1); callers are expected to have already resolved
			// NamedStoredArg to StoredArg before reaching this core, as
			// cozo's adorn() does via tx.get_relation.
			bindings := make([]ast.Var, 0, len(a.Bindings))
			for _, v := range a.Bindings {
				bindings = append(bindings, v)
			}
			args = append(args, ast.MagicStoredArg{Name: a.Name, Bindings: bindings, Span: a.Span})
		}
	}
	return &ast.MagicAlgoApply{
		Algorithm: algo.Algorithm,
		RuleArgs:  args,
		Options:   algo.Options,
		Arity:     algo.Arity,
		Span:      algo.Span,
	}
}

// adornRule adorns a single rule's body left to right, threading
// seenBindings (spec §4.3: "is_bound is determined at the point of the
// atom, not globally").
func adornRule(r ast.NormalRule, preset map[string]bool, rulesToRewrite stringset.Set, pending *[]ast.MagicSymbol) ast.MagicInlineRule {
	seen := make(map[string]bool, len(preset)+4)
	for k := range preset {
		seen[k] = true
	}
	body := make([]ast.MagicAtom, 0, len(r.Body))
	for _, atom := range r.Body {
		body = append(body, adornAtom(atom, seen, rulesToRewrite, pending))
	}
	return ast.MagicInlineRule{Head: r.Head, Aggr: r.Aggr, Body: body}
}

func adornAtom(atom ast.NormalAtom, seen map[string]bool, rulesToRewrite stringset.Set, pending *[]ast.MagicSymbol) ast.MagicAtom {
	switch a := atom.(type) {
	case ast.Relation:
		for _, v := range a.Args {
			seen[v.Name] = true
		}
		return ast.MagicRelation{Name: a.Name, Args: a.Args, Span: a.Span}
	case ast.NegatedRelation:
		return ast.MagicNegatedRelation{Name: a.Name, Args: a.Args, Span: a.Span}
	case ast.Predicate:
		return ast.MagicPredicate{E: a.E}
	case ast.Unification:
		seen[a.Binding.Name] = true
		return ast.MagicUnification{Binding: a.Binding, E: a.E}
	case ast.NegatedRule:
		return ast.MagicNegatedRule{Name: ast.Muggle{InnerSym: a.Name}, Args: a.Args, Span: a.Span}
	case ast.Rule:
		if !rulesToRewrite.Contains(a.Name.Name) {
			for _, v := range a.Args {
				seen[v.Name] = true
			}
			return ast.MagicRule{Name: ast.Muggle{InnerSym: a.Name}, Args: a.Args, Span: a.Span}
		}
		adornment := make(ast.Adornment, len(a.Args))
		for i, v := range a.Args {
			adornment[i] = seen[v.Name]
			seen[v.Name] = true
		}
		magic := ast.Magic{InnerSym: a.Name, Adorn: adornment}
		*pending = append(*pending, magic)
		return ast.MagicRule{Name: magic, Args: a.Args, Span: a.Span}
	default:
		panic("adorn: unhandled NormalAtom variant")
	}
}
