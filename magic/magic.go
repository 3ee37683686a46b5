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

// Package magic rewrites an adorned program into sideways-information-passing
// form: every Magic rule head gets an Input relation seeded by its callers'
// bound arguments, and every magic call site is split around a Sup
// (supplementary) rule carrying the bindings accumulated so far (spec §4.4).
// Ported from cozo's query/magic.rs magic_rewrite_ruleset.
package magic

import (
	"bitbucket.org/creachadair/stringset"
	"github.com/golang/glog"

	"github.com/stratumcore/stratum/adorn"
	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/symbols"
)

// Rewrite runs the full stratified magic-set rewrite: for each stratum in
// order, it exempts aggregated rules, adorns the stratum against the
// running exempt set, rewrites the adorned program into Sup/Input form, then
// folds the names the stratum references but does not itself define
// (adorn.DownstreamRules: rules of earlier strata and InMem algorithm
// arguments) into the exempt set for the next stratum.
func Rewrite(strata []*ast.NormalProgram) *ast.StratifiedMagicProgram {
	exempt := stringset.New(symbols.ProgEntrySymbol)
	out := &ast.StratifiedMagicProgram{Strata: make([]*ast.MagicProgram, 0, len(strata))}
	for _, prog := range strata {
		exempt = adorn.ExemptAggregationRules(prog, exempt)
		adorned := adorn.Adorn(prog, exempt)
		out.Strata = append(out.Strata, rewriteProgram(adorned))
		exempt = exempt.Union(adorn.DownstreamRules(prog))
	}
	glog.V(1).Infof("magic: rewrote %d strata", len(out.Strata))
	return out
}

// rewriteProgram rewrites every ruleset in adorned, passing algorithm
// applications through unchanged (spec §4.4: SIP only applies to rulesets).
func rewriteProgram(adorned *ast.MagicProgram) *ast.MagicProgram {
	out := ast.NewMagicProgram()
	for _, entry := range adorned.Entries {
		if entry.Def.IsAlgo() {
			out.Set(entry.Head, entry.Def)
			continue
		}
		rewriteRuleset(entry.Head, entry.Def.Rules, out)
	}
	return out
}

// supFactory hands out successive Sup symbols for one rule definition
// (ruleIdx fixed, supIdx incrementing), mirroring the closure cozo builds
// per rule in magic_rewrite_ruleset.
type supFactory struct {
	ruleName ast.MagicSymbol
	ruleIdx  int
	supIdx   int
}

func (f *supFactory) next() ast.MagicSymbol {
	s := ast.Sup{InnerSym: f.ruleName.Inner(), Adorn: f.ruleName.Adornment(), RuleIdx: f.ruleIdx, SupIdx: f.supIdx}
	f.supIdx++
	return s
}

// rewriteRuleset rewrites one rule_head's ruleset in place into ret, per
// cozo's magic_rewrite_ruleset. rule_head is always Muggle or Magic at this
// point (Adorn never emits Input/Sup heads as top-level program entries).
func rewriteRuleset(head ast.MagicSymbol, ruleset []ast.MagicInlineRule, ret *ast.MagicProgram) {
	adornment := head.Adornment()
	hasBoundArgs := adornment.HasBound()

	for ruleIdx, rule := range ruleset {
		sup := &supFactory{ruleName: head, ruleIdx: ruleIdx}
		var collected []ast.MagicAtom
		seen := stringset.New()

		if hasBoundArgs {
			supKW := sup.next()
			supArgs := boundArgs(rule.Head, adornment)
			inputName := ast.Input{InnerSym: head.Inner(), Adorn: adornment}
			span := head.Inner().Span

			ret.Set(supKW, ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{
				Head: supArgs,
				Aggr: make([]*ast.AggSlot, len(supArgs)),
				Body: []ast.MagicAtom{ast.MagicRule{Name: inputName, Args: supArgs, Span: span}},
			}}})

			seen.Add(varNames(supArgs)...)
			collected = append(collected, ast.MagicRule{Name: supKW, Args: supArgs, Span: span})
		}

		for _, atom := range rule.Body {
			switch a := atom.(type) {
			case ast.MagicPredicate, ast.MagicNegatedRule, ast.MagicNegatedRelation:
				collected = append(collected, atom)
			case ast.MagicRelation:
				seen.Add(varNames(a.Args)...)
				collected = append(collected, a)
			case ast.MagicUnification:
				seen.Add(a.Binding.Name)
				collected = append(collected, a)
			case ast.MagicRule:
				if a.Name.Adornment().HasBound() {
					supKW := sup.next()
					args := sortedBindings(seen)

					supRuleAtoms := collected
					collected = nil

					ret.AppendRule(supKW, ast.MagicInlineRule{
						Head: args,
						Aggr: make([]*ast.AggSlot, len(args)),
						Body: supRuleAtoms,
					})

					supApp := ast.MagicRule{Name: supKW, Args: args, Span: a.Span}
					collected = append(collected, supApp)

					inputName := ast.Input{InnerSym: a.Name.Inner(), Adorn: a.Name.Adornment()}
					inputArgs := boundArgs(a.Args, a.Name.Adornment())
					ret.AppendRule(inputName, ast.MagicInlineRule{
						Head: inputArgs,
						Aggr: make([]*ast.AggSlot, len(inputArgs)),
						Body: []ast.MagicAtom{supApp},
					})
				}
				seen.Add(varNames(a.Args)...)
				collected = append(collected, a)
			default:
				panic("magic: unhandled MagicAtom variant")
			}
		}

		ret.AppendRule(head, ast.MagicInlineRule{Head: rule.Head, Aggr: rule.Aggr, Body: collected})
	}
}

// boundArgs returns the subsequence of args at bit positions set in
// adornment.
func boundArgs(args []ast.Var, adornment ast.Adornment) []ast.Var {
	out := make([]ast.Var, 0, adornment.Popcount())
	for i, v := range args {
		if i < len(adornment) && adornment[i] {
			out = append(out, v)
		}
	}
	return out
}

func varNames(vs []ast.Var) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name
	}
	return out
}

// sortedBindings returns seen's members as Vars in deterministic (sorted)
// order, matching cozo's use of a BTreeSet for seen_bindings so that
// supplementary-rule arities are stable across runs.
func sortedBindings(seen stringset.Set) []ast.Var {
	names := seen.Elements()
	out := make([]ast.Var, len(names))
	for i, n := range names {
		out[i] = ast.Var{Name: n}
	}
	return out
}
