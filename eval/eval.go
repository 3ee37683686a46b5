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

// Package eval drives a stratified, magic-set-rewritten program one stratum
// at a time, dispatching each stratum's rulesets to a pluggable
// RuleEvaluator and each algorithm application to the algo package.
package eval

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/stratumcore/stratum/algo"
	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
)

// RuleEvaluator is the seam for bottom-up join evaluation of one stratum's
// non-algorithm rulesets. Semi-naive evaluation proper (the storage engine's
// job) is out of scope; an implementation receives a self-contained
// MagicProgram holding only this stratum's Rules entries, plus every output
// produced by earlier strata (and by this stratum's own algorithm
// applications), and returns the relation computed for each of its heads.
type RuleEvaluator interface {
	EvalStratum(sess *store.Session, stratum *ast.MagicProgram, outputs algo.StratumOutputs) (algo.StratumOutputs, error)
}

// StratumExecutor drives a StratifiedMagicProgram to completion, grounded on
// naiveEngine.evalStrata's stratum-partitioning loop, generalized from
// ast.Clause/PredicateSym to MagicProgram/MagicSymbol.
type StratumExecutor struct {
	Sess      *store.Session
	Evaluator RuleEvaluator
	Cancel    *algo.CancelToken
}

// NewStratumExecutor constructs an executor bound to sess; cancel may be nil,
// in which case a fresh, never-tripped token is used.
func NewStratumExecutor(sess *store.Session, evaluator RuleEvaluator, cancel *algo.CancelToken) *StratumExecutor {
	if cancel == nil {
		cancel = algo.NewCancelToken()
	}
	return &StratumExecutor{Sess: sess, Evaluator: evaluator, Cancel: cancel}
}

// Execute runs every stratum in order, feeding each stratum's algorithm
// applications and rulesets the accumulated outputs of every earlier one. It
// aborts on the first error (spec §7: execution-time errors are fatal), and
// returns the full set of per-head relations produced.
func (e *StratumExecutor) Execute(prog *ast.StratifiedMagicProgram) (algo.StratumOutputs, error) {
	outputs := make(algo.StratumOutputs)
	for i, stratum := range prog.Strata {
		if err := e.Cancel.Check(); err != nil {
			return outputs, err
		}
		entries := sortedEntries(stratum)
		var ruleHeads []*ast.MagicProgramEntry
		for _, entry := range entries {
			if !entry.Def.IsAlgo() {
				ruleHeads = append(ruleHeads, entry)
				continue
			}
			rel, err := e.runAlgo(entry.Def.Algo, outputs)
			if err != nil {
				return outputs, fmt.Errorf("eval: stratum %d, algorithm %s(%s): %w", i, entry.Def.Algo.Algorithm, entry.Head, err)
			}
			outputs[ast.MagicSymbolKey(entry.Head)] = rel
		}
		if len(ruleHeads) == 0 {
			continue
		}
		sub := ast.NewMagicProgram()
		for _, entry := range ruleHeads {
			sub.Set(entry.Head, entry.Def)
		}
		produced, err := e.Evaluator.EvalStratum(e.Sess, sub, outputs)
		if err != nil {
			return outputs, fmt.Errorf("eval: stratum %d: %w", i, err)
		}
		for k, v := range produced {
			outputs[k] = v
		}
	}
	return outputs, nil
}

func (e *StratumExecutor) runAlgo(apply *ast.MagicAlgoApply, outputs algo.StratumOutputs) (*store.Relation, error) {
	runner, ok := algo.ByName(apply.Algorithm)
	if !ok {
		return nil, fmt.Errorf("eval: unknown algorithm %q", apply.Algorithm)
	}
	out := store.NewRelation(apply.Arity)
	if err := runner.Run(e.Sess, apply, outputs, out, e.Cancel); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks structural preconditions across every stratum without
// running any algorithm or rule: every algorithm name is registered, and
// every InMem argument names a head of an earlier stratum or of an entry of
// the same stratum that sorts before the referencing one (entries are
// checked in sortedEntries order). Errors accumulate via multierr (spec §4.6) so a caller sees every
// problem in one pass instead of just the first.
func Validate(prog *ast.StratifiedMagicProgram) error {
	known := map[string]bool{}
	var errs error
	for i, stratum := range prog.Strata {
		entries := sortedEntries(stratum)
		for _, entry := range entries {
			if entry.Def.IsAlgo() {
				apply := entry.Def.Algo
				if _, ok := algo.ByName(apply.Algorithm); !ok {
					errs = multierr.Append(errs, fmt.Errorf("stratum %d: unknown algorithm %q for %s", i, apply.Algorithm, entry.Head))
				}
				for _, arg := range apply.RuleArgs {
					if inmem, ok := arg.(ast.MagicInMemArg); ok {
						if !known[ast.MagicSymbolKey(inmem.Name)] {
							errs = multierr.Append(errs, fmt.Errorf("stratum %d: %s references unproduced relation %s", i, entry.Head, inmem.Name))
						}
					}
				}
			}
			known[ast.MagicSymbolKey(entry.Head)] = true
		}
	}
	return errs
}

// sortedEntries returns stratum's entries in a deterministic order (map
// iteration order is not stable), keyed by the MagicSymbol's rendered form.
func sortedEntries(stratum *ast.MagicProgram) []*ast.MagicProgramEntry {
	keys := make([]string, 0, len(stratum.Entries))
	for k := range stratum.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*ast.MagicProgramEntry, len(keys))
	for i, k := range keys {
		out[i] = stratum.Entries[k]
	}
	return out
}
