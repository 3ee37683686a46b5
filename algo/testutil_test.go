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

package algo

import (
	"fmt"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/symbols"
)

// fakeEvaluator is a minimal ast.Evaluator stub for algorithms (BFS's
// condition, A*'s heuristic) that need one, without depending on a real
// scalar expression engine (an external collaborator per spec).
type fakeEvaluator struct {
	evalBool  func(e ast.Expr, row []interface{}) (bool, error)
	evalFloat func(e ast.Expr, row []interface{}) (float64, error)
}

func (f fakeEvaluator) EvalBool(e ast.Expr, row []interface{}) (bool, error) {
	return f.evalBool(e, row)
}

func (f fakeEvaluator) EvalFloat(e ast.Expr, row []interface{}) (float64, error) {
	return f.evalFloat(e, row)
}

// relationOf builds a Relation from literal rows, for feeding test graphs and
// node sets into algorithm Run calls.
func relationOf(arity int, rows ...store.Tuple) *store.Relation {
	rel := store.NewRelation(arity)
	for _, r := range rows {
		rel.Put(r)
	}
	return rel
}

// muggleInMem wraps name as a Muggle MagicSymbol InMem argument bound to rel
// in outputs, the shape every algorithm rule argument takes in this test
// suite (real magic rewriting is exercised separately, in the magic package).
func muggleInMem(name string, rel *store.Relation, outputs StratumOutputs) ast.MagicInMemArg {
	sym := ast.Muggle{InnerSym: symbols.New(name, symbols.Span{})}
	outputs[ast.MagicSymbolKey(sym)] = rel
	return ast.MagicInMemArg{Name: sym}
}

// findRow scans rel for the first tuple whose leading columns equal prefix,
// since WeightedGraph node indices are assigned in Relation.Scan order (a Go
// map, hence not deterministic run to run) — assertions must match on the
// stored node Values themselves, never on index.
func findRow(rel *store.Relation, prefix ...store.Value) (store.Tuple, bool) {
	var found store.Tuple
	var ok bool
	rel.Scan(func(t store.Tuple) {
		if ok || len(t) < len(prefix) {
			return
		}
		for i, v := range prefix {
			if fmt.Sprint(t[i]) != fmt.Sprint(v) {
				return
			}
		}
		found, ok = t, true
	})
	return found, ok
}
