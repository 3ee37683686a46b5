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
	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/symbols"
)

// StratumOutputs holds earlier strata's in-memory relation outputs, keyed by
// ast.MagicSymbolKey rather than by ast.MagicSymbol directly: a Magic/Input/
// Sup symbol carries an Adornment ([]bool), which is not a valid map key.
type StratumOutputs map[string]*store.Relation

// Get looks up sym's relation, if this stratum set produced one.
func (so StratumOutputs) Get(sym ast.MagicSymbol) (*store.Relation, bool) {
	rel, ok := so[ast.MagicSymbolKey(sym)]
	return rel, ok
}

// Runner is the capability every algorithm implements: a tagged variant
// keyed by algorithm name at planning time, dispatched directly at
// execution (spec §9 "dynamic dispatch over algorithms").
type Runner interface {
	// Arity reports this algorithm's output relation column count for the
	// given options/rule head (most algorithms ignore both and return a
	// fixed constant).
	Arity(options map[string]ast.Expr, ruleHead []symbols.Symbol, span symbols.Span) (int, error)
	// Run executes the algorithm: sess resolves Stored arguments,
	// stratumOutputs resolves InMem arguments (earlier strata's in-memory
	// relations), out is the pre-allocated sink, cancel is polled at every
	// outer-loop iteration.
	Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error
}

// ByName resolves an algorithm name (as it appears in ast.MagicAlgoApply.Algorithm)
// to its Runner.
func ByName(name string) (Runner, bool) {
	r, ok := registry[name]
	return r, ok
}

var registry = map[string]Runner{
	"dijkstra_cost_only":              DijkstraCostOnly{},
	"shortest_path_astar":             AStar{},
	"k_shortest_path_yen":             YenKShortest{},
	"bfs":                             BFS{},
	"minimum_spanning_tree_prim":      Prim{},
	"minimum_spanning_forest_kruskal": Kruskal{},
	"closeness_centrality":            ClosenessCentrality{},
	"betweenness_centrality":          BetweennessCentrality{},
}
