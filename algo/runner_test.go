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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/symbols"
)

func TestStratumOutputsGetHitAndMiss(t *testing.T) {
	outputs := make(StratumOutputs)
	rel := store.NewRelation(1)
	sym := ast.Muggle{InnerSym: symbols.New("p", symbols.Span{})}
	outputs[ast.MagicSymbolKey(sym)] = rel

	got, ok := outputs.Get(sym)
	require.True(t, ok)
	require.Same(t, rel, got)

	other := ast.Muggle{InnerSym: symbols.New("q", symbols.Span{})}
	_, ok = outputs.Get(other)
	require.False(t, ok)
}

func TestByNameResolvesEveryRegisteredAlgorithm(t *testing.T) {
	names := []string{
		"dijkstra_cost_only",
		"shortest_path_astar",
		"k_shortest_path_yen",
		"bfs",
		"minimum_spanning_tree_prim",
		"minimum_spanning_forest_kruskal",
		"closeness_centrality",
		"betweenness_centrality",
	}
	for _, name := range names {
		r, ok := ByName(name)
		require.True(t, ok, "algorithm %q must be registered", name)
		require.NotNil(t, r)
	}
}

func TestByNameUnknownAlgorithm(t *testing.T) {
	_, ok := ByName("not_a_real_algorithm")
	require.False(t, ok)
}
