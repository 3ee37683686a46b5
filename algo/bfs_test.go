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

// targetNode builds an evaluator whose condition matches exactly one node
// value, letting a test assert BFS stops (or doesn't) at a specific hop.
func targetNode(want string) fakeEvaluator {
	return fakeEvaluator{
		evalBool: func(e ast.Expr, row []interface{}) (bool, error) {
			return row[0] == want, nil
		},
	}
}

func TestBFSRunFindsFirstMatchAlongShortestRoute(t *testing.T) {
	outputs := make(StratumOutputs)
	edges := relationOf(2,
		store.Tuple{"A", "B"},
		store.Tuple{"B", "C"},
		store.Tuple{"A", "D"},
		store.Tuple{"D", "C"},
	)
	nodes := relationOf(1, store.Tuple{"A"}, store.Tuple{"B"}, store.Tuple{"C"}, store.Tuple{"D"})
	starting := relationOf(1, store.Tuple{"A"})
	edgesArg := muggleInMem("edges", edges, outputs)
	nodesArg := muggleInMem("nodes", nodes, outputs)
	startingArg := muggleInMem("starting", starting, outputs)

	apply := &ast.MagicAlgoApply{
		Algorithm: "bfs",
		RuleArgs:  []ast.MagicAlgoRuleArg{edgesArg, nodesArg, startingArg},
		Options: map[string]ast.Expr{
			"condition": ast.Literal{Value: "C"},
			"limit":     ast.Literal{Value: int64(1)},
		},
		Arity: 3,
	}
	sess := store.NewSession()
	sess.Evaluator = targetNode("C")

	out := store.NewRelation(3)
	err := BFS{}.Run(sess, apply, outputs, out, NewCancelToken())
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	row, ok := findRow(out, "A", "C")
	require.True(t, ok)
	path, ok := row[2].(store.Tuple)
	require.True(t, ok)
	require.Len(t, path, 3, "C is reached via one intermediate hop (B or D) on this diamond")
	require.Equal(t, "A", path[0])
	require.Equal(t, "C", path[len(path)-1])
}

func TestBFSRunRequiresCondition(t *testing.T) {
	outputs := make(StratumOutputs)
	edges := relationOf(2, store.Tuple{"A", "B"})
	nodes := relationOf(1, store.Tuple{"A"})
	apply := &ast.MagicAlgoApply{
		Algorithm: "bfs",
		RuleArgs: []ast.MagicAlgoRuleArg{
			muggleInMem("edges", edges, outputs),
			muggleInMem("nodes", nodes, outputs),
		},
	}
	sess := store.NewSession()
	sess.Evaluator = targetNode("B")
	err := BFS{}.Run(sess, apply, outputs, store.NewRelation(3), NewCancelToken())
	require.Error(t, err)
}

func TestBFSArity(t *testing.T) {
	arity, err := BFS{}.Arity(nil, nil, symbols.Span{})
	require.NoError(t, err)
	require.Equal(t, 3, arity)
}
