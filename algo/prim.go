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
	"container/heap"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/stratumerr"
	"github.com/stratumcore/stratum/symbols"
)

// Prim computes a minimum spanning tree with a lazy binary heap rooted at
// a chosen (default 0) starting node (spec §4.5.5). Only the component
// containing the starting node is spanned; nodes in other components get no
// edges.
type Prim struct{}

func (Prim) Arity(map[string]ast.Expr, []symbols.Symbol, symbols.Span) (int, error) {
	return 3, nil
}

func (Prim) Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error {
	edgesArg, err := argAt(apply, 0)
	if err != nil {
		return err
	}
	edgesRel, err := ResolveArg(sess, stratumOutputs, edgesArg)
	if err != nil {
		return err
	}
	g, err := BuildWeightedGraph(edgesRel, true, apply.Span)
	if err != nil {
		return err
	}
	if g.Len() == 0 {
		return nil
	}

	starting := 0
	if startingArg, err := argAt(apply, 1); err == nil {
		startingRel, err := ResolveArg(sess, stratumOutputs, startingArg)
		if err == nil {
			var found bool
			var firstTuple store.Tuple
			startingRel.Scan(func(t store.Tuple) {
				if !found && len(t) > 0 {
					firstTuple = t
					found = true
				}
			})
			if !found {
				return stratumerr.EmptyStarting(apply.Span)
			}
			idx, ok := g.Index[valueKey(firstTuple[0])]
			if !ok {
				return stratumerr.StartingNodeNotFound(valueKey(firstTuple[0]), apply.Span)
			}
			starting = idx
		}
	}

	edges, err := prim(g, starting, cancel)
	if err != nil {
		return err
	}
	for _, e := range edges {
		out.Put(store.Tuple{g.Node[e.from], g.Node[e.to], e.cost})
	}
	return nil
}

type primEdge struct {
	from, to int
	cost     float64
}

func prim(g *WeightedGraph, starting int, cancel *CancelToken) ([]primEdge, error) {
	visited := make([]bool, g.Len())
	var mst []primEdge
	pq := &priorityQueue{}
	heap.Init(pq)

	relax := func(node int) {
		visited[node] = true
		for _, e := range g.Adj[node] {
			if visited[e.To] {
				continue
			}
			heap.Push(pq, pqItem{node: e.To, priority: e.Weight, extra: node})
		}
	}
	relax(starting)

	for pq.Len() > 0 {
		if len(mst) == g.Len()-1 {
			break
		}
		item := heap.Pop(pq).(pqItem)
		if visited[item.node] {
			continue // stale: superseded by a smaller edge already accepted
		}
		mst = append(mst, primEdge{from: item.extra, to: item.node, cost: item.priority})
		relax(item.node)
		if err := cancel.Check(); err != nil {
			return nil, err
		}
	}
	return mst, nil
}
