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
	"github.com/stratumcore/stratum/symbols"
	"github.com/stratumcore/stratum/unionfind"
)

// Kruskal computes a minimum spanning forest via a sort-free priority-queue
// drain of all edges, with union-find deciding acceptance (spec §4.5.5).
type Kruskal struct{}

func (Kruskal) Arity(map[string]ast.Expr, []symbols.Symbol, symbols.Span) (int, error) {
	return 3, nil
}

func (Kruskal) Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error {
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

	edges, err := kruskal(g, cancel)
	if err != nil {
		return err
	}
	for _, e := range edges {
		out.Put(store.Tuple{g.Node[e.from], g.Node[e.to], e.cost})
	}
	return nil
}

func kruskal(g *WeightedGraph, cancel *CancelToken) ([]primEdge, error) {
	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	for from, adj := range g.Adj {
		for _, e := range adj {
			seq++
			// pack (from, to) into the item: priority sorts by weight,
			// node carries "from" and extra carries "to".
			heap.Push(pq, pqItem{node: from, priority: e.Weight, extra: e.To, seq: seq})
		}
		if err := cancel.Check(); err != nil {
			return nil, err
		}
	}

	uf := unionfind.New(g.Len())
	var mst []primEdge
	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		from, to := item.node, item.extra
		if uf.Connected(from, to) {
			continue
		}
		uf.Union(from, to)
		mst = append(mst, primEdge{from: from, to: to, cost: item.priority})
		if uf.SizeOf(0) == g.Len() {
			break
		}
		if err := cancel.Check(); err != nil {
			return nil, err
		}
	}
	return mst, nil
}
