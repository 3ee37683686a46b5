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
	"fmt"
	"math"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/symbols"
)

// pqItem is one entry of the binary heap used throughout this package: a
// node with a priority and a secondary tie-break field. container/heap has
// no native decrease-key, so callers push a fresh entry on every decrease
// and skip stale entries on pop themselves (Dijkstra compares the popped
// priority against the best-known distance; the others check a
// settled/visited mark).
type pqItem struct {
	node     int
	priority float64
	seq      int // push counter; set by Kruskal, not used for ordering
	extra    int // secondary tie-break field (push sequence for Dijkstra/A*, from-node for Prim, to-node for Kruskal)
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].extra < pq[j].extra
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(pqItem))
}
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstraCore runs single-source Dijkstra over g from start, optionally
// stopping early at goal, skipping nodes in forbiddenNodes and edges in
// forbiddenEdges (Yen's spur-path search uses both). It returns the
// best-known distance and back-pointer arrays.
func dijkstraCore(g *WeightedGraph, start int, goal int, hasGoal bool, forbiddenNodes map[int]bool, forbiddenEdges map[[2]int]bool, cancel *CancelToken) ([]float64, []int, error) {
	n := g.Len()
	dist := make([]float64, n)
	back := make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		back[i] = -1
	}
	dist[start] = 0
	pq := &priorityQueue{{node: start, priority: 0}}
	heap.Init(pq)
	seq := 0

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		if item.priority > dist[item.node] {
			continue // stale pop
		}
		if hasGoal && item.node == goal {
			break
		}
		for _, e := range g.Adj[item.node] {
			if forbiddenNodes != nil && forbiddenNodes[e.To] {
				continue
			}
			if forbiddenEdges != nil && forbiddenEdges[[2]int{item.node, e.To}] {
				continue
			}
			next := dist[item.node] + e.Weight
			if next < dist[e.To] {
				dist[e.To] = next
				back[e.To] = item.node
				seq++
				heap.Push(pq, pqItem{node: e.To, priority: next, extra: seq})
			}
		}
		if err := cancel.Check(); err != nil {
			return nil, nil, err
		}
	}
	return dist, back, nil
}

// PathFromBackPointers reconstructs the node-index path from start to goal
// using a back-pointer array, or nil if goal is unreachable.
func PathFromBackPointers(back []int, start, goal int) []int {
	if back[goal] == -1 && goal != start {
		return nil
	}
	var path []int
	for cur := goal; ; {
		path = append(path, cur)
		if cur == start {
			break
		}
		cur = back[cur]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// DijkstraCostOnly computes single-source shortest-path distances, per
// spec §4.5.1 and §4.5.6 (closeness centrality runs the same dijkstraCore).
// Each output row is (start, node, cost).
type DijkstraCostOnly struct{}

func (DijkstraCostOnly) Arity(map[string]ast.Expr, []symbols.Symbol, symbols.Span) (int, error) {
	return 3, nil
}

func (DijkstraCostOnly) Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error {
	edgesArg, err := argAt(apply, 0)
	if err != nil {
		return err
	}
	edgesRel, err := ResolveArg(sess, stratumOutputs, edgesArg)
	if err != nil {
		return err
	}
	startingArg, err := argAt(apply, 1)
	if err != nil {
		return err
	}
	startingRel, err := ResolveArg(sess, stratumOutputs, startingArg)
	if err != nil {
		return err
	}
	undirected, err := boolOption(apply.Options, "undirected", false)
	if err != nil {
		return err
	}
	g, err := BuildWeightedGraph(edgesRel, undirected, apply.Span)
	if err != nil {
		return err
	}
	var starts []int
	startingRel.Scan(func(t store.Tuple) {
		if len(t) == 0 {
			return
		}
		if idx, ok := g.Index[valueKey(t[0])]; ok {
			starts = append(starts, idx)
		}
	})
	results := make([][]float64, len(starts))
	if err := parallelOverNodes(len(starts), func(i int) error {
		dist, _, err := dijkstraCore(g, starts[i], -1, false, nil, nil, cancel)
		if err != nil {
			return err
		}
		results[i] = dist
		return nil
	}); err != nil {
		return err
	}
	for i, start := range starts {
		for j, d := range results[i] {
			if math.IsInf(d, 1) {
				continue
			}
			out.Put(store.Tuple{g.Node[start], g.Node[j], d})
		}
	}
	return nil
}

func argAt(apply *ast.MagicAlgoApply, i int) (ast.MagicAlgoRuleArg, error) {
	if i >= len(apply.RuleArgs) {
		return nil, fmt.Errorf("algo: %s requires at least %d rule arguments", apply.Algorithm, i+1)
	}
	return apply.RuleArgs[i], nil
}
