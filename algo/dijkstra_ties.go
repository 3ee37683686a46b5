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
	"math"
	"sort"
)

// dijkstraKeepTies runs single-source Dijkstra from start, recording every
// predecessor tied at a node's best distance rather than just one
// back-pointer (spec §4.5.1's keep-ties variant). It returns, for every
// reachable node, the complete set of shortest paths to it from start — used
// by betweenness centrality to split credit evenly among tied routes.
func dijkstraKeepTies(g *WeightedGraph, start int, cancel *CancelToken) (map[int][][]int, error) {
	n := g.Len()
	dist := make([]float64, n)
	preds := make([][]int, n)
	settled := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[start] = 0
	pq := &priorityQueue{{node: start, priority: 0}}
	heap.Init(pq)
	seq := 0

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		if settled[item.node] {
			continue
		}
		if item.priority > dist[item.node] {
			continue
		}
		settled[item.node] = true
		for _, e := range g.Adj[item.node] {
			cand := dist[item.node] + e.Weight
			switch {
			case cand < dist[e.To]:
				dist[e.To] = cand
				preds[e.To] = []int{item.node}
				seq++
				heap.Push(pq, pqItem{node: e.To, priority: cand, extra: seq})
			case cand == dist[e.To] && !settled[e.To]:
				preds[e.To] = append(preds[e.To], item.node)
			}
		}
		if err := cancel.Check(); err != nil {
			return nil, err
		}
	}

	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !math.IsInf(dist[i], 1) {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(i, j int) bool { return dist[order[i]] < dist[order[j]] })

	paths := map[int][][]int{start: {{start}}}
	for _, node := range order {
		if node == start {
			continue
		}
		var ps [][]int
		for _, p := range preds[node] {
			for _, ppath := range paths[p] {
				cp := append(append([]int(nil), ppath...), node)
				ps = append(ps, cp)
			}
		}
		paths[node] = ps
	}
	return paths, nil
}
