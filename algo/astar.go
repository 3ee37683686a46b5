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

// AStar implements heuristic-guided shortest path search between explicit
// start/goal pairs (spec §4.5.2).
type AStar struct{}

func (AStar) Arity(map[string]ast.Expr, []symbols.Symbol, symbols.Span) (int, error) {
	return 4, nil
}

func (AStar) Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error {
	edgesArg, err := argAt(apply, 0)
	if err != nil {
		return err
	}
	edgesRel, err := ResolveArg(sess, stratumOutputs, edgesArg)
	if err != nil {
		return err
	}
	nodesArg, err := argAt(apply, 1)
	if err != nil {
		return err
	}
	nodesRel, err := ResolveArg(sess, stratumOutputs, nodesArg)
	if err != nil {
		return err
	}
	startingArg, err := argAt(apply, 2)
	if err != nil {
		return err
	}
	startingRel, err := ResolveArg(sess, stratumOutputs, startingArg)
	if err != nil {
		return err
	}
	goalsArg, err := argAt(apply, 3)
	if err != nil {
		return err
	}
	goalsRel, err := ResolveArg(sess, stratumOutputs, goalsArg)
	if err != nil {
		return err
	}
	heuristic := exprOption(apply.Options, "heuristic")
	if heuristic == nil {
		return fmt.Errorf("algo: shortest_path_astar requires a heuristic option")
	}
	if sess.Evaluator == nil {
		return fmt.Errorf("algo: shortest_path_astar requires a session expression evaluator")
	}

	g, err := BuildWeightedGraph(edgesRel, false, apply.Span)
	if err != nil {
		return err
	}
	attrs := make(map[int]store.Tuple, g.Len())
	nodesRel.Scan(func(t store.Tuple) {
		if len(t) == 0 {
			return
		}
		if idx, ok := g.Index[valueKey(t[0])]; ok {
			attrs[idx] = t
		}
	})

	var starts, goals []int
	startingRel.Scan(func(t store.Tuple) {
		if len(t) > 0 {
			if idx, ok := g.Index[valueKey(t[0])]; ok {
				starts = append(starts, idx)
			}
		}
	})
	goalsRel.Scan(func(t store.Tuple) {
		if len(t) > 0 {
			if idx, ok := g.Index[valueKey(t[0])]; ok {
				goals = append(goals, idx)
			}
		}
	})

	for _, start := range starts {
		for _, goal := range goals {
			cost, path, err := astarOne(g, attrs, start, goal, heuristic, sess.Evaluator, cancel)
			if err != nil {
				return err
			}
			nodes := make([]store.Value, len(path))
			for i, idx := range path {
				nodes[i] = g.Node[idx]
			}
			out.Put(store.Tuple{g.Node[start], g.Node[goal], cost, store.Tuple(nodes)})
		}
	}
	return nil
}

func astarOne(g *WeightedGraph, attrs map[int]store.Tuple, start, goal int, heuristic ast.Expr, ev ast.Evaluator, cancel *CancelToken) (float64, []int, error) {
	evalHeuristic := func(node int) (float64, error) {
		row := make([]interface{}, 0, len(attrs[node])+len(attrs[goal]))
		for _, v := range attrs[node] {
			row = append(row, v)
		}
		for _, v := range attrs[goal] {
			row = append(row, v)
		}
		h, err := ev.EvalFloat(heuristic, row)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(h) {
			return 0, fmt.Errorf("algo: heuristic produced NaN")
		}
		return h, nil
	}

	gScore := map[int]float64{start: 0}
	back := map[int]int{}
	pq := &priorityQueue{{node: start, priority: 0}}
	heap.Init(pq)
	subPriority := 0

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		node := item.node
		if node == goal {
			var path []int
			for cur := node; ; {
				path = append(path, cur)
				if cur == start {
					break
				}
				cur = back[cur]
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return gScore[node], path, nil
		}
		for _, e := range g.Adj[node] {
			costToSrc, ok := gScore[node]
			if !ok {
				costToSrc = math.Inf(1)
			}
			tentative := costToSrc + e.Weight
			prev, ok := gScore[e.To]
			if !ok {
				prev = math.Inf(1)
			}
			if tentative < prev {
				back[e.To] = node
				gScore[e.To] = tentative
				h, err := evalHeuristic(e.To)
				if err != nil {
					return 0, nil, err
				}
				subPriority++
				heap.Push(pq, pqItem{node: e.To, priority: tentative + h, extra: subPriority})
			}
			if err := cancel.Check(); err != nil {
				return 0, nil, err
			}
		}
	}
	return math.Inf(1), nil, nil
}
