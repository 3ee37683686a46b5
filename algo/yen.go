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
	"reflect"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/symbols"
)

// YenKShortest implements Yen's algorithm for the k loopless shortest paths
// between a start and a goal (spec §4.5.3).
type YenKShortest struct{}

func (YenKShortest) Arity(map[string]ast.Expr, []symbols.Symbol, symbols.Span) (int, error) {
	return 4, nil
}

func (YenKShortest) Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error {
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
	termArg, err := argAt(apply, 2)
	if err != nil {
		return err
	}
	termRel, err := ResolveArg(sess, stratumOutputs, termArg)
	if err != nil {
		return err
	}
	undirected, err := boolOption(apply.Options, "undirected", false)
	if err != nil {
		return err
	}
	k, err := posIntOption(apply.Options, "k", -1, apply.Span)
	if err != nil {
		return err
	}

	g, err := BuildWeightedGraph(edgesRel, undirected, apply.Span)
	if err != nil {
		return err
	}

	var starts, goals []int
	startingRel.Scan(func(t store.Tuple) {
		if len(t) > 0 {
			if idx, ok := g.Index[valueKey(t[0])]; ok {
				starts = append(starts, idx)
			}
		}
	})
	termRel.Scan(func(t store.Tuple) {
		if len(t) > 0 {
			if idx, ok := g.Index[valueKey(t[0])]; ok {
				goals = append(goals, idx)
			}
		}
	})

	type pair struct{ start, goal int }
	var pairs []pair
	for _, start := range starts {
		for _, goal := range goals {
			pairs = append(pairs, pair{start, goal})
		}
	}
	results := make([][]yenResult, len(pairs))
	if err := parallelOverNodes(len(pairs), func(i int) error {
		r, err := yenKShortestOne(k, g, pairs[i].start, pairs[i].goal, cancel)
		if err != nil {
			return err
		}
		results[i] = r
		return nil
	}); err != nil {
		return err
	}
	for i, p := range pairs {
		for _, r := range results[i] {
			nodes := make([]store.Value, len(r.path))
			for j, idx := range r.path {
				nodes[j] = g.Node[idx]
			}
			out.Put(store.Tuple{g.Node[p.start], g.Node[p.goal], r.cost, store.Tuple(nodes)})
		}
	}
	return nil
}

type yenResult struct {
	cost float64
	path []int
}

// yenKShortestOne implements Yen's algorithm exactly per cozo's
// k_shortest_path_yen: seed with plain Dijkstra, then repeatedly spur off
// every node of the last accepted path, excluding edges/nodes already
// explored along that prefix.
func yenKShortestOne(k int, g *WeightedGraph, start, goal int, cancel *CancelToken) ([]yenResult, error) {
	var kShortest []yenResult

	dist, back, err := dijkstraCore(g, start, goal, true, nil, nil, cancel)
	if err != nil {
		return nil, err
	}
	seed := PathFromBackPointers(back, start, goal)
	if seed == nil {
		return kShortest, nil
	}
	kShortest = append(kShortest, yenResult{cost: dist[goal], path: seed})

	var candidates []yenResult
	for len(kShortest) < k {
		prevPath := kShortest[len(kShortest)-1].path
		for i := 0; i < len(prevPath)-1; i++ {
			spurNode := prevPath[i]
			rootPath := append([]int(nil), prevPath[:i+1]...)

			forbiddenEdges := map[[2]int]bool{}
			for _, kp := range kShortest {
				if len(kp.path) < len(rootPath)+1 {
					continue
				}
				if reflect.DeepEqual(kp.path[:i+1], rootPath) {
					forbiddenEdges[[2]int{kp.path[i], kp.path[i+1]}] = true
				}
			}
			forbiddenNodes := map[int]bool{}
			for _, node := range prevPath[:i] {
				forbiddenNodes[node] = true
			}

			_, spurBack, err := dijkstraCore(g, spurNode, goal, true, forbiddenNodes, forbiddenEdges, cancel)
			if err != nil {
				return nil, err
			}
			spurPath := PathFromBackPointers(spurBack, spurNode, goal)
			if spurPath == nil {
				continue
			}

			totalCost := pathCost(g, spurNode, goal, spurPath)
			for j := 0; j < len(rootPath)-1; j++ {
				totalCost += edgeCost(g, rootPath[j], rootPath[j+1])
			}
			totalPath := append(append([]int(nil), rootPath[:len(rootPath)-1]...), spurPath...)

			dup := false
			for _, c := range candidates {
				if reflect.DeepEqual(c.path, totalPath) {
					dup = true
					break
				}
			}
			if !dup {
				candidates = append(candidates, yenResult{cost: totalCost, path: totalPath})
			}
			if err := cancel.Check(); err != nil {
				return nil, err
			}
		}
		if len(candidates) == 0 {
			break
		}
		bestIdx := 0
		for i, c := range candidates {
			if c.cost < candidates[bestIdx].cost {
				bestIdx = i
			}
		}
		kShortest = append(kShortest, candidates[bestIdx])
		candidates = append(candidates[:bestIdx], candidates[bestIdx+1:]...)
	}
	return kShortest, nil
}

func edgeCost(g *WeightedGraph, from, to int) float64 {
	for _, e := range g.Adj[from] {
		if e.To == to {
			return e.Weight
		}
	}
	return 0
}

// pathCost recomputes a path's total weight; here only used for the spur
// portion, since the spur search ignores the distances dijkstraCore returns.
func pathCost(g *WeightedGraph, _, _ int, path []int) float64 {
	var total float64
	for i := 0; i < len(path)-1; i++ {
		total += edgeCost(g, path[i], path[i+1])
	}
	return total
}
