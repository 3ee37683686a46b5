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

// BFS implements breadth-first search from each starting node, emitting a
// hit once a newly-visited node satisfies a user predicate (spec §4.5.4).
type BFS struct{}

func (BFS) Arity(map[string]ast.Expr, []symbols.Symbol, symbols.Span) (int, error) {
	return 3, nil
}

func (BFS) Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error {
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
	startingRel := nodesRel
	if startingArg, err := argAt(apply, 2); err == nil {
		if rel, err := ResolveArg(sess, stratumOutputs, startingArg); err == nil {
			startingRel = rel
		}
	}
	limit, err := posIntOption(apply.Options, "limit", 1, apply.Span)
	if err != nil {
		return err
	}
	condition := exprOption(apply.Options, "condition")
	if condition == nil {
		return fmt.Errorf("algo: bfs requires a condition option")
	}
	if sess.Evaluator == nil {
		return fmt.Errorf("algo: bfs requires a session expression evaluator")
	}

	g, err := BuildWeightedGraph(edgesRel, false, apply.Span)
	if err != nil {
		return err
	}
	attrs := make(map[int]store.Tuple, g.Len())
	nodesRel.Scan(func(t store.Tuple) {
		if len(t) > 0 {
			if idx, ok := g.Index[valueKey(t[0])]; ok {
				attrs[idx] = t
			}
		}
	})

	visited := make(map[int]bool)
	backtrace := make(map[int]int)
	type hit struct{ start, node int }
	var found []hit

	var startNodes []int
	startingRel.Scan(func(t store.Tuple) {
		if len(t) > 0 {
			if idx, ok := g.Index[valueKey(t[0])]; ok {
				startNodes = append(startNodes, idx)
			}
		}
	})

outer:
	for _, start := range startNodes {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			candidate := queue[0]
			queue = queue[1:]
			for _, e := range g.Adj[candidate] {
				if visited[e.To] {
					continue
				}
				visited[e.To] = true
				backtrace[e.To] = candidate

				row := rowOf(attrs, e.To, g.Node[e.To])
				ok, err := sess.Evaluator.EvalBool(condition, row)
				if err != nil {
					return err
				}
				if ok {
					found = append(found, hit{start: start, node: e.To})
					if len(found) >= limit {
						break outer
					}
				}
				queue = append(queue, e.To)
				if err := cancel.Check(); err != nil {
					return err
				}
			}
		}
	}

	for _, h := range found {
		var route []int
		for cur := h.node; ; {
			route = append(route, cur)
			if cur == h.start {
				break
			}
			cur = backtrace[cur]
		}
		for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
			route[i], route[j] = route[j], route[i]
		}
		nodes := make([]store.Value, len(route))
		for i, idx := range route {
			nodes[i] = g.Node[idx]
		}
		out.Put(store.Tuple{g.Node[h.start], g.Node[h.node], store.Tuple(nodes)})
	}
	return nil
}

// rowOf returns the node's full attribute tuple if the nodes relation
// carries one, else the bare single-column [node] tuple (spec §4.5.4: the
// predicate may reference only position 0).
func rowOf(attrs map[int]store.Tuple, idx int, node store.Value) []interface{} {
	t, ok := attrs[idx]
	if !ok {
		return []interface{}{node}
	}
	row := make([]interface{}, len(t))
	for i, v := range t {
		row[i] = v
	}
	return row
}
