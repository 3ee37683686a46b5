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

// Package stratify schedules a NormalProgram's rules into strata: a
// sequence of self-contained rule bags that can each be evaluated to a fixed
// point using only results from earlier strata (spec §4.2).
package stratify

import (
	"sort"

	"bitbucket.org/creachadair/stringset"
	"github.com/golang/glog"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/depgraph"
	"github.com/stratumcore/stratum/stratumerr"
	"github.com/stratumcore/stratum/symbols"
)

// Stratify computes the stratification of prog, returning strata in Kahn
// (topological) order. An empty program (no rules reachable from the
// program entry "?") yields a zero-length, nil-error result (spec §8
// boundary behavior).
func Stratify(prog *ast.NormalProgram) ([]*ast.NormalProgram, error) {
	g := depgraph.Build(prog)

	reachable := g.ReachableFrom(symbols.ProgEntry)
	pruned := g.Prune(reachable)

	sccs := stronglyConnectedComponents(pruned)
	if err := verifyNoPoisonedCycle(pruned, sccs); err != nil {
		return nil, err
	}

	sccIndex, condensed := condense(pruned, sccs)
	layers := generalizedKahn(condensed, len(sccs))

	strata := assemble(prog, sccs, sccIndex, layers)
	glog.V(1).Infof("stratify: %d rules reachable, %d strata", len(reachable), len(strata))
	return strata, nil
}

// verifyNoPoisonedCycle implements spec §4.2 step 4: for every SCC and
// every poisoned edge inside it, fail.
func verifyNoPoisonedCycle(g *depgraph.Graph, sccs []SCC) error {
	for _, scc := range sccs {
		if len(scc) < 2 {
			// A singleton SCC may still self-poison (direct self-recursion);
			// that case is exactly what ruleSetIsMeet/poisonEdge already
			// admit or forbid when building the edge, so only a poisoned
			// self-edge signals an error here.
		}
		for u := range scc {
			for v, poisoned := range g.Edges[u] {
				if poisoned && stringset.Set(scc).Contains(v) {
					members := sortedMembers(scc)
					return stratumerr.Unstratifiable(v, members, g.Symbols[v].Span)
				}
			}
		}
	}
	return nil
}

func sortedMembers(scc SCC) []string {
	members := make([]string, 0, len(scc))
	for m := range scc {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}

// condensedGraph is the SCC-condensed graph: src SCC -> dst SCC -> whether
// the edge is poisoned.
type condensedGraph map[int]map[int]bool

// condense builds the SCC index (node name -> scc index, in sccs' order)
// and the condensed graph: edges across distinct SCCs, poisoning
// OR-accumulated (spec §4.2 step 5).
func condense(g *depgraph.Graph, sccs []SCC) (map[string]int, condensedGraph) {
	index := make(map[string]int)
	for i, scc := range sccs {
		for name := range scc {
			index[name] = i
		}
	}
	out := make(condensedGraph)
	for i := range sccs {
		out[i] = make(map[int]bool)
	}
	for src, edges := range g.Edges {
		srcIdx := index[src]
		for dst, poisoned := range edges {
			dstIdx, ok := index[dst]
			if !ok || dstIdx == srcIdx {
				continue
			}
			out[srcIdx][dstIdx] = out[srcIdx][dstIdx] || poisoned
		}
	}
	return index, out
}

// generalizedKahn performs a layered topological sort of the condensed
// graph: repeatedly extracting the set of nodes with no outstanding
// dependencies into the next stratum (spec §4.2 step 6). An edge src->dst
// means src depends on dst (src calls dst), so the first layer peeled is
// the set of zero-out-degree nodes (the leaves, nothing left to wait on),
// not the zero-in-degree set (that would be the entry "?" end, the exact
// opposite order). Ties within a layer are broken deterministically by
// SCC index.
func generalizedKahn(g condensedGraph, n int) [][]int {
	outdegree := make([]int, n)
	callers := make([][]int, n)
	for src, edges := range g {
		outdegree[src] = len(edges)
		for dst := range edges {
			callers[dst] = append(callers[dst], src)
		}
	}
	remaining := n
	done := make([]bool, n)
	var layers [][]int
	for remaining > 0 {
		var layer []int
		for i := 0; i < n; i++ {
			if !done[i] && outdegree[i] == 0 {
				layer = append(layer, i)
			}
		}
		if len(layer) == 0 {
			// verifyNoPoisonedCycle only forbids poisoned cycles; an
			// unpoisoned cycle across >1 SCC is impossible because SCCs are
			// maximal, so this should be unreachable. Guard against an
			// infinite loop defensively by draining remaining nodes in
			// index order.
			for i := 0; i < n; i++ {
				if !done[i] {
					layer = append(layer, i)
				}
			}
		}
		sort.Ints(layer)
		layers = append(layers, layer)
		for _, i := range layer {
			done[i] = true
			remaining--
		}
		for _, i := range layer {
			for _, src := range callers[i] {
				if !done[src] {
					outdegree[src]--
				}
			}
		}
	}
	return layers
}

// assemble translates the Kahn layering back into a sequence of
// NormalPrograms, one per stratum, each containing the rule definitions
// whose names belong to an SCC in that layer.
func assemble(prog *ast.NormalProgram, sccs []SCC, sccIndex map[string]int, layers [][]int) []*ast.NormalProgram {
	strataOf := make(map[int]int, len(sccs))
	for stratum, layer := range layers {
		for _, sccIdx := range layer {
			strataOf[sccIdx] = stratum
		}
	}
	strata := make([]*ast.NormalProgram, len(layers))
	for i := range strata {
		strata[i] = ast.NewNormalProgram()
	}
	for _, entry := range prog.Rules {
		sccIdx, ok := sccIndex[entry.Name.Name]
		if !ok {
			continue // unreachable from "?", pruned
		}
		stratum := strataOf[sccIdx]
		strata[stratum].Set(entry.Name, entry.Def)
	}
	return strata
}
