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

package stratify

import (
	"sort"

	"bitbucket.org/creachadair/stringset"

	"github.com/stratumcore/stratum/depgraph"
)

// SCC is a strongly connected component: a set of node names.
type SCC stringset.Set

// transpose returns the reverse graph (edges flipped, poisoning dropped: SCC
// computation only needs reachability).
func transpose(g *depgraph.Graph) map[string][]string {
	rev := make(map[string][]string, len(g.Edges))
	for name := range g.Edges {
		if _, ok := rev[name]; !ok {
			rev[name] = nil
		}
	}
	for src, edges := range g.Edges {
		for dst := range edges {
			rev[dst] = append(rev[dst], src)
		}
	}
	return rev
}

// sortedNodes returns g's node names in a deterministic order, so that SCC
// discovery order (and thus downstream tie-breaking) does not depend on Go's
// randomized map iteration.
func sortedNodes(g *depgraph.Graph) []string {
	names := make([]string, 0, len(g.Edges))
	for name := range g.Edges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stronglyConnectedComponents computes the SCCs of g via Kosaraju's
// algorithm: a forward postorder pass followed by a reverse-graph visit in
// reverse postorder. Ported from the teacher's analysis/stratification.go
// two-pass structure.
func stronglyConnectedComponents(g *depgraph.Graph) []SCC {
	order := make([]string, 0, len(g.Edges))
	seen := stringset.New()
	var visit func(name string)
	visit = func(name string) {
		if seen.Contains(name) {
			return
		}
		seen.Add(name)
		neighbors := make([]string, 0, len(g.Edges[name]))
		for dst := range g.Edges[name] {
			neighbors = append(neighbors, dst)
		}
		sort.Strings(neighbors)
		for _, dst := range neighbors {
			visit(dst)
		}
		order = append(order, name)
	}
	for _, name := range sortedNodes(g) {
		visit(name)
	}

	rev := transpose(g)
	var sccs []SCC
	seen = stringset.New()
	var rvisit func(name string, acc stringset.Set)
	rvisit = func(name string, acc stringset.Set) {
		if seen.Contains(name) {
			return
		}
		seen.Add(name)
		acc.Add(name)
		neighbors := append([]string(nil), rev[name]...)
		sort.Strings(neighbors)
		for _, dst := range neighbors {
			rvisit(dst, acc)
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		top := order[i]
		if seen.Contains(top) {
			continue
		}
		acc := stringset.New()
		rvisit(top, acc)
		sccs = append(sccs, SCC(acc))
	}
	return sccs
}
