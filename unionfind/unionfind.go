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

// Package unionfind is an implementation of Union-Find for use in graph
// connectivity queries (Kruskal's minimum spanning forest, connected
// components) over dense integer node ids.
package unionfind

// UnionFind holds a data structure that permits fast connectivity queries
// over the node ids [0, n). Union is by size, and Find path-compresses.
type UnionFind struct {
	ids  []int
	size []int
}

// New constructs a UnionFind over n singleton sets {0}, {1}, ..., {n-1}.
func New(n int) UnionFind {
	uf := UnionFind{ids: make([]int, n), size: make([]int, n)}
	for i := range uf.ids {
		uf.ids[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Find returns the representative element of p's set.
func (uf UnionFind) Find(p int) int {
	root := p
	for root != uf.ids[root] {
		root = uf.ids[root]
	}
	for p != root {
		next := uf.ids[p]
		uf.ids[p] = root
		p = next
	}
	return root
}

// Union merges p's and q's sets, attaching the smaller set's root under the
// larger's so that tree depth stays logarithmic.
func (uf UnionFind) Union(p, q int) {
	rootP := uf.Find(p)
	rootQ := uf.Find(q)
	if rootP == rootQ {
		return
	}
	if uf.size[rootP] < uf.size[rootQ] {
		rootP, rootQ = rootQ, rootP
	}
	uf.ids[rootQ] = rootP
	uf.size[rootP] += uf.size[rootQ]
}

// Connected reports whether p and q are in the same set.
func (uf UnionFind) Connected(p, q int) bool {
	return uf.Find(p) == uf.Find(q)
}

// SizeOf returns the size of p's set.
func (uf UnionFind) SizeOf(p int) int {
	return uf.size[uf.Find(p)]
}
