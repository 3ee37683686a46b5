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
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/symbols"
)

// ClosenessCentrality computes, per node, a harmonic-style normalized
// reachability score from single-source Dijkstra (spec §4.5.6).
type ClosenessCentrality struct{}

func (ClosenessCentrality) Arity(map[string]ast.Expr, []symbols.Symbol, symbols.Span) (int, error) {
	return 2, nil
}

func (ClosenessCentrality) Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error {
	edgesArg, err := argAt(apply, 0)
	if err != nil {
		return err
	}
	edgesRel, err := ResolveArg(sess, stratumOutputs, edgesArg)
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
	n := g.Len()
	if n == 0 {
		return nil
	}

	scores := make([]float64, n)
	if err := parallelOverNodes(n, func(start int) error {
		dist, _, err := dijkstraCore(g, start, -1, false, nil, nil, cancel)
		if err != nil {
			return err
		}
		var total float64
		var count float64
		for _, d := range dist {
			if !math.IsInf(d, 1) {
				total += d
				count++
			}
		}
		if total > 0 && n > 1 {
			scores[start] = count * count / total / float64(n-1)
		}
		return nil
	}); err != nil {
		return err
	}
	for i, s := range scores {
		out.Put(store.Tuple{g.Node[i], s})
		if err := cancel.Check(); err != nil {
			return err
		}
	}
	return nil
}

// BetweennessCentrality computes, per node, the fraction of others'
// shortest paths that pass through it, splitting credit evenly among tied
// shortest paths (spec §4.5.6).
type BetweennessCentrality struct{}

func (BetweennessCentrality) Arity(map[string]ast.Expr, []symbols.Symbol, symbols.Span) (int, error) {
	return 2, nil
}

func (BetweennessCentrality) Run(sess *store.Session, apply *ast.MagicAlgoApply, stratumOutputs StratumOutputs, out *store.Relation, cancel *CancelToken) error {
	edgesArg, err := argAt(apply, 0)
	if err != nil {
		return err
	}
	edgesRel, err := ResolveArg(sess, stratumOutputs, edgesArg)
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
	n := g.Len()
	if n == 0 {
		return nil
	}

	segments := make([][]float64, n)
	if err := parallelOverNodes(n, func(start int) error {
		paths, err := dijkstraKeepTies(g, start, cancel)
		if err != nil {
			return err
		}
		seg := make([]float64, n)
		for _, ps := range paths {
			l := float64(len(ps))
			if l == 0 {
				continue
			}
			for _, p := range ps {
				if len(p) < 3 {
					continue
				}
				for _, mid := range p[1 : len(p)-1] {
					seg[mid] += 1 / l
				}
			}
		}
		segments[start] = seg
		return nil
	}); err != nil {
		return err
	}

	total := make([]float64, n)
	for _, seg := range segments {
		for i, v := range seg {
			total[i] += v
		}
	}
	for i, s := range total {
		out.Put(store.Tuple{g.Node[i], s})
		if err := cancel.Check(); err != nil {
			return err
		}
	}
	return nil
}

// parallelOverNodes runs fn(i) for i in [0, n) on a bounded worker pool,
// merging results deterministically by index (spec §5: "partitions are
// independent and may run on a data-parallel worker pool"). Used for
// per-source-node fan-out across Dijkstra, Yen, and the centralities.
func parallelOverNodes(n int, fn func(i int) error) error {
	g := new(errgroup.Group)
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	next := make(chan int)
	g.Go(func() error {
		defer close(next)
		for i := 0; i < n; i++ {
			next <- i
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range next {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
