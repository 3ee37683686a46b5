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
	"math"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/stratumerr"
	"github.com/stratumcore/stratum/symbols"
)

// Edge is one outgoing arc of a WeightedGraph's adjacency list.
type Edge struct {
	To     int
	Weight float64
}

// WeightedGraph is a dense-indexed adjacency-list graph, the shape every
// algorithm operates on internally (cozo's Vec<Vec<(usize, f64)>>).
type WeightedGraph struct {
	Adj [][]Edge
	// Node maps a dense index back to the original column value.
	Node []store.Value
	// Index maps the original column value to its dense index.
	Index map[string]int
}

// Len returns the number of nodes.
func (g *WeightedGraph) Len() int { return len(g.Adj) }

func valueKey(v store.Value) string { return fmt.Sprint(v) }

// BuildWeightedGraph converts an edges relation (columns: src, dst, [weight])
// into a dense WeightedGraph, interning each distinct column-0/column-1
// value into a node index in first-seen order (ported from cozo's
// convert_edge_to_weighted_graph). If the relation's arity is 2, every edge
// gets weight 1. If undirected, each edge is added in both directions.
func BuildWeightedGraph(edges *store.Relation, undirected bool, span symbols.Span) (*WeightedGraph, error) {
	g := &WeightedGraph{Index: make(map[string]int)}

	intern := func(v store.Value) int {
		k := valueKey(v)
		if idx, ok := g.Index[k]; ok {
			return idx
		}
		idx := len(g.Node)
		g.Index[k] = idx
		g.Node = append(g.Node, v)
		g.Adj = append(g.Adj, nil)
		return idx
	}

	var rangeErr error
	edges.Scan(func(t store.Tuple) {
		if rangeErr != nil || len(t) < 2 {
			return
		}
		weight := 1.0
		if len(t) >= 3 {
			w, ok := asFloat(t[2])
			if !ok || math.IsNaN(w) {
				rangeErr = stratumerr.BadExprValue(fmt.Sprint(t[2]), span, "edge cost must be a number")
				return
			}
			weight = w
		}
		from := intern(t[0])
		to := intern(t[1])
		g.Adj[from] = append(g.Adj[from], Edge{To: to, Weight: weight})
		if undirected {
			g.Adj[to] = append(g.Adj[to], Edge{To: from, Weight: weight})
		}
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return g, nil
}

// asFloat converts a store.Value holding a numeric scalar to float64.
func asFloat(v store.Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// ResolveArg resolves one algorithm rule argument to its backing Relation:
// an InMem argument looks up an earlier stratum's in-memory output, a
// Stored argument looks up a persisted relation via the session.
func ResolveArg(sess *store.Session, stratumOutputs StratumOutputs, arg ast.MagicAlgoRuleArg) (*store.Relation, error) {
	switch a := arg.(type) {
	case ast.MagicInMemArg:
		if rel, ok := stratumOutputs.Get(a.Name); ok {
			return rel, nil
		}
		return nil, fmt.Errorf("algo: in-memory relation %s not found", a.Name)
	case ast.MagicStoredArg:
		return sess.GetRelation(a.Name)
	default:
		return nil, fmt.Errorf("algo: unsupported algorithm rule argument %T", arg)
	}
}

// FirstResolvable returns the first non-nil relation argument among args that
// resolves successfully. If none does, it returns the first resolution error
// encountered (nil, nil when every argument is nil).
func FirstResolvable(sess *store.Session, stratumOutputs StratumOutputs, args ...ast.MagicAlgoRuleArg) (*store.Relation, error) {
	var firstErr error
	for _, a := range args {
		if a == nil {
			continue
		}
		rel, err := ResolveArg(sess, stratumOutputs, a)
		if err == nil {
			return rel, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
