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

package store

import (
	"fmt"
	"sync"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/symbols"
)

// Session is the tx-equivalent boundary object algorithm runners and the
// stratum executor receive: it resolves a persisted relation name to its
// Relation, grounded on the teacher's ReadOnlyFactStore/FactStore interface
// pair but narrowed to this module's Tuple/Relation shape.
type Session struct {
	mu        sync.RWMutex
	relations map[string]*Relation
	// Evaluator resolves algorithm predicate/heuristic expressions (BFS's
	// condition, A*'s heuristic). Nil if the session never needs one, e.g.
	// when exercising algorithms that take no expression options.
	Evaluator ast.Evaluator
}

// NewSession constructs an empty session.
func NewSession() *Session {
	return &Session{relations: make(map[string]*Relation)}
}

// Put installs (or replaces) the relation bound to name.
func (s *Session) Put(name symbols.Symbol, rel *Relation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations[name.Name] = rel
}

// Get resolves name to its Relation, if bound.
func (s *Session) Get(name symbols.Symbol) (*Relation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.relations[name.Name]
	return r, ok
}

// GetRelation is like Get but returns a plain "not found" error when name is
// unbound, for callers that need to fail a whole stratum on a missing
// argument rather than silently skip it.
func (s *Session) GetRelation(name symbols.Symbol) (*Relation, error) {
	r, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("store: relation %q not found", name.Name)
	}
	return r, nil
}
