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

// Package algo implements the fixed-point graph algorithm suite invoked
// from algorithm-application strata: shortest paths, k-shortest paths,
// minimum spanning trees/forests, BFS, and centralities.
package algo

import (
	"sync/atomic"

	"github.com/stratumcore/stratum/stratumerr"
)

// CancelToken is a clone-safe cooperative cancellation signal, shared by all
// workers of one algorithm invocation (the "poison" of the original system,
// expressed as a polled flag rather than a panicking check).
type CancelToken struct {
	tripped atomic.Bool
}

// NewCancelToken returns a fresh, untripped token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Trip marks the token as cancelled. Safe to call from any goroutine, any
// number of times.
func (c *CancelToken) Trip() {
	c.tripped.Store(true)
}

// Check returns a Cancelled error if the token has been tripped, else nil.
// Every algorithm polls this at least once per outer-loop iteration.
func (c *CancelToken) Check() error {
	if c.tripped.Load() {
		return stratumerr.Cancelled()
	}
	return nil
}
