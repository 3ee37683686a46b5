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

package unionfind

import "testing"

func TestNewAllSingletons(t *testing.T) {
	uf := New(4)
	for i := 0; i < 4; i++ {
		if uf.Find(i) != i {
			t.Errorf("Find(%d) = %d, want %d (singleton)", i, uf.Find(i), i)
		}
		if uf.SizeOf(i) != 1 {
			t.Errorf("SizeOf(%d) = %d, want 1", i, uf.SizeOf(i))
		}
	}
}

func TestUnionConnects(t *testing.T) {
	uf := New(5)
	uf.Union(0, 1)
	uf.Union(1, 2)

	if !uf.Connected(0, 2) {
		t.Errorf("Connected(0, 2) = false after Union(0,1), Union(1,2); want true")
	}
	if uf.Connected(0, 3) {
		t.Errorf("Connected(0, 3) = true; want false, 3 was never unioned")
	}
	if got := uf.SizeOf(0); got != 3 {
		t.Errorf("SizeOf(0) = %d, want 3", got)
	}
}

func TestUnionIsIdempotent(t *testing.T) {
	uf := New(3)
	uf.Union(0, 1)
	sizeBefore := uf.SizeOf(0)
	uf.Union(0, 1)
	if got := uf.SizeOf(0); got != sizeBefore {
		t.Errorf("re-Union of an already-connected pair changed set size: %d -> %d", sizeBefore, got)
	}
}

func TestFindPathCompresses(t *testing.T) {
	uf := New(4)
	uf.Union(0, 1)
	uf.Union(1, 2)
	uf.Union(2, 3)

	root := uf.Find(0)
	for i := 0; i < 4; i++ {
		if got := uf.Find(i); got != root {
			t.Errorf("Find(%d) = %d, want %d (all merged into one set)", i, got, root)
		}
	}
}

func TestUnionBySizeKeepsLargerRoot(t *testing.T) {
	uf := New(5)
	uf.Union(0, 1)
	uf.Union(0, 2) // {0,1,2} now size 3
	uf.Union(3, 4) // {3,4} size 2

	bigRoot := uf.Find(0)
	uf.Union(0, 3)

	if got := uf.Find(3); got != bigRoot {
		t.Errorf("Find(3) after merging a smaller set into a larger one = %d, want %d", got, bigRoot)
	}
	if got := uf.SizeOf(0); got != 5 {
		t.Errorf("SizeOf(0) = %d, want 5 after merging all sets", got)
	}
}
