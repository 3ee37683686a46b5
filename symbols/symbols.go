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

// Package symbols contains the interned-name registry shared by every later
// phase: rule names, the program entry symbol and the small set of
// aggregator identities the stratifier needs to know are monotone.
package symbols

import "fmt"

// Span is a source-span annotation. It never participates in equality,
// hashing or ordering of a Symbol: two symbols with the same name but
// different spans are the same symbol.
type Span struct {
	Start, End int
}

// Symbol is an interned rule or relation name plus diagnostic span.
type Symbol struct {
	Name string
	Span Span
}

// New constructs a Symbol.
func New(name string, span Span) Symbol {
	return Symbol{Name: name, Span: span}
}

// ProgEntrySymbol is the program entry symbol "?".
const ProgEntrySymbol = "?"

// ProgEntry is the distinguished symbol naming the program's entry rule.
var ProgEntry = Symbol{Name: ProgEntrySymbol}

// IsProgEntry returns true if this symbol names the program entry rule.
func (s Symbol) IsProgEntry() bool {
	return s.Name == ProgEntrySymbol
}

// Equals provides name-only equality, ignoring Span.
func (s Symbol) Equals(o Symbol) bool {
	return s.Name == o.Name
}

// Less provides a name-only total order, ignoring Span. Useful for
// deterministic iteration and tie-breaking during layering.
func (s Symbol) Less(o Symbol) bool {
	return s.Name < o.Name
}

func (s Symbol) String() string {
	return s.Name
}

// FunctionSym identifies an aggregator or scalar function by name and
// declared arity (-1 for variadic), mirroring the teacher's ast.FunctionSym
// naming convention.
type FunctionSym struct {
	Symbol string
	Arity  int
}

func (f FunctionSym) String() string {
	return fmt.Sprintf("%s/%d", f.Symbol, f.Arity)
}

// Aggregator identities. IsMeet is true exactly for the monotone semilattice
// operations (min, max, set union) that are safe under self-recursion; see
// spec §4.1 "is_meet".
var (
	Min             = FunctionSym{"fn:min", 1}
	Max             = FunctionSym{"fn:max", 1}
	CollectDistinct = FunctionSym{"fn:collect_distinct", -1}
	Sum             = FunctionSym{"fn:sum", 1}
	Count           = FunctionSym{"fn:count", 0}
)

var meetAggregators = map[FunctionSym]bool{
	Min:             true,
	Max:             true,
	CollectDistinct: true,
	Sum:             false,
	Count:           false,
}

// IsMeet reports whether fn is a monotone semilattice meet aggregator.
// Unknown aggregators are conservatively treated as non-meet.
func IsMeet(fn FunctionSym) bool {
	return meetAggregators[fn]
}
