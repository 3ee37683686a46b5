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

package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratumcore/stratum/symbols"
)

func TestAdornmentPopcountAndString(t *testing.T) {
	a := Adornment{true, false, true}
	require.Equal(t, 2, a.Popcount())
	require.True(t, a.HasBound())
	require.Equal(t, "bfb", a.String())

	var empty Adornment
	require.Equal(t, 0, empty.Popcount())
	require.False(t, empty.HasBound())
}

func TestAdornmentEqual(t *testing.T) {
	require.True(t, Adornment{true, false}.Equal(Adornment{true, false}))
	require.False(t, Adornment{true, false}.Equal(Adornment{false, true}))
	require.False(t, Adornment{true}.Equal(Adornment{true, false}), "different lengths are never equal")
}

func TestMagicSymbolVariantsInnerAndAdornment(t *testing.T) {
	inner := symbols.New("ancestor", symbols.Span{})
	adorn := Adornment{true, false}

	muggle := Muggle{InnerSym: inner}
	require.Equal(t, inner, muggle.Inner())
	require.Nil(t, muggle.Adornment())
	require.Equal(t, "ancestor", muggle.String())

	magic := Magic{InnerSym: inner, Adorn: adorn}
	require.Equal(t, inner, magic.Inner())
	require.Equal(t, adorn, magic.Adornment())
	require.Equal(t, "ancestor[bf]", magic.String())

	input := Input{InnerSym: inner, Adorn: adorn}
	require.Equal(t, "input:ancestor[bf]", input.String())

	sup := Sup{InnerSym: inner, Adorn: adorn, RuleIdx: 1, SupIdx: 2}
	require.Equal(t, "sup:ancestor[bf]#1.2", sup.String())
}

func TestMagicSymbolKeyDistinguishesAdornments(t *testing.T) {
	inner := symbols.New("ancestor", symbols.Span{})
	a := Magic{InnerSym: inner, Adorn: Adornment{true, false}}
	b := Magic{InnerSym: inner, Adorn: Adornment{false, true}}
	require.NotEqual(t, MagicSymbolKey(a), MagicSymbolKey(b))

	c := Magic{InnerSym: inner, Adorn: Adornment{true, false}}
	require.Equal(t, MagicSymbolKey(a), MagicSymbolKey(c), "same inner and adornment must produce the same key")
}

func TestMagicProgramSetGetAppendRule(t *testing.T) {
	p := NewMagicProgram()
	head := Magic{InnerSym: symbols.New("ancestor", symbols.Span{}), Adorn: Adornment{true, false}}

	_, ok := p.Get(head)
	require.False(t, ok)

	rule1 := MagicInlineRule{Head: []Var{{Name: "X"}, {Name: "Y"}}}
	p.AppendRule(head, rule1)

	def, ok := p.Get(head)
	require.True(t, ok)
	require.Len(t, def.Rules, 1)
	require.False(t, def.IsAlgo())

	rule2 := MagicInlineRule{Head: []Var{{Name: "X"}, {Name: "Z"}}}
	p.AppendRule(head, rule2)
	def, _ = p.Get(head)
	require.Len(t, def.Rules, 2, "AppendRule must accumulate onto the same head")
}

func TestMagicProgramAppendRuleOntoAlgoPanics(t *testing.T) {
	p := NewMagicProgram()
	head := Muggle{InnerSym: symbols.New("sp", symbols.Span{})}
	p.Set(head, MagicRuleDef{Algo: &MagicAlgoApply{Algorithm: "bfs"}})

	require.Panics(t, func() {
		p.AppendRule(head, MagicInlineRule{})
	})
}

func TestMagicProgramSetOverwrites(t *testing.T) {
	p := NewMagicProgram()
	head := Muggle{InnerSym: symbols.New("parent", symbols.Span{})}
	p.Set(head, MagicRuleDef{Rules: []MagicInlineRule{{Head: []Var{{Name: "X"}}}}})
	p.Set(head, MagicRuleDef{Rules: []MagicInlineRule{{Head: []Var{{Name: "Y"}}}}})

	def, ok := p.Get(head)
	require.True(t, ok)
	require.Len(t, def.Rules, 1)
	require.Equal(t, "Y", def.Rules[0].Head[0].Name)
}
