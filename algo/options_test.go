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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/symbols"
)

func TestBoolOption(t *testing.T) {
	opts := map[string]ast.Expr{"undirected": ast.Literal{Value: true}}
	got, err := boolOption(opts, "undirected", false)
	require.NoError(t, err)
	require.True(t, got)

	got, err = boolOption(opts, "missing", true)
	require.NoError(t, err)
	require.True(t, got, "an absent option must fall back to the default")
}

func TestBoolOptionWrongType(t *testing.T) {
	opts := map[string]ast.Expr{"undirected": ast.Literal{Value: "not-a-bool"}}
	_, err := boolOption(opts, "undirected", false)
	require.Error(t, err)
}

func TestPosIntOption(t *testing.T) {
	opts := map[string]ast.Expr{"k": ast.Literal{Value: int64(3)}}
	got, err := posIntOption(opts, "k", -1, symbols.Span{})
	require.NoError(t, err)
	require.Equal(t, 3, got)
}

func TestPosIntOptionMissingRequired(t *testing.T) {
	_, err := posIntOption(map[string]ast.Expr{}, "k", -1, symbols.Span{})
	require.Error(t, err, "a negative default marks the option required")
}

func TestPosIntOptionMissingWithDefault(t *testing.T) {
	got, err := posIntOption(map[string]ast.Expr{}, "limit", 1, symbols.Span{})
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestPosIntOptionRejectsNonPositive(t *testing.T) {
	opts := map[string]ast.Expr{"k": ast.Literal{Value: int64(0)}}
	_, err := posIntOption(opts, "k", -1, symbols.Span{})
	require.Error(t, err)
}

func TestExprOption(t *testing.T) {
	lit := ast.Literal{Value: int64(1)}
	opts := map[string]ast.Expr{"heuristic": lit}
	require.Equal(t, lit, exprOption(opts, "heuristic"))
	require.Nil(t, exprOption(opts, "missing"))
}
