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

package eval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/stratumcore/stratum/algo"
	"github.com/stratumcore/stratum/ast"
	"github.com/stratumcore/stratum/store"
	"github.com/stratumcore/stratum/symbols"
)

// fakeRuleEvaluator is a RuleEvaluator stub: real join evaluation is an
// external collaborator out of scope here (see the eval package doc comment).
type fakeRuleEvaluator struct {
	evalStratum func(sess *store.Session, stratum *ast.MagicProgram, outputs algo.StratumOutputs) (algo.StratumOutputs, error)
}

func (f fakeRuleEvaluator) EvalStratum(sess *store.Session, stratum *ast.MagicProgram, outputs algo.StratumOutputs) (algo.StratumOutputs, error) {
	return f.evalStratum(sess, stratum, outputs)
}

func muggle(name string) ast.Muggle {
	return ast.Muggle{InnerSym: symbols.New(name, symbols.Span{})}
}

func TestExecuteThreadsOutputsAcrossStrata(t *testing.T) {
	pSym := muggle("p")
	qSym := muggle("q")

	stratum0 := ast.NewMagicProgram()
	stratum0.Set(pSym, ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{}}})
	stratum1 := ast.NewMagicProgram()
	stratum1.Set(qSym, ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{}}})

	prog := &ast.StratifiedMagicProgram{Strata: []*ast.MagicProgram{stratum0, stratum1}}

	pRel := store.NewRelation(1)
	pRel.Put(store.Tuple{"x"})
	qRel := store.NewRelation(1)
	qRel.Put(store.Tuple{"y"})

	var sawPInStratum1 bool
	evaluator := fakeRuleEvaluator{evalStratum: func(sess *store.Session, stratum *ast.MagicProgram, outputs algo.StratumOutputs) (algo.StratumOutputs, error) {
		_, hasP := stratum.Get(pSym)
		if hasP {
			return algo.StratumOutputs{ast.MagicSymbolKey(pSym): pRel}, nil
		}
		if _, ok := outputs.Get(qSym); ok {
			t.Fatal("q must not already be present before stratum 1 produces it")
		}
		if _, ok := outputs.Get(pSym); ok {
			sawPInStratum1 = true
		}
		return algo.StratumOutputs{ast.MagicSymbolKey(qSym): qRel}, nil
	}}

	exec := NewStratumExecutor(store.NewSession(), evaluator, nil)
	outputs, err := exec.Execute(prog)
	require.NoError(t, err)
	require.True(t, sawPInStratum1, "stratum 1 must see stratum 0's output")

	got, ok := outputs.Get(pSym)
	require.True(t, ok)
	require.Same(t, pRel, got)
	got, ok = outputs.Get(qSym)
	require.True(t, ok)
	require.Same(t, qRel, got)
}

func TestExecuteRunsAlgorithmHeadsAndFeedsDownstreamRules(t *testing.T) {
	treeSym := muggle("tree")
	reportSym := muggle("report")

	edgesRel := store.NewRelation(3)
	edgesRel.Put(store.Tuple{"A", "B", int64(1)})

	edgesStoredName := symbols.New("edges", symbols.Span{})

	stratum0 := ast.NewMagicProgram()
	stratum0.Set(treeSym, ast.MagicRuleDef{Algo: &ast.MagicAlgoApply{
		Algorithm: "minimum_spanning_tree_prim",
		RuleArgs:  []ast.MagicAlgoRuleArg{ast.MagicStoredArg{Name: edgesStoredName}},
		Arity:     3,
	}})

	stratum1 := ast.NewMagicProgram()
	stratum1.Set(reportSym, ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{}}})

	prog := &ast.StratifiedMagicProgram{Strata: []*ast.MagicProgram{stratum0, stratum1}}

	var sawTree bool
	evaluator := fakeRuleEvaluator{evalStratum: func(sess *store.Session, stratum *ast.MagicProgram, outputs algo.StratumOutputs) (algo.StratumOutputs, error) {
		if _, ok := outputs.Get(treeSym); ok {
			sawTree = true
		}
		return algo.StratumOutputs{ast.MagicSymbolKey(reportSym): store.NewRelation(1)}, nil
	}}

	sess := store.NewSession()
	sess.Put(edgesStoredName, edgesRel)
	exec := NewStratumExecutor(sess, evaluator, nil)

	outputs, err := exec.Execute(prog)
	require.NoError(t, err)
	require.True(t, sawTree, "stratum 1 must see the algorithm output from stratum 0")

	treeRel, ok := outputs.Get(treeSym)
	require.True(t, ok)
	require.Equal(t, 1, treeRel.Len(), "a 2-node graph's spanning tree has exactly one edge")
}

func TestExecuteAbortsOnFirstAlgorithmError(t *testing.T) {
	badSym := muggle("bad")
	stratum0 := ast.NewMagicProgram()
	stratum0.Set(badSym, ast.MagicRuleDef{Algo: &ast.MagicAlgoApply{
		Algorithm: "not_a_real_algorithm",
		Arity:     1,
	}})
	prog := &ast.StratifiedMagicProgram{Strata: []*ast.MagicProgram{stratum0}}

	evaluator := fakeRuleEvaluator{evalStratum: func(sess *store.Session, stratum *ast.MagicProgram, outputs algo.StratumOutputs) (algo.StratumOutputs, error) {
		t.Fatal("must not reach rule evaluation when the algorithm head fails")
		return nil, nil
	}}
	exec := NewStratumExecutor(store.NewSession(), evaluator, nil)
	_, err := exec.Execute(prog)
	require.Error(t, err)
}

func TestExecuteAbortsOnFirstRuleStratumError(t *testing.T) {
	pSym := muggle("p")
	stratum0 := ast.NewMagicProgram()
	stratum0.Set(pSym, ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{}}})
	prog := &ast.StratifiedMagicProgram{Strata: []*ast.MagicProgram{stratum0}}

	wantErr := errors.New("boom")
	evaluator := fakeRuleEvaluator{evalStratum: func(sess *store.Session, stratum *ast.MagicProgram, outputs algo.StratumOutputs) (algo.StratumOutputs, error) {
		return nil, wantErr
	}}
	exec := NewStratumExecutor(store.NewSession(), evaluator, nil)
	_, err := exec.Execute(prog)
	require.Error(t, err)
	require.ErrorIs(t, err, wantErr)
}

func TestValidateAccumulatesUnknownAlgorithmAndDanglingReference(t *testing.T) {
	headSym := muggle("head")
	stratum0 := ast.NewMagicProgram()
	stratum0.Set(headSym, ast.MagicRuleDef{Algo: &ast.MagicAlgoApply{
		Algorithm: "not_a_real_algorithm",
		RuleArgs:  []ast.MagicAlgoRuleArg{ast.MagicInMemArg{Name: muggle("never_produced")}},
		Arity:     1,
	}})
	prog := &ast.StratifiedMagicProgram{Strata: []*ast.MagicProgram{stratum0}}

	err := Validate(prog)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2, "both the unknown algorithm and the dangling reference must be reported")
}

func TestValidateAcceptsReferenceToAnEarlierStratumsHead(t *testing.T) {
	edgesSym := muggle("edges")
	treeSym := muggle("tree")
	stratum0 := ast.NewMagicProgram()
	stratum0.Set(edgesSym, ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{}}})
	stratum1 := ast.NewMagicProgram()
	stratum1.Set(treeSym, ast.MagicRuleDef{Algo: &ast.MagicAlgoApply{
		Algorithm: "minimum_spanning_tree_prim",
		RuleArgs:  []ast.MagicAlgoRuleArg{ast.MagicInMemArg{Name: edgesSym}},
		Arity:     3,
	}})
	prog := &ast.StratifiedMagicProgram{Strata: []*ast.MagicProgram{stratum0, stratum1}}

	require.NoError(t, Validate(prog))
}

func TestSortedEntriesIsDeterministic(t *testing.T) {
	prog := ast.NewMagicProgram()
	prog.Set(muggle("zeta"), ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{}}})
	prog.Set(muggle("alpha"), ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{}}})
	prog.Set(muggle("mid"), ast.MagicRuleDef{Rules: []ast.MagicInlineRule{{}}})

	first := sortedEntries(prog)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, sortedEntries(prog), "ordering must be stable across repeated calls")
	}
	require.Len(t, first, 3)
	require.Equal(t, "alpha", first[0].Head.Inner().Name)
	require.Equal(t, "mid", first[1].Head.Inner().Name)
	require.Equal(t, "zeta", first[2].Head.Inner().Name)
}
