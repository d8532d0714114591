package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosort/recyclesort/internal/entity"
)

type fakeRuleRepo struct {
	rules  map[[2]string]*entity.PairwiseRule
	probes [][2]string
	err    error
}

func (f *fakeRuleRepo) Get(_ context.Context, itemType, materialType string) (*entity.PairwiseRule, bool, error) {
	f.probes = append(f.probes, [2]string{itemType, materialType})

	if f.err != nil {
		return nil, false, f.err
	}

	rule, ok := f.rules[[2]string{itemType, materialType}]
	return rule, ok, nil
}

func labels(names ...string) []entity.Label {
	out := make([]entity.Label, 0, len(names))
	for i, n := range names {
		out = append(out, entity.Label{Name: n, Confidence: float64(95 - i)})
	}
	return out
}

func TestResolve_MatchesForwardProbe(t *testing.T) {
	rule := &entity.PairwiseRule{ItemType: "Bottle", MaterialType: "Plastic", Recyclable: true}
	repo := &fakeRuleRepo{rules: map[[2]string]*entity.PairwiseRule{
		{"Bottle", "Plastic"}: rule,
	}}

	r := New(repo)

	res, err := r.Resolve(context.Background(), labels("Bottle", "Plastic"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeMatched, res.Outcome)
	assert.Equal(t, rule, res.Rule)
	assert.Equal(t, [][2]string{{"Bottle", "Plastic"}}, repo.probes)
}

func TestResolve_MatchesReverseProbe(t *testing.T) {
	rule := &entity.PairwiseRule{ItemType: "Bottle", MaterialType: "Plastic", Recyclable: true}
	repo := &fakeRuleRepo{rules: map[[2]string]*entity.PairwiseRule{
		{"Bottle", "Plastic"}: rule,
	}}

	r := New(repo)

	// Oracle ranked "Plastic" first; the stored rule is keyed the other way.
	res, err := r.Resolve(context.Background(), labels("Plastic", "Bottle"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeMatched, res.Outcome)
	assert.Equal(t, rule, res.Rule)
	assert.Equal(t, [][2]string{{"Plastic", "Bottle"}, {"Bottle", "Plastic"}}, repo.probes)
}

func TestResolve_FirstHitWins(t *testing.T) {
	first := &entity.PairwiseRule{ItemType: "Can", MaterialType: "Metal", Recyclable: true}
	second := &entity.PairwiseRule{ItemType: "Bottle", MaterialType: "Glass", Recyclable: true}
	repo := &fakeRuleRepo{rules: map[[2]string]*entity.PairwiseRule{
		{"Can", "Metal"}:    first,
		{"Bottle", "Glass"}: second,
	}}

	r := New(repo)

	// (Can, Metal) is visited before (Bottle, Glass) in pair order, so it
	// wins even though both pairs have rules.
	res, err := r.Resolve(context.Background(), labels("Can", "Metal", "Bottle", "Glass"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeMatched, res.Outcome)
	assert.Equal(t, first, res.Rule)
}

func TestResolve_Deterministic(t *testing.T) {
	rule := &entity.PairwiseRule{ItemType: "Cup", MaterialType: "Paper", Recyclable: true}
	input := labels("Trash", "Cup", "Paper", "Drink")

	for i := 0; i < 5; i++ {
		repo := &fakeRuleRepo{rules: map[[2]string]*entity.PairwiseRule{
			{"Cup", "Paper"}: rule,
		}}

		res, err := New(repo).Resolve(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, OutcomeMatched, res.Outcome)
		assert.Equal(t, rule, res.Rule)
	}
}

func TestResolve_NoMatchIsUnclassified(t *testing.T) {
	repo := &fakeRuleRepo{rules: map[[2]string]*entity.PairwiseRule{}}

	r := New(repo)

	res, err := r.Resolve(context.Background(), labels("Sky", "Cloud", "Tree"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnclassified, res.Outcome)
	assert.Nil(t, res.Rule)
	// 3 labels -> 3 unordered pairs, each probed both ways.
	assert.Len(t, repo.probes, 6)
}

func TestResolve_FewerThanTwoLabels(t *testing.T) {
	repo := &fakeRuleRepo{}

	r := New(repo)

	for _, input := range [][]entity.Label{nil, labels("Bottle")} {
		res, err := r.Resolve(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, OutcomeUnclassified, res.Outcome)
	}

	assert.Empty(t, repo.probes)
}

func TestResolve_LookupErrorPropagates(t *testing.T) {
	repo := &fakeRuleRepo{err: errors.New("connection reset")}

	r := New(repo)

	_, err := r.Resolve(context.Background(), labels("Bottle", "Plastic"))
	require.Error(t, err)
}
