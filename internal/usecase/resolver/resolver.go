package resolver

import (
	"context"
	"fmt"

	"github.com/ecosort/recyclesort/internal/entity"
	"github.com/ecosort/recyclesort/internal/repo"
)

type Outcome string

const (
	OutcomeMatched      Outcome = "matched"
	OutcomeUnclassified Outcome = "unclassified"
)

// Resolution is an explicit sum-type result: a miss is a first-class
// outcome, never a silent fallthrough.
type Resolution struct {
	Outcome Outcome
	Rule    *entity.PairwiseRule
}

type Resolver struct {
	rules repo.RuleRepo
}

func New(rules repo.RuleRepo) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve walks every unordered pair of distinct labels in input order
// (i ascending, j after i) and probes the rule table as (i, j), then (j, i):
// the table is conceptually symmetric but stored asymmetrically. The first
// matching rule wins, so the result is deterministic for a given label
// order.
func (r *Resolver) Resolve(ctx context.Context, labels []entity.Label) (Resolution, error) {
	if len(labels) < 2 {
		return Resolution{Outcome: OutcomeUnclassified}, nil
	}

	for i := 0; i < len(labels)-1; i++ {
		for j := i + 1; j < len(labels); j++ {
			rule, found, err := r.rules.Get(ctx, labels[i].Name, labels[j].Name)
			if err != nil {
				return Resolution{}, fmt.Errorf("Resolver - Resolve - r.rules.Get: %w", err)
			}

			if !found {
				rule, found, err = r.rules.Get(ctx, labels[j].Name, labels[i].Name)
				if err != nil {
					return Resolution{}, fmt.Errorf("Resolver - Resolve - r.rules.Get: %w", err)
				}
			}

			if found {
				return Resolution{Outcome: OutcomeMatched, Rule: rule}, nil
			}
		}
	}

	return Resolution{Outcome: OutcomeUnclassified}, nil
}
