package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ecosort/recyclesort/internal/entity"
	"github.com/ecosort/recyclesort/pkg/postgres"
)

const (
	// Table
	rulesTable = "recyclable_items"

	// Columns
	itemTypeColumn     = "item_type"
	materialTypeColumn = "material_type"
	recyclableColumn   = "recyclable"
	binColorColumn     = "bin_color"
	instructionsColumn = "instructions"
)

// RuleRepo reads the pairwise rule reference table. The table is never
// mutated by this service.
type RuleRepo struct {
	*postgres.Postgres
}

func NewRuleRepo(pg *postgres.Postgres) *RuleRepo {
	return &RuleRepo{pg}
}

// Get probes one direction only; the resolver is responsible for the reverse
// probe.
func (r *RuleRepo) Get(ctx context.Context, itemType, materialType string) (*entity.PairwiseRule, bool, error) {
	sql, args, err := r.Builder.
		Select(
			itemTypeColumn,
			materialTypeColumn,
			recyclableColumn,
			binColorColumn,
			instructionsColumn,
		).
		From(rulesTable).
		Where(squirrel.And{
			squirrel.Eq{itemTypeColumn: itemType},
			squirrel.Eq{materialTypeColumn: materialType},
		}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("RuleRepo - Get - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var rule entity.PairwiseRule
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&rule.ItemType,
		&rule.MaterialType,
		&rule.Recyclable,
		&rule.BinColor,
		&rule.Instructions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("RuleRepo - Get - executor.QueryRow: %w", err)
	}

	return &rule, true, nil
}
