package persistence

import (
	"context"
	"fmt"

	"github.com/adplan/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGateway implements Gateway on a GORM connection (postgres, or sqlite in tests)
type GormGateway struct {
	db *gorm.DB
}

// NewGormGateway creates a gateway over db
func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

// Select implements Gateway
func (g *GormGateway) Select(ctx context.Context, table string, dest any, q Query) error {
	if err := validateQuery(table, q); err != nil {
		return err
	}

	tx := g.db.WithContext(ctx).Table(table)
	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}
	tx = applyFilters(tx, q.Filters)
	if q.OrderBy != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: q.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	if err := tx.Find(dest).Error; err != nil {
		return fmt.Errorf("select from %s: %w", table, err)
	}
	return nil
}

// Insert implements Gateway. Conflicts on conflictColumns use
// ON CONFLICT DO NOTHING, so a skipped row shows up as RowsAffected 0.
func (g *GormGateway) Insert(ctx context.Context, table string, rows any, conflictColumns ...string) (int64, error) {
	if err := ValidateIdentifier(table); err != nil {
		return 0, err
	}

	tx := g.db.WithContext(ctx).Table(table)
	if len(conflictColumns) > 0 {
		cols := make([]clause.Column, 0, len(conflictColumns))
		for _, c := range conflictColumns {
			if err := ValidateIdentifier(c); err != nil {
				return 0, err
			}
			cols = append(cols, clause.Column{Name: c})
		}
		tx = tx.Clauses(clause.OnConflict{Columns: cols, DoNothing: true})
	}

	result := tx.Create(rows)
	if result.Error != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, result.Error)
	}
	return result.RowsAffected, nil
}

// Update implements Gateway
func (g *GormGateway) Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, shared.NewDomainError("INVALID_INPUT", "Update requires at least one filter")
	}
	if len(patch) == 0 {
		return 0, nil
	}
	if err := validateQuery(table, Query{Filters: filters}); err != nil {
		return 0, err
	}
	for col := range patch {
		if err := ValidateIdentifier(col); err != nil {
			return 0, err
		}
	}

	result := applyFilters(g.db.WithContext(ctx).Table(table), filters).Updates(patch)
	if result.Error != nil {
		return 0, fmt.Errorf("update %s: %w", table, result.Error)
	}
	return result.RowsAffected, nil
}

// Count implements Gateway
func (g *GormGateway) Count(ctx context.Context, table string, filters ...Filter) (int64, error) {
	if err := validateQuery(table, Query{Filters: filters}); err != nil {
		return 0, err
	}

	var n int64
	if err := applyFilters(g.db.WithContext(ctx).Table(table), filters).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Max implements Gateway
func (g *GormGateway) Max(ctx context.Context, table, column string) (int64, error) {
	if err := ValidateIdentifier(table); err != nil {
		return 0, err
	}
	if err := ValidateIdentifier(column); err != nil {
		return 0, err
	}

	var n int64
	row := g.db.WithContext(ctx).
		Table(table).
		Select(fmt.Sprintf("COALESCE(MAX(%s), 0)", column)).
		Row()
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("max %s.%s: %w", table, column, err)
	}
	return n, nil
}

func applyFilters(tx *gorm.DB, filters []Filter) *gorm.DB {
	for _, f := range filters {
		col := clause.Column{Name: f.Column}
		switch f.Op {
		case OpEq:
			tx = tx.Where(clause.Eq{Column: col, Value: f.Value})
		case OpNeq:
			tx = tx.Where(clause.Neq{Column: col, Value: f.Value})
		case OpLt:
			tx = tx.Where(clause.Lt{Column: col, Value: f.Value})
		case OpGt:
			tx = tx.Where(clause.Gt{Column: col, Value: f.Value})
		case OpIsNull:
			tx = tx.Where(clause.Eq{Column: col, Value: nil})
		case OpNotNull:
			tx = tx.Where(clause.Neq{Column: col, Value: nil})
		}
	}
	return tx
}
