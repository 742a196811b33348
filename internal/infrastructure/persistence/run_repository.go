package persistence

import (
	"context"

	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
)

// RunRepository implements reconcile.RunRepository on a Gateway
type RunRepository struct {
	gw    Gateway
	table string
}

// NewRunRepository creates a RunRepository over the given table
func NewRunRepository(gw Gateway, table string) *RunRepository {
	return &RunRepository{gw: gw, table: table}
}

// Save stores a finished run
func (r *RunRepository) Save(ctx context.Context, run *reconcile.Run) error {
	var model models.ReconcileRunModel
	model.FromDomain(run)
	_, err := r.gw.Insert(ctx, r.table, &model)
	return err
}

// FindRecent returns up to limit runs, newest first
func (r *RunRepository) FindRecent(ctx context.Context, limit int) ([]reconcile.Run, error) {
	q := Query{OrderBy: "started_at", Desc: true, Limit: limit}
	return selectAll[models.ReconcileRunModel, reconcile.Run](ctx, r.gw, r.table, q)
}
