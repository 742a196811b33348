package persistence

import (
	"context"

	"github.com/adplan/backend/internal/domain/shared"
)

// modelPtr constrains M so that *M converts itself to a domain value
type modelPtr[M any, D any] interface {
	*M
	ToDomain() *D
}

// selectAll loads the rows matching q and converts them to domain values
func selectAll[M any, D any, P modelPtr[M, D]](ctx context.Context, gw Gateway, table string, q Query) ([]D, error) {
	var rows []M
	if err := gw.Select(ctx, table, &rows, q); err != nil {
		return nil, err
	}
	out := make([]D, 0, len(rows))
	for i := range rows {
		out = append(out, *P(&rows[i]).ToDomain())
	}
	return out, nil
}

// selectOne loads the first row matching q, or shared.ErrNotFound
func selectOne[M any, D any, P modelPtr[M, D]](ctx context.Context, gw Gateway, table string, q Query) (*D, error) {
	q.Limit = 1
	found, err := selectAll[M, D, P](ctx, gw, table, q)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, shared.ErrNotFound
	}
	return &found[0], nil
}

// updateOne applies patch to the row with the given id, or returns shared.ErrNotFound
func updateOne(ctx context.Context, gw Gateway, table string, id int64, patch map[string]any) error {
	n, err := gw.Update(ctx, table, patch, Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}
