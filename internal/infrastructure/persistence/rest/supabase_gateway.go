// Package rest implements the persistence Gateway on the hosted table API
// (Supabase / PostgREST) for stores the job cannot reach with a direct
// database connection.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/adplan/backend/internal/domain/shared"
	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/adplan/backend/internal/infrastructure/persistence"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// uniqueViolation is the SQLSTATE PostgREST reports for a unique key conflict
const uniqueViolation = "23505"

// TableClient starts a query on a table. *supabase.Client and *postgrest.Client satisfy it.
type TableClient interface {
	From(table string) *postgrest.QueryBuilder
}

// SupabaseGateway implements persistence.Gateway over PostgREST.
// The REST API has no ON CONFLICT DO NOTHING for plain inserts, so rows are
// inserted one at a time. A unique violation on a conflict-targeted insert
// counts as skipped only when a stored row holds the same conflict columns;
// a violation of any other key is returned.
type SupabaseGateway struct {
	client TableClient
}

var _ persistence.Gateway = (*SupabaseGateway)(nil)

// NewSupabaseGateway connects to the project at cfg.URL with the service key
func NewSupabaseGateway(cfg config.RESTConfig) (*SupabaseGateway, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "REST gateway needs a URL and a service key")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.ServiceKey, &supabase.ClientOptions{Schema: cfg.Schema})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return NewGateway(client), nil
}

// NewGateway wraps an existing table client
func NewGateway(client TableClient) *SupabaseGateway {
	return &SupabaseGateway{client: client}
}

// Select implements persistence.Gateway
func (g *SupabaseGateway) Select(ctx context.Context, table string, dest any, q persistence.Query) error {
	if err := checkCall(ctx, table); err != nil {
		return err
	}

	columns := "*"
	if len(q.Columns) > 0 {
		columns = strings.Join(q.Columns, ",")
	}
	fb := applyFilters(g.client.From(table).Select(columns, "", false), q.Filters)
	if q.OrderBy != "" {
		fb = fb.Order(q.OrderBy, &postgrest.OrderOpts{Ascending: !q.Desc})
	}
	if q.Limit > 0 {
		fb = fb.Limit(q.Limit, "")
	}

	if _, err := fb.ExecuteTo(dest); err != nil {
		return fmt.Errorf("select from %s: %w", table, err)
	}
	return nil
}

// Insert implements persistence.Gateway
func (g *SupabaseGateway) Insert(ctx context.Context, table string, rows any, conflictColumns ...string) (int64, error) {
	if err := checkCall(ctx, table); err != nil {
		return 0, err
	}

	items, err := rowValues(rows)
	if err != nil {
		return 0, err
	}

	var inserted int64
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		stored := reflect.New(reflect.SliceOf(item.Type()))
		_, err := g.client.From(table).
			Insert(item.Interface(), false, "", "representation", "").
			ExecuteTo(stored.Interface())
		if err != nil {
			if len(conflictColumns) > 0 && IsUniqueViolation(err) {
				dup, lookupErr := g.conflictExists(ctx, table, item, conflictColumns)
				if lookupErr != nil {
					return inserted, fmt.Errorf("insert into %s: %w (conflict lookup: %v)", table, err, lookupErr)
				}
				if dup {
					continue
				}
			}
			return inserted, fmt.Errorf("insert into %s: %w", table, err)
		}

		if stored.Elem().Len() > 0 {
			item.Set(stored.Elem().Index(0))
		}
		inserted++
	}
	return inserted, nil
}

// Update implements persistence.Gateway
func (g *SupabaseGateway) Update(ctx context.Context, table string, patch map[string]any, filters ...persistence.Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, shared.NewDomainError("INVALID_INPUT", "Update requires at least one filter")
	}
	if err := checkCall(ctx, table); err != nil {
		return 0, err
	}
	if len(patch) == 0 {
		return 0, nil
	}

	fb := applyFilters(g.client.From(table).Update(patch, "minimal", "exact"), filters)
	_, count, err := fb.Execute()
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return count, nil
}

// Count implements persistence.Gateway
func (g *SupabaseGateway) Count(ctx context.Context, table string, filters ...persistence.Filter) (int64, error) {
	if err := checkCall(ctx, table); err != nil {
		return 0, err
	}

	_, count, err := applyFilters(g.client.From(table).Select("*", "exact", true), filters).Execute()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// Max implements persistence.Gateway
func (g *SupabaseGateway) Max(ctx context.Context, table, column string) (int64, error) {
	if err := checkCall(ctx, table); err != nil {
		return 0, err
	}
	if err := persistence.ValidateIdentifier(column); err != nil {
		return 0, err
	}

	var rows []map[string]any
	_, err := g.client.From(table).
		Select(column, "", false).
		Not(column, "is", "null").
		Order(column, &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return 0, fmt.Errorf("max %s.%s: %w", table, column, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0][column])
}

// conflictExists reports whether a stored row already holds item's values in
// columns. A NULL in any column never conflicts.
func (g *SupabaseGateway) conflictExists(ctx context.Context, table string, item reflect.Value, columns []string) (bool, error) {
	raw, err := json.Marshal(item.Interface())
	if err != nil {
		return false, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		return false, err
	}

	filters := make([]persistence.Filter, 0, len(columns))
	for _, c := range columns {
		v, ok := row[c]
		if !ok {
			return false, fmt.Errorf("conflict column %s is not part of the row", c)
		}
		if v == nil {
			return false, nil
		}
		filters = append(filters, persistence.Eq(c, v))
	}

	n, err := g.Count(ctx, table, filters...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsUniqueViolation reports whether err is PostgREST's answer to a unique key conflict
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, uniqueViolation) || strings.Contains(msg, "duplicate key")
}

func checkCall(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return persistence.ValidateIdentifier(table)
}

func applyFilters(fb *postgrest.FilterBuilder, filters []persistence.Filter) *postgrest.FilterBuilder {
	for _, f := range filters {
		switch f.Op {
		case persistence.OpEq:
			fb = fb.Eq(f.Column, persistence.FormatValue(f.Value))
		case persistence.OpNeq:
			fb = fb.Neq(f.Column, persistence.FormatValue(f.Value))
		case persistence.OpLt:
			fb = fb.Lt(f.Column, persistence.FormatValue(f.Value))
		case persistence.OpGt:
			fb = fb.Gt(f.Column, persistence.FormatValue(f.Value))
		case persistence.OpIsNull:
			fb = fb.Is(f.Column, "null")
		case persistence.OpNotNull:
			fb = fb.Not(f.Column, "is", "null")
		}
	}
	return fb
}

// rowValues returns the addressable row values behind a pointer to a model or to a slice of models
func rowValues(rows any) ([]reflect.Value, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, errors.New("rows must be a non-nil pointer")
	}

	elem := v.Elem()
	switch elem.Kind() {
	case reflect.Struct:
		return []reflect.Value{elem}, nil
	case reflect.Slice:
		out := make([]reflect.Value, elem.Len())
		for i := range out {
			out[i] = elem.Index(i)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("rows must point to a struct or a slice, got %s", elem.Kind())
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected numeric value %T", v)
	}
}
