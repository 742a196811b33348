package persistence

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Op is a filter comparison operator
type Op string

const (
	OpEq      Op = "eq"
	OpNeq     Op = "neq"
	OpLt      Op = "lt"
	OpGt      Op = "gt"
	OpIsNull  Op = "is_null"
	OpNotNull Op = "not_null"
)

// Filter restricts a gateway call to rows whose column compares to Value
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq matches rows where column = value
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Neq matches rows where column <> value
func Neq(column string, value any) Filter {
	return Filter{Column: column, Op: OpNeq, Value: value}
}

// Lt matches rows where column < value
func Lt(column string, value any) Filter {
	return Filter{Column: column, Op: OpLt, Value: value}
}

// Gt matches rows where column > value
func Gt(column string, value any) Filter {
	return Filter{Column: column, Op: OpGt, Value: value}
}

// IsNull matches rows where column IS NULL
func IsNull(column string) Filter {
	return Filter{Column: column, Op: OpIsNull}
}

// NotNull matches rows where column IS NOT NULL
func NotNull(column string) Filter {
	return Filter{Column: column, Op: OpNotNull}
}

// Query describes a select: filters are ANDed, rows come back ordered by
// OrderBy (ascending unless Desc) and at most Limit rows are returned when
// Limit is positive.
type Query struct {
	Columns []string
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where starts a query with the given filters
func Where(filters ...Filter) Query {
	return Query{Filters: filters}
}

// Ordered returns a copy of q ordered ascending by column
func (q Query) Ordered(column string) Query {
	q.OrderBy = column
	q.Desc = false
	return q
}

// Gateway is the generic table-scoped access used by every repository.
// It is implemented directly on GORM and on the hosted REST table API.
type Gateway interface {
	// Select decodes the matching rows of table into dest, a pointer to a slice of models
	Select(ctx context.Context, table string, dest any, q Query) error

	// Insert writes rows (a pointer to a model or to a slice of models).
	// When conflictColumns are given, rows that collide on them are skipped
	// silently and not counted. Generated IDs are written back into rows.
	Insert(ctx context.Context, table string, rows any, conflictColumns ...string) (inserted int64, err error)

	// Update applies patch to the matching rows. At least one filter is required.
	Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) (updated int64, err error)

	// Count returns the number of matching rows
	Count(ctx context.Context, table string, filters ...Filter) (int64, error)

	// Max returns the largest value of an integer column, or 0 for an empty table
	Max(ctx context.Context, table, column string) (int64, error)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateIdentifier rejects table and column names that are not plain SQL
// identifiers. Configured table names end up in generated SQL.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func validateQuery(table string, q Query) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	for _, c := range q.Columns {
		if err := ValidateIdentifier(c); err != nil {
			return err
		}
	}
	if q.OrderBy != "" {
		if err := ValidateIdentifier(q.OrderBy); err != nil {
			return err
		}
	}
	return validateFilters(q.Filters)
}

func validateFilters(filters []Filter) error {
	for _, f := range filters {
		if err := ValidateIdentifier(f.Column); err != nil {
			return err
		}
		switch f.Op {
		case OpEq, OpNeq, OpLt, OpGt:
			if f.Value == nil {
				return fmt.Errorf("filter on %s: operator %s needs a value", f.Column, f.Op)
			}
		case OpIsNull, OpNotNull:
		default:
			return fmt.Errorf("filter on %s: unknown operator %q", f.Column, f.Op)
		}
	}
	return nil
}

// FormatValue renders a filter or patch value the way the REST table API expects it
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return "null"
		}
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
