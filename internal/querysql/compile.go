package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/comptonseq/internal/queryir"
)

// Compile converts a query to parameterized SQL for SQLite.
// Returns (sql, params, error).
//
// The query is validated against the catalog first, so every identifier in
// the SQL text is a catalog name. Values are always parameters. Every
// query ends in the table's ORDER BY key.
func Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}

	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
	table := queryir.Tables[sel.From]

	columns := sel.Columns
	if len(columns) == 0 {
		columns = table.Columns
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(columns, ", "), table.Name)

	var params []any
	if sel.Filter != nil {
		where, p, err := compilePredicate(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = p
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(orderKey(table))
	return b.String(), params, nil
}

// orderKey returns the ORDER BY clause of a table. COLLATE BINARY keeps
// text ordering stable across SQLite builds.
func orderKey(t queryir.Table) string {
	parts := make([]string, len(t.OrderBy))
	for i, col := range t.OrderBy {
		parts[i] = col + " COLLATE BINARY ASC"
	}
	return strings.Join(parts, ", ")
}

// compilePredicate compiles a predicate to a WHERE fragment.
// Values are never interpolated.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		return compileEquals(*pred)
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := toParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("column %s: %w", eq.Field, err)
	}
	return eq.Field + " = ?", []any{param}, nil
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		switch pred.(type) {
		case queryir.And, *queryir.And:
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// toParam converts a literal to a driver value. SQLite stores booleans as
// integers.
func toParam(v any) (any, error) {
	switch val := v.(type) {
	case string, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
