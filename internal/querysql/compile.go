// Package querysql compiles harvest log queries to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/harvest/internal/queryir"
)

// columns maps logical field names to interactions columns. Fields not
// listed share their column name.
var columns = map[string]string{
	"before": "before_state",
	"after":  "after_state",
}

// logOrder is the deterministic log order. COLLATE BINARY keeps text
// ordering stable across SQLite versions.
const (
	logOrder     = "seq ASC, id COLLATE BINARY ASC"
	reverseOrder = "seq DESC, id COLLATE BINARY DESC"
)

// Compiler builds SELECTs over one table.
//
// All values are bound as ? parameters, never interpolated. Every
// statement carries an ORDER BY.
type Compiler struct {
	Table   string
	Columns string // select list
}

// NewCompiler creates a compiler for table selecting columns.
func NewCompiler(table, columns string) *Compiler {
	return &Compiler{Table: table, Columns: columns}
}

// Compile validates q and converts it to SQL. Returns (sql, params, error).
func (c *Compiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("compile query: %w", err)
	}

	where, params, err := compilePredicate(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile query: %w", err)
	}
	whereClause := ""
	if where != "" {
		whereClause = " WHERE " + where
	}

	if q.Limit <= 0 {
		sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
			c.Columns, c.Table, whereClause, logOrder)
		return sql, params, nil
	}

	// Newest Limit rows, handed back in log order.
	sql := fmt.Sprintf("SELECT %s FROM (SELECT %s FROM %s%s ORDER BY %s LIMIT ?) ORDER BY %s",
		c.Columns, c.Columns, c.Table, whereClause, reverseOrder, logOrder)
	return sql, append(params, q.Limit), nil
}

// compilePredicate returns "" for a predicate that is always true.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "", nil, nil
	case queryir.Equals:
		return column(pred.Field) + " = ?", []any{param(pred.Value)}, nil
	case queryir.Since:
		return "seq > ?", []any{pred.Seq}, nil
	case queryir.And:
		return compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileAnd(and queryir.And) (string, []any, error) {
	var (
		parts  []string
		params []any
	)
	for _, pred := range and.Predicates {
		sql, ps, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			continue
		}
		if _, nested := pred.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func column(field string) string {
	if col, ok := columns[field]; ok {
		return col
	}
	return field
}

// param normalises integer values so drivers see one type.
func param(v any) any {
	if n, ok := v.(int); ok {
		return int64(n)
	}
	return v
}
