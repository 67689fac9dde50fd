// Package query parses the generic filter grammar from query strings and
// renders dialect-correct parameterized SQL. User values are never
// interpolated into SQL text — they always travel as bind arguments.
package query

import (
	"net/url"
	"sort"
	"strings"

	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

// Operator is a filter comparison operator from the query-string grammar.
type Operator string

const (
	OpEq   Operator = "eq"
	OpNeq  Operator = "neq"
	OpGt   Operator = "gt"
	OpGte  Operator = "gte"
	OpLt   Operator = "lt"
	OpLte  Operator = "lte"
	OpLike Operator = "like"
	OpIn   Operator = "in"
)

// operators is the allowlist of recognized operators. The operator
// position cannot be parameterized, so only members of this table are
// ever rendered into SQL.
var operators = map[string]Operator{
	"eq": OpEq, "neq": OpNeq,
	"gt": OpGt, "gte": OpGte,
	"lt": OpLt, "lte": OpLte,
	"like": OpLike, "in": OpIn,
}

// sql returns the SQL comparison token for the operator.
func (op Operator) sql() string {
	switch op {
	case OpNeq:
		return "!="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpLike:
		return "LIKE"
	case OpIn:
		return "IN"
	default:
		return "="
	}
}

// FilterClause is one parsed predicate. Values holds exactly one element
// except for the in operator, where it holds the comma-separated list.
type FilterClause struct {
	Field  string
	Op     Operator
	Values []any
}

// reservedParams are pagination/sorting keys, never treated as filters.
var reservedParams = map[string]bool{
	"limit":           true,
	"offset":          true,
	"order":           true,
	"order_direction": true,
}

// ParseFilters converts query parameters into filter clauses validated
// against the table's columns.
//
// Keys of the form "field.operator" select the operator; bare "field"
// keys default to eq. Unrecognized operators are ignored so newer clients
// degrade gracefully against older deployments. Unknown field names are
// rejected before any SQL is constructed. Operand values are coerced to
// the column's semantic type; "in" operands are split on commas and
// "like" operands are wrapped in wildcard markers.
//
// Clause order follows the sorted parameter keys, so rendering is
// deterministic for a given request.
func ParseFilters(params url.Values, table *dbschema.TableInfo) ([]FilterClause, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []FilterClause
	for _, key := range keys {
		if reservedParams[key] || strings.HasPrefix(key, "_") {
			continue
		}

		field := key
		op := OpEq
		if idx := strings.IndexByte(key, '.'); idx != -1 {
			field = key[:idx]
			known, ok := operators[key[idx+1:]]
			if !ok {
				continue // forward-compatible: unknown operators are ignored
			}
			op = known
		}

		col := table.Column(field)
		if col == nil {
			return nil, errs.Newf(errs.ErrKindValidation,
				"unknown filter field %q for table %q", field, table.Name)
		}

		raw := params.Get(key)
		clause := FilterClause{Field: field, Op: op}

		switch op {
		case OpIn:
			for _, part := range strings.Split(raw, ",") {
				v, err := dbschema.CoerceString(col.Type, part)
				if err != nil {
					return nil, errs.Newf(errs.ErrKindValidation,
						"invalid value for %s.in: %v", field, err)
				}
				clause.Values = append(clause.Values, v)
			}
		case OpLike:
			clause.Values = []any{"%" + raw + "%"}
		default:
			v, err := dbschema.CoerceString(col.Type, raw)
			if err != nil {
				return nil, errs.Newf(errs.ErrKindValidation,
					"invalid value for %s.%s: %v", field, op, err)
			}
			clause.Values = []any{v}
		}

		clauses = append(clauses, clause)
	}

	return clauses, nil
}
