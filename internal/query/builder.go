package query

import (
	"fmt"
	"strings"

	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

// placeholderFunc renders the n-th positional placeholder (1-based).
type placeholderFunc func(n int) string

// placeholders returns the placeholder style for a dialect: numbered $n
// for postgres, unnumbered ? for mysql. Callers never branch on dialect
// themselves — they hold a Builder.
func placeholders(d dbschema.Dialect) placeholderFunc {
	if d == dbschema.DialectMySQL {
		return func(int) string { return "?" }
	}
	return func(n int) string { return fmt.Sprintf("$%d", n) }
}

// QuoteIdent wraps a SQL identifier in the dialect's quoting style,
// escaping embedded quote characters. Identifiers still come only from
// introspected schema metadata, never from request values.
func QuoteIdent(d dbschema.Dialect, name string) string {
	if d == dbschema.DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Builder accumulates a parameterized SQL statement for one dialect,
// keeping the positional numbering consistent across WHERE, LIMIT and
// OFFSET fragments. A Builder is single-use.
type Builder struct {
	dialect     dbschema.Dialect
	placeholder placeholderFunc
	args        []any
}

// NewBuilder returns an empty Builder for the dialect.
func NewBuilder(d dbschema.Dialect) *Builder {
	return &Builder{dialect: d, placeholder: placeholders(d)}
}

// Args returns the accumulated bind values in placeholder order.
func (b *Builder) Args() []any { return b.args }

// bind appends v and returns its placeholder.
func (b *Builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.placeholder(len(b.args))
}

// Where renders the clauses as `"col" OP <placeholder>` joined with AND,
// prefixed with " WHERE ". Returns the empty string for no clauses.
// IN clauses expand to one placeholder per value.
func (b *Builder) Where(clauses []FilterClause) string {
	if len(clauses) == 0 {
		return ""
	}

	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		col := QuoteIdent(b.dialect, c.Field)
		if c.Op == OpIn {
			ph := make([]string, len(c.Values))
			for i, v := range c.Values {
				ph[i] = b.bind(v)
			}
			parts = append(parts, fmt.Sprintf("%s IN (%s)", col, strings.Join(ph, ", ")))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", col, c.Op.sql(), b.bind(c.Values[0])))
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// OrderBy renders an ORDER BY fragment. The sort column must be one of
// the table's actual columns; anything else is rejected so the sort key
// cannot become an injection vector. An empty column yields no fragment.
func (b *Builder) OrderBy(table *dbschema.TableInfo, column, direction string) (string, error) {
	if column == "" {
		return "", nil
	}
	if table.Column(column) == nil {
		return "", errs.Newf(errs.ErrKindValidation,
			"unknown sort column %q for table %q", column, table.Name)
	}
	dir := "ASC"
	if strings.EqualFold(direction, "desc") {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", QuoteIdent(b.dialect, column), dir), nil
}

// LimitOffset renders LIMIT/OFFSET as bound placeholders, continuing the
// numbering established by Where.
func (b *Builder) LimitOffset(limit, offset int) string {
	l := b.bind(limit)
	o := b.bind(offset)
	return fmt.Sprintf(" LIMIT %s OFFSET %s", l, o)
}

// ClampPage normalizes pagination inputs: limit is clamped to
// [1, maxPageSize] (zero selects the default), offset to >= 0.
// Violations are corrected, not rejected, so listings stay serviceable.
func ClampPage(limit, offset, defaultPageSize, maxPageSize int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// --- statement builders shared by the REST and GraphQL execution paths ---

// ListSpec describes one list query over a table.
type ListSpec struct {
	Table     *dbschema.TableInfo
	Filters   []FilterClause
	Order     string
	OrderDesc bool
	Limit     int
	Offset    int
}

// BuildList renders the data SELECT and its COUNT twin over the same
// WHERE snapshot. The count statement carries the WHERE args only; the
// data statement appends limit and offset.
func BuildList(d dbschema.Dialect, spec ListSpec) (dataSQL, countSQL string, dataArgs, countArgs []any, err error) {
	b := NewBuilder(d)
	where := b.Where(spec.Filters)
	countArgs = append([]any{}, b.Args()...)

	dir := "asc"
	if spec.OrderDesc {
		dir = "desc"
	}
	order, err := b.OrderBy(spec.Table, spec.Order, dir)
	if err != nil {
		return "", "", nil, nil, err
	}

	table := QuoteIdent(d, spec.Table.Name)
	page := b.LimitOffset(spec.Limit, spec.Offset)

	dataSQL = "SELECT * FROM " + table + where + order + page
	countSQL = "SELECT COUNT(*) FROM " + table + where
	return dataSQL, countSQL, b.Args(), countArgs, nil
}

// BuildGet renders a primary-key lookup.
func BuildGet(d dbschema.Dialect, table *dbschema.TableInfo, pkColumn string, id any) (string, []any) {
	b := NewBuilder(d)
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		QuoteIdent(d, table.Name), QuoteIdent(d, pkColumn), b.bind(id))
	return sql, b.Args()
}

// BuildInsert renders a single-row INSERT over the supplied columns.
// On postgres the statement carries RETURNING * so the inserted row,
// including server-assigned defaults, comes back in one round trip.
func BuildInsert(d dbschema.Dialect, table *dbschema.TableInfo, columns []string, values []any) (string, []any) {
	b := NewBuilder(d)
	cols := make([]string, len(columns))
	ph := make([]string, len(values))
	for i, c := range columns {
		cols[i] = QuoteIdent(d, c)
	}
	for i, v := range values {
		ph[i] = b.bind(v)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(d, table.Name), strings.Join(cols, ", "), strings.Join(ph, ", "))
	if d == dbschema.DialectPostgres {
		sql += " RETURNING *"
	}
	return sql, b.Args()
}

// BuildBulkInsert renders ONE multi-row INSERT for the supplied rows.
// All rows must share the column list. Bulk creation stays a single
// statement, so it is atomic without multi-statement transactions.
func BuildBulkInsert(d dbschema.Dialect, table *dbschema.TableInfo, columns []string, rows [][]any) (string, []any) {
	b := NewBuilder(d)
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = QuoteIdent(d, c)
	}

	tuples := make([]string, len(rows))
	for i, row := range rows {
		ph := make([]string, len(row))
		for j, v := range row {
			ph[j] = b.bind(v)
		}
		tuples[i] = "(" + strings.Join(ph, ", ") + ")"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		QuoteIdent(d, table.Name), strings.Join(cols, ", "), strings.Join(tuples, ", "))
	if d == dbschema.DialectPostgres {
		sql += " RETURNING *"
	}
	return sql, b.Args()
}

// BuildUpdate renders an UPDATE of the supplied columns addressed by the
// primary-key column.
func BuildUpdate(d dbschema.Dialect, table *dbschema.TableInfo, columns []string, values []any, pkColumn string, id any) (string, []any) {
	b := NewBuilder(d)
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = %s", QuoteIdent(d, c), b.bind(values[i]))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		QuoteIdent(d, table.Name), strings.Join(sets, ", "),
		QuoteIdent(d, pkColumn), b.bind(id))
	if d == dbschema.DialectPostgres {
		sql += " RETURNING *"
	}
	return sql, b.Args()
}

// BuildDelete renders a DELETE addressed by the primary-key column.
func BuildDelete(d dbschema.Dialect, table *dbschema.TableInfo, pkColumn string, id any) (string, []any) {
	b := NewBuilder(d)
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		QuoteIdent(d, table.Name), QuoteIdent(d, pkColumn), b.bind(id))
	if d == dbschema.DialectPostgres {
		sql += " RETURNING *"
	}
	return sql, b.Args()
}
