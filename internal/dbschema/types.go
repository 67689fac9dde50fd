// Package dbschema defines the normalized schema representation produced by
// introspection and consumed by both API generators. A DatabaseSchema is an
// immutable snapshot: once built it is never mutated, only replaced.
package dbschema

import "strings"

// Dialect identifies the SQL variant family of a backing database.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// ParseDialect normalizes a user-supplied dialect string.
// Unrecognized values fall back to postgres, the primary dialect.
func ParseDialect(s string) Dialect {
	switch strings.ToLower(s) {
	case "mysql", "mariadb":
		return DialectMySQL
	default:
		return DialectPostgres
	}
}

// SemanticType is the abstract value category shared by the REST and
// GraphQL generators, independent of raw database type spelling.
type SemanticType string

const (
	TypeString    SemanticType = "string"
	TypeInteger   SemanticType = "integer"
	TypeFloat     SemanticType = "float"
	TypeBoolean   SemanticType = "boolean"
	TypeTimestamp SemanticType = "timestamp"
	TypeJSON      SemanticType = "json"
	TypeBinary    SemanticType = "binary"
)

// FKRule is a referential action on a foreign key constraint.
type FKRule string

const (
	FKRuleCascade     FKRule = "cascade"
	FKRuleRestrict    FKRule = "restrict"
	FKRuleSetNull     FKRule = "set_null"
	FKRuleNoAction    FKRule = "no_action"
	FKRuleUnspecified FKRule = "unspecified"
)

// ParseFKRule converts a catalog referential-action string into an FKRule.
func ParseFKRule(s string) FKRule {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASCADE":
		return FKRuleCascade
	case "RESTRICT":
		return FKRuleRestrict
	case "SET NULL":
		return FKRuleSetNull
	case "NO ACTION":
		return FKRuleNoAction
	default:
		return FKRuleUnspecified
	}
}

// ColumnInfo describes a single column in a table.
type ColumnInfo struct {
	Name            string       `json:"name"`
	Type            SemanticType `json:"type"`
	RawType         string       `json:"raw_type"`
	Nullable        bool         `json:"nullable"`
	IsPrimaryKey    bool         `json:"primary_key"`
	IsAutoIncrement bool         `json:"auto_increment"`
	DefaultValue    *string      `json:"default_value,omitempty"`
	MaxLength       *int         `json:"max_length,omitempty"`
}

// ForeignKey describes a relationship from one column to another table.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
	OnDelete  FKRule `json:"on_delete"`
	OnUpdate  FKRule `json:"on_update"`
}

// TableInfo describes a table, its columns in physical order, and its keys.
type TableInfo struct {
	Name        string       `json:"name"`
	Columns     []ColumnInfo `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Comment     string       `json:"comment,omitempty"`
}

// Column returns the column with the given name, or nil.
func (t *TableInfo) Column(name string) *ColumnInfo {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the table's column names in physical order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasPrimaryKey reports whether the table declares at least one PK column.
func (t *TableInfo) HasPrimaryKey() bool {
	return len(t.PrimaryKey) > 0
}

// PrimaryKeyColumn returns the first primary-key column. Composite keys
// are addressed by their first column only; see the artifact summary's
// pk_strategy field.
func (t *TableInfo) PrimaryKeyColumn() *ColumnInfo {
	if len(t.PrimaryKey) == 0 {
		return nil
	}
	return t.Column(t.PrimaryKey[0])
}

// DatabaseSchema is the full introspected snapshot of one database.
// Table names are unique within a snapshot; column names within a table.
type DatabaseSchema struct {
	DatabaseName string      `json:"database_name"`
	Dialect      Dialect     `json:"dialect"`
	Version      string      `json:"version"`
	Charset      string      `json:"charset,omitempty"`
	Tables       []TableInfo `json:"tables"`
}

// Table returns the table with the given name, or nil.
func (s *DatabaseSchema) Table(name string) *TableInfo {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}
