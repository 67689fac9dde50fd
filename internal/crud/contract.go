// Package crud is the single execution path for generated table
// operations. Both the REST handlers and the GraphQL resolvers build on
// this package, so filtering, validation, and SQL construction cannot
// drift between the two surfaces.
package crud

import (
	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

// FieldSpec is one field of a generated request/response contract:
// a uniform runtime representation instead of a distinct static type per
// table per tenant.
type FieldSpec struct {
	Name     string               `json:"name"`
	Type     dbschema.SemanticType `json:"type"`
	Required bool                 `json:"required"`
}

// Contracts holds the three generated contracts for one table.
type Contracts struct {
	// Read exposes every column.
	Read []FieldSpec
	// Create excludes auto-increment columns; a column is optional when
	// it is nullable or carries a default.
	Create []FieldSpec
	// Update marks every column optional.
	Update []FieldSpec
}

// BuildContracts derives the contracts from an introspected table.
func BuildContracts(table *dbschema.TableInfo) Contracts {
	var c Contracts
	for _, col := range table.Columns {
		c.Read = append(c.Read, FieldSpec{
			Name:     col.Name,
			Type:     col.Type,
			Required: !col.Nullable,
		})
		if !col.IsAutoIncrement {
			c.Create = append(c.Create, FieldSpec{
				Name:     col.Name,
				Type:     col.Type,
				Required: !col.Nullable && col.DefaultValue == nil,
			})
		}
		c.Update = append(c.Update, FieldSpec{Name: col.Name, Type: col.Type})
	}
	return c
}

// fieldByName returns the spec for name, or nil.
func fieldByName(fields []FieldSpec, name string) *FieldSpec {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

// validatePayload checks payload against the contract and returns bind
// columns and values in the table's physical column order. Unknown keys
// and uncoercible values are validation errors; when enforceRequired is
// set, missing required fields are too.
func validatePayload(table *dbschema.TableInfo, contract []FieldSpec, payload map[string]any, enforceRequired bool) ([]string, []any, error) {
	for key := range payload {
		if fieldByName(contract, key) == nil {
			return nil, nil, errs.Newf(errs.ErrKindValidation,
				"unknown field %q for table %q", key, table.Name)
		}
	}

	var (
		columns []string
		values  []any
	)
	for _, spec := range contract {
		raw, supplied := payload[spec.Name]
		if !supplied {
			if enforceRequired && spec.Required {
				return nil, nil, errs.Newf(errs.ErrKindValidation,
					"missing required field %q", spec.Name)
			}
			continue
		}

		col := table.Column(spec.Name)
		if raw == nil && !col.Nullable {
			return nil, nil, errs.Newf(errs.ErrKindValidation,
				"field %q is not nullable", spec.Name)
		}

		v, err := dbschema.CoerceJSON(spec.Type, raw)
		if err != nil {
			return nil, nil, errs.Newf(errs.ErrKindValidation,
				"field %q: %v", spec.Name, err)
		}
		columns = append(columns, spec.Name)
		values = append(values, v)
	}

	return columns, values, nil
}
