package graphqlgen

import (
	"strings"

	"apiforge/internal/crud"
	"apiforge/internal/dbschema"
)

// sdlScalar is the SDL spelling of a column's GraphQL scalar.
func sdlScalar(t dbschema.SemanticType) string {
	switch t {
	case dbschema.TypeInteger:
		return "Int"
	case dbschema.TypeFloat:
		return "Float"
	case dbschema.TypeBoolean:
		return "Boolean"
	default:
		return "String"
	}
}

// renderSDL produces the schema definition language text for a snapshot.
// It mirrors exactly what Build assembles, in snapshot table order, so
// the SDL endpoint is deterministic for a given schema.
func renderSDL(schema *dbschema.DatabaseSchema) string {
	var b strings.Builder

	var queryLines, mutationLines []string

	for i := range schema.Tables {
		table := &schema.Tables[i]
		name := typeName(table.Name)
		pk := table.PrimaryKeyColumn()

		b.WriteString("type " + name + " {\n")
		for _, col := range table.Columns {
			suffix := ""
			if !col.Nullable {
				suffix = "!"
			}
			b.WriteString("  " + col.Name + ": " + sdlScalar(col.Type) + suffix + "\n")
		}
		b.WriteString("}\n\n")

		queryLines = append(queryLines,
			"  "+listQueryName(table.Name)+"(limit: Int, offset: Int, order: String, order_direction: String): ["+name+"]")

		contracts := crud.BuildContracts(table)
		if len(contracts.Create) > 0 {
			b.WriteString("input Create" + name + "Input {\n")
			for _, f := range contracts.Create {
				suffix := ""
				if f.Required {
					suffix = "!"
				}
				b.WriteString("  " + f.Name + ": " + sdlScalar(f.Type) + suffix + "\n")
			}
			b.WriteString("}\n\n")
			mutationLines = append(mutationLines,
				"  create"+name+"(input: Create"+name+"Input!): "+name)
		}

		if pk == nil {
			continue
		}
		pkArg := pk.Name + ": " + sdlScalar(pk.Type) + "!"
		queryLines = append(queryLines,
			"  "+table.Name+"("+pkArg+"): "+name)

		b.WriteString("input Update" + name + "SetInput {\n")
		for _, f := range contracts.Update {
			b.WriteString("  " + f.Name + ": " + sdlScalar(f.Type) + "\n")
		}
		b.WriteString("}\n\n")
		mutationLines = append(mutationLines,
			"  update"+name+"("+pkArg+", set: Update"+name+"SetInput): "+name,
			"  delete"+name+"("+pkArg+"): "+name)
	}

	b.WriteString("type Query {\n")
	if len(queryLines) == 0 {
		b.WriteString("  _empty: String\n")
	} else {
		b.WriteString(strings.Join(queryLines, "\n") + "\n")
	}
	b.WriteString("}\n")

	if len(mutationLines) > 0 {
		b.WriteString("\ntype Mutation {\n")
		b.WriteString(strings.Join(mutationLines, "\n") + "\n")
		b.WriteString("}\n")
	}

	return b.String()
}
