package dbschema

import "strings"

// MapType converts a raw catalog type string into a SemanticType.
//
// The function is pure and total: every input maps to a type in the fixed
// set, unrecognized spellings fall back to TypeString. Size and precision
// suffixes like (255) or (10,2) are stripped so that both the
// INFORMATION_SCHEMA data_type form ("varchar") and the full column type
// form ("varchar(255)") match the same way. Both generators consult this
// single function so a given column is structurally compatible in REST
// and GraphQL.
func MapType(raw string) SemanticType {
	base := raw
	if idx := strings.Index(base, "("); idx != -1 {
		base = base[:idx]
	}
	base = strings.ToLower(strings.TrimSpace(base))

	switch base {
	case "smallint", "int", "integer", "bigint", "int2", "int4", "int8",
		"mediumint", "tinyint", "serial", "bigserial", "smallserial", "year":
		return TypeInteger
	case "real", "float", "float4", "float8", "double", "double precision",
		"numeric", "decimal", "money":
		return TypeFloat
	case "bool", "boolean":
		return TypeBoolean
	case "timestamp", "timestamptz", "timestamp without time zone",
		"timestamp with time zone", "datetime", "date", "time",
		"time without time zone", "time with time zone", "timetz", "interval":
		return TypeTimestamp
	case "json", "jsonb":
		return TypeJSON
	case "bytea", "binary", "varbinary", "blob", "tinyblob", "mediumblob",
		"longblob", "bit":
		return TypeBinary
	default:
		// varchar, char, text, uuid, enum, set, inet, cidr, xml, …
		return TypeString
	}
}
