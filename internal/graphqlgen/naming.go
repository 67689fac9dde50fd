package graphqlgen

import "strings"

// typeName converts a table name into an exported GraphQL type name:
// "order_items" becomes "OrderItem".
func typeName(table string) string {
	parts := strings.Split(table, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == len(parts)-1 {
			p = singular(p)
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	if b.Len() == 0 {
		return "Table"
	}
	return b.String()
}

// listQueryName is the field name for the list query: the table name
// with a trailing "s" appended, regardless of the name's existing form.
// Appending keeps the list field distinct from the by-primary-key field,
// which is named by the table itself.
func listQueryName(table string) string {
	return table + "s"
}

// singular applies the two English plural forms that cover real-world
// table names well enough for generated identifiers.
func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ses") && len(s) > 3:
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") && len(s) > 1:
		return s[:len(s)-1]
	default:
		return s
	}
}
