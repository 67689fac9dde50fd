// Package graphqlgen builds an executable GraphQL schema from an
// introspected database snapshot. Resolvers delegate to the same crud
// executor as the REST handlers, so both surfaces share one filtering,
// validation, and SQL construction path.
package graphqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"

	"apiforge/internal/crud"
	"apiforge/internal/dbschema"
	"apiforge/internal/errs"
)

// Artifact is the generated GraphQL surface for one tenant.
type Artifact struct {
	Schema graphql.Schema
	SDL    string
}

// Execute runs one GraphQL request against the artifact's schema.
func (a *Artifact) Execute(ctx context.Context, query string, variables map[string]any, operationName string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         a.Schema,
		RequestString:  query,
		VariableValues: variables,
		OperationName:  operationName,
		Context:        ctx,
	})
}

type builder struct {
	exec   *crud.Executor
	schema *dbschema.DatabaseSchema
}

// Build assembles the GraphQL schema for every table in the executor's
// snapshot: a list query per table (field name is the table name plus a
// trailing "s"), a by-primary-key query named by the table itself, a
// create mutation, and update/delete mutations for tables with a
// primary key.
func Build(exec *crud.Executor) (*Artifact, error) {
	b := &builder{exec: exec, schema: exec.Schema()}

	queryFields := graphql.Fields{}
	mutationFields := graphql.Fields{}

	for i := range b.schema.Tables {
		table := &b.schema.Tables[i]
		tableType := b.objectType(table)

		b.addQueries(queryFields, table, tableType)
		b.addMutations(mutationFields, table, tableType)
	}

	if len(queryFields) == 0 {
		queryFields["_empty"] = &graphql.Field{
			Type:        graphql.String,
			Description: "Placeholder field when the database has no tables",
			Resolve: func(graphql.ResolveParams) (interface{}, error) {
				return nil, nil
			},
		}
	}

	schemaConfig := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: queryFields,
		}),
	}
	if len(mutationFields) > 0 {
		schemaConfig.Mutation = graphql.NewObject(graphql.ObjectConfig{
			Name:   "Mutation",
			Fields: mutationFields,
		})
	}

	schema, err := graphql.NewSchema(schemaConfig)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindSchema, "failed to assemble GraphQL schema", err)
	}

	return &Artifact{Schema: schema, SDL: renderSDL(b.schema)}, nil
}

// scalarFor maps a semantic column type to a GraphQL scalar. Timestamps,
// json and binary travel as strings.
func scalarFor(t dbschema.SemanticType) *graphql.Scalar {
	switch t {
	case dbschema.TypeInteger:
		return graphql.Int
	case dbschema.TypeFloat:
		return graphql.Float
	case dbschema.TypeBoolean:
		return graphql.Boolean
	default:
		return graphql.String
	}
}

// objectType builds the output type for one table. The default resolver
// reads fields from map[string]interface{} rows, so column fields need no
// explicit resolve functions.
func (b *builder) objectType(table *dbschema.TableInfo) *graphql.Object {
	fields := graphql.Fields{}
	for _, col := range table.Columns {
		var fieldType graphql.Output = scalarFor(col.Type)
		if !col.Nullable {
			fieldType = graphql.NewNonNull(fieldType)
		}
		fields[col.Name] = &graphql.Field{Type: fieldType}
	}
	return graphql.NewObject(graphql.ObjectConfig{
		Name:   typeName(table.Name),
		Fields: fields,
	})
}

func (b *builder) addQueries(fields graphql.Fields, table *dbschema.TableInfo, tableType *graphql.Object) {
	fields[listQueryName(table.Name)] = &graphql.Field{
		Type: graphql.NewList(tableType),
		Args: graphql.FieldConfigArgument{
			"limit":           &graphql.ArgumentConfig{Type: graphql.Int},
			"offset":          &graphql.ArgumentConfig{Type: graphql.Int},
			"order":           &graphql.ArgumentConfig{Type: graphql.String},
			"order_direction": &graphql.ArgumentConfig{Type: graphql.String},
		},
		Resolve: b.listResolver(table.Name),
	}

	pk := table.PrimaryKeyColumn()
	if pk == nil {
		return
	}
	fields[table.Name] = &graphql.Field{
		Type: tableType,
		Args: graphql.FieldConfigArgument{
			pk.Name: &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(scalarFor(pk.Type)),
			},
		},
		Resolve: b.singleResolver(table.Name, pk.Name),
	}
}

// addMutations registers create for every table with insertable columns.
// Update and delete address a row by key, so they exist only for tables
// with a primary key.
func (b *builder) addMutations(fields graphql.Fields, table *dbschema.TableInfo, tableType *graphql.Object) {
	name := typeName(table.Name)
	contracts := crud.BuildContracts(table)

	if len(contracts.Create) > 0 {
		fields["create"+name] = &graphql.Field{
			Type: tableType,
			Args: graphql.FieldConfigArgument{
				"input": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(b.createInputType(name, contracts.Create)),
				},
			},
			Resolve: b.createResolver(table.Name),
		}
	}

	pk := table.PrimaryKeyColumn()
	if pk == nil {
		return
	}

	fields["update"+name] = &graphql.Field{
		Type: tableType,
		Args: graphql.FieldConfigArgument{
			pk.Name: &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(scalarFor(pk.Type)),
			},
			"set": &graphql.ArgumentConfig{
				Type: b.updateInputType(name, contracts.Update),
			},
		},
		Resolve: b.updateResolver(table.Name, pk.Name),
	}

	fields["delete"+name] = &graphql.Field{
		Type: tableType,
		Args: graphql.FieldConfigArgument{
			pk.Name: &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(scalarFor(pk.Type)),
			},
		},
		Resolve: b.deleteResolver(table.Name, pk.Name),
	}
}

func (b *builder) createInputType(name string, fields []crud.FieldSpec) *graphql.InputObject {
	cfg := graphql.InputObjectConfigFieldMap{}
	for _, f := range fields {
		var fieldType graphql.Input = scalarFor(f.Type)
		if f.Required {
			fieldType = graphql.NewNonNull(fieldType)
		}
		cfg[f.Name] = &graphql.InputObjectFieldConfig{Type: fieldType}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   "Create" + name + "Input",
		Fields: cfg,
	})
}

func (b *builder) updateInputType(name string, fields []crud.FieldSpec) *graphql.InputObject {
	cfg := graphql.InputObjectConfigFieldMap{}
	for _, f := range fields {
		cfg[f.Name] = &graphql.InputObjectFieldConfig{Type: scalarFor(f.Type)}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   "Update" + name + "SetInput",
		Fields: cfg,
	})
}

// --- resolvers ---

func (b *builder) listResolver(table string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		var opts crud.ListOptions
		if v, ok := p.Args["limit"].(int); ok {
			opts.Limit = v
		}
		if v, ok := p.Args["offset"].(int); ok {
			opts.Offset = v
		}
		if v, ok := p.Args["order"].(string); ok {
			opts.Order = v
		}
		if v, ok := p.Args["order_direction"].(string); ok {
			opts.OrderDesc = strings.EqualFold(v, "desc")
		}

		res, err := b.exec.List(p.Context, table, opts)
		if err != nil {
			return nil, publicError(err)
		}
		return res.Data, nil
	}
}

func (b *builder) singleResolver(table, pkName string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, err := b.exec.Get(p.Context, table, fmt.Sprint(p.Args[pkName]))
		if errs.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, publicError(err)
		}
		return row, nil
	}
}

func (b *builder) createResolver(table string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		input, ok := p.Args["input"].(map[string]interface{})
		if !ok {
			return nil, publicError(errs.New(errs.ErrKindValidation, "invalid input"))
		}
		row, err := b.exec.Create(p.Context, table, input)
		if err != nil {
			return nil, publicError(err)
		}
		return row, nil
	}
}

func (b *builder) updateResolver(table, pkName string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		id := fmt.Sprint(p.Args[pkName])

		setArg, hasSet := p.Args["set"]
		if !hasSet || setArg == nil {
			row, err := b.exec.Get(p.Context, table, id)
			if errs.IsNotFound(err) {
				return nil, nil
			}
			if err != nil {
				return nil, publicError(err)
			}
			return row, nil
		}

		set, ok := setArg.(map[string]interface{})
		if !ok {
			return nil, publicError(errs.New(errs.ErrKindValidation, "invalid set input"))
		}
		if len(set) == 0 {
			row, err := b.exec.Get(p.Context, table, id)
			if errs.IsNotFound(err) {
				return nil, nil
			}
			if err != nil {
				return nil, publicError(err)
			}
			return row, nil
		}

		row, err := b.exec.Update(p.Context, table, id, set)
		if errs.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, publicError(err)
		}
		return row, nil
	}
}

func (b *builder) deleteResolver(table, pkName string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, err := b.exec.Delete(p.Context, table, fmt.Sprint(p.Args[pkName]))
		if errs.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, publicError(err)
		}
		return row, nil
	}
}

// gqlError carries the client-safe message and the error kind as a
// GraphQL extension. Driver-level causes never cross this boundary.
type gqlError struct {
	kind    errs.ErrKind
	message string
}

func (e *gqlError) Error() string { return e.message }

func (e *gqlError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.kind.String()}
}

func publicError(err error) error {
	return &gqlError{kind: errs.KindOf(err), message: errs.PublicMessage(err)}
}
