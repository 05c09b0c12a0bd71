// Package graph exposes the account and appointment services as a GraphQL schema.
package graph

import (
	_ "embed"

	"github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

func NewSchema(resolver *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, resolver,
		graphql.MaxParallelism(10),
		graphql.MaxDepth(8),
	)
}
