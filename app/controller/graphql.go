package controller

import (
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"
	"github.com/labstack/echo/v4"
)

type GraphQLController struct {
	handler http.Handler
}

// NewGraphQLController serves queries and mutations over HTTP POST and
// subscriptions over a websocket upgrade on the same route.
func NewGraphQLController(schema *graphql.Schema) *GraphQLController {
	return &GraphQLController{
		handler: graphqlws.NewHandlerFunc(schema, &relay.Handler{Schema: schema}),
	}
}

func (c *GraphQLController) Handle(ctx echo.Context) error {
	c.handler.ServeHTTP(ctx.Response(), ctx.Request())
	return nil
}
