// Package alto is a schema-first HTTP API framework for Go. Each route is
// declared once with goskema schemas for its path parameters, query
// parameters, headers, cookies, and body, plus per-status response schemas.
// From that single declaration the framework validates and decodes every
// inbound request, resolves request-scoped dependencies, validates handler
// output against the declared contract, and generates an OpenAPI 3.1
// document, all from the same canonical schema, so the documentation can
// never drift from the runtime behavior.
//
// Routes are registered on a Router with schema options:
//
//	r := alto.New(alto.WithTitle("Blog"), alto.WithVersion("1.0.0"))
//	r.Post("/posts/{id}", createPost,
//	    alto.WithParams(paramsSchema),
//	    alto.WithBody(alto.Body(bodySchema)),
//	    alto.WithResponse(http.StatusCreated, alto.Response(postSchema)),
//	    alto.WithSummary("Create a post"),
//	)
//
// Handlers receive a decoded, schema-coerced view of the request:
//
//	func createPost(ctx context.Context, c *alto.Ctx) (any, error) {
//	    body := c.Body().(map[string]any)
//	    return map[string]any{"id": c.Params()["id"], "title": body["title"]}, nil
//	}
//
// Middleware uses the standard func(http.Handler) http.Handler signature,
// so the entire Go middleware ecosystem works natively.
//
// The OpenAPI document is generated from registered routes:
//
//	r.ServeSpec("/openapi.json")
//	r.ServeDocs("/docs")
package alto
