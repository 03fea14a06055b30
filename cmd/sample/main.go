// Command sample demonstrates the alto framework with a small notes API.
//
// Run:
//
//	go run ./cmd/sample
//
// Generate the OpenAPI document:
//
//	go run ./cmd/sample -spec                 (print to stdout)
//	go run ./cmd/sample -spec -o openapi.json (write to file)
//
// Then explore:
//
//	GET    http://localhost:8080/openapi.json       OpenAPI document
//	GET    http://localhost:8080/docs               interactive docs
//	GET    http://localhost:8080/v1/notes           list notes
//	POST   http://localhost:8080/v1/notes           create note (bearer token "writer")
//	GET    http://localhost:8080/v1/notes/{id}      get note
//	DELETE http://localhost:8080/v1/notes/{id}      delete note (bearer token "writer")
//	POST   http://localhost:8080/v1/notes/{id}/file attach a file
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/altohttp/alto"
	goskema "github.com/reoring/goskema"
	g "github.com/reoring/goskema/dsl"
)

func main() {
	specFlag := flag.Bool("spec", false, "Print the OpenAPI document to stdout and exit")
	outFlag := flag.String("o", "", "Output file for the document (requires -spec)")
	flag.Parse()

	r := newRouter()

	if *specFlag {
		if err := writeSpec(r, *outFlag); err != nil {
			slog.Error("spec generation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting server", "addr", ":8080", "docs", "http://localhost:8080/docs")

	if err := r.ListenAndServe(ctx, ":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
	}

	slog.Info("server stopped")
}

func writeSpec(r *alto.Router, out string) error {
	if out == "" {
		return r.WriteSpec(os.Stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.WriteSpec(f)
}

// user is the resolved principal for authenticated requests.
type user struct {
	Name   string
	Scopes []string
}

func (u *user) GrantedScopes() []string { return u.Scopes }

// tokens is a stand-in credential store.
var tokens = map[string]*user{
	"writer": {Name: "writer", Scopes: []string{"notes:read", "notes:write"}},
	"reader": {Name: "reader", Scopes: []string{"notes:read"}},
}

// currentUser resolves the bearer token into a principal, or nil when the
// request is anonymous.
var currentUser = alto.NewProvider(func(_ context.Context, c *alto.Ctx) (*user, error) {
	raw, _ := c.Headers()["authorization"].(string)
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok {
		return nil, nil
	}
	return tokens[token], nil
})

// writer requires the notes:write scope on top of authentication.
var writer = alto.RequireScopes(currentUser, "bearerAuth", "notes:write")

type note struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

type store struct {
	mu    sync.Mutex
	notes map[string]note
	next  int
}

func newRouter() *alto.Router {
	st := &store{notes: make(map[string]note)}

	noteSchema := alto.SchemaOf(g.Object().
		Field("id", g.StringOf[string]()).
		Field("title", g.StringOf[string]()).
		Field("content", g.StringOf[string]()).
		Field("created", g.StringOf[string]()).
		Require("id", "title").
		UnknownStrip().
		MustBuild())

	noteBody := alto.SchemaOf(g.Object().
		Field("title", g.StringOf[string]()).
		Field("content", g.StringOf[string]()).
		Require("title", "content").
		UnknownStrict().
		Refine("content_not_empty", func(_ context.Context, m map[string]any) error {
			if s, _ := m["content"].(string); s == "" {
				return goskema.Issues{{Path: "/content", Code: goskema.CodeTooShort, Message: "content must not be empty"}}
			}
			return nil
		}).
		MustBuild())

	idParams := alto.SchemaOf(g.Object().
		Field("id", g.StringOf[string]()).
		Require("id").
		UnknownStrip().
		MustBuild())

	listQuery := alto.SchemaOf(g.Object().
		Field("limit", g.SchemaOf[json.Number](g.NumberJSON().CoerceFromString())).Default("20").
		UnknownStrip().
		MustBuild())

	r := alto.New(
		alto.WithTitle("Notes API"),
		alto.WithVersion("1.0.0"),
		alto.WithServers(alto.Server{URL: "http://localhost:8080"}),
		alto.WithSecurityScheme("bearerAuth", alto.SecurityScheme{Type: "http", Scheme: "bearer"}),
		alto.WithTagDescriptions(map[string]string{"notes": "Note management"}),
	)
	r.Use(alto.Recovery(), alto.RequestID(), alto.Logger(slog.Default()), alto.BodyLimit(1<<20))

	v1 := r.Group("/v1", alto.WithGroupTags("notes"))

	v1.Get("/notes", st.list,
		alto.WithQuery(listQuery),
		alto.WithResponse(http.StatusOK, alto.Response(alto.SchemaOf[[]map[string]any](g.Array(noteElement())))),
		alto.WithSummary("List notes"),
	)

	v1.Post("/notes", st.create,
		alto.WithBody(alto.Body(noteBody)),
		alto.WithResponse(http.StatusCreated, alto.Response(noteSchema).Description("Created")),
		alto.WithStatus(http.StatusCreated),
		alto.WithDependencies(writer),
		alto.WithSummary("Create a note"),
	)

	v1.Get("/notes/:id", st.get,
		alto.WithParams(idParams),
		alto.WithResponse(http.StatusOK, alto.Response(noteSchema)),
		alto.WithSummary("Get a note"),
	)

	v1.Delete("/notes/:id", st.remove,
		alto.WithParams(idParams),
		alto.WithStatus(http.StatusNoContent),
		alto.WithDependencies(writer),
		alto.WithSummary("Delete a note"),
	)

	v1.Post("/notes/:id/file", st.attach,
		alto.WithParams(idParams),
		alto.WithBody(alto.File().Required()),
		alto.WithSummary("Attach a file to a note"),
	)

	r.ServeSpec("/openapi.json")
	r.ServeSpecYAML("/openapi.yaml")
	r.ServeDocs("/docs")

	return r
}

func (st *store) list(_ context.Context, c *alto.Ctx) (any, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	limit := len(st.notes)
	if n, ok := c.Query()["limit"].(json.Number); ok {
		if v, err := n.Int64(); err == nil && int(v) < limit {
			limit = int(v)
		}
	}

	out := make([]note, 0, limit)
	for _, n := range st.notes {
		if len(out) == limit {
			break
		}
		out = append(out, n)
	}
	return out, nil
}

func (st *store) create(_ context.Context, c *alto.Ctx) (any, error) {
	body := c.Body().(map[string]any)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.next++
	n := note{
		ID:      fmt.Sprintf("n%d", st.next),
		Title:   body["title"].(string),
		Content: body["content"].(string),
		Created: time.Now().UTC(),
	}
	st.notes[n.ID] = n
	return n, nil
}

func (st *store) get(_ context.Context, c *alto.Ctx) (any, error) {
	id := c.Params()["id"].(string)

	st.mu.Lock()
	defer st.mu.Unlock()
	n, ok := st.notes[id]
	if !ok {
		return nil, alto.Errorf(http.StatusNotFound, "note %q not found", id)
	}
	return n, nil
}

func (st *store) remove(_ context.Context, c *alto.Ctx) (any, error) {
	id := c.Params()["id"].(string)

	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.notes, id)
	return nil, nil
}

func (st *store) attach(_ context.Context, c *alto.Ctx) (any, error) {
	f := c.File()
	return map[string]any{
		"id":       c.Params()["id"],
		"filename": f.Filename,
		"size":     f.Size,
	}, nil
}

// noteElement is the array-element schema for note listings.
func noteElement() goskema.Schema[map[string]any] {
	return g.Object().
		Field("id", g.StringOf[string]()).
		Field("title", g.StringOf[string]()).
		Field("content", g.StringOf[string]()).
		Field("created", g.StringOf[string]()).
		Require("id", "title").
		UnknownStrip().
		MustBuild()
}
