package alto_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	goskema "github.com/reoring/goskema"
	g "github.com/reoring/goskema/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altohttp/alto"
)

// validationProblem mirrors the wire shape of validation failures.
type validationProblem struct {
	Message string `json:"message"`
	Errors  []struct {
		In      string   `json:"in"`
		Code    string   `json:"code"`
		Path    []string `json:"path"`
		Input   any      `json:"input"`
		Message string   `json:"message"`
	} `json:"error"`
}

func postBodySchema() alto.Schema {
	return alto.SchemaOf(g.Object().
		Field("title", g.StringOf[string]()).
		Field("content", g.StringOf[string]()).
		Require("title", "content").
		UnknownStrip().
		Refine("content_not_empty", func(_ context.Context, m map[string]any) error {
			if s, _ := m["content"].(string); s == "" {
				return goskema.Issues{{Path: "/content", Code: goskema.CodeTooShort, Message: "content must not be empty"}}
			}
			return nil
		}).
		MustBuild())
}

func TestRequest_body_validation_single_error(t *testing.T) {
	t.Parallel()

	idParams := alto.SchemaOf(g.Object().
		Field("id", g.StringOf[string]()).Default("123").
		UnknownStrip().
		MustBuild())

	r := alto.New()
	r.Post("/posts/:id", func(_ context.Context, c *alto.Ctx) (any, error) {
		return c.Body(), nil
	},
		alto.WithParams(idParams),
		alto.WithBody(alto.Body(postBodySchema())),
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	payload := `{"title":"hello","content":""}`
	resp, err := http.Post(srv.URL+"/posts/abc", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var problem validationProblem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))

	// The empty content is the only failure: the valid params group must not
	// contribute entries.
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "body", problem.Errors[0].In)
	assert.Equal(t, goskema.CodeTooShort, problem.Errors[0].Code)
	assert.Equal(t, []string{"content"}, problem.Errors[0].Path)
}

func TestRequest_body_required(t *testing.T) {
	t.Parallel()

	r := alto.New()
	r.Post("/required", func(_ context.Context, c *alto.Ctx) (any, error) {
		return c.Body(), nil
	}, alto.WithBody(alto.Body(postBodySchema())))
	r.Post("/optional", func(_ context.Context, c *alto.Ctx) (any, error) {
		return map[string]any{"got_body": c.Body() != nil}, nil
	}, alto.WithBody(alto.Body(postBodySchema()).Optional()))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Run("missing required body", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Post(srv.URL+"/required", "application/json", nil)
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var problem validationProblem
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, "body", problem.Errors[0].In)
		assert.Equal(t, goskema.CodeRequired, problem.Errors[0].Code)
	})

	t.Run("missing optional body skips validation", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Post(srv.URL+"/optional", "application/json", nil)
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["got_body"])
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Post(srv.URL+"/required", "application/json", strings.NewReader("{not json"))
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var problem validationProblem
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, goskema.CodeParseError, problem.Errors[0].Code)
	})
}

func TestRequest_query_collapse(t *testing.T) {
	t.Parallel()

	r := alto.New()
	r.Get("/search", func(_ context.Context, c *alto.Ctx) (any, error) {
		return c.Query(), nil
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	tests := map[string]struct {
		query  string
		expect any
	}{
		"single value is a scalar": {query: "?tag=a", expect: "a"},
		"repeated key is an array": {query: "?tag=a&tag=b", expect: []any{"a", "b"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			resp, err := http.Get(srv.URL + "/search" + tc.query)
			require.NoError(t, err)
			defer func() { require.NoError(t, resp.Body.Close()) }()

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.expect, body["tag"])
		})
	}
}

func TestRequest_query_coercion_and_default(t *testing.T) {
	t.Parallel()

	listQuery := alto.SchemaOf(g.Object().
		Field("limit", g.SchemaOf[json.Number](g.NumberJSON().CoerceFromString())).Default("20").
		UnknownStrip().
		MustBuild())

	r := alto.New()
	r.Get("/items", func(_ context.Context, c *alto.Ctx) (any, error) {
		n, ok := c.Query()["limit"].(json.Number)
		require.True(t, ok)
		v, err := n.Int64()
		require.NoError(t, err)
		return map[string]any{"limit": v}, nil
	}, alto.WithQuery(listQuery))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	tests := map[string]struct {
		query  string
		expect float64
	}{
		"explicit": {query: "?limit=5", expect: 5},
		"default":  {query: "", expect: 20},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			resp, err := http.Get(srv.URL + "/items" + tc.query)
			require.NoError(t, err)
			defer func() { require.NoError(t, resp.Body.Close()) }()

			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.expect, body["limit"])
		})
	}
}

func TestRequest_header_merge(t *testing.T) {
	t.Parallel()

	headerSchema := alto.SchemaOf(g.Object().
		Field("x-api-key", g.StringOf[string]()).
		Require("x-api-key").
		UnknownStrip().
		MustBuild())

	r := alto.New()
	r.Get("/secure", func(_ context.Context, c *alto.Ctx) (any, error) {
		return map[string]any{
			"key":   c.Headers()["x-api-key"],
			"extra": c.Headers()["x-extra"],
		}, nil
	}, alto.WithHeaders(headerSchema))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Run("declared and undeclared headers both visible", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/secure", nil)
		require.NoError(t, err)
		req.Header.Set("X-Api-Key", "secret")
		req.Header.Set("X-Extra", "bonus")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "secret", body["key"])
		assert.Equal(t, "bonus", body["extra"])
	})

	t.Run("missing required header", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(srv.URL + "/secure")
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var problem validationProblem
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, "headers", problem.Errors[0].In)
		assert.Equal(t, goskema.CodeRequired, problem.Errors[0].Code)
	})
}

func TestRequest_cookies(t *testing.T) {
	t.Parallel()

	cookieSchema := alto.SchemaOf(g.Object().
		Field("session", g.StringOf[string]()).
		Require("session").
		UnknownStrip().
		MustBuild())

	r := alto.New()
	r.Get("/me", func(_ context.Context, c *alto.Ctx) (any, error) {
		return map[string]any{"session": c.Cookies()["session"]}, nil
	}, alto.WithCookies(cookieSchema))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tok-1"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "tok-1", body["session"])
}

func TestRequest_collects_all_groups(t *testing.T) {
	t.Parallel()

	querySchema := alto.SchemaOf(g.Object().
		Field("page", g.StringOf[string]()).
		Require("page").
		UnknownStrip().
		MustBuild())

	newRouter := func(opts ...alto.RouterOption) *httptest.Server {
		r := alto.New(opts...)
		r.Post("/both", func(_ context.Context, c *alto.Ctx) (any, error) {
			return c.Body(), nil
		},
			alto.WithQuery(querySchema),
			alto.WithBody(alto.Body(postBodySchema())),
		)
		srv := httptest.NewServer(r)
		t.Cleanup(srv.Close)
		return srv
	}

	send := func(t *testing.T, srv *httptest.Server) validationProblem {
		t.Helper()
		resp, err := http.Post(srv.URL+"/both", "application/json", strings.NewReader(`{"title":"x"}`))
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var problem validationProblem
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
		return problem
	}

	t.Run("default collects every failing group", func(t *testing.T) {
		t.Parallel()

		problem := send(t, newRouter())
		require.Len(t, problem.Errors, 2)
		// Group order is fixed: query before body.
		assert.Equal(t, "query", problem.Errors[0].In)
		assert.Equal(t, "body", problem.Errors[1].In)
	})

	t.Run("fail fast stops at the first failing group", func(t *testing.T) {
		t.Parallel()

		problem := send(t, newRouter(alto.WithFailFastValidation()))
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, "query", problem.Errors[0].In)
	})
}

func TestRequest_form_urlencoded(t *testing.T) {
	t.Parallel()

	formSchema := alto.SchemaOf(g.Object().
		Field("title", g.StringOf[string]()).
		Require("title").
		UnknownStrip().
		MustBuild())

	r := alto.New()
	r.Post("/forms", func(_ context.Context, c *alto.Ctx) (any, error) {
		return c.Form(), nil
	}, alto.WithBody(alto.Form(formSchema)))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, err := http.PostForm(srv.URL+"/forms", url.Values{"title": {"hello"}})
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "hello", body["title"])
}

func multipartUpload(t *testing.T, field, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestRequest_file_upload(t *testing.T) {
	t.Parallel()

	r := alto.New()
	r.Post("/upload", func(_ context.Context, c *alto.Ctx) (any, error) {
		f := c.File()
		rc, err := f.Open()
		require.NoError(t, err)
		defer func() { require.NoError(t, rc.Close()) }()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)

		return map[string]any{
			"filename": f.Filename,
			"size":     f.Size,
			"content":  string(data),
		}, nil
	}, alto.WithBody(alto.File().Required()))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Run("upload succeeds", func(t *testing.T) {
		t.Parallel()

		body, contentType := multipartUpload(t, "file", "notes.txt", "hello world")
		resp, err := http.Post(srv.URL+"/upload", contentType, body)
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "notes.txt", got["filename"])
		assert.Equal(t, float64(len("hello world")), got["size"])
		assert.Equal(t, "hello world", got["content"])
	})

	t.Run("missing required file", func(t *testing.T) {
		t.Parallel()

		body, contentType := multipartUpload(t, "other", "notes.txt", "hello")
		resp, err := http.Post(srv.URL+"/upload", contentType, body)
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var problem validationProblem
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, "file", problem.Errors[0].In)
		assert.Equal(t, goskema.CodeRequired, problem.Errors[0].Code)
	})
}

func TestRequest_multiple_files(t *testing.T) {
	t.Parallel()

	r := alto.New()
	r.Post("/batch", func(_ context.Context, c *alto.Ctx) (any, error) {
		names := make([]string, 0, len(c.Files()))
		for _, f := range c.Files() {
			names = append(names, f.Filename)
		}
		return map[string]any{"names": names}, nil
	}, alto.WithBody(alto.Files()))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.txt"} {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/batch", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"a.txt", "b.txt"}, got["names"])
}
