package alto_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altohttp/alto"
)

func TestGroup_prefix_and_tags(t *testing.T) {
	t.Parallel()

	r := alto.New()
	v1 := r.Group("/v1", alto.WithGroupTags("v1"))
	v1.Get("/users", noopHandler, alto.WithTags("users"))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/users")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	op := r.Spec().Paths["/v1/users"]["get"]
	assert.Equal(t, []string{"v1", "users"}, op.Tags)
}

func TestGroup_middleware(t *testing.T) {
	t.Parallel()

	stamp := func(value string) alto.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Add("X-Stamp", value)
				next.ServeHTTP(w, req)
			})
		}
	}

	r := alto.New()
	admin := r.Group("/admin", alto.WithGroupMiddleware(stamp("first"), stamp("second")))
	admin.Get("/status", noopHandler)
	r.Get("/open", noopHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/admin/status")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, []string{"first", "second"}, resp.Header.Values("X-Stamp"))

	resp, err = http.Get(srv.URL + "/open")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Empty(t, resp.Header.Values("X-Stamp"))
}

func TestGroup_dependencies(t *testing.T) {
	t.Parallel()

	gate := alto.NewProvider(func(_ context.Context, c *alto.Ctx) (string, error) {
		key, _ := c.Headers()["x-tenant"].(string)
		if key == "" {
			return "", alto.Unauthorized("tenant header required")
		}
		return key, nil
	})

	r := alto.New()
	tenants := r.Group("/t", alto.WithGroupDependencies(gate))
	tenants.Get("/dashboard", func(ctx context.Context, c *alto.Ctx) (any, error) {
		tenant, err := gate.Resolve(ctx, c)
		require.NoError(t, err)
		return map[string]any{"tenant": tenant}, nil
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Run("missing tenant rejected before the handler", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(srv.URL + "/t/dashboard")
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("tenant resolved for the handler", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/t/dashboard", nil)
		require.NoError(t, err)
		req.Header.Set("X-Tenant", "acme")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { require.NoError(t, resp.Body.Close()) }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "acme", body["tenant"])
	})
}
