package query

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantgate/pkg/logger"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	RegisterHTTP(r, NewService("tenant_analytics", logger.Nop()))
	return r
}

func post(t *testing.T, r chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query/rewrite", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRewriteEndpoint(t *testing.T) {
	rec := post(t, newRouter(), `{"query":"SELECT * FROM logs","tenantId":"acme"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out rewriteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "SELECT * FROM logs WHERE tenant_id = 'acme'", out.Query)
	assert.Equal(t, "tenant_analytics", out.Database)
}

func TestRewriteEndpointMissingTenantIsForbidden(t *testing.T) {
	// An unscoped query must never come back; a missing tenant id is a hard
	// authorization failure, not a pass-through.
	rec := post(t, newRouter(), `{"query":"SELECT * FROM logs"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "SELECT")
}

func TestRewriteEndpointQuoteBreakoutForbidden(t *testing.T) {
	rec := post(t, newRouter(), `{"query":"SELECT * FROM logs","tenantId":"acme' OR '1'='1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRewriteEndpointRejectsEmptyBody(t *testing.T) {
	for _, body := range []string{"", "{", `{"tenantId":"acme"}`} {
		rec := post(t, newRouter(), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}
