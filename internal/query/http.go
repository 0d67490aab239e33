package query

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenantgate/internal/rewriter"
	"tenantgate/pkg/problems"
)

type rewriteRequest struct {
	Query    string `json:"query"`
	TenantID string `json:"tenantId"`
}

type rewriteResponse struct {
	Query    string `json:"query"`
	Database string `json:"database"`
}

// RegisterHTTP mounts the rewrite endpoint.
func RegisterHTTP(r chi.Router, svc *Service) {
	r.Post("/query/rewrite", func(w http.ResponseWriter, req *http.Request) {
		var body rewriteRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Query == "" {
			writeProblem(w, problems.New("invalid-query-request", "Invalid query request", "query is required", http.StatusBadRequest))
			return
		}
		scoped, err := svc.Scope(req.Context(), body.Query, body.TenantID)
		if err != nil {
			switch {
			case errors.Is(err, rewriter.ErrEmptyTenantID), errors.Is(err, rewriter.ErrInvalidTenantID):
				writeProblem(w, problems.New("tenant-scope-required", "Tenant scope required", "a valid tenant id is required to run queries", http.StatusForbidden))
			default:
				writeProblem(w, problems.New("query-rewrite-failed", "Query rewrite failed", "", http.StatusInternalServerError))
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rewriteResponse{Query: scoped.Query, Database: scoped.Database})
	})
}

func writeProblem(w http.ResponseWriter, p problems.Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
