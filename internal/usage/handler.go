package usage

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tenantgate/pkg/problems"
)

type reportRequest struct {
	TenantID     string `json:"tenantId"`
	InputTokens  int64  `json:"inputTokens"`
	OutputTokens int64  `json:"outputTokens"`
}

type totalsResponse struct {
	TenantID     string `json:"tenantId"`
	InputTokens  int64  `json:"inputTokens"`
	OutputTokens int64  `json:"outputTokens"`
}

// RegisterHTTP mounts the usage ingest and read-back endpoints.
func RegisterHTTP(r chi.Router, store *Store, log *zap.SugaredLogger) {
	r.Post("/usage", func(w http.ResponseWriter, req *http.Request) {
		var body reportRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.TenantID == "" {
			writeProblem(w, problems.New("invalid-usage-report", "Invalid usage report", "tenantId and token counts are required", http.StatusBadRequest))
			return
		}
		if body.InputTokens < 0 || body.OutputTokens < 0 {
			writeProblem(w, problems.New("invalid-usage-report", "Invalid usage report", "token counts must be non-negative", http.StatusBadRequest))
			return
		}
		if err := store.Add(req.Context(), body.TenantID, body.InputTokens, body.OutputTokens); err != nil {
			log.Errorw("usage write failed", "tenant", body.TenantID, "err", err)
			writeProblem(w, problems.New("usage-store-unavailable", "Usage store unavailable", "", http.StatusServiceUnavailable))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	r.Get("/usage/{tenantID}", func(w http.ResponseWriter, req *http.Request) {
		tenantID := chi.URLParam(req, "tenantID")
		totals, err := store.Totals(req.Context(), tenantID)
		if err != nil {
			log.Errorw("usage read failed", "tenant", tenantID, "err", err)
			writeProblem(w, problems.New("usage-store-unavailable", "Usage store unavailable", "", http.StatusServiceUnavailable))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(totalsResponse{
			TenantID:     tenantID,
			InputTokens:  totals.InputTokens,
			OutputTokens: totals.OutputTokens,
		})
	})
}

func writeProblem(w http.ResponseWriter, p problems.Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
