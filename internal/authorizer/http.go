package authorizer

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterHTTP mounts the authorizer invocation endpoint. The response is
// always a policy document: failures are indistinguishable denies, so the
// endpoint never leaks why a token was rejected.
func RegisterHTTP(r chi.Router, svc *Service) {
	r.Post("/authorize", func(w http.ResponseWriter, req *http.Request) {
		var body AuthRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.MethodArn == "" {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		decision, _ := svc.Authorize(req.Context(), body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(decision.Document())
	})
}
