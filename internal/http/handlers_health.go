package httpx

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session"`
}

// healthHandler answers readiness/liveness probes. The session field reports
// whether this client instance currently holds a token.
func healthHandler(sessions SessionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		resp := healthResponse{Status: "ok", Session: "anonymous"}
		if sessions != nil && sessions.Snapshot().IsAuthenticated() {
			resp.Session = "authenticated"
		}
		// Nothing more to do if the client connection is gone.
		_ = json.NewEncoder(w).Encode(resp)
	}
}
