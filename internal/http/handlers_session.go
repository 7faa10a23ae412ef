package httpx

import (
	"net/http"

	domainauth "github.com/target/storefront/internal/domain/auth"
)

// sessionResponse is the JSON view of the current session. The token itself is never exposed.
type sessionResponse struct {
	IsAuthenticated bool             `json:"is_authenticated"`
	TokenPresent    bool             `json:"token_present"`
	User            *domainauth.User `json:"user"`
}

// SessionJSON serves GET /api/session.
func (h *UIHandlers) SessionJSON(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{}
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		resp.IsAuthenticated = sess.IsAuthenticated()
		resp.TokenPresent = sess.Token != ""
		resp.User = sess.User
	}
	WriteJSON(w, http.StatusOK, resp)
}
