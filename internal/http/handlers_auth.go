package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/storefront/internal/adapters/shopapi"
)

const (
	msgInvalidCredentials = "Invalid username or password."
	msgLoginUnavailable   = "We couldn't sign you in right now. Please try again."
)

// LoginPage renders the sign-in form. Signed-in users are sent on to next.
func (h *UIHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeRedirectPath(r.URL.Query().Get("next"))
	if IsAuthenticated(r.Context()) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, loginView{Next: next, Status: http.StatusOK})
}

// LoginSubmit exchanges credentials with the shop API and records the session.
func (h *UIHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, loginView{Status: http.StatusBadRequest, Message: "Invalid form submission."})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	next := safeRedirectPath(r.PostFormValue("next"))
	view := loginView{Username: username, Next: next}

	fieldErrs := map[string]string{}
	if username == "" {
		fieldErrs["username"] = "Username is required."
	}
	if password == "" {
		fieldErrs["password"] = "Password is required."
	}
	if len(fieldErrs) > 0 {
		view.Status = http.StatusBadRequest
		view.FieldErrors = fieldErrs
		h.renderLogin(w, r, view)
		return
	}

	if !h.LoginLimiter.Allow(clientAddr(r)) {
		h.logger().WarnContext(r.Context(), "login throttled", slog.String("client", clientAddr(r)))
		view.Status = http.StatusTooManyRequests
		view.Message = msgTooManyAttempts
		h.renderLogin(w, r, view)
		return
	}

	res, err := h.Auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, shopapi.ErrInvalidCredentials) {
			view.Status = http.StatusUnauthorized
			view.Message = msgInvalidCredentials
		} else {
			h.logger().WarnContext(r.Context(), "login failed", slog.Any("error", err))
			view.Status = http.StatusBadGateway
			view.Message = msgLoginUnavailable
		}
		h.renderLogin(w, r, view)
		return
	}

	if err := h.Sessions.Login(r.Context(), res.Token, res.User); err != nil {
		h.logger().ErrorContext(r.Context(), "session login rejected", slog.Any("error", err))
		view.Status = http.StatusBadGateway
		view.Message = msgLoginUnavailable
		h.renderLogin(w, r, view)
		return
	}

	h.logger().InfoContext(r.Context(), "signed in", slog.Int64("user_id", res.User.ID))
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout clears the session and returns to the sign-in page.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(r.Context())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type loginView struct {
	Username    string
	Next        string
	Status      int
	Message     string
	FieldErrors map[string]string
}

func (h *UIHandlers) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	data := NewTemplateData(r, PageMeta{
		Title:       "Sign in - Storefront",
		PageTitle:   "Sign in",
		CurrentPage: PageLogin,
	}).
		With("Username", v.Username).
		With("Next", v.Next).
		WithError(v.Message).
		WithFieldErrors(v.FieldErrors).
		Build()
	h.renderPage(w, r, v.Status, data)
}
