package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfOK() http.Handler {
	return CSRFProtection()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetCSRFToken(r)))
	}))
}

func TestCSRFProtection_GetIssuesCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfOK().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == DefaultCSRFCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "CSRF cookie not set")
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, cookie.Value, rec.Body.String(), "token should be exposed via context")
}

func TestCSRFProtection_PostWithoutTokenFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
	rec := httptest.NewRecorder()

	csrfOK().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFProtection_PostWithFormToken(t *testing.T) {
	form := url.Values{DefaultCSRFCookieName: {"tok"}}
	req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
	rec := httptest.NewRecorder()

	csrfOK().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFProtection_PostWithHeaderMismatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set(DefaultCSRFHeaderName, "other")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
	rec := httptest.NewRecorder()

	csrfOK().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
