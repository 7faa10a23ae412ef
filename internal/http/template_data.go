package httpx

import (
	"net/http"

	"github.com/target/storefront/internal/http/ui/viewmodel"
)

// PageMeta carries per-page chrome metadata.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
	}

	if sess := GetSessionFromContext(r.Context()); sess != nil && sess.IsAuthenticated() {
		layout.IsAuthenticated = true
		if sess.User != nil {
			layout.IsStaff = sess.User.IsStaff
			layout.User = &viewmodel.User{
				Username: sess.User.Username,
				Email:    sess.User.Email,
				IsStaff:  sess.User.IsStaff,
			}
		}
	}
	return layout
}

// basePageData builds the map every full-page template expects.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"IsStaff":         layout.IsStaff,
	}

	if token := GetCSRFToken(r); token != "" {
		data["CSRFToken"] = token
	}
	if layout.User != nil {
		data["User"] = layout.User
	}

	return data
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// With sets an arbitrary key.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// WithError sets the general error message shown above the content.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	if msg != "" {
		b.data["Error"] = true
		b.data["ErrorMessage"] = msg
	}
	return b
}

// WithFieldErrors adds field-level validation messages.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// Build returns the assembled data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
