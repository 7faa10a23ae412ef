package core

import (
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncate me", 5, "trun…"},
		{"héllo wörld", 4, "hél…"},
		{"x", 0, "x"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncateText(tt.in, tt.max), "TruncateText(%q, %d)", tt.in, tt.max)
	}
}

func TestMaskedCard(t *testing.T) {
	assert.Equal(t, "•••• 4242", MaskedCard("4242"))
	assert.Empty(t, MaskedCard(" "))
}

func TestStatusHelpers(t *testing.T) {
	assert.Equal(t, "badge-success", statusClass("PAID"))
	assert.Equal(t, "badge-danger", statusClass("failed"))
	assert.Equal(t, "badge-light", statusClass("refunded"))
	assert.Equal(t, "Paid", statusLabel("paid"))
	assert.Equal(t, "Unknown", statusLabel(""))
}

func TestTimeTag(t *testing.T) {
	assert.Empty(t, string(timeTag(time.Time{})))
	got := string(timeTag(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, strings.HasPrefix(got, `<time datetime="2024-05-01T10:00:00Z">`), got)
}

func TestRenderSection(t *testing.T) {
	var tmpl *template.Template
	funcs := Funcs(Deps{
		Template:           &tmpl,
		ContentTemplateFor: func(page string) string { return page + "-content" },
	})
	var err error
	tmpl, err = template.New("root").Funcs(funcs).Parse(
		`{{define "greet-content"}}hi {{.}}{{end}}{{define "page"}}[{{renderSection "greet" .}}]{{end}}`,
	)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&sb, "page", "<bob>"))
	assert.Equal(t, "[hi &lt;bob&gt;]", sb.String())
}

func TestRenderSection_Uninitialized(t *testing.T) {
	funcs := Funcs(Deps{ContentTemplateFor: func(p string) string { return p }})
	render, ok := funcs["renderSection"].(func(string, any) (template.HTML, error))
	require.True(t, ok)
	_, err := render("x", nil)
	assert.Error(t, err)
}
