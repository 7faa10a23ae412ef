package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":   deps.ContentTemplateFor,
		"friendlyTime":  friendlyTime,
		"timeTag":       timeTag,
		"statusClass":   statusClass,
		"statusLabel":   statusLabel,
		"truncateText":  TruncateText,
		"maskedCard":    MaskedCard,
		"formatOrderID": func(id int64) string { return fmt.Sprintf("#%d", id) },
	}

	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped during ExecuteTemplate.
		return template.HTML(buf.String()), nil
	}
	return funcs
}

func friendlyTime(t0 time.Time) string {
	if t0.IsZero() {
		return ""
	}
	return t0.Local().Format("Jan 2, 2006 3:04 PM")
}

func timeTag(t0 time.Time) template.HTML {
	if t0.IsZero() {
		return ""
	}
	friendly := t0.Local().Format("Jan 2, 2006 3:04 PM")
	dt := t0.UTC().Format(time.RFC3339)
	// #nosec G203 - constructed from escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\">%s</time>",
		dt,
		template.HTMLEscapeString(friendly),
	))
}

func statusClass(status string) string {
	switch strings.ToLower(status) {
	case "paid":
		return "badge-success"
	case "failed":
		return "badge-danger"
	case "pending":
		return "badge-warning"
	default:
		return "badge-light"
	}
}

func statusLabel(status string) string {
	s := strings.TrimSpace(status)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// MaskedCard renders the last four card digits behind a mask.
func MaskedCard(lastFour string) string {
	if strings.TrimSpace(lastFour) == "" {
		return ""
	}
	return "•••• " + lastFour
}

// TruncateText truncates a string to a maximum number of runes (not bytes).
// Adds an ellipsis (…) when truncated.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 1 {
		return string(runes[:maxLen-1]) + "…"
	}
	return string(runes[:1])
}
