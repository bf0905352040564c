package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/models"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/validation"
)

//go:embed templates
var templateFS embed.FS

var funcMap = template.FuncMap{
	"safeHTML":    safeHTML,
	"split":       strings.Split,
	"mod":         func(a, b int) int { return a % b },
	"add":         func(a, b int) int { return a + b },
	"money":       formatMoney,
	"date":        formatDate,
	"inputDate":   inputDate,
	"humanize":    humanize,
	"statusClass": statusClass,
	"badges":      models.ResolveBadges,
	"medal":       medal,
	"refName":     refName,
	"errorFor":    errorFor,
}

func safeHTML(s string) template.HTML {
	return template.HTML(s)
}

func refName(r *dtos.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}

// errorFor reads a field error from a page's validation errors, which may be
// absent.
func errorFor(errs interface{}, field string) string {
	if e, ok := errs.(validation.Errors); ok {
		return e.Get(field)
	}
	return ""
}

func inputDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(validation.DateLayout)
}

func formatMoney(d decimal.Decimal) string {
	return "₹" + d.StringFixedBank(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// humanize turns snake_case and kebab-case keys into title-cased words.
func humanize(v interface{}) string {
	words := strings.FieldsFunc(fmt.Sprint(v), func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func statusClass(status constants.TaskStatus) string {
	switch status {
	case constants.TaskOpen:
		return "bg-green-100 text-green-700"
	case constants.TaskInProgress, constants.TaskAccepted:
		return "bg-blue-100 text-blue-700"
	case constants.TaskSubmitted, constants.TaskUnderReview:
		return "bg-yellow-100 text-yellow-700"
	case constants.TaskCompleted:
		return "bg-gray-200 text-gray-700"
	}
	return "bg-red-100 text-red-700"
}

func medal(rank int) string {
	switch rank {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	}
	return ""
}

// RenderTemplate renders a page with the base layout. Extra files are parsed
// alongside the page, so a page can pull in a shared panel.
func RenderTemplate(w http.ResponseWriter, templateName string, data map[string]interface{}, extra ...string) error {
	files := append([]string{"templates/layouts/base.html", "templates/partials/nav.html", "templates/" + templateName}, prefixed(extra)...)
	t, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, files...)
	if err != nil {
		logging.Error("Error loading template", "template", templateName, "error", err)
		http.Error(w, "Error loading template", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status, ok := data["Status"].(int); ok && status != 0 {
		w.WriteHeader(status)
	}
	if err := t.Execute(w, data); err != nil {
		logging.Error("Error rendering template", "template", templateName, "error", err)
		return err
	}
	return nil
}

func prefixed(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "templates/" + n
	}
	return out
}
