// Package views holds the page templates, static assets, and the helpers the
// templates call.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"dreamhome/web/internal/format"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// NavLink is one entry of the top navigation.
type NavLink struct {
	Label string
	Href  string
}

// NavLinks returns the navigation for the session's role.
func NavLinks(s *session.Session) []NavLink {
	switch {
	case s.IsAdmin():
		return []NavLink{
			{"Dashboard", "/admin/dashboard"},
			{"Manage Properties", "/admin/properties"},
			{"Manage Users", "/admin/users"},
			{"Manage Inquiries", "/admin/inquiries"},
			{"View Sales", "/admin/sales"},
		}
	case s.IsLoggedIn():
		return []NavLink{
			{"Home", "/"},
			{"Properties", "/properties"},
			{"My Dashboard", "/user/dashboard"},
		}
	default:
		return []NavLink{
			{"Home", "/"},
			{"Properties", "/properties"},
		}
	}
}

// RoleBadge is the CSS class for a role badge.
func RoleBadge(r models.Role) string {
	if r == models.RoleAdmin {
		return "badge-admin"
	}
	return "badge-user"
}

// StatusBadge is the CSS class for a property status badge.
func StatusBadge(s models.PropertyStatus) string {
	switch s {
	case models.StatusAvailable:
		return "badge-available"
	case models.StatusPending:
		return "badge-pending"
	case models.StatusSold:
		return "badge-sold"
	default:
		return "badge-unknown"
	}
}

// InquiryBadge is the CSS class for an inquiry status badge.
func InquiryBadge(s models.InquiryStatus) string {
	if s == models.InquiryResponded {
		return "badge-responded"
	}
	return "badge-pending"
}

// ActiveBadge is the CSS class for a user's active flag.
func ActiveBadge(active bool) string {
	if active {
		return "badge-active"
	}
	return "badge-inactive"
}

// Page is the data every template receives.
type Page struct {
	Title          string
	AppName        string
	Session        *session.Session
	Nav            []NavLink
	Path           string
	Error          string
	Flash          string
	CaptchaSiteKey string
	Data           interface{}
}

// Funcs are available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"price":        format.Price,
		"date":         format.Date,
		"longDate":     format.LongDate,
		"dateTime":     format.DateTime,
		"roleBadge":    RoleBadge,
		"statusBadge":  StatusBadge,
		"inquiryBadge": InquiryBadge,
		"activeBadge":  ActiveBadge,
		"join":         strings.Join,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"statuses":     func() []models.PropertyStatus { return models.PropertyStatuses },
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "…"
		},
		"dict": func(kv ...interface{}) (map[string]interface{}, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict needs key/value pairs")
			}
			m := make(map[string]interface{}, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
	}
}

// Templates parses every page and partial.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// Static serves the embedded stylesheet and images.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
