package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/admin"
	"dreamhome/web/internal/api/middleware"
	"dreamhome/web/internal/api/views"
	"dreamhome/web/internal/captcha"
	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
)

// ErrorData is what error.html renders.
type ErrorData struct {
	Code    int
	Heading string
	Message string
}

// Renderer builds the common page data and renders templates loaded into the
// engine with SetHTMLTemplate.
type Renderer struct {
	appName string
	captcha captcha.ITurnstileVerifier
	logger  *zap.Logger
}

// NewRenderer creates a Renderer. verifier may be nil.
func NewRenderer(appName string, verifier captcha.ITurnstileVerifier, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{appName: appName, captcha: verifier, logger: logger}
}

// Page returns the page data for the current request.
func (r *Renderer) Page(c *gin.Context, title string, data interface{}) views.Page {
	s := middleware.CurrentSession(c)
	p := views.Page{
		Title:   title,
		AppName: r.appName,
		Session: s,
		Nav:     views.NavLinks(s),
		Path:    c.Request.URL.Path,
		Data:    data,
	}
	if r.captcha != nil && r.captcha.Enabled() {
		p.CaptchaSiteKey = r.captcha.SiteKey()
	}
	return p
}

// HTML renders the named template.
func (r *Renderer) HTML(c *gin.Context, status int, name string, p views.Page) {
	c.HTML(status, name, p)
}

// ErrorPage renders error.html with status.
func (r *Renderer) ErrorPage(c *gin.Context, status int, message string) {
	heading := http.StatusText(status)
	switch status {
	case http.StatusNotFound:
		heading = "Page not found"
		if message == "" {
			message = "The page you're looking for doesn't exist or has been removed."
		}
	case http.StatusForbidden:
		heading = "Access denied"
		if message == "" {
			message = "You don't have permission to view this page."
		}
	}
	if message == "" {
		message = "Something went wrong. Please try again later."
	}
	p := r.Page(c, heading, ErrorData{Code: status, Heading: heading, Message: message})
	c.HTML(status, "error.html", p)
}

// Forbidden renders the 403 page.
func (r *Renderer) Forbidden(c *gin.Context) { r.ErrorPage(c, http.StatusForbidden, "") }

// NotFound renders the 404 page.
func (r *Renderer) NotFound(c *gin.Context) { r.ErrorPage(c, http.StatusNotFound, "") }

// ServerError renders the 500 page.
func (r *Renderer) ServerError(c *gin.Context) {
	r.ErrorPage(c, http.StatusInternalServerError, "")
}

// messageOf is the banner text for err.
func messageOf(err error, fallback string) string {
	var ve *admin.ValidationError
	if errors.As(err, &ve) {
		return "Please fill in the required fields: " + strings.Join(ve.Missing, ", ")
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}

// statusOf maps err to the status of the page that reports it. Backend
// client errors pass through; transport and server failures become 502.
func statusOf(err error) int {
	var ve *admin.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// pageParam reads the page number from the query or the posted form.
func pageParam(c *gin.Context, def int) int {
	raw := c.Query("page")
	if raw == "" {
		raw = c.PostForm("page")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// idParam parses the :id path parameter.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeNext accepts only local absolute paths as a post-login destination.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return next
}

// homeFor is where a freshly signed-in user lands.
func homeFor(role models.Role) string {
	if role == models.RoleAdmin {
		return "/admin/dashboard"
	}
	return "/user/dashboard"
}
