package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/api/middleware"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
	"dreamhome/web/internal/session"
)

const msgHumanCheckFailed = "Please complete the verification challenge and try again"

// LoginData is what login.html renders.
type LoginData struct {
	Next     string
	Username string
}

// RegisterForm is the registration form.
type RegisterForm struct {
	Username        string `form:"username"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
	FirstName       string `form:"firstName"`
	LastName        string `form:"lastName"`
	PhoneNumber     string `form:"phoneNumber"`
}

func (f RegisterForm) validate() string {
	if strings.TrimSpace(f.Username) == "" || strings.TrimSpace(f.Email) == "" || f.Password == "" {
		return "Username, email and password are required"
	}
	if f.Password != f.ConfirmPassword {
		return "Passwords do not match"
	}
	return ""
}

// RegisterData is what register.html renders.
type RegisterData struct {
	Form RegisterForm
}

// AuthHandler serves login, registration and logout.
type AuthHandler struct {
	render   *Renderer
	auth     services.IAuthService
	sessions *session.Manager
	cookie   middleware.CookieSettings
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(render *Renderer, auth services.IAuthService, sessions *session.Manager, cookie middleware.CookieSettings, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{render: render, auth: auth, sessions: sessions, cookie: cookie, logger: logger}
}

// ShowLogin handles GET /login.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if s := middleware.CurrentSession(c); s.IsLoggedIn() {
		c.Redirect(http.StatusSeeOther, homeFor(s.Role))
		return
	}
	h.render.HTML(c, http.StatusOK, "login.html", h.render.Page(c, "Login", LoginData{Next: safeNext(c.Query("next"))}))
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	data := LoginData{Next: safeNext(c.PostForm("next")), Username: strings.TrimSpace(c.PostForm("username"))}
	password := c.PostForm("password")

	fail := func(status int, message string) {
		p := h.render.Page(c, "Login", data)
		p.Error = message
		h.render.HTML(c, status, "login.html", p)
	}

	if !middleware.IsHuman(c) {
		fail(http.StatusBadRequest, msgHumanCheckFailed)
		return
	}
	if data.Username == "" || password == "" {
		fail(http.StatusBadRequest, "Username and password are required")
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), data.Username, password)
	if err != nil {
		h.logger.Info("login failed", zap.String("username", data.Username), zap.Error(err))
		fail(statusOf(err), messageOf(err, "Login failed"))
		return
	}

	s := h.begin(c, resp)
	if s == nil {
		fail(http.StatusInternalServerError, "Login failed")
		return
	}
	target := data.Next
	if target == "" {
		target = homeFor(s.Role)
	}
	c.Redirect(http.StatusSeeOther, target)
}

// ShowRegister handles GET /register.
func (h *AuthHandler) ShowRegister(c *gin.Context) {
	if s := middleware.CurrentSession(c); s.IsLoggedIn() {
		c.Redirect(http.StatusSeeOther, homeFor(s.Role))
		return
	}
	h.render.HTML(c, http.StatusOK, "register.html", h.render.Page(c, "Register", RegisterData{}))
}

// Register handles POST /register. A backend that answers with a token signs
// the new user in; otherwise they are sent to the login page.
func (h *AuthHandler) Register(c *gin.Context) {
	var form RegisterForm
	_ = c.ShouldBind(&form)

	fail := func(status int, message string) {
		form.Password, form.ConfirmPassword = "", ""
		p := h.render.Page(c, "Register", RegisterData{Form: form})
		p.Error = message
		h.render.HTML(c, status, "register.html", p)
	}

	if !middleware.IsHuman(c) {
		fail(http.StatusBadRequest, msgHumanCheckFailed)
		return
	}
	if msg := form.validate(); msg != "" {
		fail(http.StatusBadRequest, msg)
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), models.RegisterRequest{
		Username:    strings.TrimSpace(form.Username),
		Email:       strings.TrimSpace(form.Email),
		Password:    form.Password,
		FirstName:   strings.TrimSpace(form.FirstName),
		LastName:    strings.TrimSpace(form.LastName),
		PhoneNumber: strings.TrimSpace(form.PhoneNumber),
	})
	if err != nil {
		h.logger.Info("registration failed", zap.String("username", form.Username), zap.Error(err))
		fail(statusOf(err), messageOf(err, "Registration failed"))
		return
	}

	var s *session.Session
	if resp.Token != "" {
		s = h.begin(c, resp)
	}
	if s == nil {
		p := h.render.Page(c, "Login", LoginData{Username: form.Username})
		p.Flash = "Registration successful. Please sign in."
		h.render.HTML(c, http.StatusOK, "login.html", p)
		return
	}
	c.Redirect(http.StatusSeeOther, homeFor(s.Role))
}

// Logout handles GET and POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s.ID != "" {
		if err := h.sessions.Teardown(c.Request.Context(), s.ID); err != nil {
			h.logger.Warn("failed to tear down session", zap.Error(err))
		}
	}
	middleware.ClearSessionCookie(c, h.cookie)
	c.Redirect(http.StatusSeeOther, "/")
}

// begin starts the session and sets its cookie. It returns nil on failure.
func (h *AuthHandler) begin(c *gin.Context, resp *models.AuthResponse) *session.Session {
	s, err := h.sessions.Begin(c.Request.Context(), resp)
	if err != nil {
		h.logger.Error("failed to start session", zap.String("username", resp.User.Username), zap.Error(err))
		return nil
	}
	middleware.SetSessionCookie(c, h.cookie, s)
	return s
}
