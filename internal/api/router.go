package api

import (
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dreamhome/web/internal/admin"
	"dreamhome/web/internal/api/handlers"
	"dreamhome/web/internal/api/middleware"
	"dreamhome/web/internal/api/views"
	"dreamhome/web/internal/captcha"
	"dreamhome/web/internal/config"
	"dreamhome/web/internal/diagnostics"
	"dreamhome/web/internal/listing"
	"dreamhome/web/internal/payment"
	"dreamhome/web/internal/purchases"
	"dreamhome/web/internal/services"
	"dreamhome/web/internal/session"
	"dreamhome/web/internal/storage"
)

// Deps is everything the web router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Templates *template.Template // parsed from views when nil

	Sessions    *session.Manager
	Properties  services.IPropertyService
	Auth        services.IAuthService
	Admin       services.IAdminService
	Browsers    *listing.Registry
	Users       *admin.UserManager
	Listings    *admin.PropertyManager
	Inquiries   *admin.InquiryManager
	Checkout    *payment.Checkout
	Ledger      purchases.IPurchaseLedger
	Storage     storage.IS3Storage  // nil disables image uploads
	Images      handlers.ImageQueue // nil disables image processing
	Captcha     captcha.ITurnstileVerifier
	Prober      *diagnostics.Prober
	RateLimiter *middleware.RateLimiterMiddleware // nil disables rate limiting
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(d Deps) (*gin.Engine, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl := d.Templates
	if tmpl == nil {
		var err error
		if tmpl, err = views.Templates(); err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}
	}

	render := handlers.NewRenderer(d.Config.AppName, d.Captcha, logger)
	cookie := middleware.CookieSettings{Name: d.Config.SessionCookieName, Secure: d.Config.CookieSecure}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	// Apply global middleware first (order matters)
	r.Use(middleware.Recovery(logger, render.ServerError))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORSMiddleware(d.Config.CORSAllowedOrigins))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Limit())
	}
	r.StaticFS("/static", views.Static())
	r.Use(middleware.SessionMiddleware(d.Sessions, cookie, logger))

	pages := handlers.NewPageHandler(render, d.Properties, d.Browsers, d.Prober, d.Config.CheckoutScriptURL, logger)
	authHandler := handlers.NewAuthHandler(render, d.Auth, d.Sessions, cookie, logger)
	dashboards := handlers.NewDashboardHandler(render, d.Admin, d.Ledger, logger)
	userHandler := handlers.NewAdminUserHandler(render, d.Users, logger)
	propertyHandler := handlers.NewAdminPropertyHandler(render, d.Listings, d.Storage, d.Images, logger)
	inquiryHandler := handlers.NewAdminInquiryHandler(render, d.Inquiries, logger)
	paymentHandler := handlers.NewPaymentHandler(d.Checkout, d.Properties, logger)

	// Public pages
	r.GET("/", pages.Home)
	r.GET("/properties", pages.Properties)
	r.POST("/properties/search", pages.Search)
	r.GET("/property/:id", pages.Detail)
	r.GET("/test-api", pages.TestAPI)

	// Auth
	human := middleware.CaptchaMiddleware(d.Captcha, logger)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", human, authHandler.Login)
	r.GET("/register", authHandler.ShowRegister)
	r.POST("/register", human, authHandler.Register)
	r.GET("/logout", authHandler.Logout)
	r.POST("/logout", authHandler.Logout)

	// Signed-in users
	user := r.Group("/")
	user.Use(middleware.RequireLogin())
	{
		user.GET("/user/dashboard", dashboards.UserDashboard)
		user.POST("/payments/order", paymentHandler.CreateOrder)
		user.POST("/payments/verify", paymentHandler.Verify)
	}

	// Administrators
	adm := r.Group("/admin")
	adm.Use(middleware.RequireAdmin(render.Forbidden))
	{
		adm.GET("/dashboard", dashboards.AdminDashboard)
		adm.GET("/sales", dashboards.Sales)

		adm.GET("/users", userHandler.List)
		adm.GET("/users/new", userHandler.New)
		adm.POST("/users", userHandler.Create)
		adm.GET("/users/:id/edit", userHandler.Edit)
		adm.POST("/users/:id", userHandler.Update)
		adm.GET("/users/:id/delete", userHandler.ConfirmDelete)
		adm.POST("/users/:id/delete", userHandler.Delete)
		adm.POST("/users/:id/toggle", userHandler.Toggle)

		adm.GET("/properties", propertyHandler.List)
		adm.GET("/properties/new", propertyHandler.New)
		adm.POST("/properties", propertyHandler.Create)
		adm.POST("/properties/upload-url", propertyHandler.UploadURL)
		adm.GET("/properties/:id/edit", propertyHandler.Edit)
		adm.POST("/properties/:id", propertyHandler.Update)
		adm.GET("/properties/:id/delete", propertyHandler.ConfirmDelete)
		adm.POST("/properties/:id/delete", propertyHandler.Delete)
		adm.POST("/properties/:id/status", propertyHandler.SetStatus)

		adm.GET("/inquiries", inquiryHandler.List)
		adm.GET("/inquiries/:id/respond", inquiryHandler.RespondForm)
		adm.POST("/inquiries/:id/respond", inquiryHandler.Respond)
	}

	r.NoRoute(render.NotFound)
	return r, nil
}

// SetupServiceRouter configures and returns the service Gin engine.
func SetupServiceRouter(rdb *redis.Client, prober *diagnostics.Prober, shutdownChan chan<- struct{}, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger, func(c *gin.Context) {}), middleware.RequestLogger(logger))

	serviceHandler := handlers.NewServiceApiHandler(rdb, prober, shutdownChan, logger)
	r.POST("/api", serviceHandler.HandleRequest)
	return r
}
