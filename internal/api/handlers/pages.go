package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/api/middleware"
	"dreamhome/web/internal/client"
	"dreamhome/web/internal/diagnostics"
	"dreamhome/web/internal/listing"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
)

// PriceOption is one entry of the price filter dropdown.
type PriceOption struct {
	Value string
	Label string
}

// PriceOptions are the price brackets offered on the listing page.
var PriceOptions = []PriceOption{
	{listing.PriceUnder400k, "Under $400k"},
	{listing.Price400kTo600k, "$400k - $600k"},
	{listing.PriceOver600k, "Over $600k"},
}

// HomeData is what home.html renders.
type HomeData struct {
	Featured []models.Property
}

// ListingData is what properties.html renders.
type ListingData struct {
	View        listing.View
	Locations   []string
	PriceRanges []PriceOption
	Query       string // "/properties?<filters>&", ready for page=N
}

// DetailData is what property_detail.html renders.
type DetailData struct {
	Property          *models.Property
	CheckoutScriptURL string
	LoginURL          string
}

// DiagnosticsData is what test_api.html renders.
type DiagnosticsData struct {
	Report diagnostics.Report
}

// PageHandler serves the public pages.
type PageHandler struct {
	render            *Renderer
	properties        services.IPropertyService
	browsers          *listing.Registry
	prober            *diagnostics.Prober
	checkoutScriptURL string
	logger            *zap.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(render *Renderer, properties services.IPropertyService, browsers *listing.Registry, prober *diagnostics.Prober, checkoutScriptURL string, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		render:            render,
		properties:        properties,
		browsers:          browsers,
		prober:            prober,
		checkoutScriptURL: checkoutScriptURL,
		logger:            logger,
	}
}

// Home handles GET /.
func (h *PageHandler) Home(c *gin.Context) {
	featured, err := h.properties.GetFeaturedProperties(c.Request.Context())
	p := h.render.Page(c, "Home", HomeData{Featured: featured})
	if err != nil {
		h.logger.Error("failed to load featured properties", zap.Error(err))
		p.Error = messageOf(err, "Failed to fetch featured properties")
	}
	h.render.HTML(c, http.StatusOK, "home.html", p)
}

// Properties handles GET /properties. The query string carries the filters
// and the display page; the fetched server page lives in the visitor's Browser.
func (h *PageHandler) Properties(c *gin.Context) {
	b := h.browsers.Get(middleware.VisitorID(c))
	b.Load(c.Request.Context())

	var f listing.Filters
	_ = c.ShouldBindQuery(&f)
	view := b.View()
	if f != view.Filters {
		view = b.SetFilters(f)
	}
	if c.Query("page") != "" {
		view = b.SetPage(pageParam(c, 1))
	}

	p := h.render.Page(c, "Properties", ListingData{
		View:        view,
		Locations:   listing.LocationOptions,
		PriceRanges: PriceOptions,
		Query:       listingQuery(view.Filters),
	})
	p.Error = view.Error
	h.render.HTML(c, http.StatusOK, "properties.html", p)
}

// Search handles POST /properties/search: it re-fetches the server page for
// the posted filters and redirects back to the listing.
func (h *PageHandler) Search(c *gin.Context) {
	var f listing.Filters
	_ = c.ShouldBind(&f)

	b := h.browsers.Get(middleware.VisitorID(c))
	b.SetFilters(f)
	view := b.Search(c.Request.Context())
	if view.Error != "" {
		h.logger.Warn("property search failed", zap.String("search", f.Search), zap.String("error", view.Error))
	}
	c.Redirect(http.StatusSeeOther, listingURL(f))
}

// Detail handles GET /property/:id.
func (h *PageHandler) Detail(c *gin.Context) {
	data := DetailData{CheckoutScriptURL: h.checkoutScriptURL, LoginURL: "/login?next=" + url.QueryEscape(c.Request.URL.RequestURI())}

	id, ok := idParam(c)
	if !ok {
		h.render.HTML(c, http.StatusNotFound, "property_detail.html", h.render.Page(c, "Property not found", data))
		return
	}

	property, err := h.properties.GetPropertyByID(c.Request.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			h.render.HTML(c, http.StatusNotFound, "property_detail.html", h.render.Page(c, "Property not found", data))
			return
		}
		h.logger.Error("failed to load property", zap.Int64("property_id", id), zap.Error(err))
		h.render.ErrorPage(c, statusOf(err), messageOf(err, "Failed to fetch property"))
		return
	}

	data.Property = property
	h.render.HTML(c, http.StatusOK, "property_detail.html", h.render.Page(c, property.Title, data))
}

// TestAPI handles GET /test-api.
func (h *PageHandler) TestAPI(c *gin.Context) {
	report := h.prober.Probe(c.Request.Context())
	h.render.HTML(c, http.StatusOK, "test_api.html", h.render.Page(c, "API Connection Test", DiagnosticsData{Report: report}))
}

func filterValues(f listing.Filters) url.Values {
	v := url.Values{}
	if f.Location != "" {
		v.Set("location", f.Location)
	}
	if f.PriceRange != "" {
		v.Set("priceRange", f.PriceRange)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	return v
}

func listingURL(f listing.Filters) string {
	if enc := filterValues(f).Encode(); enc != "" {
		return "/properties?" + enc
	}
	return "/properties"
}

func listingQuery(f listing.Filters) string {
	if enc := filterValues(f).Encode(); enc != "" {
		return "/properties?" + enc + "&"
	}
	return "/properties?"
}
