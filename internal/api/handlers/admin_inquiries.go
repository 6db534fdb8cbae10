package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/admin"
	"dreamhome/web/internal/models"
)

// InquiryListData is what admin_inquiries.html renders.
type InquiryListData struct {
	List *admin.InquiryList
}

// RespondData is what admin_inquiry_respond.html renders.
type RespondData struct {
	Inquiry  models.Inquiry
	Response string
	Page     int
}

// AdminInquiryHandler serves the inquiries screen.
type AdminInquiryHandler struct {
	render    *Renderer
	inquiries *admin.InquiryManager
	logger    *zap.Logger
}

// NewAdminInquiryHandler creates an AdminInquiryHandler.
func NewAdminInquiryHandler(render *Renderer, inquiries *admin.InquiryManager, logger *zap.Logger) *AdminInquiryHandler {
	return &AdminInquiryHandler{render: render, inquiries: inquiries, logger: logger}
}

// List handles GET /admin/inquiries.
func (h *AdminInquiryHandler) List(c *gin.Context) {
	list, err := h.inquiries.List(c.Request.Context(), pageParam(c, 0))
	h.renderList(c, list, err, "")
}

// RespondForm handles GET /admin/inquiries/:id/respond.
func (h *AdminInquiryHandler) RespondForm(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	page := pageParam(c, 0)
	inquiry, err := h.find(c, id, page)
	if err != nil {
		h.render.ErrorPage(c, statusOf(err), messageOf(err, "Failed to load inquiries"))
		return
	}
	if inquiry == nil {
		h.render.NotFound(c)
		return
	}
	h.render.HTML(c, http.StatusOK, "admin_inquiry_respond.html", h.render.Page(c, "Respond to Inquiry", RespondData{
		Inquiry:  *inquiry,
		Response: inquiry.AdminResponse,
		Page:     page,
	}))
}

// Respond handles POST /admin/inquiries/:id/respond.
func (h *AdminInquiryHandler) Respond(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	page := pageParam(c, 0)
	response := c.PostForm("response")

	list, err := h.inquiries.Respond(c.Request.Context(), id, response, page)
	if err != nil {
		inquiry, _ := h.find(c, id, page)
		if inquiry == nil {
			inquiry = &models.Inquiry{ID: id}
		}
		p := h.render.Page(c, "Respond to Inquiry", RespondData{Inquiry: *inquiry, Response: response, Page: page})
		p.Error = messageOf(err, "Failed to save response")
		h.render.HTML(c, statusOf(err), "admin_inquiry_respond.html", p)
		return
	}
	h.renderList(c, list, nil, "Response sent successfully")
}

// find looks the inquiry up on its list page. A nil inquiry with a nil error
// means it is not there.
func (h *AdminInquiryHandler) find(c *gin.Context, id int64, page int) (*models.Inquiry, error) {
	list, err := h.inquiries.List(c.Request.Context(), page)
	if err != nil {
		return nil, err
	}
	if inquiry, ok := list.Find(id); ok {
		return &inquiry, nil
	}
	return nil, nil
}

func (h *AdminInquiryHandler) renderList(c *gin.Context, list *admin.InquiryList, err error, flash string) {
	p := h.render.Page(c, "Manage Inquiries", nil)
	status := http.StatusOK
	if err != nil {
		p.Error = messageOf(err, "Failed to load inquiries")
		status = statusOf(err)
	} else {
		p.Flash = flash
	}
	if list == nil {
		list = &admin.InquiryList{}
	}
	p.Data = InquiryListData{List: list}
	h.render.HTML(c, status, "admin_inquiries.html", p)
}
