package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/admin"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/storage"
)

// ImageQueue schedules post-upload processing of property images.
type ImageQueue interface {
	EnqueueImageProcess(ctx context.Context, key string, propertyID int64) error
}

// PropertyListData is what admin_properties.html renders.
type PropertyListData struct {
	List *admin.PropertyList
}

// PropertyFormData is what admin_property_form.html renders.
type PropertyFormData struct {
	Form           admin.PropertyForm
	EditingID      int64
	Action         string
	Page           int
	UploadsEnabled bool
}

// UploadURLRequest asks for a presigned image upload.
type UploadURLRequest struct {
	PropertyID  int64  `json:"propertyId"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// UploadURLResponse is the presigned upload target.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
}

// AdminPropertyHandler serves the properties screen.
type AdminPropertyHandler struct {
	render     *Renderer
	properties *admin.PropertyManager
	storage    storage.IS3Storage
	images     ImageQueue
	logger     *zap.Logger
}

// NewAdminPropertyHandler creates an AdminPropertyHandler. store and images
// may be nil, which disables image uploads and processing respectively.
func NewAdminPropertyHandler(render *Renderer, properties *admin.PropertyManager, store storage.IS3Storage, images ImageQueue, logger *zap.Logger) *AdminPropertyHandler {
	return &AdminPropertyHandler{render: render, properties: properties, storage: store, images: images, logger: logger}
}

// List handles GET /admin/properties.
func (h *AdminPropertyHandler) List(c *gin.Context) {
	list, err := h.properties.List(c.Request.Context(), pageParam(c, 0))
	h.renderList(c, list, err, "")
}

// New handles GET /admin/properties/new.
func (h *AdminPropertyHandler) New(c *gin.Context) {
	h.renderForm(c, http.StatusOK, PropertyFormData{
		Form:   admin.PropertyForm{Status: string(models.StatusAvailable)},
		Action: "/admin/properties",
		Page:   pageParam(c, 0),
	}, "")
}

// Create handles POST /admin/properties.
func (h *AdminPropertyHandler) Create(c *gin.Context) {
	h.save(c, 0)
}

// Edit handles GET /admin/properties/:id/edit.
func (h *AdminPropertyHandler) Edit(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	p, err := h.properties.Find(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to load property", zap.Int64("property_id", id), zap.Error(err))
		h.render.ErrorPage(c, statusOf(err), messageOf(err, "Failed to load properties"))
		return
	}
	h.renderForm(c, http.StatusOK, PropertyFormData{
		Form:      admin.PropertyFormFor(*p),
		EditingID: id,
		Action:    fmt.Sprintf("/admin/properties/%d", id),
		Page:      pageParam(c, 0),
	}, "")
}

// Update handles POST /admin/properties/:id.
func (h *AdminPropertyHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	h.save(c, id)
}

func (h *AdminPropertyHandler) save(c *gin.Context, editingID int64) {
	var form admin.PropertyForm
	_ = c.ShouldBind(&form)
	page := pageParam(c, 0)

	list, err := h.properties.Save(c.Request.Context(), editingID, form, page)
	if err != nil {
		action := "/admin/properties"
		if editingID != 0 {
			action = fmt.Sprintf("/admin/properties/%d", editingID)
		}
		h.renderForm(c, statusOf(err), PropertyFormData{Form: form, EditingID: editingID, Action: action, Page: page},
			messageOf(err, "Failed to save property"))
		return
	}

	flash := "Property added successfully"
	if editingID != 0 {
		flash = "Property updated successfully"
	}
	h.renderList(c, list, nil, flash)
}

// ConfirmDelete handles GET /admin/properties/:id/delete.
func (h *AdminPropertyHandler) ConfirmDelete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	p, err := h.properties.Find(c.Request.Context(), id)
	if err != nil {
		h.render.ErrorPage(c, statusOf(err), messageOf(err, "Failed to load properties"))
		return
	}
	page := pageParam(c, 0)
	h.render.HTML(c, http.StatusOK, "confirm_delete.html", h.render.Page(c, "Delete Property", ConfirmData{
		What:   "property",
		Name:   p.Title,
		Action: fmt.Sprintf("/admin/properties/%d/delete", id),
		Cancel: fmt.Sprintf("/admin/properties?page=%d", page),
		Page:   page,
	}))
}

// Delete handles POST /admin/properties/:id/delete.
func (h *AdminPropertyHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	page := pageParam(c, 0)
	list, err := h.properties.Delete(c.Request.Context(), id, c.PostForm("confirmed") == "true", page)
	if errors.Is(err, admin.ErrNotConfirmed) {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/admin/properties?page=%d", page))
		return
	}
	h.renderList(c, list, err, "Property deleted successfully")
}

// SetStatus handles POST /admin/properties/:id/status.
func (h *AdminPropertyHandler) SetStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	status := models.ParsePropertyStatus(c.PostForm("status"))
	list, err := h.properties.SetStatus(c.Request.Context(), id, status, pageParam(c, 0))
	h.renderList(c, list, err, "Property status updated to "+status.Label())
}

// UploadURL handles POST /admin/properties/upload-url. It returns a presigned
// PUT URL and schedules processing of the uploaded image.
func (h *AdminPropertyHandler) UploadURL(c *gin.Context) {
	if h.storage == nil {
		sendErrorResponse(c, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "filename and contentType are required")
		return
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		sendErrorResponse(c, http.StatusBadRequest, "Only image uploads are allowed")
		return
	}

	propertyKey := ""
	if req.PropertyID > 0 {
		propertyKey = strconv.FormatInt(req.PropertyID, 10)
	}
	uploadURL, key, err := h.storage.GeneratePresignedPutURL(c.Request.Context(), propertyKey, req.Filename, req.ContentType)
	if err != nil {
		h.logger.Error("failed to presign upload", zap.String("filename", req.Filename), zap.Error(err))
		sendErrorResponse(c, http.StatusInternalServerError, "Failed to prepare image upload")
		return
	}

	if h.images != nil {
		if err := h.images.EnqueueImageProcess(c.Request.Context(), key, req.PropertyID); err != nil {
			h.logger.Warn("failed to queue image processing", zap.String("key", key), zap.Error(err))
		}
	}
	sendSuccessResponse(c, UploadURLResponse{UploadURL: uploadURL, PublicURL: h.storage.PublicURL(key), Key: key})
}

// renderList shows list. A failed mutation shows the banner over a fresh copy
// of the current page.
func (h *AdminPropertyHandler) renderList(c *gin.Context, list *admin.PropertyList, err error, flash string) {
	p := h.render.Page(c, "Manage Properties", nil)
	status := http.StatusOK
	if err != nil {
		h.logger.Warn("property screen error", zap.Error(err))
		p.Error = messageOf(err, "Failed to load properties")
		status = statusOf(err)
		if c.Request.Method == http.MethodPost {
			if fresh, ferr := h.properties.List(c.Request.Context(), pageParam(c, 0)); ferr == nil {
				list = fresh
			}
		}
	} else {
		p.Flash = flash
	}
	if list == nil {
		list = &admin.PropertyList{}
	}
	p.Data = PropertyListData{List: list}
	h.render.HTML(c, status, "admin_properties.html", p)
}

func (h *AdminPropertyHandler) renderForm(c *gin.Context, status int, data PropertyFormData, errMsg string) {
	data.UploadsEnabled = h.storage != nil
	title := "Add Property"
	if data.EditingID != 0 {
		title = "Edit Property"
	}
	p := h.render.Page(c, title, data)
	p.Error = errMsg
	h.render.HTML(c, status, "admin_property_form.html", p)
}
