package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/admin"
)

// UserListData is what admin_users.html renders.
type UserListData struct {
	List *admin.UserList
}

// UserFormData is what admin_user_form.html renders.
type UserFormData struct {
	Form      admin.UserForm
	EditingID int64
	Action    string
	Page      int
}

// ConfirmData is what confirm_delete.html renders.
type ConfirmData struct {
	What   string
	Name   string
	Action string
	Cancel string
	Page   int
}

// AdminUserHandler serves the users screen.
type AdminUserHandler struct {
	render *Renderer
	users  *admin.UserManager
	logger *zap.Logger
}

// NewAdminUserHandler creates an AdminUserHandler.
func NewAdminUserHandler(render *Renderer, users *admin.UserManager, logger *zap.Logger) *AdminUserHandler {
	return &AdminUserHandler{render: render, users: users, logger: logger}
}

// List handles GET /admin/users (?page, ?q).
func (h *AdminUserHandler) List(c *gin.Context) {
	var (
		list *admin.UserList
		err  error
	)
	if q := c.Query("q"); q != "" {
		list, err = h.users.Search(c.Request.Context(), q)
	} else {
		list, err = h.users.List(c.Request.Context(), pageParam(c, 0))
	}
	h.renderList(c, list, err, "")
}

// New handles GET /admin/users/new.
func (h *AdminUserHandler) New(c *gin.Context) {
	h.renderForm(c, http.StatusOK, UserFormData{
		Form:   admin.UserForm{Role: "USER"},
		Action: "/admin/users",
		Page:   pageParam(c, 0),
	}, "")
}

// Create handles POST /admin/users.
func (h *AdminUserHandler) Create(c *gin.Context) {
	h.save(c, 0)
}

// Edit handles GET /admin/users/:id/edit.
func (h *AdminUserHandler) Edit(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to load user", zap.Int64("user_id", id), zap.Error(err))
		h.render.ErrorPage(c, statusOf(err), messageOf(err, "Failed to fetch user"))
		return
	}
	h.renderForm(c, http.StatusOK, UserFormData{
		Form:      admin.UserFormFor(*u),
		EditingID: id,
		Action:    fmt.Sprintf("/admin/users/%d", id),
		Page:      pageParam(c, 0),
	}, "")
}

// Update handles POST /admin/users/:id.
func (h *AdminUserHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	h.save(c, id)
}

func (h *AdminUserHandler) save(c *gin.Context, editingID int64) {
	var form admin.UserForm
	_ = c.ShouldBind(&form)
	page := pageParam(c, 0)

	list, err := h.users.Save(c.Request.Context(), editingID, form, page)
	if err != nil {
		form.Password = ""
		action := "/admin/users"
		if editingID != 0 {
			action = fmt.Sprintf("/admin/users/%d", editingID)
		}
		h.renderForm(c, statusOf(err), UserFormData{Form: form, EditingID: editingID, Action: action, Page: page},
			messageOf(err, "Failed to save user"))
		return
	}

	flash := "User created successfully"
	if editingID != 0 {
		flash = "User updated successfully"
	}
	h.renderList(c, list, nil, flash)
}

// ConfirmDelete handles GET /admin/users/:id/delete.
func (h *AdminUserHandler) ConfirmDelete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.render.ErrorPage(c, statusOf(err), messageOf(err, "Failed to fetch user"))
		return
	}
	page := pageParam(c, 0)
	h.render.HTML(c, http.StatusOK, "confirm_delete.html", h.render.Page(c, "Delete User", ConfirmData{
		What:   "user",
		Name:   u.Username,
		Action: fmt.Sprintf("/admin/users/%d/delete", id),
		Cancel: fmt.Sprintf("/admin/users?page=%d", page),
		Page:   page,
	}))
}

// Delete handles POST /admin/users/:id/delete.
func (h *AdminUserHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	page := pageParam(c, 0)
	list, err := h.users.Delete(c.Request.Context(), id, c.PostForm("confirmed") == "true", page)
	if errors.Is(err, admin.ErrNotConfirmed) {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/admin/users?page=%d", page))
		return
	}
	h.renderList(c, list, err, "User deleted successfully")
}

// Toggle handles POST /admin/users/:id/toggle.
func (h *AdminUserHandler) Toggle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		h.render.NotFound(c)
		return
	}
	active, _ := strconv.ParseBool(c.PostForm("active"))
	list, err := h.users.ToggleActive(c.Request.Context(), id, active, pageParam(c, 0))
	flash := "User activated"
	if active {
		flash = "User deactivated"
	}
	h.renderList(c, list, err, flash)
}

// renderList shows list. A failed mutation shows the banner over a fresh copy
// of the current page.
func (h *AdminUserHandler) renderList(c *gin.Context, list *admin.UserList, err error, flash string) {
	p := h.render.Page(c, "Manage Users", nil)
	status := http.StatusOK
	if err != nil {
		p.Error = messageOf(err, "Failed to load users")
		status = statusOf(err)
		if c.Request.Method == http.MethodPost {
			if fresh, ferr := h.users.List(c.Request.Context(), pageParam(c, 0)); ferr == nil {
				list = fresh
			}
		}
	} else {
		p.Flash = flash
	}
	if list == nil {
		list = &admin.UserList{}
	}
	p.Data = UserListData{List: list}
	h.render.HTML(c, status, "admin_users.html", p)
}

func (h *AdminUserHandler) renderForm(c *gin.Context, status int, data UserFormData, errMsg string) {
	title := "Add User"
	if data.EditingID != 0 {
		title = "Edit User"
	}
	p := h.render.Page(c, title, data)
	p.Error = errMsg
	h.render.HTML(c, status, "admin_user_form.html", p)
}
