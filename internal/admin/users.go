package admin

import (
	"context"
	"strings"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
	"go.uber.org/zap"
)

// UserForm is the create/edit form of the users screen.
type UserForm struct {
	Username    string `form:"username"`
	Email       string `form:"email"`
	FirstName   string `form:"firstName"`
	LastName    string `form:"lastName"`
	PhoneNumber string `form:"phoneNumber"`
	Role        string `form:"role"`
	Password    string `form:"password"`
}

// UserFormFor pre-fills the edit form; the password is never echoed back.
func UserFormFor(u models.User) UserForm {
	return UserForm{
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Role:        string(u.Role),
	}
}

// Validate checks the required fields. The password is optional: a blank one
// leaves it to the backend on create and unchanged on update.
func (f UserForm) Validate() error {
	return required(
		[2]string{"username", f.Username},
		[2]string{"email", f.Email},
		[2]string{"role", f.Role},
	)
}

func (f UserForm) request() models.UserRequest {
	return models.UserRequest{
		Username:    strings.TrimSpace(f.Username),
		Email:       strings.TrimSpace(f.Email),
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
		Role:        models.ParseRole(f.Role),
		Password:    f.Password,
	}
}

// UserList is one rendered page of the users screen.
type UserList struct {
	Users      []models.User
	Page       int // 0-based
	TotalPages int
	Query      string
}

// UserManager drives the users screen.
type UserManager struct {
	svc    services.IAdminService
	logger *zap.Logger
}

// NewUserManager creates a UserManager.
func NewUserManager(svc services.IAdminService, logger *zap.Logger) *UserManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserManager{svc: svc, logger: logger}
}

// List fetches one server page.
func (m *UserManager) List(ctx context.Context, page int) (*UserList, error) {
	page = clampPage(page)
	res, err := m.svc.GetAllUsers(ctx, services.PageRequest{Page: page, Size: PageSize})
	if err != nil {
		m.logger.Error("failed to load users", zap.Int("page", page), zap.Error(err))
		return nil, fail(err, "Failed to load users")
	}
	return &UserList{Users: res.Content, Page: page, TotalPages: res.TotalPages}, nil
}

// Search runs a user search. An empty query is a plain List(0).
// Results come back as a single page.
func (m *UserManager) Search(ctx context.Context, query string) (*UserList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return m.List(ctx, 0)
	}
	users, err := m.svc.SearchUsers(ctx, query)
	if err != nil {
		m.logger.Error("failed to search users", zap.String("query", query), zap.Error(err))
		return nil, fail(err, "Failed to search users")
	}
	return &UserList{Users: users, Page: 0, TotalPages: 1, Query: query}, nil
}

// Save creates the user when editingID is zero and updates it otherwise,
// then refetches page.
func (m *UserManager) Save(ctx context.Context, editingID int64, form UserForm, page int) (*UserList, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var err error
	if editingID == 0 {
		_, err = m.svc.CreateUser(ctx, form.request())
	} else {
		_, err = m.svc.UpdateUser(ctx, editingID, form.request())
	}
	if err != nil {
		m.logger.Error("failed to save user", zap.Int64("user_id", editingID), zap.Error(err))
		return nil, client.Normalize(err, "Failed to save user")
	}
	return m.List(ctx, page)
}

// Delete removes the user once confirmed, then refetches page.
func (m *UserManager) Delete(ctx context.Context, id int64, confirmed bool, page int) (*UserList, error) {
	if !confirmed {
		return nil, ErrNotConfirmed
	}
	if err := m.svc.DeleteUser(ctx, id); err != nil {
		m.logger.Error("failed to delete user", zap.Int64("user_id", id), zap.Error(err))
		return nil, fail(err, "Failed to delete user")
	}
	return m.List(ctx, page)
}

// ToggleActive deactivates an active user or activates an inactive one, then
// refetches page.
func (m *UserManager) ToggleActive(ctx context.Context, id int64, currentlyActive bool, page int) (*UserList, error) {
	var err error
	if currentlyActive {
		_, err = m.svc.DeactivateUser(ctx, id)
	} else {
		_, err = m.svc.ActivateUser(ctx, id)
	}
	if err != nil {
		m.logger.Error("failed to toggle user status", zap.Int64("user_id", id), zap.Error(err))
		return nil, fail(err, "Failed to update user status")
	}
	return m.List(ctx, page)
}

// Get loads a single user for the edit form.
func (m *UserManager) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := m.svc.GetUserByID(ctx, id)
	if err != nil {
		return nil, client.Normalize(err, "Failed to fetch user")
	}
	return u, nil
}
