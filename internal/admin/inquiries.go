package admin

import (
	"context"
	"strings"

	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
	"go.uber.org/zap"
)

// ResponseNotifier tells the inquirer that an admin answered.
type ResponseNotifier interface {
	NotifyInquiryResponse(ctx context.Context, inquiry models.Inquiry) error
}

// InquiryList is one rendered page of the inquiries screen.
type InquiryList struct {
	Inquiries  []models.Inquiry
	Page       int // 0-based
	TotalPages int
}

// Find returns the inquiry with id on this page.
func (l *InquiryList) Find(id int64) (models.Inquiry, bool) {
	for _, i := range l.Inquiries {
		if i.ID == id {
			return i, true
		}
	}
	return models.Inquiry{}, false
}

// InquiryManager drives the inquiries screen.
type InquiryManager struct {
	svc      services.IAdminService
	notifier ResponseNotifier
	logger   *zap.Logger
}

// NewInquiryManager creates an InquiryManager. notifier may be nil.
func NewInquiryManager(svc services.IAdminService, notifier ResponseNotifier, logger *zap.Logger) *InquiryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryManager{svc: svc, notifier: notifier, logger: logger}
}

// List fetches one server page.
func (m *InquiryManager) List(ctx context.Context, page int) (*InquiryList, error) {
	page = clampPage(page)
	res, err := m.svc.GetAllInquiries(ctx, page, PageSize)
	if err != nil {
		m.logger.Error("failed to load inquiries", zap.Int("page", page), zap.Error(err))
		return nil, fail(err, "Failed to load inquiries")
	}
	return &InquiryList{Inquiries: res.Content, Page: page, TotalPages: res.TotalPages}, nil
}

// Respond stores the admin response, refetches page and notifies the
// inquirer. A failed notification is logged, not returned.
func (m *InquiryManager) Respond(ctx context.Context, id int64, response string, page int) (*InquiryList, error) {
	if err := required([2]string{"response", response}); err != nil {
		return nil, err
	}
	response = strings.TrimSpace(response)
	if err := m.svc.RespondToInquiry(ctx, id, response); err != nil {
		m.logger.Error("failed to save response", zap.Int64("inquiry_id", id), zap.Error(err))
		return nil, fail(err, "Failed to save response")
	}

	list, err := m.List(ctx, page)
	if err != nil {
		return nil, err
	}

	if m.notifier != nil {
		inquiry, ok := list.Find(id)
		if !ok {
			inquiry = models.Inquiry{ID: id}
		}
		inquiry.AdminResponse = response
		if err := m.notifier.NotifyInquiryResponse(ctx, inquiry); err != nil {
			m.logger.Warn("failed to queue inquiry notification", zap.Int64("inquiry_id", id), zap.Error(err))
		}
	}
	return list, nil
}
