// Package diagnostics checks connectivity to the REST backend.
package diagnostics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
)

// Status of one probe.
type Status string

const (
	StatusConnected Status = "connected"
	StatusWorking   Status = "working"
	StatusError     Status = "error"
)

// OK reports whether the probe passed.
func (s Status) OK() bool { return s == StatusConnected || s == StatusWorking }

// Report is the outcome of a full probe run.
type Report struct {
	Backend    Status            `json:"backend"`
	Properties Status            `json:"properties"`
	Auth       Status            `json:"auth"`
	Error      string            `json:"error,omitempty"`
	Sample     []models.Property `json:"sample"`
	BaseURL    string            `json:"baseUrl"`
}

// Healthy reports whether every probe passed.
func (r Report) Healthy() bool {
	return r.Backend.OK() && r.Properties.OK() && r.Auth.OK()
}

// Prober runs the connectivity checks.
type Prober struct {
	api        *client.Client
	properties services.IPropertyService
	auth       services.IAuthService
	logger     *zap.Logger
}

// NewProber creates a Prober.
func NewProber(api *client.Client, properties services.IPropertyService, auth services.IAuthService, logger *zap.Logger) *Prober {
	return &Prober{api: api, properties: properties, auth: auth, logger: logger}
}

// Probe checks that the backend answers on the public listing endpoint, that
// a property page decodes, and that the login endpoint responds at all.
func (p *Prober) Probe(ctx context.Context) Report {
	report := Report{Backend: StatusError, Properties: StatusError, Auth: StatusError, BaseURL: p.api.BaseURL()}

	err := p.api.Do(ctx, client.Request{Method: http.MethodGet, Path: "/properties/public"}, nil)
	if err == nil {
		report.Backend = StatusConnected
		page, err := p.properties.GetAvailableProperties(ctx, services.PageRequest{})
		if err != nil {
			p.logger.Warn("diagnostics: properties API error", zap.Error(err))
		} else {
			report.Properties = StatusWorking
			report.Sample = page.Content
			if len(report.Sample) > 6 {
				report.Sample = report.Sample[:6]
			}
		}
	} else {
		p.logger.Warn("diagnostics: backend unreachable", zap.Error(err))
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 0 {
			report.Error = "Cannot connect to backend at " + p.api.BaseURL()
		}
	}

	// Any HTTP response from login, including a rejection, means the endpoint works.
	_, err = p.auth.Login(ctx, "test", "test")
	var apiErr *client.APIError
	if err == nil || (errors.As(err, &apiErr) && apiErr.Status != 0) {
		report.Auth = StatusWorking
	} else {
		p.logger.Warn("diagnostics: auth API error", zap.Error(err))
	}

	return report
}
