package diagnostics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/services"
)

func newProber(baseURL string) *Prober {
	api := client.New(baseURL)
	return NewProber(api, services.NewPropertyService(api), services.NewAuthService(api), zap.NewNop())
}

func TestProbe_AllWorking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/properties/public":
			w.Write([]byte(`{"content":[{"id":1,"title":"A"},{"id":2,"title":"B"}],"totalPages":1}`))
		case "/auth/login":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Invalid credentials"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	report := newProber(srv.URL).Probe(context.Background())
	assert.Equal(t, StatusConnected, report.Backend)
	assert.Equal(t, StatusWorking, report.Properties)
	assert.Equal(t, StatusWorking, report.Auth, "a rejected login still proves the endpoint responds")
	assert.Len(t, report.Sample, 2)
	assert.True(t, report.Healthy())
}

func TestProbe_PropertiesUndecodable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/properties/public" && r.URL.RawQuery == "" {
			w.Write([]byte(`ok`))
			return
		}
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	report := newProber(srv.URL).Probe(context.Background())
	assert.Equal(t, StatusConnected, report.Backend)
	assert.Equal(t, StatusError, report.Properties)
	assert.False(t, report.Healthy())
}

func TestProbe_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	report := newProber(url).Probe(context.Background())
	assert.Equal(t, StatusError, report.Backend)
	assert.Equal(t, StatusError, report.Properties)
	assert.Equal(t, StatusError, report.Auth)
	assert.Contains(t, report.Error, "Cannot connect to backend")
}
