package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]interface{}
	Auth   string
}

// fakeBackend answers every request with the configured status and body and
// records what it saw.
func fakeBackend(t *testing.T, status int, body string) (*client.Client, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: map[string]string{}, Auth: r.Header.Get("Authorization")}
		for k := range r.URL.Query() {
			rec.Query[k] = r.URL.Query().Get(k)
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		seen = append(seen, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL + "/api"), &seen
}

func TestPropertyService_GetAvailablePropertiesDefaults(t *testing.T) {
	api, seen := fakeBackend(t, http.StatusOK, `{"content":[{"id":1,"title":"Cottage","price":350000,"status":"AVAILABLE"}],"totalPages":1,"totalElements":1}`)

	page, err := NewPropertyService(api).GetAvailableProperties(context.Background(), PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Cottage", page.Content[0].Title)

	req := (*seen)[0]
	assert.Equal(t, "/api/properties/public", req.Path)
	assert.Equal(t, map[string]string{"page": "0", "size": "10", "sortBy": "createdAt", "sortDir": "desc"}, req.Query)
}

func TestPropertyService_FilterOmitsUnsetBounds(t *testing.T) {
	api, seen := fakeBackend(t, http.StatusOK, `{"content":[]}`)
	minPrice := 400000.0
	beds := 3

	_, err := NewPropertyService(api).FilterProperties(context.Background(), PropertyFilter{MinPrice: &minPrice, MinBedrooms: &beds, City: "Austin"})
	require.NoError(t, err)

	q := (*seen)[0].Query
	assert.Equal(t, "400000", q["minPrice"])
	assert.Equal(t, "3", q["minBedrooms"])
	assert.Equal(t, "Austin", q["city"])
	assert.NotContains(t, q, "maxPrice")
	assert.NotContains(t, q, "type")
}

func TestPropertyService_NotFoundCarriesDefaultMessage(t *testing.T) {
	api, _ := fakeBackend(t, http.StatusNotFound, ``)

	_, err := NewPropertyService(api).GetPropertyByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.Contains(t, err.Error(), "Failed to fetch property")
}

func TestAdminService_CreateUserPostsBody(t *testing.T) {
	api, seen := fakeBackend(t, http.StatusOK, `{"id":5,"username":"jdoe","role":"USER","isActive":true}`)

	u, err := NewAdminService(api).CreateUser(context.Background(), models.UserRequest{
		Username: "jdoe", Email: "j@x.io", FirstName: "J", LastName: "Doe", Role: models.RoleUser, Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)

	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/admin/users", req.Path)
	assert.Equal(t, "jdoe", req.Body["username"])
	assert.Equal(t, "USER", req.Body["role"])
}

func TestAdminService_ToggleAndRespondPaths(t *testing.T) {
	api, seen := fakeBackend(t, http.StatusOK, `{}`)
	svc := NewAdminService(api)

	_, err := svc.DeactivateUser(context.Background(), 3)
	require.NoError(t, err)
	_, err = svc.ActivateUser(context.Background(), 3)
	require.NoError(t, err)
	require.NoError(t, svc.RespondToInquiry(context.Background(), 8, "Yes, still available"))

	require.Len(t, *seen, 3)
	assert.Equal(t, "/api/admin/users/3/deactivate", (*seen)[0].Path)
	assert.Equal(t, "/api/admin/users/3/activate", (*seen)[1].Path)
	assert.Equal(t, http.MethodPut, (*seen)[2].Method)
	assert.Equal(t, "/api/admin/inquiries/8/respond", (*seen)[2].Path)
	assert.Equal(t, "Yes, still available", (*seen)[2].Body["response"])
}

func TestAdminService_ServerMessageWins(t *testing.T) {
	api, _ := fakeBackend(t, http.StatusBadRequest, `{"message":"Email already in use"}`)

	_, err := NewAdminService(api).CreateUser(context.Background(), models.UserRequest{Username: "a"})
	apiErr := client.Normalize(err, "Failed to create user")
	assert.Equal(t, "Email already in use", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestAdminPropertyService_StatusUsesQueryParam(t *testing.T) {
	api, seen := fakeBackend(t, http.StatusOK, `{"id":4,"status":"SOLD"}`)

	p, err := NewAdminPropertyService(api).UpdatePropertyStatus(context.Background(), 4, models.StatusSold)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, p.Status)
	assert.Equal(t, "/api/properties/admin/4/status", (*seen)[0].Path)
	assert.Equal(t, "SOLD", (*seen)[0].Query["status"])
}

func TestPaymentService_CreateOrder(t *testing.T) {
	api, seen := fakeBackend(t, http.StatusOK, `{"id":"order_1","amount":450000,"currency":"USD","status":"created"}`)

	order, err := NewPaymentService(api).CreateOrder(context.Background(), 450000, "USD")
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)

	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/payments/create-order", req.Path)
	assert.Equal(t, "450000", req.Query["amount"])
	assert.Equal(t, "USD", req.Query["currency"])
}

func TestAuthService_Login(t *testing.T) {
	api, seen := fakeBackend(t, http.StatusOK, `{"token":"t0k","user":{"id":1,"username":"admin","role":"ADMIN"}}`)

	resp, err := NewAuthService(api).Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "t0k", resp.Token)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Equal(t, "admin", (*seen)[0].Body["username"])
}
