package admin

import (
	"context"
	"errors"
	"testing"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var firstPage = services.PageRequest{Page: 0, Size: PageSize}

func usersPage(users ...models.User) *models.Page[models.User] {
	return &models.Page[models.User]{Content: users, TotalPages: 1, TotalElements: int64(len(users))}
}

func TestUserManager_CreateThenRefetch(t *testing.T) {
	svc := new(MockAdminService)
	expected := models.UserRequest{
		Username: "jdoe", Email: "jdoe@example.com", FirstName: "John", LastName: "Doe",
		Role: models.RoleUser, Password: "s3cret!",
	}
	svc.On("CreateUser", mock.Anything, expected).Return(&models.User{ID: 11, Username: "jdoe"}, nil).Once()
	svc.On("GetAllUsers", mock.Anything, firstPage).Return(usersPage(models.User{ID: 11, Username: "jdoe"}), nil).Once()

	list, err := NewUserManager(svc, nil).Save(context.Background(), 0, UserForm{
		Username: " jdoe ", Email: "jdoe@example.com", FirstName: "John", LastName: "Doe", Role: "USER", Password: "s3cret!",
	}, 0)

	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "jdoe", list.Users[0].Username)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserManager_CreateWithoutPassword(t *testing.T) {
	svc := new(MockAdminService)
	svc.On("CreateUser", mock.Anything, models.UserRequest{Username: "jdoe", Email: "j@x.com", Role: models.RoleUser}).
		Return(&models.User{ID: 12, Username: "jdoe"}, nil).Once()
	svc.On("GetAllUsers", mock.Anything, firstPage).
		Return(usersPage(models.User{ID: 12, Username: "jdoe", Email: "j@x.com", Role: models.RoleUser}), nil).Once()

	list, err := NewUserManager(svc, nil).Save(context.Background(), 0, UserForm{Username: "jdoe", Email: "j@x.com", Role: "USER"}, 0)

	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, models.RoleUser, list.Users[0].Role)
	svc.AssertExpectations(t)
}

func TestUserManager_EditDispatchesUpdate(t *testing.T) {
	svc := new(MockAdminService)
	svc.On("UpdateUser", mock.Anything, int64(4), mock.AnythingOfType("models.UserRequest")).Return(&models.User{ID: 4}, nil)
	svc.On("GetAllUsers", mock.Anything, services.PageRequest{Page: 2, Size: PageSize}).Return(usersPage(), nil)

	_, err := NewUserManager(svc, nil).Save(context.Background(), 4, UserForm{Username: "a", Email: "a@b", Role: "ADMIN"}, 2)
	require.NoError(t, err)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserManager_ValidationBlocksCall(t *testing.T) {
	svc := new(MockAdminService)

	_, err := NewUserManager(svc, nil).Save(context.Background(), 0, UserForm{Username: "x"}, 0)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"email", "role"}, verr.Missing)
	svc.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserManager_UnconfirmedDeleteMakesNoCall(t *testing.T) {
	svc := new(MockAdminService)

	list, err := NewUserManager(svc, nil).Delete(context.Background(), 3, false, 0)

	assert.Nil(t, list)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, svc.Calls)
}

func TestUserManager_ConfirmedDeleteRefetches(t *testing.T) {
	svc := new(MockAdminService)
	svc.On("DeleteUser", mock.Anything, int64(3)).Return(nil)
	svc.On("GetAllUsers", mock.Anything, firstPage).Return(usersPage(), nil)

	_, err := NewUserManager(svc, nil).Delete(context.Background(), 3, true, 0)
	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestUserManager_ToggleActive(t *testing.T) {
	svc := new(MockAdminService)
	svc.On("DeactivateUser", mock.Anything, int64(5)).Return(&models.User{ID: 5}, nil).Once()
	svc.On("ActivateUser", mock.Anything, int64(5)).Return(&models.User{ID: 5, IsActive: true}, nil).Once()
	svc.On("GetAllUsers", mock.Anything, firstPage).Return(usersPage(), nil).Twice()
	m := NewUserManager(svc, nil)

	_, err := m.ToggleActive(context.Background(), 5, true, 0)
	require.NoError(t, err)
	_, err = m.ToggleActive(context.Background(), 5, false, 0)
	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestUserManager_SearchEmptyFallsBackToList(t *testing.T) {
	svc := new(MockAdminService)
	svc.On("GetAllUsers", mock.Anything, firstPage).Return(usersPage(models.User{ID: 1}), nil)
	svc.On("SearchUsers", mock.Anything, "doe").Return([]models.User{{ID: 2}, {ID: 3}}, nil)
	m := NewUserManager(svc, nil)

	list, err := m.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, list.Users, 1)
	svc.AssertNotCalled(t, "SearchUsers", mock.Anything, mock.Anything)

	list, err = m.Search(context.Background(), "doe")
	require.NoError(t, err)
	assert.Len(t, list.Users, 2)
	assert.Equal(t, 1, list.TotalPages)
}

func TestUserManager_ListFailureUsesScreenMessage(t *testing.T) {
	svc := new(MockAdminService)
	svc.On("GetAllUsers", mock.Anything, firstPage).Return(nil, &client.APIError{Status: 500, Message: "NullPointerException"})

	_, err := NewUserManager(svc, nil).List(context.Background(), 0)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Failed to load users", apiErr.Message)
	assert.Equal(t, 500, apiErr.Status)
}

func TestPropertyManager_MutationsRefetch(t *testing.T) {
	svc := new(MockAdminPropertyService)
	all := []models.Property{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	svc.On("GetAllProperties", mock.Anything).Return(all, nil)
	svc.On("CreateProperty", mock.Anything, mock.MatchedBy(func(p models.Property) bool {
		return p.Title == "Loft" && p.Price == 525000 && p.Bedrooms == 2 && len(p.Features) == 2
	})).Return(&models.Property{ID: 3}, nil)
	svc.On("UpdatePropertyStatus", mock.Anything, int64(1), models.StatusSold).Return(&models.Property{ID: 1}, nil)
	m := NewPropertyManager(svc, nil)

	_, err := m.Save(context.Background(), 0, PropertyForm{Title: "Loft", Price: "525000", Bedrooms: "2", Features: "Pool, Gym,"}, 0)
	require.NoError(t, err)
	_, err = m.SetStatus(context.Background(), 1, models.StatusSold, 0)
	require.NoError(t, err)

	svc.AssertNumberOfCalls(t, "GetAllProperties", 2)
}

func TestPropertyManager_ListPagesLocally(t *testing.T) {
	svc := new(MockAdminPropertyService)
	all := make([]models.Property, 23)
	for i := range all {
		all[i] = models.Property{ID: int64(i + 1)}
	}
	svc.On("GetAllProperties", mock.Anything).Return(all, nil)

	list, err := NewPropertyManager(svc, nil).List(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, list.TotalPages)
	assert.Len(t, list.Properties, 3)
	assert.Equal(t, int64(21), list.Properties[0].ID)

	list, err = NewPropertyManager(svc, nil).List(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Page)
}

func TestPropertyManager_UnconfirmedDelete(t *testing.T) {
	svc := new(MockAdminPropertyService)
	_, err := NewPropertyManager(svc, nil).Delete(context.Background(), 1, false, 0)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, svc.Calls)
}

func TestPropertyForm_Invalid(t *testing.T) {
	_, err := PropertyForm{Price: "1"}.Property()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"title"}, verr.Missing)

	_, err = PropertyForm{Title: "x", Price: "cheap", Bedrooms: "-1"}.Property()
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"price", "bedrooms"}, verr.Missing)
}

func TestPropertyForm_EditKeepsEveryField(t *testing.T) {
	original := models.Property{
		Title: "Sunset Villa", Description: "Ocean views", Price: 450000, Type: "HOUSE", Status: models.StatusPending,
		Address: "1 Ocean Dr", City: "Miami Beach", State: "FL", ZipCode: "33139",
		Bedrooms: 4, Bathrooms: 3, SquareFeet: 2800, YearBuilt: 1998, LotSize: 0.5,
		ImageURLs: []string{"https://cdn.example/1.jpg"}, Features: []string{"Pool", "Garage"}, IsFeatured: true,
	}

	roundTrip, err := PropertyFormFor(original).Property()
	require.NoError(t, err)
	assert.Equal(t, original, roundTrip)

	blank, err := PropertyFormFor(models.Property{Title: "Lot", Price: 1}).Property()
	require.NoError(t, err)
	assert.Zero(t, blank.YearBuilt)
	assert.Zero(t, blank.LotSize)

	_, err = PropertyForm{Title: "x", Price: "1", YearBuilt: "old", LotSize: "-2"}.Property()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"yearBuilt", "lotSize"}, verr.Missing)
}

func TestPropertyManager_UpdateSendsYearAndLot(t *testing.T) {
	svc := new(MockAdminPropertyService)
	svc.On("UpdateProperty", mock.Anything, int64(5), mock.MatchedBy(func(p models.Property) bool {
		return p.YearBuilt == 1998 && p.LotSize == 0.5
	})).Return(&models.Property{ID: 5}, nil)
	svc.On("GetAllProperties", mock.Anything).Return([]models.Property{}, nil)

	form := PropertyFormFor(models.Property{Title: "Sunset Villa", Price: 450000, YearBuilt: 1998, LotSize: 0.5})
	_, err := NewPropertyManager(svc, nil).Save(context.Background(), 5, form, 0)

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestInquiryManager_RespondRefetchesAndNotifies(t *testing.T) {
	svc := new(MockAdminService)
	notifier := new(MockNotifier)
	buyer := &models.User{Email: "buyer@example.com"}
	svc.On("RespondToInquiry", mock.Anything, int64(8), "Yes, still available").Return(nil)
	svc.On("GetAllInquiries", mock.Anything, 0, PageSize).Return(&models.Page[models.Inquiry]{
		Content: []models.Inquiry{{ID: 8, User: buyer, Status: models.InquiryResponded}},
	}, nil)
	notifier.On("NotifyInquiryResponse", mock.Anything, mock.MatchedBy(func(i models.Inquiry) bool {
		return i.ID == 8 && i.User == buyer && i.AdminResponse == "Yes, still available"
	})).Return(nil)

	list, err := NewInquiryManager(svc, notifier, nil).Respond(context.Background(), 8, "  Yes, still available ", 0)
	require.NoError(t, err)
	assert.Len(t, list.Inquiries, 1)
	svc.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestInquiryManager_EmptyResponseRejected(t *testing.T) {
	svc := new(MockAdminService)
	_, err := NewInquiryManager(svc, nil, nil).Respond(context.Background(), 8, " ", 0)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Empty(t, svc.Calls)
}
