package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) GetAvailableProperties(ctx context.Context, req services.PageRequest) (*models.Page[models.Property], error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Property]), args.Error(1)
}

func (m *MockPropertyService) GetPropertyByID(ctx context.Context, id int64) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) GetFeaturedProperties(ctx context.Context) ([]models.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyService) SearchProperties(ctx context.Context, keyword string, page, size int) (*models.Page[models.Property], error) {
	args := m.Called(ctx, keyword, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Property]), args.Error(1)
}

func (m *MockPropertyService) FilterProperties(ctx context.Context, f services.PropertyFilter) (*models.Page[models.Property], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Property]), args.Error(1)
}

func prop(id int64, title, city string, price float64) models.Property {
	return models.Property{ID: id, Title: title, City: city, State: "FL", Price: price, Status: models.StatusAvailable}
}

func pageOf(props ...models.Property) *models.Page[models.Property] {
	return &models.Page[models.Property]{Content: props, TotalPages: 1, TotalElements: int64(len(props))}
}

func TestPriceBrackets(t *testing.T) {
	props := []models.Property{
		prop(1, "a", "x", 399999),
		prop(2, "b", "x", 400000),
		prop(3, "c", "x", 600000),
		prop(4, "d", "x", 600001),
	}
	ids := func(ps []models.Property) []int64 {
		out := []int64{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1}, ids(Apply(props, Filters{PriceRange: PriceUnder400k})))
	assert.Equal(t, []int64{2, 3}, ids(Apply(props, Filters{PriceRange: Price400kTo600k})))
	assert.Equal(t, []int64{4}, ids(Apply(props, Filters{PriceRange: PriceOver600k})))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(Apply(props, Filters{PriceRange: "bogus"})))
}

func TestFilters_LocationAndSearch(t *testing.T) {
	props := []models.Property{
		prop(1, "Modern Downtown Condo", "Miami", 450000),
		prop(2, "Family Home", "Suburbs", 350000),
		prop(3, "Beach Villa", "Miami Beach", 900000),
	}

	got := Apply(props, Filters{Location: "miami"})
	assert.Len(t, got, 2)

	got = Apply(props, Filters{Search: "downtown"})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	// search matches location too
	got = Apply(props, Filters{Search: "suburbs"})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	got = Apply(props, Filters{Location: "Miami", PriceRange: PriceOver600k})
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestPaginate(t *testing.T) {
	items := make([]models.Property, 13)
	for i := range items {
		items[i] = prop(int64(i+1), fmt.Sprint(i), "x", 1)
	}

	p := Paginate(items, 1, PageSize)
	assert.Equal(t, 3, p.TotalPages)
	assert.Len(t, p.Items, 6)
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())

	p = Paginate(items, 3, PageSize)
	assert.Len(t, p.Items, 1)
	assert.Equal(t, int64(13), p.Items[0].ID)

	p = Paginate(items, 99, PageSize)
	assert.Equal(t, 3, p.Number)

	p = Paginate(nil, 4, PageSize)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 0, p.TotalPages)
	assert.Empty(t, p.Items)
	assert.Empty(t, p.Numbers())
}

func TestBrowser_LoadFetchesOnce(t *testing.T) {
	svc := new(MockPropertyService)
	svc.On("GetAvailableProperties", mock.Anything, services.PageRequest{Page: 0, Size: 10}).
		Return(pageOf(prop(1, "a", "Miami", 1)), nil).Once()

	b := NewBrowser(svc, nil)
	v := b.Load(context.Background())
	assert.Equal(t, StateLoaded, v.State)
	assert.Len(t, v.Page.Items, 1)

	v = b.Load(context.Background())
	assert.Equal(t, StateLoaded, v.State)
	svc.AssertNumberOfCalls(t, "GetAvailableProperties", 1)
}

func TestBrowser_LoadRetriesAfterFailure(t *testing.T) {
	svc := new(MockPropertyService)
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).Return(pageOf(prop(1, "a", "Miami", 1), prop(2, "b", "Miami", 1)), nil).Once()

	b := NewBrowser(svc, nil)
	v := b.Load(context.Background())
	assert.Equal(t, StateErrored, v.State)
	assert.Equal(t, "Failed to fetch properties", v.Error)
	assert.Empty(t, v.Page.Items)

	v = b.Load(context.Background())
	assert.Equal(t, StateLoaded, v.State)
	assert.Empty(t, v.Error)
	assert.Len(t, v.Page.Items, 2)
	svc.AssertNumberOfCalls(t, "GetAvailableProperties", 2)
}

func TestBrowser_StalePageRefetchesLastQuery(t *testing.T) {
	svc := new(MockPropertyService)
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).Return(pageOf(prop(1, "a", "x", 1)), nil)
	svc.On("SearchProperties", mock.Anything, "villa", 0, 10).Return(pageOf(prop(9, "Villa", "x", 1)), nil).Once()
	svc.On("SearchProperties", mock.Anything, "villa", 0, 10).Return(pageOf(prop(9, "Villa", "x", 1), prop(10, "New Villa", "x", 1)), nil).Once()

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := NewBrowser(svc, nil)
	b.now = func() time.Time { return clock }

	b.Load(context.Background())
	b.SetFilters(Filters{Search: "villa"})
	b.Search(context.Background())

	clock = clock.Add(MaxAge - time.Second)
	v := b.Load(context.Background())
	assert.Len(t, v.Page.Items, 1)
	svc.AssertNumberOfCalls(t, "SearchProperties", 1)

	clock = clock.Add(2 * time.Second)
	v = b.Load(context.Background())
	assert.Equal(t, StateLoaded, v.State)
	assert.Len(t, v.Page.Items, 2)
	svc.AssertNumberOfCalls(t, "SearchProperties", 2)
	svc.AssertNumberOfCalls(t, "GetAvailableProperties", 1)
}

func TestBrowser_ConcurrentLoadWaitsForFetch(t *testing.T) {
	svc := new(MockPropertyService)
	started := make(chan struct{})
	release := make(chan struct{})
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(pageOf(prop(1, "a", "x", 1), prop(2, "b", "x", 1)), nil).Once()

	b := NewBrowser(svc, nil)
	first := make(chan View, 1)
	go func() { first <- b.Load(context.Background()) }()
	<-started

	second := make(chan View, 1)
	go func() { second <- b.Load(context.Background()) }()
	select {
	case <-second:
		t.Fatal("second Load returned while the first fetch was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	for _, v := range []View{<-first, <-second} {
		assert.Equal(t, StateLoaded, v.State)
		assert.Len(t, v.Page.Items, 2)
	}
	svc.AssertNumberOfCalls(t, "GetAvailableProperties", 1)
}

func TestBrowser_WaitGivesUpWithRequest(t *testing.T) {
	svc := new(MockPropertyService)
	started := make(chan struct{})
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled).Once()

	b := NewBrowser(svc, nil)
	fetchCtx, cancelFetch := context.WithCancel(context.Background())
	defer cancelFetch()
	go b.Load(fetchCtx)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	v := b.Load(ctx)
	assert.Equal(t, StateLoading, v.State)
}

func TestBrowser_FilterChangeResetsPage(t *testing.T) {
	props := make([]models.Property, 10)
	for i := range props {
		props[i] = prop(int64(i+1), "Home", "Miami", 500000)
	}
	svc := new(MockPropertyService)
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).Return(pageOf(props...), nil)

	b := NewBrowser(svc, nil)
	b.Load(context.Background())
	v := b.SetPage(2)
	assert.Equal(t, 2, v.Page.Number)

	v = b.SetFilters(Filters{PriceRange: Price400kTo600k})
	assert.Equal(t, 1, v.Page.Number)
	assert.Equal(t, 2, v.Page.TotalPages)
	svc.AssertNumberOfCalls(t, "GetAvailableProperties", 1)
}

func TestBrowser_SearchUsesKeyword(t *testing.T) {
	svc := new(MockPropertyService)
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).Return(pageOf(prop(1, "a", "x", 1)), nil)
	svc.On("SearchProperties", mock.Anything, "villa", 0, 10).Return(pageOf(prop(9, "Villa", "x", 1)), nil)

	b := NewBrowser(svc, nil)
	b.Load(context.Background())
	b.SetFilters(Filters{Search: "villa"})
	v := b.Search(context.Background())

	assert.Equal(t, StateLoaded, v.State)
	require.Len(t, v.Page.Items, 1)
	assert.Equal(t, int64(9), v.Page.Items[0].ID)
}

func TestBrowser_ErrorKeepsLastGoodList(t *testing.T) {
	svc := new(MockPropertyService)
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).Return(pageOf(prop(1, "a", "x", 1)), nil).Once()
	svc.On("GetAvailableProperties", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	b := NewBrowser(svc, nil)
	b.Load(context.Background())
	v := b.Search(context.Background())

	assert.Equal(t, StateErrored, v.State)
	assert.Equal(t, "Failed to fetch properties", v.Error)
	assert.Len(t, v.Page.Items, 1)
}

func TestBrowser_LatestSearchWins(t *testing.T) {
	svc := new(MockPropertyService)
	release := make(chan struct{})
	firstStarted := make(chan struct{})

	svc.On("SearchProperties", mock.Anything, "slow", 0, 10).
		Run(func(args mock.Arguments) {
			close(firstStarted)
			ctx := args.Get(0).(context.Context)
			select {
			case <-release:
			case <-ctx.Done():
			}
		}).
		Return(pageOf(prop(1, "slow result", "x", 1)), nil)
	svc.On("SearchProperties", mock.Anything, "fast", 0, 10).
		Return(pageOf(prop(2, "fast result", "x", 1)), nil)

	b := NewBrowser(svc, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.SetFilters(Filters{Search: "slow"})
		b.Search(context.Background())
	}()
	<-firstStarted

	b.SetFilters(Filters{Search: "fast"})
	b.Search(context.Background())
	close(release)
	wg.Wait()

	b.SetFilters(Filters{})
	v := b.View()
	assert.Equal(t, StateLoaded, v.State)
	require.Len(t, v.Page.Items, 1)
	assert.Equal(t, "fast result", v.Page.Items[0].Title)
}

func TestRegistry_SweepEvictsIdle(t *testing.T) {
	r := NewRegistry(new(MockPropertyService), time.Minute, nil)
	a := r.Get("a")
	assert.Same(t, a, r.Get("a"))
	r.Get("b")
	assert.Equal(t, 2, r.Len())

	assert.Equal(t, 0, r.Sweep(time.Now()))
	assert.Equal(t, 2, r.Sweep(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, r.Len())

	r.Get("c")
	r.Drop("c")
	assert.Equal(t, 0, r.Len())
}
