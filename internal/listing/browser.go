package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
	"go.uber.org/zap"
)

// State is the fetch state of a Browser.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateErrored State = "errored"
)

// Server page fetched on first load and on every explicit search.
const (
	fetchPage = 0
	fetchSize = 10
)

// MaxAge is how long a loaded server page is reused before Load fetches it again.
const MaxAge = 5 * time.Minute

// View is a consistent snapshot of a Browser for rendering.
type View struct {
	State   State
	Filters Filters
	Page    Page
	Error   string
}

// Browser is the per-session state of the properties page. The fetched server
// page is replaced by Load when it is missing, failed or older than MaxAge, and
// by every Search; filters and paging work on the fetched list.
type Browser struct {
	svc    services.IPropertyService
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	state      State
	properties []models.Property
	keyword    string // keyword of the last fetch, "" for the available listing
	loadedAt   time.Time
	filters    Filters
	page       int
	errMsg     string
	seq        uint64
	cancel     context.CancelFunc
	done       chan struct{} // closed when the in-flight fetch finishes
	lastUsed   time.Time
}

type inflight struct {
	seq     uint64
	keyword string
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewBrowser creates an idle Browser.
func NewBrowser(svc services.IPropertyService, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{svc: svc, logger: logger, now: time.Now, state: StateIdle, page: 1, lastUsed: time.Now()}
}

// Load makes sure a usable server page is present. It fetches on first use,
// after a failed fetch and once the loaded page is older than MaxAge, repeating
// the last query. A fetch already in flight is waited for instead.
func (b *Browser) Load(ctx context.Context) View {
	b.mu.Lock()
	switch {
	case b.state == StateLoading:
		b.lastUsed = b.now()
		b.mu.Unlock()
		return b.wait(ctx)
	case b.state == StateLoaded && b.now().Sub(b.loadedAt) < MaxAge:
		b.lastUsed = b.now()
		b.mu.Unlock()
		return b.View()
	}
	f := b.begin(ctx, b.keyword)
	b.mu.Unlock()
	return b.run(ctx, f)
}

// Search re-fetches the server page: by keyword when the search filter is set,
// otherwise the default available listing.
func (b *Browser) Search(ctx context.Context) View {
	b.mu.Lock()
	f := b.begin(ctx, b.filters.Search)
	b.mu.Unlock()
	return b.run(ctx, f)
}

// SetFilters replaces the filters and resets the display page to 1.
func (b *Browser) SetFilters(f Filters) View {
	b.mu.Lock()
	b.filters = f
	b.page = 1
	b.lastUsed = b.now()
	b.mu.Unlock()
	return b.View()
}

// SetPage changes the display page only.
func (b *Browser) SetPage(n int) View {
	b.mu.Lock()
	b.page = n
	b.lastUsed = b.now()
	b.mu.Unlock()
	return b.View()
}

// View returns the current snapshot with the display page clamped.
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	page := Paginate(Apply(b.properties, b.filters), b.page, PageSize)
	b.page = page.Number
	return View{State: b.state, Filters: b.filters, Page: page, Error: b.errMsg}
}

// begin starts a fetch for keyword, cancelling any fetch still in flight.
// b.mu must be held.
func (b *Browser) begin(ctx context.Context, keyword string) *inflight {
	if b.cancel != nil {
		b.cancel()
	}
	b.seq++
	fetchCtx, cancel := context.WithCancel(ctx)
	f := &inflight{seq: b.seq, keyword: keyword, ctx: fetchCtx, cancel: cancel, done: make(chan struct{})}
	b.cancel = cancel
	b.done = f.done
	b.state = StateLoading
	b.lastUsed = b.now()
	return f
}

// run performs f. Only the most recently started fetch may update state; a
// superseded one waits for its successor instead.
func (b *Browser) run(ctx context.Context, f *inflight) View {
	props, err := b.query(f.ctx, f.keyword)
	f.cancel()

	b.mu.Lock()
	if f.seq != b.seq {
		b.mu.Unlock()
		close(f.done)
		b.logger.Debug("discarding superseded listing fetch", zap.Uint64("seq", f.seq))
		return b.wait(ctx)
	}
	b.cancel = nil
	b.done = nil
	if err != nil {
		b.state = StateErrored
		b.errMsg = client.Normalize(err, "Failed to fetch properties").Message
		if errors.Is(err, context.Canceled) {
			b.errMsg = "Request cancelled"
		}
		b.logger.Warn("listing fetch failed", zap.String("keyword", f.keyword), zap.Error(err))
	} else {
		b.state = StateLoaded
		b.errMsg = ""
		b.properties = props
		b.keyword = f.keyword
		b.loadedAt = b.now()
		b.page = 1
	}
	b.mu.Unlock()
	close(f.done)
	return b.View()
}

func (b *Browser) query(ctx context.Context, keyword string) ([]models.Property, error) {
	var (
		page *models.Page[models.Property]
		err  error
	)
	if keyword != "" {
		page, err = b.svc.SearchProperties(ctx, keyword, fetchPage, fetchSize)
	} else {
		page, err = b.svc.GetAvailableProperties(ctx, services.PageRequest{Page: fetchPage, Size: fetchSize})
	}
	if err != nil {
		return nil, err
	}
	return page.Content, nil
}

// wait blocks until no fetch is in flight or ctx ends.
func (b *Browser) wait(ctx context.Context) View {
	for {
		b.mu.Lock()
		done := b.done
		b.mu.Unlock()
		if done == nil {
			return b.View()
		}
		select {
		case <-done:
		case <-ctx.Done():
			return b.View()
		}
	}
}

func (b *Browser) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUsed
}
