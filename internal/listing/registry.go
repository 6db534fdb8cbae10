package listing

import (
	"context"
	"sync"
	"time"

	"dreamhome/web/internal/services"
	"go.uber.org/zap"
)

// DefaultIdleTimeout is how long an unused Browser is kept.
const DefaultIdleTimeout = 30 * time.Minute

// Registry keeps one Browser per browser session.
type Registry struct {
	svc         services.IPropertyService
	logger      *zap.Logger
	idleTimeout time.Duration

	mu       sync.Mutex
	browsers map[string]*Browser
}

// NewRegistry creates a Registry. Call Run to start evicting idle browsers.
func NewRegistry(svc services.IPropertyService, idleTimeout time.Duration, logger *zap.Logger) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{svc: svc, logger: logger, idleTimeout: idleTimeout, browsers: make(map[string]*Browser)}
}

// Get returns the Browser for key, creating it on first use.
func (r *Registry) Get(key string) *Browser {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.browsers[key]
	if !ok {
		b = NewBrowser(r.svc, r.logger)
		r.browsers[key] = b
	}
	return b
}

// Drop forgets the Browser for key, e.g. on logout.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	delete(r.browsers, key)
	r.mu.Unlock()
}

// Len returns the number of tracked browsers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.browsers)
}

// Sweep evicts browsers idle since before now-idleTimeout.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for key, b := range r.browsers {
		if now.Sub(b.idleSince()) > r.idleTimeout {
			delete(r.browsers, key)
			evicted++
		}
	}
	return evicted
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				r.logger.Debug("evicted idle listing browsers", zap.Int("count", n))
			}
		}
	}
}
