package tracker

import (
	"context"
	"sync"
	"time"
)

// Refresher refreshes every character group on a fixed interval.
type Refresher struct {
	mu       sync.RWMutex
	service  *Service
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRefresher returns a refresher. A non-positive interval disables it.
func NewRefresher(svc *Service, interval time.Duration) *Refresher {
	return &Refresher{service: svc, interval: interval}
}

func (r *Refresher) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for a running pass to finish.
func (r *Refresher) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	done := r.done
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (r *Refresher) tick(ctx context.Context) {
	logger := r.service.logger.With("job", "refresher")
	failures := r.service.RefreshAll(ctx)
	for id, err := range failures {
		logger.Warn("scheduled refresh failed", "group_id", id, "error", err)
	}
	logger.Debug("scheduled refresh finished", "failed", len(failures))
}
