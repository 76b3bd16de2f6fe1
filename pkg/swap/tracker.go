package swap

import (
	"context"
	"errors"
	"time"
)

const DefaultTrackInterval = 30 * time.Second

// Tracker polls the venue until a swap reaches a final state
type Tracker struct {
	service  *Service
	interval time.Duration
}

// NewTracker creates a tracker polling every interval
func NewTracker(service *Service, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultTrackInterval
	}
	return &Tracker{service: service, interval: interval}
}

// Track refreshes the swap until it completes or fails, calling onUpdate
// after every poll. Polling errors are logged and retried.
func (t *Tracker) Track(ctx context.Context, id string, onUpdate func(*SwapProcess, *SwapStatus)) (*SwapProcess, error) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		p, status, err := t.service.Refresh(ctx, id)
		if errors.Is(err, ErrProcessNotFound) {
			return nil, err
		}
		if err != nil {
			log.Warn().Err(err).Str("id", id).Msg("Status check failed")
		} else {
			if onUpdate != nil {
				onUpdate(p, status)
			}
			if p.State.IsFinal() {
				return p, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
