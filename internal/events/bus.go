// Package events provides the in-process publication of rating changes so the
// vote service stays decoupled from projection and cache consumers.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// RatingChanged is emitted after every recorded vote.
type RatingChanged struct {
	CategoryID      string
	ContestantID    string
	ContestantScore float64
	OpponentID      string
	OpponentScore   float64
}

// RatingChangeListener consumes RatingChanged notifications. Delivery is
// best-effort at-most-once; a listener error is logged and never fails the
// vote that produced it.
type RatingChangeListener interface {
	OnRatingChanged(ctx context.Context, event RatingChanged) error
}

// Bus fans RatingChanged events out to registered listeners in subscription
// order.
type Bus struct {
	mu        sync.RWMutex
	log       *zap.Logger
	listeners []RatingChangeListener
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{log: log.Named("events")}
}

func (b *Bus) Subscribe(listener RatingChangeListener) {
	if listener == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

func (b *Bus) PublishRatingChanged(ctx context.Context, event RatingChanged) {
	b.mu.RLock()
	listeners := make([]RatingChangeListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener.OnRatingChanged(ctx, event); err != nil {
			b.log.Warn("rating change listener failed",
				zap.Error(err),
				zap.String("category_id", event.CategoryID),
				zap.String("contestant_id", event.ContestantID),
				zap.String("opponent_id", event.OpponentID),
			)
		}
	}
}
