package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"cart-server/repository"
)

// Abandonment policy. Carts idle past AbandonAfter are flagged; carts
// flagged and idle past RemoveAfter are deleted.
const (
	AbandonAfter = 3 * time.Hour
	RemoveAfter  = 7 * 24 * time.Hour
)

// AbandonmentSweeper periodically marks idle carts as abandoned and removes
// long-abandoned ones. Each run is idempotent: both passes re-select by
// predicate, so a partially completed run is safe to resume on the next
// tick.
type AbandonmentSweeper struct {
	carts    repository.CartRepository
	interval time.Duration
	now      func() time.Time
}

func NewAbandonmentSweeper(carts repository.CartRepository, interval time.Duration) *AbandonmentSweeper {
	return &AbandonmentSweeper{
		carts:    carts,
		interval: interval,
		now:      time.Now,
	}
}

func (s *AbandonmentSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.Printf("cart sweep failed: %v", err)
			}
		}
	}
}

// RunOnce executes the two sweep passes in sequence: a single bulk update
// flags idle carts, then removable carts are deleted one by one so a failed
// row doesn't abort the rest of the pass.
func (s *AbandonmentSweeper) RunOnce(ctx context.Context) error {
	now := s.now()

	marked, err := s.carts.MarkAbandoned(ctx, now.Add(-AbandonAfter))
	if err != nil {
		return fmt.Errorf("mark pass failed: %w", err)
	}
	if marked > 0 {
		log.Printf("marked %d carts as abandoned", marked)
	}

	ids, err := s.carts.ListRemovableAbandoned(ctx, now.Add(-RemoveAfter))
	if err != nil {
		return fmt.Errorf("removal pass failed: %w", err)
	}
	for _, id := range ids {
		if err := s.carts.DeleteCart(ctx, id); err != nil {
			log.Printf("failed to remove abandoned cart %s: %v", id, err)
		}
	}

	return nil
}
