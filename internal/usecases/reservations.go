package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatdagang/internal/entities"
	"chatdagang/internal/infrastructure"
)

// ErrSlotTaken is the domain-level conflict for a double booking. Surfaced to
// callers as a conflict, never a 500.
var ErrSlotTaken = errors.New("resource already reserved for that window")

type ReservationStore interface {
	HasConfirmedOverlap(ctx context.Context, businessID int64, resourceID string, start, end time.Time) (bool, error)
	Insert(ctx context.Context, r *entities.Reservation) error
}

// ReservationGuard makes the overlap check and the insert one logical unit.
// The per-resource lock closes the read-then-write window between concurrent
// requests for the same table.
type ReservationGuard struct {
	store ReservationStore
	locks *infrastructure.KeyedLocks
}

func NewReservationGuard(store ReservationStore, locks *infrastructure.KeyedLocks) *ReservationGuard {
	return &ReservationGuard{store: store, locks: locks}
}

func (g *ReservationGuard) Book(ctx context.Context, r *entities.Reservation) error {
	if !r.StartsAt.Before(r.EndsAt) {
		return fmt.Errorf("reservation window must end after it starts")
	}

	unlock := g.locks.Lock(fmt.Sprintf("res:%d:%s", r.BusinessID, r.ResourceID))
	defer unlock()

	taken, err := g.store.HasConfirmedOverlap(ctx, r.BusinessID, r.ResourceID, r.StartsAt, r.EndsAt)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}

	r.Status = entities.ReservationConfirmed
	return g.store.Insert(ctx, r)
}
