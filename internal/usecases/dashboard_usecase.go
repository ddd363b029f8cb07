package usecases

import (
	"context"
	"time"

	"chatdagang/internal/entities"
)

type CartAdminStore interface {
	ListCarts(ctx context.Context, businessID int64) ([]entities.Cart, error)
	// CancelCart transitions an open cart to rejected and appends a status
	// history row. Safe to run concurrently with an in-flight customer turn.
	CancelCart(ctx context.Context, businessID, cartID int64, note string) error
}

type SessionAdminStore interface {
	SetSessionLock(ctx context.Context, key entities.ConversationKey, employeeID *int64, locked bool) error
}

type TranscriptStore interface {
	ListByConversation(ctx context.Context, key entities.ConversationKey, limit int) ([]entities.MessageLog, error)
}

type ReservationLister interface {
	ListByResource(ctx context.Context, businessID int64, resourceID string) ([]entities.Reservation, error)
}

// CartView is a cart with the timeout fields the dashboard renders, computed
// with the same TTL formula the pipeline uses.
type CartView struct {
	entities.Cart
	MinutesSinceUpdate  int  `json:"minutes_since_update"`
	MinutesUntilTimeout int  `json:"minutes_until_timeout"`
	Expired             bool `json:"expired"`
}

type DashboardUsecase struct {
	carts        CartAdminStore
	sessions     SessionAdminStore
	transcripts  TranscriptStore
	reservations ReservationLister
	guard        *ReservationGuard
	now          func() time.Time
}

func NewDashboardUsecase(carts CartAdminStore, sessions SessionAdminStore, transcripts TranscriptStore, reservations ReservationLister, guard *ReservationGuard) *DashboardUsecase {
	return &DashboardUsecase{
		carts:        carts,
		sessions:     sessions,
		transcripts:  transcripts,
		reservations: reservations,
		guard:        guard,
		now:          time.Now,
	}
}

func (uc *DashboardUsecase) ListCarts(ctx context.Context, businessID int64) ([]CartView, error) {
	carts, err := uc.carts.ListCarts(ctx, businessID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	views := make([]CartView, 0, len(carts))
	for _, c := range carts {
		views = append(views, CartView{
			Cart:                c,
			MinutesSinceUpdate:  c.MinutesSinceUpdate(now),
			MinutesUntilTimeout: c.MinutesUntilTimeout(now),
			Expired:             c.Expired(now),
		})
	}
	return views, nil
}

func (uc *DashboardUsecase) CancelCart(ctx context.Context, businessID, cartID int64, note string) error {
	return uc.carts.CancelCart(ctx, businessID, cartID, note)
}

// SetHandover locks or unlocks a conversation for a human agent. While
// locked, the pipeline skips the automated engine for this key.
func (uc *DashboardUsecase) SetHandover(ctx context.Context, key entities.ConversationKey, employeeID *int64, locked bool) error {
	return uc.sessions.SetSessionLock(ctx, key, employeeID, locked)
}

func (uc *DashboardUsecase) Transcript(ctx context.Context, key entities.ConversationKey, limit int) ([]entities.MessageLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.transcripts.ListByConversation(ctx, key, limit)
}

func (uc *DashboardUsecase) BookReservation(ctx context.Context, r *entities.Reservation) error {
	return uc.guard.Book(ctx, r)
}

func (uc *DashboardUsecase) ListReservations(ctx context.Context, businessID int64, resourceID string) ([]entities.Reservation, error) {
	return uc.reservations.ListByResource(ctx, businessID, resourceID)
}
