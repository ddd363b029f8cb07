package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdagang/internal/entities"
)

type memCartAdmin struct {
	carts []entities.Cart
}

func (s *memCartAdmin) ListCarts(ctx context.Context, businessID int64) ([]entities.Cart, error) {
	return s.carts, nil
}

func (s *memCartAdmin) CancelCart(ctx context.Context, businessID, cartID int64, note string) error {
	for i := range s.carts {
		if s.carts[i].ID == cartID {
			if s.carts[i].Status != entities.CartStatusOpen {
				return ErrCartClosed
			}
			s.carts[i].Status = entities.CartStatusRejected
			return nil
		}
	}
	return ErrCartClosed
}

type memTranscripts struct {
	gotLimit int
}

func (s *memTranscripts) ListByConversation(ctx context.Context, key entities.ConversationKey, limit int) ([]entities.MessageLog, error) {
	s.gotLimit = limit
	return nil, nil
}

func TestDashboardCartViewsUseSharedTimeoutFormula(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memCartAdmin{carts: []entities.Cart{
		{ID: 1, Status: entities.CartStatusOpen, UpdatedAt: base.Add(-30 * time.Minute)},
		{ID: 2, Status: entities.CartStatusOpen, UpdatedAt: base.Add(-121 * time.Minute)},
	}}

	uc := NewDashboardUsecase(store, nil, nil, nil, nil)
	uc.now = func() time.Time { return base }

	views, err := uc.ListCarts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, 30, views[0].MinutesSinceUpdate)
	assert.Equal(t, 90, views[0].MinutesUntilTimeout)
	assert.False(t, views[0].Expired)

	assert.Equal(t, -1, views[1].MinutesUntilTimeout)
	assert.True(t, views[1].Expired)
}

func TestDashboardCancelCartTwiceConflicts(t *testing.T) {
	store := &memCartAdmin{carts: []entities.Cart{
		{ID: 1, Status: entities.CartStatusOpen},
	}}
	uc := NewDashboardUsecase(store, nil, nil, nil, nil)

	require.NoError(t, uc.CancelCart(context.Background(), 1, 1, "pelanggan batal"))
	assert.ErrorIs(t, uc.CancelCart(context.Background(), 1, 1, "lagi"), ErrCartClosed)
}

func TestDashboardTranscriptClampsLimit(t *testing.T) {
	transcripts := &memTranscripts{}
	uc := NewDashboardUsecase(nil, nil, transcripts, nil, nil)
	key := entities.ConversationKey{BusinessID: 1, CustomerChannelID: "628222"}

	_, err := uc.Transcript(context.Background(), key, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, transcripts.gotLimit)

	_, err = uc.Transcript(context.Background(), key, 9999)
	require.NoError(t, err)
	assert.Equal(t, 100, transcripts.gotLimit)

	_, err = uc.Transcript(context.Background(), key, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, transcripts.gotLimit)
}
