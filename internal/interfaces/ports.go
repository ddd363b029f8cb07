package interfaces

import (
	"context"
	"time"

	"chatdagang/internal/dispatch"
	"chatdagang/internal/entities"
)

type OrderRef struct {
	OrderID string `json:"order_id"`
}

// TurnResult is what the conversation engine produced for one customer turn:
// the reply, any media, and the cart/order side effects to commit.
type TurnResult struct {
	ReplyText    string
	Media        []entities.MediaRef
	UpdatedItems []entities.LineItem // nil means the item list is unchanged
	Delivery     *entities.Delivery
	ScheduledAt  *time.Time
	OrderCreated *OrderRef
	TokensIn     int
	TokensOut    int
}

// ConversationEngine turns an inbound message plus cart state into a reply.
// The LLM-backed engine lives outside this repo; a rule-based fallback ships
// in usecases.
type ConversationEngine interface {
	HandleTurn(ctx context.Context, tc entities.TenantContext, key entities.ConversationKey, msg entities.InboundMessage, cart entities.Cart) (TurnResult, error)
}

// MessageDispatcher delivers one outbound unit through the tenant's provider.
type MessageDispatcher interface {
	Send(ctx context.Context, tc entities.TenantContext, req entities.OutboundRequest) (dispatch.DeliveryResult, error)
}
