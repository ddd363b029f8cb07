package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatdagang/internal/entities"
	"chatdagang/internal/infrastructure"
	"chatdagang/internal/interfaces"
)

// ErrCartClosed is returned by SaveCart when the row left "cart" status under
// us (operator cancel or expiry won the race).
var ErrCartClosed = errors.New("cart is no longer open")

// ConversationStore holds cart and handover state per conversation key. All
// mutation calls happen inside the pipeline's per-key critical section.
type ConversationStore interface {
	// GetOrCreateCart applies read-time TTL: an open cart past CartTTL is
	// transitioned to expired and a fresh one returned.
	GetOrCreateCart(ctx context.Context, key entities.ConversationKey) (*entities.Cart, error)
	// SaveCart commits only while the row is still in "cart" status.
	SaveCart(ctx context.Context, cart *entities.Cart) error
	CheckoutCart(ctx context.Context, cart *entities.Cart, note string) error
	GetSession(ctx context.Context, key entities.ConversationKey) (*entities.Session, error)
}

type TenantResolver interface {
	Resolve(ctx context.Context, platform entities.Channel, businessChannelID string) (entities.TenantContext, error)
}

type GateEvaluator interface {
	Evaluate(tc *entities.TenantContext) GateDecision
}

// SettingsReader exposes per-business text overrides (welcome message,
// unavailable notice). Missing keys return "".
type SettingsReader interface {
	GetSetting(ctx context.Context, businessID int64, key string) (string, error)
}

const defaultUnavailableNotice = "Maaf, balasan otomatis sedang tidak tersedia. " +
	"Pesan Anda sudah kami terima dan akan dibalas oleh tim kami."

// Pipeline runs one inbound webhook delivery end to end: resolve tenant, log
// the message, enforce gates, run the conversation engine under the
// conversation lock, then dispatch the reply with the lock released.
type Pipeline struct {
	resolver   TenantResolver
	gates      GateEvaluator
	throttle   *NoticeThrottle
	store      ConversationStore
	audit      *AuditLogger
	engine     interfaces.ConversationEngine
	dispatcher interfaces.MessageDispatcher
	locks      *infrastructure.KeyedLocks
	settings   SettingsReader // nil allowed
	log        *zap.Logger
	now        func() time.Time
}

func NewPipeline(
	resolver TenantResolver,
	gates GateEvaluator,
	throttle *NoticeThrottle,
	store ConversationStore,
	audit *AuditLogger,
	engine interfaces.ConversationEngine,
	dispatcher interfaces.MessageDispatcher,
	locks *infrastructure.KeyedLocks,
	settings SettingsReader,
	log *zap.Logger,
) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		gates:      gates,
		throttle:   throttle,
		store:      store,
		audit:      audit,
		engine:     engine,
		dispatcher: dispatcher,
		locks:      locks,
		settings:   settings,
		log:        log.Named("pipeline"),
		now:        time.Now,
	}
}

// Process absorbs every internal error: providers retry undelivered webhooks
// aggressively, so nothing here may bubble up as a handler failure.
func (p *Pipeline) Process(ctx context.Context, msg entities.InboundMessage) {
	tc, err := p.resolver.Resolve(ctx, msg.Channel, msg.BusinessChannelID)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			p.log.Warn("dropping message for unknown channel id",
				zap.String("channel", string(msg.Channel)),
				zap.String("business_channel_id", msg.BusinessChannelID))
		} else {
			p.log.Error("tenant resolution failed", zap.Error(err))
		}
		return
	}

	correlationID := uuid.NewString()
	key := entities.ConversationKey{
		BusinessID:        tc.Business.ID,
		CustomerChannelID: msg.SenderChannelID,
	}

	// The inbound message is logged no matter what gates decide: a blocked
	// bot must never make customer messages invisible to human agents.
	p.audit.Record(ctx, entities.MessageLog{
		BusinessID:        tc.Business.ID,
		Direction:         entities.DirectionIn,
		Channel:           msg.Channel,
		CustomerChannelID: msg.SenderChannelID,
		CorrelationID:     correlationID,
		Kind:              entities.PayloadText,
		Body:              msg.Body,
		ProviderMessageID: msg.ProviderMessageID,
	})

	decision := p.gates.Evaluate(&tc)
	if !decision.Allowed {
		p.log.Info("automation gated",
			zap.Int64("business_id", tc.Business.ID),
			zap.String("reason", string(decision.Reason)))
		p.notifyUnavailable(ctx, tc, key, msg, correlationID)
		return
	}
	p.throttle.Clear(key)

	result, ok := p.runTurn(ctx, tc, key, msg)
	if !ok {
		return
	}

	p.deliver(ctx, tc, key, msg, result, correlationID)
}

// runTurn holds the conversation lock from the handover check through the
// cart commit, and releases it before any network round trip.
func (p *Pipeline) runTurn(ctx context.Context, tc entities.TenantContext, key entities.ConversationKey, msg entities.InboundMessage) (interfaces.TurnResult, bool) {
	unlock := p.locks.Lock(key.String())
	defer unlock()

	// Checked here, not cached from an earlier turn: an agent may have taken
	// over between webhook deliveries.
	session, err := p.store.GetSession(ctx, key)
	if err != nil {
		p.log.Error("session lookup failed", zap.Error(err))
		return interfaces.TurnResult{}, false
	}
	if session != nil && session.Locked {
		p.log.Info("session locked by agent, skipping automated reply",
			zap.Int64("business_id", key.BusinessID))
		return interfaces.TurnResult{}, false
	}

	cart, err := p.store.GetOrCreateCart(ctx, key)
	if err != nil {
		p.log.Error("cart load failed", zap.Error(err))
		return interfaces.TurnResult{}, false
	}

	result, err := p.engine.HandleTurn(ctx, tc, key, msg, *cart)
	if err != nil {
		p.log.Error("conversation engine failed", zap.Error(err))
		return interfaces.TurnResult{}, false
	}

	if err := p.commitCart(ctx, cart, result); err != nil {
		if errors.Is(err, ErrCartClosed) {
			// Operator cancel or expiry won the race; the reply still goes
			// out, the mutation does not.
			p.log.Warn("cart closed mid-turn, mutation skipped",
				zap.Int64("cart_id", cart.ID))
		} else {
			p.log.Error("cart commit failed", zap.Error(err))
		}
	}

	return result, true
}

func (p *Pipeline) commitCart(ctx context.Context, cart *entities.Cart, result interfaces.TurnResult) error {
	mutated := false
	if result.UpdatedItems != nil {
		cart.Items = result.UpdatedItems
		mutated = true
	}
	if result.Delivery != nil {
		cart.Delivery = result.Delivery
		mutated = true
	}
	if result.ScheduledAt != nil {
		cart.ScheduledAt = result.ScheduledAt
		mutated = true
	}

	if result.OrderCreated != nil {
		cart.UpdatedAt = p.now()
		return p.store.CheckoutCart(ctx, cart, result.OrderCreated.OrderID)
	}
	if !mutated {
		return nil
	}
	cart.UpdatedAt = p.now()
	return p.store.SaveCart(ctx, cart)
}

// deliver sends media first, each item independently best-effort, then the
// text. Text is suppressed when media went out, unless it carries
// transactional content (an order confirmation is never dropped).
func (p *Pipeline) deliver(ctx context.Context, tc entities.TenantContext, key entities.ConversationKey, msg entities.InboundMessage, result interfaces.TurnResult, correlationID string) {
	sentMedia := false
	for _, m := range result.Media {
		kind := entities.PayloadImage
		if m.Kind == "document" {
			kind = entities.PayloadDocument
		}
		req := entities.OutboundRequest{
			Channel:       tc.Integration.Provider,
			To:            msg.SenderChannelID,
			Kind:          kind,
			MediaURL:      m.URL,
			Caption:       m.Caption,
			CorrelationID: correlationID,
		}
		res, err := p.dispatcher.Send(ctx, tc, req)
		if err != nil {
			// One failed media item never aborts the rest of the batch.
			p.log.Warn("media send failed",
				zap.String("url", m.URL),
				zap.String("correlation_id", correlationID),
				zap.Error(err))
			continue
		}
		sentMedia = true
		p.audit.Record(ctx, entities.MessageLog{
			BusinessID:        key.BusinessID,
			Direction:         entities.DirectionOut,
			Channel:           tc.Integration.Provider,
			CustomerChannelID: key.CustomerChannelID,
			CorrelationID:     correlationID,
			Kind:              kind,
			Body:              m.URL,
			ProviderMessageID: res.ProviderMessageID,
		})
	}

	text := result.ReplyText
	transactional := result.OrderCreated != nil
	if text == "" || (sentMedia && !transactional) {
		return
	}

	res, err := p.dispatcher.Send(ctx, tc, entities.OutboundRequest{
		Channel:       tc.Integration.Provider,
		To:            msg.SenderChannelID,
		Kind:          entities.PayloadText,
		Text:          text,
		CorrelationID: correlationID,
	})
	if err != nil {
		// Retries are already exhausted inside dispatch; the customer sees
		// nothing, operators follow up from this log line.
		p.log.Error("reply send failed",
			zap.String("correlation_id", correlationID),
			zap.Error(err))
		return
	}

	p.audit.Record(ctx, entities.MessageLog{
		BusinessID:        key.BusinessID,
		Direction:         entities.DirectionOut,
		Channel:           tc.Integration.Provider,
		CustomerChannelID: key.CustomerChannelID,
		CorrelationID:     correlationID,
		Kind:              entities.PayloadText,
		Body:              text,
		ProviderMessageID: res.ProviderMessageID,
		TokensIn:          result.TokensIn,
		TokensOut:         result.TokensOut,
	})
}

func (p *Pipeline) notifyUnavailable(ctx context.Context, tc entities.TenantContext, key entities.ConversationKey, msg entities.InboundMessage, correlationID string) {
	if !p.throttle.ShouldNotify(key) {
		return
	}

	text := defaultUnavailableNotice
	if p.settings != nil {
		if custom, err := p.settings.GetSetting(ctx, tc.Business.ID, "unavailable_message"); err == nil && custom != "" {
			text = custom
		}
	}

	res, err := p.dispatcher.Send(ctx, tc, entities.OutboundRequest{
		Channel:       tc.Integration.Provider,
		To:            msg.SenderChannelID,
		Kind:          entities.PayloadNotice,
		Text:          text,
		CorrelationID: correlationID,
	})
	if err != nil {
		// Not marked: the next blocked turn tries the notice again.
		p.log.Warn("unavailable notice send failed", zap.Error(err))
		return
	}
	p.throttle.MarkNotified(key)

	p.audit.Record(ctx, entities.MessageLog{
		BusinessID:        key.BusinessID,
		Direction:         entities.DirectionOut,
		Channel:           tc.Integration.Provider,
		CustomerChannelID: key.CustomerChannelID,
		CorrelationID:     correlationID,
		Kind:              entities.PayloadNotice,
		Body:              text,
		ProviderMessageID: res.ProviderMessageID,
	})
}
