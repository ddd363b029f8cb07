package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chatdagang/internal/dispatch"
	"chatdagang/internal/entities"
	"chatdagang/internal/infrastructure"
	"chatdagang/internal/interfaces"
	"chatdagang/internal/usecases"
)

// The webhook tests run a real pipeline wired with in-memory stand-ins and
// capture what the conversation engine receives, which proves the adapter
// normalized the provider payload correctly.

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, platform entities.Channel, businessChannelID string) (entities.TenantContext, error) {
	return entities.TenantContext{
		Business: entities.Business{ID: 1, ContractStatus: entities.ContractApproved, ChatbotEnabled: true},
		Integration: entities.Integration{
			Platform: platform, Provider: platform, ExternalID: businessChannelID, Enabled: true,
		},
		Credentials: &entities.Credentials{Token: "t"},
	}, nil
}

type stubStore struct{}

func (stubStore) GetOrCreateCart(ctx context.Context, key entities.ConversationKey) (*entities.Cart, error) {
	return &entities.Cart{Key: key, Status: entities.CartStatusOpen}, nil
}
func (stubStore) SaveCart(ctx context.Context, cart *entities.Cart) error { return nil }
func (stubStore) CheckoutCart(ctx context.Context, cart *entities.Cart, note string) error {
	return nil
}
func (stubStore) GetSession(ctx context.Context, key entities.ConversationKey) (*entities.Session, error) {
	return nil, nil
}

type stubAudit struct{}

func (stubAudit) Insert(ctx context.Context, rec *entities.MessageLog) error { return nil }

type stubDispatcher struct{}

func (stubDispatcher) Send(ctx context.Context, tc entities.TenantContext, req entities.OutboundRequest) (dispatch.DeliveryResult, error) {
	return dispatch.DeliveryResult{ProviderMessageID: "out-1"}, nil
}

type capturingEngine struct {
	got chan entities.InboundMessage
}

func (e *capturingEngine) HandleTurn(ctx context.Context, tc entities.TenantContext, key entities.ConversationKey, msg entities.InboundMessage, cart entities.Cart) (interfaces.TurnResult, error) {
	e.got <- msg
	return interfaces.TurnResult{ReplyText: "ok"}, nil
}

func newWebhookRouter(t *testing.T) (*gin.Engine, *capturingEngine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := &capturingEngine{got: make(chan entities.InboundMessage, 8)}
	pipeline := usecases.NewPipeline(
		stubResolver{},
		usecases.NewGateChain(),
		usecases.NewNoticeThrottle(),
		stubStore{},
		usecases.NewAuditLogger(stubAudit{}, nil, zap.NewNop()),
		engine,
		stubDispatcher{},
		infrastructure.NewKeyedLocks(),
		nil,
		zap.NewNop(),
	)

	r := gin.New()
	webhooks := NewWebhookHandler(pipeline, "meta-verify", "fb-verify", zap.NewNop())
	dashboard := NewDashboardHandler(nil, nil)
	SetupRoutes(r, webhooks, dashboard, NewMiddleware("test-secret"))
	return r, engine
}

func awaitMessage(t *testing.T, engine *capturingEngine) entities.InboundMessage {
	t.Helper()
	select {
	case msg := <-engine.got:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline never reached the engine")
		return entities.InboundMessage{}
	}
}

func TestMetaVerifyChallenge(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/meta?hub.mode=subscribe&hub.verify_token=meta-verify&hub.challenge=12345", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())
}

func TestMetaVerifyRejectsBadToken(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/meta?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetaWebhookNormalizesTextMessage(t *testing.T) {
	r, engine := newWebhookRouter(t)

	payload := `{
		"entry": [{
			"changes": [{
				"value": {
					"metadata": {"phone_number_id": "628111"},
					"messages": [
						{"from": "628222", "id": "wamid.A", "type": "text", "text": {"body": "halo"}},
						{"from": "628222", "id": "wamid.B", "type": "audio"}
					]
				}
			}]
		}]
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/meta", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	msg := awaitMessage(t, engine)
	assert.Equal(t, entities.ChannelWhatsAppMeta, msg.Channel)
	assert.Equal(t, "628222", msg.SenderChannelID)
	assert.Equal(t, "628111", msg.BusinessChannelID)
	assert.Equal(t, "halo", msg.Body)
	assert.Equal(t, "wamid.A", msg.ProviderMessageID)
	assert.False(t, msg.ReceivedAt.IsZero())

	// The audio message carried no text and must not reach the engine.
	select {
	case extra := <-engine.got:
		t.Fatalf("unexpected second message: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTwilioWebhookStripsAddressPrefix(t *testing.T) {
	r, engine := newWebhookRouter(t)

	form := url.Values{}
	form.Set("From", "whatsapp:+628222")
	form.Set("To", "whatsapp:+628111")
	form.Set("Body", "halo dari twilio")
	form.Set("MessageSid", "SM123")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	msg := awaitMessage(t, engine)
	assert.Equal(t, entities.ChannelWhatsAppTwilio, msg.Channel)
	assert.Equal(t, "+628222", msg.SenderChannelID)
	assert.Equal(t, "+628111", msg.BusinessChannelID)
	assert.Equal(t, "halo dari twilio", msg.Body)
	assert.Equal(t, "SM123", msg.ProviderMessageID)
}

func TestTelegramWebhookUsesPathBotID(t *testing.T) {
	r, engine := newWebhookRouter(t)

	payload := `{
		"update_id": 9,
		"message": {
			"message_id": 44,
			"chat": {"id": 777000111},
			"text": "menu"
		}
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram/botA", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	msg := awaitMessage(t, engine)
	assert.Equal(t, entities.ChannelTelegram, msg.Channel)
	assert.Equal(t, "777000111", msg.SenderChannelID)
	assert.Equal(t, "botA", msg.BusinessChannelID)
	assert.Equal(t, "menu", msg.Body)
	assert.Equal(t, "44", msg.ProviderMessageID)
}

func TestTelegramWebhookIgnoresNonTextUpdates(t *testing.T) {
	r, engine := newWebhookRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram/botA", strings.NewReader(`{"update_id": 9}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case msg := <-engine.got:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFacebookWebhookNormalizesMessagingEvent(t *testing.T) {
	r, engine := newWebhookRouter(t)

	payload := `{
		"entry": [{
			"messaging": [{
				"sender": {"id": "psid-9"},
				"recipient": {"id": "page-1"},
				"message": {"mid": "mid.55", "text": "halo page"}
			}]
		}]
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/facebook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	msg := awaitMessage(t, engine)
	assert.Equal(t, entities.ChannelFacebook, msg.Channel)
	assert.Equal(t, "psid-9", msg.SenderChannelID)
	assert.Equal(t, "page-1", msg.BusinessChannelID)
	assert.Equal(t, "halo page", msg.Body)
	assert.Equal(t, "mid.55", msg.ProviderMessageID)
}

func TestDashboardRoutesRequireAuth(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/carts", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
