package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chatdagang/internal/entities"
)

// Dispatcher selects the provider sender from the tenant's configuration (not
// from the inbound channel alone) and sends through the shared retry wrapper.
type Dispatcher struct {
	httpc    *http.Client
	log      *zap.Logger
	telegram *TelegramPool

	// Base URLs are overridable for tests.
	MetaBaseURL     string
	TwilioBaseURL   string
	FacebookBaseURL string
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	httpc := &http.Client{Timeout: 15 * time.Second}
	return &Dispatcher{
		httpc:    httpc,
		log:      log.Named("dispatch"),
		telegram: NewTelegramPool(httpc),
	}
}

func (d *Dispatcher) Send(ctx context.Context, tc entities.TenantContext, req entities.OutboundRequest) (DeliveryResult, error) {
	if tc.Credentials == nil {
		return DeliveryResult{}, ErrNoCredentials
	}

	sender, err := d.senderFor(tc.Integration.Provider, *tc.Credentials)
	if err != nil {
		return DeliveryResult{}, err
	}

	rs := NewRetryingSender(sender, d.log.With(
		zap.String("provider", string(tc.Integration.Provider)),
		zap.String("correlation_id", req.CorrelationID)))

	switch req.Kind {
	case entities.PayloadImage:
		return rs.SendImage(ctx, req.To, req.MediaURL, req.Caption)
	case entities.PayloadDocument:
		return rs.SendDocument(ctx, req.To, req.MediaURL, req.Caption)
	default:
		return rs.SendText(ctx, req.To, req.Text)
	}
}

func (d *Dispatcher) senderFor(provider entities.Channel, creds entities.Credentials) (ProviderSender, error) {
	switch provider {
	case entities.ChannelWhatsAppMeta:
		return NewMetaSender(d.httpc, d.MetaBaseURL, creds.AccountID, creds.Token), nil
	case entities.ChannelWhatsAppTwilio:
		return NewTwilioSender(d.httpc, d.TwilioBaseURL, creds.AccountID, creds.Token, creds.From), nil
	case entities.ChannelTelegram:
		return d.telegram.SenderFor(creds.Token)
	case entities.ChannelFacebook:
		return NewFacebookSender(d.httpc, d.FacebookBaseURL, creds.Token), nil
	default:
		return nil, fmt.Errorf("no sender configured for provider %q", provider)
	}
}
