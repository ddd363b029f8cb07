package entities

import (
	"strconv"
	"time"
)

// Channel identifies the wire platform a message arrived on or leaves through.
type Channel string

const (
	ChannelWhatsAppMeta   Channel = "whatsapp_meta"
	ChannelWhatsAppTwilio Channel = "whatsapp_twilio"
	ChannelTelegram       Channel = "telegram"
	ChannelFacebook       Channel = "facebook"
)

// InboundMessage is the channel-neutral form of one wire event. Adapters build
// it once from the provider payload; the pipeline consumes it once.
type InboundMessage struct {
	Channel           Channel   `json:"channel"`
	SenderChannelID   string    `json:"sender_channel_id"`
	BusinessChannelID string    `json:"business_channel_id"` // receiving number / page / bot id
	Body              string    `json:"body"`
	ProviderMessageID string    `json:"provider_message_id"`
	ReceivedAt        time.Time `json:"received_at"`
}

// ConversationKey is the stable identity a cart/session lives under.
type ConversationKey struct {
	BusinessID        int64  `json:"business_id"`
	CustomerChannelID string `json:"customer_channel_id"`
}

func (k ConversationKey) String() string {
	return "biz:" + strconv.FormatInt(k.BusinessID, 10) + ":" + k.CustomerChannelID
}

// PayloadKind tells a provider sender which capability to use.
type PayloadKind string

const (
	PayloadText     PayloadKind = "text"
	PayloadImage    PayloadKind = "image"
	PayloadDocument PayloadKind = "document"
	PayloadNotice   PayloadKind = "notice" // service-unavailable text
)

// MediaRef points at one media item produced by the conversation engine.
type MediaRef struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	Kind    string `json:"kind,omitempty"` // "image" (default) or "document"
}

// OutboundRequest is one outbound unit handed to the dispatch layer.
// CorrelationID ties the send back to the inbound message that triggered it.
type OutboundRequest struct {
	Channel       Channel     `json:"channel"`
	To            string      `json:"to"`
	Kind          PayloadKind `json:"kind"`
	Text          string      `json:"text,omitempty"`
	MediaURL      string      `json:"media_url,omitempty"`
	Caption       string      `json:"caption,omitempty"`
	CorrelationID string      `json:"correlation_id"`
}
