package entities

import "time"

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// MessageLog is one append-only transcript record. Every inbound message gets
// exactly one, regardless of gating; every outbound unit (text, each image,
// each document, notices) gets its own.
type MessageLog struct {
	ID                int64       `json:"id"`
	BusinessID        int64       `json:"business_id"`
	Direction         Direction   `json:"direction"`
	Channel           Channel     `json:"channel"`
	CustomerChannelID string      `json:"customer_channel_id"`
	CorrelationID     string      `json:"correlation_id"`
	Kind              PayloadKind `json:"kind"`
	Body              string      `json:"body"`
	ProviderMessageID string      `json:"provider_message_id,omitempty"`
	TokensIn          int         `json:"tokens_in,omitempty"`
	TokensOut         int         `json:"tokens_out,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}
