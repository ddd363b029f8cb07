package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatdagang/internal/entities"
	"chatdagang/internal/usecases"
)

// WebhookHandler normalizes provider callbacks into inbound messages and
// hands them to the pipeline. Providers retry on non-200, so every parsed
// request is acknowledged immediately and processed in the background.
type WebhookHandler struct {
	pipeline        *usecases.Pipeline
	metaVerifyToken string
	fbVerifyToken   string
	log             *zap.Logger
}

func NewWebhookHandler(pipeline *usecases.Pipeline, metaVerifyToken, fbVerifyToken string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		pipeline:        pipeline,
		metaVerifyToken: metaVerifyToken,
		fbVerifyToken:   fbVerifyToken,
		log:             log.Named("webhook"),
	}
}

func (h *WebhookHandler) dispatch(msg entities.InboundMessage) {
	if msg.Body == "" || msg.SenderChannelID == "" {
		return
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}
	go h.pipeline.Process(context.Background(), msg)
}

// Meta Cloud API webhook payload, trimmed to the fields we read.
type metaWebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Type      string `json:"type"`
					Timestamp string `json:"timestamp"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// VerifyMeta answers the hub challenge Meta sends when a webhook is registered.
func (h *WebhookHandler) VerifyMeta(c *gin.Context) {
	h.verifyChallenge(c, h.metaVerifyToken)
}

func (h *WebhookHandler) VerifyFacebook(c *gin.Context) {
	h.verifyChallenge(c, h.fbVerifyToken)
}

func (h *WebhookHandler) verifyChallenge(c *gin.Context, token string) {
	if c.Query("hub.mode") == "subscribe" && c.Query("hub.verify_token") == token {
		c.String(http.StatusOK, c.Query("hub.challenge"))
		return
	}
	c.String(http.StatusForbidden, "verification failed")
}

func (h *WebhookHandler) HandleMeta(c *gin.Context) {
	var payload metaWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			phoneID := change.Value.Metadata.PhoneNumberID
			for _, m := range change.Value.Messages {
				if m.Type != "text" {
					continue
				}
				h.dispatch(entities.InboundMessage{
					Channel:           entities.ChannelWhatsAppMeta,
					SenderChannelID:   m.From,
					BusinessChannelID: phoneID,
					Body:              m.Text.Body,
					ProviderMessageID: m.ID,
				})
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// HandleTwilio consumes Twilio's form-encoded status callback. Addresses
// arrive as "whatsapp:+628xx"; the prefix is stripped before matching.
func (h *WebhookHandler) HandleTwilio(c *gin.Context) {
	from := strings.TrimPrefix(c.PostForm("From"), "whatsapp:")
	to := strings.TrimPrefix(c.PostForm("To"), "whatsapp:")

	h.dispatch(entities.InboundMessage{
		Channel:           entities.ChannelWhatsAppTwilio,
		SenderChannelID:   from,
		BusinessChannelID: to,
		Body:              c.PostForm("Body"),
		ProviderMessageID: c.PostForm("MessageSid"),
	})
	c.String(http.StatusOK, "")
}

// HandleTelegram receives bot updates. The bot is identified by the path
// segment because Telegram does not echo which token the update belongs to.
func (h *WebhookHandler) HandleTelegram(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	h.dispatch(entities.InboundMessage{
		Channel:           entities.ChannelTelegram,
		SenderChannelID:   strconv.FormatInt(update.Message.Chat.ID, 10),
		BusinessChannelID: c.Param("externalID"),
		Body:              update.Message.Text,
		ProviderMessageID: strconv.Itoa(update.Message.MessageID),
	})
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

type facebookWebhookPayload struct {
	Entry []struct {
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Recipient struct {
				ID string `json:"id"`
			} `json:"recipient"`
			Message struct {
				MID  string `json:"mid"`
				Text string `json:"text"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

func (h *WebhookHandler) HandleFacebook(c *gin.Context) {
	var payload facebookWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	for _, entry := range payload.Entry {
		for _, ev := range entry.Messaging {
			if ev.Message.Text == "" {
				continue
			}
			h.dispatch(entities.InboundMessage{
				Channel:           entities.ChannelFacebook,
				SenderChannelID:   ev.Sender.ID,
				BusinessChannelID: ev.Recipient.ID,
				Body:              ev.Message.Text,
				ProviderMessageID: ev.Message.MID,
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
