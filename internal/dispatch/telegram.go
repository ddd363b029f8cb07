package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramPool caches one BotAPI client per bot token. Constructing a client
// hits Telegram's getMe endpoint, so it is done once per token, not per send.
type TelegramPool struct {
	mu    sync.RWMutex
	bots  map[string]*tgbotapi.BotAPI
	httpc *http.Client
}

func NewTelegramPool(httpc *http.Client) *TelegramPool {
	return &TelegramPool{bots: make(map[string]*tgbotapi.BotAPI), httpc: httpc}
}

func (p *TelegramPool) SenderFor(token string) (*TelegramSender, error) {
	p.mu.RLock()
	bot, ok := p.bots[token]
	p.mu.RUnlock()
	if ok {
		return &TelegramSender{bot: bot}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if bot, ok = p.bots[token]; ok {
		return &TelegramSender{bot: bot}, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, p.httpc)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	p.bots[token] = bot
	return &TelegramSender{bot: bot}, nil
}

// TelegramSender adapts one bot to the ProviderSender capability set.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

// chatID accepts both raw numeric ids and the "telegram:<id>" form some
// stored customer identifiers carry.
func chatID(to string) (int64, error) {
	to = strings.TrimPrefix(to, "telegram:")
	id, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", to, err)
	}
	return id, nil
}

func (s *TelegramSender) SendText(ctx context.Context, to, text string) (DeliveryResult, error) {
	id, err := chatID(to)
	if err != nil {
		return DeliveryResult{}, err
	}
	msg := tgbotapi.NewMessage(id, text)
	sent, err := s.bot.Send(msg)
	if err != nil {
		return DeliveryResult{}, mapTelegramError(err)
	}
	return DeliveryResult{ProviderMessageID: strconv.Itoa(sent.MessageID)}, nil
}

func (s *TelegramSender) SendImage(ctx context.Context, to, url, caption string) (DeliveryResult, error) {
	id, err := chatID(to)
	if err != nil {
		return DeliveryResult{}, err
	}
	photo := tgbotapi.NewPhoto(id, tgbotapi.FileURL(url))
	photo.Caption = caption
	sent, err := s.bot.Send(photo)
	if err != nil {
		return DeliveryResult{}, mapTelegramError(err)
	}
	return DeliveryResult{ProviderMessageID: strconv.Itoa(sent.MessageID)}, nil
}

func (s *TelegramSender) SendDocument(ctx context.Context, to, url, filename string) (DeliveryResult, error) {
	id, err := chatID(to)
	if err != nil {
		return DeliveryResult{}, err
	}
	doc := tgbotapi.NewDocument(id, tgbotapi.FileURL(url))
	sent, err := s.bot.Send(doc)
	if err != nil {
		return DeliveryResult{}, mapTelegramError(err)
	}
	return DeliveryResult{ProviderMessageID: strconv.Itoa(sent.MessageID)}, nil
}

// mapTelegramError lifts tgbotapi errors into ProviderError so the retry
// classification sees the same status codes as the raw HTTP providers.
func mapTelegramError(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code != 0 {
		return &ProviderError{StatusCode: tgErr.Code, Body: tgErr.Message}
	}
	return err
}
