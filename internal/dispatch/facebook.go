package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const defaultFacebookBaseURL = "https://graph.facebook.com/v18.0"

// FacebookSender speaks the Messenger Send API using a page access token.
// Recipients are page-scoped sender ids from the webhook.
type FacebookSender struct {
	httpc     *http.Client
	baseURL   string
	pageToken string
}

func NewFacebookSender(httpc *http.Client, baseURL, pageToken string) *FacebookSender {
	if baseURL == "" {
		baseURL = defaultFacebookBaseURL
	}
	return &FacebookSender{httpc: httpc, baseURL: baseURL, pageToken: pageToken}
}

func (s *FacebookSender) SendText(ctx context.Context, to, text string) (DeliveryResult, error) {
	return s.post(ctx, to, map[string]any{"text": text})
}

func (s *FacebookSender) SendImage(ctx context.Context, to, url, caption string) (DeliveryResult, error) {
	// Messenger attachments carry no caption field; the caption travels as
	// the accompanying text unit when the caller chooses to send one.
	return s.post(ctx, to, map[string]any{
		"attachment": map[string]any{
			"type":    "image",
			"payload": map[string]any{"url": url, "is_reusable": false},
		},
	})
}

func (s *FacebookSender) SendDocument(ctx context.Context, to, url, filename string) (DeliveryResult, error) {
	return s.post(ctx, to, map[string]any{
		"attachment": map[string]any{
			"type":    "file",
			"payload": map[string]any{"url": url, "is_reusable": false},
		},
	})
}

func (s *FacebookSender) post(ctx context.Context, to string, message map[string]any) (DeliveryResult, error) {
	body, err := json.Marshal(map[string]any{
		"recipient":      map[string]any{"id": to},
		"messaging_type": "RESPONSE",
		"message":        message,
	})
	if err != nil {
		return DeliveryResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/me/messages?access_token="+s.pageToken, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return DeliveryResult{}, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DeliveryResult{}, &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed struct {
		MessageID string `json:"message_id"`
	}
	_ = json.Unmarshal(raw, &parsed)
	return DeliveryResult{ProviderMessageID: parsed.MessageID}, nil
}
