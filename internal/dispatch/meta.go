package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultMetaBaseURL = "https://graph.facebook.com/v18.0"

// MetaSender speaks the WhatsApp Cloud API for one tenant's phone number.
type MetaSender struct {
	httpc         *http.Client
	baseURL       string
	phoneNumberID string
	token         string
}

func NewMetaSender(httpc *http.Client, baseURL, phoneNumberID, token string) *MetaSender {
	if baseURL == "" {
		baseURL = defaultMetaBaseURL
	}
	return &MetaSender{httpc: httpc, baseURL: baseURL, phoneNumberID: phoneNumberID, token: token}
}

type metaSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (s *MetaSender) SendText(ctx context.Context, to, text string) (DeliveryResult, error) {
	return s.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": text},
	})
}

func (s *MetaSender) SendImage(ctx context.Context, to, url, caption string) (DeliveryResult, error) {
	return s.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "image",
		"image":             map[string]any{"link": url, "caption": caption},
	})
}

func (s *MetaSender) SendDocument(ctx context.Context, to, url, filename string) (DeliveryResult, error) {
	return s.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "document",
		"document":          map[string]any{"link": url, "filename": filename},
	})
}

func (s *MetaSender) post(ctx context.Context, payload map[string]any) (DeliveryResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return DeliveryResult{}, err
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return DeliveryResult{}, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DeliveryResult{}, &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed metaSendResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && len(parsed.Messages) > 0 {
		return DeliveryResult{ProviderMessageID: parsed.Messages[0].ID}, nil
	}
	return DeliveryResult{}, nil
}
