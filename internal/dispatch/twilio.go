package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender speaks the Twilio Messages API for WhatsApp. Twilio addresses
// WhatsApp numbers with a "whatsapp:" URI scheme; the prefix is stripped at
// ingestion and re-added here.
type TwilioSender struct {
	httpc      *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

func NewTwilioSender(httpc *http.Client, baseURL, accountSID, authToken, from string) *TwilioSender {
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}
	return &TwilioSender{httpc: httpc, baseURL: baseURL, accountSID: accountSID, authToken: authToken, from: from}
}

func waAddr(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func (s *TwilioSender) SendText(ctx context.Context, to, text string) (DeliveryResult, error) {
	form := url.Values{}
	form.Set("From", waAddr(s.from))
	form.Set("To", waAddr(to))
	form.Set("Body", text)
	return s.post(ctx, form)
}

func (s *TwilioSender) SendImage(ctx context.Context, to, mediaURL, caption string) (DeliveryResult, error) {
	form := url.Values{}
	form.Set("From", waAddr(s.from))
	form.Set("To", waAddr(to))
	form.Set("MediaUrl", mediaURL)
	if caption != "" {
		form.Set("Body", caption)
	}
	return s.post(ctx, form)
}

func (s *TwilioSender) SendDocument(ctx context.Context, to, mediaURL, filename string) (DeliveryResult, error) {
	// Twilio delivers documents the same way as any other media URL.
	return s.SendImage(ctx, to, mediaURL, filename)
}

func (s *TwilioSender) post(ctx context.Context, form url.Values) (DeliveryResult, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return DeliveryResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

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
		Sid string `json:"sid"`
	}
	_ = json.Unmarshal(raw, &parsed)
	return DeliveryResult{ProviderMessageID: parsed.Sid}, nil
}
