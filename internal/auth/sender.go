package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"portfolio-site/internal/model"
)

// WebhookSender posts codes to per-channel delivery webhooks. With no URL
// configured for a channel it logs the code instead, which is the local/dev
// mode of operation.
type WebhookSender struct {
	client   *http.Client
	kakaoURL string
	passURL  string
}

func NewWebhookSender(kakaoURL, passURL string) *WebhookSender {
	return &WebhookSender{
		client:   &http.Client{Timeout: 10 * time.Second},
		kakaoURL: strings.TrimSpace(kakaoURL),
		passURL:  strings.TrimSpace(passURL),
	}
}

type otpSendRequest struct {
	Channel     string    `json:"channel"`
	PhoneNumber string    `json:"phoneNumber"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *WebhookSender) Send(ctx context.Context, phone, code string, channel model.DeliveryChannel) error {
	target := s.targetURL(channel)
	if target == "" {
		log.Printf("[otp] mock send [%s] phone=%s code=%s", channel, phone, code)
		return nil
	}

	body, err := json.Marshal(otpSendRequest{
		Channel:     string(channel),
		PhoneNumber: phone,
		Code:        code,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("otp webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("otp webhook: status %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSender) targetURL(channel model.DeliveryChannel) string {
	switch channel {
	case model.ChannelKakao:
		return s.kakaoURL
	case model.ChannelPass:
		return s.passURL
	default:
		return ""
	}
}
