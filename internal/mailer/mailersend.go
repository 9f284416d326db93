package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"go.uber.org/zap"
)

// DefaultMailerSendURL is the MailerSend email endpoint.
const DefaultMailerSendURL = "https://api.mailersend.com/v1/email"

// MailerSendConfig configures the MailerSend HTTP API transport.
type MailerSendConfig struct {
	APIKey string
	URL    string
	From   Sender
}

// MailerSendService sends mail through the MailerSend HTTP API.
type MailerSendService struct {
	apiKey string
	url    string
	from   Sender
	client *http.Client
	logger *logger.Logger
}

func NewMailerSendService(cfg MailerSendConfig, log *logger.Logger) (*MailerSendService, error) {
	if cfg.APIKey == "" || cfg.From.Email == "" {
		return nil, fmt.Errorf("%w: MAILERSEND_API_KEY and FROM_EMAIL are required", ErrIncompleteConfig)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultMailerSendURL
	}
	return &MailerSendService{
		apiKey: cfg.APIKey,
		url:    cfg.URL,
		from:   cfg.From,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: log.Named("MailerSendService"),
	}, nil
}

type mailerSendAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailerSendRequest struct {
	From    mailerSendAddress   `json:"from"`
	To      []mailerSendAddress `json:"to"`
	Subject string              `json:"subject"`
	Text    string              `json:"text"`
}

func (s *MailerSendService) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(mailerSendRequest{
		From:    mailerSendAddress{Email: s.from.Email, Name: s.from.Name},
		To:      []mailerSendAddress{{Email: msg.To}},
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Failed to send request to MailerSend", zap.Error(err))
		return fmt.Errorf("failed to send request to MailerSend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		s.logger.Error("MailerSend API request failed", zap.Int("statusCode", resp.StatusCode))
		return fmt.Errorf("MailerSend API request failed with status code %d", resp.StatusCode)
	}

	s.logger.Info("Email sent via MailerSend", zap.String("subject", msg.Subject), zap.String("messageID", resp.Header.Get("X-Message-Id")))
	return nil
}
