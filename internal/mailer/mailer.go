package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"go.uber.org/zap"
)

// ErrIncompleteConfig is returned by constructors when required transport settings are missing.
var ErrIncompleteConfig = errors.New("mailer: incomplete configuration")

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a message or returns the transport error.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender identifies the From address.
type Sender struct {
	Name  string
	Email string
}

func (s Sender) String() string {
	if s.Name == "" {
		return s.Email
	}
	return fmt.Sprintf("%s <%s>", s.Name, s.Email)
}

// LogMailer writes messages to the log instead of sending them. For local runs only.
type LogMailer struct {
	logger *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{logger: log.Named("LogMailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("Email not sent, log provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("bodyLength", len(msg.Body)))
	m.logger.Debug("Email body", zap.String("to", msg.To), zap.String("body", msg.Body))
	return nil
}
