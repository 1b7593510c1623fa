// Package mailer delivers verification codes.
package mailer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LogMailer writes codes to the log instead of sending mail. It is the
// delivery used in development and in the in-memory deployment.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendCode(ctx context.Context, to, code string, expiresAt time.Time) error {
	m.logger.InfoContext(ctx, "verification code issued",
		"to", to,
		"code", code,
		"expires_at", expiresAt,
	)
	return nil
}

// Outbox records sent codes in memory. Tests read them back to confirm.
type Outbox struct {
	mu   sync.Mutex
	sent map[string]string
}

func NewOutbox() *Outbox {
	return &Outbox{sent: make(map[string]string)}
}

func (o *Outbox) SendCode(_ context.Context, to, code string, _ time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent[to] = code
	return nil
}

// Last returns the most recent code sent to address.
func (o *Outbox) Last(address string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	code, ok := o.sent[address]
	return code, ok
}
