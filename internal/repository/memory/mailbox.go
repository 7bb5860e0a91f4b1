package memory

import (
	"context"
	"sync"
)

type Mail struct {
	RecipientID string
	Subject     string
	HTML        string
	Text        string
}

// Mailbox records outgoing mail instead of delivering it.
type Mailbox struct {
	mu   sync.Mutex
	sent []Mail
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

func (m *Mailbox) SendNotification(ctx context.Context, recipientID, subject, html, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, Mail{
		RecipientID: recipientID,
		Subject:     subject,
		HTML:        html,
		Text:        text,
	})
	return nil
}

func (m *Mailbox) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Mail(nil), m.sent...)
}
