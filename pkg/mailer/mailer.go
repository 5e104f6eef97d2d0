package mailer

import "context"

// Message is a single outbound notification.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Body      string
}

// Mailer delivers outbound notifications. Implementations are best-effort:
// callers treat failures as retryable, never fatal.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
