package service

import "context"

// Mailer delivers a single HTML mail. Implementations report success or
// failure only.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
