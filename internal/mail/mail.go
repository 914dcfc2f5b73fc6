package mail

import "context"

// OutboundEmail is a fully rendered message ready for delivery through any channel.
type OutboundEmail struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers rendered emails through a specific channel (smtp, sendgrid, gmail).
type Sender interface {
	Channel() string
	Send(ctx context.Context, email OutboundEmail) error
}
