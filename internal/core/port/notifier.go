package port

import "context"

// Notifier delivers out-of-band messages (reset codes, generated passwords)
// to users. Implementations own their delivery guarantees and timeouts; the
// core treats Send as fire-and-forget apart from surfacing the error.
type Notifier interface {
	Send(ctx context.Context, toAddress, subject, body string) error
}
