package common

import "context"

// NotificationSink delivers fire-and-forget messages to senders and
// couriers. Failures are logged, never surfaced to the scan path.
type NotificationSink interface {
	Push(ctx context.Context, recipientID, title, body string) error
}
