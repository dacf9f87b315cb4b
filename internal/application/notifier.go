package application

import "context"

// Notifier pushes exchange results or failures to an out-of-band channel
// (ops pager, phone). Local modes use it for replies, the server for errors.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}
