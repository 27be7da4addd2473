package fake

import (
	"context"
	"sync"

	"autoheal/internal/heal"
)

var _ heal.Notifier = (*Notifier)(nil)

// Notifier collects notification messages in memory.
type Notifier struct {
	CallRecorder
	mu       sync.Mutex
	messages []string

	NotifyErr func(ctx context.Context, message string) error
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(ctx context.Context, message string) error {
	n.record("Notify", message)
	if n.NotifyErr != nil {
		if err := n.NotifyErr(ctx, message); err != nil {
			return err
		}
	}
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
	return nil
}

// Messages returns delivered messages in order.
func (n *Notifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
