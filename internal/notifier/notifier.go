// Package notifier delivers user-visible messages: desktop notifications through the
// tray companion app, a console fallback, and the accountability buddy webhook.
// Delivery failures are returned to the caller, which logs and drops them.
package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/julianstephens/soberlit/internal/logger"
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Console writes notifications to a terminal, ringing the bell first.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(_ context.Context, title, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "\a[%s] %s\n", title, body)
	return err
}

// Fallback tries each notifier in order and stops at the first that succeeds.
type Fallback []Notifier

func (f Fallback) Notify(ctx context.Context, title, body string) error {
	var lastErr error
	for _, n := range f {
		err := n.Notify(ctx, title, body)
		if err == nil {
			return nil
		}
		logger.Debug("Notifier failed, trying next", "error", err)
		lastErr = err
	}
	if lastErr == nil {
		return fmt.Errorf("no notifier configured")
	}
	return lastErr
}
