package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/keyring"
	"github.com/julianstephens/soberlit/internal/logger"
)

// BuddyEvent is what the accountability buddy is told about.
type BuddyEvent string

const (
	BuddyEventSober   BuddyEvent = "sober"
	BuddyEventRelapse BuddyEvent = "relapse"
	BuddyEventTest    BuddyEvent = "test"
)

type BuddyPayload struct {
	Event     BuddyEvent `json:"event"`
	Name      string     `json:"name,omitempty"`
	DaysSober uint32     `json:"days_sober"`
	Streak    uint32     `json:"streak"`
	SentAt    time.Time  `json:"sent_at"`
}

// Buddy posts check-in results to the accountability buddy's webhook.
type Buddy struct {
	client    *http.Client
	getSecret func() (string, error)

	mu   sync.RWMutex
	url  string
	name string

	// sends started by SendAsync that have not finished
	inflight sync.WaitGroup
}

func NewBuddy(url, name string) *Buddy {
	return &Buddy{
		url:       url,
		name:      name,
		client:    &http.Client{Timeout: constants.BuddyNotifyTimeout},
		getSecret: keyring.GetBuddySecret,
	}
}

// Configure replaces the webhook URL and buddy name used by later sends.
func (b *Buddy) Configure(url, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.url, b.name = url, name
}

func (b *Buddy) target() (url, name string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.url, b.name
}

// URL returns the configured webhook URL.
func (b *Buddy) URL() string {
	if b == nil {
		return ""
	}
	url, _ := b.target()
	return url
}

// Enabled reports whether a webhook URL is configured.
func (b *Buddy) Enabled() bool {
	return b.URL() != ""
}

func (b *Buddy) Send(ctx context.Context, payload BuddyPayload) error {
	url, name := b.target()
	if url == "" {
		return nil
	}
	payload.Name = name
	if payload.SentAt.IsZero() {
		payload.SentAt = time.Now().UTC()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid buddy webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	secret, err := b.getSecret()
	switch {
	case err == nil:
		req.Header.Set(constants.BuddySecretHeader, secret)
	case err == keyring.ErrNotFound:
	default:
		logger.Warn("Buddy secret unavailable, sending without it", "error", err)
	}

	res, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("buddy webhook failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("buddy webhook returned status %d: %s", res.StatusCode, string(body))
}

// SendAsync sends in the background under its own timeout. Failures are logged and
// dropped; the returned channel closes when the attempt is over. Wait blocks until
// every such attempt has finished.
func (b *Buddy) SendAsync(payload BuddyPayload) <-chan struct{} {
	done := make(chan struct{})
	if !b.Enabled() {
		close(done)
		return done
	}
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), constants.BuddyNotifyTimeout)
		defer cancel()
		if err := b.Send(ctx, payload); err != nil {
			logger.Warn("Buddy notification failed", "event", payload.Event, "error", err)
			return
		}
		logger.Info("Buddy notified", "event", payload.Event)
	}()
	return done
}

// Wait blocks until every send started by SendAsync has finished. Each send is
// bounded by BuddyNotifyTimeout.
func (b *Buddy) Wait() {
	if b == nil {
		return
	}
	b.inflight.Wait()
}
