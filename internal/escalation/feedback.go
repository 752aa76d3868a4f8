package escalation

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/julianstephens/soberlit/internal/constants"
)

// Loop runs a repeating alarm effect on its own goroutine. Start and Stop may be
// called any number of times from any goroutine.
type Loop struct {
	name string
	body func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(name string, body func(ctx context.Context)) *Loop {
	return &Loop{name: name, body: body}
}

func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	go func() {
		defer close(done)
		l.body(ctx)
	}()
}

// Stop cancels the loop and waits for its goroutine to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// SoundLoop rings the terminal bell on out until cancelled.
func SoundLoop(out io.Writer, interval time.Duration) *Loop {
	return NewLoop("sound", func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			out.Write([]byte("\a"))
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
}

// VibrationLoop emits on/off pulses. pulse must not block.
func VibrationLoop(pulse func(on bool)) *Loop {
	return NewLoop("vibration", func(ctx context.Context) {
		defer pulse(false)
		for {
			pulse(true)
			if !sleep(ctx, constants.VibrationPulse) {
				return
			}
			pulse(false)
			if !sleep(ctx, constants.VibrationPause) {
				return
			}
		}
	})
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
