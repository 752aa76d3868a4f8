package escalation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/models"
)

// Session is the exclusive resource held while the prompt is up. It is released
// exactly once: by the resolution path or, failing that, by its hard timeout.
type Session struct {
	models.EscalationSession

	once      sync.Once
	timer     *time.Timer
	onRelease func(timedOut bool)
	released  chan struct{}
}

func newSession(now time.Time, timeout time.Duration, onRelease func(timedOut bool)) *Session {
	s := &Session{
		EscalationSession: models.EscalationSession{
			ID:               uuid.NewString(),
			Active:           true,
			StartedAt:        now,
			AcquiredWakeLock: true,
		},
		onRelease: onRelease,
		released:  make(chan struct{}),
	}
	s.timer = time.AfterFunc(timeout, func() {
		if s.release(true) {
			logger.Warn("Escalation session hit its hard timeout", "session", s.ID, "timeout", timeout)
		}
	})
	return s
}

// Release reports whether this call released the session.
func (s *Session) Release() bool {
	return s.release(false)
}

func (s *Session) release(timedOut bool) bool {
	released := false
	s.once.Do(func() {
		released = true
		s.timer.Stop()
		s.Active = false
		s.AcquiredWakeLock = false
		close(s.released)
		if s.onRelease != nil {
			s.onRelease(timedOut)
		}
	})
	return released
}

// Released is closed once the session has been released.
func (s *Session) Released() <-chan struct{} {
	return s.released
}
