package sage

import (
	"time"

	"github.com/google/uuid"
)

// SessionHandle is an authenticated engine plus session pair owned by the
// pool. Handles are handed to exactly one operation at a time.
type SessionHandle struct {
	ID        string
	CreatedAt time.Time
	LastUsed  time.Time

	engine  Engine
	session Session
}

func newSessionHandle(engine Engine, session Session) *SessionHandle {
	now := time.Now()
	return &SessionHandle{
		ID:        uuid.NewString()[:8],
		CreatedAt: now,
		LastUsed:  now,
		engine:    engine,
		session:   session,
	}
}

// NewObject creates a business or service object on this handle's engine
func (h *SessionHandle) NewObject(name string) (Object, error) {
	return h.engine.NewObject(name, h.session)
}

// Session exposes the session context surface, used by health probes
func (h *SessionHandle) Session() Session { return h.session }

func (h *SessionHandle) destroy() {
	if h.session != nil {
		h.session.Release()
	}
	if h.engine != nil {
		h.engine.Release()
	}
}
