package sage

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/dylan-buck/UAF-Auto/pkg/metrics"
)

// PoolConfig carries the connection parameters and sizing for the pool
type PoolConfig struct {
	ServerPath     string
	Company        string
	Username       string
	Password       string
	Module         string
	Size           int
	AcquireTimeout time.Duration
}

// Pool is a bounded pool of authenticated session handles. Capacity is
// enforced by a counting gate: at most Size handles exist across the
// available and active sets. Handles are created lazily and recreated
// lazily after invalidation.
type Pool struct {
	cfg    PoolConfig
	driver Driver
	logger ectologger.Logger

	gate chan struct{}
	done chan struct{}

	mu        sync.Mutex
	available []*SessionHandle
	active    map[string]*SessionHandle
	closed    bool

	initOnce sync.Once
}

// NewPool builds a pool. No sessions are created until the first Acquire
// or an explicit Warm.
func NewPool(cfg PoolConfig, driver Driver, logger ectologger.Logger) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 30 * time.Second
	}
	return &Pool{
		cfg:    cfg,
		driver: driver,
		logger: logger,
		gate:   make(chan struct{}, cfg.Size),
		done:   make(chan struct{}),
		active: make(map[string]*SessionHandle),
	}
}

// Warm eagerly fills the pool. Individual create failures are logged and
// swallowed so a partially reachable server still yields a usable pool;
// missing handles are recreated on demand.
func (p *Pool) Warm(ctx context.Context) {
	p.initOnce.Do(func() { p.fill(ctx) })
}

func (p *Pool) fill(ctx context.Context) {
	log := p.logger.WithContext(ctx).WithField("method", "fill")
	created := 0
	for i := 0; i < p.cfg.Size; i++ {
		h, err := p.createSession()
		if err != nil {
			log.WithError(err).Warn("Failed to create pooled session")
			continue
		}
		p.mu.Lock()
		p.available = append(p.available, h)
		p.mu.Unlock()
		created++
	}
	log.WithFields(map[string]any{"created": created, "size": p.cfg.Size}).Info("Session pool initialized")
	p.publishGauges()
}

// Acquire blocks until a handle is available or the timeout elapses.
// Context cancellation is honored while waiting.
func (p *Pool) Acquire(ctx context.Context) (*SessionHandle, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	p.initOnce.Do(func() { p.fill(ctx) })

	start := time.Now()
	timer := time.NewTimer(p.cfg.AcquireTimeout)
	defer timer.Stop()

	select {
	case p.gate <- struct{}{}:
	case <-timer.C:
		metrics.RecordAcquire("timeout", time.Since(start).Seconds())
		return nil, ErrPoolTimeout
	case <-ctx.Done():
		metrics.RecordAcquire("canceled", time.Since(start).Seconds())
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrPoolClosed
	}

	// Slot held: take an idle handle or create a replacement for one
	// lost to invalidation.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.gate
		return nil, ErrPoolClosed
	}
	var h *SessionHandle
	if n := len(p.available); n > 0 {
		h = p.available[n-1]
		p.available = p.available[:n-1]
	}
	p.mu.Unlock()

	if h == nil {
		var err error
		h, err = p.createSession()
		if err != nil {
			<-p.gate
			metrics.RecordAcquire("create_error", time.Since(start).Seconds())
			return nil, err
		}
	}

	h.LastUsed = time.Now()
	p.mu.Lock()
	p.active[h.ID] = h
	p.mu.Unlock()

	metrics.RecordAcquire("ok", time.Since(start).Seconds())
	p.publishGauges()
	return h, nil
}

// Release returns a handle to the available set. Releasing a handle the
// pool does not consider active is tolerated and logged.
func (p *Pool) Release(h *SessionHandle) {
	if h == nil {
		return
	}
	p.mu.Lock()
	if _, ok := p.active[h.ID]; !ok {
		p.mu.Unlock()
		p.logger.WithField("session_id", h.ID).Warn("Release of unowned session ignored")
		return
	}
	delete(p.active, h.ID)
	if p.closed {
		p.mu.Unlock()
		h.destroy()
		return
	}
	h.LastUsed = time.Now()
	p.available = append(p.available, h)
	p.mu.Unlock()

	<-p.gate
	p.publishGauges()
}

// Invalidate destroys a corrupted handle without returning it to the
// pool. The freed slot lets a later Acquire create a fresh session.
func (p *Pool) Invalidate(h *SessionHandle) {
	if h == nil {
		return
	}
	p.mu.Lock()
	_, ok := p.active[h.ID]
	if ok {
		delete(p.active, h.ID)
	}
	closed := p.closed
	p.mu.Unlock()

	h.destroy()
	if !ok {
		p.logger.WithField("session_id", h.ID).Warn("Invalidate of unowned session")
		return
	}
	if !closed {
		<-p.gate
	}
	metrics.SessionInvalidationsTotal.Inc()
	p.logger.WithField("session_id", h.ID).Warn("Session invalidated")
	p.publishGauges()
}

// Healthy acquires a handle, probes it, and releases it. It reports false
// on any failure and never panics.
func (p *Pool) Healthy(ctx context.Context) bool {
	h, err := p.Acquire(ctx)
	if err != nil {
		return false
	}
	ok := h.Session() != nil
	if !ok {
		p.Invalidate(h)
		return false
	}
	p.Release(h)
	return true
}

// Counts reports the current available and active handle counts
func (p *Pool) Counts() (available, active int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available), len(p.active)
}

// Size is the configured capacity
func (p *Pool) Size() int { return p.cfg.Size }

// Close destroys every handle and fails all waiting and future acquires
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.available
	p.available = nil
	act := make([]*SessionHandle, 0, len(p.active))
	for _, h := range p.active {
		act = append(act, h)
	}
	p.active = make(map[string]*SessionHandle)
	p.mu.Unlock()

	close(p.done)
	for _, h := range idle {
		h.destroy()
	}
	for _, h := range act {
		h.destroy()
	}
	p.publishGauges()
	p.logger.Info("Session pool closed")
}

func (p *Pool) createSession() (*SessionHandle, error) {
	engine, err := p.driver.Open(p.cfg.ServerPath)
	if err != nil {
		metrics.SessionCreatesTotal.WithLabelValues("error").Inc()
		return nil, &CreateError{Stage: StageEngineInit, Err: err}
	}

	session, err := engine.NewSession()
	if err != nil {
		engine.Release()
		metrics.SessionCreatesTotal.WithLabelValues("error").Inc()
		return nil, &CreateError{Stage: StageSessionOpen, Err: err}
	}

	if session.SetUser(p.cfg.Username, p.cfg.Password) == 0 {
		msg := session.LastErrorMsg()
		session.Release()
		engine.Release()
		metrics.SessionCreatesTotal.WithLabelValues("error").Inc()
		return nil, &CreateError{Stage: StageAuth, Msg: msg}
	}

	if session.SetCompany(p.cfg.Company) == 0 {
		msg := session.LastErrorMsg()
		session.Release()
		engine.Release()
		metrics.SessionCreatesTotal.WithLabelValues("error").Inc()
		return nil, &CreateError{Stage: StageCompany, Msg: msg}
	}

	// Module and date context are best effort; objects reset them as
	// needed and a refusal here does not make the session unusable.
	date := time.Now().Format("20060102")
	if session.SetModule(p.cfg.Module) == 0 || session.SetDate(p.cfg.Module, date) == 0 {
		p.logger.WithField("module", p.cfg.Module).Debug("Module context not set on new session")
	}

	h := newSessionHandle(engine, session)
	metrics.SessionCreatesTotal.WithLabelValues("ok").Inc()
	p.logger.WithField("session_id", h.ID).Debug("Created session")
	return h, nil
}

func (p *Pool) publishGauges() {
	avail, act := p.Counts()
	metrics.SetPoolGauges(avail, act)
}
