package sage_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylan-buck/UAF-Auto/pkg/sage"
	"github.com/dylan-buck/UAF-Auto/pkg/sage/sagetest"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestPool(driver *sagetest.Driver, size int, timeout time.Duration) *sage.Pool {
	return sage.NewPool(sage.PoolConfig{
		ServerPath:     `C:\Sage\MAS90\Home`,
		Company:        "ABC",
		Username:       "api",
		Password:       "secret",
		Module:         "S/O",
		Size:           size,
		AcquireTimeout: timeout,
	}, driver, testLogger())
}

func TestPoolAcquireRelease(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 2, time.Second)
	defer pool.Close()

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h)

	avail, active := pool.Counts()
	assert.Equal(t, 1, avail)
	assert.Equal(t, 1, active)

	pool.Release(h)
	avail, active = pool.Counts()
	assert.Equal(t, 2, avail)
	assert.Equal(t, 0, active)
}

func TestPoolReusesReleasedSessions(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Second)
	defer pool.Close()

	h1, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	id := h1.ID
	pool.Release(h1)

	h2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, h2.ID)
	assert.Equal(t, 1, driver.Opened())
	pool.Release(h2)
}

func TestPoolAcquireTimesOutWhenExhausted(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, 50*time.Millisecond)
	defer pool.Close()

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer pool.Release(h)

	start := time.Now()
	_, err = pool.Acquire(context.Background())
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, sage.ErrPoolTimeout)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestPoolAcquireHonorsContextCancellation(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Minute)
	defer pool.Close()

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer pool.Release(h)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolInvalidateDestroysAndRecreates(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Second)
	defer pool.Close()

	h1, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	id := h1.ID
	pool.Invalidate(h1)

	assert.Equal(t, 1, driver.Released())
	avail, active := pool.Counts()
	assert.Equal(t, 0, avail)
	assert.Equal(t, 0, active)

	// Freed slot allows a fresh session
	h2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, id, h2.ID)
	assert.Equal(t, 2, driver.Opened())
	pool.Release(h2)
}

func TestPoolWarmSwallowsCreateFailures(t *testing.T) {
	driver := sagetest.NewDriver()
	driver.FailOpen = true
	pool := newTestPool(driver, 3, 50*time.Millisecond)
	defer pool.Close()

	pool.Warm(context.Background())
	avail, _ := pool.Counts()
	assert.Equal(t, 0, avail)

	// Pool is still usable once the host comes back
	driver.FailOpen = false
	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Release(h)
}

func TestPoolAcquireReportsCreateStage(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*sagetest.Driver)
		stage string
	}{
		{"engine init", func(d *sagetest.Driver) { d.FailOpen = true }, sage.StageEngineInit},
		{"auth", func(d *sagetest.Driver) { d.FailAuth = true }, sage.StageAuth},
		{"company select", func(d *sagetest.Driver) { d.FailCompany = true }, sage.StageCompany},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := sagetest.NewDriver()
			tt.setup(driver)
			pool := newTestPool(driver, 1, 50*time.Millisecond)
			defer pool.Close()

			_, err := pool.Acquire(context.Background())
			var createErr *sage.CreateError
			require.ErrorAs(t, err, &createErr)
			assert.Equal(t, tt.stage, createErr.Stage)
		})
	}
}

func TestPoolCapacityInvariantUnderLoad(t *testing.T) {
	driver := sagetest.NewDriver()
	const size = 3
	pool := newTestPool(driver, size, time.Second)
	defer pool.Close()

	var holders atomic.Int32
	var peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				h, err := pool.Acquire(context.Background())
				if err != nil {
					continue
				}
				n := holders.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				holders.Add(-1)
				pool.Release(h)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(size))
	avail, active := pool.Counts()
	assert.Equal(t, 0, active)
	assert.LessOrEqual(t, avail, size)
}

func TestPoolClose(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 2, time.Second)

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Release(h)

	pool.Close()
	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, sage.ErrPoolClosed)
	assert.Equal(t, driver.Opened(), driver.Released())
}

func TestPoolCloseWakesWaiters(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Minute)

	h, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := pool.Acquire(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	pool.Close()
	pool.Release(h)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, sage.ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Close")
	}
}

func TestPoolHealthy(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Second)
	defer pool.Close()

	assert.True(t, pool.Healthy(context.Background()))

	// Probe releases the handle back
	avail, active := pool.Counts()
	assert.Equal(t, 1, avail)
	assert.Equal(t, 0, active)
}

func TestPoolHealthyFalseWhenHostDown(t *testing.T) {
	driver := sagetest.NewDriver()
	driver.FailOpen = true
	pool := newTestPool(driver, 1, 50*time.Millisecond)
	defer pool.Close()

	assert.False(t, pool.Healthy(context.Background()))
}

func TestWithSessionReleasesOnSuccess(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Second)
	defer pool.Close()

	err := sage.WithSession(context.Background(), pool, func(h *sage.SessionHandle) error {
		return nil
	})
	require.NoError(t, err)

	avail, active := pool.Counts()
	assert.Equal(t, 1, avail)
	assert.Equal(t, 0, active)
}

func TestWithSessionReleasesOnOrdinaryError(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Second)
	defer pool.Close()

	wantErr := errors.New("customer not found")
	err := sage.WithSession(context.Background(), pool, func(h *sage.SessionHandle) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	avail, _ := pool.Counts()
	assert.Equal(t, 1, avail)
	assert.Equal(t, 0, driver.Released())
}

func TestWithSessionInvalidatesOnCorruption(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Second)
	defer pool.Close()

	cause := &sage.CallError{Object: "AR_Customer_svc", Op: "MoveFirst", Msg: "RPC server unavailable"}
	err := sage.WithSession(context.Background(), pool, func(h *sage.SessionHandle) error {
		return sage.Corrupted(cause)
	})
	assert.ErrorIs(t, err, sage.ErrSessionCorrupted)

	var callErr *sage.CallError
	assert.ErrorAs(t, err, &callErr)

	avail, active := pool.Counts()
	assert.Equal(t, 0, avail)
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, driver.Released())
}

func TestWithSessionInvalidatesOnPanic(t *testing.T) {
	driver := sagetest.NewDriver()
	pool := newTestPool(driver, 1, time.Second)
	defer pool.Close()

	func() {
		defer func() { _ = recover() }()
		_ = sage.WithSession(context.Background(), pool, func(h *sage.SessionHandle) error {
			panic(fmt.Sprintf("session %s blew up", h.ID))
		})
	}()

	avail, active := pool.Counts()
	assert.Equal(t, 0, avail)
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, driver.Released())
}
