package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/dylan-buck/UAF-Auto/pkg/appctx"
	"github.com/dylan-buck/UAF-Auto/pkg/metrics"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/tracing"
)

// OrderCreator is the slice of the order service the worker needs
type OrderCreator interface {
	Create(ctx context.Context, req *models.SalesOrderRequest) (*models.SalesOrderResponse, error)
}

// WorkerConfig holds the polling and retry configuration
type WorkerConfig struct {
	PollInterval  time.Duration
	RetryBaseWait time.Duration
	WorkerCount   int
}

// Worker drains the order queue into the sales order service. Transient
// failures are retried with exponential backoff; business rejections
// fail the job immediately since a rewrite will not change the outcome.
type Worker struct {
	store  *Store
	orders OrderCreator
	cfg    WorkerConfig
	logger ectologger.Logger

	stopCh   chan struct{}
	stoppedC chan struct{}

	running bool
	mu      sync.RWMutex
}

func NewWorker(store *Store, orders OrderCreator, cfg WorkerConfig, logger ectologger.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.RetryBaseWait <= 0 {
		cfg.RetryBaseWait = 5 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	return &Worker{
		store:    store,
		orders:   orders,
		cfg:      cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		stoppedC: make(chan struct{}),
	}
}

// Start launches the polling loops
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.logger.WithContext(ctx).Infof("Starting order queue worker: workers=%d poll=%s", w.cfg.WorkerCount, w.cfg.PollInterval)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.WorkerCount; i++ {
		wg.Add(1)
		go w.loop(ctx, &wg)
	}
	go func() {
		wg.Wait()
		close(w.stoppedC)
	}()
	return nil
}

// Stop stops the worker gracefully, waiting for in-flight jobs
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	select {
	case <-w.stoppedC:
		w.logger.WithContext(ctx).Info("Order queue worker stopped")
		return nil
	case <-ctx.Done():
		w.logger.WithContext(ctx).Warn("Order queue worker shutdown timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the worker is running
func (w *Worker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Worker) loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
		}

		job, err := w.store.Next(ctx)
		if err != nil {
			w.logger.WithContext(ctx).WithError(err).Warn("Failed to poll order queue")
			continue
		}
		if job == nil {
			continue
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *models.OrderJob) {
	ctx = appctx.SetJobID(ctx, job.JobID)
	ctx, span := tracing.StartSpan(ctx, "queue.ProcessJob")
	defer span.End()

	metrics.QueueJobsInFlight.Inc()
	defer metrics.QueueJobsInFlight.Dec()

	log := w.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id":          job.JobID,
		"customer_number": job.Request.CustomerNumber,
		"attempts":        job.Attempts,
	})

	job.Attempts++
	job.Status = models.JobStatusProcessing
	now := time.Now().UTC()
	job.ProcessedAt = &now
	if err := w.store.Save(ctx, job); err != nil {
		log.WithError(err).Warn("Failed to mark job processing")
	}

	resp, err := w.orders.Create(ctx, &job.Request)
	if err != nil {
		// The order service folds failures into the response; an error
		// here is an infrastructure fault around the call itself
		resp = &models.SalesOrderResponse{
			Success:      false,
			ErrorCode:    models.OrderErrorUnexpected,
			ErrorMessage: err.Error(),
		}
	}
	job.Result = resp

	switch {
	case resp.Success:
		job.Status = models.JobStatusCompleted
		job.Error = ""
		job.NextRetryAt = nil
		metrics.QueueJobsProcessed.WithLabelValues("completed").Inc()
		log.WithField("sales_order_number", resp.SalesOrderNumber).Info("Job completed")

	case !retryable(resp.ErrorCode) || job.Attempts >= job.MaxAttempts:
		job.Status = models.JobStatusFailed
		job.Error = resp.ErrorMessage
		job.NextRetryAt = nil
		metrics.QueueJobsProcessed.WithLabelValues("failed").Inc()
		log.WithFields(map[string]any{
			"error_code":    resp.ErrorCode,
			"error_message": resp.ErrorMessage,
		}).Error("Job failed")

	default:
		delay := w.retryDelay(job.Attempts)
		retryAt := time.Now().UTC().Add(delay)
		job.Status = models.JobStatusRetrying
		job.Error = resp.ErrorMessage
		job.NextRetryAt = &retryAt
		metrics.QueueJobsProcessed.WithLabelValues("retried").Inc()
		log.WithFields(map[string]any{
			"error_code": resp.ErrorCode,
			"retry_at":   retryAt,
		}).Warn("Job will be retried")
		w.requeueAfter(ctx, job, delay)
	}

	if err := w.store.Save(ctx, job); err != nil {
		log.WithError(err).Error("Failed to save job result")
	}
}

// requeueAfter pushes the job back onto its list after the backoff
// delay. On shutdown the job is requeued immediately so it is not lost.
func (w *Worker) requeueAfter(ctx context.Context, job *models.OrderJob, delay time.Duration) {
	go func() {
		select {
		case <-time.After(delay):
		case <-w.stopCh:
		}
		// Detached from the request context on purpose
		requeueCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := w.store.Requeue(requeueCtx, job); err != nil {
			w.logger.WithContext(ctx).WithError(err).WithField("job_id", job.JobID).Error("Failed to requeue job")
		}
	}()
}

func (w *Worker) retryDelay(attempts int) time.Duration {
	delay := w.cfg.RetryBaseWait
	for i := 1; i < attempts; i++ {
		delay *= 2
	}
	return delay
}

// retryable reports whether a failure class can succeed on a later
// attempt. Write rejections are deterministic business failures.
func retryable(errorCode string) bool {
	switch errorCode {
	case models.OrderErrorBusy, models.OrderErrorSession, models.OrderErrorUnexpected:
		return true
	default:
		return false
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}
