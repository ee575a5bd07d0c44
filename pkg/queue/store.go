// Package queue provides the Redis-backed order submission queue: a job
// store with priority lists and a polling worker that drains them into
// the sales order service.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/redis"
)

const (
	jobKeyPrefix = "sage:job:"
	queueHigh    = "sage:queue:high"
	queueNormal  = "sage:queue:normal"
)

// Store persists order jobs in Redis. Job bodies live under a per-job
// key with a TTL; the priority lists hold only job IDs.
type Store struct {
	client      *redis.Client
	jobTTL      time.Duration
	maxAttempts int
	logger      ectologger.Logger
}

func NewStore(client *redis.Client, jobTTL time.Duration, maxAttempts int, logger ectologger.Logger) *Store {
	if jobTTL <= 0 {
		jobTTL = 7 * 24 * time.Hour
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Store{client: client, jobTTL: jobTTL, maxAttempts: maxAttempts, logger: logger}
}

// Enqueue stores a new job and pushes its ID onto the priority list
func (s *Store) Enqueue(ctx context.Context, req *models.SalesOrderRequest, priority string) (*models.OrderJob, error) {
	if priority != models.JobPriorityHigh {
		priority = models.JobPriorityNormal
	}

	job := &models.OrderJob{
		JobID:       newJobID(),
		Status:      models.JobStatusQueued,
		Priority:    priority,
		MaxAttempts: s.maxAttempts,
		CreatedAt:   time.Now().UTC(),
		Request:     *req,
	}

	if err := s.Save(ctx, job); err != nil {
		return nil, err
	}
	if err := s.push(ctx, job); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id":          job.JobID,
		"priority":        priority,
		"customer_number": req.CustomerNumber,
	}).Info("Order job enqueued")
	return job, nil
}

// Get loads a job by ID, returning nil when it does not exist or has
// expired
func (s *Store) Get(ctx context.Context, jobID string) (*models.OrderJob, error) {
	data, err := s.client.Redis().Get(ctx, jobKeyPrefix+jobID).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}

	var job models.OrderJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// Save writes the job body and refreshes its TTL
func (s *Store) Save(ctx context.Context, job *models.OrderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	if err := s.client.Redis().Set(ctx, jobKeyPrefix+job.JobID, data, s.jobTTL).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.JobID, err)
	}
	return nil
}

// Next pops the next job ID, high priority first, and loads its body.
// Returns nil when both queues are empty.
func (s *Store) Next(ctx context.Context) (*models.OrderJob, error) {
	jobID, err := s.client.RPopFirst(ctx, queueHigh, queueNormal)
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop job: %w", err)
	}

	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		// Body expired while the ID sat in the queue
		s.logger.WithContext(ctx).WithField("job_id", jobID).Warn("Dropping queued job with expired body")
		return nil, nil
	}
	return job, nil
}

// Requeue pushes an existing job back onto its priority list
func (s *Store) Requeue(ctx context.Context, job *models.OrderJob) error {
	return s.push(ctx, job)
}

// Depth reports the current queue depths
func (s *Store) Depth(ctx context.Context) (high, normal int64, err error) {
	if high, err = s.client.LLen(ctx, queueHigh); err != nil {
		return 0, 0, err
	}
	if normal, err = s.client.LLen(ctx, queueNormal); err != nil {
		return 0, 0, err
	}
	return high, normal, nil
}

func (s *Store) push(ctx context.Context, job *models.OrderJob) error {
	key := queueNormal
	if job.Priority == models.JobPriorityHigh {
		key = queueHigh
	}
	if err := s.client.LPush(ctx, key, job.JobID); err != nil {
		return fmt.Errorf("push job %s: %w", job.JobID, err)
	}
	return nil
}

func newJobID() string {
	return fmt.Sprintf("job-%s-%s", shortID(), time.Now().UTC().Format("2006-01-02-150405"))
}
