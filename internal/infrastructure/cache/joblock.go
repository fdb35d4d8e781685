package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// jobLockKeyPrefix is the prefix for all scheduler job lock keys
const jobLockKeyPrefix = "job_lock:"

// JobLock provides Redis-based locking so that a scheduled job runs on at
// most one worker replica at a time.
type JobLock struct {
	client *redis.Client
}

// NewJobLock creates a new JobLock instance.
func NewJobLock(client *redis.Client) *JobLock {
	return &JobLock{client: client}
}

func (l *JobLock) buildKey(jobName string) string {
	return jobLockKeyPrefix + jobName
}

// TryAcquire atomically acquires the lock for the named job using SetNX.
// Returns true if this replica holds the lock and should run the job.
// The TTL bounds the lock lifetime in case the holder crashes mid-run.
func (l *JobLock) TryAcquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.buildKey(jobName), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	return acquired, nil
}

// Release releases the lock for the named job.
func (l *JobLock) Release(ctx context.Context, jobName string) error {
	if err := l.client.Del(ctx, l.buildKey(jobName)).Err(); err != nil {
		return fmt.Errorf("failed to release job lock: %w", err)
	}
	return nil
}

// RemainingTTL returns how long the lock is still held, 0 if free.
func (l *JobLock) RemainingTTL(ctx context.Context, jobName string) (time.Duration, error) {
	ttl, err := l.client.TTL(ctx, l.buildKey(jobName)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get job lock ttl: %w", err)
	}

	// TTL returns -2 if key doesn't exist, -1 if no TTL set
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
