package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
	"github.com/HF-CYGG/Dawn-Course-sub000/pkg/jobs"
)

const invalidationJobType = "cache.invalidate_term"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// TermOccurrencesKey is where the occurrences of a term are cached.
func TermOccurrencesKey(termID string) string {
	return fmt.Sprintf("timetable:term:%s:occurrences", termID)
}

// TermGridKey is where a rendered week of a term is cached.
func TermGridKey(termID string, week int, hideNonCurrent bool) string {
	return fmt.Sprintf("timetable:term:%s:grid:%d:%t", termID, week, hideNonCurrent)
}

func termPattern(termID string) string {
	return fmt.Sprintf("timetable:term:%s:*", termID)
}

// CacheService wraps the cache with metrics and retried invalidation.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	retries    jobEnqueuer
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// WithRetryQueue routes failed invalidations to queue.
func (s *CacheService) WithRetryQueue(queue jobEnqueuer) *CacheService {
	s.retries = queue
	return s
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to read a cached entry and reports whether it was a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateTerm drops everything cached for a term. When Redis refuses the
// delete, the work is handed to the retry queue; the caller never fails.
func (s *CacheService) InvalidateTerm(ctx context.Context, termID string) {
	if !s.Enabled() || termID == "" {
		return
	}
	if err := s.Invalidate(ctx, termPattern(termID)); err == nil {
		return
	}
	if s.retries == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Key: termID, Type: invalidationJobType, Payload: termID}
	if err := s.retries.Enqueue(job); err != nil {
		s.logger.Error("cache invalidation could not be queued", zap.String("term_id", termID), zap.Error(err))
	}
}

// HandleInvalidationJob is the queue handler for deferred invalidations.
func (s *CacheService) HandleInvalidationJob(ctx context.Context, job jobs.Job) error {
	termID, ok := job.Payload.(string)
	if !ok || termID == "" {
		return nil
	}
	return s.Invalidate(ctx, termPattern(termID))
}
