package services

import (
	"context"
	"fmt"
	"time"

	"github.com/graficaops/envelopamento-api/internal/jobs"
	"github.com/graficaops/envelopamento-api/internal/repository"
	"github.com/graficaops/envelopamento-api/pkg/logger"
)

const (
	draftPurgeInterval   = 6 * time.Hour
	sessionSweepInterval = 10 * time.Minute
	sessionMaxIdle       = 2 * time.Hour
)

type JobService struct {
	worker    *jobs.Worker
	slots     repository.DraftSlotRepository
	sessions  *DraftSessions
	retention time.Duration
}

func NewJobService(worker *jobs.Worker, slots repository.DraftSlotRepository, sessions *DraftSessions, retentionDays int) *JobService {
	return &JobService{
		worker:    worker,
		slots:     slots,
		sessions:  sessions,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start schedules the maintenance jobs
func (s *JobService) Start() {
	s.worker.ScheduleEveryImmediate(draftPurgeInterval, s.PurgeStaleDrafts)
	s.worker.ScheduleEvery(sessionSweepInterval, s.SweepIdleSessions)
}

// PurgeStaleDrafts deletes autosaved drafts untouched for longer than the retention
func (s *JobService) PurgeStaleDrafts(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)
	n, err := s.slots.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge draft slots: %w", err)
	}
	if n > 0 {
		logger.Info("Purged stale draft slots", "count", n, "cutoff", cutoff)
	}
	return nil
}

// SweepIdleSessions closes quote sessions nobody touched recently
func (s *JobService) SweepIdleSessions(ctx context.Context) error {
	if n := s.sessions.Sweep(sessionMaxIdle); n > 0 {
		logger.Info("Closed idle quote sessions", "count", n)
	}
	return nil
}

func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"completed_jobs": stats.CompletedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
		"max_concurrent": stats.MaxConcurrent,
		"open_sessions":  s.sessions.Len(),
	}
}
