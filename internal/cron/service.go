package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/centrio/centrio-backend/pkg/logger"
	"github.com/centrio/centrio-backend/pkg/metrics"
)

const defaultInterval = time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs the registered maintenance jobs on a fixed cadence, one
// replica at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

// CycleResult summarises one locked pass over the registry.
type CycleResult struct {
	Skipped bool
	Failed  []string
	Reports map[string]Report
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{index: map[string]Job{}}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run performs a cycle immediately and then once per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// RunOnce performs a single locked cycle.
func (s *Service) RunOnce(ctx context.Context) (*CycleResult, error) {
	return s.runCycle(ctx)
}

func (s *Service) tick(ctx context.Context) {
	res, err := s.runCycle(ctx)
	if err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
		return
	}
	if len(res.Failed) > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "failed_jobs", res.Failed), "scheduled run finished with failed jobs")
	}
}

func (s *Service) runCycle(ctx context.Context) (*CycleResult, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance holds the lock; skipping this cycle")
		return &CycleResult{Skipped: true}, nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	res := &CycleResult{Reports: map[string]Report{}}
	for _, job := range s.registry.Jobs() {
		report, err := s.runJob(ctx, job)
		res.Reports[job.Name()] = report
		if err != nil {
			res.Failed = append(res.Failed, job.Name())
		}
	}
	return res, nil
}

func (s *Service) runJob(ctx context.Context, job Job) (Report, error) {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	start := time.Now()
	report, err := job.Run(jobCtx)
	duration := time.Since(start)

	s.metrics.ObserveDuration(name, duration)
	fields := map[string]any{"duration_ms": duration.Milliseconds()}
	for _, action := range report.Actions() {
		s.metrics.AddItems(name, action, report[action])
		fields["items_"+action] = report[action]
	}
	jobCtx = s.logg.WithFields(jobCtx, fields)

	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(name)
		return report, err
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(name)
	return report, nil
}
