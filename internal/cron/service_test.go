package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centrio/centrio-backend/pkg/logger"
	"github.com/centrio/centrio-backend/pkg/metrics"
	"github.com/centrio/centrio-backend/pkg/storage/local"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	f.acquires++
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type failingJob struct {
	name string
	runs int
}

func (f *failingJob) Name() string { return f.name }

func (f *failingJob) Run(context.Context) (Report, error) {
	f.runs++
	return Report{"remove_failed": 1}, errors.New("blob root unreadable")
}

func itemsCounter(t *testing.T, reg *prometheus.Registry, job, action string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "cron_job_items_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, map[string]string{"job": job, "action": action}) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func runsCounter(t *testing.T, reg *prometheus.Registry, job, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "cron_job_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, map[string]string{"job": job, "outcome": outcome}) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, l := range m.GetLabel() {
		if v, ok := want[l.GetName()]; ok && v == l.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func TestRunOnceSweepsOrphansAndRecordsTallies(t *testing.T) {
	now := time.Now()
	store, err := local.New(local.Options{Root: t.TempDir()})
	require.NoError(t, err)
	live := storeBlob(t, store, 2*time.Hour, now)
	orphan := storeBlob(t, store, 2*time.Hour, now)
	fresh := storeBlob(t, store, time.Minute, now)

	sweep := newSweepJob(t, store, &fakeCatalog{active: map[string]struct{}{live: {}}}, now)
	registry, err := NewRegistry(sweep)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	res, err := service.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Empty(t, res.Failed)
	assert.Equal(t, Report{"scanned": 3, "young": 1, "kept": 1, "removed": 1}, res.Reports["orphan-blob-sweep"])

	assert.True(t, store.Exists(live))
	assert.True(t, store.Exists(fresh))
	assert.False(t, store.Exists(orphan))

	assert.Equal(t, float64(1), itemsCounter(t, reg, "orphan-blob-sweep", "removed"))
	assert.Equal(t, float64(1), itemsCounter(t, reg, "orphan-blob-sweep", "kept"))
	assert.Equal(t, float64(3), itemsCounter(t, reg, "orphan-blob-sweep", "scanned"))
	assert.Equal(t, float64(1), runsCounter(t, reg, "orphan-blob-sweep", metrics.OutcomeSuccess))
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunOnceRunsEveryJobWhenOneFails(t *testing.T) {
	now := time.Now()
	store, err := local.New(local.Options{Root: t.TempDir()})
	require.NoError(t, err)
	orphan := storeBlob(t, store, 2*time.Hour, now)

	broken := &failingJob{name: "blob-audit"}
	registry, err := NewRegistry(broken, newSweepJob(t, store, &fakeCatalog{}, now))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     &fakeLock{},
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	res, err := service.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"blob-audit"}, res.Failed)
	assert.Equal(t, 1, broken.runs)
	assert.False(t, store.Exists(orphan))

	assert.Equal(t, float64(1), runsCounter(t, reg, "blob-audit", metrics.OutcomeFailure))
	assert.Equal(t, float64(1), itemsCounter(t, reg, "blob-audit", "remove_failed"))
	assert.Equal(t, float64(1), runsCounter(t, reg, "orphan-blob-sweep", metrics.OutcomeSuccess))
}

func TestRunOnceSkipsWhileAnotherReplicaHoldsTheLock(t *testing.T) {
	now := time.Now()
	store, err := local.New(local.Options{Root: t.TempDir()})
	require.NoError(t, err)
	orphan := storeBlob(t, store, 2*time.Hour, now)

	registry, err := NewRegistry(newSweepJob(t, store, &fakeCatalog{}, now))
	require.NoError(t, err)
	lock := &fakeLock{held: true}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
	})
	require.NoError(t, err)

	res, err := service.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.True(t, store.Exists(orphan))
	assert.Zero(t, lock.releases)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.Nop()})
	assert.Error(t, err)

	service, err := NewService(ServiceParams{Logger: logger.Nop(), Lock: &fakeLock{}})
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, service.interval)
	assert.Empty(t, service.registry.Jobs())
}
