package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/centrio/centrio-backend/pkg/logger"
	"github.com/centrio/centrio-backend/pkg/storage/local"
)

const (
	orphanSweepJobName      = "orphan-blob-sweep"
	defaultOrphanGrace      = 24 * time.Hour
	defaultOrphanLookupSize = 500
	defaultRootCheckSample  = 16
)

// ErrStorageRootMismatch stops the sweep when active catalog rows point at
// blobs the store cannot see, which happens when the root moved or is unmounted.
var ErrStorageRootMismatch = errors.New("catalog storage paths do not resolve under the blob root")

type sweepBlobStore interface {
	Walk(ctx context.Context, fn func(local.BlobInfo) error) error
	Remove(ctx context.Context, storagePath string) (bool, error)
	Exists(storagePath string) bool
}

type sweepCatalog interface {
	StoragePathsInUse(ctx context.Context, paths []string) (map[string]struct{}, error)
	SampleStoragePaths(ctx context.Context, limit int) ([]string, error)
}

// OrphanBlobSweepJobParams configure the orphan blob sweep.
type OrphanBlobSweepJobParams struct {
	Logger     *logger.Logger
	Blobs      sweepBlobStore
	Catalog    sweepCatalog
	Grace      time.Duration
	LookupSize int
	SampleSize int
}

// NewOrphanBlobSweepJob builds the job that removes blobs no active catalog
// row references. Catalog rows are never modified.
func NewOrphanBlobSweepJob(params OrphanBlobSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("media catalog required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultOrphanGrace
	}
	lookup := params.LookupSize
	if lookup <= 0 {
		lookup = defaultOrphanLookupSize
	}
	sample := params.SampleSize
	if sample <= 0 {
		sample = defaultRootCheckSample
	}
	return &orphanBlobSweepJob{
		logg:       params.Logger,
		blobs:      params.Blobs,
		catalog:    params.Catalog,
		grace:      grace,
		lookupSize: lookup,
		sampleSize: sample,
		now:        time.Now,
	}, nil
}

type orphanBlobSweepJob struct {
	logg       *logger.Logger
	blobs      sweepBlobStore
	catalog    sweepCatalog
	grace      time.Duration
	lookupSize int
	sampleSize int
	now        func() time.Time
}

func (j *orphanBlobSweepJob) Name() string { return orphanSweepJobName }

func (j *orphanBlobSweepJob) Run(ctx context.Context) (Report, error) {
	report := Report{}
	if err := j.checkRoot(ctx); err != nil {
		return report, fmt.Errorf("orphan blob sweep: %w", err)
	}

	cutoff := j.now().Add(-j.grace)
	pending := make([]string, 0, j.lookupSize)
	var failures error

	err := j.blobs.Walk(ctx, func(blob local.BlobInfo) error {
		report.Add("scanned", 1)
		if !blob.ModTime.Before(cutoff) {
			report.Add("young", 1)
			return nil
		}
		pending = append(pending, blob.StoragePath)
		if len(pending) < j.lookupSize {
			return nil
		}
		err := j.sweep(ctx, pending, report, &failures)
		pending = pending[:0]
		return err
	})
	if err == nil && len(pending) > 0 {
		err = j.sweep(ctx, pending, report, &failures)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"blobs_scanned": report["scanned"],
		"blobs_young":   report["young"],
		"blobs_kept":    report["kept"],
		"blobs_removed": report["removed"],
		"remove_failed": report["remove_failed"],
	})

	if err != nil {
		return report, fmt.Errorf("orphan blob sweep: %w", err)
	}
	if failures != nil {
		j.logg.Warn(logCtx, "orphan blob sweep finished with removal failures")
		return report, fmt.Errorf("orphan blob sweep: %w", failures)
	}
	j.logg.Info(logCtx, "orphan blob sweep complete")
	return report, nil
}

// checkRoot requires at least one sampled active path to exist in the store.
// An empty catalog passes.
func (j *orphanBlobSweepJob) checkRoot(ctx context.Context) error {
	sample, err := j.catalog.SampleStoragePaths(ctx, j.sampleSize)
	if err != nil {
		return fmt.Errorf("sample catalog paths: %w", err)
	}
	if len(sample) == 0 {
		return nil
	}
	for _, path := range sample {
		if j.blobs.Exists(path) {
			return nil
		}
	}
	j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
		"sampled":      len(sample),
		"storage_path": sample[0],
	}), "no sampled catalog path exists in the blob store; refusing to sweep")
	return ErrStorageRootMismatch
}

// sweep removes every path in batch that no active row references.
func (j *orphanBlobSweepJob) sweep(ctx context.Context, batch []string, report Report, failures *error) error {
	inUse, err := j.catalog.StoragePathsInUse(ctx, batch)
	if err != nil {
		return fmt.Errorf("query referenced paths: %w", err)
	}
	for _, path := range batch {
		if _, ok := inUse[path]; ok {
			report.Add("kept", 1)
			continue
		}
		removed, err := j.blobs.Remove(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			report.Add("remove_failed", 1)
			*failures = multierr.Append(*failures, err)
			continue
		}
		if removed {
			report.Add("removed", 1)
		}
	}
	return nil
}
