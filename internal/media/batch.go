package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/centrio/centrio-backend/pkg/db/models"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
)

// BatchInput describes a multi-file upload sharing one uploader and tenant.
type BatchInput struct {
	Files      []*UploadFile
	UploaderID uuid.UUID
	TenantID   *uuid.UUID
}

// BatchFailure reports why one file of a batch was not ingested.
type BatchFailure struct {
	Index    int
	FileName string
	Err      error
}

// BatchResult lists the created assets in input order plus per-file failures.
type BatchResult struct {
	Created  []models.MediaAsset
	Failures []BatchFailure
}

// Err combines every per-file failure, or returns nil when all files succeeded.
func (r *BatchResult) Err() error {
	if r == nil {
		return nil
	}
	var combined error
	for _, f := range r.Failures {
		combined = multierr.Append(combined, fmt.Errorf("file %d (%s): %w", f.Index, f.FileName, f.Err))
	}
	return combined
}

type batchSlot struct {
	asset *models.MediaAsset
	err   error
}

// IngestBatch ingests every file independently. A failed file never undoes
// the files that succeeded. Work runs on a bounded pool; results keep input order.
func (s *service) IngestBatch(ctx context.Context, input BatchInput) (*BatchResult, error) {
	if len(input.Files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required")
	}
	if input.UploaderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "uploader identity missing")
	}

	slots := make([]batchSlot, len(input.Files))
	var g errgroup.Group
	g.SetLimit(s.batchWorkers)
	for i, file := range input.Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slots[i].err = err
				return nil
			}
			asset, err := s.Ingest(ctx, IngestInput{
				File:       file,
				UploaderID: input.UploaderID,
				TenantID:   input.TenantID,
			})
			slots[i] = batchSlot{asset: asset, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{Created: make([]models.MediaAsset, 0, len(slots))}
	for i, slot := range slots {
		if slot.err != nil {
			name := ""
			if input.Files[i] != nil {
				name = input.Files[i].FileName
			}
			result.Failures = append(result.Failures, BatchFailure{Index: i, FileName: name, Err: slot.err})
			continue
		}
		result.Created = append(result.Created, *slot.asset)
	}

	if len(result.Failures) > 0 {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"created": len(result.Created),
			"failed":  len(result.Failures),
		}), "media batch partially ingested")
	}
	return result, nil
}
