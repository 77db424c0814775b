package evv

import (
	"context"

	"github.com/arnavshah/carematch-api/pkg/models"
)

// Store persists visits and their audit log.
//
// CreateActiveShift must be atomic with respect to the worker: it returns
// ErrActiveShiftExists if the worker already has a shift in active status.
// CompleteShift only applies to a shift that is still active and returns
// ErrRecordNotFound otherwise. Log entries are insert-only.
type Store interface {
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ActiveShift(ctx context.Context, workerID string) (*models.EVVShift, error)
	GetShift(ctx context.Context, id string) (*models.EVVShift, error)
	CreateActiveShift(ctx context.Context, shift *models.EVVShift) error
	CompleteShift(ctx context.Context, shift *models.EVVShift) error
	AppendLog(ctx context.Context, entry *models.EVVLogEntry) error
	ListLogs(ctx context.Context, shiftID string) ([]models.EVVLogEntry, error)
}
