package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/arnavshah/carematch-api/pkg/evv"
	"github.com/arnavshah/carematch-api/pkg/models"
)

// EVVStore persists EVV shifts and their audit log with gorm
type EVVStore struct {
	DB *gorm.DB
}

// NewEVVStore creates an EVV store on db
func NewEVVStore(db *gorm.DB) *EVVStore {
	return &EVVStore{DB: db}
}

var _ evv.Store = (*EVVStore)(nil)

// GetClient loads a client by id
func (s *EVVStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

// ActiveShift loads the worker's shift in active status
func (s *EVVStore) ActiveShift(ctx context.Context, workerID string) (*models.EVVShift, error) {
	var shift models.EVVShift
	err := s.DB.WithContext(ctx).
		Where("worker_id = ? AND status = ?", workerID, models.ShiftActive).
		First(&shift).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &shift, nil
}

// GetShift loads a shift by id
func (s *EVVStore) GetShift(ctx context.Context, id string) (*models.EVVShift, error) {
	var shift models.EVVShift
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&shift).Error; err != nil {
		return nil, notFound(err)
	}
	return &shift, nil
}

// CreateActiveShift inserts shift unless the worker already has an active one.
// The partial unique index catches concurrent inserts the check misses.
func (s *EVVStore) CreateActiveShift(ctx context.Context, shift *models.EVVShift) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.EVVShift{}).
			Where("worker_id = ? AND status = ?", shift.WorkerID, models.ShiftActive).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return evv.ErrActiveShiftExists
		}
		return tx.Create(shift).Error
	})
	if err != nil && !errors.Is(err, evv.ErrActiveShiftExists) && isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", evv.ErrActiveShiftExists, err)
	}
	return err
}

// CompleteShift writes the clock-out fields of a shift that is still active
func (s *EVVStore) CompleteShift(ctx context.Context, shift *models.EVVShift) error {
	res := s.DB.WithContext(ctx).
		Model(&models.EVVShift{}).
		Where("id = ? AND status = ?", shift.ID, models.ShiftActive).
		Updates(map[string]interface{}{
			"status":              shift.Status,
			"actual_clock_out":    shift.ActualClockOut,
			"clock_out_latitude":  shift.ClockOutLatitude,
			"clock_out_longitude": shift.ClockOutLongitude,
			"clock_out_address":   shift.ClockOutAddress,
			"notes":               shift.Notes,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendLog inserts an audit entry
func (s *EVVStore) AppendLog(ctx context.Context, entry *models.EVVLogEntry) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}

// ListLogs returns the entries of a shift in event order
func (s *EVVStore) ListLogs(ctx context.Context, shiftID string) ([]models.EVVLogEntry, error) {
	var entries []models.EVVLogEntry
	err := s.DB.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("event_timestamp asc, created_at asc").
		Find(&entries).Error
	return entries, err
}
