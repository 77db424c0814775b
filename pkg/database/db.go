package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arnavshah/carematch-api/pkg/config"
	"github.com/arnavshah/carematch-api/pkg/evv"
	"github.com/arnavshah/carematch-api/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = evv.ErrRecordNotFound

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalShifts  int    `gorm:"default:0" json:"total_shifts"`
	TotalWorkers int    `gorm:"default:0" json:"total_workers"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// activeShiftIndex allows at most one active EVV shift per worker.
// Both postgres and sqlite support partial indexes.
const activeShiftIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_evv_shifts_one_active ON evv_shifts (worker_id) WHERE status = 'active'`

// Open connects to postgres when databaseURL is set, otherwise to sqlite at dataPath
func Open(databaseURL, dataPath string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	if databaseURL != "" {
		return gorm.Open(postgres.New(postgres.Config{
			DriverName:           "postgres",
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), gormConfig)
	}

	if dataPath == "" {
		dataPath = "carematch.db"
	}
	return gorm.Open(sqlite.Open(dataPath), gormConfig)
}

// Migrate creates or updates every table and the active shift index
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&APIKey{}, &APIUsage{}, &MasterUser{},
		&models.Client{}, &models.EVVShift{}, &models.EVVLogEntry{},
		&WorkerRecord{}, &ShiftPosting{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(activeShiftIndex).Error; err != nil {
		return fmt.Errorf("create active shift index: %w", err)
	}
	return nil
}

// InitDB initializes the database connection and migrates the schema
func InitDB(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	driver := "sqlite"
	if cfg.DatabaseURL != "" {
		driver = "postgres"
	}
	log.Info().Str("driver", driver).Msg("database ready")
	return db
}

// isUniqueViolation reports whether err is a unique constraint failure on any supported driver
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps gorm's missing row error onto ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
