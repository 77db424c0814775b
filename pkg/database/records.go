package database

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/carematch-api/pkg/models"
)

// Posting statuses. Only open postings are offered for matching.
const (
	PostingOpen   = "open"
	PostingFilled = "filled"
	PostingClosed = "closed"
)

// WorkerRecord is the stored form of a WorkerProfile
type WorkerRecord struct {
	ID                  string                                   `gorm:"primaryKey;size:64" json:"id"`
	Name                string                                   `json:"name"`
	City                string                                   `gorm:"index" json:"city"`
	State               string                                   `json:"state"`
	ZipCode             string                                   `json:"zip_code"`
	Latitude            *float64                                 `json:"latitude"`
	Longitude           *float64                                 `json:"longitude"`
	Certifications      datatypes.JSONSlice[string]              `json:"certifications"`
	Skills              datatypes.JSONSlice[string]              `json:"skills"`
	Availability        datatypes.JSONType[*models.Availability] `json:"availability"`
	MaxDistance         float64                                  `json:"max_distance"`
	RateMin             float64                                  `json:"rate_min"`
	RateMax             float64                                  `json:"rate_max"`
	PreferredShiftTypes datatypes.JSONSlice[string]              `json:"preferred_shift_types"`
	PreferredSchedule   datatypes.JSONSlice[string]              `json:"preferred_schedule"`
	Rating              *float64                                 `json:"rating"`
	CompletionRate      *float64                                 `json:"completion_rate"`
	CreatedAt           time.Time                                `json:"created_at"`
	UpdatedAt           time.Time                                `json:"updated_at"`
}

// TableName stores profiles in the workers table
func (WorkerRecord) TableName() string {
	return "workers"
}

// NewWorkerRecord converts a profile for storage
func NewWorkerRecord(p models.WorkerProfile) *WorkerRecord {
	r := &WorkerRecord{
		ID:                  p.ID,
		Name:                p.Name,
		City:                p.Location.City,
		State:               p.Location.State,
		ZipCode:             p.Location.ZipCode,
		Certifications:      datatypes.JSONSlice[string](p.Certifications),
		Skills:              datatypes.JSONSlice[string](p.Skills),
		Availability:        datatypes.NewJSONType(p.Availability),
		MaxDistance:         p.Preferences.MaxDistance,
		RateMin:             p.Preferences.PreferredRateRange.Min,
		RateMax:             p.Preferences.PreferredRateRange.Max,
		PreferredShiftTypes: datatypes.JSONSlice[string](p.Preferences.PreferredShiftTypes),
		PreferredSchedule:   datatypes.JSONSlice[string](p.Preferences.PreferredSchedule),
	}
	if p.Location.Coords != nil {
		r.Latitude = &p.Location.Coords.Lat
		r.Longitude = &p.Location.Coords.Lng
	}
	if p.Stats != nil {
		r.Rating = &p.Stats.Rating
		r.CompletionRate = &p.Stats.CompletionRate
	}
	return r
}

// Profile converts the record back to the matching input
func (r *WorkerRecord) Profile() models.WorkerProfile {
	p := models.WorkerProfile{
		ID:   r.ID,
		Name: r.Name,
		Location: models.Location{
			City:    r.City,
			State:   r.State,
			ZipCode: r.ZipCode,
		},
		Certifications: []string(r.Certifications),
		Skills:         []string(r.Skills),
		Availability:   r.Availability.Data(),
		Preferences: models.Preferences{
			MaxDistance:         r.MaxDistance,
			PreferredRateRange:  models.RateRange{Min: r.RateMin, Max: r.RateMax},
			PreferredShiftTypes: []string(r.PreferredShiftTypes),
			PreferredSchedule:   []string(r.PreferredSchedule),
		},
	}
	if r.Latitude != nil && r.Longitude != nil {
		p.Location.Coords = &models.Coordinates{Lat: *r.Latitude, Lng: *r.Longitude}
	}
	if r.Rating != nil {
		p.Stats = &models.WorkerStats{Rating: *r.Rating}
		if r.CompletionRate != nil {
			p.Stats.CompletionRate = *r.CompletionRate
		}
	}
	return p
}

// ShiftPosting is an open shift offered to workers
type ShiftPosting struct {
	ID                  string                      `gorm:"primaryKey;size:64" json:"id"`
	Title               string                      `gorm:"not null" json:"title"`
	ClientName          string                      `json:"client_name"`
	Date                string                      `gorm:"size:10;index" json:"date"`
	StartTime           string                      `gorm:"size:8" json:"start_time"`
	EndTime             string                      `gorm:"size:8" json:"end_time"`
	City                string                      `gorm:"index" json:"city"`
	Address             string                      `json:"address"`
	Latitude            *float64                    `json:"latitude"`
	Longitude           *float64                    `json:"longitude"`
	HourlyRate          float64                     `json:"hourly_rate"`
	ShiftType           string                      `json:"shift_type"`
	RequiredCredentials datatypes.JSONSlice[string] `json:"required_credentials"`
	Urgency             models.Urgency              `gorm:"size:8" json:"urgency"`
	Status              string                      `gorm:"size:16;not null;default:open;index" json:"status"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// NewShiftPosting converts a shift into an open posting
func NewShiftPosting(s models.Shift) *ShiftPosting {
	p := &ShiftPosting{
		ID:                  s.ID,
		Title:               s.Title,
		ClientName:          s.ClientName,
		Date:                s.Date,
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		City:                s.City,
		Address:             s.Address,
		HourlyRate:          s.HourlyRate,
		ShiftType:           s.ShiftType,
		RequiredCredentials: datatypes.JSONSlice[string](s.RequiredCredentials),
		Urgency:             s.Urgency,
		Status:              PostingOpen,
	}
	if s.Coords != nil {
		p.Latitude = &s.Coords.Lat
		p.Longitude = &s.Coords.Lng
	}
	return p
}

// Shift converts the posting to the matching input
func (p *ShiftPosting) Shift() models.Shift {
	s := models.Shift{
		ID:                  p.ID,
		Title:               p.Title,
		ClientName:          p.ClientName,
		Date:                p.Date,
		StartTime:           p.StartTime,
		EndTime:             p.EndTime,
		City:                p.City,
		Address:             p.Address,
		HourlyRate:          p.HourlyRate,
		ShiftType:           p.ShiftType,
		RequiredCredentials: []string(p.RequiredCredentials),
		Urgency:             p.Urgency,
	}
	if p.Latitude != nil && p.Longitude != nil {
		s.Coords = &models.Coordinates{Lat: *p.Latitude, Lng: *p.Longitude}
	}
	return s
}

// Catalog stores the reference data around matching and EVV: workers, postings and clients
type Catalog struct {
	DB *gorm.DB
}

// NewCatalog creates a catalog on db
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{DB: db}
}

// SaveWorker creates or replaces a worker profile
func (c *Catalog) SaveWorker(ctx context.Context, p models.WorkerProfile) error {
	return c.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(NewWorkerRecord(p)).Error
}

// GetWorker loads a worker profile
func (c *Catalog) GetWorker(ctx context.Context, id string) (models.WorkerProfile, error) {
	var r WorkerRecord
	if err := c.DB.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return models.WorkerProfile{}, notFound(err)
	}
	return r.Profile(), nil
}

// WorkerExists reports whether a worker profile is stored
func (c *Catalog) WorkerExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := c.DB.WithContext(ctx).Model(&WorkerRecord{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// SavePosting creates or replaces a shift posting
func (c *Catalog) SavePosting(ctx context.Context, p *ShiftPosting) error {
	if p.Status == "" {
		p.Status = PostingOpen
	}
	return c.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
}

// OpenShifts returns every open posting, earliest first
func (c *Catalog) OpenShifts(ctx context.Context) ([]models.Shift, error) {
	var postings []ShiftPosting
	err := c.DB.WithContext(ctx).
		Where("status = ?", PostingOpen).
		Order("date asc, start_time asc, id asc").
		Find(&postings).Error
	if err != nil {
		return nil, err
	}

	shifts := make([]models.Shift, 0, len(postings))
	for i := range postings {
		shifts = append(shifts, postings[i].Shift())
	}
	return shifts, nil
}

// CreateClient inserts a care recipient, updating it when the id already exists
func (c *Catalog) CreateClient(ctx context.Context, client *models.Client) error {
	return c.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "medicaid_id", "address", "phone", "care_notes", "latitude", "longitude", "is_active", "updated_at"}),
	}).Create(client).Error
}

// SetClientActive toggles whether a client can receive new visits
func (c *Catalog) SetClientActive(ctx context.Context, id string, active bool) error {
	res := c.DB.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
