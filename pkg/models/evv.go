package models

import "time"

// ShiftStatus is the lifecycle state of an EVV shift
type ShiftStatus string

const (
	ShiftScheduled ShiftStatus = "scheduled"
	ShiftActive    ShiftStatus = "active"
	ShiftCompleted ShiftStatus = "completed"
	ShiftCancelled ShiftStatus = "cancelled"
)

// EventType is the kind of visit event written to the EVV log
type EventType string

const (
	EventClockIn    EventType = "clock_in"
	EventClockOut   EventType = "clock_out"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
)

// VerificationStatus records whether a GPS fix was accepted
type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "verified"
	VerificationPending  VerificationStatus = "pending"
	VerificationFlagged  VerificationStatus = "flagged"
)

// Client represents a care recipient. The EVV flow only reads it.
type Client struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	MedicaidID string    `gorm:"size:64;not null" json:"medicaid_id"`
	Address    string    `json:"address"`
	Phone      *string   `json:"phone,omitempty"`
	CareNotes  *string   `gorm:"type:text" json:"care_notes,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Coords returns the geocoded address of the client, if known
func (c *Client) Coords() *Coordinates {
	if c == nil || c.Latitude == nil || c.Longitude == nil {
		return nil
	}
	return &Coordinates{Lat: *c.Latitude, Lng: *c.Longitude}
}

// EVVShift is the authoritative record of one worker-client visit
type EVVShift struct {
	ID                string      `gorm:"primaryKey;size:36" json:"id"`
	WorkerID          string      `gorm:"size:64;not null;index" json:"worker_id"`
	ClientID          string      `gorm:"size:64;not null;index" json:"client_id"`
	FacilityName      string      `json:"facility_name"`
	ShiftDate         string      `gorm:"size:10" json:"shift_date"`
	ScheduledStart    time.Time   `json:"scheduled_start"`
	ScheduledEnd      time.Time   `json:"scheduled_end"`
	ActualClockIn     *time.Time  `json:"actual_clock_in"`
	ActualClockOut    *time.Time  `json:"actual_clock_out"`
	ClockInLatitude   *float64    `json:"clock_in_latitude"`
	ClockInLongitude  *float64    `json:"clock_in_longitude"`
	ClockInAddress    *string     `json:"clock_in_address"`
	ClockOutLatitude  *float64    `json:"clock_out_latitude"`
	ClockOutLongitude *float64    `json:"clock_out_longitude"`
	ClockOutAddress   *string     `json:"clock_out_address"`
	Status            ShiftStatus `gorm:"size:16;not null;index" json:"status"`
	MedicaidID        string      `gorm:"size:64" json:"medicaid_id"`
	ServiceType       string      `gorm:"size:64" json:"service_type"`
	Notes             *string     `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TableName pins the table name used by the active-shift index
func (EVVShift) TableName() string {
	return "evv_shifts"
}

// EVVLogEntry is an append-only audit record of one lifecycle transition
type EVVLogEntry struct {
	ID                 string             `gorm:"primaryKey;size:36" json:"id"`
	ShiftID            string             `gorm:"size:36;not null;index" json:"shift_id"`
	WorkerID           string             `gorm:"size:64;not null;index" json:"worker_id"`
	EventType          EventType          `gorm:"size:16;not null" json:"event_type"`
	EventTimestamp     time.Time          `gorm:"not null" json:"event_timestamp"`
	GPSLatitude        float64            `gorm:"not null" json:"gps_latitude"`
	GPSLongitude       float64            `gorm:"not null" json:"gps_longitude"`
	LocationAddress    *string            `json:"location_address"`
	VerificationStatus VerificationStatus `gorm:"size:16;not null" json:"verification_status"`
	CreatedAt          time.Time          `json:"created_at"`
}

// TableName keeps log entries in their own audit table
func (EVVLogEntry) TableName() string {
	return "evv_logs"
}
