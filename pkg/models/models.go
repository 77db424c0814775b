package models

// Coordinates is a WGS84 point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is where a worker lives; matching only looks at the city
type Location struct {
	City    string       `json:"city"`
	State   string       `json:"state,omitempty"`
	ZipCode string       `json:"zip_code,omitempty"`
	Coords  *Coordinates `json:"coords,omitempty"`
}

// Availability flags are independent and may all be set at once
type Availability struct {
	FullTime bool `json:"full_time"`
	PartTime bool `json:"part_time"`
	Weekends bool `json:"weekends"`
	Evenings bool `json:"evenings"`
}

// RateRange is an hourly pay range. Min <= Max is expected and not checked.
type RateRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Preferences holds what a worker wants from a shift
type Preferences struct {
	MaxDistance         float64   `json:"max_distance"`
	PreferredRateRange  RateRange `json:"preferred_rate_range"`
	PreferredShiftTypes []string  `json:"preferred_shift_types"`
	PreferredSchedule   []string  `json:"preferred_schedule,omitempty"`
}

// WorkerStats are performance figures collected for a worker
type WorkerStats struct {
	Rating         float64 `json:"rating"`
	CompletionRate float64 `json:"completion_rate"`
}

// WorkerProfile represents a DSP looking for shifts
type WorkerProfile struct {
	ID             string        `json:"id"`
	Name           string        `json:"name,omitempty"`
	Location       Location      `json:"location"`
	Certifications []string      `json:"certifications"`
	Skills         []string      `json:"skills,omitempty"`
	Availability   *Availability `json:"availability,omitempty"`
	Preferences    Preferences   `json:"preferences"`
	Stats          *WorkerStats  `json:"stats,omitempty"`
}

// Urgency of an open shift
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Shift represents an open posting a worker can be matched to.
// Date is YYYY-MM-DD, StartTime and EndTime are HH:MM on that same day.
type Shift struct {
	ID                  string       `json:"id"`
	Title               string       `json:"title"`
	ClientName          string       `json:"client_name"`
	Date                string       `json:"date"`
	StartTime           string       `json:"start_time"`
	EndTime             string       `json:"end_time"`
	City                string       `json:"city"`
	Address             string       `json:"address"`
	Coords              *Coordinates `json:"coords,omitempty"`
	HourlyRate          float64      `json:"hourly_rate"`
	ShiftType           string       `json:"shift_type"`
	RequiredCredentials []string     `json:"required_credentials"`
	Urgency             Urgency      `json:"urgency"`
}

// MatchScore is the scored compatibility of a worker with one shift
type MatchScore struct {
	ShiftID string   `json:"shift_id"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
	Shift   *Shift   `json:"shift"`
}

// MatchInput is the data structure for the matching endpoint
type MatchInput struct {
	Worker   WorkerProfile `json:"worker"`
	Shifts   []Shift       `json:"shifts"`
	MinScore *float64      `json:"min_score,omitempty"`
	Limit    int           `json:"limit,omitempty"`
}

// MatchResponse is the data structure for the matching result
type MatchResponse struct {
	WorkerID  string       `json:"worker_id"`
	Evaluated int          `json:"evaluated"`
	Matches   []MatchScore `json:"matches"`
}
