package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/carematch-api/pkg/models"
)

// Component weights. Penalties are negative contributions.
const (
	CredentialWeight    = 40.0
	CredentialPenalty   = -20.0
	DistanceWeight      = 25.0
	DistancePenalty     = -10.0
	RateWeight          = 20.0
	RateAboveMaxWeight  = 15.0
	RateBelowMinPenalty = -5.0
	ShiftTypeWeight     = 10.0
	ScheduleWeight      = 5.0
	UrgencyBonus        = 5.0
	RatingBonus         = 3.0

	RatingBonusThreshold = 4.5
	FullShiftHours       = 8.0
	EveningHour          = 17

	MinScore = 0.0
	MaxScore = 100.0
)

// Defaults for FilterTopMatches
const (
	DefaultMinScore = 60.0
	DefaultLimit    = 10
)

// neutralSchedule is used when a worker has no availability on file
const neutralSchedule = 0.5

// Engine scores workers against shifts. It holds no mutable state of its own,
// so it is safe for concurrent use as long as its DistanceEstimator is.
type Engine struct {
	Distance DistanceEstimator
}

// NewEngine creates a new engine. A nil estimator falls back to GeoDistance.
func NewEngine(distance DistanceEstimator) *Engine {
	if distance == nil {
		distance = GeoDistance{FallbackMiles: DefaultFallbackMiles}
	}
	return &Engine{Distance: distance}
}

var defaultEngine = NewEngine(nil)

// ComputeMatches scores every shift for the worker using the default engine
func ComputeMatches(worker models.WorkerProfile, shifts []models.Shift) []models.MatchScore {
	return defaultEngine.ComputeMatches(worker, shifts)
}

// ComputeMatches scores every shift for the worker and returns them best first.
// Shifts with equal scores keep their input order.
func (e *Engine) ComputeMatches(worker models.WorkerProfile, shifts []models.Shift) []models.MatchScore {
	matches := make([]models.MatchScore, 0, len(shifts))
	for i := range shifts {
		matches = append(matches, e.Score(worker, &shifts[i]))
	}
	sortByScore(matches)
	return matches
}

// Score computes the match score of a single shift
func (e *Engine) Score(worker models.WorkerProfile, shift *models.Shift) models.MatchScore {
	score := 0.0
	var reasons []string

	// Credentials: all or nothing
	if missing := missingCredentials(worker.Certifications, shift.RequiredCredentials); len(missing) == 0 {
		score += CredentialWeight
		reasons = append(reasons, "Has all required credentials")
	} else {
		score += CredentialPenalty
		reasons = append(reasons, "Missing credentials: "+strings.Join(missing, ", "))
	}

	// Location
	maxDistance := worker.Preferences.MaxDistance
	distance := e.Distance.Miles(worker, *shift)
	if distance <= maxDistance {
		if maxDistance > 0 {
			score += math.Max(0, DistanceWeight*(1-distance/maxDistance))
		} else {
			score += DistanceWeight
		}
		if distance == 0 {
			reasons = append(reasons, "Located in your city")
		} else {
			reasons = append(reasons, fmt.Sprintf("Within %.0f miles", distance))
		}
	} else {
		score += DistancePenalty
		reasons = append(reasons, fmt.Sprintf("Outside preferred distance (%.0f miles)", distance))
	}

	// Pay rate
	rates := worker.Preferences.PreferredRateRange
	switch {
	case shift.HourlyRate > rates.Max:
		score += RateAboveMaxWeight
		reasons = append(reasons, fmt.Sprintf("Pays above your preferred rate ($%.2f/hr)", shift.HourlyRate))
	case shift.HourlyRate >= rates.Min:
		score += RateWeight
		reasons = append(reasons, fmt.Sprintf("Pay rate in your preferred range ($%.2f/hr)", shift.HourlyRate))
	default:
		score += RateBelowMinPenalty
		reasons = append(reasons, fmt.Sprintf("Pays below your preferred rate ($%.2f/hr)", shift.HourlyRate))
	}

	// Shift type
	for _, t := range worker.Preferences.PreferredShiftTypes {
		if t == shift.ShiftType {
			score += ShiftTypeWeight
			reasons = append(reasons, "Preferred shift type: "+shift.ShiftType)
			break
		}
	}

	// Schedule
	compat := ScheduleCompatibility(worker.Availability, *shift)
	score += compat * ScheduleWeight
	if compat > 0.7 {
		reasons = append(reasons, "Fits your availability")
	}

	// Bonuses
	if shift.Urgency == models.UrgencyHigh {
		score += UrgencyBonus
		reasons = append(reasons, "Urgent shift")
	}
	if worker.Stats != nil && worker.Stats.Rating >= RatingBonusThreshold {
		score += RatingBonus
		reasons = append(reasons, "Top-rated worker bonus")
	}

	return models.MatchScore{
		ShiftID: shift.ID,
		Score:   clamp(math.Round(score)),
		Reasons: reasons,
		Shift:   shift,
	}
}

// FilterTopMatches sorts matches, drops those below minScore and keeps at most limit.
// A limit <= 0 means DefaultLimit. The input slice is not modified.
func FilterTopMatches(matches []models.MatchScore, minScore float64, limit int) []models.MatchScore {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sorted := make([]models.MatchScore, len(matches))
	copy(sorted, matches)
	sortByScore(sorted)

	top := make([]models.MatchScore, 0, limit)
	for _, m := range sorted {
		if m.Score < minScore {
			continue
		}
		top = append(top, m)
		if len(top) == limit {
			break
		}
	}
	return top
}

// ScheduleCompatibility returns a value in [0,1] describing how well the shift
// fits the worker's availability. Unknown availability is neutral.
func ScheduleCompatibility(availability *models.Availability, shift models.Shift) float64 {
	if availability == nil {
		return neutralSchedule
	}

	compat := 0.0
	start, end, ok := shiftClock(shift)
	if ok {
		hours := end.Sub(start).Hours()
		if availability.FullTime && hours >= FullShiftHours {
			compat += 0.4
		}
		if availability.PartTime && hours < FullShiftHours {
			compat += 0.4
		}
		if availability.Evenings && (start.Hour() >= EveningHour || end.Hour() >= EveningHour) {
			compat += 0.3
		}
	}
	if availability.Weekends {
		if day, err := parseDate(shift.Date); err == nil {
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				compat += 0.3
			}
		}
	}
	return math.Min(compat, 1.0)
}

// missingCredentials returns the required labels that no certification contains
func missingCredentials(certifications, required []string) []string {
	var missing []string
	for _, req := range required {
		needle := strings.ToLower(strings.TrimSpace(req))
		if needle == "" {
			continue
		}
		found := false
		for _, cert := range certifications {
			if strings.Contains(strings.ToLower(cert), needle) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req)
		}
	}
	return missing
}

func sortByScore(matches []models.MatchScore) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

func clamp(score float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, score))
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

// shiftClock parses start and end wall-clock times on the same day
func shiftClock(shift models.Shift) (time.Time, time.Time, bool) {
	start, ok := parseClock(shift.StartTime)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := parseClock(shift.EndTime)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseClock(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) > 10 {
		value = value[:10]
	}
	return time.Parse("2006-01-02", value)
}
