package matching

import (
	"math/rand"
	"sync"
	"time"

	"github.com/arnavshah/carematch-api/pkg/geo"
	"github.com/arnavshah/carematch-api/pkg/models"
)

// DefaultFallbackMiles is used when two different cities have no coordinates
const DefaultFallbackMiles = 25.0

// PlaceholderMaxMiles bounds the random distance of PlaceholderDistance
const PlaceholderMaxMiles = 50.0

// DistanceEstimator estimates the miles between a worker and a shift
type DistanceEstimator interface {
	Miles(worker models.WorkerProfile, shift models.Shift) float64
}

// GeoDistance uses great-circle distance when both sides carry coordinates.
// Identical cities are always 0 miles apart.
type GeoDistance struct {
	FallbackMiles float64
}

// Miles implements DistanceEstimator
func (g GeoDistance) Miles(worker models.WorkerProfile, shift models.Shift) float64 {
	if worker.Location.City == shift.City {
		return 0
	}
	if worker.Location.Coords != nil && shift.Coords != nil {
		return geo.HaversineMiles(*worker.Location.Coords, *shift.Coords)
	}
	return g.FallbackMiles
}

// PlaceholderDistance returns a random distance in [0, Max) for different cities.
// Seed it for reproducible results.
type PlaceholderDistance struct {
	Max float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPlaceholderDistance creates a placeholder estimator. A zero seed uses the clock.
func NewPlaceholderDistance(seed int64) *PlaceholderDistance {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PlaceholderDistance{
		Max: PlaceholderMaxMiles,
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// Miles implements DistanceEstimator
func (p *PlaceholderDistance) Miles(worker models.WorkerProfile, shift models.Shift) float64 {
	if worker.Location.City == shift.City {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64() * p.Max
}
