package evv

import (
	"github.com/arnavshah/carematch-api/pkg/geo"
	"github.com/arnavshah/carematch-api/pkg/models"
)

// VerificationPolicy decides the verification status of a GPS reading taken at a client visit
type VerificationPolicy interface {
	Verify(client *models.Client, reading geo.Reading) models.VerificationStatus
}

// AlwaysVerified accepts every reading that made it past location validation
type AlwaysVerified struct{}

// Verify implements VerificationPolicy
func (AlwaysVerified) Verify(*models.Client, geo.Reading) models.VerificationStatus {
	return models.VerificationVerified
}

// GeofencePolicy compares the reading with the client's geocoded address.
// Clients without coordinates leave the entry pending review.
type GeofencePolicy struct {
	RadiusMeters float64
}

// Verify implements VerificationPolicy
func (p GeofencePolicy) Verify(client *models.Client, reading geo.Reading) models.VerificationStatus {
	home := client.Coords()
	if home == nil {
		return models.VerificationPending
	}
	if geo.HaversineMeters(*home, reading.Coords) <= p.RadiusMeters {
		return models.VerificationVerified
	}
	return models.VerificationFlagged
}

// NewPolicy returns a GeofencePolicy for a positive radius and AlwaysVerified otherwise
func NewPolicy(radiusMeters float64) VerificationPolicy {
	if radiusMeters > 0 {
		return GeofencePolicy{RadiusMeters: radiusMeters}
	}
	return AlwaysVerified{}
}
