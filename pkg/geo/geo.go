package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/arnavshah/carematch-api/pkg/models"
	"github.com/rs/zerolog/log"
)

// Classified failures of a position fix
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("location request timed out")
	ErrUnsupported         = errors.New("geolocation not supported")
)

// ErrGeocodeFailed is returned by address lookups. Locate never returns it.
var ErrGeocodeFailed = errors.New("reverse geocoding failed")

// Reading is a resolved position. Address is empty when it could not be resolved.
type Reading struct {
	Coords   models.Coordinates `json:"coords"`
	Accuracy float64            `json:"accuracy,omitempty"`
	Address  string             `json:"address,omitempty"`
}

// Resolver produces a position fix
type Resolver interface {
	Resolve(ctx context.Context) (Reading, error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ctx context.Context) (Reading, error)

// Resolve calls f
func (f ResolverFunc) Resolve(ctx context.Context) (Reading, error) {
	return f(ctx)
}

// AddressLookup turns coordinates into a human-readable address
type AddressLookup interface {
	ReverseGeocode(ctx context.Context, c models.Coordinates) (string, error)
}

// Locator bounds position fixes with a timeout and attaches a best-effort address
type Locator struct {
	Geocoder AddressLookup
	Timeout  time.Duration
}

// NewLocator creates a locator. A nil geocoder yields coordinates-only readings.
func NewLocator(geocoder AddressLookup, timeout time.Duration) *Locator {
	return &Locator{Geocoder: geocoder, Timeout: timeout}
}

// Locate resolves a position through r. Only the position fix can fail;
// a failed address lookup leaves Address empty.
func (l *Locator) Locate(ctx context.Context, r Resolver) (Reading, error) {
	reading, err := l.fix(ctx, r)
	if err != nil {
		return Reading{}, err
	}

	if l.Geocoder != nil && reading.Address == "" {
		addr, err := l.Geocoder.ReverseGeocode(ctx, reading.Coords)
		if err != nil {
			log.Debug().Err(err).
				Float64("lat", reading.Coords.Lat).
				Float64("lng", reading.Coords.Lng).
				Msg("reverse geocoding failed, keeping coordinates only")
		} else {
			reading.Address = addr
		}
	}
	return reading, nil
}

func (l *Locator) fix(ctx context.Context, r Resolver) (Reading, error) {
	if r == nil {
		return Reading{}, ErrUnsupported
	}

	fixCtx := ctx
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		fixCtx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	type result struct {
		reading Reading
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		reading, err := r.Resolve(fixCtx)
		ch <- result{reading, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return Reading{}, ErrTimeout
			}
			return Reading{}, res.err
		}
		if err := Validate(res.reading.Coords); err != nil {
			return Reading{}, err
		}
		return res.reading, nil
	case <-fixCtx.Done():
		// the caller's own cancellation is not a timeout
		if ctx.Err() != nil {
			return Reading{}, ctx.Err()
		}
		return Reading{}, ErrTimeout
	}
}

// Validate checks that c is a usable GPS fix. (0,0) is what devices report
// when they have no fix, so it is rejected.
func Validate(c models.Coordinates) error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return fmt.Errorf("%w: coordinates are not numbers", ErrPositionUnavailable)
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrPositionUnavailable, c.Lat, c.Lng)
	}
	if c.Lat == 0 && c.Lng == 0 {
		return fmt.Errorf("%w: empty fix", ErrPositionUnavailable)
	}
	return nil
}

// DeviceResolver replays a fix reported by the worker's device.
// ErrorCode carries the device's failure, either a name or a W3C numeric code.
type DeviceResolver struct {
	Lat       *float64
	Lng       *float64
	Accuracy  float64
	ErrorCode string
}

// Resolve returns the reported fix or the classified device failure
func (d DeviceResolver) Resolve(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	if d.ErrorCode != "" {
		return Reading{}, ClassifyDeviceError(d.ErrorCode)
	}
	if d.Lat == nil || d.Lng == nil {
		return Reading{}, fmt.Errorf("%w: no coordinates reported", ErrPositionUnavailable)
	}
	return Reading{
		Coords:   models.Coordinates{Lat: *d.Lat, Lng: *d.Lng},
		Accuracy: d.Accuracy,
	}, nil
}

// ClassifyDeviceError maps a device error code to one of the classified errors
func ClassifyDeviceError(code string) error {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "permission_denied", "1":
		return ErrPermissionDenied
	case "position_unavailable", "2":
		return ErrPositionUnavailable
	case "timeout", "3":
		return ErrTimeout
	case "unsupported":
		return ErrUnsupported
	default:
		return fmt.Errorf("%w: device error %q", ErrPositionUnavailable, code)
	}
}
