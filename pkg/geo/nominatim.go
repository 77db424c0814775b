package geo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/arnavshah/carematch-api/pkg/models"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// NominatimGeocoder resolves addresses through a Nominatim-compatible /reverse endpoint
type NominatimGeocoder struct {
	client *resty.Client
}

// NewNominatimGeocoder creates a geocoder against baseURL. Nominatim requires
// an identifying User-Agent.
func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &NominatimGeocoder{client: client}
}

// ReverseGeocode returns the display name for c
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, c models.Coordinates) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "jsonv2",
			"lat":    strconv.FormatFloat(c.Lat, 'f', 7, 64),
			"lon":    strconv.FormatFloat(c.Lng, 'f', 7, 64),
		}).
		Get("/reverse")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d", ErrGeocodeFailed, resp.StatusCode())
	}

	body := resp.String()
	if msg := gjson.Get(body, "error"); msg.Exists() {
		return "", fmt.Errorf("%w: %s", ErrGeocodeFailed, msg.String())
	}
	name := gjson.Get(body, "display_name").String()
	if name == "" {
		return "", fmt.Errorf("%w: empty display_name", ErrGeocodeFailed)
	}
	return name, nil
}
