package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_PATH", "LOCATION_TIMEOUT", "MATCH_DISTANCE_MODE", "EVV_SCHEDULED_HOURS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	c := Load()
	if c.Port != "8000" {
		t.Errorf("Expected port 8000, got %s", c.Port)
	}
	if c.DataPath != "carematch.db" {
		t.Errorf("Expected default data path, got %s", c.DataPath)
	}
	if c.LocationTimeout != 10*time.Second {
		t.Errorf("Expected 10s location timeout, got %v", c.LocationTimeout)
	}
	if c.MatchDistanceMode != DistanceModeGeo {
		t.Errorf("Expected geo distance mode, got %s", c.MatchDistanceMode)
	}
	if c.ScheduledDuration() != 8*time.Hour {
		t.Errorf("Expected 8h scheduled duration, got %v", c.ScheduledDuration())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOCATION_TIMEOUT", "3s")
	t.Setenv("MATCH_DISTANCE_MODE", "Placeholder")
	t.Setenv("EVV_GEOFENCE_METERS", "150.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_PRETTY", "true")

	c := Load()
	if c.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", c.Port)
	}
	if c.LocationTimeout != 3*time.Second {
		t.Errorf("Expected 3s, got %v", c.LocationTimeout)
	}
	if c.MatchDistanceMode != DistanceModePlaceholder {
		t.Errorf("Expected placeholder mode, got %s", c.MatchDistanceMode)
	}
	if c.EVVGeofenceMeters != 150.5 {
		t.Errorf("Expected 150.5, got %f", c.EVVGeofenceMeters)
	}
	if len(c.CORSAllowedOrigins) != 2 || c.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("Expected two trimmed origins, got %v", c.CORSAllowedOrigins)
	}
	if !c.LogPretty {
		t.Errorf("Expected pretty logging")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOCATION_TIMEOUT", "soon")
	t.Setenv("MATCH_FALLBACK_MILES", "far")
	t.Setenv("MATCH_DISTANCE_MODE", "teleport")

	c := Load()
	if c.LocationTimeout != 10*time.Second {
		t.Errorf("Expected default timeout, got %v", c.LocationTimeout)
	}
	if c.MatchFallbackMiles != 25 {
		t.Errorf("Expected default fallback miles, got %f", c.MatchFallbackMiles)
	}
	if c.MatchDistanceMode != DistanceModeGeo {
		t.Errorf("Expected geo mode for unknown value, got %s", c.MatchDistanceMode)
	}
}
