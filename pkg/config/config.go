package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds runtime settings read from the environment
type Config struct {
	Port    string
	GinMode string

	DatabaseURL string
	DataPath    string

	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string

	CORSAllowedOrigins []string
	LogLevel           string
	LogPretty          bool

	GeocoderURL       string
	GeocoderUserAgent string
	LocationTimeout   time.Duration

	EVVServiceType     string
	EVVScheduledHours  float64
	EVVGeofenceMeters  float64
	MatchDistanceMode  string
	MatchFallbackMiles float64
}

// Distance modes for the matching engine
const (
	DistanceModeGeo         = "geo"
	DistanceModePlaceholder = "placeholder"
)

var (
	cfg     *Config
	cfgOnce sync.Once
)

// LoadEnvFiles loads the first .env found in the working directory or its parents
func LoadEnvFiles() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Get returns the process configuration, loading it once
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = Load()
	})
	return cfg
}

// Load reads the configuration from the environment
func Load() *Config {
	c := &Config{
		Port:    Getenv("PORT", "8000"),
		GinMode: os.Getenv("GIN_MODE"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataPath:    Getenv("DATA_PATH", "carematch.db"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		APIMasterSecret: os.Getenv("API_MASTER_SECRET"),
		AdminUsername:   Getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:   Getenv("ADMIN_PASSWORD", "admin123"),

		CORSAllowedOrigins: splitList(Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:           Getenv("LOG_LEVEL", "info"),
		LogPretty:          GetBool("LOG_PRETTY", false),

		GeocoderURL:       os.Getenv("GEOCODER_URL"),
		GeocoderUserAgent: Getenv("GEOCODER_USER_AGENT", "carematch-api"),
		LocationTimeout:   GetDuration("LOCATION_TIMEOUT", 10*time.Second),

		EVVServiceType:     Getenv("EVV_SERVICE_TYPE", "personal_care"),
		EVVScheduledHours:  GetFloat("EVV_SCHEDULED_HOURS", 8),
		EVVGeofenceMeters:  GetFloat("EVV_GEOFENCE_METERS", 0),
		MatchDistanceMode:  strings.ToLower(Getenv("MATCH_DISTANCE_MODE", DistanceModeGeo)),
		MatchFallbackMiles: GetFloat("MATCH_FALLBACK_MILES", 25),
	}

	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, tokens are signed with an empty key")
	}
	if c.MatchDistanceMode != DistanceModeGeo && c.MatchDistanceMode != DistanceModePlaceholder {
		log.Warn().Str("mode", c.MatchDistanceMode).Msg("unknown MATCH_DISTANCE_MODE, using geo")
		c.MatchDistanceMode = DistanceModeGeo
	}
	return c
}

// ScheduledDuration is the default visit length
func (c *Config) ScheduledDuration() time.Duration {
	return time.Duration(c.EVVScheduledHours * float64(time.Hour))
}

// Getenv returns the value of key or fallback when unset
func Getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// GetFloat parses key as a float, falling back on absence or parse errors
func GetFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid number, using default")
		return fallback
	}
	return f
}

// GetBool parses key as a bool
func GetBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid bool, using default")
		return fallback
	}
	return b
}

// GetDuration parses key as a time.Duration ("10s", "1m")
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
