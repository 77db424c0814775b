package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arnavshah/carematch-api/pkg/auth"
	"github.com/arnavshah/carematch-api/pkg/config"
	"github.com/arnavshah/carematch-api/pkg/database"
	"github.com/arnavshah/carematch-api/pkg/evv"
	"github.com/arnavshah/carematch-api/pkg/geo"
	"github.com/arnavshah/carematch-api/pkg/matching"
	"github.com/arnavshah/carematch-api/pkg/notify"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB            *gorm.DB
	Config        *config.Config
	Catalog       *database.Catalog
	EVV           *evv.Manager
	Locator       *geo.Locator
	Engine        *matching.Engine
	Notifications notify.Queue
}

// NewHandler wires the matching engine, the EVV manager and their collaborators from cfg
func NewHandler(db *gorm.DB, cfg *config.Config) *Handler {
	var geocoder geo.AddressLookup
	if cfg.GeocoderURL != "" {
		geocoder = geo.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.LocationTimeout)
	}

	var distance matching.DistanceEstimator
	if cfg.MatchDistanceMode == config.DistanceModePlaceholder {
		distance = matching.NewPlaceholderDistance(0)
	} else {
		distance = matching.GeoDistance{FallbackMiles: cfg.MatchFallbackMiles}
	}

	queue := notify.NewMemoryQueue(notify.DefaultMaxPerRecipient)

	return &Handler{
		DB:      db,
		Config:  cfg,
		Catalog: database.NewCatalog(db),
		EVV: evv.NewManager(database.NewEVVStore(db), evv.Options{
			ServiceType:       cfg.EVVServiceType,
			ScheduledDuration: cfg.ScheduledDuration(),
			Policy:            evv.NewPolicy(cfg.EVVGeofenceMeters),
			Notifier:          queue,
		}),
		Locator:       geo.NewLocator(geocoder, cfg.LocationTimeout),
		Engine:        matching.NewEngine(distance),
		Notifications: queue,
	}
}

func bearerToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	// Strip "Bearer " if present
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = token[7:]
	}
	return token
}

// AuthMiddleware verifies the admin JWT token
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			RespondWithError(c, NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "Authorization header required", ""))
			return
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			RespondWithError(c, NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "Invalid token", err.Error()))
			return
		}
		if claims.Role != auth.RoleAdmin {
			RespondWithError(c, NewAPIError(http.StatusForbidden, CodeForbidden, "Admin access required", ""))
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// WorkerMiddleware verifies a worker JWT token and exposes the worker id
func (h *Handler) WorkerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			RespondWithError(c, NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "Authorization header required", ""))
			return
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			RespondWithError(c, NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "Invalid token", err.Error()))
			return
		}
		if claims.Role != auth.RoleWorker || claims.WorkerID == "" {
			RespondWithError(c, NewAPIError(http.StatusForbidden, CodeForbidden, "Worker access required", ""))
			return
		}

		c.Set("workerID", claims.WorkerID)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key of integration callers
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if key == "" {
			RespondWithError(c, NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "API Key required", ""))
			return
		}

		apiKey, err := auth.VerifyAPIKey(h.DB, key)
		if err != nil {
			RespondWithError(c, NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "Invalid API Key signature", ""))
			return
		}

		c.Set("apiKey", apiKey)
		c.Set("userID", apiKey.Name)
		c.Next()
	}
}

func workerID(c *gin.Context) string {
	return c.GetString("workerID")
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required", err)
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		RespondWithError(c, NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "Invalid credentials", ""))
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		RespondWithError(c, NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "Invalid credentials", ""))
		return
	}

	token, err := auth.CreateToken(user.Username)
	if err != nil {
		RespondWithError(c, NewAPIError(http.StatusInternalServerError, CodeInternal, "Could not create token", ""))
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}

	if req.Name == "" {
		badRequest(c, "name is required", nil)
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	key := auth.GenerateHMACKey(req.Name)
	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: auth.KeyPreview(key),
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		RespondWithError(c, NewAPIError(http.StatusConflict, CodeConflict, "Could not create key record", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("id asc").Find(&keys).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.DB.Delete(&database.APIKey{}, id).Error; err != nil {
		RespondWithError(c, NewAPIError(http.StatusInternalServerError, CodeInternal, "Could not delete key", ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			badRequest(c, "rate_limit is required", err)
			return
		}
	}

	if req.RateLimit <= 0 {
		badRequest(c, "invalid rate limit", nil)
		return
	}

	res := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit)
	if res.Error != nil {
		RespondWithError(c, NewAPIError(http.StatusInternalServerError, CodeInternal, "Could not update key limit", ""))
		return
	}
	if res.RowsAffected == 0 {
		RespondWithError(c, NewAPIError(http.StatusNotFound, CodeNotFound, "Key not found", ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
