package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/carematch-api/pkg/database"
)

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, shiftCount, workerCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().UTC().Format("2006-01-02")

	// single-query upsert, supported by both Postgres and SQLite
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("api_usages.request_count + ?", 1),
			"total_shifts":  gorm.Expr("api_usages.total_shifts + ?", shiftCount),
			"total_workers": gorm.Expr("api_usages.total_workers + ?", workerCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		TotalShifts:  shiftCount,
		TotalWorkers: workerCount,
	}).Error
	if err != nil {
		log.Warn().Err(err).Uint("key_id", apiKey.ID).Msg("failed to record api usage")
	}
}

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		RespondWithError(c, NewAPIError(http.StatusInternalServerError, CodeInternal, "API Key context missing", ""))
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", apiKey.ID).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		RespondWithError(c, NewAPIError(http.StatusInternalServerError, CodeInternal, "Could not fetch usage details", ""))
		return
	}

	var totalRequests, totalShifts, totalWorkers int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalShifts += int64(u.TotalShifts)
		totalWorkers += int64(u.TotalWorkers)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests": totalRequests,
			"shifts":   totalShifts,
			"workers":  totalWorkers,
		},
	})
}
