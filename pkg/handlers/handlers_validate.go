package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/carematch-api/pkg/models"
)

// validateMatchInput returns the first problem found in a matching request, or ""
func validateMatchInput(input *models.MatchInput) string {
	if input.Worker.ID == "" {
		return "worker.id is required"
	}
	rates := input.Worker.Preferences.PreferredRateRange
	if rates.Min > rates.Max {
		return "worker.preferences.preferred_rate_range.min must not exceed max"
	}
	if input.Worker.Preferences.MaxDistance < 0 {
		return "worker.preferences.max_distance must not be negative"
	}
	if input.MinScore != nil && (*input.MinScore < 0 || *input.MinScore > 100) {
		return "min_score must be between 0 and 100"
	}
	if input.Limit < 0 {
		return "limit must not be negative"
	}

	shiftIDs := make(map[string]bool)
	for i, s := range input.Shifts {
		if s.ID == "" {
			return fmt.Sprintf("shifts[%d].id is required", i)
		}
		if shiftIDs[s.ID] {
			return "Duplicate shift ID: " + s.ID
		}
		shiftIDs[s.ID] = true

		switch s.Urgency {
		case "", models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
		default:
			return fmt.Sprintf("shifts[%d].urgency must be low, medium or high", i)
		}
	}
	return ""
}

// ValidateInput checks a matching request without scoring it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.MatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Shifts) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one shift is required",
		})
		return
	}

	if problem := validateMatchInput(&input); problem != "" {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": problem})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"shift_count": len(input.Shifts),
		},
	})
}
