package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/carematch-api/pkg/database"
	"github.com/arnavshah/carematch-api/pkg/matching"
	"github.com/arnavshah/carematch-api/pkg/models"
)

// MatchJSON scores the shifts in the request body for the given worker
func (h *Handler) MatchJSON(c *gin.Context) {
	var input models.MatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}
	if problem := validateMatchInput(&input); problem != "" {
		RespondWithError(c, NewAPIError(http.StatusUnprocessableEntity, CodeValidationFailed, problem, ""))
		return
	}

	minScore := matching.DefaultMinScore
	if input.MinScore != nil {
		minScore = *input.MinScore
	}

	matches := h.Engine.ComputeMatches(input.Worker, input.Shifts)
	top := matching.FilterTopMatches(matches, minScore, input.Limit)

	h.RecordUsage(c, len(input.Shifts), 1)

	c.JSON(http.StatusOK, models.MatchResponse{
		WorkerID:  input.Worker.ID,
		Evaluated: len(matches),
		Matches:   top,
	})
}

// WorkerMatches ranks the stored open postings for the authenticated worker
func (h *Handler) WorkerMatches(c *gin.Context) {
	minScore := matching.DefaultMinScore
	if v := c.Query("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 100 {
			badRequest(c, "min_score must be a number between 0 and 100", err)
			return
		}
		minScore = f
	}

	limit := matching.DefaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	worker, err := h.Catalog.GetWorker(ctx, workerID(c))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			RespondWithError(c, NewAPIError(http.StatusNotFound, CodeNotFound, "Worker profile not found", ""))
			return
		}
		respondDomainError(c, err)
		return
	}

	shifts, err := h.Catalog.OpenShifts(ctx)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	matches := h.Engine.ComputeMatches(worker, shifts)
	c.JSON(http.StatusOK, models.MatchResponse{
		WorkerID:  worker.ID,
		Evaluated: len(matches),
		Matches:   matching.FilterTopMatches(matches, minScore, limit),
	})
}
