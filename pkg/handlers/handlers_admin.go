package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/carematch-api/pkg/auth"
	"github.com/arnavshah/carematch-api/pkg/database"
	"github.com/arnavshah/carematch-api/pkg/models"
)

type clientRequest struct {
	ID         string   `json:"id" binding:"required"`
	Name       string   `json:"name" binding:"required"`
	MedicaidID string   `json:"medicaid_id" binding:"required"`
	Address    string   `json:"address"`
	Phone      *string  `json:"phone"`
	CareNotes  *string  `json:"care_notes"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	IsActive   *bool    `json:"is_active"`
}

// CreateClient registers or updates a care recipient
func (h *Handler) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id, name and medicaid_id are required", err)
		return
	}

	client := &models.Client{
		ID:         req.ID,
		Name:       req.Name,
		MedicaidID: req.MedicaidID,
		Address:    req.Address,
		Phone:      req.Phone,
		CareNotes:  req.CareNotes,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	if err := h.Catalog.CreateClient(c.Request.Context(), client); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": client})
}

// SetClientActive enables or disables new visits for a client
func (h *Handler) SetClientActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "active is required", err)
		return
	}

	if err := h.Catalog.SetClientActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			RespondWithError(c, NewAPIError(http.StatusNotFound, CodeClientNotFound, "Client not found", ""))
			return
		}
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": *req.Active})
}

// SaveWorker stores a worker profile used for matching
func (h *Handler) SaveWorker(c *gin.Context) {
	var profile models.WorkerProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		badRequest(c, "Invalid worker profile", err)
		return
	}
	if problem := validateMatchInput(&models.MatchInput{Worker: profile}); problem != "" {
		RespondWithError(c, NewAPIError(http.StatusUnprocessableEntity, CodeValidationFailed, problem, ""))
		return
	}

	if err := h.Catalog.SaveWorker(c.Request.Context(), profile); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"worker": profile})
}

// IssueWorkerToken creates a worker JWT for a stored profile
func (h *Handler) IssueWorkerToken(c *gin.Context) {
	id := c.Param("id")
	exists, err := h.Catalog.WorkerExists(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !exists {
		RespondWithError(c, NewAPIError(http.StatusNotFound, CodeNotFound, "Worker not found", ""))
		return
	}

	token, err := auth.CreateWorkerToken(id)
	if err != nil {
		RespondWithError(c, NewAPIError(http.StatusInternalServerError, CodeInternal, "Could not create token", ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "worker_id": id})
}

// CreatePosting publishes open shifts for matching
func (h *Handler) CreatePosting(c *gin.Context) {
	var req struct {
		Shifts []models.Shift `json:"shifts" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "shifts is required", err)
		return
	}

	input := models.MatchInput{Worker: models.WorkerProfile{ID: "-"}, Shifts: req.Shifts}
	if problem := validateMatchInput(&input); problem != "" {
		RespondWithError(c, NewAPIError(http.StatusUnprocessableEntity, CodeValidationFailed, problem, ""))
		return
	}

	ctx := c.Request.Context()
	for _, s := range req.Shifts {
		if err := h.Catalog.SavePosting(ctx, database.NewShiftPosting(s)); err != nil {
			respondDomainError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(req.Shifts)})
}
