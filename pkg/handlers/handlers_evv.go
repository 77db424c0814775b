package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/carematch-api/pkg/evv"
	"github.com/arnavshah/carematch-api/pkg/geo"
)

// locationInput is the position the worker's device reported.
// Error carries the device's failure code when it could not get a fix.
type locationInput struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Accuracy float64  `json:"accuracy"`
	Error    string   `json:"error"`
}

func (l *locationInput) resolver() geo.Resolver {
	if l == nil {
		return geo.DeviceResolver{}
	}
	return geo.DeviceResolver{Lat: l.Lat, Lng: l.Lng, Accuracy: l.Accuracy, ErrorCode: l.Error}
}

type clockInRequest struct {
	ClientID string         `json:"client_id" binding:"required"`
	Location *locationInput `json:"location"`
}

type clockOutRequest struct {
	Location *locationInput `json:"location"`
	Notes    string         `json:"notes"`
}

// ClockIn starts a visit for the authenticated worker
func (h *Handler) ClockIn(c *gin.Context) {
	var req clockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "client_id is required", err)
		return
	}

	ctx := c.Request.Context()
	reading, err := h.Locator.Locate(ctx, req.Location.resolver())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	res, err := h.EVV.ClockIn(ctx, evv.ClockInRequest{
		WorkerID: workerID(c),
		ClientID: req.ClientID,
		Location: reading,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ClockOut completes the authenticated worker's active visit
func (h *Handler) ClockOut(c *gin.Context) {
	var req clockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}

	ctx := c.Request.Context()
	reading, err := h.Locator.Locate(ctx, req.Location.resolver())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	res, err := h.EVV.ClockOut(ctx, evv.ClockOutRequest{
		WorkerID: workerID(c),
		Location: reading,
		Notes:    req.Notes,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ActiveShift returns the authenticated worker's active visit
func (h *Handler) ActiveShift(c *gin.Context) {
	shift, err := h.EVV.ActiveShift(c.Request.Context(), workerID(c))
	if errors.Is(err, evv.ErrNoActiveShift) {
		RespondWithError(c, NewAPIError(http.StatusNotFound, CodeNoActiveShift, "You are not clocked in", ""))
		return
	}
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shift": shift})
}

// ShiftLogs returns the audit trail of one of the worker's visits
func (h *Handler) ShiftLogs(c *gin.Context) {
	logs, err := h.EVV.Logs(c.Request.Context(), workerID(c), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shift_id": c.Param("id"), "logs": logs})
}

// ListNotifications drains the worker's pending notifications
func (h *Handler) ListNotifications(c *gin.Context) {
	notes, err := h.Notifications.Drain(c.Request.Context(), workerID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}
