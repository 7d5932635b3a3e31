package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"planfit/workout-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler holds the session service dependency.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- Request/Response Structs ---

type UpdateRepsRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	SetNumber  int    `json:"setNumber" binding:"required,min=1"`
	Reps       *int   `json:"reps"` // null clears the cell
}

type UpdateWeightRequest struct {
	ExerciseID string   `json:"exerciseId" binding:"required"`
	SetNumber  int      `json:"setNumber" binding:"required,min=1"`
	Weight     *float64 `json:"weight"` // null clears the cell
}

type UpdateSessionDateRequest struct {
	Date time.Time `json:"date" binding:"required"`
}

// --- Handler Methods ---

// OpenTracker loads the tracking grid for a plan, creating session #1 with
// blank rows on first open.
func (h *SessionHandler) OpenTracker(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, err := h.sessionService.OpenTracker(c.Request.Context(), userID, planID)
	if err != nil {
		h.abortSessionError(c, err, "Failed to load workout tracker")
		return
	}

	c.JSON(http.StatusOK, data)
}

// CreateSession starts the next workout session for a plan.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, sets, err := h.sessionService.CreateSession(c.Request.Context(), userID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPreviousSessionNoReps) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		h.abortSessionError(c, err, "Failed to create workout session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session, "sets": sets})
}

// UpdateReps records or clears the rep count of one grid cell.
func (h *SessionHandler) UpdateReps(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateRepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format")
		return
	}

	set, err := h.sessionService.UpdateReps(c.Request.Context(), userID, sessionID, exerciseID, req.SetNumber, req.Reps)
	if err != nil {
		h.abortSessionError(c, err, "Failed to update reps")
		return
	}

	c.JSON(http.StatusOK, set)
}

// UpdateWeight records or clears the weight of one grid cell.
func (h *SessionHandler) UpdateWeight(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format")
		return
	}

	set, err := h.sessionService.UpdateWeight(c.Request.Context(), userID, sessionID, exerciseID, req.SetNumber, req.Weight)
	if err != nil {
		h.abortSessionError(c, err, "Failed to update weight")
		return
	}

	c.JSON(http.StatusOK, set)
}

// UpdateSessionDate changes when a session was performed.
func (h *SessionHandler) UpdateSessionDate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateSessionDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.sessionService.UpdateSessionDate(c.Request.Context(), userID, sessionID, req.Date); err != nil {
		h.abortSessionError(c, err, "Failed to update session date")
		return
	}
	c.Status(http.StatusNoContent)
}

// abortSessionError maps shared session service errors to HTTP statuses.
func (h *SessionHandler) abortSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied), errors.Is(err, service.ErrSessionAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNoExercisesInPlan):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSetValidation), errors.Is(err, service.ErrSetNumberOutOfRange):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExerciseNotInSession):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
