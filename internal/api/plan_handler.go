package api

import (
	"errors"
	"fmt"
	"net/http"

	"planfit/workout-app/internal/service"
	"planfit/workout-app/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler holds the plan service and the plan data store. Mutations that
// the store projects optimistically (hide, unhide, reorder) are applied to the
// store before the database write; the change feed reconciles afterwards.
type PlanHandler struct {
	planService service.PlanService
	planStore   *store.Store
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, planStore *store.Store) *PlanHandler {
	return &PlanHandler{planService: planService, planStore: planStore}
}

// --- Request/Response Structs ---

type CreatePlanRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

type RenamePlanRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

type AddPlanExerciseRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
}

type SetHiddenRequest struct {
	Hidden *bool `json:"hidden" binding:"required"`
}

type ReorderRequest struct {
	OldIndex *int `json:"oldIndex" binding:"required"`
	NewIndex *int `json:"newIndex" binding:"required"`
}

// --- Handler Methods ---

// GetPlans serves the plan data store snapshot for the authenticated user.
// The store is (re)pointed at the caller's identity first, so a stale cache
// from a previous identity is never served. On a cold cache the handler waits
// for the fetch it just triggered, so the common path returns data rather
// than a loading snapshot.
func (h *PlanHandler) GetPlans(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	h.planStore.SetIdentity(userID)
	h.planStore.Wait(c.Request.Context())
	c.JSON(http.StatusOK, h.planStore.Snapshot())
}

// RefreshPlans forces a refetch of the store, bypassing the debounce.
func (h *PlanHandler) RefreshPlans(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	h.planStore.SetIdentity(userID)
	if err := h.planStore.Refresh(c.Request.Context()); err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to refresh plans")
		return
	}
	c.JSON(http.StatusOK, h.planStore.Snapshot())
}

// CreatePlan creates a workout plan, subject to the per-user limit.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanLimitReached):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrPlanValidation):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create plan")
		}
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// RenamePlan renames a plan.
func (h *PlanHandler) RenamePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RenamePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.planService.RenamePlan(c.Request.Context(), userID, planID, req.Name); err != nil {
		h.abortPlanError(c, err, "Failed to rename plan")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeletePlan removes a plan with its links, sessions and set rows.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), userID, planID); err != nil {
		h.abortPlanError(c, err, "Failed to delete plan")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddExercise links an exercise to the end of a plan.
func (h *PlanHandler) AddExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddPlanExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format")
		return
	}

	link, err := h.planService.AddExercise(c.Request.Context(), userID, planID, exerciseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseAlreadyInPlan):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			h.abortPlanError(c, err, "Failed to add exercise to plan")
		}
		return
	}

	c.JSON(http.StatusCreated, link)
}

// RemoveExercise unlinks an exercise from a plan and renumbers the rest.
func (h *PlanHandler) RemoveExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	linkID, ok := parseIDParam(c, "linkId")
	if !ok {
		return
	}

	if err := h.planService.RemoveExercise(c.Request.Context(), userID, planID, linkID); err != nil {
		h.abortPlanError(c, err, "Failed to remove exercise from plan")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetExerciseHidden hides or unhides a plan exercise. The store's optimistic
// projection is applied first so readers see the change before the database
// write and its change-feed refetch land.
func (h *PlanHandler) SetExerciseHidden(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	linkID, ok := parseIDParam(c, "linkId")
	if !ok {
		return
	}

	var req SetHiddenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	hidden := *req.Hidden

	if h.planStore.Identity() == userID {
		if hidden {
			h.planStore.HideExercise(planID, linkID)
		} else {
			h.planStore.UnhideExercise(planID, linkID)
		}
	}

	if err := h.planService.SetExerciseHidden(c.Request.Context(), userID, planID, linkID, hidden); err != nil {
		h.rollback(c, userID)
		h.abortPlanError(c, err, "Failed to update exercise visibility")
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderExercises moves a visible exercise to a new position, optimistically
// in the store and durably through the service.
func (h *PlanHandler) ReorderExercises(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	oldIndex, newIndex := *req.OldIndex, *req.NewIndex

	if h.planStore.Identity() == userID {
		h.planStore.ReorderExercises(planID, oldIndex, newIndex)
	}

	if err := h.planService.ReorderExercises(c.Request.Context(), userID, planID, oldIndex, newIndex); err != nil {
		h.rollback(c, userID)
		if errors.Is(err, service.ErrInvalidReorder) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.abortPlanError(c, err, "Failed to reorder exercises")
		return
	}
	c.Status(http.StatusNoContent)
}

// rollback refetches the store after a failed write so an optimistic
// projection does not outlive its rejected mutation.
func (h *PlanHandler) rollback(c *gin.Context, userID primitive.ObjectID) {
	if h.planStore.Identity() == userID {
		_ = h.planStore.Refresh(c.Request.Context())
	}
}

// abortPlanError maps shared plan service errors to HTTP statuses.
func (h *PlanHandler) abortPlanError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrLinkNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
