package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- Request/Response Structs ---

type ExerciseRequest struct {
	Name         string `json:"name" binding:"required"`
	Sets         int    `json:"sets" binding:"required,min=1"`
	Reps         string `json:"reps" binding:"required"`
	VideoURL     string `json:"videoUrl"`
	MuscleGroups string `json:"muscleGroups"`
	RestMinutes  int    `json:"restMinutes" binding:"min=0"`
	RestSeconds  int    `json:"restSeconds" binding:"min=0,max=59"`
	IsPrivate    bool   `json:"isPrivate"`
}

type ExerciseResponse struct {
	ID           string    `json:"id"`
	UserID       *string   `json:"userId,omitempty"`
	Name         string    `json:"name"`
	Sets         int       `json:"sets"`
	Reps         string    `json:"reps"`
	VideoURL     string    `json:"videoUrl,omitempty"`
	MuscleGroups string    `json:"muscleGroups,omitempty"`
	RestMinutes  int       `json:"restMinutes"`
	RestSeconds  int       `json:"restSeconds"`
	IsPrivate    bool      `json:"isPrivate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type VideoUploadURLRequest struct {
	ContentType string `json:"contentType"`
}

func (r ExerciseRequest) toInput() service.ExerciseInput {
	return service.ExerciseInput{
		Name:         r.Name,
		Sets:         r.Sets,
		Reps:         r.Reps,
		VideoURL:     r.VideoURL,
		MuscleGroups: r.MuscleGroups,
		RestMinutes:  r.RestMinutes,
		RestSeconds:  r.RestSeconds,
		IsPrivate:    r.IsPrivate,
	}
}

// MapExerciseToResponse converts a domain Exercise to its DTO.
func MapExerciseToResponse(exercise *domain.Exercise) ExerciseResponse {
	resp := ExerciseResponse{
		ID:           exercise.ID.Hex(),
		Name:         exercise.Name,
		Sets:         exercise.Sets,
		Reps:         exercise.Reps,
		VideoURL:     exercise.VideoURL,
		MuscleGroups: exercise.MuscleGroups,
		RestMinutes:  exercise.RestMinutes,
		RestSeconds:  exercise.RestSeconds,
		IsPrivate:    exercise.IsPrivate,
		CreatedAt:    exercise.CreatedAt,
		UpdatedAt:    exercise.UpdatedAt,
	}
	if exercise.UserID != nil {
		ownerHex := exercise.UserID.Hex()
		resp.UserID = &ownerHex
	}
	return resp
}

// --- Handler Methods ---

// CreateExercise adds a new exercise owned by the authenticated user.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), userID, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrExerciseValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create exercise")
		}
		return
	}

	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// GetExercises lists the exercises visible to the authenticated user: their
// own plus the shared library.
func (h *ExerciseHandler) GetExercises(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	exercises, err := h.exerciseService.GetVisibleExercises(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve exercises")
		return
	}

	responses := make([]ExerciseResponse, 0, len(exercises))
	for i := range exercises {
		responses = append(responses, MapExerciseToResponse(&exercises[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetExerciseByID returns a single exercise.
func (h *ExerciseHandler) GetExerciseByID(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve exercise")
		}
		return
	}

	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// UpdateExercise modifies an exercise the user owns (or any, for admins).
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	user, err := getAuthUserFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), user, exerciseID, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrExerciseAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrExerciseValidation):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update exercise")
		}
		return
	}

	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeleteExercise removes an exercise and its plan links.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	user, err := getAuthUserFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.exerciseService.DeleteExercise(c.Request.Context(), user, exerciseID); err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrExerciseAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to delete exercise")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// RequestVideoUploadURL returns a presigned PUT URL for a demonstration video.
func (h *ExerciseHandler) RequestVideoUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user from token")
		return
	}

	// Body is optional; content type defaults server-side.
	var req VideoUploadURLRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.exerciseService.RequestVideoUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetVideoDownloadURL returns a presigned GET URL for an exercise's video.
func (h *ExerciseHandler) GetVideoDownloadURL(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	url, err := h.exerciseService.ResolveVideoDownloadURL(c.Request.Context(), exerciseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrExerciseNoVideo):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
