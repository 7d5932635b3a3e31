package api

import (
	"net/http"

	"planfit/workout-app/internal/service"
	"planfit/workout-app/internal/store"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all HTTP routes onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	exerciseService service.ExerciseService,
	planService service.PlanService,
	sessionService service.SessionService,
	planStore *store.Store,
) {
	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	planHandler := NewPlanHandler(planService, planStore)
	sessionHandler := NewSessionHandler(sessionService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			isAdmin, _ := c.Get(ContextIsAdminKey)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "isAdmin": isAdmin})
		})

		// --- Exercise library ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			exerciseGroup.GET("", exerciseHandler.GetExercises)
			exerciseGroup.POST("/video-upload-url", exerciseHandler.RequestVideoUploadURL)
			exerciseGroup.GET("/:id", exerciseHandler.GetExerciseByID)
			exerciseGroup.PUT("/:id", exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", exerciseHandler.DeleteExercise)
			exerciseGroup.GET("/:id/video-url", exerciseHandler.GetVideoDownloadURL)
		}

		// --- Workout plans (reads served from the plan data store) ---
		planGroup := protected.Group("/plans")
		{
			planGroup.GET("", planHandler.GetPlans)
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.PUT("/:id", planHandler.RenamePlan)
			planGroup.DELETE("/:id", planHandler.DeletePlan)

			planGroup.POST("/:id/exercises", planHandler.AddExercise)
			planGroup.DELETE("/:id/exercises/:linkId", planHandler.RemoveExercise)
			planGroup.PUT("/:id/exercises/:linkId/hidden", planHandler.SetExerciseHidden)
			planGroup.PUT("/:id/exercise-order", planHandler.ReorderExercises)

			// --- Workout tracking ---
			planGroup.GET("/:id/tracker", sessionHandler.OpenTracker)
			planGroup.POST("/:id/sessions", sessionHandler.CreateSession)
		}

		// Forces an immediate store refetch, bypassing the debounce.
		protected.POST("/plan-store/refresh", planHandler.RefreshPlans)

		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.PATCH("/:id/sets/reps", sessionHandler.UpdateReps)
			sessionGroup.PATCH("/:id/sets/weight", sessionHandler.UpdateWeight)
			sessionGroup.PUT("/:id/date", sessionHandler.UpdateSessionDate)
		}
	}
}
