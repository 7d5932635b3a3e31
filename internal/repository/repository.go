package repository

import (
	"context"
	"time"

	"planfit/workout-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	// GetVisibleToUser returns the user's own exercises plus all shared ones
	// (ownerless, or owned by others but not private), sorted by name.
	GetVisibleToUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// WorkoutPlanRepository defines the interface for interacting with plan data.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	CountByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// FetchGraph runs the composed query for the plan data store: the user's
	// plans (creation time descending) joined with their plan-exercise links
	// (order index ascending) joined with the exercise records.
	FetchGraph(ctx context.Context, userID primitive.ObjectID) ([]domain.PlanWithExercises, error)
}

// OrderUpdate pairs a plan-exercise link with its new order index.
type OrderUpdate struct {
	LinkID     primitive.ObjectID
	OrderIndex int
}

// PlanExerciseRepository defines the interface for plan-exercise links.
type PlanExerciseRepository interface {
	Create(ctx context.Context, link *domain.PlanExercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanExercise, error)
	// GetByPlanID returns all links of a plan, hidden included, ordered by
	// order index ascending.
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanExercise, error)
	ExistsForPlanAndExercise(ctx context.Context, planID, exerciseID primitive.ObjectID) (bool, error)
	SetHidden(ctx context.Context, id primitive.ObjectID, hidden bool) error
	// UpdateOrderIndexes applies a batch of order index reassignments.
	UpdateOrderIndexes(ctx context.Context, updates []OrderUpdate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
	DeleteByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) error
}

// SessionRepository defines the interface for workout sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	// GetByPlanID returns the plan's sessions, newest first.
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutSession, error)
	CountByPlanID(ctx context.Context, planID primitive.ObjectID) (int64, error)
	UpdateDate(ctx context.Context, id primitive.ObjectID, date time.Time) error
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// SessionSetRepository defines the interface for per-session set rows.
type SessionSetRepository interface {
	Create(ctx context.Context, set *domain.SessionSet) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, sets []domain.SessionSet) error
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SessionSet, error)
	GetBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.SessionSet, error)
	// FindCell locates the row for one (session, exercise, set-number) cell.
	FindCell(ctx context.Context, sessionID, exerciseID primitive.ObjectID, setNumber int) (*domain.SessionSet, error)
	UpdateReps(ctx context.Context, id primitive.ObjectID, reps *int) error
	UpdateWeight(ctx context.Context, id primitive.ObjectID, weight *float64) error
	DeleteBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) error
}
