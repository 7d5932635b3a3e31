package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MaxPlansPerUser caps how many plans one account may hold. Enforced by a
	// pre-insert count check in the service layer (see PlanService.CreatePlan).
	MaxPlansPerUser = 7

	// MaxPlanNameLength limits plan names.
	MaxPlanNameLength = 50
)

// WorkoutPlan is a named, ordered collection of exercises belonging to one user.
// The ordering itself lives on the PlanExercise links.
type WorkoutPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
