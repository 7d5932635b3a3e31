package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSession is one dated occurrence of performing a plan. SessionNumber
// is monotonic per plan, assigned as count+1 at creation. SessionDate defaults
// to the creation time and is user-editable afterwards.
type WorkoutSession struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutPlanID primitive.ObjectID `bson:"workoutPlanId" json:"workoutPlanId"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	SessionNumber int                `bson:"sessionNumber" json:"sessionNumber"`
	SessionDate   time.Time          `bson:"sessionDate" json:"sessionDate"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
