package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetsPerExercise is the fixed grid size of the session tracker: every
// exercise gets set numbers 1..4 in every session.
const SetsPerExercise = 4

// SessionSet is one (exercise, set-number) cell within a session. Reps and
// Weight are nullable: a row may exist with neither value recorded yet (blank
// cells are created eagerly when a session starts). Weight moves in 0.5
// increments.
type SessionSet struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutSessionID primitive.ObjectID `bson:"workoutSessionId" json:"workoutSessionId"`
	ExerciseID       primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	SetNumber        int                `bson:"setNumber" json:"setNumber"` // 1..SetsPerExercise
	Reps             *int               `bson:"reps" json:"reps"`
	Weight           *float64           `bson:"weight" json:"weight"`
}

// HasReps reports whether a rep value has been recorded for this set.
func (s *SessionSet) HasReps() bool {
	return s.Reps != nil
}
