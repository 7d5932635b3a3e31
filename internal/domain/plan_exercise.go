package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanExercise links one Exercise into one WorkoutPlan. Exactly one link may
// exist per (plan, exercise) pair.
//
// OrderIndex is dense and zero-based within a plan's visible links; every
// mutation that changes membership or order renumbers the remaining visible
// links to keep the sequence contiguous. IsHidden soft-removes the link from
// active tracking views while retaining it (and any historical session sets)
// for later restoration.
type PlanExercise struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutPlanID primitive.ObjectID `bson:"workoutPlanId" json:"workoutPlanId"`
	ExerciseID    primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	OrderIndex    int                `bson:"orderIndex" json:"orderIndex"`
	IsHidden      bool               `bson:"isHidden" json:"isHidden"`
}

// PlanExerciseDetail is a link joined with its exercise record, as produced
// by the composed plan-graph fetch.
type PlanExerciseDetail struct {
	PlanExercise `bson:",inline"`
	Exercise     Exercise `bson:"exercise" json:"exercise"`
}

// PlanWithExercises is one plan with its links (joined to exercise details),
// ordered by OrderIndex ascending. Hidden and visible links are interleaved
// here; partitioning happens in the store.
type PlanWithExercises struct {
	WorkoutPlan `bson:",inline"`
	Links       []PlanExerciseDetail `bson:"links" json:"links"`
}
