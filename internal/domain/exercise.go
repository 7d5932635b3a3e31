package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise represents a reusable movement definition in the library.
// An exercise without an owner (UserID == nil) belongs to the shared library
// and is visible to everyone; owned exercises are visible to their creator
// and, unless marked private, to other users as well.
type Exercise struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"` // Owner; nil for shared/library exercises
	Name         string              `bson:"name" json:"name"`
	Sets         int                 `bson:"sets" json:"sets"` // Target number of sets, >= 1
	Reps         string              `bson:"reps" json:"reps"` // Free-form, e.g. "8-12"
	VideoURL     string              `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	MuscleGroups string              `bson:"muscleGroups,omitempty" json:"muscleGroups,omitempty"`
	RestMinutes  int                 `bson:"restMinutes" json:"restMinutes"`
	RestSeconds  int                 `bson:"restSeconds" json:"restSeconds"` // In [0, 59]
	IsPrivate    bool                `bson:"isPrivate" json:"isPrivate"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// OwnedBy reports whether the exercise is owned by the given user.
func (e *Exercise) OwnedBy(userID primitive.ObjectID) bool {
	return e.UserID != nil && *e.UserID == userID
}

// IsShared reports whether the exercise is visible beyond its owner.
// Ownerless exercises are implicitly shared.
func (e *Exercise) IsShared() bool {
	return e.UserID == nil || !e.IsPrivate
}
