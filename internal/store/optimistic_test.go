package store_test

import (
	"testing"
	"time"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// seededStore loads a store with one plan whose links are given, returning
// the store and the plan ID.
func seededStore(t *testing.T, links ...domain.PlanExerciseDetail) (*store.Store, primitive.ObjectID) {
	t.Helper()
	userID := primitive.NewObjectID()
	row := planRow(userID, "seeded")
	row.Links = links

	src := newFakeSource()
	src.rows[userID] = []domain.PlanWithExercises{row}
	s, _ := newTestStore(t, src, time.Hour)
	s.SetIdentity(userID)
	waitForPlans(t, s, 1)
	return s, row.ID
}

func visibleLinkIDs(snap *store.Snapshot) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(snap.Plans[0].Exercises))
	for _, l := range snap.Plans[0].Exercises {
		ids = append(ids, l.PlanExercise.ID)
	}
	return ids
}

func TestStore_HideExercise(t *testing.T) {
	planID := primitive.NewObjectID()
	a := linkDetail(planID, 0, false)
	b := linkDetail(planID, 1, false)
	c := linkDetail(planID, 2, false)
	s, planID := seededStore(t, a, b, c)

	require.True(t, s.HideExercise(planID, b.PlanExercise.ID))

	snap := s.Snapshot()
	plan := snap.Plans[0]
	assert.Equal(t, []primitive.ObjectID{a.PlanExercise.ID, c.PlanExercise.ID}, visibleLinkIDs(snap))
	require.Len(t, plan.HiddenExercises, 1)
	assert.True(t, plan.HiddenExercises[0].IsHidden)

	// A hide is the flag move alone; the survivors keep their indexes.
	assert.Equal(t, 0, plan.Exercises[0].OrderIndex)
	assert.Equal(t, 2, plan.Exercises[1].OrderIndex)
}

func TestStore_HideUnhideRoundTripRestoresOrder(t *testing.T) {
	planID := primitive.NewObjectID()
	a := linkDetail(planID, 0, false)
	b := linkDetail(planID, 1, false)
	c := linkDetail(planID, 2, false)
	s, planID := seededStore(t, a, b, c)

	require.True(t, s.HideExercise(planID, b.PlanExercise.ID))
	require.True(t, s.UnhideExercise(planID, b.PlanExercise.ID))

	snap := s.Snapshot()
	plan := snap.Plans[0]
	assert.Equal(t,
		[]primitive.ObjectID{a.PlanExercise.ID, b.PlanExercise.ID, c.PlanExercise.ID},
		visibleLinkIDs(snap),
		"unhide must re-insert at the position implied by the order index")
	assert.Empty(t, plan.HiddenExercises)
	assert.False(t, plan.Exercises[1].IsHidden)
}

func TestStore_LinkNeverInBothPartitions(t *testing.T) {
	planID := primitive.NewObjectID()
	a := linkDetail(planID, 0, false)
	b := linkDetail(planID, 1, false)
	s, planID := seededStore(t, a, b)

	require.True(t, s.HideExercise(planID, a.PlanExercise.ID))

	plan := s.Snapshot().Plans[0]
	seen := make(map[primitive.ObjectID]int)
	for _, l := range plan.Exercises {
		seen[l.PlanExercise.ID]++
	}
	for _, l := range plan.HiddenExercises {
		seen[l.PlanExercise.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "link %s appears in both partitions", id.Hex())
	}
}

func TestStore_ReorderExercises(t *testing.T) {
	planID := primitive.NewObjectID()
	a := linkDetail(planID, 0, false)
	b := linkDetail(planID, 1, false)
	c := linkDetail(planID, 2, false)
	s, planID := seededStore(t, a, b, c)

	// [A,B,C] with A moved to the end is [B,C,A].
	require.True(t, s.ReorderExercises(planID, 0, 2))

	snap := s.Snapshot()
	plan := snap.Plans[0]
	assert.Equal(t,
		[]primitive.ObjectID{b.PlanExercise.ID, c.PlanExercise.ID, a.PlanExercise.ID},
		visibleLinkIDs(snap))
	for i, l := range plan.Exercises {
		assert.Equal(t, i, l.OrderIndex, "order indexes must be renumbered densely")
	}
}

func TestStore_ReorderOutOfRange(t *testing.T) {
	planID := primitive.NewObjectID()
	a := linkDetail(planID, 0, false)
	b := linkDetail(planID, 1, false)
	s, planID := seededStore(t, a, b)

	assert.False(t, s.ReorderExercises(planID, 0, 2))
	assert.False(t, s.ReorderExercises(planID, -1, 0))
	assert.Equal(t, []primitive.ObjectID{a.PlanExercise.ID, b.PlanExercise.ID}, visibleLinkIDs(s.Snapshot()))
}

func TestStore_MutationsOnUnknownTargetsReturnFalse(t *testing.T) {
	planID := primitive.NewObjectID()
	a := linkDetail(planID, 0, false)
	s, planID := seededStore(t, a)

	assert.False(t, s.HideExercise(primitive.NewObjectID(), a.PlanExercise.ID))
	assert.False(t, s.HideExercise(planID, primitive.NewObjectID()))
	assert.False(t, s.UnhideExercise(planID, a.PlanExercise.ID), "visible link is not in the hidden partition")
}

func TestStore_PublishedSnapshotIsImmutable(t *testing.T) {
	planID := primitive.NewObjectID()
	a := linkDetail(planID, 0, false)
	b := linkDetail(planID, 1, false)
	s, planID := seededStore(t, a, b)

	before := s.Snapshot()
	beforeVisible := len(before.Plans[0].Exercises)

	require.True(t, s.HideExercise(planID, b.PlanExercise.ID))

	after := s.Snapshot()
	require.NotSame(t, before, after)
	assert.Len(t, before.Plans[0].Exercises, beforeVisible, "mutation must not touch an already published snapshot")
	assert.Len(t, after.Plans[0].Exercises, beforeVisible-1)
}
