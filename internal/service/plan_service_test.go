package service_test

import (
	"context"
	"strings"
	"testing"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planFixture struct {
	planService service.PlanService
	planRepo    *fakePlanRepo
	linkRepo    *fakeLinkRepo
	sessionRepo *fakeSessionRepo
	setRepo     *fakeSetRepo
	exRepo      *fakeExerciseRepo
	userID      primitive.ObjectID
}

func newPlanFixture() *planFixture {
	f := &planFixture{
		planRepo:    newFakePlanRepo(),
		linkRepo:    newFakeLinkRepo(),
		sessionRepo: newFakeSessionRepo(),
		setRepo:     newFakeSetRepo(),
		exRepo:      newFakeExerciseRepo(),
		userID:      primitive.NewObjectID(),
	}
	f.planService = service.NewPlanService(f.planRepo, f.linkRepo, f.sessionRepo, f.setRepo, f.exRepo)
	return f
}

func (f *planFixture) newExercise(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	id, err := f.exRepo.Create(context.Background(), &domain.Exercise{
		UserID: &f.userID,
		Name:   name,
		Sets:   3,
		Reps:   "8-12",
	})
	require.NoError(t, err)
	return id
}

func (f *planFixture) newPlan(t *testing.T, name string) *domain.WorkoutPlan {
	t.Helper()
	plan, err := f.planService.CreatePlan(context.Background(), f.userID, name)
	require.NoError(t, err)
	return plan
}

func (f *planFixture) addExercise(t *testing.T, planID primitive.ObjectID, name string) *domain.PlanExercise {
	t.Helper()
	exerciseID := f.newExercise(t, name)
	link, err := f.planService.AddExercise(context.Background(), f.userID, planID, exerciseID)
	require.NoError(t, err)
	return link
}

func (f *planFixture) visibleOrder(t *testing.T, planID primitive.ObjectID) []primitive.ObjectID {
	t.Helper()
	links, err := f.linkRepo.GetByPlanID(context.Background(), planID)
	require.NoError(t, err)
	var ids []primitive.ObjectID
	for _, l := range links {
		if !l.IsHidden {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func TestPlanService_CreatePlan(t *testing.T) {
	f := newPlanFixture()

	plan := f.newPlan(t, "push day")
	assert.Equal(t, "push day", plan.Name)
	assert.Equal(t, f.userID, plan.UserID)
	assert.NotEqual(t, primitive.NilObjectID, plan.ID)
}

func TestPlanService_CreatePlanValidation(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	_, err := f.planService.CreatePlan(ctx, f.userID, "")
	require.ErrorIs(t, err, service.ErrPlanValidation)

	_, err = f.planService.CreatePlan(ctx, f.userID, strings.Repeat("x", domain.MaxPlanNameLength+1))
	require.ErrorIs(t, err, service.ErrPlanValidation)
}

func TestPlanService_CreatePlanLimit(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	for i := 0; i < domain.MaxPlansPerUser; i++ {
		_, err := f.planService.CreatePlan(ctx, f.userID, "plan")
		require.NoError(t, err)
	}

	_, err := f.planService.CreatePlan(ctx, f.userID, "one too many")
	require.ErrorIs(t, err, service.ErrPlanLimitReached)

	// The limit is per user, not global.
	otherUser := primitive.NewObjectID()
	_, err = f.planService.CreatePlan(ctx, otherUser, "fine")
	require.NoError(t, err)
}

func TestPlanService_RenamePlanOwnership(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()
	plan := f.newPlan(t, "old name")

	err := f.planService.RenamePlan(ctx, primitive.NewObjectID(), plan.ID, "hijacked")
	require.ErrorIs(t, err, service.ErrPlanAccessDenied)

	require.NoError(t, f.planService.RenamePlan(ctx, f.userID, plan.ID, "new name"))
	got, err := f.planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "new name", got.Name)
}

func TestPlanService_AddExerciseAppendsToOrder(t *testing.T) {
	f := newPlanFixture()
	plan := f.newPlan(t, "legs")

	first := f.addExercise(t, plan.ID, "squat")
	second := f.addExercise(t, plan.ID, "lunge")

	assert.Equal(t, 0, first.OrderIndex)
	assert.Equal(t, 1, second.OrderIndex)
}

func TestPlanService_AddExerciseRejectsDuplicate(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()
	plan := f.newPlan(t, "legs")
	link := f.addExercise(t, plan.ID, "squat")

	_, err := f.planService.AddExercise(ctx, f.userID, plan.ID, link.ExerciseID)
	require.ErrorIs(t, err, service.ErrExerciseAlreadyInPlan)
}

func TestPlanService_AddExerciseBackfillsExistingSessions(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()
	plan := f.newPlan(t, "legs")
	f.addExercise(t, plan.ID, "squat")

	// Two pre-existing sessions.
	for n := 1; n <= 2; n++ {
		_, err := f.sessionRepo.Create(ctx, &domain.WorkoutSession{
			WorkoutPlanID: plan.ID,
			UserID:        f.userID,
			SessionNumber: n,
		})
		require.NoError(t, err)
	}

	link := f.addExercise(t, plan.ID, "leg press")

	sessions, err := f.sessionRepo.GetByPlanID(ctx, plan.ID)
	require.NoError(t, err)
	for _, session := range sessions {
		sets, err := f.setRepo.GetBySessionID(ctx, session.ID)
		require.NoError(t, err)
		count := 0
		for _, set := range sets {
			if set.ExerciseID == link.ExerciseID {
				count++
				assert.Nil(t, set.Reps)
				assert.Nil(t, set.Weight)
			}
		}
		assert.Equal(t, domain.SetsPerExercise, count, "each session gets a blank row grid for the new exercise")
	}
}

func TestPlanService_RemoveExerciseRenumbersDense(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()
	plan := f.newPlan(t, "legs")
	a := f.addExercise(t, plan.ID, "squat")
	b := f.addExercise(t, plan.ID, "lunge")
	c := f.addExercise(t, plan.ID, "leg press")

	require.NoError(t, f.planService.RemoveExercise(ctx, f.userID, plan.ID, b.ID))

	links, err := f.linkRepo.GetByPlanID(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, a.ID, links[0].ID)
	assert.Equal(t, 0, links[0].OrderIndex)
	assert.Equal(t, c.ID, links[1].ID)
	assert.Equal(t, 1, links[1].OrderIndex)
}

func TestPlanService_SetExerciseHiddenKeepsOrderIndexes(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()
	plan := f.newPlan(t, "legs")
	a := f.addExercise(t, plan.ID, "squat")
	b := f.addExercise(t, plan.ID, "lunge")
	c := f.addExercise(t, plan.ID, "leg press")

	require.NoError(t, f.planService.SetExerciseHidden(ctx, f.userID, plan.ID, b.ID, true))

	// Hiding flips the flag only; nobody is renumbered.
	links, err := f.linkRepo.GetByPlanID(ctx, plan.ID)
	require.NoError(t, err)
	byID := make(map[primitive.ObjectID]domain.PlanExercise, len(links))
	for _, l := range links {
		byID[l.ID] = l
	}
	assert.True(t, byID[b.ID].IsHidden)
	assert.Equal(t, 0, byID[a.ID].OrderIndex)
	assert.Equal(t, 1, byID[b.ID].OrderIndex)
	assert.Equal(t, 2, byID[c.ID].OrderIndex)

	// And back.
	require.NoError(t, f.planService.SetExerciseHidden(ctx, f.userID, plan.ID, b.ID, false))
	restored, err := f.linkRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsHidden)
	assert.Equal(t, 1, restored.OrderIndex)
}

func TestPlanService_ReorderExercises(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()
	plan := f.newPlan(t, "legs")
	a := f.addExercise(t, plan.ID, "squat")
	b := f.addExercise(t, plan.ID, "lunge")
	c := f.addExercise(t, plan.ID, "leg press")

	// [A,B,C] with A moved to the end is [B,C,A], renumbered densely.
	require.NoError(t, f.planService.ReorderExercises(ctx, f.userID, plan.ID, 0, 2))
	assert.Equal(t, []primitive.ObjectID{b.ID, c.ID, a.ID}, f.visibleOrder(t, plan.ID))

	err := f.planService.ReorderExercises(ctx, f.userID, plan.ID, 0, 3)
	require.ErrorIs(t, err, service.ErrInvalidReorder)
}

func TestPlanService_ReorderSkipsHiddenLinks(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()
	plan := f.newPlan(t, "legs")
	a := f.addExercise(t, plan.ID, "squat")
	b := f.addExercise(t, plan.ID, "lunge")
	c := f.addExercise(t, plan.ID, "leg press")

	require.NoError(t, f.planService.SetExerciseHidden(ctx, f.userID, plan.ID, a.ID, true))

	// Visible is [B,C]; indexes address that sequence only.
	require.NoError(t, f.planService.ReorderExercises(ctx, f.userID, plan.ID, 0, 1))
	assert.Equal(t, []primitive.ObjectID{c.ID, b.ID}, f.visibleOrder(t, plan.ID))

	hidden, err := f.linkRepo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden)
}

func TestPlanService_DeletePlanCascades(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()
	plan := f.newPlan(t, "legs")
	link := f.addExercise(t, plan.ID, "squat")

	sessionID, err := f.sessionRepo.Create(ctx, &domain.WorkoutSession{
		WorkoutPlanID: plan.ID,
		UserID:        f.userID,
		SessionNumber: 1,
	})
	require.NoError(t, err)
	_, err = f.setRepo.Create(ctx, &domain.SessionSet{
		WorkoutSessionID: sessionID,
		ExerciseID:       link.ExerciseID,
		SetNumber:        1,
	})
	require.NoError(t, err)

	require.NoError(t, f.planService.DeletePlan(ctx, f.userID, plan.ID))

	_, err = f.planRepo.GetByID(ctx, plan.ID)
	require.Error(t, err)
	links, err := f.linkRepo.GetByPlanID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
	sessions, err := f.sessionRepo.GetByPlanID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	sets, err := f.setRepo.GetBySessionIDs(ctx, []primitive.ObjectID{sessionID})
	require.NoError(t, err)
	assert.Empty(t, sets)
}
