package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeFileStorage implements storage.FileStorage in memory.
type fakeFileStorage struct {
	deleted []string
}

func (f *fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://bucket.test/upload/%s?type=%s", objectKey, contentType), nil
}

func (f *fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://bucket.test/download/" + objectKey, nil
}

func (f *fakeFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

type exerciseFixture struct {
	exerciseService service.ExerciseService
	exRepo          *fakeExerciseRepo
	linkRepo        *fakeLinkRepo
	userID          primitive.ObjectID
}

func newExerciseFixture() *exerciseFixture {
	f := &exerciseFixture{
		exRepo:   newFakeExerciseRepo(),
		linkRepo: newFakeLinkRepo(),
		userID:   primitive.NewObjectID(),
	}
	f.exerciseService = service.NewExerciseService(f.exRepo, f.linkRepo, &fakeFileStorage{})
	return f
}

func validInput() service.ExerciseInput {
	return service.ExerciseInput{
		Name:        "bench press",
		Sets:        3,
		Reps:        "8-12",
		RestMinutes: 1,
		RestSeconds: 30,
	}
}

func TestExerciseService_CreateExercise(t *testing.T) {
	f := newExerciseFixture()

	exercise, err := f.exerciseService.CreateExercise(context.Background(), f.userID, validInput())
	require.NoError(t, err)
	assert.NotEqual(t, primitive.NilObjectID, exercise.ID)
	require.NotNil(t, exercise.UserID)
	assert.Equal(t, f.userID, *exercise.UserID)
}

func TestExerciseService_CreateExerciseValidation(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*service.ExerciseInput)
	}{
		{"empty name", func(in *service.ExerciseInput) { in.Name = "" }},
		{"zero sets", func(in *service.ExerciseInput) { in.Sets = 0 }},
		{"empty reps", func(in *service.ExerciseInput) { in.Reps = "" }},
		{"negative rest minutes", func(in *service.ExerciseInput) { in.RestMinutes = -1 }},
		{"rest seconds over 59", func(in *service.ExerciseInput) { in.RestSeconds = 60 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := f.exerciseService.CreateExercise(ctx, f.userID, in)
			require.ErrorIs(t, err, service.ErrExerciseValidation)
		})
	}
}

func TestExerciseService_UpdateRequiresOwnershipOrAdmin(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()

	exercise, err := f.exerciseService.CreateExercise(ctx, f.userID, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Name = "incline bench"

	stranger := &domain.User{ID: primitive.NewObjectID()}
	_, err = f.exerciseService.UpdateExercise(ctx, stranger, exercise.ID, in)
	require.ErrorIs(t, err, service.ErrExerciseAccessDenied)

	owner := &domain.User{ID: f.userID}
	updated, err := f.exerciseService.UpdateExercise(ctx, owner, exercise.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "incline bench", updated.Name)

	admin := &domain.User{ID: primitive.NewObjectID(), IsAdmin: true}
	in.Name = "admin touch"
	_, err = f.exerciseService.UpdateExercise(ctx, admin, exercise.ID, in)
	require.NoError(t, err)
}

func TestExerciseService_DeleteCascadesPlanLinks(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()

	exercise, err := f.exerciseService.CreateExercise(ctx, f.userID, validInput())
	require.NoError(t, err)

	planID := primitive.NewObjectID()
	_, err = f.linkRepo.Create(ctx, &domain.PlanExercise{
		WorkoutPlanID: planID,
		ExerciseID:    exercise.ID,
		OrderIndex:    0,
	})
	require.NoError(t, err)

	owner := &domain.User{ID: f.userID}
	require.NoError(t, f.exerciseService.DeleteExercise(ctx, owner, exercise.ID))

	_, err = f.exerciseService.GetExerciseByID(ctx, exercise.ID)
	require.ErrorIs(t, err, service.ErrExerciseNotFound)

	links, err := f.linkRepo.GetByPlanID(ctx, planID)
	require.NoError(t, err)
	assert.Empty(t, links, "plan links pointing at the exercise are removed")
}

func TestExerciseService_GetVisibleExercises(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()

	mine, err := f.exerciseService.CreateExercise(ctx, f.userID, validInput())
	require.NoError(t, err)

	// Shared library exercise (no owner).
	sharedID, err := f.exRepo.Create(ctx, &domain.Exercise{Name: "air squat", Sets: 3, Reps: "15"})
	require.NoError(t, err)

	// Another user's private exercise must stay out of sight.
	otherUser := primitive.NewObjectID()
	in := validInput()
	in.Name = "secret technique"
	in.IsPrivate = true
	_, err = f.exerciseService.CreateExercise(ctx, otherUser, in)
	require.NoError(t, err)

	visible, err := f.exerciseService.GetVisibleExercises(ctx, f.userID)
	require.NoError(t, err)

	ids := make(map[primitive.ObjectID]bool, len(visible))
	for _, e := range visible {
		ids[e.ID] = true
	}
	assert.True(t, ids[mine.ID])
	assert.True(t, ids[sharedID])
	assert.Len(t, visible, 2)
}

func TestExerciseService_VideoURLs(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()

	upload, err := f.exerciseService.RequestVideoUploadURL(ctx, f.userID, "video/quicktime")
	require.NoError(t, err)
	assert.NotEmpty(t, upload.UploadURL)
	assert.Contains(t, upload.ObjectKey, "exercise-videos/"+f.userID.Hex())

	in := validInput()
	in.VideoURL = upload.ObjectKey
	exercise, err := f.exerciseService.CreateExercise(ctx, f.userID, in)
	require.NoError(t, err)

	downloadURL, err := f.exerciseService.ResolveVideoDownloadURL(ctx, exercise.ID)
	require.NoError(t, err)
	assert.Contains(t, downloadURL, upload.ObjectKey)

	// An exercise without a video has nothing to resolve.
	plain, err := f.exerciseService.CreateExercise(ctx, f.userID, validInput())
	require.NoError(t, err)
	_, err = f.exerciseService.ResolveVideoDownloadURL(ctx, plain.ID)
	require.ErrorIs(t, err, service.ErrExerciseNoVideo)
}
