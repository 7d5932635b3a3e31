package service

import (
	"context"
	"errors"
	"fmt"
	"path"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/repository"
	"planfit/workout-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to modify or delete this exercise")
	ErrExerciseValidation   = errors.New("exercise validation failed")
	ErrUploadURLError       = errors.New("failed to generate upload URL")
	ErrExerciseNoVideo      = errors.New("exercise has no demonstration video")
)

// ExerciseInput carries the user-editable fields of an exercise.
type ExerciseInput struct {
	Name         string
	Sets         int
	Reps         string
	VideoURL     string
	MuscleGroups string
	RestMinutes  int
	RestSeconds  int
	IsPrivate    bool
}

// VideoUploadURL pairs a presigned PUT URL with the object key the client
// reports back once the upload finishes.
type VideoUploadURL struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// ExerciseService manages the exercise library: per-user private exercises
// plus the shared pool everyone can pull into their plans.
type ExerciseService interface {
	CreateExercise(ctx context.Context, userID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetVisibleExercises(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, user *domain.User, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, user *domain.User, exerciseID primitive.ObjectID) error
	// RequestVideoUploadURL returns a presigned URL the client PUTs a
	// demonstration video to; the resulting object key is stored on the
	// exercise as its video reference.
	RequestVideoUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*VideoUploadURL, error)
	// ResolveVideoDownloadURL turns an exercise's stored object key into a
	// presigned GET URL for playback.
	ResolveVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	linkRepo     repository.PlanExerciseRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	linkRepo repository.PlanExerciseRepository,
	fileStorage storage.FileStorage,
) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		linkRepo:     linkRepo,
		fileStorage:  fileStorage,
	}
}

func validateExerciseInput(input ExerciseInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: name is required", ErrExerciseValidation)
	}
	if input.Sets < 1 {
		return fmt.Errorf("%w: sets must be at least 1", ErrExerciseValidation)
	}
	if input.Reps == "" {
		return fmt.Errorf("%w: reps is required", ErrExerciseValidation)
	}
	if input.RestMinutes < 0 {
		return fmt.Errorf("%w: rest minutes cannot be negative", ErrExerciseValidation)
	}
	if input.RestSeconds < 0 || input.RestSeconds > 59 {
		return fmt.Errorf("%w: rest seconds must be between 0 and 59", ErrExerciseValidation)
	}
	return nil
}

// CreateExercise handles the creation of a new exercise owned by the user.
func (s *exerciseService) CreateExercise(ctx context.Context, userID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required to create an exercise")
	}
	if err := validateExerciseInput(input); err != nil {
		return nil, err
	}

	exercise := &domain.Exercise{
		UserID:       &userID,
		Name:         input.Name,
		Sets:         input.Sets,
		Reps:         input.Reps,
		VideoURL:     input.VideoURL,
		MuscleGroups: input.MuscleGroups,
		RestMinutes:  input.RestMinutes,
		RestSeconds:  input.RestSeconds,
		IsPrivate:    input.IsPrivate,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = exerciseID
	return exercise, nil
}

// GetExerciseByID retrieves a single exercise.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// GetVisibleExercises retrieves the exercises the user can see: their own
// plus the shared library.
func (s *exerciseService) GetVisibleExercises(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID cannot be nil")
	}
	return s.exerciseRepo.GetVisibleToUser(ctx, userID)
}

// canModify reports whether a user may edit or delete an exercise: the owner
// always can; admins additionally manage the shared (ownerless) library.
func canModify(user *domain.User, exercise *domain.Exercise) bool {
	if user.IsAdmin {
		return true
	}
	return exercise.OwnedBy(user.ID)
}

// UpdateExercise handles updating an existing exercise, ensuring ownership.
func (s *exerciseService) UpdateExercise(ctx context.Context, user *domain.User, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	if err := validateExerciseInput(input); err != nil {
		return nil, err
	}

	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if !canModify(user, existing) {
		return nil, ErrExerciseAccessDenied
	}

	existing.Name = input.Name
	existing.Sets = input.Sets
	existing.Reps = input.Reps
	existing.VideoURL = input.VideoURL
	existing.MuscleGroups = input.MuscleGroups
	existing.RestMinutes = input.RestMinutes
	existing.RestSeconds = input.RestSeconds
	existing.IsPrivate = input.IsPrivate

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return existing, nil
}

// DeleteExercise removes an exercise and cascades away every plan link that
// points at it. Deletion is hard; historical session sets referencing the
// exercise stay in place.
func (s *exerciseService) DeleteExercise(ctx context.Context, user *domain.User, exerciseID primitive.ObjectID) error {
	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	if !canModify(user, existing) {
		return ErrExerciseAccessDenied
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	// Cascade plan links after the exercise itself; a failure here leaves
	// orphan links that the plan-graph fetch filters out anyway.
	return s.linkRepo.DeleteByExerciseID(ctx, exerciseID)
}

// RequestVideoUploadURL generates a presigned URL for uploading an exercise
// demonstration video.
func (s *exerciseService) RequestVideoUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*VideoUploadURL, error) {
	if contentType == "" {
		contentType = "video/mp4"
	}

	objectKey := path.Join("exercise-videos", userID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadURLError, err)
	}

	return &VideoUploadURL{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
	}, nil
}

// ResolveVideoDownloadURL presigns a GET URL for an exercise's stored video.
func (s *exerciseService) ResolveVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return "", err
	}
	if exercise.VideoURL == "" {
		return "", ErrExerciseNoVideo
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.VideoURL, storage.DefaultPresignedURLExpiry)
}
