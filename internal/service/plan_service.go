package service

import (
	"context"
	"errors"
	"fmt"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound          = errors.New("workout plan not found")
	ErrPlanAccessDenied      = errors.New("access denied to this workout plan")
	ErrPlanLimitReached      = fmt.Errorf("you have reached the maximum of %d workout plans", domain.MaxPlansPerUser)
	ErrPlanValidation        = errors.New("plan validation failed")
	ErrExerciseAlreadyInPlan = errors.New("exercise is already part of this plan")
	ErrLinkNotFound          = errors.New("plan exercise not found")
	ErrInvalidReorder        = errors.New("reorder indexes out of range")
)

// PlanService manages workout plans and their exercise membership. All
// membership and order mutations write through to the database; the plan data
// store picks the changes up through the change feed (its own optimistic copy
// of the same mutation usually lands first).
type PlanService interface {
	CreatePlan(ctx context.Context, userID primitive.ObjectID, name string) (*domain.WorkoutPlan, error)
	GetPlanForUser(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	RenamePlan(ctx context.Context, userID, planID primitive.ObjectID, name string) error
	DeletePlan(ctx context.Context, userID, planID primitive.ObjectID) error

	AddExercise(ctx context.Context, userID, planID, exerciseID primitive.ObjectID) (*domain.PlanExercise, error)
	RemoveExercise(ctx context.Context, userID, planID, linkID primitive.ObjectID) error
	SetExerciseHidden(ctx context.Context, userID, planID, linkID primitive.ObjectID, hidden bool) error
	ReorderExercises(ctx context.Context, userID, planID primitive.ObjectID, oldIndex, newIndex int) error
}

// planService implements the PlanService interface.
type planService struct {
	planRepo    repository.WorkoutPlanRepository
	linkRepo    repository.PlanExerciseRepository
	sessionRepo repository.SessionRepository
	setRepo     repository.SessionSetRepository
	exercise    repository.ExerciseRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.WorkoutPlanRepository,
	linkRepo repository.PlanExerciseRepository,
	sessionRepo repository.SessionRepository,
	setRepo repository.SessionSetRepository,
	exerciseRepo repository.ExerciseRepository,
) PlanService {
	return &planService{
		planRepo:    planRepo,
		linkRepo:    linkRepo,
		sessionRepo: sessionRepo,
		setRepo:     setRepo,
		exercise:    exerciseRepo,
	}
}

// CreatePlan creates a plan after checking the per-user limit. The count
// check is a pre-insert guard, not a database constraint: two concurrent
// creations from the same user can both pass it. Accepted limitation,
// matching the product behavior.
func (s *planService) CreatePlan(ctx context.Context, userID primitive.ObjectID, name string) (*domain.WorkoutPlan, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required to create a plan")
	}
	if err := validatePlanName(name); err != nil {
		return nil, err
	}

	count, err := s.planRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxPlansPerUser {
		return nil, ErrPlanLimitReached
	}

	plan := &domain.WorkoutPlan{
		UserID: userID,
		Name:   name,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

func validatePlanName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrPlanValidation)
	}
	if len(name) > domain.MaxPlanNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrPlanValidation, domain.MaxPlanNameLength)
	}
	return nil
}

// GetPlanForUser fetches a plan and verifies the user owns it.
func (s *planService) GetPlanForUser(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrPlanAccessDenied
	}
	return plan, nil
}

// RenamePlan renames a plan in place.
func (s *planService) RenamePlan(ctx context.Context, userID, planID primitive.ObjectID, name string) error {
	if err := validatePlanName(name); err != nil {
		return err
	}
	if _, err := s.GetPlanForUser(ctx, userID, planID); err != nil {
		return err
	}
	return s.planRepo.Rename(ctx, planID, name)
}

// DeletePlan removes a plan and cascades its links, sessions and set rows.
func (s *planService) DeletePlan(ctx context.Context, userID, planID primitive.ObjectID) error {
	if _, err := s.GetPlanForUser(ctx, userID, planID); err != nil {
		return err
	}

	if err := s.planRepo.Delete(ctx, planID); err != nil {
		return err
	}
	if err := s.linkRepo.DeleteByPlanID(ctx, planID); err != nil {
		return err
	}
	sessionIDs, err := s.sessionRepo.DeleteByPlanID(ctx, planID)
	if err != nil {
		return err
	}
	return s.setRepo.DeleteBySessionIDs(ctx, sessionIDs)
}

// AddExercise links an exercise into a plan at the end of the order. If the
// plan already has recorded sessions, 4 blank set rows per session are
// back-filled so the tracker grid stays rectangular.
func (s *planService) AddExercise(ctx context.Context, userID, planID, exerciseID primitive.ObjectID) (*domain.PlanExercise, error) {
	if _, err := s.GetPlanForUser(ctx, userID, planID); err != nil {
		return nil, err
	}
	if _, err := s.exercise.GetByID(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	// Uniqueness pre-check; the unique (plan, exercise) index backs it up.
	exists, err := s.linkRepo.ExistsForPlanAndExercise(ctx, planID, exerciseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrExerciseAlreadyInPlan
	}

	links, err := s.linkRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	nextOrder := 0
	for _, l := range links {
		if l.OrderIndex >= nextOrder {
			nextOrder = l.OrderIndex + 1
		}
	}

	link := &domain.PlanExercise{
		WorkoutPlanID: planID,
		ExerciseID:    exerciseID,
		OrderIndex:    nextOrder,
	}
	linkID, err := s.linkRepo.Create(ctx, link)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrExerciseAlreadyInPlan
		}
		return nil, err
	}
	link.ID = linkID

	if err := s.backfillSets(ctx, planID, exerciseID); err != nil {
		return nil, err
	}
	return link, nil
}

// backfillSets creates blank set rows for a newly added exercise in every
// session the plan already has.
func (s *planService) backfillSets(ctx context.Context, planID, exerciseID primitive.ObjectID) error {
	sessions, err := s.sessionRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	sets := make([]domain.SessionSet, 0, len(sessions)*domain.SetsPerExercise)
	for _, session := range sessions {
		for setNum := 1; setNum <= domain.SetsPerExercise; setNum++ {
			sets = append(sets, domain.SessionSet{
				WorkoutSessionID: session.ID,
				ExerciseID:       exerciseID,
				SetNumber:        setNum,
			})
		}
	}
	return s.setRepo.CreateMany(ctx, sets)
}

// getLinkInPlan fetches a link and verifies it belongs to the given plan.
func (s *planService) getLinkInPlan(ctx context.Context, planID, linkID primitive.ObjectID) (*domain.PlanExercise, error) {
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if link.WorkoutPlanID != planID {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

// RemoveExercise deletes a link and renumbers the remaining visible links to
// keep order indexes dense. Historical session sets for the exercise are left
// untouched.
func (s *planService) RemoveExercise(ctx context.Context, userID, planID, linkID primitive.ObjectID) error {
	if _, err := s.GetPlanForUser(ctx, userID, planID); err != nil {
		return err
	}
	if _, err := s.getLinkInPlan(ctx, planID, linkID); err != nil {
		return err
	}

	if err := s.linkRepo.Delete(ctx, linkID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return s.renumberVisible(ctx, planID)
}

// SetExerciseHidden flips the hidden flag. A hide updates the flag only;
// order indexes of the remaining visible links are left as they are, matching
// the optimistic projection in the store.
func (s *planService) SetExerciseHidden(ctx context.Context, userID, planID, linkID primitive.ObjectID, hidden bool) error {
	if _, err := s.GetPlanForUser(ctx, userID, planID); err != nil {
		return err
	}
	if _, err := s.getLinkInPlan(ctx, planID, linkID); err != nil {
		return err
	}

	if err := s.linkRepo.SetHidden(ctx, linkID, hidden); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return nil
}

// ReorderExercises moves the visible link at oldIndex to newIndex and writes
// the dense renumbering back in one batch.
func (s *planService) ReorderExercises(ctx context.Context, userID, planID primitive.ObjectID, oldIndex, newIndex int) error {
	if _, err := s.GetPlanForUser(ctx, userID, planID); err != nil {
		return err
	}

	visible, err := s.visibleLinks(ctx, planID)
	if err != nil {
		return err
	}
	n := len(visible)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		return ErrInvalidReorder
	}

	moved := visible[oldIndex]
	visible = append(visible[:oldIndex], visible[oldIndex+1:]...)
	visible = append(visible, domain.PlanExercise{})
	copy(visible[newIndex+1:], visible[newIndex:])
	visible[newIndex] = moved

	return s.linkRepo.UpdateOrderIndexes(ctx, denseOrderUpdates(visible))
}

// renumberVisible rewrites the visible links' order indexes as a dense
// 0..n-1 sequence in their current order.
func (s *planService) renumberVisible(ctx context.Context, planID primitive.ObjectID) error {
	visible, err := s.visibleLinks(ctx, planID)
	if err != nil {
		return err
	}
	return s.linkRepo.UpdateOrderIndexes(ctx, denseOrderUpdates(visible))
}

func (s *planService) visibleLinks(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanExercise, error) {
	links, err := s.linkRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.PlanExercise, 0, len(links))
	for _, l := range links {
		if !l.IsHidden {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

// denseOrderUpdates maps slice positions to order index writes. Every mutator
// that changes visible membership or order funnels through here so the
// renumbering rule cannot diverge between paths.
func denseOrderUpdates(visible []domain.PlanExercise) []repository.OrderUpdate {
	updates := make([]repository.OrderUpdate, 0, len(visible))
	for i, l := range visible {
		updates = append(updates, repository.OrderUpdate{LinkID: l.ID, OrderIndex: i})
	}
	return updates
}
