package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound       = errors.New("workout session not found")
	ErrSessionAccessDenied   = errors.New("access denied to this workout session")
	ErrPreviousSessionNoReps = errors.New("record at least one rep in the current session before starting a new one")
	ErrSetValidation         = errors.New("set value validation failed")
	ErrNoExercisesInPlan     = errors.New("plan has no visible exercises to track")
	ErrSetNumberOutOfRange   = fmt.Errorf("set number must be between 1 and %d", domain.SetsPerExercise)
	ErrExerciseNotInSession  = errors.New("exercise is not part of this session's plan")
)

// TrackerData is everything the session grid needs: the plan's visible
// exercises in order, its sessions newest first, and the set rows grouped by
// session.
type TrackerData struct {
	Plan          *domain.WorkoutPlan            `json:"plan"`
	Exercises     []domain.Exercise              `json:"exercises"`
	Sessions      []domain.WorkoutSession        `json:"sessions"`
	SetsBySession map[string][]domain.SessionSet `json:"setsBySession"`
}

// SessionService manages workout sessions and their set grid.
type SessionService interface {
	// OpenTracker loads the tracking grid for a plan. The first time a plan's
	// tracker is opened (no sessions yet) session #1 is auto-created with a
	// blank 4-set row per visible exercise.
	OpenTracker(ctx context.Context, userID, planID primitive.ObjectID) (*TrackerData, error)

	// CreateSession starts the next session, guarded on the previous one
	// having at least one recorded rep. Weights are prefilled from the
	// previous session per (exercise, set-number); reps start blank.
	CreateSession(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutSession, []domain.SessionSet, error)

	UpdateReps(ctx context.Context, userID, sessionID, exerciseID primitive.ObjectID, setNumber int, reps *int) (*domain.SessionSet, error)
	UpdateWeight(ctx context.Context, userID, sessionID, exerciseID primitive.ObjectID, setNumber int, weight *float64) (*domain.SessionSet, error)
	UpdateSessionDate(ctx context.Context, userID, sessionID primitive.ObjectID, date time.Time) error
}

// sessionService implements the SessionService interface.
type sessionService struct {
	planRepo     repository.WorkoutPlanRepository
	linkRepo     repository.PlanExerciseRepository
	sessionRepo  repository.SessionRepository
	setRepo      repository.SessionSetRepository
	exerciseRepo repository.ExerciseRepository
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(
	planRepo repository.WorkoutPlanRepository,
	linkRepo repository.PlanExerciseRepository,
	sessionRepo repository.SessionRepository,
	setRepo repository.SessionSetRepository,
	exerciseRepo repository.ExerciseRepository,
) SessionService {
	return &sessionService{
		planRepo:     planRepo,
		linkRepo:     linkRepo,
		sessionRepo:  sessionRepo,
		setRepo:      setRepo,
		exerciseRepo: exerciseRepo,
	}
}

// visibleExercises returns the plan's visible exercises in link order.
func (s *sessionService) visibleExercises(ctx context.Context, planID primitive.ObjectID) ([]domain.Exercise, error) {
	links, err := s.linkRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(links))
	for _, l := range links {
		if !l.IsHidden {
			ids = append(ids, l.ExerciseID)
		}
	}
	exercises, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Restore link order; GetByIDs gives no ordering guarantee.
	byID := make(map[primitive.ObjectID]domain.Exercise, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}
	ordered := make([]domain.Exercise, 0, len(ids))
	for _, id := range ids {
		if ex, ok := byID[id]; ok {
			ordered = append(ordered, ex)
		}
	}
	return ordered, nil
}

func (s *sessionService) ownedPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
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

// OpenTracker loads the grid, auto-creating session #1 on first open.
func (s *sessionService) OpenTracker(ctx context.Context, userID, planID primitive.ObjectID) (*TrackerData, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	exercises, err := s.visibleExercises(ctx, planID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessionRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if len(sessions) == 0 {
		if len(exercises) == 0 {
			return nil, ErrNoExercisesInPlan
		}
		session, sets, err := s.createSessionWithSets(ctx, userID, planID, 1, exercises, nil)
		if err != nil {
			return nil, err
		}
		return &TrackerData{
			Plan:      plan,
			Exercises: exercises,
			Sessions:  []domain.WorkoutSession{*session},
			SetsBySession: map[string][]domain.SessionSet{
				session.ID.Hex(): sets,
			},
		}, nil
	}

	sessionIDs := make([]primitive.ObjectID, 0, len(sessions))
	for _, sess := range sessions {
		sessionIDs = append(sessionIDs, sess.ID)
	}
	allSets, err := s.setRepo.GetBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	setsBySession := make(map[string][]domain.SessionSet, len(sessions))
	for _, set := range allSets {
		key := set.WorkoutSessionID.Hex()
		setsBySession[key] = append(setsBySession[key], set)
	}

	return &TrackerData{
		Plan:          plan,
		Exercises:     exercises,
		Sessions:      sessions,
		SetsBySession: setsBySession,
	}, nil
}

// CreateSession starts session count+1 after checking that the most recent
// session has at least one recorded rep. The guard is client-facing product
// behavior, not a consistency requirement.
func (s *sessionService) CreateSession(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutSession, []domain.SessionSet, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, nil, err
	}

	exercises, err := s.visibleExercises(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	if len(exercises) == 0 {
		return nil, nil, ErrNoExercisesInPlan
	}

	sessions, err := s.sessionRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, nil, err
	}

	var previousSets []domain.SessionSet
	if len(sessions) > 0 {
		// Newest first, so sessions[0] is the one the guard inspects.
		previousSets, err = s.setRepo.GetBySessionID(ctx, sessions[0].ID)
		if err != nil {
			return nil, nil, err
		}
		if !anyRepsRecorded(previousSets) {
			return nil, nil, ErrPreviousSessionNoReps
		}
	}

	session, sets, err := s.createSessionWithSets(ctx, userID, planID, len(sessions)+1, exercises, previousSets)
	if err != nil {
		return nil, nil, err
	}
	return session, sets, nil
}

func anyRepsRecorded(sets []domain.SessionSet) bool {
	for _, set := range sets {
		if set.HasReps() {
			return true
		}
	}
	return false
}

// createSessionWithSets inserts the session and its eager blank grid,
// prefilling weights from the previous session's matching cells.
func (s *sessionService) createSessionWithSets(
	ctx context.Context,
	userID, planID primitive.ObjectID,
	sessionNumber int,
	exercises []domain.Exercise,
	previousSets []domain.SessionSet,
) (*domain.WorkoutSession, []domain.SessionSet, error) {
	session := &domain.WorkoutSession{
		WorkoutPlanID: planID,
		UserID:        userID,
		SessionNumber: sessionNumber,
	}
	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	session.ID = sessionID

	prevWeight := make(map[string]*float64, len(previousSets))
	for _, set := range previousSets {
		prevWeight[cellKey(set.ExerciseID, set.SetNumber)] = set.Weight
	}

	sets := make([]domain.SessionSet, 0, len(exercises)*domain.SetsPerExercise)
	for _, exercise := range exercises {
		for setNum := 1; setNum <= domain.SetsPerExercise; setNum++ {
			sets = append(sets, domain.SessionSet{
				WorkoutSessionID: sessionID,
				ExerciseID:       exercise.ID,
				SetNumber:        setNum,
				Weight:           prevWeight[cellKey(exercise.ID, setNum)],
			})
		}
	}
	if err := s.setRepo.CreateMany(ctx, sets); err != nil {
		return nil, nil, err
	}
	return session, sets, nil
}

func cellKey(exerciseID primitive.ObjectID, setNumber int) string {
	return fmt.Sprintf("%s/%d", exerciseID.Hex(), setNumber)
}

func (s *sessionService) ownedSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionAccessDenied
	}
	return session, nil
}

// UpdateReps records (or clears, with nil) the rep count of one cell. The row
// is created lazily if the eager grid didn't include it, e.g. for sessions
// predating an exercise's back-fill.
func (s *sessionService) UpdateReps(ctx context.Context, userID, sessionID, exerciseID primitive.ObjectID, setNumber int, reps *int) (*domain.SessionSet, error) {
	if reps != nil && *reps < 0 {
		return nil, fmt.Errorf("%w: reps cannot be negative", ErrSetValidation)
	}
	return s.upsertCell(ctx, userID, sessionID, exerciseID, setNumber, func(set *domain.SessionSet) error {
		set.Reps = reps
		if set.ID == primitive.NilObjectID {
			return nil
		}
		return s.setRepo.UpdateReps(ctx, set.ID, reps)
	})
}

// UpdateWeight records (or clears, with nil) the weight of one cell. Weights
// move in 0.5 increments.
func (s *sessionService) UpdateWeight(ctx context.Context, userID, sessionID, exerciseID primitive.ObjectID, setNumber int, weight *float64) (*domain.SessionSet, error) {
	if weight != nil {
		if *weight < 0 {
			return nil, fmt.Errorf("%w: weight cannot be negative", ErrSetValidation)
		}
		if math.Mod(*weight*2, 1) != 0 {
			return nil, fmt.Errorf("%w: weight must be in 0.5 increments", ErrSetValidation)
		}
	}
	return s.upsertCell(ctx, userID, sessionID, exerciseID, setNumber, func(set *domain.SessionSet) error {
		set.Weight = weight
		if set.ID == primitive.NilObjectID {
			return nil
		}
		return s.setRepo.UpdateWeight(ctx, set.ID, weight)
	})
}

// upsertCell locates the cell row, creating it on first write, and applies
// the field mutation.
func (s *sessionService) upsertCell(
	ctx context.Context,
	userID, sessionID, exerciseID primitive.ObjectID,
	setNumber int,
	apply func(*domain.SessionSet) error,
) (*domain.SessionSet, error) {
	if setNumber < 1 || setNumber > domain.SetsPerExercise {
		return nil, ErrSetNumberOutOfRange
	}
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	// The exercise must be linked to the session's plan, hidden or not:
	// hidden exercises stay editable in historical sessions.
	linked, err := s.linkRepo.ExistsForPlanAndExercise(ctx, session.WorkoutPlanID, exerciseID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrExerciseNotInSession
	}

	set, err := s.setRepo.FindCell(ctx, sessionID, exerciseID, setNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// Lazy creation path.
		set = &domain.SessionSet{
			WorkoutSessionID: sessionID,
			ExerciseID:       exerciseID,
			SetNumber:        setNumber,
		}
		if err := apply(set); err != nil {
			return nil, err
		}
		setID, err := s.setRepo.Create(ctx, set)
		if err != nil {
			return nil, err
		}
		set.ID = setID
		return set, nil
	}

	if err := apply(set); err != nil {
		return nil, err
	}
	return set, nil
}

// UpdateSessionDate sets the user-editable date of a session.
func (s *sessionService) UpdateSessionDate(ctx context.Context, userID, sessionID primitive.ObjectID, date time.Time) error {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.sessionRepo.UpdateDate(ctx, sessionID, date)
}
