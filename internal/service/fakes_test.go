package service_test

import (
	"context"
	"sort"
	"time"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They implement the repository interfaces with
// the same error semantics as the Mongo implementations (ErrNotFound,
// ErrDuplicate, unique constraints) so service tests exercise real paths.

// --- users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	u := *user
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = &u
	return u.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// --- exercises ---

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]*domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	e := *exercise
	e.ID = primitive.NewObjectID()
	r.exercises[e.ID] = &e
	return e.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeExerciseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, id := range ids {
		if e, ok := r.exercises[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExerciseRepo) GetVisibleToUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, e := range r.exercises {
		if e.OwnedBy(userID) || e.IsShared() {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeExerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *exercise
	r.exercises[exercise.ID] = &copied
	return nil
}

func (r *fakeExerciseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

// --- workout plans ---

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.WorkoutPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.WorkoutPlan)}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	p := *plan
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	r.plans[p.ID] = &p
	return p.ID, nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePlanRepo) CountByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, p := range r.plans {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakePlanRepo) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name = name
	return nil
}

func (r *fakePlanRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) FetchGraph(ctx context.Context, userID primitive.ObjectID) ([]domain.PlanWithExercises, error) {
	return nil, nil
}

// --- plan exercise links ---

type fakeLinkRepo struct {
	links map[primitive.ObjectID]*domain.PlanExercise
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[primitive.ObjectID]*domain.PlanExercise)}
}

func (r *fakeLinkRepo) Create(ctx context.Context, link *domain.PlanExercise) (primitive.ObjectID, error) {
	for _, l := range r.links {
		if l.WorkoutPlanID == link.WorkoutPlanID && l.ExerciseID == link.ExerciseID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	l := *link
	l.ID = primitive.NewObjectID()
	r.links[l.ID] = &l
	return l.ID, nil
}

func (r *fakeLinkRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanExercise, error) {
	l, ok := r.links[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLinkRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanExercise, error) {
	var out []domain.PlanExercise
	for _, l := range r.links {
		if l.WorkoutPlanID == planID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r *fakeLinkRepo) ExistsForPlanAndExercise(ctx context.Context, planID, exerciseID primitive.ObjectID) (bool, error) {
	for _, l := range r.links {
		if l.WorkoutPlanID == planID && l.ExerciseID == exerciseID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLinkRepo) SetHidden(ctx context.Context, id primitive.ObjectID, hidden bool) error {
	l, ok := r.links[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.IsHidden = hidden
	return nil
}

func (r *fakeLinkRepo) UpdateOrderIndexes(ctx context.Context, updates []repository.OrderUpdate) error {
	for _, u := range updates {
		l, ok := r.links[u.LinkID]
		if !ok {
			return repository.ErrNotFound
		}
		l.OrderIndex = u.OrderIndex
	}
	return nil
}

func (r *fakeLinkRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.links[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.links, id)
	return nil
}

func (r *fakeLinkRepo) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	for id, l := range r.links {
		if l.WorkoutPlanID == planID {
			delete(r.links, id)
		}
	}
	return nil
}

func (r *fakeLinkRepo) DeleteByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) error {
	for id, l := range r.links {
		if l.ExerciseID == exerciseID {
			delete(r.links, id)
		}
	}
	return nil
}

// --- sessions ---

type fakeSessionRepo struct {
	sessions map[primitive.ObjectID]*domain.WorkoutSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[primitive.ObjectID]*domain.WorkoutSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	if session.SessionDate.IsZero() {
		session.SessionDate = now
	}
	s := *session
	r.sessions[s.ID] = &s
	return s.ID, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	var out []domain.WorkoutSession
	for _, s := range r.sessions {
		if s.WorkoutPlanID == planID {
			out = append(out, *s)
		}
	}
	// Newest first, mirroring the Mongo sort.
	sort.Slice(out, func(i, j int) bool { return out[i].SessionNumber > out[j].SessionNumber })
	return out, nil
}

func (r *fakeSessionRepo) CountByPlanID(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	var n int64
	for _, s := range r.sessions {
		if s.WorkoutPlanID == planID {
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) UpdateDate(ctx context.Context, id primitive.ObjectID, date time.Time) error {
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.SessionDate = date
	return nil
}

func (r *fakeSessionRepo) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for id, s := range r.sessions {
		if s.WorkoutPlanID == planID {
			ids = append(ids, id)
			delete(r.sessions, id)
		}
	}
	return ids, nil
}

// --- session sets ---

type fakeSetRepo struct {
	sets map[primitive.ObjectID]*domain.SessionSet
}

func newFakeSetRepo() *fakeSetRepo {
	return &fakeSetRepo{sets: make(map[primitive.ObjectID]*domain.SessionSet)}
}

func (r *fakeSetRepo) Create(ctx context.Context, set *domain.SessionSet) (primitive.ObjectID, error) {
	s := *set
	s.ID = primitive.NewObjectID()
	r.sets[s.ID] = &s
	return s.ID, nil
}

func (r *fakeSetRepo) CreateMany(ctx context.Context, sets []domain.SessionSet) error {
	// Mirrors the Mongo batch insert: IDs are assigned in place.
	for i := range sets {
		if sets[i].ID == primitive.NilObjectID {
			sets[i].ID = primitive.NewObjectID()
		}
		copied := sets[i]
		r.sets[copied.ID] = &copied
	}
	return nil
}

func (r *fakeSetRepo) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SessionSet, error) {
	return r.GetBySessionIDs(ctx, []primitive.ObjectID{sessionID})
}

func (r *fakeSetRepo) GetBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.SessionSet, error) {
	wanted := make(map[primitive.ObjectID]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = true
	}
	var out []domain.SessionSet
	for _, s := range r.sets {
		if wanted[s.WorkoutSessionID] {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SetNumber < out[j].SetNumber })
	return out, nil
}

func (r *fakeSetRepo) FindCell(ctx context.Context, sessionID, exerciseID primitive.ObjectID, setNumber int) (*domain.SessionSet, error) {
	for _, s := range r.sets {
		if s.WorkoutSessionID == sessionID && s.ExerciseID == exerciseID && s.SetNumber == setNumber {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSetRepo) UpdateReps(ctx context.Context, id primitive.ObjectID, reps *int) error {
	s, ok := r.sets[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Reps = reps
	return nil
}

func (r *fakeSetRepo) UpdateWeight(ctx context.Context, id primitive.ObjectID, weight *float64) error {
	s, ok := r.sets[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Weight = weight
	return nil
}

func (r *fakeSetRepo) DeleteBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) error {
	wanted := make(map[primitive.ObjectID]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = true
	}
	for id, s := range r.sets {
		if wanted[s.WorkoutSessionID] {
			delete(r.sets, id)
		}
	}
	return nil
}
