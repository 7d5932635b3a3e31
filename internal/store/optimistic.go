package store

import (
	"planfit/workout-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Optimistic mutations: synchronous, in-memory only, applied ahead of the
// corresponding remote write so the UI feels instant. Each returns false when
// the target plan or link is not in the cache (stale caller), true when the
// mutation was applied. None of these touch the network; the caller issues
// the remote write and falls back to Refresh to reconcile on failure.
//
// Published snapshots are immutable, so every mutation builds a fresh
// PlanSummary and a fresh outer slice (copy-on-write) before bumping the
// cache version.

// HideExercise moves a link from the visible partition to the hidden one.
// Remaining visible links keep their order indexes; the remote write for a
// hide is the flag update alone.
func (s *Store) HideExercise(planID, linkID primitive.ObjectID) bool {
	s.mu.Lock()

	planIdx, plan := s.findPlan(planID)
	if plan == nil {
		s.mu.Unlock()
		return false
	}
	linkIdx := indexOfLink(plan.Exercises, linkID)
	if linkIdx < 0 {
		s.mu.Unlock()
		return false
	}

	link := plan.Exercises[linkIdx]
	link.IsHidden = true

	updated := &PlanSummary{
		WorkoutPlan:     plan.WorkoutPlan,
		Exercises:       removeAt(plan.Exercises, linkIdx),
		HiddenExercises: insertByOrderIndex(copyLinks(plan.HiddenExercises), link),
	}
	s.replacePlan(planIdx, updated)
	s.mu.Unlock()

	s.notify()
	return true
}

// UnhideExercise moves a link back into the visible partition, re-inserted at
// the position implied by its stored order index relative to the currently
// visible links.
func (s *Store) UnhideExercise(planID, linkID primitive.ObjectID) bool {
	s.mu.Lock()

	planIdx, plan := s.findPlan(planID)
	if plan == nil {
		s.mu.Unlock()
		return false
	}
	linkIdx := indexOfLink(plan.HiddenExercises, linkID)
	if linkIdx < 0 {
		s.mu.Unlock()
		return false
	}

	link := plan.HiddenExercises[linkIdx]
	link.IsHidden = false

	updated := &PlanSummary{
		WorkoutPlan:     plan.WorkoutPlan,
		Exercises:       insertByOrderIndex(copyLinks(plan.Exercises), link),
		HiddenExercises: removeAt(plan.HiddenExercises, linkIdx),
	}
	s.replacePlan(planIdx, updated)
	s.mu.Unlock()

	s.notify()
	return true
}

// ReorderExercises moves the visible link at oldIndex to newIndex and
// renumbers every visible link to its new position, keeping order indexes a
// dense 0..n-1 sequence.
func (s *Store) ReorderExercises(planID primitive.ObjectID, oldIndex, newIndex int) bool {
	s.mu.Lock()

	planIdx, plan := s.findPlan(planID)
	if plan == nil {
		s.mu.Unlock()
		return false
	}
	n := len(plan.Exercises)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		s.mu.Unlock()
		return false
	}

	visible := copyLinks(plan.Exercises)
	moved := visible[oldIndex]
	visible = removeAt(visible, oldIndex)
	visible = insertAt(visible, newIndex, moved)
	renumber(visible)

	updated := &PlanSummary{
		WorkoutPlan:     plan.WorkoutPlan,
		Exercises:       visible,
		HiddenExercises: plan.HiddenExercises,
	}
	s.replacePlan(planIdx, updated)
	s.mu.Unlock()

	s.notify()
	return true
}

// renumber reassigns each link's OrderIndex to its slice position. The single
// renumbering path for every mutation that changes visible membership or
// order.
func renumber(links []domain.PlanExerciseDetail) {
	for i := range links {
		links[i].OrderIndex = i
	}
}

// findPlan returns the cached plan and its index, or (-1, nil). Callers hold s.mu.
func (s *Store) findPlan(planID primitive.ObjectID) (int, *PlanSummary) {
	for i, p := range s.plans {
		if p.ID == planID {
			return i, p
		}
	}
	return -1, nil
}

// replacePlan swaps in an updated plan copy-on-write and bumps the version.
// Callers hold s.mu.
func (s *Store) replacePlan(idx int, updated *PlanSummary) {
	plans := make([]*PlanSummary, len(s.plans))
	copy(plans, s.plans)
	plans[idx] = updated
	s.plans = plans
	s.version++
}

func indexOfLink(links []domain.PlanExerciseDetail, linkID primitive.ObjectID) int {
	for i, l := range links {
		if l.PlanExercise.ID == linkID {
			return i
		}
	}
	return -1
}

func copyLinks(links []domain.PlanExerciseDetail) []domain.PlanExerciseDetail {
	out := make([]domain.PlanExerciseDetail, len(links))
	copy(out, links)
	return out
}

func removeAt(links []domain.PlanExerciseDetail, idx int) []domain.PlanExerciseDetail {
	out := make([]domain.PlanExerciseDetail, 0, len(links)-1)
	out = append(out, links[:idx]...)
	return append(out, links[idx+1:]...)
}

func insertAt(links []domain.PlanExerciseDetail, idx int, link domain.PlanExerciseDetail) []domain.PlanExerciseDetail {
	links = append(links, domain.PlanExerciseDetail{})
	copy(links[idx+1:], links[idx:])
	links[idx] = link
	return links
}

// insertByOrderIndex inserts a link after all entries whose order index is
// less than or equal to its own, keeping the slice sorted by OrderIndex.
func insertByOrderIndex(links []domain.PlanExerciseDetail, link domain.PlanExerciseDetail) []domain.PlanExerciseDetail {
	pos := len(links)
	for i, l := range links {
		if l.OrderIndex > link.OrderIndex {
			pos = i
			break
		}
	}
	return insertAt(links, pos, link)
}
