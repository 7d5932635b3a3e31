// Package store implements the process-wide plan data store: a cache of the
// signed-in user's workout plans kept consistent with MongoDB through an
// initial bulk fetch, a debounced change-feed subscription that triggers
// reconciling refetches, and optimistic local mutations applied ahead of the
// corresponding remote writes.
//
// The database is the source of truth. Everything the store does locally is
// provisional until the next full fetch replaces the cache.
package store

import (
	"context"
	"sync"
	"time"

	"planfit/workout-app/internal/domain"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collections whose change events invalidate the cache.
var watchedCollections = []string{"workout_plans", "workout_plan_exercises"}

// DefaultFetchTimeout bounds a single reconciling fetch. A hung query must
// release the in-flight slot eventually or nothing can refetch again.
const DefaultFetchTimeout = 15 * time.Second

// PlanSource is the slice of the data gateway the store fetches from.
// Satisfied by repository.WorkoutPlanRepository.
type PlanSource interface {
	FetchGraph(ctx context.Context, userID primitive.ObjectID) ([]domain.PlanWithExercises, error)
}

// ChangeFeed delivers change notifications for a collection. Satisfied by
// the mongo change-stream feed. Delivery is at-least-once, unordered.
type ChangeFeed interface {
	Subscribe(ctx context.Context, collection string, handler func(operation string)) error
}

// PlanSummary is one plan with its links partitioned into visible and hidden
// exercises, each partition ordered by OrderIndex ascending.
type PlanSummary struct {
	domain.WorkoutPlan
	Exercises       []domain.PlanExerciseDetail `json:"exercises"`
	HiddenExercises []domain.PlanExerciseDetail `json:"hiddenExercises"`
}

// Snapshot is the state published to consumers. A snapshot is immutable once
// returned; the store never mutates a published snapshot.
type Snapshot struct {
	Plans     []*PlanSummary `json:"plans"`
	IsLoading bool           `json:"isLoading"`
	Error     string         `json:"error,omitempty"`
}

// fetchCall is one in-flight fetch. Concurrent callers coalesce onto it and
// wait for done. The identity tag lets completion detect that the user
// changed mid-flight, in which case the result is discarded.
type fetchCall struct {
	identity primitive.ObjectID
	done     chan struct{}
	err      error
}

// Store is the plan data store. One instance serves the whole process; the
// cache always belongs to exactly one identity and is discarded wholesale
// whenever that identity changes.
type Store struct {
	source PlanSource
	feed   ChangeFeed
	log    zerolog.Logger

	debounce     *Debouncer
	fetchTimeout time.Duration

	mu          sync.Mutex
	identity    primitive.ObjectID // NilObjectID while signed out
	plans       []*PlanSummary
	isLoading   bool
	errMsg      string
	version     uint64
	snapVersion uint64
	snapshot    *Snapshot
	inflight    *fetchCall
	started     bool

	subscribers map[int]func()
	nextSubID   int

	feedCtx    context.Context
	feedCancel context.CancelFunc
}

// New creates a store over the given source and change feed. The store is
// idle until the first SetIdentity call. A non-positive fetchTimeout falls
// back to DefaultFetchTimeout.
func New(source PlanSource, feed ChangeFeed, debounceWindow, fetchTimeout time.Duration, logger zerolog.Logger) *Store {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	feedCtx, feedCancel := context.WithCancel(context.Background())
	s := &Store{
		source:       source,
		feed:         feed,
		log:          logger.With().Str("component", "planstore").Logger(),
		fetchTimeout: fetchTimeout,
		subscribers:  make(map[int]func()),
		feedCtx:      feedCtx,
		feedCancel:   feedCancel,
	}
	s.debounce = NewDebouncer(debounceWindow, func() {
		// Timer goroutine; fetchAll blocks until the refetch resolves.
		_ = s.fetchAll(context.Background())
	})
	return s
}

// SetIdentity points the store at a user. The first call establishes the
// change-feed subscriptions (once per process); every call with a different
// identity discards the entire cache, cancels any pending debounce and kicks
// off a fresh fetch for the new user. Calling again with the current identity
// is a no-op, which makes initialization idempotent across concurrent
// requesters.
//
// The fetch runs in the background under the store's own lifetime, not the
// caller's: the requester that happens to trigger initialization may return
// long before the query resolves. Callers that want the result use Wait.
//
// A NilObjectID signs the store out: the cache is cleared and no fetch runs
// until the next identity arrives.
func (s *Store) SetIdentity(userID primitive.ObjectID) {
	s.mu.Lock()
	if s.started && s.identity == userID {
		s.mu.Unlock()
		return
	}

	s.identity = userID
	s.plans = nil
	s.errMsg = ""
	s.isLoading = userID != primitive.NilObjectID
	// Drop the reference to any in-flight fetch; its completion will see the
	// identity mismatch and discard the result.
	s.inflight = nil
	s.version++
	first := !s.started
	s.started = true
	s.mu.Unlock()

	s.debounce.Cancel()

	if first {
		for _, collection := range watchedCollections {
			if err := s.feed.Subscribe(s.feedCtx, collection, s.onChange); err != nil {
				s.log.Error().Err(err).Str("collection", collection).Msg("change feed subscription failed")
			}
		}
	}

	s.notify()

	if userID != primitive.NilObjectID {
		s.log.Info().Str("user", userID.Hex()).Msg("identity set, fetching plans")
		// Register the fetch before returning so that a caller who goes on to
		// Wait or Refresh coalesces onto it instead of starting a second one.
		if call, initiated := s.beginFetch(); initiated {
			go s.runFetch(call)
		}
	}
}

// Identity returns the user the cache currently belongs to.
func (s *Store) Identity() primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Refresh forces a full reconciling fetch and waits for it to resolve.
// Coalesces with any fetch already in flight.
func (s *Store) Refresh(ctx context.Context) error {
	return s.fetchAll(ctx)
}

// Wait blocks until the fetch currently in flight, if any, resolves or ctx is
// done. It returns immediately when nothing is in flight, so readers can call
// it unconditionally before taking a snapshot.
func (s *Store) Wait(ctx context.Context) {
	s.mu.Lock()
	call := s.inflight
	s.mu.Unlock()
	if call == nil {
		return
	}
	select {
	case <-call.done:
	case <-ctx.Done():
	}
}

// Snapshot returns the current state. The returned pointer is stable across
// calls until the underlying state actually changes, so callers can use
// reference equality for change detection.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil || s.snapVersion != s.version {
		s.snapshot = &Snapshot{
			Plans:     s.plans,
			IsLoading: s.isLoading,
			Error:     s.errMsg,
		}
		s.snapVersion = s.version
	}
	return s.snapshot
}

// Subscribe registers a callback invoked after every state change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Close cancels the change-feed subscriptions and any pending debounce.
func (s *Store) Close() {
	s.feedCancel()
	s.debounce.Cancel()
}

// onChange is the change-feed handler: restart the debounce window. Once a
// burst of events quiets down, a single refetch reconciles the cache.
func (s *Store) onChange(operation string) {
	s.log.Debug().Str("op", operation).Msg("change event")
	s.debounce.Trigger()
}

// fetchAll is the single reconciliation path: it runs the composed plan-graph
// query and fully replaces the cache with the result. If a fetch is already
// in flight the caller joins it instead of issuing a duplicate query; ctx
// only bounds that wait. On failure the previous snapshot is preserved and
// only the error message is set. Results that arrive after the identity
// changed are discarded.
func (s *Store) fetchAll(ctx context.Context) error {
	call, initiated := s.beginFetch()
	if call == nil {
		return nil
	}
	if initiated {
		s.runFetch(call)
		return call.err
	}
	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginFetch registers a new in-flight fetch for the current identity, or
// returns the existing one for callers to join. A nil call means the store is
// signed out and there is nothing to fetch.
func (s *Store) beginFetch() (call *fetchCall, initiated bool) {
	s.mu.Lock()
	if s.inflight != nil {
		call = s.inflight
		s.mu.Unlock()
		return call, false
	}

	identity := s.identity
	if identity == primitive.NilObjectID {
		s.mu.Unlock()
		return nil, false
	}

	call = &fetchCall{identity: identity, done: make(chan struct{})}
	s.inflight = call
	s.isLoading = true
	s.version++
	s.mu.Unlock()
	s.notify()
	return call, true
}

// runFetch executes a registered fetch and publishes its result. The query
// runs under the store's own context: requesters come and go, but the
// reconciliation they coalesced onto must not die with them. The timeout
// keeps a hung query from pinning the in-flight slot.
func (s *Store) runFetch(call *fetchCall) {
	ctx, cancel := context.WithTimeout(s.feedCtx, s.fetchTimeout)
	defer cancel()

	rows, err := s.source.FetchGraph(ctx, call.identity)

	s.mu.Lock()
	if s.inflight == call {
		s.inflight = nil
	}
	if s.identity != call.identity {
		// The user changed while the query was out. Tossing the result is the
		// data-leak guard: stale rows must never reach the new identity's cache.
		s.mu.Unlock()
		s.log.Debug().Str("user", call.identity.Hex()).Msg("discarding fetch result for previous identity")
		close(call.done)
		return
	}

	if err != nil {
		s.errMsg = err.Error()
		s.log.Error().Err(err).Msg("plan fetch failed, keeping last known good cache")
	} else {
		s.errMsg = ""
		s.plans = buildSummaries(rows)
	}
	s.isLoading = false
	s.version++
	s.mu.Unlock()
	s.notify()

	call.err = err
	close(call.done)
}

// buildSummaries shapes fetched rows into the cached form, splitting each
// plan's links into visible and hidden partitions. Row order is preserved:
// plans arrive newest first, links by order index ascending.
func buildSummaries(rows []domain.PlanWithExercises) []*PlanSummary {
	plans := make([]*PlanSummary, 0, len(rows))
	for _, row := range rows {
		summary := &PlanSummary{WorkoutPlan: row.WorkoutPlan}
		for _, link := range row.Links {
			if link.IsHidden {
				summary.HiddenExercises = append(summary.HiddenExercises, link)
			} else {
				summary.Exercises = append(summary.Exercises, link)
			}
		}
		plans = append(plans, summary)
	}
	return plans
}

// notify invokes all subscriber callbacks outside the lock.
func (s *Store) notify() {
	s.mu.Lock()
	callbacks := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		callbacks = append(callbacks, fn)
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
