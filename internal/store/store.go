// Package store provides the in-memory working set driving the UI layer:
// tasks, registered users, and the active-user pointer, with a change
// stream per slice.
//
// Subscribers receive the full current slice (not a diff) on every mutation,
// and the current slice is replayed immediately on subscribe, so a late
// subscriber never misses the first event. Notifications are delivered
// synchronously on the mutating goroutine, serialized per slice.
package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/plantrack/plantrack/internal/schema"
)

var (
	// ErrUserNotFound is returned when a login names an unknown username.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when a registration collides with an
	// existing username.
	ErrUsernameTaken = errors.New("username already taken")
)

// Store is the mutation entry point for a live session. It is safe for
// concurrent use; subscriber callbacks for one slice never run concurrently
// with each other.
type Store struct {
	mu         sync.RWMutex
	tasks      map[string]schema.Task
	users      map[string]schema.User
	activeUser *schema.User

	taskSubMu   sync.Mutex
	userSubMu   sync.Mutex
	activeSubMu sync.Mutex
	taskSubs    map[int]func([]schema.Task)
	userSubs    map[int]func([]schema.User)
	activeSubs  map[int]func(*schema.User)
	nextSubID   int
}

// New creates an empty working-set store.
func New() *Store {
	return &Store{
		tasks:      make(map[string]schema.Task),
		users:      make(map[string]schema.User),
		taskSubs:   make(map[int]func([]schema.Task)),
		userSubs:   make(map[int]func([]schema.User)),
		activeSubs: make(map[int]func(*schema.User)),
	}
}

// SubscribeTasks registers fn on the task change stream and immediately
// replays the current slice to it. The returned func cancels the
// subscription.
func (s *Store) SubscribeTasks(fn func([]schema.Task)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.taskSubs[id] = fn
	snapshot := s.taskSnapshotLocked()
	s.mu.Unlock()

	s.taskSubMu.Lock()
	fn(snapshot)
	s.taskSubMu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.taskSubs, id)
		s.mu.Unlock()
	}
}

// SubscribeUsers registers fn on the user change stream with replay
// semantics matching SubscribeTasks.
func (s *Store) SubscribeUsers(fn func([]schema.User)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.userSubs[id] = fn
	snapshot := s.userSnapshotLocked()
	s.mu.Unlock()

	s.userSubMu.Lock()
	fn(snapshot)
	s.userSubMu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.userSubs, id)
		s.mu.Unlock()
	}
}

// SubscribeActiveUser registers fn on the active-user change stream with
// replay semantics matching SubscribeTasks. fn receives nil when no user
// is signed in.
func (s *Store) SubscribeActiveUser(fn func(*schema.User)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.activeSubs[id] = fn
	snapshot := cloneUser(s.activeUser)
	s.mu.Unlock()

	s.activeSubMu.Lock()
	fn(snapshot)
	s.activeSubMu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.activeSubs, id)
		s.mu.Unlock()
	}
}

// taskSnapshotLocked returns the task slice ordered by creation time then
// id, so emissions are deterministic. Caller holds mu.
func (s *Store) taskSnapshotLocked() []schema.Task {
	out := make([]schema.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// userSnapshotLocked returns the user slice ordered by username. Caller
// holds mu.
func (s *Store) userSnapshotLocked() []schema.User {
	out := make([]schema.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (s *Store) notifyTasks() {
	s.mu.RLock()
	snapshot := s.taskSnapshotLocked()
	subs := make([]func([]schema.Task), 0, len(s.taskSubs))
	for _, fn := range s.taskSubs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	s.taskSubMu.Lock()
	defer s.taskSubMu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) notifyUsers() {
	s.mu.RLock()
	snapshot := s.userSnapshotLocked()
	subs := make([]func([]schema.User), 0, len(s.userSubs))
	for _, fn := range s.userSubs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	s.userSubMu.Lock()
	defer s.userSubMu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) notifyActiveUser() {
	s.mu.RLock()
	snapshot := cloneUser(s.activeUser)
	subs := make([]func(*schema.User), 0, len(s.activeSubs))
	for _, fn := range s.activeSubs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	s.activeSubMu.Lock()
	defer s.activeSubMu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func cloneUser(u *schema.User) *schema.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// ActiveUser returns the signed-in user, or nil.
func (s *Store) ActiveUser() *schema.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.activeUser)
}

// ActiveUserID returns the signed-in user's id, or "" when nobody is
// signed in.
func (s *Store) ActiveUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeUser == nil {
		return ""
	}
	return s.activeUser.ID
}

// LoggedIn reports whether a user is signed in.
func (s *Store) LoggedIn() bool {
	return s.ActiveUser() != nil
}

// SetActiveUser sets or clears the session pointer. Clearing additionally
// clears the task slice: the next login's scoped hydration repopulates it.
func (s *Store) SetActiveUser(u *schema.User) {
	s.mu.Lock()
	s.activeUser = cloneUser(u)
	cleared := false
	if u == nil && len(s.tasks) > 0 {
		s.tasks = make(map[string]schema.Task)
		cleared = true
	}
	s.mu.Unlock()

	s.notifyActiveUser()
	if cleared {
		s.notifyTasks()
	}
}
