// Package bridge keeps the working-set store and the durable collection
// store eventually consistent, in both directions, without feedback loops.
//
// The bridge subscribes to the change stream of each side. A change
// flowing one way is written to the other side while a re-entrancy guard
// for that entity kind is held; the opposite-direction handler sees the
// guard and skips the echo. There is one guard pair per entity kind
// (tasks, users, active session), six booleans total, owned by the Bridge
// instance so independent bridges never share state.
//
// Conflict policy is last write observed wins: there is no vector clock or
// timestamp merge. The guard mechanism is the sole defense against
// feedback amplification and is a correctness requirement, not an
// optimization. A failed write never aborts its sibling records in the
// same batch and never leaves a guard set.
//
// The bridge mirrors a single-threaded event model: notifications are
// delivered synchronously on the mutating goroutine. A mutation racing an
// opposite-direction sync of the same kind is not written through
// individually; it is picked up by that sync's full-slice replacement.
package bridge

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/schema"
	"github.com/plantrack/plantrack/internal/store"
)

// guard is a pair of re-entrancy flags for one entity kind, one per sync
// direction. The mutex only protects the flags themselves; it is never
// held across a store or database call.
type guard struct {
	mu        sync.Mutex
	toDurable bool // a working-set change is being written to durable storage
	toWorking bool // a durable change is being applied to the working set
}

// beginToDurable claims the working-set→durable direction. It refuses when
// the change being handled originated on the durable side.
func (g *guard) beginToDurable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.toWorking {
		return false
	}
	g.toDurable = true
	return true
}

func (g *guard) endToDurable() {
	g.mu.Lock()
	g.toDurable = false
	g.mu.Unlock()
}

// beginToWorking claims the durable→working-set direction. It refuses when
// the change being handled originated on the working-set side.
func (g *guard) beginToWorking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.toDurable {
		return false
	}
	g.toWorking = true
	return true
}

func (g *guard) endToWorking() {
	g.mu.Lock()
	g.toWorking = false
	g.mu.Unlock()
}

// Bridge reconciles the working-set store with the durable collection
// store. Construct with New, wire with Start, release subscriptions with
// Stop.
type Bridge struct {
	store  *store.Store
	db     *db.DB
	logger *log.Logger

	tasks   guard
	users   guard
	session guard

	cancels []func()
}

// New creates a Bridge. If logger is nil, a default logger writing to
// stderr is used.
func New(st *store.Store, database *db.DB, logger *log.Logger) (*Bridge, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if database == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[bridge] ", log.LstdFlags)
	}
	return &Bridge{
		store:  st,
		db:     database,
		logger: logger,
	}, nil
}

// Start hydrates the working set from durable storage and wires the six
// change-stream subscriptions.
//
// Hydration failure is not fatal: the working set keeps operating
// in-memory-only, the failure is logged, and changes simply will not
// survive a restart.
func (b *Bridge) Start() {
	b.hydrate()

	// Subscribing replays the current slice immediately, and at this point
	// that slice is exactly what hydrate just read from durable storage.
	// Hold the durable-origin guards across the wiring so the replay is
	// not written straight back; a restart must not rewrite the persisted
	// session (and its LastLoginAt) with a fresh copy.
	replayed := []*guard{&b.tasks, &b.users, &b.session}
	for _, g := range replayed {
		g.beginToWorking()
	}
	b.cancels = append(b.cancels,
		b.store.SubscribeTasks(b.onWorkingTasks),
		b.store.SubscribeUsers(b.onWorkingUsers),
		b.store.SubscribeActiveUser(b.onWorkingActiveUser),
	)
	for _, g := range replayed {
		g.endToWorking()
	}

	b.cancels = append(b.cancels,
		b.db.WatchTasks(b.onDurableTasks),
		b.db.WatchUsers(b.onDurableUsers),
		b.db.WatchActiveSession(b.onDurableSession),
	)
}

// Stop cancels all change-stream subscriptions.
func (b *Bridge) Stop() {
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

// hydrate loads users, the persisted session, and the scoped task set from
// durable storage into the working set.
func (b *Bridge) hydrate() {
	users, err := b.db.ListUsers()
	if err != nil {
		b.logger.Printf("hydration: users unavailable, continuing in-memory only: %v", err)
	} else {
		if b.users.beginToWorking() {
			b.store.ReplaceAllUsers(users)
			b.users.endToWorking()
		}
	}

	sess, err := b.db.GetActiveSession()
	switch {
	case err == nil:
		b.applyDurableSession(sess)
	case errors.Is(err, sql.ErrNoRows):
		// nobody signed in
	default:
		b.logger.Printf("hydration: session unavailable: %v", err)
	}

	b.refreshScopedTasks()
}

// refreshScopedTasks reads all durable tasks, filters them to the current
// active user, and replaces the working-set task slice.
func (b *Bridge) refreshScopedTasks() {
	tasks, err := b.db.ListTasks(db.ListTasksFilter{})
	if err != nil {
		b.logger.Printf("task refresh: durable store unavailable, continuing in-memory only: %v", err)
		return
	}

	if !b.tasks.beginToWorking() {
		return
	}
	defer b.tasks.endToWorking()

	b.store.ReplaceAllTasks(schema.VisibleTasks(tasks, b.store.ActiveUserID()))
}

// applyDurableSession restores the signed-in user from a persisted session
// record.
func (b *Bridge) applyDurableSession(sess *schema.ActiveSession) {
	if !b.session.beginToWorking() {
		return
	}
	defer b.session.endToWorking()

	u, ok := b.store.UserByID(sess.UserID)
	if !ok {
		u = schema.User{ID: sess.UserID, Username: sess.Username, Token: sess.Token}
	}
	b.store.SetActiveUser(&u)
}

// onWorkingTasks writes a working-set task emission through to durable
// storage: one upsert per record, failures logged and skipped, then a
// scoped reconcile deleting durable rows whose ids vanished from the
// emission.
func (b *Bridge) onWorkingTasks(tasks []schema.Task) {
	if !b.tasks.beginToDurable() {
		return
	}
	defer b.tasks.endToDurable()

	for i := range tasks {
		if err := b.db.UpsertTask(&tasks[i]); err != nil {
			b.logger.Printf("failed to sync task %s to durable store: %v", tasks[i].ID, err)
		}
	}

	// Deletions are reconciled only within an authenticated scope: after a
	// logout the emptied working set must not erase other data.
	activeID := b.store.ActiveUserID()
	if activeID == "" {
		return
	}

	durable, err := b.db.ListTasks(db.ListTasksFilter{UserID: activeID})
	if err != nil {
		b.logger.Printf("failed to reconcile deleted tasks: %v", err)
		return
	}

	present := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		present[t.ID] = true
	}
	for _, t := range durable {
		if present[t.ID] {
			continue
		}
		if err := b.db.DeleteTask(t.ID); err != nil {
			b.logger.Printf("failed to delete task %s from durable store: %v", t.ID, err)
		}
	}
}

// onDurableTasks applies a durable task emission to the working set,
// scoped to the active user.
func (b *Bridge) onDurableTasks(tasks []schema.Task) {
	if !b.tasks.beginToWorking() {
		return
	}
	defer b.tasks.endToWorking()

	b.store.ReplaceAllTasks(schema.VisibleTasks(tasks, b.store.ActiveUserID()))
}

// onWorkingUsers inserts users that are new to durable storage. Existing
// durable records are left untouched so a token refreshed elsewhere is not
// clobbered by a stale in-memory copy.
func (b *Bridge) onWorkingUsers(users []schema.User) {
	if !b.users.beginToDurable() {
		return
	}
	defer b.users.endToDurable()

	for i := range users {
		if _, err := b.db.InsertUser(&users[i]); err != nil {
			b.logger.Printf("failed to sync user %s to durable store: %v", users[i].ID, err)
		}
	}
}

// onDurableUsers replaces the working-set user slice with the durable one.
func (b *Bridge) onDurableUsers(users []schema.User) {
	if !b.users.beginToWorking() {
		return
	}
	defer b.users.endToWorking()

	b.store.ReplaceAllUsers(users)
}

// onWorkingActiveUser propagates a sign-in or sign-out. Sign-in persists a
// derived session record and immediately rescopes the visible task set;
// sign-out removes the session record entirely.
func (b *Bridge) onWorkingActiveUser(u *schema.User) {
	if !b.session.beginToDurable() {
		return
	}
	defer b.session.endToDurable()

	if u == nil {
		if err := b.db.ClearActiveSession(); err != nil {
			b.logger.Printf("failed to clear durable session: %v", err)
		}
		return
	}

	if err := b.db.UpsertActiveSession(schema.NewActiveSession(u)); err != nil {
		b.logger.Printf("failed to persist session for %s: %v", u.Username, err)
	}
	b.refreshScopedTasks()
}

// onDurableSession applies an external session change (for example another
// instance signing in or out) to the working set.
func (b *Bridge) onDurableSession(sess *schema.ActiveSession) {
	if !b.session.beginToWorking() {
		return
	}
	defer b.session.endToWorking()

	if sess == nil {
		if b.store.LoggedIn() {
			b.store.SetActiveUser(nil)
		}
		return
	}

	u, ok := b.store.UserByID(sess.UserID)
	if !ok {
		u = schema.User{ID: sess.UserID, Username: sess.Username, Token: sess.Token}
	}
	b.store.SetActiveUser(&u)
	b.refreshScopedTasks()
}
