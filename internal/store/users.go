package store

import (
	"github.com/google/uuid"
	"github.com/plantrack/plantrack/internal/schema"
)

// Users returns the current user slice ordered by username.
func (s *Store) Users() []schema.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userSnapshotLocked()
}

// UserByID returns the user with the given id, or false if absent.
func (s *Store) UserByID(id string) (schema.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// UserByUsername returns the user with the given username, or false if
// absent.
func (s *Store) UserByUsername(username string) (schema.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return schema.User{}, false
}

// AddUser inserts or replaces a user by id.
func (s *Store) AddUser(u schema.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	s.notifyUsers()
}

// UpdateUser replaces an existing user record, keeping the active-user
// pointer in step when it refers to the same account. Missing ids are a
// silent no-op.
func (s *Store) UpdateUser(u schema.User) {
	s.mu.Lock()
	if _, ok := s.users[u.ID]; !ok {
		s.mu.Unlock()
		return
	}
	s.users[u.ID] = u
	activeChanged := false
	if s.activeUser != nil && s.activeUser.ID == u.ID {
		s.activeUser = cloneUser(&u)
		activeChanged = true
	}
	s.mu.Unlock()

	s.notifyUsers()
	if activeChanged {
		s.notifyActiveUser()
	}
}

// RemoveUser deletes a user by id, clearing the active-user pointer if it
// referred to that account. Missing ids are a no-op.
func (s *Store) RemoveUser(id string) {
	s.mu.Lock()
	delete(s.users, id)
	activeCleared := false
	if s.activeUser != nil && s.activeUser.ID == id {
		s.activeUser = nil
		activeCleared = true
	}
	s.mu.Unlock()

	s.notifyUsers()
	if activeCleared {
		s.notifyActiveUser()
	}
}

// ReplaceAllUsers bulk-replaces the user slice, used when hydrating from
// durable storage.
func (s *Store) ReplaceAllUsers(users []schema.User) {
	s.mu.Lock()
	next := make(map[string]schema.User, len(users))
	for _, u := range users {
		next[u.ID] = u
	}
	s.users = next
	s.mu.Unlock()
	s.notifyUsers()
}

// Register creates a new user with a fresh id and session token. The
// caller decides whether to also sign the user in.
func (s *Store) Register(username string) (*schema.User, error) {
	s.mu.Lock()
	for _, existing := range s.users {
		if existing.Username == username {
			s.mu.Unlock()
			return nil, ErrUsernameTaken
		}
	}
	u := schema.User{
		ID:       uuid.NewString(),
		Username: username,
		Token:    uuid.NewString(),
	}
	s.users[u.ID] = u
	s.mu.Unlock()

	s.notifyUsers()
	return &u, nil
}

// Login signs in an existing user by username, issuing a fresh session
// token and setting the active-user pointer.
func (s *Store) Login(username string) (*schema.User, error) {
	s.mu.Lock()
	var found *schema.User
	for _, existing := range s.users {
		if existing.Username == username {
			u := existing
			found = &u
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return nil, ErrUserNotFound
	}
	found.Token = uuid.NewString()
	s.users[found.ID] = *found
	s.activeUser = cloneUser(found)
	s.mu.Unlock()

	s.notifyUsers()
	s.notifyActiveUser()
	return cloneUser(found), nil
}

// Logout clears the active user's session token and the session pointer.
// Clearing the pointer also clears the task slice; the next login's scoped
// hydration repopulates it.
func (s *Store) Logout() {
	s.mu.Lock()
	if s.activeUser == nil {
		s.mu.Unlock()
		return
	}
	if u, ok := s.users[s.activeUser.ID]; ok {
		u.Token = ""
		s.users[u.ID] = u
	}
	s.activeUser = nil
	s.tasks = make(map[string]schema.Task)
	s.mu.Unlock()

	s.notifyUsers()
	s.notifyActiveUser()
	s.notifyTasks()
}

// UpdateActiveUserToken replaces the active user's session token in both
// the registry and the session pointer. No-op when nobody is signed in.
func (s *Store) UpdateActiveUserToken(token string) {
	s.mu.Lock()
	if s.activeUser == nil {
		s.mu.Unlock()
		return
	}
	s.activeUser.Token = token
	if u, ok := s.users[s.activeUser.ID]; ok {
		u.Token = token
		s.users[u.ID] = u
	}
	s.mu.Unlock()

	s.notifyUsers()
	s.notifyActiveUser()
}
