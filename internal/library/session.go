package library

import (
	"sync"

	"shelf/internal/user"
)

// Session holds the bearer token for the signed-in user. The zero value is
// signed out. It is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	token  string
	userID string
	email  string
	// onChange runs after Issue or Clear, e.g. to persist the session.
	onChange func(token, userID, email string)
}

func NewSession(token, userID, email string) *Session {
	return &Session{token: token, userID: userID, email: email}
}

// OnChange registers fn to run after every Issue or Clear.
func (s *Session) OnChange(fn func(token, userID, email string)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Issue stores the result of a login or registration.
func (s *Session) Issue(res user.AuthResult) {
	s.set(res.Token, res.User.ID, res.User.Email)
}

func (s *Session) Clear() {
	s.set("", "", "")
}

func (s *Session) set(token, userID, email string) {
	s.mu.Lock()
	s.token, s.userID, s.email = token, userID, email
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(token, userID, email)
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
