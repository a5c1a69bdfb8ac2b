package client

import (
	"context"
	"fillop/models"
	"sync"
)

// Session holds the bearer token and the cached profile of the signed-in user.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

func NewSession() *Session { return &Session{} }

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the cached profile, or nil when signed out.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) LoggedIn() bool { return s.Token() != "" }

func (s *Session) set(token string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *Session) clear() { s.set("", nil) }

// Login exchanges credentials for a token and stores both on the session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "POST", "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.session.set(out.Token, &out.User)
	c.log.Info("signed in", "user_id", out.User.ID, "role", out.User.Role)
	return &out.User, nil
}

// Logout forgets the token and profile. Tokens are stateless, so nothing is
// sent to the server.
func (c *Client) Logout() {
	c.session.clear()
}

// Profile refreshes the cached profile from the server.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "GET", "/api/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	c.session.set(c.session.Token(), &user)
	return &user, nil
}
