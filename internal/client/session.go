package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Session holds the logged-in identity and persists it between runs, so a
// restart restores the token without asking for credentials again.
type Session struct {
	client *Client
	path   string

	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Token       string   `json:"token"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

const wildcardPermission = "*:*"

// NewSession binds a session to the client. path is where the session file
// lives; empty means ~/.gestor/session.json.
func NewSession(c *Client, path string) *Session {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		path = filepath.Join(home, ".gestor", "session.json")
	}
	return &Session{client: c, path: path}
}

type mePayload struct {
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Login authenticates, loads the profile and persists the session file.
func (s *Session) Login(ctx context.Context, username, password string) error {
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := s.client.Post(ctx, "/auth/login", body, &tok); err != nil {
		return err
	}
	s.client.SetToken(tok.AccessToken)
	s.Token = tok.AccessToken
	if err := s.loadProfile(ctx); err != nil {
		return err
	}
	return s.save()
}

// Restore loads a previously saved session and verifies the token is still
// accepted. An expired token clears the file and reports unauthorized.
func (s *Session) Restore(ctx context.Context) error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return err
	}
	s.client.SetToken(s.Token)
	if err := s.loadProfile(ctx); err != nil {
		if IsUnauthorized(err) {
			_ = s.Logout()
		}
		return err
	}
	return s.save()
}

func (s *Session) loadProfile(ctx context.Context) error {
	var me mePayload
	if err := s.client.Get(ctx, "/auth/me", &me); err != nil {
		return err
	}
	s.Email = me.Email
	s.FullName = me.FullName
	s.Roles = me.Roles
	s.Permissions = me.Permissions
	return nil
}

// Logout drops the token and removes the session file. The token itself is
// stateless, so no server call is involved.
func (s *Session) Logout() error {
	s.client.SetToken("")
	s.Token = ""
	s.Email = ""
	s.Roles = nil
	s.Permissions = nil
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Active reports whether a token is loaded.
func (s *Session) Active() bool { return s.Token != "" }

// HasPermission reports whether the session may perform perm ("modulo:acao").
// The wildcard grants everything.
func (s *Session) HasPermission(perm string) bool {
	for _, p := range s.Permissions {
		if p == wildcardPermission || p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one of perms is granted. An empty
// required set denies.
func (s *Session) HasAnyPermission(perms ...string) bool {
	for _, p := range perms {
		if s.HasPermission(p) {
			return true
		}
	}
	return false
}

func (s *Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Session) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}
