// Package auth gates protected views on session presence and performs the
// password login that creates a session.
package auth

import (
	"fmt"
	"strings"

	"taskctl/internal/service"
)

// View paths.
const (
	LoginPath      = "/login"
	TasksPath      = "/"
	AddPath        = "/add"
	EditPathPrefix = "/edit/"
)

// TokenGetter exposes the current session token.
type TokenGetter interface {
	Get() (string, bool)
}

// Decision is the outcome of a gate check.
type Decision struct {
	// Path is the requested path.
	Path string

	// Token is the session token handed to the view when allowed.
	Token string

	// Redirect is the path to go to instead. Empty when allowed.
	Redirect string
}

// Allowed reports whether the requested view may be shown.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Gate wraps protected views.
// It only checks that a token is present; the backend decides validity.
type Gate struct {
	session TokenGetter
}

// NewGate creates a gate over the given session.
func NewGate(session TokenGetter) *Gate {
	return &Gate{session: session}
}

// IsProtected reports whether path needs a session.
// Everything except the login view is protected.
func IsProtected(path string) bool {
	return path != LoginPath
}

// EditPath returns the edit view path for a task.
func EditPath(id string) string {
	return EditPathPrefix + id
}

// Check decides whether path may be shown with the current session.
func (g *Gate) Check(path string) Decision {
	d := Decision{Path: path}
	if !IsProtected(path) {
		return d
	}
	token, ok := g.session.Get()
	if !ok || strings.TrimSpace(token) == "" {
		d.Redirect = LoginPath
		return d
	}
	d.Token = token
	return d
}

// Require returns the token for path or ErrUnauthorized.
func (g *Gate) Require(path string) (string, error) {
	d := g.Check(path)
	if !d.Allowed() {
		return "", fmt.Errorf("%w: not logged in", service.ErrUnauthorized)
	}
	return d.Token, nil
}
