package auth_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"taskctl/internal/auth"
	"taskctl/internal/service"
	"taskctl/internal/session"
	"taskctl/internal/testutil"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.Open(session.NewMemoryStorage())
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	return store
}

func TestGate_UnauthenticatedRedirectsToLogin(t *testing.T) {
	gate := auth.NewGate(newStore(t))

	for _, path := range []string{auth.TasksPath, auth.AddPath, auth.EditPath("5")} {
		d := gate.Check(path)
		if d.Allowed() {
			t.Errorf("%s: expected redirect without a session", path)
		}
		if d.Redirect != auth.LoginPath {
			t.Errorf("%s: expected redirect to %s, got %q", path, auth.LoginPath, d.Redirect)
		}
	}
}

func TestGate_AuthenticatedAllowed(t *testing.T) {
	store := newStore(t)
	_ = store.SetAccessToken("abc")
	gate := auth.NewGate(store)

	d := gate.Check(auth.TasksPath)
	if !d.Allowed() {
		t.Fatalf("expected allowed, got redirect %q", d.Redirect)
	}
	if d.Token != "abc" {
		t.Errorf("expected token handed to view, got %q", d.Token)
	}
}

func TestGate_LoginAlwaysAllowed(t *testing.T) {
	gate := auth.NewGate(newStore(t))
	if d := gate.Check(auth.LoginPath); !d.Allowed() {
		t.Error("login view must never redirect")
	}
}

func TestGate_Require(t *testing.T) {
	gate := auth.NewGate(newStore(t))
	if _, err := gate.Require(auth.TasksPath); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_SuccessStoresToken(t *testing.T) {
	srv := testutil.NewServer(t)
	store := newStore(t)
	a := auth.NewAuthenticator(srv.URL, store, nil)

	if err := a.Login(context.Background(), testutil.ServerUsername, testutil.ServerPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	tok, ok := store.Get()
	if !ok || tok != testutil.ServerAccessToken {
		t.Errorf("expected stored token %q, got %q", testutil.ServerAccessToken, tok)
	}

	req := srv.LastRequest()
	if req.Method != "POST" || req.Path != auth.TokenPath {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.ContentType != "application/x-www-form-urlencoded" {
		t.Errorf("expected form encoding, got %q", req.ContentType)
	}
	form, err := url.ParseQuery(req.Body)
	if err != nil {
		t.Fatalf("bad form body: %v", err)
	}
	if form.Get("username") != testutil.ServerUsername || form.Get("password") != testutil.ServerPassword {
		t.Errorf("unexpected form: %v", form)
	}
}

func TestLogin_BadCredentialsStoreNothing(t *testing.T) {
	srv := testutil.NewServer(t)
	store := newStore(t)
	a := auth.NewAuthenticator(srv.URL, store, nil)

	err := a.Login(context.Background(), testutil.ServerUsername, "wrong")
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Error("failed login must not set a token")
	}
}

func TestLogin_NetworkError(t *testing.T) {
	srv := testutil.NewServer(t)
	base := srv.URL
	srv.Close()

	store := newStore(t)
	a := auth.NewAuthenticator(base, store, nil)

	err := a.Login(context.Background(), testutil.ServerUsername, testutil.ServerPassword)
	if !errors.Is(err, service.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Error("failed login must not set a token")
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	a := auth.NewAuthenticator("http://unused", newStore(t), nil)
	if err := a.Login(context.Background(), "", ""); !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	store := newStore(t)
	_ = store.SetAccessToken("abc")
	a := auth.NewAuthenticator("http://unused", store, nil)

	if err := a.Logout(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Error("expected session cleared")
	}
}
