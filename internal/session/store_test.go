package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"taskctl/internal/service"
	"taskctl/internal/session"
)

func TestStore_EmptyAtStartup(t *testing.T) {
	store, err := session.Open(session.NewFileStorage(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok, ok := store.Get(); ok {
		t.Errorf("expected no token, got %q", tok)
	}
	if _, err := store.Token(); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized from Token, got %v", err)
	}
}

func TestStore_RestoresAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first, err := session.Open(session.NewFileStorage(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.SetAccessToken("abc123"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// A fresh store simulates a reload.
	second, err := session.Open(session.NewFileStorage(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, ok := second.Get()
	if !ok || tok != "abc123" {
		t.Errorf("expected restored token abc123, got %q (present=%v)", tok, ok)
	}

	info, err := os.Stat(filepath.Join(dir, session.TokenKey))
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestStore_Clear(t *testing.T) {
	dir := t.TempDir()
	store, _ := session.Open(session.NewFileStorage(dir))
	_ = store.SetAccessToken("abc123")

	if err := store.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Error("expected no token after clear")
	}
	if _, err := os.Stat(filepath.Join(dir, session.TokenKey)); !os.IsNotExist(err) {
		t.Error("expected token file removed")
	}

	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Errorf("second clear failed: %v", err)
	}
}

func TestStore_CorruptTokenIsNoSession(t *testing.T) {
	storage := session.NewMemoryStorage()
	_ = storage.Write(session.TokenKey, []byte("{not json"))

	store, err := session.Open(storage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Error("expected corrupt token to be ignored")
	}
}

func TestStore_RejectsEmptyToken(t *testing.T) {
	store, _ := session.Open(session.NewMemoryStorage())
	if err := store.SetAccessToken(""); err == nil {
		t.Error("expected error for empty token")
	}
	if _, ok := store.Get(); ok {
		t.Error("empty token must not become current")
	}
}

func TestStore_TokenSource(t *testing.T) {
	store, _ := session.Open(session.NewMemoryStorage())
	_ = store.SetAccessToken("abc123")

	tok, err := store.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken != "abc123" || tok.Type() != "Bearer" {
		t.Errorf("unexpected token: %+v", tok)
	}
}
