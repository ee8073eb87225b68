package restapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"taskctl/internal/backend/restapi"
	"taskctl/internal/service"
	"taskctl/internal/session"
	"taskctl/internal/testutil"
)

func newClient(t *testing.T, srv *testutil.Server, token string) *restapi.Client {
	t.Helper()
	store, err := session.Open(session.NewMemoryStorage())
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	if token != "" {
		if err := store.SetAccessToken(token); err != nil {
			t.Fatalf("failed to set token: %v", err)
		}
	}
	return restapi.New(restapi.Options{BaseURL: srv.URL + "/", Tokens: store})
}

func dueDate() service.Timestamp {
	return service.NewTimestamp(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
}

func TestClient_CreateThenList(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newClient(t, srv, testutil.ServerAccessToken)
	ctx := context.Background()

	created, err := c.Create(ctx, service.TaskFields{
		Title:       "A",
		Description: "B",
		Status:      service.StatusToDo,
		DueDate:     dueDate(),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("expected server-assigned id and created_at, got %+v", created)
	}

	req := srv.LastRequest()
	if req.Authorization != "Bearer "+testutil.ServerAccessToken {
		t.Errorf("expected bearer header, got %q", req.Authorization)
	}
	if req.ContentType != "application/json" {
		t.Errorf("expected JSON body, got %q", req.ContentType)
	}

	tasks, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected exactly one task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.ID != created.ID || got.Title != "A" || got.Description != "B" ||
		got.Status != service.StatusToDo || !got.DueDate.Equal(dueDate().Time) {
		t.Errorf("listed task does not match created one: %+v", got)
	}
	if body := srv.LastRequest().Body; body != "" {
		t.Errorf("list must send no body, got %q", body)
	}
}

func TestClient_UpdatePartial(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.Seed(service.Task{ID: "t1", Title: "keep", Status: service.StatusToDo})
	c := newClient(t, srv, testutil.ServerAccessToken)

	updated, err := c.Update(context.Background(), "t1", service.StatusPatch(service.StatusInProgress))
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != service.StatusInProgress || updated.Title != "keep" {
		t.Errorf("expected merged task, got %+v", updated)
	}

	req := srv.LastRequest()
	if req.Method != http.MethodPut || req.Path != "/tasks/t1" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Body != `{"status":"In Progress"}` {
		t.Errorf("expected status-only body, got %q", req.Body)
	}
}

func TestClient_UpdateMissingIsNotFound(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newClient(t, srv, testutil.ServerAccessToken)

	_, err := c.Update(context.Background(), "nope", service.StatusPatch(service.StatusDone))
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Delete(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.Seed(service.Task{ID: "t1", Title: "x"})
	c := newClient(t, srv, testutil.ServerAccessToken)
	ctx := context.Background()

	if err := c.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(srv.Tasks()) != 0 {
		t.Error("expected task removed on server")
	}
	if body := srv.LastRequest().Body; body != "" {
		t.Errorf("delete must send no body, got %q", body)
	}

	// The backend reports a second delete as not found.
	if err := c.Delete(ctx, "t1"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, service.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, service.ErrUnauthorized},
		{"not found", http.StatusNotFound, service.ErrNotFound},
		{"bad request", http.StatusBadRequest, service.ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, service.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewServer(t)
			srv.FailStatus[http.MethodGet] = tt.status
			c := newClient(t, srv, testutil.ServerAccessToken)

			_, err := c.List(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClient_ServerErrorCarriesDetail(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.FailStatus[http.MethodGet] = http.StatusInternalServerError
	c := newClient(t, srv, testutil.ServerAccessToken)

	_, err := c.List(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	for _, sentinel := range []error{service.ErrUnauthorized, service.ErrNotFound, service.ErrValidation, service.ErrNetwork} {
		if errors.Is(err, sentinel) {
			t.Errorf("500 should not map to %v", sentinel)
		}
	}
	want := "server returned 500: forced failure"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestClient_RejectedToken(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newClient(t, srv, "stale-token")

	_, err := c.List(context.Background())
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_NoSessionNeverReachesServer(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newClient(t, srv, "")

	_, err := c.List(context.Background())
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestClient_WithoutTokenSource(t *testing.T) {
	srv := testutil.NewServer(t)
	c := restapi.New(restapi.Options{BaseURL: srv.URL})

	if _, err := c.List(context.Background()); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
	if _, err := c.Ping(context.Background()); err != nil {
		t.Errorf("ping needs no session, got %v", err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newClient(t, srv, testutil.ServerAccessToken)
	srv.Close()

	_, err := c.List(context.Background())
	if !errors.Is(err, service.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestClient_ListByDueDate(t *testing.T) {
	srv := testutil.NewServer(t)
	later := service.NewTimestamp(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	srv.Seed(service.Task{ID: "late", DueDate: later})
	srv.Seed(service.Task{ID: "soon", DueDate: dueDate()})
	c := newClient(t, srv, testutil.ServerAccessToken)

	tasks, err := c.ListByDueDate(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "soon" || tasks[1].ID != "late" {
		t.Errorf("expected due-date order, got %+v", tasks)
	}
}

func TestClient_Ping(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newClient(t, srv, "")

	msg, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if msg != "server is UP!!" {
		t.Errorf("unexpected message %q", msg)
	}
	if auth := srv.LastRequest().Authorization; auth != "" {
		t.Errorf("ping must not send credentials, got %q", auth)
	}
}
