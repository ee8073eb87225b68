package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskctl/internal/service"
)

// Credentials accepted by Server.
const (
	ServerUsername    = "test"
	ServerPassword    = "password"
	ServerAccessToken = "test-access-token"
)

// RecordedRequest is a request seen by Server.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          string
}

// Server is an httptest backend implementing the task REST contract.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tasks    []service.Task
	requests []RecordedRequest

	// FailStatus forces a status for every request with the given method.
	FailStatus map[string]int

	// Now stamps created_at. Defaults to time.Now.
	Now func() time.Time
}

// NewServer starts a fake backend that is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		FailStatus: make(map[string]int),
		Now:        time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /token", s.handleToken)
	mux.HandleFunc("GET /tasks", s.authed(s.handleList))
	mux.HandleFunc("GET /tasks/order-by-due-date", s.authed(s.handleListByDue))
	mux.HandleFunc("POST /tasks", s.authed(s.handleCreate))
	mux.HandleFunc("PUT /tasks/{id}", s.authed(s.handleUpdate))
	mux.HandleFunc("DELETE /tasks/{id}", s.authed(s.handleDelete))

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// Seed adds a task as if it had been created earlier.
func (s *Server) Seed(task service.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
}

// Tasks returns a snapshot of the stored tasks.
func (s *Server) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.Task(nil), s.tasks...)
}

// Requests returns the requests seen so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          string(body),
		})
		status := s.FailStatus[r.Method]
		s.mu.Unlock()

		if status != 0 {
			writeDetail(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if header != "Bearer "+ServerAccessToken {
			writeDetail(w, http.StatusForbidden, "Could not validate credentials")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "server is UP!!"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "bad form")
		return
	}
	if r.PostForm.Get("username") != ServerUsername || r.PostForm.Get("password") != ServerPassword {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": ServerAccessToken,
		"token_type":   "bearer",
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tasks())
}

func (s *Server) handleListByDue(w http.ResponseWriter, r *http.Request) {
	tasks := s.Tasks()
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(tasks[j].DueDate.Time)
	})
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var fields service.TaskFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if fields.Title == "" || fields.Description == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "field required")
		return
	}

	task := service.Task{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Status:      fields.Status,
		DueDate:     fields.DueDate,
		CreatedAt:   service.NewTimestamp(s.Now().UTC().Truncate(time.Second)),
	}
	s.Seed(task)
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch service.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if patch.Empty() {
		writeDetail(w, http.StatusBadRequest, "No data to update")
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks[i] = patch.Apply(t)
			writeJSON(w, http.StatusOK, s.tasks[i])
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Task not found")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Task not found")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
