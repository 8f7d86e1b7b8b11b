// Command example is a tiny in-memory user directory HTTP API. It exists
// to give clawspec's own integration tests something real to observe:
// the core engine's spec (§1) treats example applications as external
// collaborators, not part of the observation/accumulation engine itself.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/clawspec-go/clawspec/testserver"
)

// User is the resource this toy API exposes.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ErrorResponse is the body returned for 4xx/5xx outcomes.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server is the reference testserver.Server implementation: a minimal
// stdlib http.ServeMux API that this module's integration tests drive
// through a real *openapi.ApiClient over a real loopback listener.
type Server struct {
	mu      sync.Mutex
	users   map[int]*User
	nextID  int
	ready   atomic.Bool
	baseURL atomic.Value // string
	httpSrv *http.Server
}

// NewServer returns a Server seeded with one user.
func NewServer() *Server {
	s := &Server{users: map[int]*User{}, nextID: 2}
	s.users[1] = &User{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com"}
	return s
}

func (s *Server) router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)

	return withServerIdentification(recoveryMiddleware(mux), "example")
}

// recoveryMiddleware returns 500 instead of crashing the listener goroutine
// when a handler panics.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("example: recovered panic: %v", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withServerIdentification stamps every response with the serving
// hostname, the way a load-balanced deployment would for debugging.
func withServerIdentification(next http.Handler, hostname string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Server-Hostname", hostname)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag := r.URL.Query().Get("tag")
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	_ = tag // accepted, unused by this toy API; exercises query-parameter wire round-tripping only

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in User
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: err.Error()})
		return
	}
	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "missing_name", Message: "name is required"})
		return
	}

	s.mu.Lock()
	in.ID = s.nextID
	s.nextID++
	s.users[in.ID] = &in
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	u, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "no such user"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	_, existed := s.users[id]
	delete(s.users, id)
	s.mu.Unlock()

	if !existed {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "no such user"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	var id int
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "bad_id", Message: "id must be an integer"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Launch implements testserver.Server: it serves router() on listener
// until the listener is closed.
func (s *Server) Launch(listener net.Listener) error {
	s.baseURL.Store(fmt.Sprintf("http://%s", listener.Addr().String()))
	s.httpSrv = &http.Server{Handler: s.router()}
	s.ready.Store(true)
	err := s.httpSrv.Serve(listener)
	if err != nil && err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Health implements testserver.Server by probing /healthz.
func (s *Server) Health(ctx context.Context, client *http.Client) testserver.HealthStatus {
	if !s.ready.Load() {
		return testserver.Starting
	}
	base, _ := s.baseURL.Load().(string)
	if base == "" {
		return testserver.Starting
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/healthz", nil)
	if err != nil {
		return testserver.Unhealthy
	}
	resp, err := client.Do(req)
	if err != nil {
		return testserver.Unhealthy
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return testserver.Healthy
	}
	return testserver.Unhealthy
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	srv := NewServer()
	httpSrv := &http.Server{Addr: *addr, Handler: srv.router()}
	log.Printf("example: listening on %s", *addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("example: %v", err)
	}
}
