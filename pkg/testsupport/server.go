package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-team-directory/member"
	"github.com/goliatone/go-team-directory/pagination"
)

// Route names used by Hits and Fail.
const (
	RouteList   = "GET /members"
	RouteGet    = "GET /members/{id}"
	RouteCreate = "POST /members"
	RouteUpdate = "PATCH /members/{id}"
	RouteDelete = "DELETE /members/{id}"
)

// Server is an in-memory member collection served over HTTP. It mirrors a
// json-server style backend: offset pagination, case-insensitive substring
// search over name and role, X-Total-Count on lists, new records appended at
// the end.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	members    []member.Member
	hits       map[string]int
	failures   map[string]failure
	beforeList func(r *http.Request)
	envelope   bool
}

type failure struct {
	status int
	times  int // remaining; <0 means always
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithEnvelope makes list responses {"data": [...], "total": n} without
// the total header.
func WithEnvelope() ServerOption {
	return func(s *Server) {
		s.envelope = true
	}
}

// BeforeList installs a hook run at the start of every list request. Tests
// use it to hold a response back.
func BeforeList(fn func(r *http.Request)) ServerOption {
	return func(s *Server) {
		s.beforeList = fn
	}
}

// NewServer starts a server seeded with a copy of seed.
func NewServer(seed []member.Member, opts ...ServerOption) *Server {
	s := &Server{
		members:  slices.Clone(seed),
		hits:     map[string]int{},
		failures: map[string]failure{},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/members", s.handle(RouteList, s.list))
	r.Post("/members", s.handle(RouteCreate, s.create))
	r.Get("/members/{id}", s.handle(RouteGet, s.get))
	r.Patch("/members/{id}", s.handle(RouteUpdate, s.update))
	r.Delete("/members/{id}", s.handle(RouteDelete, s.delete))

	s.Server = httptest.NewServer(r)
	return s
}

// Hits returns how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// ResetHits zeroes every counter.
func (s *Server) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = map[string]int{}
}

// Fail answers the next times requests to route with status. A negative
// times fails until ClearFailures.
func (s *Server) Fail(route string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, times: times}
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// Members returns a copy of the stored collection.
func (s *Server) Members() []member.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.members)
}

// Find returns the stored member with id.
func (s *Server) Find(id member.ID) (member.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.members[i], true
	}
	return member.Member{}, false
}

func (s *Server) handle(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[route]++
		f, failing := s.failures[route]
		if failing {
			if f.times > 0 {
				f.times--
				if f.times == 0 {
					delete(s.failures, route)
				} else {
					s.failures[route] = f
				}
			}
		}
		s.mu.Unlock()

		if failing {
			writeJSON(w, f.status, map[string]string{"message": http.StatusText(f.status)})
			return
		}
		next(w, r)
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if s.beforeList != nil {
		s.beforeList(r)
	}

	query := r.URL.Query()
	term := strings.ToLower(strings.TrimSpace(query.Get("q")))
	page := intParam(query, 1, "page", "_page")
	limit := intParam(query, 0, "limit", "_limit")

	s.mu.Lock()
	var matched []member.Member
	for _, m := range s.members {
		if term == "" ||
			strings.Contains(strings.ToLower(m.Name), term) ||
			strings.Contains(strings.ToLower(m.Role), term) {
			matched = append(matched, m)
		}
	}
	s.mu.Unlock()

	total := len(matched)
	pageItems := matched
	if limit > 0 {
		offset := pagination.Params{Page: page, Limit: limit}.Offset()
		end := min(offset+limit, total)
		if offset >= total {
			pageItems = nil
		} else {
			pageItems = matched[offset:end]
		}
	}
	if pageItems == nil {
		pageItems = []member.Member{}
	}

	if s.envelope {
		writeJSON(w, http.StatusOK, map[string]any{"data": pageItems, "total": total})
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, pageItems)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	m, ok := s.Find(member.ID(chi.URLParam(r, "id")))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var fields member.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON payload"})
		return
	}
	if err := member.ValidateFields(fields); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "validation failed",
			"errors":  member.AsValidation(err).Fields,
		})
		return
	}

	m := member.Member{
		ID:    member.ID(uuid.NewString()),
		Name:  fields.Name,
		Role:  fields.Role,
		Email: fields.Email,
		Bio:   fields.Bio,
	}

	s.mu.Lock()
	s.members = append(s.members, m)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var patch member.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON payload"})
		return
	}

	id := member.ID(chi.URLParam(r, "id"))
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	s.members[i] = patch.Apply(s.members[i])
	updated := s.members[i]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := member.ID(chi.URLParam(r, "id"))
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	s.members = slices.Delete(s.members, i, i+1)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// indexOf expects s.mu to be held.
func (s *Server) indexOf(id member.ID) int {
	return slices.IndexFunc(s.members, func(m member.Member) bool { return m.ID == id })
}

func intParam(values map[string][]string, fallback int, names ...string) int {
	for _, name := range names {
		raw := values[name]
		if len(raw) == 0 || raw[0] == "" {
			continue
		}
		if n, err := strconv.Atoi(raw[0]); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
