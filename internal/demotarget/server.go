// Package demotarget serves a minimal login page for exercising web mode locally.
package demotarget

import (
	"html/template"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	zlog "github.com/rs/zerolog/log"
)

const (
	DefaultUsername = "admin"
	DefaultPassword = "password"
	SuccessMessage  = "Welcome"
	FailureMessage  = "Invalid"

	sessionCookie = "demo_session"
)

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<title>Login</title>
<h2>Login Form</h2>
<form method="POST">
  <label>Username:</label>
  <input type="text" name="username" required><br>
  <label>Password:</label>
  <input type="password" name="password" required><br>
  <input type="submit" value="Login">
</form>
{{if .}}<p>{{.}}</p>{{end}}
`))

// Server is the demo login target
type Server struct {
	username string
	password string

	mu       sync.Mutex
	sessions map[string]int // session id -> login attempts
}

// New creates a demo target accepting the given credentials
func New(username, password string) *Server {
	return &Server{
		username: username,
		password: password,
		sessions: make(map[string]int),
	}
}

// Handler returns the router serving /login
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/login", s.showForm).Methods(http.MethodGet)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)
	return r
}

func (s *Server) showForm(w http.ResponseWriter, r *http.Request) {
	s.session(w, r)
	s.render(w, "")
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.sessions[id]++
	s.mu.Unlock()

	message := FailureMessage
	if r.PostForm.Get("username") == s.username && r.PostForm.Get("password") == s.password {
		message = SuccessMessage
	}
	zlog.Debug().Str("session", id).Str("result", message).Msg("Demo login attempt")
	s.render(w, message)
}

// session returns the caller's session id, issuing a cookie on first contact
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		_, known := s.sessions[c.Value]
		s.mu.Unlock()
		if known {
			return c.Value
		}
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = 0
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/", HttpOnly: true})
	return id
}

func (s *Server) render(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPage.Execute(w, message); err != nil {
		zlog.Error().Err(err).Msg("Failed to render login page")
	}
}

// Sessions returns the number of sessions seen so far
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Attempts returns the total number of login attempts across all sessions
func (s *Server) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.sessions {
		total += n
	}
	return total
}
