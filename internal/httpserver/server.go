// internal/httpserver/server.go
//
// HTTP server wiring for the Pixel Words backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/heroes", "/leaderboard".
//   - Auth endpoints: POST /auth/login (identifier-only, get-or-create),
//     POST /auth/logout, GET /auth/me.
//   - Player endpoints (require auth): /me/hero, /me/save, /map.
//   - Level attempt endpoints (require auth): mounted in routes_attempts.go.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Handlers answer errors as {"error":"..."} JSON bodies.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pixelwords/internal/auth"
	"github.com/robalobadob/pixelwords/internal/config"
	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/progress"
	"github.com/robalobadob/pixelwords/internal/session"
	"github.com/robalobadob/pixelwords/internal/store"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Store    store.Store
	Pool     *content.Pool
	Registry *session.Registry
	Auth     *auth.Auth
	Game     config.Game
	Origin   string // CORS origin
	Now      func() time.Time
}

// Server bundles router and collaborators.
type Server struct {
	r    *chi.Mux
	deps Deps
}

// New constructs a Server, installs middleware, and registers routes.
func New(deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Game == (config.Game{}) {
		deps.Game = config.Default()
	}
	if deps.Origin == "" {
		deps.Origin = "http://localhost:5173"
	}
	s := &Server{r: chi.NewRouter(), deps: deps}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(deps.Origin))               // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"pixelwords","endpoints":["/health","/auth/*","/map","/levels/{levelId}/attempts","/attempts/{id}"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Get("/heroes", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(progress.Heroes)
	})
	s.r.Get("/leaderboard", s.handleLeaderboard)

	s.mountAuthRoutes()

	s.r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Require())
		r.Post("/me/hero", s.handleSelectHero)
		r.Post("/me/save", s.handleSave)
		r.Get("/map", s.handleMap)
		s.mountAttempts(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- AUTH --------------------------------------

type loginReq struct {
	UserID string `json:"userId"`
}

// profile is the public view of a player record.
type profile struct {
	ID           string    `json:"id"`
	HeroID       string    `json:"heroId,omitempty"`
	TotalStars   int       `json:"totalStars"`
	Unlocked     []string  `json:"unlocked"`
	LastActivity time.Time `json:"lastActivity"`
	Token        string    `json:"token,omitempty"`
}

func toProfile(u *progress.User) profile {
	return profile{
		ID:           u.UserID,
		HeroID:       u.HeroID,
		TotalStars:   progress.TotalStars(u),
		Unlocked:     u.UnlockedList(),
		LastActivity: u.LastActivity,
	}
}

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.With(s.deps.Auth.Require()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		_ = json.NewEncoder(w).Encode(toProfile(u))
	})
}

// handleLogin gets or creates the player record, signs a JWT and sets the cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	id := normalizeUserID(body.UserID)
	if err := validateUserID(id); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	u, err := s.deps.Store.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		u = progress.NewUser(id, s.deps.Now())
		err = s.deps.Store.SaveUser(r.Context(), u)
		if err == nil {
			log.Info().Str("user", id).Msg("new player")
		}
	}
	if err != nil {
		log.Error().Err(err).Str("user", id).Msg("login")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}

	tok, exp, err := s.deps.Auth.Sign(u.UserID)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.deps.Auth.SetCookie(w, tok, exp)
	p := toProfile(u)
	p.Token = tok
	_ = json.NewEncoder(w).Encode(p)
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Auth.ClearCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// currentUser loads the authenticated player's record, writing the error response if it cannot.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*progress.User, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return nil, false
	}
	u, err := s.deps.Store.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Str("user", id).Msg("load user")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return nil, false
	}
	return u, true
}

// ------------------------------ PLAYER -------------------------------------

type heroReq struct {
	HeroID string `json:"heroId"`
}

func (s *Server) handleSelectHero(w http.ResponseWriter, r *http.Request) {
	var body heroReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	if err := progress.SelectHero(u, body.HeroID); err != nil {
		http.Error(w, `{"error":"unknown_hero"}`, http.StatusBadRequest)
		return
	}
	if err := s.deps.Store.SaveUser(r.Context(), u); err != nil {
		log.Error().Err(err).Str("user", u.UserID).Msg("save hero")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(toProfile(u))
}

// handleSave is the manual save button: it stamps activity and persists the record.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	progress.Touch(u, s.deps.Now())
	if err := s.deps.Store.SaveUser(r.Context(), u); err != nil {
		log.Error().Err(err).Str("user", u.UserID).Msg("manual save")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "savedAt": u.LastActivity})
}

type mapLevel struct {
	ID        string `json:"id"`
	Stage     int    `json:"stage"`
	WordCount int    `json:"wordCount"`
	Unlocked  bool   `json:"unlocked"`
	Stars     int    `json:"stars"`
}

type mapWorld struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Order  int        `json:"order"`
	Levels []mapLevel `json:"levels"`
}

// handleMap lists every world's stages with the player's unlock and star state.
// Stages without content are left off the map.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	g := s.deps.Game
	worlds := []mapWorld{}
	for _, wd := range s.deps.Pool.Worlds() {
		mw := mapWorld{ID: wd.ID, Name: wd.Name, Order: wd.Order, Levels: []mapLevel{}}
		for stage := 1; stage <= g.MaxStagesPerWorld; stage++ {
			words, err := s.deps.Pool.SelectLevelWords(wd.ID, stage, g.WordsPerStage)
			if err != nil {
				break
			}
			id := content.LevelID(wd.ID, stage)
			mw.Levels = append(mw.Levels, mapLevel{
				ID:        id,
				Stage:     stage,
				WordCount: len(words),
				Unlocked:  progress.IsUnlocked(u, id),
				Stars:     progress.Stars(u, id),
			})
		}
		worlds = append(worlds, mw)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"worlds":     worlds,
		"totalStars": progress.TotalStars(u),
		"heroId":     u.HeroID,
	})
}

// handleLeaderboard ranks players by total stars. ?limit=N (default 20).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	users, err := s.deps.Store.ListUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list users")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	top := progress.Leaderboard(users)
	if len(top) > limit {
		top = top[:limit]
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"top": top})
}

// ------------------------------- small util --------------------------------

// normalizeUserID trims whitespace; adjust here if you want stricter rules.
func normalizeUserID(id string) string {
	return strings.TrimSpace(id)
}

// validateUserID enforces basic identifier rules.
func validateUserID(id string) error {
	if len(id) < 3 || len(id) > 24 {
		return errors.New("userId must be 3-24 chars")
	}
	for _, r := range id {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("userId: letters, numbers, underscore only")
		}
	}
	return nil
}
