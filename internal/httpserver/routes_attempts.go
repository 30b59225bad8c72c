// internal/httpserver/routes_attempts.go
//
// HTTP routes for playing a level.
//   - POST   /levels/{levelId}/attempts  → start (404 no content, 409 locked)
//   - GET    /attempts/{id}              → current view
//   - DELETE /attempts/{id}              → retreat (abandon)
//   - POST   /attempts/{id}/{intent}     → select | category | letter | hint |
//     tiles | submit | replay | retry
//
// Attempts live in the session registry; only their owner may see or drive
// them (others get 404). Intent responses carry the feedback (when the
// intent produces one) and the refreshed view.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pixelwords/internal/auth"
	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/game"
	"github.com/robalobadob/pixelwords/internal/session"
)

// mountAttempts registers the attempt routes on an authenticated router.
func (s *Server) mountAttempts(r chi.Router) {
	r.Post("/levels/{levelId}/attempts", s.handleStart)
	r.Route("/attempts/{id}", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Delete("/", s.handleRetreat)
		r.Post("/select", s.intent(selectIntent))
		r.Post("/category", s.intent(categoryIntent))
		r.Post("/letter", s.intent(letterIntent))
		r.Post("/hint", s.intent(hintIntent))
		r.Post("/tiles", s.intent(tileIntent))
		r.Post("/submit", s.intent(submitIntent))
		r.Post("/replay", s.intent(replayIntent))
		r.Post("/retry", s.handleRetry)
	})
}

// intentReq is the union of every intent payload; each intent reads its field.
type intentReq struct {
	Option   string `json:"option"`
	Category string `json:"category"`
	Letter   string `json:"letter"`
	Remedy   string `json:"remedy"`
	TileID   *int   `json:"tileId"`
}

type intentRes struct {
	Feedback game.Feedback `json:"feedback,omitempty"`
	Attempt  session.View  `json:"attempt"`
}

// errBadRequest marks payload problems (400) as opposed to state conflicts (409).
var errBadRequest = errors.New("bad_request")

// intentFunc applies one decoded intent to the attempt.
type intentFunc func(a *game.Attempt, req intentReq) (game.Feedback, error)

func selectIntent(a *game.Attempt, req intentReq) (game.Feedback, error) {
	return a.Select(req.Option)
}

func categoryIntent(a *game.Attempt, req intentReq) (game.Feedback, error) {
	pos, err := content.ParsePartOfSpeech(req.Category)
	if err != nil {
		return game.FeedbackNone, errBadRequest
	}
	return a.ChooseCategory(pos)
}

func letterIntent(a *game.Attempt, req intentReq) (game.Feedback, error) {
	if utf8.RuneCountInString(req.Letter) != 1 {
		return game.FeedbackNone, errBadRequest
	}
	r, _ := utf8.DecodeRuneInString(req.Letter)
	return a.TypeLetter(r)
}

func hintIntent(a *game.Attempt, req intentReq) (game.Feedback, error) {
	switch game.Remedy(req.Remedy) {
	case game.RemedyExample, game.RemedyFlash:
		return game.FeedbackNone, a.RequestHint(game.Remedy(req.Remedy))
	}
	return game.FeedbackNone, errBadRequest
}

func tileIntent(a *game.Attempt, req intentReq) (game.Feedback, error) {
	if req.TileID == nil {
		return game.FeedbackNone, errBadRequest
	}
	return game.FeedbackNone, a.ToggleTile(*req.TileID)
}

func submitIntent(a *game.Attempt, _ intentReq) (game.Feedback, error) {
	return a.Submit()
}

func replayIntent(a *game.Attempt, _ intentReq) (game.Feedback, error) {
	return game.FeedbackNone, a.Replay()
}

// -----------------------------------------------------------------------------

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r.Context())
	worldID, stageNum, err := content.ParseLevelID(chi.URLParam(r, "levelId"))
	if err != nil {
		http.Error(w, `{"error":"bad_level_id"}`, http.StatusBadRequest)
		return
	}
	run, err := s.deps.Registry.Start(r.Context(), uid, worldID, stageNum)
	switch {
	case errors.Is(err, content.ErrContentUnavailable):
		http.Error(w, `{"error":"content_unavailable"}`, http.StatusNotFound)
		return
	case errors.Is(err, session.ErrLocked):
		http.Error(w, `{"error":"level_locked"}`, http.StatusConflict)
		return
	case err != nil:
		log.Error().Err(err).Str("user", uid).Msg("start attempt")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(run.View())
}

// runner resolves {id} to an attempt owned by the caller, writing 404 otherwise.
func (s *Server) runner(w http.ResponseWriter, r *http.Request) (*session.Runner, bool) {
	uid, _ := auth.UserID(r.Context())
	run, err := s.deps.Registry.Get(chi.URLParam(r, "id"))
	if err != nil || run.UserID() != uid {
		http.Error(w, `{"error":"attempt_not_found"}`, http.StatusNotFound)
		return nil, false
	}
	return run, true
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runner(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(run.View())
}

// handleRetreat abandons the attempt and drops it from the registry.
func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runner(w, r)
	if !ok {
		return
	}
	if _, err := s.deps.Registry.Remove(run.ID()); err != nil {
		http.Error(w, `{"error":"attempt_not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(run.View())
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runner(w, r)
	if !ok {
		return
	}
	if err := run.Retry(); err != nil {
		writeIntentError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(intentRes{Attempt: run.View()})
}

// intent decodes the payload (if any) and runs fn inside the runner.
func (s *Server) intent(fn intentFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := s.runner(w, r)
		if !ok {
			return
		}
		var req intentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
			return
		}
		var fb game.Feedback
		err := run.Do(func(a *game.Attempt) error {
			var err error
			fb, err = fn(a, req)
			return err
		})
		if err != nil {
			writeIntentError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(intentRes{Feedback: fb, Attempt: run.View()})
	}
}

// writeIntentError maps engine errors to status codes.
func writeIntentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		http.Error(w, `{"error":"bad_request"}`, http.StatusBadRequest)
	case errors.Is(err, game.ErrBusy):
		http.Error(w, `{"error":"busy"}`, http.StatusConflict)
	case errors.Is(err, game.ErrRemedyRequired):
		http.Error(w, `{"error":"remedy_required"}`, http.StatusConflict)
	case errors.Is(err, game.ErrInvalidIntent):
		http.Error(w, `{"error":"invalid_intent"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("intent")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
	}
}
