// internal/httpserver/server.go
//
// HTTP server wiring for the Memory backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access logs).
//   - Public endpoints: "/", "/health", "/debug/symbols".
//   - POST /game/new: create a session, start it, hand out its token.
//   - Session endpoints (token required): state, start, reset, select, close, ws.
//
// Notes:
//   - Rejected tile picks are not errors: they answer 200 with accepted=false.
//   - CORS is origin‑aware and credentials‑enabled (so cookies work).
//   - The WebSocket route sits outside the timeout middleware.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/session"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
)

const defaultClientOrigin = "http://localhost:5173"

// Options configures a Server. An empty ClientOrigin means defaultClientOrigin
// for both CORS and WebSocket origin checks.
type Options struct {
	Alphabet      []string
	Rules         game.Rules
	SessionSecret string
	SessionTTL    time.Duration
	ClientOrigin  string
	SecureCookies bool
	// EngineOptions are applied to every new game (fixed layouts in tests).
	EngineOptions []game.Option
}

// Server bundles router, session store and game settings.
type Server struct {
	r        *chi.Mux
	store    store.Store
	opts     Options
	tokens   *tokenIssuer
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, opts Options) (*Server, error) {
	if err := opts.Rules.Validate(len(opts.Alphabet)); err != nil {
		return nil, err
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = defaultClientOrigin
	}
	tokens, err := newTokenIssuer(opts.SessionSecret, opts.SessionTTL)
	if err != nil {
		return nil, err
	}
	s := &Server{r: chi.NewRouter(), store: st, opts: opts, tokens: tokens}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)               // add X-Request-ID
	s.r.Use(chimw.RealIP)                  // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))   // request-scoped zerolog logger
	s.r.Use(hlog.AccessHandler(accessLog)) // one access line per request
	s.r.Use(chimw.Recoverer)               // recover from panics
	s.r.Use(cors(opts.ClientOrigin))       // credentials-friendly CORS

	// --- diagnostics ---
	endpoints := []string{"/health", "POST /game/new", "GET /game/{id}", "POST /game/{id}/start",
		"POST /game/{id}/reset", "POST /game/{id}/select", "GET /game/{id}/ws", "DELETE /game/{id}"}
	s.r.With(jsonContentType).Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"service": "memory-go", "endpoints": endpoints})
	})
	s.r.With(jsonContentType).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.With(jsonContentType).Get("/debug/symbols", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"symbols": len(s.opts.Alphabet), "pairs": s.opts.Rules.Pairs})
	})

	s.r.With(jsonContentType, chimw.Timeout(10*time.Second)).Post("/game/new", s.handleNewGame)

	s.r.Route("/game/{id}", func(r chi.Router) {
		r.Use(s.requireGameToken)
		r.Get("/ws", s.handleWS)

		r.Group(func(r chi.Router) {
			r.Use(jsonContentType)
			r.Use(chimw.Timeout(10 * time.Second))
			r.Get("/", s.handleState)
			r.Delete("/", s.handleClose)
			r.Post("/start", s.handleStart)
			r.Post("/reset", s.handleReset)
			r.Post("/select", s.handleSelect)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s, nil
}

// Router exposes the internal router (used by the HTTP server and tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on responses.
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

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("reqId", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

type ctxSessionKey struct{}

// requireGameToken checks the token is valid for {id}, loads the session and
// rejects it once idle past SessionTTL.
func (s *Server) requireGameToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tok := tokenFromRequest(r)
		if tok == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		sub, err := s.tokens.verify(tok)
		if err != nil || sub != id {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}
		sess, err := s.store.Get(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
			return
		}
		if time.Now().After(s.tokens.deadline(sess.LastActive())) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Session expired"})
			return
		}
		if c, err := r.Cookie(cookieName); err == nil && c.Value == tok {
			setSessionCookie(w, tok, s.tokens.deadline(time.Now()), s.opts.SecureCookies)
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("gameId", id)
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ctxSessionKey{}).(*session.Session)
	return sess
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Seed *uint64 `json:"seed"` // optional deterministic shuffle
}
type newGameRes struct {
	GameID    string    `json:"gameId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	State     game.View `json:"state"`
}

// handleNewGame creates a session, starts the game and issues its token.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
			return
		}
	}

	opts := append([]game.Option(nil), s.opts.EngineOptions...)
	if req.Seed != nil {
		opts = append(opts, game.WithSeed(*req.Seed))
	}
	id := uuid.NewString()
	sess, err := session.New(id, s.opts.Alphabet, s.opts.Rules, log.Logger, opts...)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("create session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "create_failed"})
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save_failed"})
		return
	}

	tok, exp, err := s.tokens.issue(id)
	if err != nil {
		_ = s.store.Delete(r.Context(), id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "sign_failed"})
		return
	}
	setSessionCookie(w, tok, exp, s.opts.SecureCookies)

	v := sess.Start()
	hlog.FromRequest(r).Info().Str("gameId", id).Int("pairs", v.TotalPairs).Msg("game created")
	writeJSON(w, http.StatusCreated, newGameRes{GameID: id, Token: tok, ExpiresAt: exp, State: v})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).View())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Start())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Reset())
}

// selectReq/Res payloads for POST /game/{id}/select.
type selectReq struct {
	Position *int `json:"position"`
}
type selectRes struct {
	Accepted bool      `json:"accepted"`
	State    game.View `json:"state"`
}

// handleSelect forwards a tile pick; rejections are reported, not failed.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	ok, v := sessionFrom(r).Select(*req.Position)
	writeJSON(w, http.StatusOK, selectRes{Accepted: ok, State: v})
}

// handleClose ends the session and clears the cookie.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete_failed"})
		return
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
