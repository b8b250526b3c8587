// internal/httpserver/server.go
//
// HTTP server wiring for the memory-match backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access logs).
//   - Public endpoints: "/", "/health", "/variants".
//   - Game endpoints: POST /game/new, then token-gated /game/{id}/... commands.
//   - Daily board endpoints: mounted under /daily (routes_daily.go).
//   - Idle session eviction (RunSweeper).
//
// Notes:
//   - Each game runs on its own event loop; handlers submit commands with
//     Entry.Do and never touch a session directly.
//   - The browser reads what the session "rendered" from the entry's feed,
//     using the cursor returned with every response.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/config"
	"github.com/robalobadob/memory-match/internal/feed"
	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/store"
	"github.com/robalobadob/memory-match/internal/symbols"
	"github.com/robalobadob/memory-match/internal/variant"
)

// Server bundles router, live session store and symbol catalog.
type Server struct {
	r       *chi.Mux
	store   store.Store
	symbols *symbols.Catalog
	cfg     config.Config
	now     func() time.Time

	shuffler func() game.Shuffler // overrides the engine's random shuffle when set
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, cat *symbols.Catalog, cfg config.Config) *Server {
	s := &Server{r: chi.NewRouter(), store: st, symbols: cat, cfg: cfg, now: time.Now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(requestIDLogger)                 // tag logs with the chi request id
	s.r.Use(hlog.AccessHandler(accessLog))   // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"memory-match","endpoints":["/health","/variants","POST /game/new","POST /game/{id}/select","POST /game/{id}/restart","GET /game/{id}","/daily/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "sessions": s.store.Len()})
	})
	s.r.Get("/variants", s.handleVariants)

	// --- game ---
	s.r.Post("/game/new", s.handleNewGame)
	s.r.Route("/game/{id}", func(r chi.Router) {
		r.Use(s.requireGame)
		r.Get("/", s.handleGetGame)
		r.Post("/select", s.handleSelect)
		r.Post("/restart", s.handleRestart)
		r.Delete("/", s.handleEndGame)
	})

	// --- daily board ---
	s.mountDaily(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// RunSweeper evicts idle sessions every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.store.Sweep(ctx, idle); n > 0 {
				log.Info().Int("evicted", n).Int("live", s.store.Len()).Msg("idle sessions swept")
			}
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
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

// requestIDLogger adds the chi request id to the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			l := zerolog.Ctx(r.Context())
			l.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// ------------------------------ GAME ---------------------------------------

// gameRes is the common response for every game endpoint.
type gameRes struct {
	GameID   string          `json:"gameId"`
	Token    string          `json:"token,omitempty"`
	Variant  variant.Variant `json:"variant"`
	DelayMs  int64           `json:"mismatchDelayMs"`
	Daily    string          `json:"daily,omitempty"`
	Accepted *bool           `json:"accepted,omitempty"`
	Cards    []game.CardView `json:"cards"`
	State    game.State      `json:"state"`
	Events   []feed.Event    `json:"events"`
	Cursor   int64           `json:"cursor"`
	Reset    bool            `json:"reset,omitempty"`
}

// snapshot reads the board and the feed after cursor. Must run on the entry's loop.
func snapshot(e *store.Entry, s *game.Session, f *feed.Recorder, after int64) gameRes {
	events, reset := f.Since(after)
	if events == nil {
		events = []feed.Event{}
	}
	return gameRes{
		GameID:  e.ID,
		Variant: e.Variant,
		DelayMs: e.Variant.DelayMs(),
		Daily:   e.Daily,
		Cards:   s.Cards(),
		State:   s.State(),
		Events:  events,
		Cursor:  f.Cursor(),
		Reset:   reset,
	}
}

// handleVariants lists the built-in variants.
func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	type variantRes struct {
		variant.Variant
		DelayMs int64 `json:"mismatchDelayMs"`
	}
	out := []variantRes{}
	for _, v := range variant.All() {
		out = append(out, variantRes{Variant: v, DelayMs: v.DelayMs()})
	}
	_ = json.NewEncoder(w).Encode(out)
}

// newGameReq is the payload for POST /game/new.
type newGameReq struct {
	Variant string `json:"variant"` // "classic" | "timed"; empty selects classic
}

// handleNewGame deals a new board, registers it and returns a game token.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	// An empty body is allowed and selects the default variant.
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.startGame(w, r, req.Variant, "", nil)
}

// startGame is shared by /game/new and /daily/new.
func (s *Server) startGame(w http.ResponseWriter, r *http.Request, name, daily string, sh game.Shuffler) {
	v, err := variant.Lookup(name)
	if err != nil {
		http.Error(w, `{"error":"unknown_variant"}`, http.StatusBadRequest)
		return
	}
	cfg, err := v.Config(s.symbols)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("variant", v.Name).Msg("variant config")
		http.Error(w, `{"error":"variant_unavailable"}`, http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	logger := log.With().Str("gameId", id).Str("variant", v.Name).Logger()
	opts := []game.Option{game.WithLogger(logger)}
	if sh == nil && s.shuffler != nil {
		sh = s.shuffler()
	}
	if sh != nil {
		opts = append(opts, game.WithShuffler(sh))
	}
	e, err := store.NewEntry(r.Context(), id, v, cfg, opts...)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("start session")
		http.Error(w, `{"error":"start_failed"}`, http.StatusInternalServerError)
		return
	}
	e.Daily = daily
	if err := s.store.Save(r.Context(), e); err != nil {
		e.Close()
		hlog.FromRequest(r).Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	tok, exp, err := s.signGameToken(id)
	if err != nil {
		_ = s.store.Delete(r.Context(), id)
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setGameCookie(w, tok, exp)

	var res gameRes
	if err := e.Do(r.Context(), func(sess *game.Session, f *feed.Recorder) {
		res = snapshot(e, sess, f, 0)
	}); err != nil {
		writeLoopErr(w, err)
		return
	}
	res.Token = tok
	logger.Info().Str("daily", daily).Msg("game started")
	_ = json.NewEncoder(w).Encode(res)
}

// handleGetGame returns the board plus events after ?after=N.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	after, err := parseCursor(r.URL.Query().Get("after"))
	if err != nil {
		http.Error(w, `{"error":"bad_cursor"}`, http.StatusBadRequest)
		return
	}
	s.withEntry(w, r, func(e *store.Entry, sess *game.Session, f *feed.Recorder) gameRes {
		return snapshot(e, sess, f, after)
	})
}

// selectReq is the payload for POST /game/{id}/select.
type selectReq struct {
	CardID *int  `json:"cardId"`
	After  int64 `json:"after"` // feed cursor already seen by the client
}

// handleSelect flips one card. Rejected selections are reported with
// accepted=false and a 200: they are no-ops, not errors.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.withEntry(w, r, func(e *store.Entry, sess *game.Session, f *feed.Recorder) gameRes {
		ok := sess.SelectCard(game.CardID(*req.CardID))
		res := snapshot(e, sess, f, req.After)
		res.Accepted = &ok
		return res
	})
}

// restartReq is the payload for POST /game/{id}/restart.
type restartReq struct {
	After int64 `json:"after"`
}

// handleRestart deals a fresh board for the same game.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req restartReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.withEntry(w, r, func(e *store.Entry, sess *game.Session, f *feed.Recorder) gameRes {
		sess.Restart()
		hlog.FromRequest(r).Debug().Str("gameId", e.ID).Msg("game restarted")
		return snapshot(e, sess, f, req.After)
	})
}

// handleEndGame discards the session.
func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	s.clearGameCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// withEntry looks up the game named in the URL and runs fn on its loop.
func (s *Server) withEntry(w http.ResponseWriter, r *http.Request, fn func(*store.Entry, *game.Session, *feed.Recorder) gameRes) {
	e, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	var res gameRes
	if err := e.Do(r.Context(), func(sess *game.Session, f *feed.Recorder) {
		res = fn(e, sess, f)
	}); err != nil {
		writeLoopErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

// writeLoopErr maps loop submission failures to HTTP errors.
func writeLoopErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, `{"error":"timeout"}`, http.StatusServiceUnavailable)
	default:
		// Loop closed: the session was evicted or ended mid-request.
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	}
}

// parseCursor parses an optional non-negative feed cursor.
func parseCursor(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.New("bad cursor")
	}
	return n, nil
}
