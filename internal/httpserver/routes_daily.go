// internal/httpserver/routes_daily.go
//
// HTTP routes for the "board of the day".
// Exposes two endpoints under /daily:
//   - GET  /daily     → today's date key and the variants it can be played with
//   - POST /daily/new → start a game dealt from today's seed
//
// Every daily game for the same date and variant has the same layout, also
// after a restart. Nothing about daily play is stored.

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/memory-match/internal/daily"
	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/variant"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/", s.handleDailyInfo)
		r.Post("/new", s.handleDailyNew)
	})
}

// dailyInfoRes is returned by GET /daily.
type dailyInfoRes struct {
	Date     string   `json:"date"`
	Variants []string `json:"variants"`
}

func (s *Server) handleDailyInfo(w http.ResponseWriter, r *http.Request) {
	res := dailyInfoRes{Date: daily.DateKey(s.now())}
	for _, v := range variant.All() {
		res.Variants = append(res.Variants, v.Name)
	}
	_ = json.NewEncoder(w).Encode(res)
}

// dailyNewReq is the payload for POST /daily/new.
type dailyNewReq struct {
	Variant string `json:"variant"`
}

// handleDailyNew starts a game whose shuffle is seeded by today's date.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	var req dailyNewReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	now := s.now()
	seed := daily.Seed(now, s.cfg.DailySalt)
	s.startGame(w, r, req.Variant, daily.DateKey(now), game.SeededShuffler(seed))
}
