package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/memory-match/internal/config"
	"github.com/robalobadob/memory-match/internal/feed"
	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/store"
	"github.com/robalobadob/memory-match/internal/symbols"
)

// unshuffled deals symbols in order, twice: card i pairs with card i+8.
type unshuffled struct{}

func (unshuffled) Shuffle(int, func(i, j int)) {}

func testConfig() config.Config {
	return config.Config{
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      "test_secret",
		CookieName:     "memory_game",
		DailySalt:      "salt",
		SessionIdleTTL: time.Minute,
		SweepInterval:  time.Minute,
	}
}

func newTestServer(t *testing.T, shuffled bool) (*Server, store.Store) {
	t.Helper()
	cat, err := symbols.Load("")
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	st := store.NewMemoryStore()
	s := New(st, cat, testConfig())
	if !shuffled {
		s.shuffler = func() game.Shuffler { return unshuffled{} }
	}
	t.Cleanup(func() { st.Sweep(context.Background(), 0) })
	return s, st
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) gameRes {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var res gameRes
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return res
}

func newGame(t *testing.T, s *Server, v string) gameRes {
	t.Helper()
	return decode(t, do(t, s, http.MethodPost, "/game/new", "", map[string]string{"variant": v}))
}

func TestHealthAndVariants(t *testing.T) {
	s, _ := newTestServer(t, true)

	if rec := do(t, s, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/variants", "", nil)
	var vs []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &vs); err != nil {
		t.Fatal(err)
	}
	if len(vs) != 2 || vs[0]["name"] != "classic" || vs[1]["name"] != "timed" {
		t.Fatalf("unexpected variants %v", vs)
	}
	if vs[1]["mismatchDelayMs"].(float64) != 900 {
		t.Fatalf("timed delay should be 900ms, got %v", vs[1]["mismatchDelayMs"])
	}
}

func TestNewGame(t *testing.T) {
	s, st := newTestServer(t, true)

	rec := do(t, s, http.MethodPost, "/game/new", "", nil)
	res := decode(t, rec)
	if res.GameID == "" || res.Token == "" {
		t.Fatalf("missing id/token: %+v", res)
	}
	if res.Variant.Name != "classic" {
		t.Fatalf("default variant should be classic, got %s", res.Variant.Name)
	}
	if len(res.Cards) != 16 || res.State.Total != 16 || res.State.Phase != game.PhaseIdle {
		t.Fatalf("unexpected board %+v", res.State)
	}
	for _, c := range res.Cards {
		if c.Symbol != "" {
			t.Fatalf("face-down card %d leaked its symbol", c.ID)
		}
	}
	if len(res.Events) == 0 || res.Events[0].Kind != feed.KindDeck {
		t.Fatalf("first event should be the deck, got %+v", res.Events)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("expected game cookie")
	}
	if st.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", st.Len())
	}
}

func TestNewGame_UnknownVariant(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := do(t, s, http.MethodPost, "/game/new", "", map[string]string{"variant": "blitz"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGameRoutesRequireToken(t *testing.T) {
	s, _ := newTestServer(t, true)
	a := newGame(t, s, "")
	b := newGame(t, s, "")

	if rec := do(t, s, http.MethodGet, "/game/"+a.GameID, "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/game/"+a.GameID, b.Token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("other game's token: expected 401, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/game/"+a.GameID, "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/game/"+a.GameID, a.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("own token: expected 200, got %d", rec.Code)
	}
}

func TestSelect_MatchAndNoOps(t *testing.T) {
	s, _ := newTestServer(t, false)
	g := newGame(t, s, "classic")
	path := "/game/" + g.GameID + "/select"

	first := decode(t, do(t, s, http.MethodPost, path, g.Token, map[string]any{"cardId": 0, "after": g.Cursor}))
	if first.Accepted == nil || !*first.Accepted {
		t.Fatal("first selection should be accepted")
	}
	if first.Cards[0].Symbol != "🍎" || first.State.Phase != game.PhaseRunning {
		t.Fatalf("card 0 should show 🍎 and start the timer: %+v %+v", first.Cards[0], first.State)
	}
	if len(first.Events) != 1 || first.Events[0].Kind != feed.KindCard {
		t.Fatalf("expected one card event after cursor, got %+v", first.Events)
	}

	again := decode(t, do(t, s, http.MethodPost, path, g.Token, map[string]any{"cardId": 0}))
	if again.Accepted == nil || *again.Accepted {
		t.Fatal("re-selecting a revealed card must be a no-op")
	}

	pair := decode(t, do(t, s, http.MethodPost, path, g.Token, map[string]any{"cardId": 8, "after": first.Cursor}))
	if !*pair.Accepted || pair.State.Moves != 1 || pair.State.Matched != 2 {
		t.Fatalf("expected a matched pair, got %+v", pair.State)
	}
	if !pair.Cards[0].Matched || !pair.Cards[8].Matched {
		t.Fatal("both cards should be matched")
	}

	out := decode(t, do(t, s, http.MethodPost, path, g.Token, map[string]any{"cardId": 99}))
	if *out.Accepted {
		t.Fatal("unknown card must be a no-op")
	}
}

func TestSelect_BadBody(t *testing.T) {
	s, _ := newTestServer(t, false)
	g := newGame(t, s, "")
	rec := do(t, s, http.MethodPost, "/game/"+g.GameID+"/select", g.Token, map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing cardId: expected 400, got %d", rec.Code)
	}
}

func TestSelect_WinsGame(t *testing.T) {
	s, _ := newTestServer(t, false)
	g := newGame(t, s, "classic")
	path := "/game/" + g.GameID + "/select"

	var last gameRes
	for i := 0; i < 8; i++ {
		decode(t, do(t, s, http.MethodPost, path, g.Token, map[string]any{"cardId": i}))
		last = decode(t, do(t, s, http.MethodPost, path, g.Token, map[string]any{"cardId": i + 8, "after": g.Cursor}))
	}
	if last.State.Phase != game.PhaseWon || last.State.Moves != 8 {
		t.Fatalf("expected win in 8 moves, got %+v", last.State)
	}
	wins := 0
	for _, e := range last.Events {
		if e.Kind == feed.KindWin {
			wins++
			if e.Moves != 8 {
				t.Fatalf("win event moves=%d", e.Moves)
			}
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one win event, got %d", wins)
	}
}

func TestMismatch_HiddenAfterDelay(t *testing.T) {
	s, _ := newTestServer(t, false)
	g := newGame(t, s, "timed")
	path := "/game/" + g.GameID

	decode(t, do(t, s, http.MethodPost, path+"/select", g.Token, map[string]any{"cardId": 0}))
	res := decode(t, do(t, s, http.MethodPost, path+"/select", g.Token, map[string]any{"cardId": 1}))
	if !res.Cards[0].Revealed || !res.Cards[1].Revealed {
		t.Fatal("mismatched cards should be visible right after the second flip")
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		res = decode(t, do(t, s, http.MethodGet, path, g.Token, nil))
		if !res.Cards[0].Revealed && !res.Cards[1].Revealed {
			return
		}
	}
	t.Fatal("mismatched pair was never hidden")
}

func TestRestart(t *testing.T) {
	s, _ := newTestServer(t, false)
	g := newGame(t, s, "")
	path := "/game/" + g.GameID

	decode(t, do(t, s, http.MethodPost, path+"/select", g.Token, map[string]any{"cardId": 0}))
	decode(t, do(t, s, http.MethodPost, path+"/select", g.Token, map[string]any{"cardId": 8}))

	res := decode(t, do(t, s, http.MethodPost, path+"/restart", g.Token, map[string]any{"after": g.Cursor}))
	if res.State.Moves != 0 || res.State.Matched != 0 || res.State.Phase != game.PhaseIdle {
		t.Fatalf("restart should reset state, got %+v", res.State)
	}
	deals := 0
	for _, e := range res.Events {
		if e.Kind == feed.KindDeck {
			deals++
		}
	}
	if deals != 1 {
		t.Fatalf("expected one new deck event, got %d", deals)
	}
}

func TestEndGame(t *testing.T) {
	s, st := newTestServer(t, true)
	g := newGame(t, s, "")

	if rec := do(t, s, http.MethodDelete, "/game/"+g.GameID, g.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if st.Len() != 0 {
		t.Fatal("session should be gone")
	}
	if rec := do(t, s, http.MethodGet, "/game/"+g.GameID, g.Token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestGetGame_BadCursor(t *testing.T) {
	s, _ := newTestServer(t, true)
	g := newGame(t, s, "")
	if rec := do(t, s, http.MethodGet, "/game/"+g.GameID+"?after=-1", g.Token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDaily_SameLayout(t *testing.T) {
	s, _ := newTestServer(t, true)
	s.now = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }

	info := do(t, s, http.MethodGet, "/daily", "", nil)
	var di dailyInfoRes
	if err := json.Unmarshal(info.Body.Bytes(), &di); err != nil {
		t.Fatal(err)
	}
	if di.Date != "2024-07-01" {
		t.Fatalf("unexpected date %q", di.Date)
	}

	reveal := func() []game.Symbol {
		g := decode(t, do(t, s, http.MethodPost, "/daily/new", "", map[string]string{"variant": "classic"}))
		if g.Daily != "2024-07-01" {
			t.Fatalf("expected daily date on game, got %q", g.Daily)
		}
		var out []game.Symbol
		path := "/game/" + g.GameID + "/select"
		for i := 0; i < 2; i++ {
			res := decode(t, do(t, s, http.MethodPost, path, g.Token, map[string]any{"cardId": i}))
			out = append(out, res.Cards[i].Symbol)
		}
		return out
	}
	a, b := reveal(), reveal()
	if a[0] != b[0] || a[1] != b[1] {
		t.Fatalf("daily boards differ: %v vs %v", a, b)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s, _ := newTestServer(t, true)
	tok, exp, err := s.signGameToken("g-1")
	if err != nil {
		t.Fatal(err)
	}
	if exp.Before(time.Now()) {
		t.Fatal("token already expired")
	}
	gid, err := s.parseGameToken(tok)
	if err != nil || gid != "g-1" {
		t.Fatalf("parse: %q %v", gid, err)
	}

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := s.parseGameToken(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestNotFound_PathEscaped(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/no%22where", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("404 body is not JSON: %v (%s)", err, rec.Body.String())
	}
	if body["error"] != "not_found" || body["path"] != `/no"where` {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestNewGame_ZeroCountersInEvents(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/game/new", "", map[string]string{"variant": "classic"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	raw := rec.Body.String()
	for _, want := range []string{`"kind":"moves","moves":0`, `"kind":"time","moves":0,"seconds":0`} {
		if !strings.Contains(raw, want) {
			t.Fatalf("response lacks %s: %s", want, raw)
		}
	}
}
