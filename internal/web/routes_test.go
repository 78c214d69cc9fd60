package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/botornot/internal/game"
)

type fakeGames struct {
	rooms   []game.RoomSummary
	skipErr error
	skipped []string
	deleted []string
}

func (f *fakeGames) Rooms() []game.RoomSummary { return f.rooms }

func (f *fakeGames) HasRoom(id string) bool {
	for _, r := range f.rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeGames) ForceAdvance(id string) error {
	f.skipped = append(f.skipped, id)
	return f.skipErr
}

func (f *fakeGames) DeleteRoom(id string) { f.deleted = append(f.deleted, id) }

type fakeTopics []game.TopicInfo

func (f fakeTopics) Topics() []game.TopicInfo { return f }

func newRouter(g *fakeGames, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, g, fakeTopics{{ID: "food", Emoji: "🍕", Name: "Food"}}, opts)
	return r
}

func do(r *gin.Engine, method, path string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth {
		req.SetBasicAuth("admin", "pw")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(newRouter(&fakeGames{}, Options{}), http.MethodGet, "/health", false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"ok":true`)) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestTopicsAndRooms(t *testing.T) {
	g := &fakeGames{rooms: []game.RoomSummary{{ID: "ABCDE", HostName: "Alice", PlayerCount: 2}}}
	r := newRouter(g, Options{})

	w := do(r, http.MethodGet, "/api/topics", false)
	var topics []game.TopicInfo
	if err := json.Unmarshal(w.Body.Bytes(), &topics); err != nil || len(topics) != 1 || topics[0].ID != "food" {
		t.Fatalf("unexpected topics %s (%v)", w.Body.String(), err)
	}

	w = do(r, http.MethodGet, "/api/rooms", false)
	var rooms []game.RoomSummary
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil || len(rooms) != 1 || rooms[0].HostName != "Alice" {
		t.Fatalf("unexpected rooms %s (%v)", w.Body.String(), err)
	}
}

func TestQRCode(t *testing.T) {
	g := &fakeGames{rooms: []game.RoomSummary{{ID: "ABCDE"}}}
	r := newRouter(g, Options{PublicURL: "https://bot.example"})

	w := do(r, http.MethodGet, "/api/rooms/abcde/qr.png", false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("body is not a png")
	}

	if w := do(r, http.MethodGet, "/api/rooms/ZZZZZ/qr.png", false); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown room, got %d", w.Code)
	}
}

func TestJoinURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://game.local:3001/api/rooms/X/qr.png", nil)
	if got := JoinURL("", req, "ABCDE"); got != "http://game.local:3001/?room=ABCDE" {
		t.Fatalf("unexpected url %s", got)
	}
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := JoinURL("", req, "ABCDE"); got != "https://game.local:3001/?room=ABCDE" {
		t.Fatalf("forwarded proto should win, got %s", got)
	}
	if got := JoinURL("https://bot.example/", req, "ABCDE"); got != "https://bot.example/?room=ABCDE" {
		t.Fatalf("public url should win, got %s", got)
	}
}

func TestAdminRoutes(t *testing.T) {
	g := &fakeGames{rooms: []game.RoomSummary{{ID: "ABCDE"}}}
	r := newRouter(g, Options{AdminUser: "admin", AdminPass: "pw"})

	if w := do(r, http.MethodGet, "/api/admin/rooms", false); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/admin/rooms", true); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", w.Code)
	}

	if w := do(r, http.MethodPost, "/api/admin/rooms/abcde/skip", true); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(g.skipped) != 1 || g.skipped[0] != "ABCDE" {
		t.Fatalf("expected normalized skip, got %v", g.skipped)
	}

	g.skipErr = game.ErrInvalidPhase
	if w := do(r, http.MethodPost, "/api/admin/rooms/ABCDE/skip", true); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	g.skipErr = game.ErrRoomNotFound
	if w := do(r, http.MethodPost, "/api/admin/rooms/ABCDE/skip", true); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	if w := do(r, http.MethodDelete, "/api/admin/rooms/ABCDE", true); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(g.deleted) != 1 {
		t.Fatalf("expected one delete, got %v", g.deleted)
	}
}

func TestAdminRoutesAbsentWithoutCredentials(t *testing.T) {
	r := newRouter(&fakeGames{}, Options{})
	if w := do(r, http.MethodGet, "/api/admin/rooms", true); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when admin is disabled, got %d", w.Code)
	}
}
