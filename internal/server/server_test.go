package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dailyboard/internal/credential"
	"github.com/dukerupert/dailyboard/internal/database"
	"github.com/dukerupert/dailyboard/internal/docstore"
	"github.com/dukerupert/dailyboard/internal/lostark"
	"github.com/dukerupert/dailyboard/internal/model"
	"github.com/dukerupert/dailyboard/internal/tracker"
	ws "github.com/dukerupert/dailyboard/internal/websocket"
)

const goodToken = "good-token"

// fakeAPI serves /characters/{name}/siblings from an in-memory roster.
type fakeAPI struct {
	mu       sync.Mutex
	accounts map[string][]model.Character
}

func (f *fakeAPI) set(name string, chars ...model.Character) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[name] = chars
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /characters/{name}/siblings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "bearer "+goodToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		name := r.PathValue("name")
		if name == "Broken" {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		f.mu.Lock()
		chars, ok := f.accounts[name]
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.Write([]byte("null"))
			return
		}
		json.NewEncoder(w).Encode(chars)
	})
	return mux
}

func char(name, level string) model.Character {
	return model.Character{CharacterName: name, ServerName: "Luterra", CharacterClassName: "Sorceress", ItemAvgLevel: level, ItemMaxLevel: level}
}

type testEnv struct {
	t      *testing.T
	url    string
	api    *fakeAPI
	tokens credential.Store
}

func setup(t *testing.T, searchLimit int) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	api := &fakeAPI{accounts: make(map[string][]model.Character)}
	apiServer := httptest.NewServer(api.handler())
	t.Cleanup(apiServer.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := docstore.New(db)
	tokens := credential.NewKeyring(keyring.NewArrayKeyring(nil))
	client := lostark.NewClient(apiServer.URL, tokens, 2*time.Second)
	svc := tracker.NewService(docs, client, tokens, logger)
	require.NoError(t, svc.Load(context.Background()))

	srv := New(svc, ws.NewHub(logger), searchLimit, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{t: t, url: ts.URL, api: api, tokens: tokens}
}

func (e *testEnv) withToken() *testEnv {
	require.NoError(e.t, e.tokens.Set(context.Background(), goodToken))
	return e
}

// call sends body as JSON and decodes a JSON response into out when non-nil.
func (e *testEnv) call(method, path string, body, out any) int {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.url+path, r)
	require.NoError(e.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(e.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) errorOf(method, path string, body any) (int, string) {
	e.t.Helper()
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(method, e.url+path, bytes.NewReader(data))
	require.NoError(e.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	var msg map[string]string
	json.NewDecoder(resp.Body).Decode(&msg)
	return resp.StatusCode, msg["error"]
}

func (e *testEnv) seedGroup() model.CharacterGroup {
	e.t.Helper()
	e.api.set("Main", char("Main", "1,640.00"), char("Alt", "1,600.00"), char("Third", "1,540.00"), char("Mule", "250.00"))
	var g model.CharacterGroup
	require.Equal(e.t, http.StatusCreated, e.call("POST", "/api/groups", map[string]string{"name": "Main"}, &g))
	return g
}

func names(chars []model.Character) []string {
	out := make([]string, len(chars))
	for i, c := range chars {
		out[i] = c.CharacterName
	}
	return out
}

func TestHealth(t *testing.T) {
	e := setup(t, 0)
	var body map[string]string
	require.Equal(t, http.StatusOK, e.call("GET", "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSearchRequiresToken(t *testing.T) {
	e := setup(t, 0)
	status, msg := e.errorOf("POST", "/api/groups", map[string]string{"name": "Main"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, msg)
}

func TestSearchErrors(t *testing.T) {
	e := setup(t, 0).withToken()
	e.api.set("Low", char("Low", "999.99"))

	tests := []struct {
		name   string
		status int
	}{
		{"  ", http.StatusBadRequest},
		{"Nobody", http.StatusNotFound},
		{"Low", http.StatusBadRequest},
		{"Broken", http.StatusBadGateway},
	}
	for _, tt := range tests {
		status, msg := e.errorOf("POST", "/api/groups", map[string]string{"name": tt.name})
		assert.Equal(t, tt.status, status, "search %q", tt.name)
		assert.NotEmpty(t, msg, "search %q", tt.name)
	}

	var groups []model.CharacterGroup
	require.Equal(t, http.StatusOK, e.call("GET", "/api/groups", nil, &groups))
	assert.Empty(t, groups)
}

func TestGroupLifecycle(t *testing.T) {
	e := setup(t, 0).withToken()
	g := e.seedGroup()
	assert.Equal(t, []string{"Main", "Alt", "Third"}, names(g.Characters))

	var got model.CharacterGroup
	require.Equal(t, http.StatusOK, e.call("GET", "/api/groups/"+g.ID, nil, &got))
	assert.Equal(t, g.ID, got.ID)

	// User order survives a refresh that brings a new character.
	keys := []string{"Third@Luterra", "Main@Luterra", "Alt@Luterra"}
	require.Equal(t, http.StatusOK, e.call("PUT", "/api/groups/"+g.ID+"/characters/order", map[string]any{"keys": keys}, &got))
	assert.Equal(t, []string{"Third", "Main", "Alt"}, names(got.Characters))

	e.api.set("Main", char("Main", "1,645.00"), char("Alt", "1,600.00"), char("Third", "1,540.00"), char("Fresh", "1,610.00"))
	require.Equal(t, http.StatusOK, e.call("POST", "/api/groups/"+g.ID+"/refresh", nil, &got))
	assert.Equal(t, []string{"Third", "Main", "Alt", "Fresh"}, names(got.Characters))
	assert.Equal(t, "1,645.00", got.Characters[1].ItemAvgLevel)

	require.Equal(t, http.StatusOK, e.call("POST", "/api/groups/"+g.ID+"/characters/Fresh@Luterra/move", map[string]int{"delta": -1}, &got))
	assert.Equal(t, []string{"Third", "Main", "Fresh", "Alt"}, names(got.Characters))

	status, _ := e.errorOf("PUT", "/api/groups/"+g.ID+"/characters/order", map[string]any{"keys": []string{"Main@Luterra"}})
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, http.StatusNoContent, e.call("DELETE", "/api/groups/"+g.ID, nil, nil))
	status, _ = e.errorOf("GET", "/api/groups/"+g.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = e.errorOf("POST", "/api/groups/"+g.ID+"/refresh", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReorderGroups(t *testing.T) {
	e := setup(t, 0).withToken()
	first := e.seedGroup()
	e.api.set("Other", char("Other", "1,580.00"))
	var second model.CharacterGroup
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/groups", map[string]string{"name": "Other"}, &second))

	var groups []model.CharacterGroup
	require.Equal(t, http.StatusOK, e.call("PUT", "/api/groups/order", map[string]any{"ids": []string{first.ID, second.ID}}, &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, first.ID, groups[0].ID)

	require.Equal(t, http.StatusOK, e.call("GET", "/api/groups", nil, &groups))
	assert.Equal(t, []string{first.ID, second.ID}, []string{groups[0].ID, groups[1].ID})
}

func TestTodoTemplatesAndProgress(t *testing.T) {
	e := setup(t, 0).withToken()
	e.seedGroup()
	const key = "/api/characters/Main@Luterra"

	var daily model.TodoGroup
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/todo-groups", map[string]string{"name": "Daily"}, &daily))
	var chaos, guild model.TodoItem
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/todo-groups/"+daily.ID+"/items",
		map[string]any{"name": "Chaos dungeon", "type": "counter", "target_count": 2}, &chaos))
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/todo-groups/"+daily.ID+"/items",
		map[string]any{"name": "Guild donation"}, &guild))
	assert.Equal(t, model.ItemTypeCheck, guild.Type)

	status, _ := e.errorOf("POST", "/api/todo-groups/"+daily.ID+"/items",
		map[string]any{"name": "x", "type": "counter", "target_count": 0})
	assert.Equal(t, http.StatusBadRequest, status)

	var board tracker.Board
	require.Equal(t, http.StatusOK, e.call("GET", key+"/todos", nil, &board))
	require.Len(t, board.Groups, 1)
	assert.Len(t, board.Groups[0].Items, 2)
	assert.False(t, board.Groups[0].Items[0].Complete)

	var p model.Progress
	require.Equal(t, http.StatusOK, e.call("PUT", key+"/completed/"+daily.ID+"/"+chaos.ID, map[string]any{"value": 1}, &p))
	assert.Equal(t, 1, p.Count)
	require.Equal(t, http.StatusOK, e.call("POST", key+"/completed/"+daily.ID+"/"+chaos.ID+"/increment", map[string]int{"delta": 1}, &p))
	assert.Equal(t, 2, p.Count)
	require.Equal(t, http.StatusOK, e.call("PUT", key+"/completed/"+daily.ID+"/"+guild.ID, map[string]any{"value": true}, &p))
	assert.True(t, p.Done)

	status, _ = e.errorOf("PUT", key+"/completed/"+daily.ID+"/"+chaos.ID, map[string]any{"value": true})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = e.errorOf("PUT", key+"/completed/"+daily.ID+"/"+chaos.ID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	for _, bad := range []any{-3, 2.9, 1e30} {
		status, _ = e.errorOf("PUT", key+"/completed/"+daily.ID+"/"+chaos.ID, map[string]any{"value": bad})
		assert.Equal(t, http.StatusBadRequest, status, "value %v", bad)
	}
	require.Equal(t, http.StatusOK, e.call("GET", key+"/todos", nil, &board))
	assert.Equal(t, 2, board.Groups[0].Items[0].Progress.Count, "rejected values leave the count alone")
	status, _ = e.errorOf("GET", "/api/characters/Ghost@Luterra/todos", nil)
	assert.Equal(t, http.StatusNotFound, status)

	require.Equal(t, http.StatusOK, e.call("GET", key+"/todos", nil, &board))
	for _, it := range board.Groups[0].Items {
		assert.True(t, it.Complete, it.Item.Name)
	}

	// An empty selection hides every group without losing progress.
	var st model.CharacterTodoState
	require.Equal(t, http.StatusOK, e.call("PUT", key+"/selection", map[string]any{"groups": []string{}}, &st))
	assert.False(t, st.Selection.IsAll())
	require.Equal(t, http.StatusOK, e.call("GET", key+"/todos", nil, &board))
	assert.Empty(t, board.Groups)

	require.Equal(t, http.StatusOK, e.call("DELETE", key+"/selection", nil, &st))
	assert.True(t, st.Selection.IsAll())
	require.Equal(t, http.StatusOK, e.call("GET", key+"/todos", nil, &board))
	require.Len(t, board.Groups, 1)
	assert.Equal(t, 2, board.Groups[0].Items[0].Progress.Count)

	var renamed model.TodoGroup
	require.Equal(t, http.StatusOK, e.call("PUT", "/api/todo-groups/"+daily.ID, map[string]string{"name": "Dailies"}, &renamed))
	assert.Equal(t, "Dailies", renamed.Name)

	var reordered model.TodoGroup
	require.Equal(t, http.StatusOK, e.call("PUT", "/api/todo-groups/"+daily.ID+"/items/order",
		map[string]any{"ids": []string{guild.ID, chaos.ID}}, &reordered))
	assert.Equal(t, guild.ID, reordered.Items[0].ID)

	// Unknown item types fall back to check items.
	var timer model.TodoItem
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/todo-groups/"+daily.ID+"/items",
		map[string]any{"name": "Abyss", "type": "timer"}, &timer))
	assert.Equal(t, model.ItemTypeCheck, timer.Type)

	assert.Equal(t, http.StatusNoContent, e.call("DELETE", "/api/todo-groups/"+daily.ID+"/items/"+guild.ID, nil, nil))
	assert.Equal(t, http.StatusNoContent, e.call("DELETE", "/api/todo-groups/"+daily.ID, nil, nil))
	var groups []model.TodoGroup
	require.Equal(t, http.StatusOK, e.call("GET", "/api/todo-groups", nil, &groups))
	assert.Empty(t, groups)
}

func TestTodoGroupOrder(t *testing.T) {
	e := setup(t, 0)
	var a, b model.TodoGroup
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/todo-groups", map[string]string{"name": "A"}, &a))
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/todo-groups", map[string]string{"name": "B"}, &b))

	var groups []model.TodoGroup
	require.Equal(t, http.StatusOK, e.call("PUT", "/api/todo-groups/order", map[string]any{"ids": []string{b.ID, a.ID}}, &groups))
	assert.Equal(t, []string{"B", "A"}, []string{groups[0].Name, groups[1].Name})

	status, _ := e.errorOf("PUT", "/api/todo-groups/order", map[string]any{"ids": []string{b.ID, b.ID}})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = e.errorOf("POST", "/api/todo-groups", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestExpeditionTodos(t *testing.T) {
	e := setup(t, 0).withToken()
	g := e.seedGroup()

	var gate, boss model.TodoItem
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/expedition-todos", map[string]any{"name": "Chaos gate"}, &gate))
	require.Equal(t, http.StatusCreated, e.call("POST", "/api/expedition-todos",
		map[string]any{"name": "Field boss", "type": "counter", "target_count": 1}, &boss))

	var items []model.TodoItem
	require.Equal(t, http.StatusOK, e.call("PUT", "/api/expedition-todos/order", map[string]any{"ids": []string{boss.ID, gate.ID}}, &items))
	assert.Equal(t, boss.ID, items[0].ID)

	var p model.Progress
	require.Equal(t, http.StatusOK, e.call("PUT", "/api/groups/"+g.ID+"/expedition/"+gate.ID, map[string]any{"value": true}, &p))
	require.Equal(t, http.StatusOK, e.call("POST", "/api/groups/"+g.ID+"/expedition/"+boss.ID+"/increment", map[string]int{"delta": 1}, &p))
	assert.Equal(t, 1, p.Count)

	var board tracker.ExpeditionBoard
	require.Equal(t, http.StatusOK, e.call("GET", "/api/groups/"+g.ID+"/expedition", nil, &board))
	require.Len(t, board.Items, 2)
	for _, it := range board.Items {
		assert.True(t, it.Complete, it.Item.Name)
	}

	assert.Equal(t, http.StatusNoContent, e.call("DELETE", "/api/expedition-todos/"+gate.ID, nil, nil))
	require.Equal(t, http.StatusOK, e.call("GET", "/api/expedition-todos", nil, &items))
	assert.Len(t, items, 1)

	status, _ := e.errorOf("GET", "/api/groups/missing/expedition", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTokenSettings(t *testing.T) {
	e := setup(t, 0)

	var st struct {
		Configured bool `json:"configured"`
	}
	require.Equal(t, http.StatusOK, e.call("GET", "/api/settings/token", nil, &st))
	assert.False(t, st.Configured)

	status, _ := e.errorOf("PUT", "/api/settings/token", map[string]any{"token": "wrong", "validate": true})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = e.errorOf("PUT", "/api/settings/token", map[string]any{"token": "  "})
	assert.Equal(t, http.StatusBadRequest, status)

	require.Equal(t, http.StatusOK, e.call("PUT", "/api/settings/token", map[string]any{"token": goodToken, "validate": true}, &st))
	assert.True(t, st.Configured)
	require.Equal(t, http.StatusOK, e.call("GET", "/api/settings/token", nil, &st))
	assert.True(t, st.Configured)

	require.Equal(t, http.StatusOK, e.call("DELETE", "/api/settings/token", nil, &st))
	assert.False(t, st.Configured)
}

func TestSearchRateLimited(t *testing.T) {
	e := setup(t, 2).withToken()
	e.api.set("Main", char("Main", "1,640.00"))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusCreated, e.call("POST", "/api/groups", map[string]string{"name": "Main"}, nil))
	}
	status, msg := e.errorOf("POST", "/api/groups", map[string]string{"name": "Main"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "too many requests", msg)

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, e.call("GET", "/api/groups", nil, nil))
}

func TestInvalidJSON(t *testing.T) {
	e := setup(t, 0)
	resp, err := http.Post(e.url+"/api/todo-groups", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
