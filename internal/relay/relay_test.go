package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scraper-sky/2d-scene-editor/internal/core/bridge"
	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
	"github.com/scraper-sky/2d-scene-editor/internal/core/prompt"
	"github.com/scraper-sky/2d-scene-editor/internal/core/scene"
)

type fakeGenerator struct {
	reply string
	err   error
	calls [][]prompt.Message
}

func (f *fakeGenerator) Generate(_ context.Context, messages []prompt.Message) (string, error) {
	f.calls = append(f.calls, messages)
	return f.reply, f.err
}

func testConfig() Config {
	config := DefaultConfig()
	config.APIKey = "sk-test"
	return config
}

func newTestRelay(t *testing.T, gen Generator) *httptest.Server {
	t.Helper()
	srv, err := NewServer(testConfig(), gen, log.NewNop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestRelay(t, &fakeGenerator{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "API server alive", string(body))
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	missing, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestPushAI(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n[]\n```"}
	ts := newTestRelay(t, gen)

	resp, err := http.Post(ts.URL+"/push-ai", "application/json",
		strings.NewReader(`{"sceneDefs":[{"id":"circle1"}],"instruction":"create a house"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out bridge.EditResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "```json\n[]\n```", out.UpdatedJSON)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, prompt.System, gen.calls[0][0].Content)
	assert.Contains(t, gen.calls[0][1].Content, "Instruction: create a house")
	assert.Contains(t, gen.calls[0][1].Content, `"id": "circle1"`)
}

func TestPushAIRejects(t *testing.T) {
	cases := []struct {
		name   string
		method string
		body   string
		status int
		msg    string
	}{
		{"no instruction", http.MethodPost, `{"sceneDefs":[]}`, http.StatusBadRequest, msgBadRequest},
		{"blank instruction", http.MethodPost, `{"sceneDefs":[],"instruction":"  "}`, http.StatusBadRequest, msgBadRequest},
		{"scene not array", http.MethodPost, `{"sceneDefs":{},"instruction":"x"}`, http.StatusBadRequest, msgBadRequest},
		{"no scene", http.MethodPost, `{"instruction":"x"}`, http.StatusBadRequest, msgBadRequest},
		{"not json", http.MethodPost, `hello`, http.StatusBadRequest, msgInvalidJSON},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed, msgMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "[]"}
			ts := newTestRelay(t, gen)

			req, err := http.NewRequest(tc.method, ts.URL+"/push-ai", strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			var out bridge.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, tc.msg, out.Error)
			assert.Empty(t, gen.calls)
		})
	}
}

func TestPushAIProviderFailure(t *testing.T) {
	ts := newTestRelay(t, &fakeGenerator{err: errors.New("quota exceeded")})

	resp, err := http.Post(ts.URL+"/push-ai", "application/json",
		strings.NewReader(`{"sceneDefs":[],"instruction":"create a house"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var out bridge.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, msgProviderFailed, out.Error)
	assert.NotContains(t, out.Error, "sk-test")
}

func TestPushAIBodyLimit(t *testing.T) {
	config := testConfig()
	config.MaxBodySize = 32
	srv, err := NewServer(config, &fakeGenerator{}, log.NewNop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/push-ai", "application/json",
		strings.NewReader(`{"sceneDefs":[],"instruction":"`+strings.Repeat("a", 64)+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	config := testConfig()
	config.AllowedOrigins = []string{"https://editor.example"}
	srv, err := NewServer(config, &fakeGenerator{}, log.NewNop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/push-ai", nil)
	req.Header.Set("Origin", "https://editor.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://editor.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagates(t *testing.T) {
	srv, err := NewServer(testConfig(), &fakeGenerator{}, log.NewNop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(headerRequestID))
}

func TestWebSocketEdits(t *testing.T) {
	gen := &fakeGenerator{reply: "[]"}
	ts := newTestRelay(t, gen)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(bridge.EditRequest{SceneDefs: json.RawMessage(`[]`), Instruction: "add a tree"}))
	var ok bridge.EditResponse
	require.NoError(t, conn.ReadJSON(&ok))
	assert.Equal(t, "[]", ok.UpdatedJSON)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"sceneDefs":[]}`)))
	var bad bridge.ErrorResponse
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Equal(t, msgBadRequest, bad.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`nope`)))
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Equal(t, msgInvalidJSON, bad.Error)

	assert.Len(t, gen.calls, 1)
}

// The bridge's HTTP transport and the relay agree on the wire format end to end.
func TestBridgeAgainstRelay(t *testing.T) {
	reply := "```json\n[{\"id\":\"roof1\",\"type\":\"primitive\",\"shape\":\"triangle\",\"width\":80,\"height\":60,\"fillColor\":255,\"position\":[0,0,0],\"rotation\":[0,0,0],\"scale\":[1,1,1]}]\n```"
	ts := newTestRelay(t, &fakeGenerator{reply: reply})

	store := scene.NewStore()
	_, err := store.CreateSprite("tree", scene.Vec3{})
	require.NoError(t, err)

	config := bridge.DefaultTransportConfig()
	config.Endpoint = ts.URL + "/push-ai"
	b := bridge.New(store, bridge.NewHTTPTransport(config, log.NewNop()))

	outcome, err := b.Submit(context.Background(), "create a house")
	require.NoError(t, err)
	assert.Equal(t, bridge.EditApplied, outcome.Status)
	assert.True(t, store.Has("roof1"))
	assert.False(t, store.Has("tree1"))

	failing := newTestRelay(t, &fakeGenerator{err: errors.New("down")})
	config.Endpoint = failing.URL + "/push-ai"
	b = bridge.New(store, bridge.NewHTTPTransport(config, log.NewNop()))
	_, err = b.Submit(context.Background(), "create a person")
	var te *bridge.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, msgProviderFailed, te.Message)
	assert.True(t, store.Has("roof1"))
}
