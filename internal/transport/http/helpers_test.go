package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/arangam-server/internal/auth"
	"github.com/vovakirdan/arangam-server/internal/config"
	"github.com/vovakirdan/arangam-server/internal/core"
	applog "github.com/vovakirdan/arangam-server/internal/log"
	"github.com/vovakirdan/arangam-server/internal/store"
	"github.com/vovakirdan/arangam-server/internal/store/sqlite"
)

type testEnv struct {
	ts    *httptest.Server
	hub   *core.Hub
	store store.Store
	auth  *auth.Service
}

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

var testJWTConfig = &auth.JWTConfig{
	Secret:   []byte("test-secret"),
	Issuer:   "test",
	Audience: "test",
	TTL:      time.Hour,
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(st store.Store) *auth.Service {
	return auth.NewService(st, testJWTConfig)
}

// forgeToken signs a valid token for an arbitrary user id.
func forgeToken(t *testing.T, userID int64) string {
	t.Helper()

	token, err := auth.GenerateToken(testJWTConfig, userID, "ghost")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func startTestServer(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	st := createTestStore(t)
	authService := createTestAuthService(st)
	logger := applog.Nop()

	hub := core.NewHub(st, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.RateLimitPerMinute = 0
	for _, m := range mutate {
		m(&cfg)
	}

	server := NewServer(hub, authService, st, &cfg, logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})

	return &testEnv{ts: ts, hub: hub, store: st, auth: authService}
}

// signup registers a user and returns its token and id.
func (e *testEnv) signup(t *testing.T, username string) (string, int64) {
	t.Helper()

	token, user, err := e.auth.Signup(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return token, user.ID
}

// do performs a JSON request against the test server.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func (e *testEnv) wsURL(token string) string {
	return strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws?token=" + token
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, e.wsURL(token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type outboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, map[string]json.RawMessage{
		"type": json.RawMessage(`"` + typ + `"`),
		"data": payload,
	}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil reads frames until one of the given type arrives and decodes its data into out.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, out any) {
	t.Helper()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if frame.Type != typ {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(frame.Data, out); err != nil {
				t.Fatalf("decode %s: %v", typ, err)
			}
		}
		return
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
