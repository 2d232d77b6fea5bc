package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"kiraska/internal/config"
	"kiraska/internal/domain"
	"kiraska/internal/http/handlers"
	"kiraska/internal/repos"
)

const adminToken = "s3cret-operator-token"

type testEnv struct {
	app      *fiber.App
	db       *sqlx.DB
	notifier *recordingNotifier
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, o)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// newTestEnv boots the real router over a seeded in-memory store.
func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{
		DBDSN:          ":memory:",
		SiteBaseURL:    "https://kiraska.uz",
		SiteLanguages:  []string{"uz", "ru", "ky", "tj", "zh"},
		AdminTokenHash: string(hash),
	}
	for _, m := range mutate {
		m(&cfg)
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedDemo(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n := &recordingNotifier{}
	deps := handlers.NewDeps(db, cfg, n, nil)
	return &testEnv{app: handlers.NewApp(deps, cfg), db: db, notifier: n}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func jsonReq(method, path string, v any) *http.Request {
	var b []byte
	switch x := v.(type) {
	case string:
		b = []byte(x)
	default:
		b, _ = json.Marshal(v)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func adminReq(method, path string, v any) *http.Request {
	var req *http.Request
	if v == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = jsonReq(method, path, v)
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)
	return req
}

func orderBody(products ...map[string]any) map[string]any {
	return map[string]any{
		"customerName": "Dilnoza",
		"phone":        "+998 90 123 45 67",
		"address":      "Tashkent, Chilonzor 7",
		"products":     products,
	}
}

func stockOf(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	qty, err := repos.NewInventoryRepo(db).Qty(context.Background(), id)
	if err != nil || qty == nil {
		t.Fatalf("stock of %s: %v", id, err)
	}
	return *qty
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	ReqID  string         `json:"req_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
