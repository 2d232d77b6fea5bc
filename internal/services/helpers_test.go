package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"kiraska/internal/domain"
	"kiraska/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// addProduct inserts a product; stock < 0 means untracked.
func addProduct(t *testing.T, db *sqlx.DB, id, price string, stock int) {
	t.Helper()
	p := domain.Product{
		ID: id, Name: "Product " + id, Slug: strings.ToLower(id), Price: decimal.RequireFromString(price),
		IsActive: true, InStock: true, LowStockThreshold: 5,
	}
	if stock >= 0 {
		p.StockQuantity = &stock
	}
	require.NoError(t, repos.NewProductRepo(db).Insert(context.Background(), p))
}

func stockOf(t *testing.T, db *sqlx.DB, id string) *int {
	t.Helper()
	qty, err := repos.NewInventoryRepo(db).Qty(context.Background(), id)
	require.NoError(t, err)
	return qty
}

type logLine struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logLine {
	t.Helper()
	buf := &lockedBuf{}
	oldW, oldFlags := log.Writer(), log.Flags()
	log.SetOutput(buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var out []logLine
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logLine
		if json.Unmarshal([]byte(line), &e) == nil && e.Action != "" {
			out = append(out, e)
		}
	}
	return out
}

func hasAction(entries []logLine, action string) bool {
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}
