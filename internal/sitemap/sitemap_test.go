package sitemap_test

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiraska/internal/domain"
	"kiraska/internal/sitemap"
)

type fakeCatalog struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *fakeCatalog) ActiveCategories(context.Context) ([]domain.Category, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Category{{Slug: "facade-paint", UpdatedAt: "2026-02-11 09:00:00"}}, nil
}

func (f *fakeCatalog) ActiveProducts(context.Context) ([]domain.Product, error) {
	return []domain.Product{{Slug: "matte-emulsion-10l"}}, nil
}

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *memCache) Get(_ context.Context, k string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[k]
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, k string, v []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = v
	return nil
}

// gateCatalog blocks the category read until release is closed, or fails
// early if its context is cancelled first.
type gateCatalog struct {
	started chan struct{}
	once    sync.Once
	release chan struct{}
}

func (g *gateCatalog) ActiveCategories(ctx context.Context) ([]domain.Category, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gateCatalog) ActiveProducts(context.Context) ([]domain.Product, error) {
	return nil, nil
}

func newGen(cat sitemap.Catalog, cache sitemap.Cache) *sitemap.Generator {
	g := sitemap.New("https://kiraska.uz/", []string{"uz", "ru", "ky", "tj", "zh"}, cat, cache)
	g.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return g
}

func TestBuild_AllLanguagesWithAlternates(t *testing.T) {
	b, err := newGen(&fakeCatalog{}, nil).Build(context.Background())
	require.NoError(t, err)
	doc := string(b)

	assert.True(t, strings.HasPrefix(doc, xml.Header))
	assert.Contains(t, doc, `xmlns:xhtml="http://www.w3.org/1999/xhtml"`)
	assert.Contains(t, doc, "<loc>https://kiraska.uz/</loc>")
	assert.Contains(t, doc, "<loc>https://kiraska.uz/ru/about</loc>")
	assert.Contains(t, doc, "<loc>https://kiraska.uz/zh/catalog?category=facade-paint</loc>")
	assert.Contains(t, doc, "<loc>https://kiraska.uz/product/matte-emulsion-10l</loc>")
	assert.Contains(t, doc, `hreflang="ky" href="https://kiraska.uz/ky/product/matte-emulsion-10l"`)
	assert.Contains(t, doc, "<lastmod>2026-02-11</lastmod>")
	assert.Contains(t, doc, "<lastmod>2026-03-01</lastmod>", "missing updated_at falls back to today")

	// 5 static pages + 1 category + 1 product, each in 5 languages
	assert.Equal(t, 35, strings.Count(doc, "<url>"))
	assert.Equal(t, 35*5, strings.Count(doc, `rel="alternate"`))
}

func TestXML_CachesAndSharesBuilds(t *testing.T) {
	cat := &fakeCatalog{delay: 50 * time.Millisecond}
	cache := &memCache{m: map[string][]byte{}}
	g := newGen(cat, cache)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.XML(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), cat.calls.Load())

	_, err := g.XML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), cat.calls.Load(), "second call served from cache")
	assert.NotEmpty(t, cache.m["sitemap.xml"])
}

func TestXML_PropagatesCatalogError(t *testing.T) {
	_, err := newGen(&fakeCatalog{err: errors.New("db gone")}, nil).XML(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db gone")
}

func TestXML_SharedBuildSurvivesCallerCancel(t *testing.T) {
	cat := &gateCatalog{started: make(chan struct{}), release: make(chan struct{})}
	g := newGen(cat, nil)

	first, cancel := context.WithCancel(context.Background())
	var firstErr, secondErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, firstErr = g.XML(first)
	}()
	<-cat.started
	go func() {
		defer wg.Done()
		_, secondErr = g.XML(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(cat.release)
	wg.Wait()

	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr)
}
