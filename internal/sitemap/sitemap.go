// Package sitemap renders the multilingual sitemap.xml for the storefront.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"kiraska/internal/domain"
	applog "kiraska/internal/log"
)

type Catalog interface {
	ActiveCategories(ctx context.Context) ([]domain.Category, error)
	ActiveProducts(ctx context.Context) ([]domain.Product, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type page struct {
	path       string
	changefreq string
	priority   string
}

var staticPages = []page{
	{"/", "daily", "1.0"},
	{"/products", "daily", "0.9"},
	{"/catalog", "daily", "0.9"},
	{"/about", "monthly", "0.7"},
	{"/contact", "monthly", "0.7"},
}

const cacheKey = "sitemap.xml"

// Generator builds the document. The first language is served without a
// path prefix; every other one lives under /<lang>.
type Generator struct {
	BaseURL   string
	Languages []string
	Catalog   Catalog
	Cache     Cache // optional
	Now       func() time.Time

	group singleflight.Group
}

func New(baseURL string, languages []string, catalog Catalog, cache Cache) *Generator {
	if len(languages) == 0 {
		languages = []string{"uz"}
	}
	return &Generator{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Languages: languages,
		Catalog:   catalog,
		Cache:     cache,
		Now:       time.Now,
	}
}

type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	XHTML   string     `xml:"xmlns:xhtml,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string    `xml:"loc"`
	LastMod    string    `xml:"lastmod,omitempty"`
	ChangeFreq string    `xml:"changefreq"`
	Priority   string    `xml:"priority"`
	Alternates []altLink `xml:"xhtml:link"`
}

type altLink struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// XML returns the rendered sitemap, from cache when possible. Concurrent
// misses share a single build.
func (g *Generator) XML(ctx context.Context) ([]byte, error) {
	if g.Cache != nil {
		b, ok, err := g.Cache.Get(ctx, cacheKey)
		if err != nil {
			applog.WarnCtx(ctx, "sitemap.cache.get.fail", map[string]any{"err": err.Error()})
		} else if ok {
			return b, nil
		}
	}

	// the build is shared by every waiter, so it must outlive the caller that started it
	shared := context.WithoutCancel(ctx)
	v, err, _ := g.group.Do(cacheKey, func() (any, error) {
		ctx := shared
		if g.Cache != nil {
			if b, ok, err := g.Cache.Get(ctx, cacheKey); err == nil && ok {
				return b, nil
			}
		}
		b, err := g.Build(ctx)
		if err != nil {
			return nil, err
		}
		if g.Cache != nil {
			if err := g.Cache.Set(ctx, cacheKey, b); err != nil {
				applog.WarnCtx(ctx, "sitemap.cache.set.fail", map[string]any{"err": err.Error()})
			}
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Build renders the sitemap straight from the catalog.
func (g *Generator) Build(ctx context.Context) ([]byte, error) {
	cats, err := g.Catalog.ActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	prods, err := g.Catalog.ActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	today := g.Now().UTC().Format(time.DateOnly)
	set := urlset{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		XHTML: "http://www.w3.org/1999/xhtml",
	}
	for _, p := range staticPages {
		set.URLs = append(set.URLs, g.entries(p.path, "", p.changefreq, p.priority)...)
	}
	for _, c := range cats {
		path := "/catalog?category=" + url.QueryEscape(c.Slug)
		set.URLs = append(set.URLs, g.entries(path, lastMod(c.UpdatedAt, today), "weekly", "0.8")...)
	}
	for _, p := range prods {
		path := "/product/" + url.PathEscape(p.Slug)
		set.URLs = append(set.URLs, g.entries(path, lastMod(p.UpdatedAt, today), "weekly", "0.8")...)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// entries emits one <url> per language, each listing every alternate.
func (g *Generator) entries(path, lastmod, changefreq, priority string) []urlEntry {
	alts := make([]altLink, 0, len(g.Languages))
	for _, lang := range g.Languages {
		alts = append(alts, altLink{Rel: "alternate", Hreflang: lang, Href: g.localized(lang, path)})
	}
	out := make([]urlEntry, 0, len(g.Languages))
	for _, lang := range g.Languages {
		out = append(out, urlEntry{
			Loc:        g.localized(lang, path),
			LastMod:    lastmod,
			ChangeFreq: changefreq,
			Priority:   priority,
			Alternates: alts,
		})
	}
	return out
}

func (g *Generator) localized(lang, path string) string {
	if lang == g.Languages[0] {
		return g.BaseURL + path
	}
	return g.BaseURL + "/" + lang + path
}

// lastMod keeps the date part of a stored timestamp.
func lastMod(ts, fallback string) string {
	if len(ts) >= 10 {
		if _, err := time.Parse(time.DateOnly, ts[:10]); err == nil {
			return ts[:10]
		}
	}
	return fallback
}
