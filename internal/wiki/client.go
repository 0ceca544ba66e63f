// Package wiki reads article content from the Wikimedia core REST API and
// resolves redirect chains to a terminal page.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DedFishy/WikiSpeedrun/logging"
)

const (
	DefaultBaseURL = "https://api.wikimedia.org/core/v1/wikipedia/en"

	userAgent        = "Wikipedia Speedrun Game/0.0 (boynegregg312@gmail.com) Go-http-client"
	maxRedirectDepth = 10

	restPagePrefix = "/w/rest.php/v1/page/"
	bareSuffix     = "/bare"
)

var (
	// ErrPageMissing reports a summary fetch that the API rejected.
	ErrPageMissing = errors.New("page missing")
	// ErrRedirectLoop reports a redirect chain longer than maxRedirectDepth.
	ErrRedirectLoop = errors.New("redirect chain too long")
)

// Page is a terminally resolved article: the canonical display title and the
// rewritten render payload.
type Page struct {
	Title string
	HTML  string
}

// Cache stores resolved pages keyed by the id they were requested under.
type Cache interface {
	Get(ctx context.Context, pageID string) (Page, bool, error)
	Put(ctx context.Context, pageID string, page Page) error
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// RequestsPerSecond throttles API reads. Zero means the default of 5.
	RequestsPerSecond float64
	Cache             Cache
	Publisher         logging.Publisher
}

type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
	pub     logging.Publisher
}

func NewClient(cfg Config) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Client{
		base:    base,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cache:   cfg.Cache,
		pub:     pub,
	}
}

// bareObject is the page summary resource. A populated RedirectTarget means
// the requested id is a redirect, not an article.
type bareObject struct {
	Title          string `json:"title"`
	Key            string `json:"key"`
	HTTPCode       int    `json:"httpCode"`
	RedirectTarget string `json:"redirect_target"`
}

// GetPageHTML resolves pageID through any redirect chain and returns the
// final article's title and rewritten HTML. The cache, when present, is
// consulted first and written through on success; cache errors degrade to
// the network path.
func (c *Client) GetPageHTML(ctx context.Context, pageID string) (Page, error) {
	if c.cache != nil {
		if page, ok, err := c.cache.Get(ctx, pageID); err == nil && ok {
			c.publish(ctx, "page_cache_hit", pageID, logging.SeverityDebug, nil)
			return page, nil
		}
	}

	id := pageID
	var meta bareObject
	for depth := 0; ; depth++ {
		if depth > maxRedirectDepth {
			return Page{}, fmt.Errorf("resolving %q: %w", pageID, ErrRedirectLoop)
		}
		var err error
		meta, err = c.bare(ctx, id)
		if err != nil {
			return Page{}, err
		}
		if meta.RedirectTarget == "" {
			break
		}
		id = redirectKey(meta.RedirectTarget)
	}

	raw, err := c.html(ctx, id)
	if err != nil {
		return Page{}, err
	}

	page := Page{Title: meta.Title, HTML: rewriteContent(raw)}
	if c.cache != nil {
		if err := c.cache.Put(ctx, pageID, page); err != nil {
			c.publish(ctx, "page_cache_write_failed", pageID, logging.SeverityWarn, map[string]any{"error": err.Error()})
		}
	}
	c.publish(ctx, "page_fetched", pageID, logging.SeverityDebug, map[string]any{"title": page.Title})
	return page, nil
}

func (c *Client) bare(ctx context.Context, pageID string) (bareObject, error) {
	body, status, err := c.get(ctx, c.base+"/page/"+url.PathEscape(pageID)+"/bare")
	if err != nil {
		return bareObject{}, fmt.Errorf("fetching summary for %q: %w", pageID, err)
	}

	var meta bareObject
	if err := json.Unmarshal(body, &meta); err != nil {
		return bareObject{}, fmt.Errorf("decoding summary for %q: %w", pageID, err)
	}
	// The API reports errors both as HTTP status and as an httpCode field in
	// the body; either one rejects the page.
	if status != http.StatusOK || (meta.HTTPCode != 0 && meta.HTTPCode != http.StatusOK) {
		return bareObject{}, fmt.Errorf("summary for %q: %w", pageID, ErrPageMissing)
	}
	return meta, nil
}

func (c *Client) html(ctx context.Context, pageID string) (string, error) {
	body, status, err := c.get(ctx, c.base+"/page/"+url.PathEscape(pageID)+"/html")
	if err != nil {
		return "", fmt.Errorf("fetching content for %q: %w", pageID, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("content for %q: %w", pageID, ErrPageMissing)
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Api-User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// redirectKey extracts the target page id from a redirect_target path such
// as "/w/rest.php/v1/page/Rome/bare".
func redirectKey(target string) string {
	key := strings.TrimPrefix(target, restPagePrefix)
	key = strings.TrimSuffix(key, bareSuffix)
	if decoded, err := url.PathUnescape(key); err == nil {
		key = decoded
	}
	return key
}

// rewriteContent applies the three textual substitutions the renderer
// depends on: the embedded base-href goes away and relative asset and
// load-script paths become absolute.
func rewriteContent(raw string) string {
	raw = strings.ReplaceAll(raw, `<base href="//en.wikipedia.org/wiki/"/>`, "")
	raw = strings.ReplaceAll(raw, "./", "https://en.wikipedia.org/wiki/")
	raw = strings.ReplaceAll(raw, "/w/load.php", "https://en.wikipedia.org/w/load.php")
	return raw
}

func (c *Client) publish(ctx context.Context, eventType logging.EventType, pageID string, sev logging.Severity, payload map[string]any) {
	c.pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    logging.EntityRef{ID: pageID, Kind: logging.EntityKindPage},
		Severity: sev,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
