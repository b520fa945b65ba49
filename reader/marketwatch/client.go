// Package marketwatch fetches competition documents from the MarketWatch
// virtual stock exchange: portfolio pages and rankings over the website,
// performance series over the vse-api host, and transaction exports over
// the game download endpoint.
package marketwatch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"tradewatch/config"
	"tradewatch/logger"
)

// requestKind selects which header set decorates an outgoing request. The
// site serves HTML to browser-looking navigations and the API expects a
// CORS fetch from the game origin.
type requestKind int

const (
	requestHTML requestKind = iota
	requestAPI
)

// Client is a rate-limited HTTP client bound to one competition and one
// authenticated browser session. Safe for concurrent use.
type Client struct {
	config  *config.Config
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Log
}

// NewClient creates a Client using the configured connection pool, timeout
// and rate limit.
func NewClient(cfg *config.Config) *Client {
	log := logger.GetLogger()

	transport := &http.Transport{
		MaxIdleConns:       cfg.Reader.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:    cfg.Reader.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:    cfg.Reader.ConnectionPool.IdleConnTimeout,
		DisableCompression: false,
	}

	limiter := rate.NewLimiter(
		rate.Limit(cfg.Reader.RateLimit.RequestsPerSecond),
		cfg.Reader.RateLimit.BurstSize,
	)

	client := &Client{
		config: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Reader.Timeout,
		},
		limiter: limiter,
		log:     log,
	}

	log.WithComponent("marketwatch_reader").WithFields(logger.Fields{
		"game_uri":            cfg.Competition.GameURI,
		"requests_per_second": cfg.Reader.RateLimit.RequestsPerSecond,
		"timeout":             cfg.Reader.Timeout,
	}).Info("marketwatch client initialized")

	return client
}

// get performs a rate-limited GET and returns the response body. Non-2xx
// statuses are errors; 401 and 403 usually mean the session cookie expired.
func (c *Client) get(ctx context.Context, url string, kind requestKind) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.decorate(req, kind)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.log.WithComponent("marketwatch_reader").WithFields(logger.Fields{
				"url":    url,
				"status": resp.StatusCode,
			}).Warn("request rejected, session cookie may have expired")
		}
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

func (c *Client) decorate(req *http.Request, kind requestKind) {
	gameURL := fmt.Sprintf("%s/games/%s", c.config.Competition.BaseURL, c.config.Competition.GameURI)

	req.Header.Set("accept-language", "en-US,en;q=0.9")
	req.Header.Set("referer", gameURL)
	req.Header.Set("user-agent", c.config.Session.UserAgent)

	switch kind {
	case requestAPI:
		req.Header.Set("accept", "application/json")
		req.Header.Set("origin", c.config.Competition.BaseURL)
		req.Header.Set("sec-fetch-dest", "empty")
		req.Header.Set("sec-fetch-mode", "cors")
		req.Header.Set("sec-fetch-site", "same-site")
	default:
		req.Header.Set("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("cache-control", "max-age=0")
		req.Header.Set("sec-fetch-dest", "document")
		req.Header.Set("sec-fetch-mode", "navigate")
		req.Header.Set("sec-fetch-site", "same-origin")
		req.Header.Set("upgrade-insecure-requests", "1")
		if c.config.Session.Cookie != "" {
			req.Header.Set("cookie", c.config.Session.Cookie)
		}
	}
}
