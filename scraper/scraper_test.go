package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradewatch/config"
	"tradewatch/models"
	"tradewatch/reader/marketwatch"
)

const rankingsPage = `<html><body>
<table class="table table--primary ranking">
  <tr><th>Rank</th><th>Player</th><th>Value</th></tr>
  <tr><td>1</td><td><a href="/games/test-competition/portfolio?pub=id-one">Alice</a></td><td>$120,000</td></tr>
  <tr><td>2</td><td><a href="/games/test-competition/portfolio?pub=id-two">Bob</a></td><td>$110,000</td></tr>
</table></body></html>`

const alicePortfolio = `<html><body>
<h1 class="player-name">Alice</h1>
<table class="table table--primary ranking">
  <tr><th>Symbol</th><th>Order Date/Time</th><th>Transaction Date/Time</th><th>Type</th><th>Amount</th><th>Ex. Price</th></tr>
  <tr><td>AAPL</td><td>7/9/25 10:45a ET</td><td>7/9/25 10:45a ET</td><td>Buy</td><td>100</td><td>$150.00</td></tr>
  <tr><td>TSLA</td><td>7/9/25 11:00a ET</td><td>7/9/25 11:00a ET</td><td>Sell Canceled by User</td><td>50</td><td>N/A</td></tr>
</table></body></html>`

// bobPortfolio has no transactions module, forcing the csv fallback.
const bobPortfolio = `<html><body><h1 class="player-name">Bob</h1><p>Portfolio under construction</p></body></html>`

const bobCSV = "Symbol,Order Date/Time,Transaction Date/Time,Type,Amount,Ex. Price\nMSFT,7/9/25 2:00p ET,7/9/25 2:01p ET,Buy,25,$310.00\n"

func performanceJSON(value float64, rank int) string {
	return fmt.Sprintf(`{"data":{"values":[{"d":"2025-07-09","w":%f,"p":10,"g":1000,"r":%d}]}}`, value, rank)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/rankings"):
			fmt.Fprint(w, rankingsPage)
		case strings.Contains(r.URL.Path, "portfolioPerformance"):
			if r.URL.Query().Get("publicId") == "id-one" {
				fmt.Fprint(w, performanceJSON(120000, 1))
			} else {
				fmt.Fprint(w, performanceJSON(110000, 2))
			}
		case strings.HasSuffix(r.URL.Path, "/download"):
			fmt.Fprint(w, bobCSV)
		case strings.HasSuffix(r.URL.Path, "/portfolio"):
			if r.URL.Query().Get("pub") == "id-one" {
				fmt.Fprint(w, alicePortfolio)
			} else {
				fmt.Fprint(w, bobPortfolio)
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func testConfig(serverURL string) *config.Config {
	return &config.Config{
		Competition: config.CompetitionConfig{
			GameURI:    "test-competition",
			BaseURL:    serverURL,
			APIBaseURL: serverURL,
		},
		Session: config.SessionConfig{Cookie: "mwsession=test", UserAgent: "test-agent"},
		Reader: config.ReaderConfig{
			MaxWorkers: 2,
			Timeout:    5 * time.Second,
			RateLimit:  config.RateLimitConfig{RequestsPerSecond: 100, BurstSize: 100},
			ConnectionPool: config.ConnectionPoolConfig{
				MaxIdleConns: 2, MaxConnsPerHost: 2, IdleConnTimeout: time.Second,
			},
		},
	}
}

func findCompetitor(t *testing.T, snapshot *models.Snapshot, publicID string) models.Competitor {
	t.Helper()
	for _, c := range snapshot.Competitors {
		if c.PublicID == publicID {
			return c
		}
	}
	t.Fatalf("competitor %s not in snapshot", publicID)
	return models.Competitor{}
}

func TestRunBuildsSnapshot(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	s := NewScraper(cfg, marketwatch.NewClient(cfg))

	snapshot, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snapshot.Competition != "test-competition" || snapshot.RunID == "" {
		t.Errorf("snapshot identity wrong: %+v", snapshot)
	}
	if len(snapshot.Competitors) != 2 {
		t.Fatalf("got %d competitors, want 2", len(snapshot.Competitors))
	}

	alice := findCompetitor(t, snapshot, "id-one")
	if alice.Name != "Alice" || alice.Rank != 1 || alice.PortfolioValue != 120000 {
		t.Errorf("unexpected alice: %+v", alice)
	}
	if len(alice.Transactions) != 2 {
		t.Errorf("alice transactions = %d, want 2", len(alice.Transactions))
	}

	// Bob's page has no transactions, so his single trade must come from
	// the csv download.
	bob := findCompetitor(t, snapshot, "id-two")
	if len(bob.Transactions) != 1 || bob.Transactions[0].Symbol != "MSFT" {
		t.Errorf("csv fallback did not fill bob's transactions: %+v", bob.Transactions)
	}

	// Feed excludes alice's canceled order: MSFT 2:00p, then AAPL 10:45a.
	if len(snapshot.ActivityFeed) != 2 {
		t.Fatalf("feed has %d items, want 2", len(snapshot.ActivityFeed))
	}
	if snapshot.ActivityFeed[0].Symbol != "MSFT" || snapshot.ActivityFeed[1].Symbol != "AAPL" {
		t.Errorf("feed order wrong: %+v", snapshot.ActivityFeed)
	}
	if snapshot.ActivityFeed[0].PlayerName != "Bob" {
		t.Errorf("feed item owner wrong: %+v", snapshot.ActivityFeed[0])
	}
}

func TestRunOmitsFailedCompetitor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/rankings"):
			fmt.Fprint(w, rankingsPage)
		case strings.Contains(r.URL.Path, "portfolioPerformance"):
			if r.URL.Query().Get("publicId") == "id-one" {
				fmt.Fprint(w, performanceJSON(120000, 1))
			} else {
				w.WriteHeader(http.StatusInternalServerError)
			}
		case strings.HasSuffix(r.URL.Path, "/portfolio"):
			fmt.Fprint(w, alicePortfolio)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	s := NewScraper(cfg, marketwatch.NewClient(cfg))

	snapshot, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snapshot.Competitors) != 1 || snapshot.Competitors[0].PublicID != "id-one" {
		t.Errorf("expected only id-one to survive: %+v", snapshot.Competitors)
	}
}

func TestRunFailsWithoutLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	s := NewScraper(cfg, marketwatch.NewClient(cfg))

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error when rankings page is unavailable")
	}
}
