package models

import "time"

// Standing is one leaderboard entry: the opaque public id MarketWatch uses in
// portfolio links, plus the display name and rank shown on the rankings page.
type Standing struct {
	PublicID string `json:"public_id"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
}

// Competitor is one participant's scraped snapshot. The portfolio numbers
// come from the performance API; the transaction list from the portfolio
// page (or the CSV download fallback). The transaction order is discovery
// order, not chronological - the feed assembler sorts the merged feed.
type Competitor struct {
	PublicID         string        `json:"public_id"`
	Name             string        `json:"name"`
	Rank             int           `json:"rank"`
	PortfolioValue   float64       `json:"portfolio_value"`
	ReturnPercentage float64       `json:"return_percentage"`
	ReturnDollars    float64       `json:"return_dollars"`
	Transactions     []Transaction `json:"transactions"`
	LastUpdated      time.Time     `json:"last_updated"`
}

// PerformancePoint is one day entry from the portfolioPerformance API. The
// upstream field names are single letters.
type PerformancePoint struct {
	Date             string  `json:"d"`
	PortfolioValue   float64 `json:"w"`
	ReturnPercentage float64 `json:"p"`
	ReturnDollars    float64 `json:"g"`
	Rank             int     `json:"r"`
}

// PerformanceResponse is the envelope returned by the portfolioPerformance
// endpoint.
type PerformanceResponse struct {
	Data struct {
		PublicID string             `json:"publicId"`
		Values   []PerformancePoint `json:"values"`
	} `json:"data"`
}

// Latest returns the most recent performance point, or false when the API
// returned no values for the competitor.
func (r *PerformanceResponse) Latest() (PerformancePoint, bool) {
	if r == nil || len(r.Data.Values) == 0 {
		return PerformancePoint{}, false
	}
	return r.Data.Values[len(r.Data.Values)-1], true
}
