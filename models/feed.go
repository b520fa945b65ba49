package models

import "time"

// ActivityItem is one entry of the global activity feed: a completed
// transaction joined with its owner's identity at assembly time. Items are
// built fresh on every pass and never mutated.
type ActivityItem struct {
	Timestamp      string  `json:"timestamp"`
	PlayerName     string  `json:"player_name"`
	PlayerRank     int     `json:"player_rank"`
	Action         string  `json:"action"`
	Symbol         string  `json:"symbol"`
	Amount         int     `json:"amount"`
	Price          string  `json:"price"`
	PortfolioValue float64 `json:"portfolio_value"`
}

// Snapshot is the complete result of one scrape pass, in the shape the
// frontend consumes.
type Snapshot struct {
	Competition  string         `json:"competition"`
	RunID        string         `json:"run_id"`
	ScrapedAt    time.Time      `json:"scraped_at"`
	Competitors  []Competitor   `json:"competitors"`
	ActivityFeed []ActivityItem `json:"activity_feed"`
}
