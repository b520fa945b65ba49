// Package scraper orchestrates one full competition pass: roster discovery,
// per-competitor portfolio scraping with bounded concurrency, and assembly
// of the final snapshot.
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradewatch/config"
	"tradewatch/logger"
	"tradewatch/models"
	"tradewatch/processor"
	"tradewatch/reader/marketwatch"
)

// Scraper runs competition passes against one configured game.
type Scraper struct {
	config *config.Config
	client *marketwatch.Client
	log    *logger.Log
}

func NewScraper(cfg *config.Config, client *marketwatch.Client) *Scraper {
	return &Scraper{
		config: cfg,
		client: client,
		log:    logger.GetLogger(),
	}
}

// Run executes one scrape pass and returns the resulting snapshot. A
// competitor whose scrape fails is logged and omitted; the pass only fails
// as a whole when the roster itself cannot be fetched.
func (s *Scraper) Run(ctx context.Context) (*models.Snapshot, error) {
	runID := uuid.NewString()
	log := s.log.WithComponent("scraper").WithFields(logger.Fields{"run_id": runID})
	started := time.Now()

	standings, err := s.client.FetchLeaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	log.WithFields(logger.Fields{"competitors": len(standings)}).Info("leaderboard fetched")

	competitors := s.scrapeAll(ctx, standings)

	snapshot := &models.Snapshot{
		Competition:  s.config.Competition.GameURI,
		RunID:        runID,
		ScrapedAt:    time.Now().UTC(),
		Competitors:  competitors,
		ActivityFeed: processor.BuildActivityFeed(competitors),
	}

	logger.LogPerformanceEntry(log, "scraper", "run", time.Since(started), logger.Fields{
		"competitors": len(competitors),
		"feed_items":  len(snapshot.ActivityFeed),
	})
	return snapshot, nil
}

// scrapeAll fans the roster out over a bounded worker pool. Results keep
// leaderboard order; failed competitors leave gaps that are compacted out.
func (s *Scraper) scrapeAll(ctx context.Context, standings []models.Standing) []models.Competitor {
	results := make([]*models.Competitor, len(standings))
	sem := make(chan struct{}, s.config.Reader.MaxWorkers)
	done := make(chan int, len(standings))

	for i, standing := range standings {
		go func(i int, standing models.Standing) {
			defer func() { done <- i }()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			competitor, err := s.scrapeCompetitor(ctx, standing)
			if err != nil {
				logger.IncrementScrapeFailure()
				s.log.WithComponent("scraper").WithError(err).WithFields(logger.Fields{
					"public_id": standing.PublicID,
					"name":      standing.Name,
				}).Error("competitor scrape failed, omitting from snapshot")
				return
			}
			results[i] = competitor
		}(i, standing)
	}
	for range standings {
		<-done
	}

	competitors := make([]models.Competitor, 0, len(standings))
	for _, c := range results {
		if c != nil {
			competitors = append(competitors, *c)
		}
	}
	return competitors
}

// scrapeCompetitor gathers one competitor's numbers and transactions. The
// portfolio page is the primary transaction source; when it yields nothing
// the CSV download fills in, since private games sometimes render the page
// without the transactions module while keeping the export working.
func (s *Scraper) scrapeCompetitor(ctx context.Context, standing models.Standing) (*models.Competitor, error) {
	perf, err := s.client.FetchPortfolioPerformance(ctx, standing.PublicID)
	if err != nil {
		return nil, fmt.Errorf("performance: %w", err)
	}
	latest, ok := perf.Latest()
	if !ok {
		return nil, fmt.Errorf("performance series empty for %s", standing.PublicID)
	}

	competitor := &models.Competitor{
		PublicID:         standing.PublicID,
		Name:             standing.Name,
		Rank:             standing.Rank,
		PortfolioValue:   latest.PortfolioValue,
		ReturnPercentage: latest.ReturnPercentage,
		ReturnDollars:    latest.ReturnDollars,
		LastUpdated:      time.Now().UTC(),
	}
	if latest.Rank > 0 {
		competitor.Rank = latest.Rank
	}

	page, err := s.client.FetchPortfolioPage(ctx, standing.PublicID)
	if err != nil {
		s.log.WithComponent("scraper").WithError(err).WithFields(logger.Fields{
			"public_id": standing.PublicID,
		}).Warn("portfolio page fetch failed, trying csv download")
	} else {
		competitor.Transactions = processor.ParseTransactions(page)
		if competitor.Name == "" {
			competitor.Name = marketwatch.CompetitorName(page)
		}
	}

	if len(competitor.Transactions) == 0 {
		csv, err := s.client.FetchTransactionsCSV(ctx, standing.PublicID)
		if err != nil {
			s.log.WithComponent("scraper").WithError(err).WithFields(logger.Fields{
				"public_id": standing.PublicID,
			}).Warn("csv download failed, competitor kept without transactions")
		} else {
			competitor.Transactions = processor.ParseTransactions(csv)
		}
	}

	if competitor.Name == "" {
		competitor.Name = "Unknown Player"
	}

	logger.IncrementCompetitorScraped()
	return competitor, nil
}
