package marketwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"tradewatch/document"
	"tradewatch/logger"
	"tradewatch/models"
)

// FetchPortfolioPage retrieves a competitor's portfolio page as a parsed
// HTML document.
func (c *Client) FetchPortfolioPage(ctx context.Context, publicID string) (*document.Document, error) {
	pageURL := fmt.Sprintf("%s/games/%s/portfolio?pub=%s",
		c.config.Competition.BaseURL, c.config.Competition.GameURI, url.QueryEscape(publicID))

	body, err := c.get(ctx, pageURL, requestHTML)
	if err != nil {
		return nil, err
	}
	logger.IncrementPageFetch(len(body))

	doc, err := document.Parse(body, document.KindHTML)
	if err != nil {
		return nil, fmt.Errorf("portfolio page for %s: %w", publicID, err)
	}
	return doc, nil
}

// FetchTransactionsCSV retrieves a competitor's transaction export from the
// game download endpoint as a parsed CSV document.
func (c *Client) FetchTransactionsCSV(ctx context.Context, publicID string) (*document.Document, error) {
	csvURL := fmt.Sprintf("%s/games/%s/download?view=transactions&pub=%s&isDownload=true",
		c.config.Competition.BaseURL, c.config.Competition.GameURI, url.QueryEscape(publicID))

	body, err := c.get(ctx, csvURL, requestHTML)
	if err != nil {
		return nil, err
	}
	logger.IncrementCSVFallback(len(body))

	doc, err := document.Parse(body, document.KindCSV)
	if err != nil {
		return nil, fmt.Errorf("transactions csv for %s: %w", publicID, err)
	}
	return doc, nil
}

// FetchPortfolioPerformance retrieves a competitor's performance series
// from the statistics API.
func (c *Client) FetchPortfolioPerformance(ctx context.Context, publicID string) (*models.PerformanceResponse, error) {
	apiURL := fmt.Sprintf("%s/v1/statistics/portfolioPerformance?gameUri=%s&publicId=%s",
		c.config.Competition.APIBaseURL, url.QueryEscape(c.config.Competition.GameURI), url.QueryEscape(publicID))

	body, err := c.get(ctx, apiURL, requestAPI)
	if err != nil {
		return nil, err
	}

	var perf models.PerformanceResponse
	if err := json.Unmarshal(body, &perf); err != nil {
		return nil, fmt.Errorf("decode performance for %s: %w", publicID, err)
	}
	return &perf, nil
}

// CompetitorName extracts the display name from a portfolio page. The page
// has carried the name in two different elements across revisions; when
// neither is present a placeholder keeps the competitor in the snapshot.
func CompetitorName(doc *document.Document) string {
	root := doc.HTML()
	if root == nil {
		return "Unknown Player"
	}
	if name := strings.TrimSpace(root.Find("h1.player-name").First().Text()); name != "" {
		return name
	}
	if name := strings.TrimSpace(root.Find("div.profile-name").First().Text()); name != "" {
		return name
	}
	return "Unknown Player"
}
