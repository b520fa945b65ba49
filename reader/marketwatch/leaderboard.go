package marketwatch

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tradewatch/document"
	"tradewatch/logger"
	"tradewatch/models"
)

var publicIDRe = regexp.MustCompile(`pub=([^&]+)`)

// FetchLeaderboard retrieves the rankings page and extracts the roster of
// competitors in leaderboard order.
func (c *Client) FetchLeaderboard(ctx context.Context) ([]models.Standing, error) {
	rankingsURL := fmt.Sprintf("%s/games/%s/rankings",
		c.config.Competition.BaseURL, c.config.Competition.GameURI)

	body, err := c.get(ctx, rankingsURL, requestHTML)
	if err != nil {
		return nil, err
	}

	doc, err := document.Parse(body, document.KindHTML)
	if err != nil {
		return nil, fmt.Errorf("rankings page: %w", err)
	}

	standings := parseLeaderboard(doc.HTML())
	if len(standings) == 0 {
		c.log.WithComponent("marketwatch_reader").Warn("rankings page yielded no competitors")
	}
	logger.RecordFlowMessage("leaderboard", len(body))
	return standings, nil
}

// parseLeaderboard scans leaderboard-styled tables for rows that link to a
// portfolio. When no table matches, it falls back to collecting every
// portfolio link on the page and numbering them in document order.
func parseLeaderboard(root *goquery.Document) []models.Standing {
	if root == nil {
		return nil
	}

	var standings []models.Standing
	seen := make(map[string]struct{})

	root.Find("table.leaderboard, table.ranking, table.table--primary").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := row.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			link := row.Find(`a[href*="/portfolio?pub="]`).First()
			if link.Length() == 0 {
				return
			}
			href, _ := link.Attr("href")
			publicID := extractPublicID(href)
			if publicID == "" {
				return
			}
			if _, dup := seen[publicID]; dup {
				return
			}
			seen[publicID] = struct{}{}

			rank := 0
			if n, err := strconv.Atoi(strings.TrimSpace(cells.Eq(0).Text())); err == nil {
				rank = n
			}
			standings = append(standings, models.Standing{
				PublicID: publicID,
				Name:     strings.TrimSpace(link.Text()),
				Rank:     rank,
			})
		})
	})

	if len(standings) > 0 {
		return standings
	}

	root.Find(`a[href*="/portfolio?pub="]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		publicID := extractPublicID(href)
		if publicID == "" {
			return
		}
		if _, dup := seen[publicID]; dup {
			return
		}
		seen[publicID] = struct{}{}
		standings = append(standings, models.Standing{
			PublicID: publicID,
			Name:     strings.TrimSpace(link.Text()),
			Rank:     len(standings) + 1,
		})
	})

	return standings
}

func extractPublicID(href string) string {
	match := publicIDRe.FindStringSubmatch(href)
	if match == nil {
		return ""
	}
	return match[1]
}
