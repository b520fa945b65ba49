package processor

import (
	"sort"

	"tradewatch/models"
)

// BuildActivityFeed flattens every competitor's transactions into a single
// chronological feed, newest first. Canceled orders are dropped; each
// surviving item carries its owner's name, rank and portfolio value so the
// feed renders without a second lookup. The sort is stable, so items whose
// timestamps tie (or fail to parse) keep their competitor order.
func BuildActivityFeed(competitors []models.Competitor) []models.ActivityItem {
	var feed []models.ActivityItem
	for _, c := range competitors {
		for _, tx := range c.Transactions {
			if tx.Status == models.StatusCanceled {
				continue
			}
			feed = append(feed, models.ActivityItem{
				Timestamp:      tx.OrderDate,
				PlayerName:     c.Name,
				PlayerRank:     c.Rank,
				Action:         tx.Action,
				Symbol:         tx.Symbol,
				Amount:         tx.Amount,
				Price:          tx.Price,
				PortfolioValue: c.PortfolioValue,
			})
		}
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return NormalizeTimestamp(feed[i].Timestamp).After(NormalizeTimestamp(feed[j].Timestamp))
	})
	return feed
}
