package processor

import "tradewatch/models"

// Dedup collapses transactions that describe the same underlying event,
// keeping exactly one record per identity key in first-occurrence order.
// This is a stable set filter, not a merge: when duplicates disagree on a
// non-key field (price formatting, transaction date, status) the first-seen
// record's values win, since the strategies are expected to have observed
// the same row through different parts of the page.
func Dedup(txs []models.Transaction) []models.Transaction {
	if len(txs) == 0 {
		return nil
	}
	seen := make(map[models.TransactionKey]struct{}, len(txs))
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		key := tx.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tx)
	}
	return out
}
