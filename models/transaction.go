package models

// Transaction statuses as they appear in the site's action column.
const (
	StatusCompleted = "Completed"
	StatusCanceled  = "Canceled"
)

// Transaction represents a single trade order scraped from a competitor's
// portfolio page. Dates stay in the site's native format ("7/9/25 10:45a ET")
// until the feed assembler needs a sortable value, and the price stays a
// string because canceled orders carry the literal "N/A".
type Transaction struct {
	Symbol          string `json:"symbol"`
	OrderDate       string `json:"order_date"`
	TransactionDate string `json:"transaction_date"`
	Action          string `json:"action"` // Buy, Sell, Short, Cover
	Amount          int    `json:"amount"`
	Price           string `json:"price"`
	Status          string `json:"status"`
}

// TransactionKey identifies one underlying trade event. Two records with the
// same key are the same event even when discovery surfaced them through
// different parts of the page with minor text differences elsewhere.
type TransactionKey struct {
	Symbol    string
	OrderDate string
	Action    string
	Amount    int
}

// Key returns the deduplication identity of the transaction.
func (t Transaction) Key() TransactionKey {
	return TransactionKey{
		Symbol:    t.Symbol,
		OrderDate: t.OrderDate,
		Action:    t.Action,
		Amount:    t.Amount,
	}
}
