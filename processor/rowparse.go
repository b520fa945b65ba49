package processor

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tradewatch/models"
)

// A transaction row carries Symbol, Order Date, Transaction Date, Action,
// Amount and Price in that order. Rows with fewer cells are sub-headers or
// spacers and yield nothing.
const minTransactionCells = 6

// parseTable converts every data row of a table into transactions, skipping
// the header row. A malformed row drops only itself, never the table.
func parseTable(table *goquery.Selection) []models.Transaction {
	var out []models.Transaction
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		if tx, ok := parseRow(row); ok {
			out = append(out, tx)
		}
	})
	return out
}

func parseRow(row *goquery.Selection) (models.Transaction, bool) {
	cells := row.Find("td, th")
	if cells.Length() < minTransactionCells {
		return models.Transaction{}, false
	}
	text := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

	action, status := parseAction(text(3))
	return models.Transaction{
		Symbol:          text(0),
		OrderDate:       text(1),
		TransactionDate: text(2),
		Action:          action,
		Amount:          parseAmount(text(4)),
		Price:           text(5),
		Status:          status,
	}, true
}

// parseAction splits the action cell into verb and completion status. A
// canceled order renders as "Buy Canceled ..." with the verb first.
func parseAction(text string) (action, status string) {
	if !strings.Contains(text, "Canceled") {
		return text, models.StatusCompleted
	}
	if fields := strings.Fields(text); len(fields) > 0 {
		return fields[0], models.StatusCanceled
	}
	return text, models.StatusCanceled
}

// parseAmount strips thousands separators and parses the remaining digits.
// Anything non-numeric normalizes to zero so a bad cell never costs the row.
func parseAmount(text string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" || !isDigits(cleaned) {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
