// Package processor turns normalized portfolio documents into transaction
// records and assembles the cross-competitor activity feed. Every function
// here is pure with respect to its inputs; the pipeline is
// discover -> parse rows -> dedup per document, then merge -> sort across
// competitors.
package processor

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tradewatch/document"
	"tradewatch/models"
)

// looseClassRe matches the class tokens MarketWatch has used for
// transaction-bearing containers across markup revisions.
var looseClassRe = regexp.MustCompile(`(?i)transaction|order|trade`)

// ParseTransactions extracts every transaction a portfolio document exposes.
// Discovery runs several independent strategies and unions their rows: the
// markup is unstable and the same underlying row is often reachable through
// more than one path, so over-discovery is preferred to data loss and the
// combined result is deduplicated before being returned.
func ParseTransactions(doc *document.Document) []models.Transaction {
	if doc == nil {
		return nil
	}
	if doc.Kind() == document.KindCSV {
		return Dedup(ParseTransactionsCSV(doc.Records()))
	}
	root := doc.HTML()
	if root == nil {
		return nil
	}

	var found []models.Transaction
	found = append(found, fromTransactionModules(root)...)
	found = append(found, fromPrimaryTables(root)...)
	found = append(found, fromClassifiedTable(root)...)
	found = append(found, fromTransactionDivs(root)...)
	found = append(found, fromEmbeddedScripts(root)...)
	return Dedup(found)
}

// fromTransactionModules finds vse-module containers declaring the
// transactions view and parses every primary table nested inside them.
func fromTransactionModules(root *goquery.Document) []models.Transaction {
	var out []models.Transaction
	root.Find(`[is="vse-module"][view="transactions"]`).Each(func(_ int, module *goquery.Selection) {
		module.Find("table.table--primary").Each(func(_ int, table *goquery.Selection) {
			out = append(out, parseTable(table)...)
		})
	})
	return out
}

// fromPrimaryTables scans every primary/ranking styled table and accepts the
// ones whose header row mentions both a symbol and an order column. The
// header sniff keeps unrelated ranking tables out of the result.
func fromPrimaryTables(root *goquery.Document) []models.Transaction {
	var out []models.Transaction
	root.Find("table.table--primary, table.ranking").Each(func(_ int, table *goquery.Selection) {
		if !headerLooksTransactional(table) {
			return
		}
		out = append(out, parseTable(table)...)
	})
	return out
}

func headerLooksTransactional(table *goquery.Selection) bool {
	var hasSymbol, hasOrder bool
	table.Find("tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		if strings.Contains(text, "Symbol") {
			hasSymbol = true
		}
		if strings.Contains(text, "Order") {
			hasOrder = true
		}
	})
	return hasSymbol && hasOrder
}

// fromClassifiedTable is the stricter single-portfolio variant: take the
// first table carrying the exact primary ranking class string, falling back
// to the first table whose class attribute matches the loose pattern.
func fromClassifiedTable(root *goquery.Document) []models.Transaction {
	var target *goquery.Selection
	root.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if class, _ := table.Attr("class"); class == "table table--primary ranking" {
			target = table
			return false
		}
		return true
	})
	if target == nil {
		root.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
			if class, _ := table.Attr("class"); looseClassRe.MatchString(class) {
				target = table
				return false
			}
			return true
		})
	}
	if target == nil {
		return nil
	}
	return parseTable(target)
}

// fromTransactionDivs scans div containers whose class matches the loose
// pattern. The site has never rendered transactions through bare divs, so
// parseDiv yields nothing today; the hook stays so a markup change surfaces
// here instead of silently losing rows.
func fromTransactionDivs(root *goquery.Document) []models.Transaction {
	var out []models.Transaction
	root.Find("div").Each(func(_ int, div *goquery.Selection) {
		class, ok := div.Attr("class")
		if !ok || !looseClassRe.MatchString(class) {
			return
		}
		out = append(out, parseDiv(div)...)
	})
	return out
}

func parseDiv(_ *goquery.Selection) []models.Transaction {
	return nil
}

// fromEmbeddedScripts inspects inline scripts that mention transactions or
// orders and tries to decode the first brace-delimited object. Best effort:
// any decode failure skips the script silently.
func fromEmbeddedScripts(root *goquery.Document) []models.Transaction {
	var out []models.Transaction
	root.Find("script").Each(func(_ int, script *goquery.Selection) {
		text := script.Text()
		lower := strings.ToLower(text)
		if !strings.Contains(lower, "transactions") && !strings.Contains(lower, "orders") {
			return
		}
		match := firstBraceObject(text)
		if match == "" {
			return
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(match), &payload); err != nil {
			return
		}
		out = append(out, parseTransactionJSON(payload)...)
	})
	return out
}

var braceObjectRe = regexp.MustCompile(`(?s)\{.*?\}`)

func firstBraceObject(text string) string {
	return braceObjectRe.FindString(text)
}

// parseTransactionJSON would map the embedded-script payload to
// transactions, but the schema of that payload has never been observed.
// Deliberate extension point; returns nothing.
func parseTransactionJSON(_ map[string]any) []models.Transaction {
	return nil
}

// csvColumn names used by the transactions download endpoint.
const (
	csvSymbol          = "Symbol"
	csvOrderDate       = "Order Date/Time"
	csvTransactionDate = "Transaction Date/Time"
	csvType            = "Type"
	csvAmount          = "Amount"
	csvPrice           = "Ex. Price"
)

// ParseTransactionsCSV maps download-endpoint records to transactions. The
// export only contains executed orders, so every record is Completed.
func ParseTransactionsCSV(records []document.Record) []models.Transaction {
	out := make([]models.Transaction, 0, len(records))
	for _, rec := range records {
		out = append(out, models.Transaction{
			Symbol:          rec[csvSymbol],
			OrderDate:       rec[csvOrderDate],
			TransactionDate: rec[csvTransactionDate],
			Action:          rec[csvType],
			Amount:          parseAmount(rec[csvAmount]),
			Price:           rec[csvPrice],
			Status:          models.StatusCompleted,
		})
	}
	return out
}
