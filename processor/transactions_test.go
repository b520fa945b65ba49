package processor

import (
	"testing"

	"tradewatch/document"
	"tradewatch/models"
)

func htmlDoc(t *testing.T, markup string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(markup), document.KindHTML)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

const transactionTable = `
<table class="table table--primary ranking">
  <tr><th>Symbol</th><th>Order Date/Time</th><th>Transaction Date/Time</th><th>Type</th><th>Amount</th><th>Ex. Price</th></tr>
  <tr><td>AAPL</td><td>7/9/25 10:45a ET</td><td>7/9/25 10:45a ET</td><td>Buy</td><td>100</td><td>$150.00</td></tr>
  <tr><td>TSLA</td><td>7/9/25 11:00a ET</td><td>7/9/25 11:00a ET</td><td>Sell Canceled by User</td><td>50</td><td>N/A</td></tr>
  <tr><td>MSFT</td><td>7/9/25 11:30a ET</td><td>7/9/25 11:30a ET</td><td>Short</td><td>2,500</td><td>$310.20</td></tr>
</table>`

func TestParseTransactionsSingleTable(t *testing.T) {
	doc := htmlDoc(t, "<html><body>"+transactionTable+"</body></html>")
	got := ParseTransactions(doc)
	if len(got) != 3 {
		t.Fatalf("got %d transactions, want 3", len(got))
	}

	first := got[0]
	if first.Symbol != "AAPL" || first.Action != "Buy" || first.Amount != 100 ||
		first.Price != "$150.00" || first.Status != models.StatusCompleted {
		t.Errorf("unexpected first transaction: %+v", first)
	}
	canceled := got[1]
	if canceled.Action != "Sell" || canceled.Status != models.StatusCanceled {
		t.Errorf("canceled row not recognized: %+v", canceled)
	}
	if got[2].Amount != 2500 {
		t.Errorf("thousands separator not stripped: got %d", got[2].Amount)
	}
}

func TestParseTransactionsModuleStrategy(t *testing.T) {
	markup := `<html><body>
<div is="vse-module" view="transactions">
  <table class="table--primary">
    <tr><th>Symbol</th><th>Order</th><th>Txn</th><th>Type</th><th>Amount</th><th>Price</th></tr>
    <tr><td>NVDA</td><td>7/9/25 1:00p ET</td><td>7/9/25 1:00p ET</td><td>Buy</td><td>10</td><td>$120.00</td></tr>
  </table>
</div></body></html>`
	got := ParseTransactions(htmlDoc(t, markup))
	if len(got) != 1 || got[0].Symbol != "NVDA" {
		t.Fatalf("module strategy failed: %v", got)
	}
}

func TestParseTransactionsHeaderSniffRejectsRankingTable(t *testing.T) {
	markup := `<html><body>
<table class="ranking">
  <tr><th>Rank</th><th>Player</th><th>Value</th><th>Return</th><th>Today</th><th>Overall</th></tr>
  <tr><td>1</td><td>Alice</td><td>$120,000</td><td>20%</td><td>1%</td><td>20%</td></tr>
</table></body></html>`
	if got := ParseTransactions(htmlDoc(t, markup)); len(got) != 0 {
		t.Errorf("ranking table mistaken for transactions: %v", got)
	}
}

func TestParseTransactionsOverlappingStrategiesCollapse(t *testing.T) {
	// The exact-class table is found by the primary-table scan, the
	// classified-table scan and the header sniff alike; the union still
	// yields each row once.
	doc := htmlDoc(t, "<html><body>"+transactionTable+"</body></html>")
	got := ParseTransactions(doc)
	seen := make(map[models.TransactionKey]int)
	for _, tx := range got {
		seen[tx.Key()]++
	}
	for key, n := range seen {
		if n > 1 {
			t.Errorf("key %v appears %d times", key, n)
		}
	}
}

func TestParseTransactionsSkipsShortRows(t *testing.T) {
	markup := `<html><body>
<table class="table table--primary ranking">
  <tr><th>Symbol</th><th>Order</th><th>Txn</th><th>Type</th><th>Amount</th><th>Price</th></tr>
  <tr><td colspan="6">No recent transactions</td></tr>
  <tr><td>AAPL</td><td>7/9/25 10:45a ET</td><td>7/9/25 10:45a ET</td><td>Buy</td><td>100</td><td>$150.00</td></tr>
</table></body></html>`
	got := ParseTransactions(htmlDoc(t, markup))
	if len(got) != 1 || got[0].Symbol != "AAPL" {
		t.Fatalf("spacer row not skipped: %v", got)
	}
}

func TestParseTransactionsBadAmountIsZero(t *testing.T) {
	markup := `<html><body>
<table class="table table--primary ranking">
  <tr><th>Symbol</th><th>Order</th><th>Txn</th><th>Type</th><th>Amount</th><th>Price</th></tr>
  <tr><td>AAPL</td><td>7/9/25 10:45a ET</td><td>7/9/25 10:45a ET</td><td>Buy</td><td>--</td><td>$150.00</td></tr>
</table></body></html>`
	got := ParseTransactions(htmlDoc(t, markup))
	if len(got) != 1 || got[0].Amount != 0 {
		t.Fatalf("bad amount should normalize to 0: %v", got)
	}
}

func TestParseTransactionsScriptWithoutSchemaIsSilent(t *testing.T) {
	markup := `<html><body>
<script>window.__data = {"transactions": [1, 2, 3]};</script>
<script>var orders = not even json {{{</script>
</body></html>`
	if got := ParseTransactions(htmlDoc(t, markup)); len(got) != 0 {
		t.Errorf("script scan should yield nothing: %v", got)
	}
}

func TestParseTransactionsEmptyDocument(t *testing.T) {
	if got := ParseTransactions(nil); got != nil {
		t.Errorf("nil document: got %v, want nil", got)
	}
	if got := ParseTransactions(htmlDoc(t, "<html><body><p>hi</p></body></html>")); len(got) != 0 {
		t.Errorf("empty page: got %v, want none", got)
	}
}

func TestParseTransactionsCSVDocument(t *testing.T) {
	csv := `Symbol,Order Date/Time,Transaction Date/Time,Type,Amount,Ex. Price
AAPL,7/9/25 10:45a ET,7/9/25 10:46a ET,Buy,100,$150.00
TSLA,"7/9/25 11:00a ET","7/9/25 11:01a ET",Sell,"1,000",$250.00
`
	doc, err := document.Parse([]byte(csv), document.KindCSV)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	got := ParseTransactions(doc)
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	if got[0].Symbol != "AAPL" || got[0].Status != models.StatusCompleted {
		t.Errorf("unexpected first record: %+v", got[0])
	}
	if got[1].Amount != 1000 {
		t.Errorf("quoted amount: got %d, want 1000", got[1].Amount)
	}
	if got[0].TransactionDate != "7/9/25 10:46a ET" {
		t.Errorf("transaction date not mapped: %q", got[0].TransactionDate)
	}
}
