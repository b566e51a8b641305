package assistant

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// Empty-result sentinels, one per kind.
const (
	NoSKUs   = "No SKUs found."
	NoClaims = "No claims found."
	NoSales  = "No sales found."
)

// OverviewHeading opens the general digest.
const OverviewHeading = "Here's an overview of your data:"

// MaxSaleBlocks caps the per-record lines in a sales digest. The total line
// still covers every fetched sale.
const MaxSaleBlocks = 5

const dateLayout = "2006-01-02"

// Summarizer renders fetched records as plain-text digests.
type Summarizer struct {
	Money Money
}

// NewSummarizer returns a Summarizer that formats amounts for locale.
func NewSummarizer(locale string) *Summarizer {
	return &Summarizer{Money: NewMoney(locale)}
}

// SKUs renders one block per SKU, in the given order.
func (s *Summarizer) SKUs(items []domain.SKU) string {
	if len(items) == 0 {
		return NoSKUs
	}
	blocks := make([]string, len(items))
	for i, k := range items {
		blocks[i] = fmt.Sprintf("• %s (%s)\n  📦 Stock: %d units\n  📍 Location: %s, %s\n  💰 Price: %s\n  📁 Category: %s",
			k.Name, k.ID, k.Stock, k.Warehouse, k.Zone, s.Money.Format(k.Price), k.Category)
	}
	return strings.Join(blocks, "\n\n")
}

// Claims renders one block per claim, in the given order.
func (s *Summarizer) Claims(items []domain.Claim) string {
	if len(items) == 0 {
		return NoClaims
	}
	blocks := make([]string, len(items))
	for i, c := range items {
		blocks[i] = fmt.Sprintf("• Claim %s\n  🏢 Dealer: %s\n  📊 Status: %s\n  💰 Amount: %s\n  📋 Type: %s\n  📅 Submitted: %s",
			c.ID, c.DealerName, c.Status, s.Money.Format(c.Amount), c.Type, c.SubmittedDate.Format(dateLayout))
	}
	return strings.Join(blocks, "\n\n")
}

// Sales renders a total line over all items followed by at most
// MaxSaleBlocks per-sale blocks.
func (s *Summarizer) Sales(items []domain.Sale) string {
	if len(items) == 0 {
		return NoSales
	}
	total := decimal.Zero
	for _, x := range items {
		total = total.Add(x.Amount)
	}
	shown := items
	if len(shown) > MaxSaleBlocks {
		shown = shown[:MaxSaleBlocks]
	}
	blocks := make([]string, len(shown))
	for i, x := range shown {
		blocks[i] = fmt.Sprintf("• %s (%s)\n  🏢 Dealer: %s\n  📦 Qty: %d\n  💰 Amount: %s\n  📅 Date: %s",
			x.SKUName, x.ID, x.DealerName, x.Quantity, s.Money.Format(x.Amount), x.Date.Format(dateLayout))
	}
	return fmt.Sprintf("Total: %s across %d transactions\n\n", s.Money.Format(total), len(items)) +
		strings.Join(blocks, "\n\n")
}

// Overview renders the general digest: a heading and one section per kind.
// Empty kinds show their sentinel.
func (s *Summarizer) Overview(r Result) string {
	var b strings.Builder
	b.WriteString(OverviewHeading)
	b.WriteString("\n\n📦 SKUs:\n")
	b.WriteString(s.SKUs(r.SKUs))
	b.WriteString("\n\n📋 Claims:\n")
	b.WriteString(s.Claims(r.Claims))
	b.WriteString("\n\n💰 Sales:\n")
	b.WriteString(s.Sales(r.Sales))
	return b.String()
}

// Digest renders r according to its intent.
func (s *Summarizer) Digest(r Result) string {
	switch r.Intent {
	case IntentSKU:
		return s.SKUs(r.SKUs)
	case IntentClaim:
		return s.Claims(r.Claims)
	case IntentSale:
		return s.Sales(r.Sales)
	default:
		return s.Overview(r)
	}
}
