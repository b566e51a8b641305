// Package assistant answers free-text questions about SKUs, claims and
// sales. A query is classified by keyword, the matching records are fetched
// through a records.Store, rendered into a plain-text digest and returned
// either as a local templated reply or as a remote model completion seeded
// with that digest.
package assistant

import "strings"

// Intent is the record kind a query is about.
type Intent string

const (
	IntentSKU     Intent = "sku"
	IntentClaim   Intent = "claim"
	IntentSale    Intent = "sale"
	IntentGeneral Intent = "general"
)

// intentKeywords is checked in order; the first set with a substring hit
// wins. "return" deliberately belongs to claims.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentSKU, []string{"sku", "stock", "inventory", "product"}},
	{IntentClaim, []string{"claim", "warranty", "return"}},
	{IntentSale, []string{"sale", "revenue", "performance"}},
}

// Classify maps query to exactly one intent. Matching is a case-folded
// substring test, so "products" and "SKU00012" both count as sku.
func Classify(query string) Intent {
	q := strings.ToLower(query)
	for _, set := range intentKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(q, kw) {
				return set.intent
			}
		}
	}
	return IntentGeneral
}

// Valid reports whether i is one of the four known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentSKU, IntentClaim, IntentSale, IntentGeneral:
		return true
	}
	return false
}
