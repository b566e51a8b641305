package assistant

import (
	"strings"
	"unicode"
)

// fillerWords never narrow a search: they are question scaffolding or
// describe the intent rather than a field value.
var fillerWords = map[string]struct{}{
	"a": {}, "about": {}, "all": {}, "an": {}, "and": {}, "any": {}, "are": {},
	"available": {}, "availability": {}, "by": {}, "can": {}, "check": {},
	"current": {}, "data": {}, "details": {}, "display": {}, "do": {}, "does": {},
	"find": {}, "for": {}, "from": {}, "get": {}, "give": {}, "have": {},
	"hello": {}, "hey": {}, "hi": {}, "how": {}, "i": {}, "in": {}, "is": {},
	"latest": {}, "level": {}, "levels": {}, "list": {}, "low": {}, "many": {},
	"me": {}, "month": {}, "much": {}, "my": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "please": {}, "recent": {}, "show": {}, "status": {}, "tell": {},
	"the": {}, "there": {}, "this": {}, "to": {}, "today": {}, "units": {},
	"us": {}, "view": {}, "week": {}, "what": {}, "whats": {}, "which": {},
	"with": {}, "year": {}, "you": {}, "approval": {},

	// intent vocabulary, singular and plural
	"sku": {}, "skus": {}, "stock": {}, "stocks": {}, "inventory": {},
	"product": {}, "products": {}, "claim": {}, "claims": {}, "warranty": {},
	"warranties": {}, "return": {}, "returns": {}, "sale": {}, "sales": {},
	"revenue": {}, "performance": {},
}

// SearchTerms reduces a free-text query to the lowercase tokens worth
// matching against record fields. Tokens are split on anything that is not
// a letter, digit or '%'; single characters and filler words are dropped,
// as are repeats. An empty result means "no narrowing".
func SearchTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '%'
	})
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, skip := fillerWords[f]; skip {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
