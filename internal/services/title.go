package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	titleWordCap      = 8
	defaultTitleRunes = 60
)

// Titles a session carries until its first question names it.
var placeholderTitles = []string{DefaultSessionTitle, "Untitled"}

// titleFiller is question scaffolding. Intent words (stock, claims, sales)
// are kept so the title still names the topic.
var titleFiller = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "for": {}, "from": {}, "give": {}, "in": {}, "is": {},
	"it": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "please": {},
	"show": {}, "tell": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "what": {}, "whats": {}, "which": {}, "with": {},
	"you": {},
}

func isPlaceholderTitle(title string) bool {
	t := strings.TrimSpace(title)
	if t == "" {
		return true
	}
	for _, p := range placeholderTitles {
		if strings.EqualFold(t, p) {
			return true
		}
	}
	return false
}

// titleFromPrompt title-cases up to titleWordCap meaningful words of prompt
// using tag's casing rules (English when undefined). Returns "" when the
// prompt is all filler or punctuation.
func titleFromPrompt(prompt string, tag language.Tag) string {
	if tag == language.Und {
		tag = language.English
	}
	// Casers are stateful; one per call.
	caser := cases.Title(tag)

	words := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	kept := make([]string, 0, titleWordCap)
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if _, skip := titleFiller[w]; skip {
			continue
		}
		kept = append(kept, caser.String(w))
		if len(kept) == titleWordCap {
			break
		}
	}
	return strings.Join(kept, " ")
}

// clipRunes cuts s to at most n runes. n <= 0 leaves s alone.
func clipRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
