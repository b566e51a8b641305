// Package search ranks canned assistant queries against what a user has
// typed so far. The index is immutable after construction and safe for
// concurrent use.
//
// Scoring uses Jaccard similarity between the token sets of the input and
// each stored query: score = |Q ∩ S| / |Q ∪ S|. Ties break on shorter text,
// then lexical order, so results are deterministic.
package search

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// CommonQueries is the built-in suggestion list.
var CommonQueries = []string{
	"Show me SKU availability in Chennai",
	"What's the status of my recent claims?",
	"Display sales data for this month",
	"Which products are low in stock?",
	"Show pending claims for approval",
	"Show warranty claims for my dealership",
	"What is the revenue performance by region?",
	"List inventory in the Mumbai warehouse",
	"Show recent sales of electronics",
	"Give me an overview of my data",
}

// Result is a ranked suggestion with its similarity score.
type Result struct {
	Query string  `json:"query"`
	Score float64 `json:"score"`
}

// Index is implemented by suggestion indices.
type Index interface {
	TopK(input string, k int) []Result
	All() []string
}

type Option func(*config)

type config struct {
	stopwords  map[string]struct{}
	maxEntries int
}

func defaultConfig() config {
	return config{}
}

// WithStopwords drops the given words from both sides before scoring.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxEntries caps how many queries are indexed.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

type entry struct {
	text   string
	tokens map[string]struct{}
}

type index struct {
	cfg     config
	entries []entry
}

// NewIndex builds an Index over queries. Blank and duplicate entries
// (case-insensitive) are skipped.
func NewIndex(queries []string, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return build(queries, cfg)
}

// NewIndexFromReader builds an Index from one query per line. Lines
// starting with '#' are comments.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return &index{cfg: cfg}, err
	}
	return build(lines, cfg), nil
}

func build(queries []string, cfg config) *index {
	entries := make([]entry, 0, len(queries))
	seen := make(map[string]struct{}, len(queries))
	for _, raw := range queries {
		t := strings.Join(strings.Fields(raw), " ")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, entry{text: t, tokens: toks})
		if cfg.maxEntries > 0 && len(entries) >= cfg.maxEntries {
			break
		}
	}
	return &index{cfg: cfg, entries: entries}
}

// All returns the indexed queries in insertion order.
func (i *index) All() []string {
	out := make([]string, len(i.entries))
	for n, e := range i.entries {
		out[n] = e.text
	}
	return out
}

// TopK returns up to k suggestions for input. A blank input returns the
// first k entries unscored, so a client can show defaults.
func (i *index) TopK(input string, k int) []Result {
	if len(i.entries) == 0 {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	if strings.TrimSpace(input) == "" {
		n := min(k, len(i.entries))
		out := make([]Result, n)
		for j := 0; j < n; j++ {
			out[j] = Result{Query: i.entries[j].text}
		}
		return out
	}
	q := tokenize(input, i.cfg.stopwords)
	if len(q) == 0 {
		return nil
	}

	type scored struct {
		text  string
		score float64
		runes int
	}
	buf := make([]scored, 0, len(i.entries))
	for _, e := range i.entries {
		over := overlap(q, e.tokens)
		if over == 0 {
			continue
		}
		union := float64(len(q) + len(e.tokens) - over)
		buf = append(buf, scored{text: e.text, score: float64(over) / union, runes: utf8.RuneCountInString(e.text)})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].runes != buf[b].runes {
			return buf[a].runes < buf[b].runes
		}
		return buf[a].text < buf[b].text
	})

	k = min(k, len(buf))
	out := make([]Result, k)
	for j := 0; j < k; j++ {
		out[j] = Result{Query: buf[j].text, Score: buf[j].score}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
