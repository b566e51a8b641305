package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/llm"
	"github.com/tbourn/go-dealer-assistant/internal/records"
)

// ApologyMessage is returned when nothing useful could be composed.
const ApologyMessage = "I'm sorry, I encountered an error while processing your request. Please try again."

// DefaultContextBudget bounds the digest sent to the remote model, in runes.
const DefaultContextBudget = 2000

// Source tells where a reply came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Result holds the records fetched for one query.
type Result struct {
	Intent Intent
	SKUs   []domain.SKU
	Claims []domain.Claim
	Sales  []domain.Sale

	// Failed lists the kinds whose fetch returned an error; they are
	// present above as empty slices.
	Failed []records.Kind
	// Err joins the fetch errors, each wrapping ErrStorageUnavailable.
	Err error
}

// Len is the number of records across all kinds.
func (r Result) Len() int { return len(r.SKUs) + len(r.Claims) + len(r.Sales) }

// Counts summarizes a Result for logging and metrics.
type Counts struct {
	SKUs   int `json:"skus"`
	Claims int `json:"claims"`
	Sales  int `json:"sales"`
}

// Outcome describes how a reply was produced. Err is nil on the happy path
// and otherwise joins one or more of the package's error kinds.
type Outcome struct {
	Intent Intent
	Source Source
	Counts Counts
	// Failed lists the kinds whose fetch failed.
	Failed []records.Kind
	Err    error
}

// Composer turns a query into a reply. Remote and Creds may be nil, in
// which case every reply is local.
type Composer struct {
	Store         records.Store
	Summarizer    *Summarizer
	Remote        llm.Completer
	Creds         *llm.Credentials
	ContextBudget int
}

// NewComposer wires a composer with the default context budget.
func NewComposer(store records.Store, sum *Summarizer, remote llm.Completer, creds *llm.Credentials) *Composer {
	if sum == nil {
		sum = NewSummarizer("")
	}
	return &Composer{
		Store:         store,
		Summarizer:    sum,
		Remote:        remote,
		Creds:         creds,
		ContextBudget: DefaultContextBudget,
	}
}

// Compose answers query for a user with role. It never fails: errors are
// absorbed into the reply text and recorded on the Outcome.
func (c *Composer) Compose(ctx context.Context, role, query string) (reply string, out Outcome) {
	out.Intent = Classify(query)
	out.Source = SourceLocal
	lg := zerolog.Ctx(ctx)

	defer func() {
		if r := recover(); r != nil {
			lg.Error().Interface("panic", r).Str("intent", string(out.Intent)).Msg("assistant: compose panicked")
			reply = ApologyMessage
			out.Source = SourceLocal
			out.Err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	res := c.FetchByIntent(ctx, out.Intent, query, 0)
	out.Counts = Counts{SKUs: len(res.SKUs), Claims: len(res.Claims), Sales: len(res.Sales)}
	out.Failed = res.Failed

	var errs []error
	if res.Err != nil {
		lg.Warn().Err(res.Err).Str("intent", string(out.Intent)).Msg("assistant: record fetch failed")
		errs = append(errs, res.Err)
	}

	if out.Intent == IntentGeneral && len(res.Failed) == 3 {
		out.Err = errors.Join(errs...)
		return ApologyMessage, out
	}
	if out.Intent != IntentGeneral && res.Len() == 0 {
		errs = append(errs, ErrNotFound)
	}

	local := c.LocalReply(role, query, res)

	if key := c.credential(); key != "" && c.Remote != nil {
		system := SystemPrompt(role, Truncate(c.Summarizer.Digest(res), c.budget()))
		text, err := c.Remote.Complete(ctx, key, system, query)
		if err == nil && text != "" {
			out.Source = SourceRemote
			out.Err = errors.Join(errs...)
			return Personalize(role, text), out
		}
		if err == nil {
			err = llm.ErrEmptyResponse
		}
		lg.Warn().Err(err).Str("intent", string(out.Intent)).Msg("assistant: remote model unavailable, using local reply")
		errs = append(errs, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err))
	}

	out.Err = errors.Join(errs...)
	return local, out
}

// LocalReply renders the templated reply for res. It is a pure function of
// its inputs.
func (c *Composer) LocalReply(role, query string, res Result) string {
	if res.Intent != IntentGeneral && res.Len() == 0 {
		return NotFoundMessage(res.Intent, query)
	}
	digest := c.Summarizer.Digest(res)
	var body string
	switch res.Intent {
	case IntentSKU:
		body = fmt.Sprintf("Here are the SKUs I found for \"%s\":\n\n%s", query, digest)
	case IntentClaim:
		body = fmt.Sprintf("Here are the claims matching \"%s\":\n\n%s", query, digest)
	case IntentSale:
		body = "Here are the recent sales data:\n\n" + digest
	default:
		body = "Here's what I found in your data:\n\n" + digest
	}
	return Personalize(role, body)
}

// NotFoundMessage is the reply for a classified query with no matches.
func NotFoundMessage(intent Intent, query string) string {
	return fmt.Sprintf("I couldn't find any %s data matching your query \"%s\". Please try different search terms or check if you have the right permissions to access this data.", intent, query)
}

// FetchByIntent loads the records for intent. A non-positive limit uses
// records.LimitIntent for classified intents and records.LimitGeneral per
// kind for the general overview. Fetch errors never abort the call; the
// affected kind comes back empty and is listed in Result.Failed. An unknown
// intent is treated as general.
func (c *Composer) FetchByIntent(ctx context.Context, intent Intent, query string, limit int) Result {
	if !intent.Valid() {
		intent = IntentGeneral
	}
	res := Result{Intent: intent}
	terms := SearchTerms(query)

	switch intent {
	case IntentSKU:
		if limit <= 0 {
			limit = records.LimitIntent
		}
		var err error
		res.SKUs, err = c.Store.SearchSKUs(ctx, records.NewFilter(records.KindSKU, terms, limit))
		res.fail(records.KindSKU, err)
	case IntentClaim:
		if limit <= 0 {
			limit = records.LimitIntent
		}
		var err error
		res.Claims, err = c.Store.SearchClaims(ctx, records.NewFilter(records.KindClaim, terms, limit))
		res.fail(records.KindClaim, err)
	case IntentSale:
		if limit <= 0 {
			limit = records.LimitIntent
		}
		var err error
		res.Sales, err = c.Store.SearchSales(ctx, records.NewFilter(records.KindSale, terms, limit))
		res.fail(records.KindSale, err)
	default:
		if limit <= 0 {
			limit = records.LimitGeneral
		}
		c.fetchOverview(ctx, limit, &res)
	}
	return res
}

// fetchOverview samples each kind concurrently. The overview is a sample,
// so query terms are not applied. Branches report their own errors and
// always return nil to the group, so one failure never cancels the others.
func (c *Composer) fetchOverview(ctx context.Context, limit int, res *Result) {
	var g errgroup.Group
	var skuErr, claimErr, saleErr error
	g.Go(func() error {
		res.SKUs, skuErr = c.Store.SearchSKUs(ctx, records.NewFilter(records.KindSKU, nil, limit))
		return nil
	})
	g.Go(func() error {
		res.Claims, claimErr = c.Store.SearchClaims(ctx, records.NewFilter(records.KindClaim, nil, limit))
		return nil
	})
	g.Go(func() error {
		res.Sales, saleErr = c.Store.SearchSales(ctx, records.NewFilter(records.KindSale, nil, limit))
		return nil
	})
	_ = g.Wait()

	res.fail(records.KindSKU, skuErr)
	res.fail(records.KindClaim, claimErr)
	res.fail(records.KindSale, saleErr)
}

func (r *Result) fail(kind records.Kind, err error) {
	if err == nil {
		return
	}
	switch kind {
	case records.KindSKU:
		r.SKUs = nil
	case records.KindClaim:
		r.Claims = nil
	case records.KindSale:
		r.Sales = nil
	}
	r.Failed = append(r.Failed, kind)
	r.Err = errors.Join(r.Err, fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, kind, err))
}

func (c *Composer) credential() string {
	if c.Creds == nil {
		return ""
	}
	return c.Creds.Get()
}

func (c *Composer) budget() int {
	if c.ContextBudget <= 0 {
		return DefaultContextBudget
	}
	return c.ContextBudget
}
