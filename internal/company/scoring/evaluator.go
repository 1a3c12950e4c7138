// Package scoring implements the person risk evaluator and the company
// score aggregator.
package scoring

import (
	"context"
	"errors"
	"strings"
	"time"

	e "github.com/gartstein/companyrisk/internal/company/errors"
	"github.com/gartstein/companyrisk/internal/company/metrics"
	"github.com/gartstein/companyrisk/internal/company/models"
	"github.com/gartstein/companyrisk/internal/company/refdata"
	"go.uber.org/zap"
)

// Red flag descriptions attached to scored persons.
const (
	FlagDisqualified = "individual is a disqualified director"
	FlagFakeName     = "individual names found in list of fake / generic names"
	FlagNewsMentions = "news mentions of the individual"
	FlagNationality  = "country of nationality in red flag countries"
	FlagResidence    = "country of residence in red flag countries"
	FlagUnder18      = "individual below 18"
	FlagOver70       = "individual above 70"
)

// DisqualifiedScore is the score of a disqualified director.
const DisqualifiedScore = 100.0

const (
	minAge = 18
	maxAge = 70

	DefaultNewsWindowYears = 10
	DefaultNewsTimeout     = 15 * time.Second
)

// NewsSearcher finds news headlines matching a query within a trailing
// window. An empty result is not an error.
type NewsSearcher interface {
	Search(ctx context.Context, query string, windowYears int) ([]string, error)
}

// DisqualificationChecker looks a person up in a register of disqualified
// directors.
type DisqualificationChecker interface {
	IsDisqualified(ctx context.Context, p *models.Person) (bool, error)
}

// NoDisqualifications is the checker used until a register source is
// wired in; it never reports a disqualification.
type NoDisqualifications struct{}

func (NoDisqualifications) IsDisqualified(context.Context, *models.Person) (bool, error) {
	return false, nil
}

// Result is the outcome of scoring one person.
type Result struct {
	Score    float64
	RedFlags []string
	// Disqualified is set when the disqualification override applied.
	Disqualified bool
	// AgeUnknown is set when no birth year was available, which is kept
	// apart from an out-of-range age and does not add to the score.
	AgeUnknown bool
}

// Options tunes an Evaluator. Zero values select the defaults.
type Options struct {
	NewsWindowYears   int
	NewsTimeout       time.Duration
	Now               func() time.Time
	Disqualifications DisqualificationChecker
	Metrics           *metrics.Metrics
}

// Evaluator scores individual persons against the reference data.
type Evaluator struct {
	ref     *refdata.Store
	news    NewsSearcher
	disq    DisqualificationChecker
	logger  *zap.Logger
	metrics *metrics.Metrics

	windowYears int
	newsTimeout time.Duration
	now         func() time.Time
}

// NewEvaluator constructs an Evaluator. news may be nil, in which case the
// news check never triggers.
func NewEvaluator(ref *refdata.Store, news NewsSearcher, logger *zap.Logger, opts Options) *Evaluator {
	ev := &Evaluator{
		ref:         ref,
		news:        news,
		disq:        opts.Disqualifications,
		logger:      logger.Named("person_evaluator"),
		metrics:     opts.Metrics,
		windowYears: opts.NewsWindowYears,
		newsTimeout: opts.NewsTimeout,
		now:         opts.Now,
	}
	if ev.disq == nil {
		ev.disq = NoDisqualifications{}
	}
	if ev.windowYears <= 0 {
		ev.windowYears = DefaultNewsWindowYears
	}
	if ev.newsTimeout <= 0 {
		ev.newsTimeout = DefaultNewsTimeout
	}
	if ev.now == nil {
		ev.now = time.Now
	}
	return ev
}

// Evaluate scores a person. The person record is not modified; callers
// persist the result with Person.ApplyScore.
func (ev *Evaluator) Evaluate(ctx context.Context, s models.Scoreable, extraSearchTerm string) Result {
	p := s.Subject()

	disqualified, err := ev.disq.IsDisqualified(ctx, p)
	if err != nil {
		ev.logger.Warn("Disqualification lookup failed, treating as not disqualified",
			zap.Error(err),
			zap.String("name", p.Name),
		)
	}
	if disqualified {
		ev.metrics.IncrementRedFlag("disqualified")
		return Result{
			Score:        DisqualifiedScore,
			RedFlags:     []string{FlagDisqualified},
			Disqualified: true,
		}
	}

	res := Result{RedFlags: []string{}}
	add := func(check refdata.Check, flag string) {
		res.Score += 100 * ev.ref.Weight(check)
		res.RedFlags = append(res.RedFlags, flag)
		ev.metrics.IncrementRedFlag(string(check))
	}

	if ev.nameFlag(p) {
		add(refdata.CheckName, FlagFakeName)
	}
	if ev.newsMentionsFlag(ctx, p, extraSearchTerm) {
		add(refdata.CheckNewsMention, FlagNewsMentions)
	}
	if ev.ref.IsRedFlagCountry(p.Nationality) {
		add(refdata.CheckNationality, FlagNationality)
	}
	if ev.ref.IsRedFlagCountry(p.CountryOfResidence) {
		add(refdata.CheckResidence, FlagResidence)
	}

	if p.DOBYear == nil {
		res.AgeUnknown = true
	} else {
		age := ev.now().Year() - *p.DOBYear
		switch {
		case age < minAge:
			add(refdata.CheckAge, FlagUnder18)
		case age > maxAge:
			add(refdata.CheckAge, FlagOver70)
		}
	}

	return res
}

func (ev *Evaluator) nameFlag(p *models.Person) bool {
	if ev.ref.IsFakeName(p.Name) {
		return true
	}
	full := FullName(p)
	return full != "" && ev.ref.IsFakeName(full)
}

func (ev *Evaluator) newsMentionsFlag(ctx context.Context, p *models.Person, extraSearchTerm string) bool {
	if ev.news == nil {
		return false
	}
	query, ok := NewsQuery(p, extraSearchTerm)
	if !ok {
		ev.logger.Debug("Skipping news search, name not resolvable", zap.String("name", p.Name))
		return false
	}

	if ctx.Err() != nil {
		return false
	}

	searchCtx, cancel := context.WithTimeout(ctx, ev.newsTimeout)
	defer cancel()

	start := time.Now()
	headlines, err := ev.news.Search(searchCtx, query, ev.windowYears)
	if err != nil {
		ev.metrics.ObserveNewsSearch("error", time.Since(start))
		if !errors.Is(err, e.ErrSearchUnavailable) && !errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(e.ErrSearchUnavailable, err)
		}
		ev.logger.Warn("News search unavailable, news flag not raised",
			zap.Error(err),
			zap.String("query", query),
		)
		return false
	}

	distinct := countDistinct(headlines)
	outcome := "miss"
	if distinct > 0 {
		outcome = "hit"
	}
	ev.metrics.ObserveNewsSearch(outcome, time.Since(start))
	ev.logger.Debug("News search completed",
		zap.String("query", query),
		zap.Int("headlines", distinct),
	)
	return distinct > 0
}

// NewsQuery builds the exact-phrase query for a person, optionally AND-ed
// with a quoted extra term. ok is false when forename or surname cannot be
// resolved.
func NewsQuery(p *models.Person, extraSearchTerm string) (query string, ok bool) {
	full := FullName(p)
	if full == "" {
		return "", false
	}
	query = `"` + full + `"`
	if extra := strings.TrimSpace(extraSearchTerm); extra != "" {
		query += ` "` + extra + `"`
	}
	return query, true
}

func countDistinct(headlines []string) int {
	seen := make(map[string]struct{}, len(headlines))
	for _, h := range headlines {
		if h = strings.TrimSpace(h); h != "" {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}
