package scoring

import (
	"context"
	"math"

	"github.com/gartstein/companyrisk/internal/company/metrics"
	"github.com/gartstein/companyrisk/internal/company/models"
	"go.uber.org/zap"
)

// CorporateOfficerScore is contributed by corporate directors and
// secretaries, which are not natural persons.
const CorporateOfficerScore = 0.0

// PersonScorer scores a single person.
type PersonScorer interface {
	Evaluate(ctx context.Context, s models.Scoreable, extraSearchTerm string) Result
}

// Aggregator computes group scores for a company. Persons are scored one
// at a time; it is not safe to aggregate the same company concurrently.
type Aggregator struct {
	scorer  PersonScorer
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAggregator constructs an Aggregator.
func NewAggregator(scorer PersonScorer, logger *zap.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		scorer:  scorer,
		logger:  logger.Named("score_aggregator"),
		metrics: m,
	}
}

// Score runs officer then PSC aggregation.
func (a *Aggregator) Score(ctx context.Context, c *models.Company) {
	a.AggregateOfficers(ctx, c)
	a.AggregatePSCs(ctx, c)
}

// AggregateOfficers scores directors and secretaries, gives corporate
// officers the default score and ignores every other role. The mean is
// stored under the "officers" summary key; with no contributing officer
// it returns 0 and leaves the key unset.
func (a *Aggregator) AggregateOfficers(ctx context.Context, c *models.Company) float64 {
	var scores []float64
	for _, o := range c.Officers {
		switch {
		case o.Role.IsNaturalPersonRole():
			scores = append(scores, a.scorePerson(ctx, models.GroupOfficers, o, c.Name))
		case o.Role.IsCorporateRole():
			a.trace(models.GroupOfficers, &o.Person, CorporateOfficerScore, nil)
			scores = append(scores, CorporateOfficerScore)
		default:
			a.logger.Debug("Officer role excluded from scoring",
				zap.String("name", o.Name),
				zap.String("role", string(o.Role)),
			)
		}
	}
	return a.store(c, models.GroupOfficers, scores)
}

// AggregatePSCs scores every person with significant control and stores
// the mean under the "pscs" summary key. With no PSCs it returns 0 and
// leaves the key unset.
func (a *Aggregator) AggregatePSCs(ctx context.Context, c *models.Company) float64 {
	var scores []float64
	for _, p := range c.PSCs {
		scores = append(scores, a.scorePerson(ctx, models.GroupPSCs, p, c.Name))
	}
	return a.store(c, models.GroupPSCs, scores)
}

func (a *Aggregator) scorePerson(ctx context.Context, group string, s models.Scoreable, companyName string) float64 {
	res := a.scorer.Evaluate(ctx, s, companyName)
	p := s.Subject()
	p.ApplyScore(res.Score, res.RedFlags)
	a.metrics.ObservePerson(group, res.Score)
	a.trace(group, p, res.Score, res.RedFlags)
	return res.Score
}

func (a *Aggregator) store(c *models.Company, group string, scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	mean := Mean(scores)
	c.SetSummaryScore(group, mean)
	a.logger.Info("Group scored",
		zap.String("company_number", c.CompanyNumber),
		zap.String("group", group),
		zap.Int("members", len(scores)),
		zap.Float64("score", mean),
	)
	return mean
}

func (a *Aggregator) trace(group string, p *models.Person, score float64, redFlags []string) {
	fields := []zap.Field{
		zap.String("group", group),
		zap.String("name", p.Name),
		zap.Float64("score", Round2(score)),
	}
	if len(redFlags) > 0 {
		fields = append(fields, zap.Strings("red_flags", redFlags))
	}
	a.logger.Info("Person scored", fields...)
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
