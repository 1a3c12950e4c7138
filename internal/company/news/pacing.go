package news

import (
	"context"
	"math/rand"
	"time"
)

// DefaultMaxPacing bounds the random delay taken before each search call.
const DefaultMaxPacing = 2 * time.Second

// PacedSearcher waits a random delay in [0, maxDelay) before every call to
// the wrapped searcher. It belongs below any cache so that cache hits are
// served without the delay.
type PacedSearcher struct {
	next     Searcher
	maxDelay time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPacedSearcher wraps next. A non-positive maxDelay disables pacing.
func NewPacedSearcher(next Searcher, maxDelay time.Duration) *PacedSearcher {
	return &PacedSearcher{
		next:     next,
		maxDelay: maxDelay,
		sleep:    sleepContext,
	}
}

func (p *PacedSearcher) Search(ctx context.Context, query string, windowYears int) ([]string, error) {
	if p.maxDelay > 0 {
		d := time.Duration(rand.Int63n(int64(p.maxDelay)))
		if err := p.sleep(ctx, d); err != nil {
			return nil, err
		}
	}
	return p.next.Search(ctx, query, windowYears)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
