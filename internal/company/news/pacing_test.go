package news

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func recordDelays(p *PacedSearcher) *[]time.Duration {
	delays := &[]time.Duration{}
	p.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return delays
}

func TestPacedSearcher_DelayWithinBound(t *testing.T) {
	next := &countingSearcher{headlines: []string{"a"}}
	paced := NewPacedSearcher(next, time.Second)
	delays := recordDelays(paced)

	for i := 0; i < 5; i++ {
		got, err := paced.Search(context.Background(), `"John Smith"`, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, got)
	}

	require.Len(t, *delays, 5)
	for _, d := range *delays {
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, time.Second)
	}
	assert.Equal(t, 5, next.calls)
}

func TestPacedSearcher_Disabled(t *testing.T) {
	for _, maxDelay := range []time.Duration{0, -time.Second} {
		next := &countingSearcher{}
		paced := NewPacedSearcher(next, maxDelay)
		delays := recordDelays(paced)

		_, err := paced.Search(context.Background(), "q", 10)
		require.NoError(t, err)

		assert.Empty(t, *delays)
		assert.Equal(t, 1, next.calls)
	}
}

func TestPacedSearcher_CancelledDuringDelay(t *testing.T) {
	next := &countingSearcher{}
	paced := NewPacedSearcher(next, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := paced.Search(ctx, "q", 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, next.calls)
}

func TestCachedSearcher_HitSkipsPacing(t *testing.T) {
	next := &countingSearcher{headlines: []string{"a"}}
	paced := NewPacedSearcher(next, time.Second)
	delays := recordDelays(paced)
	cache := NewCachedSearcher(paced, newFakeRedis(), time.Hour, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		_, err := cache.Search(context.Background(), `"John Smith"`, 10)
		require.NoError(t, err)
	}

	assert.Len(t, *delays, 1)
	assert.Equal(t, 1, next.calls)
}
