package viewer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockClock() *clock.Mock {
	mock := clock.NewMock()
	mock.Set(time.Unix(1_700_000_000, 0))

	return mock
}

// scriptedProber answers with a fixed offset per round and a symmetric round trip.
type scriptedProber struct {
	clock   *clock.Mock
	rtt     time.Duration
	offsets []float64
	failAt  int
	calls   int
}

func (p *scriptedProber) Probe(_ context.Context, clientSentAt float64) (float64, error) {
	defer func() { p.calls++ }()
	if p.failAt > 0 && p.calls == p.failAt {
		return 0, errors.New("connection lost")
	}

	p.clock.Add(p.rtt)
	offset := p.offsets[p.calls%len(p.offsets)]

	return clientSentAt + p.rtt.Seconds()/2 + offset, nil
}

func TestClockSync_Estimate(t *testing.T) {
	t.Run("zero latency and no skew", func(t *testing.T) {
		mock := newMockClock()
		prober := &scriptedProber{clock: mock, offsets: []float64{0}}

		offset, rounds := NewClockSync(prober, mock, 4, discardLogger()).Estimate(context.Background())
		assert.Equal(t, 4, rounds)
		assert.InDelta(t, 0, offset, 1e-5)
	})

	t.Run("symmetric latency is cancelled out", func(t *testing.T) {
		mock := newMockClock()
		prober := &scriptedProber{clock: mock, rtt: 80 * time.Millisecond, offsets: []float64{2.5}}

		offset, rounds := NewClockSync(prober, mock, 4, discardLogger()).Estimate(context.Background())
		assert.Equal(t, 4, rounds)
		assert.InDelta(t, 2.5, offset, 1e-5)
	})

	t.Run("rounds are smoothed", func(t *testing.T) {
		mock := newMockClock()
		prober := &scriptedProber{clock: mock, offsets: []float64{1, 2, 2, 2}}

		offset, _ := NewClockSync(prober, mock, 4, discardLogger()).Estimate(context.Background())
		assert.InDelta(t, 1.784, offset, 1e-4)
	})

	t.Run("failure keeps partial estimate", func(t *testing.T) {
		mock := newMockClock()
		prober := &scriptedProber{clock: mock, offsets: []float64{1, 2}, failAt: 2}

		offset, rounds := NewClockSync(prober, mock, 4, discardLogger()).Estimate(context.Background())
		assert.Equal(t, 2, rounds)
		assert.InDelta(t, 1.4, offset, 1e-4)
	})

	t.Run("failure on first round gives zero", func(t *testing.T) {
		mock := newMockClock()

		offset, rounds := NewClockSync(failingProber{}, mock, 4, discardLogger()).Estimate(context.Background())
		assert.Equal(t, 0, rounds)
		assert.Zero(t, offset)
	})

	t.Run("non-positive rounds fall back to default", func(t *testing.T) {
		mock := newMockClock()
		prober := &scriptedProber{clock: mock, offsets: []float64{0}}

		_, rounds := NewClockSync(prober, mock, 0, discardLogger()).Estimate(context.Background())
		require.Equal(t, DefaultSyncRounds, rounds)
		assert.Equal(t, DefaultSyncRounds, prober.calls)
	})
}

type failingProber struct{}

func (failingProber) Probe(context.Context, float64) (float64, error) {
	return 0, context.DeadlineExceeded
}
