package viewer

import (
	"context"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/sharetube/watchtogether/internal/domain"
)

const (
	DefaultSyncRounds = 4

	offsetKeep = 0.6
	offsetTake = 0.4
)

// Prober sends one time probe and returns the server time from the reply.
type Prober interface {
	Probe(ctx context.Context, clientSentAt float64) (float64, error)
}

// ClockSync estimates offset such that serverTime = localTime + offset.
type ClockSync struct {
	prober Prober
	clock  clock.Clock
	rounds int
	logger *slog.Logger
}

func NewClockSync(prober Prober, clk clock.Clock, rounds int, logger *slog.Logger) *ClockSync {
	if rounds <= 0 {
		rounds = DefaultSyncRounds
	}

	return &ClockSync{
		prober: prober,
		clock:  clk,
		rounds: rounds,
		logger: logger,
	}
}

// Estimate runs the probe rounds and returns the smoothed offset with the number of
// rounds that completed. A failed or cancelled probe ends the estimation early; the
// offset gathered so far is kept, 0 when no round completed.
func (c *ClockSync) Estimate(ctx context.Context) (float64, int) {
	var offset float64
	for i := 0; i < c.rounds; i++ {
		t0 := domain.EpochSeconds(c.clock.Now())
		serverTime, err := c.prober.Probe(ctx, t0)
		if err != nil {
			c.logger.WarnContext(ctx, "clock sync stopped", "round", i, "offset", offset, "error", err)
			return offset, i
		}
		t1 := domain.EpochSeconds(c.clock.Now())

		rtt := t1 - t0
		estimated := serverTime - (t0 + rtt/2)
		if i == 0 {
			offset = estimated
		} else {
			offset = offset*offsetKeep + estimated*offsetTake
		}

		c.logger.DebugContext(ctx, "clock sync round", "round", i, "rtt", rtt, "estimated", estimated, "offset", offset)
	}

	return offset, c.rounds
}
