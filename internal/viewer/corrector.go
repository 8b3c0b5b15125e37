package viewer

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sharetube/watchtogether/internal/domain"
)

type State int

const (
	StateIdle State = iota
	StateApplyingRemote
	StateSoftAdjusting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateApplyingRemote:
		return "applying_remote"
	case StateSoftAdjusting:
		return "soft_adjusting"
	}

	return "unknown"
}

type CorrectorConfig struct {
	// HardTolerance is the drift in seconds above which soft adjust snaps instead of nudging.
	HardTolerance float64
	// SoftTolerance is the drift in seconds that is left alone.
	SoftTolerance float64
	// PauseSeekTolerance is the drift in seconds that a paused player is seeked past.
	PauseSeekTolerance float64
	// FinalTolerance is checked when the adjust window ends; anything above it snaps.
	FinalTolerance float64
	AdjustWindow   time.Duration
	FastRate       float64
	SlowRate       float64
	// SuppressWindow is how long local player events are swallowed after a remote change.
	SuppressWindow time.Duration
}

func DefaultCorrectorConfig() CorrectorConfig {
	return CorrectorConfig{
		HardTolerance:      0.6,
		SoftTolerance:      0.15,
		PauseSeekTolerance: 0.5,
		FinalTolerance:     0.2,
		AdjustWindow:       2000 * time.Millisecond,
		FastRate:           1.05,
		SlowRate:           0.95,
		SuppressWindow:     120 * time.Millisecond,
	}
}

// Corrector converges the local player onto the position remote control events imply.
//
// Every programmatic change to the player happens while applying is set, so the player's
// own callbacks for that change are not sent back to the room. Timers carry the
// generation they were started with and do nothing once a newer one exists.
type Corrector struct {
	player Player
	clock  clock.Clock
	cfg    CorrectorConfig
	logger *slog.Logger

	applying atomic.Bool

	mu          sync.Mutex
	offset      float64
	applyGen    uint64
	applyTimer  *clock.Timer
	adjusting   bool
	adjustGen   uint64
	adjustTimer *clock.Timer
}

func NewCorrector(player Player, clk clock.Clock, cfg CorrectorConfig, logger *slog.Logger) *Corrector {
	return &Corrector{
		player: player,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Corrector) SetOffset(offset float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offset = offset
}

func (c *Corrector) Offset() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.offset
}

func (c *Corrector) State() State {
	if c.applying.Load() {
		return StateApplyingRemote
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adjusting {
		return StateSoftAdjusting
	}

	return StateIdle
}

// ServerNow is the local clock mapped onto the server clock.
func (c *Corrector) ServerNow() float64 {
	return domain.EpochSeconds(c.clock.Now()) + c.Offset()
}

// Target is where the player should be now for an event: the event position plus the
// time since the sender stamped it, never negative.
func (c *Corrector) Target(event domain.PlaybackEvent) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.targetLocked(event)
}

func (c *Corrector) targetLocked(event domain.PlaybackEvent) float64 {
	now := domain.EpochSeconds(c.clock.Now())
	senderLocalTime := now
	if event.SentAt != 0 {
		senderLocalTime = event.SentAt - c.offset
	}

	return math.Max(0, event.At+(now-senderLocalTime))
}

// Apply handles a control event relayed from the room.
func (c *Corrector) Apply(event domain.PlaybackEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelAdjustLocked()
	c.enterApplyingLocked()

	target := c.targetLocked(event)
	current := c.player.Position()

	switch event.Type {
	case domain.PlaybackEventPause:
		if math.Abs(current-target) > c.cfg.PauseSeekTolerance {
			c.player.Seek(target)
		}
		c.player.Pause()
	case domain.PlaybackEventPlay:
		if c.player.Paused() {
			if math.Abs(current-target) > c.cfg.PauseSeekTolerance {
				c.player.Seek(target)
			}
			c.player.Play()
		} else {
			c.softAdjustLocked(target)
		}
	case domain.PlaybackEventSeek:
		c.player.Seek(target)
		if !c.player.Paused() {
			c.softAdjustLocked(target)
		}
	default:
		c.logger.Debug("unknown control ignored", "type", event.Type)
		return
	}

	c.logger.Debug("control applied", "type", event.Type, "target", target, "from", current, "position", c.player.Position(), "rate", c.player.Rate())
}

// SoftAdjustTo converges onto target by rate change, snapping only when the drift is
// too large to close within the adjust window.
func (c *Corrector) SoftAdjustTo(target float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelAdjustLocked()
	c.enterApplyingLocked()
	c.softAdjustLocked(target)
}

func (c *Corrector) softAdjustLocked(target float64) {
	current := c.player.Position()
	diff := target - current
	safeTarget := math.Max(0, target)

	if math.Abs(diff) > c.cfg.HardTolerance {
		c.player.Seek(safeTarget)
		c.player.SetRate(1)
		return
	}

	if math.Abs(diff) <= c.cfg.SoftTolerance {
		c.player.SetRate(1)
		return
	}

	if diff > 0 {
		c.player.SetRate(c.cfg.FastRate)
	} else {
		c.player.SetRate(c.cfg.SlowRate)
	}

	c.adjusting = true
	c.adjustGen++
	gen := c.adjustGen
	startedAt := c.clock.Now()
	c.adjustTimer = c.clock.AfterFunc(c.cfg.AdjustWindow, func() {
		c.finishAdjust(gen, safeTarget, startedAt)
	})
}

// finishAdjust ends a nudge. The target keeps moving while playing, so it is compared
// against where the target is now rather than where it was when the nudge started.
func (c *Corrector) finishAdjust(gen uint64, target float64, startedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.adjustGen || !c.adjusting {
		return
	}
	c.adjusting = false
	c.adjustTimer = nil

	expected := target
	if !c.player.Paused() {
		expected += c.clock.Since(startedAt).Seconds()
	}

	if math.Abs(c.player.Position()-expected) > c.cfg.FinalTolerance {
		c.enterApplyingLocked()
		c.player.Seek(expected)
	}
	c.player.SetRate(1)
}

// CancelAdjust stops an in-flight nudge and restores normal rate.
func (c *Corrector) CancelAdjust() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelAdjustLocked()
}

func (c *Corrector) cancelAdjustLocked() {
	if c.adjustTimer != nil {
		c.adjustTimer.Stop()
		c.adjustTimer = nil
	}
	c.adjustGen++
	c.adjusting = false
	c.player.SetRate(1)
}

func (c *Corrector) enterApplyingLocked() {
	c.applying.Store(true)
	c.applyGen++
	gen := c.applyGen

	if c.applyTimer != nil {
		c.applyTimer.Stop()
	}
	c.applyTimer = c.clock.AfterFunc(c.cfg.SuppressWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if gen == c.applyGen {
			c.applying.Store(false)
			c.applyTimer = nil
		}
	})
}

// OnLocalEvent reports whether a player event should be sent to the room. Events caused
// by applying remote changes are swallowed; a local seek cancels any nudge in flight.
func (c *Corrector) OnLocalEvent(t domain.PlaybackEventType) bool {
	if c.applying.Load() {
		return false
	}

	if t == domain.PlaybackEventSeek {
		c.CancelAdjust()
	}

	return true
}
