package viewer

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sharetube/watchtogether/internal/domain"
)

// Player is the local playback surface the corrector drives.
type Player interface {
	Position() float64
	Seek(position float64)
	Play()
	Pause()
	Paused() bool
	SetRate(rate float64)
	Rate() float64
}

// SourceSetter is implemented by players that can switch media.
type SourceSetter interface {
	SetSource(url string)
}

// EventSource is implemented by players that report play, pause and seek, whether the
// user or the program caused them.
type EventSource interface {
	OnEvent(fn func(domain.PlaybackEventType))
}

// SimPlayer is a clock driven player without media. Position advances at rate while playing.
type SimPlayer struct {
	clock clock.Clock

	mu       sync.Mutex
	source   string
	base     float64
	anchor   time.Time
	paused   bool
	rate     float64
	listener func(domain.PlaybackEventType)
}

func NewSimPlayer(clk clock.Clock) *SimPlayer {
	return &SimPlayer{
		clock:  clk,
		anchor: clk.Now(),
		paused: true,
		rate:   1,
	}
}

func (p *SimPlayer) OnEvent(fn func(domain.PlaybackEventType)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.listener = fn
}

func (p *SimPlayer) emit(t domain.PlaybackEventType) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()

	if fn != nil {
		fn(t)
	}
}

func (p *SimPlayer) positionLocked(now time.Time) float64 {
	if p.paused {
		return p.base
	}

	return p.base + now.Sub(p.anchor).Seconds()*p.rate
}

// rebaseLocked folds elapsed playback into base so rate or state can change.
func (p *SimPlayer) rebaseLocked() {
	now := p.clock.Now()
	p.base = p.positionLocked(now)
	p.anchor = now
}

func (p *SimPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.positionLocked(p.clock.Now())
}

func (p *SimPlayer) Seek(position float64) {
	p.mu.Lock()
	p.base = max(0, position)
	p.anchor = p.clock.Now()
	p.mu.Unlock()

	p.emit(domain.PlaybackEventSeek)
}

func (p *SimPlayer) Play() {
	p.mu.Lock()
	if !p.paused {
		p.mu.Unlock()
		return
	}
	p.rebaseLocked()
	p.paused = false
	p.mu.Unlock()

	p.emit(domain.PlaybackEventPlay)
}

func (p *SimPlayer) Pause() {
	p.mu.Lock()
	if p.paused {
		p.mu.Unlock()
		return
	}
	p.rebaseLocked()
	p.paused = true
	p.mu.Unlock()

	p.emit(domain.PlaybackEventPause)
}

func (p *SimPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.paused
}

func (p *SimPlayer) SetRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rebaseLocked()
	p.rate = rate
}

func (p *SimPlayer) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.rate
}

// SetSource loads new media: position 0, paused, normal rate.
func (p *SimPlayer) SetSource(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.source = url
	p.base = 0
	p.anchor = p.clock.Now()
	p.paused = true
	p.rate = 1
}

func (p *SimPlayer) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.source
}
