package viewer

import (
	"testing"
	"time"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSimPlayer(t *testing.T) {
	t.Run("position advances only while playing", func(t *testing.T) {
		mock := newMockClock()
		p := NewSimPlayer(mock)
		assert.True(t, p.Paused())

		mock.Add(time.Second)
		assert.Equal(t, 0.0, p.Position())

		p.Play()
		mock.Add(3 * time.Second)
		assert.InDelta(t, 3, p.Position(), 1e-9)

		p.Pause()
		mock.Add(time.Second)
		assert.InDelta(t, 3, p.Position(), 1e-9)
	})

	t.Run("rate scales progress", func(t *testing.T) {
		mock := newMockClock()
		p := NewSimPlayer(mock)
		p.Play()
		mock.Add(time.Second)

		p.SetRate(2)
		mock.Add(time.Second)
		assert.InDelta(t, 3, p.Position(), 1e-9)
		assert.Equal(t, 2.0, p.Rate())
	})

	t.Run("events report state changes only", func(t *testing.T) {
		mock := newMockClock()
		p := NewSimPlayer(mock)
		rec := &recorder{}
		p.OnEvent(rec.add)

		p.Pause()
		p.Play()
		p.Play()
		p.Seek(-4)
		p.SetRate(1.05)

		assert.Equal(t, []domain.PlaybackEventType{domain.PlaybackEventPlay, domain.PlaybackEventSeek}, rec.list())
		assert.Equal(t, 0.0, p.Position())
	})

	t.Run("new source resets playback", func(t *testing.T) {
		mock := newMockClock()
		p := NewSimPlayer(mock)
		p.Seek(30)
		p.Play()
		p.SetRate(0.95)

		p.SetSource("https://example.com/b.mp4")
		assert.Equal(t, "https://example.com/b.mp4", p.Source())
		assert.True(t, p.Paused())
		assert.Equal(t, 0.0, p.Position())
		assert.Equal(t, 1.0, p.Rate())
	})
}
