package domain

import "time"

type PlaybackEventType string

const (
	PlaybackEventPlay  PlaybackEventType = "play"
	PlaybackEventPause PlaybackEventType = "pause"
	PlaybackEventSeek  PlaybackEventType = "seek"
)

func (t PlaybackEventType) IsValid() bool {
	switch t {
	case PlaybackEventPlay, PlaybackEventPause, PlaybackEventSeek:
		return true
	}

	return false
}

// PlaybackEvent is relayed as sent: At is the position in the source on the sender.
type PlaybackEvent struct {
	Type PlaybackEventType `json:"type"`
	At   float64           `json:"at"`
	// SentAt is estimated server time in epoch seconds (sender local clock plus its
	// measured offset), 0 when the sender did not stamp it.
	SentAt float64 `json:"sent_at,omitempty"`
}

type ChatMessage struct {
	Text   string  `json:"text"`
	Name   string  `json:"name"`
	At     float64 `json:"at"`
	Avatar *string `json:"avatar"`
	From   string  `json:"from"`
}

// EpochSeconds converts t to fractional unix seconds, the unit every timestamp on the wire uses.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
