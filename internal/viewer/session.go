package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/pkg/ctxlogger"
	"golang.org/x/sync/errgroup"
)

var (
	ErrJoinFailed = errors.New("join failed")

	errConnClosed = errors.New("connection closed by server")
)

const (
	defaultStateWait = 3 * time.Second
	writeWait        = 10 * time.Second
)

type SessionConfig struct {
	ServerURL  string
	RoomId     string
	Name       string
	Password   *string
	Avatar     *string
	SyncRounds int
	// StateWait bounds how long the session waits for the host's state after syncing.
	StateWait time.Duration
	Corrector CorrectorConfig
}

// Session is one viewer's connection to a room.
type Session struct {
	cfg       SessionConfig
	conn      *websocket.Conn
	writeMu   sync.Mutex
	player    Player
	clock     clock.Clock
	corrector *Corrector
	clockSync *ClockSync
	logger    *slog.Logger

	timeResponses chan timeResponsePayload
	stateReady    chan struct{}
	stateOnce     sync.Once
	synced        chan struct{}

	mu           sync.RWMutex
	connId       string
	isHost       bool
	source       string
	queue        []domain.QueueItem
	participants []domain.Participant
	settings     settingsPayload
	chat         []domain.ChatMessage
}

func Dial(ctx context.Context, cfg SessionConfig, player Player, clk clock.Clock, logger *slog.Logger) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.ServerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.ServerURL, err)
	}

	if cfg.StateWait <= 0 {
		cfg.StateWait = defaultStateWait
	}
	if cfg.Corrector == (CorrectorConfig{}) {
		cfg.Corrector = DefaultCorrectorConfig()
	}

	s := &Session{
		cfg:           cfg,
		conn:          conn,
		player:        player,
		clock:         clk,
		corrector:     NewCorrector(player, clk, cfg.Corrector, logger),
		logger:        logger,
		timeResponses: make(chan timeResponsePayload, 1),
		stateReady:    make(chan struct{}),
		synced:        make(chan struct{}),
	}
	s.clockSync = NewClockSync(s, clk, cfg.SyncRounds, logger)

	if es, ok := player.(EventSource); ok {
		es.OnEvent(s.handleLocalEvent)
	}

	return s, nil
}

// Run joins the room and processes messages until ctx is done, the connection drops, or
// the join is refused.
func (s *Session) Run(ctx context.Context) error {
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", s.cfg.RoomId))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		_ = s.conn.Close()
		return nil
	})
	g.Go(func() error {
		return s.readLoop(gctx)
	})
	g.Go(func() error {
		return s.bootstrap(gctx)
	})

	err := g.Wait()
	if ctx.Err() != nil || errors.Is(err, errConnClosed) {
		return nil
	}

	return err
}

func (s *Session) bootstrap(ctx context.Context) error {
	if err := s.send(typeJoin, joinPayload{RoomId: s.cfg.RoomId, Password: s.cfg.Password}); err != nil {
		return err
	}
	if err := s.send(typeAnnounce, announcePayload{RoomId: s.cfg.RoomId, Name: s.cfg.Name, Avatar: s.cfg.Avatar}); err != nil {
		return err
	}
	if err := s.send(typeRequestQueue, roomPayload{RoomId: s.cfg.RoomId}); err != nil {
		return err
	}

	offset, rounds := s.clockSync.Estimate(ctx)
	s.corrector.SetOffset(offset)
	close(s.synced)
	s.logger.InfoContext(ctx, "clock synced", "offset", offset, "rounds", rounds)

	timer := s.clock.Timer(s.cfg.StateWait)
	defer timer.Stop()

	select {
	case <-s.stateReady:
		s.logger.DebugContext(ctx, "initial state received")
	case <-timer.C:
		s.logger.InfoContext(ctx, "no initial state received", "waited", s.cfg.StateWait)
	case <-ctx.Done():
	}

	return nil
}

// Probe implements Prober over the session connection.
func (s *Session) Probe(ctx context.Context, clientSentAt float64) (float64, error) {
	if err := s.send(typeTimeRequest, timeRequestPayload{ClientSentAt: clientSentAt}); err != nil {
		return 0, err
	}

	for {
		select {
		case resp := <-s.timeResponses:
			if resp.ClientSentAt != clientSentAt {
				// reply to an abandoned probe
				continue
			}
			return resp.ServerTime, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errConnClosed
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.WarnContext(ctx, "malformed message", "error", err)
			continue
		}

		if err := s.handle(ctxlogger.AppendCtx(ctx, slog.String("message_type", msg.Type)), msg); err != nil {
			return err
		}
	}
}

func (s *Session) handle(ctx context.Context, msg inbound) error {
	switch msg.Type {
	case typeConnected:
		var p connectedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.malformed(ctx, err)
		}
		s.mu.Lock()
		s.connId = p.ConnId
		s.mu.Unlock()
	case typeYouAreHost:
		s.mu.Lock()
		s.isHost = true
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "became host")
		s.markStateReady()
	case typeRequestState:
		var p requestStatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.malformed(ctx, err)
		}
		return s.sendState(ctx, p.To)
	case typeControl:
		var event domain.PlaybackEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return s.malformed(ctx, err)
		}
		s.corrector.Apply(event)
		s.markStateReady()
	case typeSetSource:
		var p setSourcePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.malformed(ctx, err)
		}
		s.mu.Lock()
		s.source = p.URL
		s.mu.Unlock()
		if setter, ok := s.player.(SourceSetter); ok {
			setter.SetSource(p.URL)
		}
	case typeQueueUpdated:
		var queue []domain.QueueItem
		if err := json.Unmarshal(msg.Payload, &queue); err != nil {
			return s.malformed(ctx, err)
		}
		s.mu.Lock()
		s.queue = queue
		s.mu.Unlock()
	case typeParticipants:
		var p participantsPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.malformed(ctx, err)
		}
		s.mu.Lock()
		s.participants = p.List
		s.mu.Unlock()
	case typeRoomSettings:
		var p settingsPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.malformed(ctx, err)
		}
		s.mu.Lock()
		s.settings = p
		s.mu.Unlock()
	case typeChatHistory:
		var history []domain.ChatMessage
		if err := json.Unmarshal(msg.Payload, &history); err != nil {
			return s.malformed(ctx, err)
		}
		s.mu.Lock()
		s.chat = history
		s.mu.Unlock()
	case typeChatMessage:
		var chatMsg domain.ChatMessage
		if err := json.Unmarshal(msg.Payload, &chatMsg); err != nil {
			return s.malformed(ctx, err)
		}
		s.mu.Lock()
		s.chat = append(s.chat, chatMsg)
		s.mu.Unlock()
	case typeJoinFailed:
		var p reasonPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.malformed(ctx, err)
		}
		return fmt.Errorf("%w: %s", ErrJoinFailed, p.Reason)
	case typeErrorMessage:
		var p errorPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.malformed(ctx, err)
		}
		s.logger.WarnContext(ctx, "server error", "message", p.Message)
	case typeTimeResponse:
		var p timeResponsePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.malformed(ctx, err)
		}
		select {
		case s.timeResponses <- p:
		default:
			s.logger.DebugContext(ctx, "unexpected time response dropped")
		}
	default:
		s.logger.DebugContext(ctx, "unhandled message")
	}

	return nil
}

func (s *Session) malformed(ctx context.Context, err error) error {
	s.logger.WarnContext(ctx, "malformed payload", "error", err)
	return nil
}

func (s *Session) markStateReady() {
	s.stateOnce.Do(func() {
		close(s.stateReady)
	})
}

func (s *Session) sendState(ctx context.Context, to string) error {
	if !s.IsHost() {
		s.logger.DebugContext(ctx, "state requested from non-host", "to", to)
		return nil
	}

	state := domain.PlaybackEvent{
		Type:   domain.PlaybackEventPlay,
		At:     s.player.Position(),
		SentAt: s.corrector.ServerNow(),
	}
	if s.player.Paused() {
		state.Type = domain.PlaybackEventPause
	}

	return s.send(typeSendStateTo, sendStateToPayload{To: to, State: state})
}

func (s *Session) handleLocalEvent(t domain.PlaybackEventType) {
	if !s.corrector.OnLocalEvent(t) {
		return
	}

	event := domain.PlaybackEvent{
		Type:   t,
		At:     s.player.Position(),
		SentAt: s.corrector.ServerNow(),
	}
	if err := s.send(typeControl, controlPayload{RoomId: s.cfg.RoomId, Msg: event}); err != nil {
		s.logger.Warn("failed to send control", "type", t, "error", err)
	}
}

func (s *Session) send(msgType string, payload any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(outbound{Type: msgType, Payload: payload}); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	return nil
}

func (s *Session) Enqueue(url, title string) error {
	return s.send(typeEnqueue, enqueuePayload{
		RoomId: s.cfg.RoomId,
		Item:   domain.QueueItem{URL: url, Title: title, UploadedBy: s.cfg.Name},
	})
}

func (s *Session) SetSource(url string) error {
	return s.send(typeSetSource, setSourcePayload{RoomId: s.cfg.RoomId, URL: url})
}

func (s *Session) Next() error {
	return s.send(typeNext, roomPayload{RoomId: s.cfg.RoomId})
}

func (s *Session) Chat(text string) error {
	return s.send(typeChatMessage, chatPayload{
		RoomId: s.cfg.RoomId,
		Text:   text,
		Name:   s.cfg.Name,
		At:     domain.EpochSeconds(s.clock.Now()),
		Avatar: s.cfg.Avatar,
	})
}

func (s *Session) Leave() error {
	return s.send(typeLeaveRoom, roomPayload{RoomId: s.cfg.RoomId})
}

func (s *Session) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)

	return s.conn.Close()
}

// Synced is closed once the clock offset is estimated.
func (s *Session) Synced() <-chan struct{} {
	return s.synced
}

func (s *Session) Corrector() *Corrector {
	return s.corrector
}

func (s *Session) ConnId() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.connId
}

func (s *Session) IsHost() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.isHost
}

func (s *Session) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.source
}

func (s *Session) Queue() []domain.QueueItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.QueueItem(nil), s.queue...)
}

func (s *Session) Participants() []domain.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Participant(nil), s.participants...)
}

func (s *Session) ChatHistory() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.ChatMessage(nil), s.chat...)
}

func (s *Session) HasPassword() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings.Password != nil && *s.settings.Password != ""
}
