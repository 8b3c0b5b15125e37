package controller

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	chatInmemory "github.com/sharetube/watchtogether/internal/repository/chat/inmemory"
	connInmemory "github.com/sharetube/watchtogether/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchtogether/internal/repository/room/inmemory"
	"github.com/sharetube/watchtogether/internal/service/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	roomService := room.NewService(
		roomInmemory.NewRepo(0, logger),
		connInmemory.NewRepo(logger),
		chatInmemory.NewRepo(200, logger),
		&room.Config{},
		clock.New(),
		logger,
	)
	srv := httptest.NewServer(NewController(roomService, logger).GetMux())
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &testClient{t: t, conn: conn}
	var connected ConnectedOutput
	c.expect(typeConnected, &connected)
	require.NotEmpty(t, connected.ConnId)
	c.id = connected.ConnId

	return c
}

func (c *testClient) send(messageType string, payload any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(map[string]any{"type": messageType, "payload": payload}))
}

// expect skips messages until one of the given type arrives.
func (c *testClient) expect(messageType string, out any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg inbound
		require.NoError(c.t, c.conn.ReadJSON(&msg), "waiting for %s", messageType)
		if msg.Type != messageType {
			continue
		}

		if out != nil {
			require.NoError(c.t, json.Unmarshal(msg.Payload, out))
		}
		return
	}
}

func TestJoinAsksHostForState(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)
	c2 := dial(t, srv)

	c1.send("create_room", map[string]any{"room_id": "abc123", "settings": map[string]any{"allow_upload": "host"}})
	c1.expect(typeYouAreHost, nil)
	c1.expect(typeRoomSettings, nil)

	c2.send("join", map[string]any{"room_id": "abc123"})
	var settings RoomSettingsOutput
	c2.expect(typeRoomSettings, &settings)
	assert.Equal(t, "host", string(settings.AllowUpload))
	var participants room.Participants
	c2.expect(typeParticipants, &participants)
	assert.Equal(t, 2, participants.Count)

	var requestState RequestStateOutput
	c1.expect(typeRequestState, &requestState)
	assert.Equal(t, c2.id, requestState.To)

	c1.send("send_state_to", map[string]any{"to": c2.id, "state": map[string]any{"type": "play", "at": 5.5, "sent_at": 1700000000.0}})
	var state struct {
		Type   string  `json:"type"`
		At     float64 `json:"at"`
		SentAt float64 `json:"sent_at"`
	}
	c2.expect(typeControl, &state)
	assert.Equal(t, "play", state.Type)
	assert.Equal(t, 5.5, state.At)
	assert.Equal(t, 1700000000.0, state.SentAt)
}

func TestControlIsBroadcastToSender(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)
	c2 := dial(t, srv)

	c1.send("join", map[string]any{"room_id": "room"})
	c1.expect(typeYouAreHost, nil)
	c2.send("join", map[string]any{"room_id": "room"})
	c2.expect(typeParticipants, nil)

	c2.send("control", map[string]any{"room_id": "room", "msg": map[string]any{"type": "pause", "at": 10}})
	for _, c := range []*testClient{c1, c2} {
		var event struct {
			Type string  `json:"type"`
			At   float64 `json:"at"`
		}
		c.expect(typeControl, &event)
		assert.Equal(t, "pause", event.Type)
		assert.Equal(t, float64(10), event.At)
	}
}

func TestWrongPasswordFailsJoin(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)
	c2 := dial(t, srv)

	c1.send("create_room", map[string]any{"room_id": "locked", "settings": map[string]any{"password": "pw"}})
	c1.expect(typeYouAreHost, nil)

	c2.send("join", map[string]any{"room_id": "locked", "password": "nope"})
	var failed JoinFailedOutput
	c2.expect(typeJoinFailed, &failed)
	assert.Equal(t, room.ReasonIncorrectPassword, failed.Reason)
}

func TestNonHostGetsErrorMessage(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)
	c2 := dial(t, srv)

	c1.send("create_room", map[string]any{"room_id": "room"})
	c1.expect(typeYouAreHost, nil)
	c2.send("join", map[string]any{"room_id": "room"})
	c2.expect(typeParticipants, nil)

	c2.send("update_settings", map[string]any{"room_id": "room", "settings": map[string]any{"allow_upload": "all"}})
	var errMsg ErrorMessageOutput
	c2.expect(typeErrorMessage, &errMsg)
	assert.Equal(t, "only host can update settings", errMsg.Message)

	c2.send("set_source", map[string]any{"room_id": "room", "url": "https://example.com/v.mp4"})
	c2.expect(typeErrorMessage, &errMsg)
	assert.Equal(t, "not allowed to set video source", errMsg.Message)
}

func TestQueueFlow(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)

	c1.send("join", map[string]any{"room_id": "room"})
	c1.expect(typeYouAreHost, nil)

	c1.send("enqueue", map[string]any{"room_id": "room", "item": map[string]any{"url": "u1", "title": "one"}})
	var queue []map[string]any
	c1.expect(typeQueueUpdated, &queue)
	require.Len(t, queue, 1)
	assert.Equal(t, "u1", queue[0]["url"])
	assert.Equal(t, "Anon", queue[0]["uploaded_by"])

	c1.send("video_ended", map[string]any{"room_id": "room"})
	var source SetSourceOutput
	c1.expect(typeSetSource, &source)
	assert.Equal(t, "u1", source.URL)
	c1.expect(typeQueueUpdated, &queue)
	assert.Empty(t, queue)

	c1.send("request_queue", map[string]any{"room_id": "unknown"})
	c1.expect(typeQueueUpdated, &queue)
	assert.Empty(t, queue)
}

func TestHostDisconnectPromotesNextMember(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)
	c2 := dial(t, srv)

	c1.send("create_room", map[string]any{"room_id": "room"})
	c1.expect(typeYouAreHost, nil)
	c2.send("join", map[string]any{"room_id": "room"})
	c2.expect(typeParticipants, nil)

	require.NoError(t, c1.conn.Close())

	c2.expect(typeYouAreHost, nil)
	var participants room.Participants
	c2.expect(typeParticipants, &participants)
	assert.Equal(t, 1, participants.Count)
}

func TestTimeRequest(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)

	before := float64(time.Now().UnixNano()) / float64(time.Second)
	c1.send("time_request", map[string]any{"client_sent_at": 123.25})
	var resp TimeResponseOutput
	c1.expect(typeTimeResponse, &resp)
	assert.Equal(t, 123.25, resp.ClientSentAt)
	assert.GreaterOrEqual(t, resp.ServerTime, before)
}

func TestRestEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	c1 := dial(t, srv)
	c1.send("create_room", map[string]any{"room_id": "room", "settings": map[string]any{"password": "pw"}})
	c1.expect(typeYouAreHost, nil)
	c1.expect(typeRoomSettings, nil)

	resp, err = http.Get(srv.URL + "/api/v1/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"pw"`)

	var summary struct {
		Rooms []room.RoomSummary `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(body, &summary))
	require.Len(t, summary.Rooms, 1)
	assert.Equal(t, "room", summary.Rooms[0].Id)
	assert.True(t, summary.Rooms[0].Settings.HasPassword)

	resp2, err := http.Get(srv.URL + "/api/v1/rooms/new-id")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var newId struct {
		RoomId string `json:"room_id"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&newId))
	assert.Len(t, newId.RoomId, 6)
}

func TestMissingRequiredFieldsAreDropped(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)
	c2 := dial(t, srv)

	c1.send("join", map[string]any{"room_id": "room"})
	c1.expect(typeYouAreHost, nil)
	c2.send("join", map[string]any{"room_id": "room"})
	c2.expect(typeParticipants, nil)

	var queue []map[string]any
	for _, url := range []string{"a", "b"} {
		c1.send("enqueue", map[string]any{"room_id": "room", "item": map[string]any{"url": url}})
		c1.expect(typeQueueUpdated, &queue)
	}

	c1.send("remove_from_queue", map[string]any{"room_id": "room"})
	c1.send("remove_from_queue", map[string]any{"room_id": "room", "index": -1})
	c1.send("request_queue", map[string]any{"room_id": "room"})
	c1.expect(typeQueueUpdated, &queue)
	require.Len(t, queue, 2)
	assert.Equal(t, "a", queue[0]["url"])

	var event struct {
		Type string  `json:"type"`
		At   float64 `json:"at"`
	}
	c1.send("control", map[string]any{"room_id": "room", "msg": map[string]any{"type": "pause"}})
	c1.send("control", map[string]any{"room_id": "room", "msg": map[string]any{"type": "pause", "at": 3}})
	c2.expect(typeControl, &event)
	assert.Equal(t, float64(3), event.At)

	c1.send("send_state_to", map[string]any{"to": c2.id, "state": map[string]any{"type": "play"}})
	c1.send("send_state_to", map[string]any{"to": c2.id, "state": map[string]any{"type": "play", "at": 7}})
	c2.expect(typeControl, &event)
	assert.Equal(t, "play", event.Type)
	assert.Equal(t, float64(7), event.At)
}

func TestTruncatedFrameKeepsMemberInRoom(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv)
	c2 := dial(t, srv)

	c1.send("join", map[string]any{"room_id": "room"})
	c1.expect(typeYouAreHost, nil)
	c2.send("join", map[string]any{"room_id": "room"})
	c2.expect(typeParticipants, nil)

	require.NoError(t, c1.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"control"`)))
	c1.send("control", map[string]any{"room_id": "room", "msg": map[string]any{"type": "seek", "at": 4}})
	c1.expect(typeControl, nil)

	resp, err := http.Get(srv.URL + "/api/v1/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var summary struct {
		Rooms []room.RoomSummary `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.Len(t, summary.Rooms, 1)
	assert.Equal(t, 2, summary.Rooms[0].Count)
	require.NotNil(t, summary.Rooms[0].Host)
	assert.Equal(t, c1.id, *summary.Rooms[0].Host)
}
