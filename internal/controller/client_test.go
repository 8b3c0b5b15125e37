package controller

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWaitIsShort(t *testing.T) {
	assert.LessOrEqual(t, writeWait, 2*time.Second)
}

func TestStalledPeerWriteTimesOut(t *testing.T) {
	clients := make(chan *client, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cl := newClient(conn)
		cl.writeWait = 100 * time.Millisecond
		clients <- cl
	}))
	t.Cleanup(srv.Close)

	// the peer never reads
	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	cl := <-clients
	payload := map[string]string{"data": strings.Repeat("x", 64*1024)}

	start := time.Now()
	var writeErr error
	for i := 0; i < 10_000 && writeErr == nil; i++ {
		writeErr = cl.WriteJSON(payload)
	}
	require.Error(t, writeErr)
	var netErr net.Error
	if assert.ErrorAs(t, writeErr, &netErr) {
		assert.True(t, netErr.Timeout())
	}
	assert.Less(t, time.Since(start), 5*time.Second)

	// the connection is closed after the failed write
	assert.Error(t, cl.WriteJSON(payload))
}
