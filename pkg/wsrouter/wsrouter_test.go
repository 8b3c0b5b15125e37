package wsrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text string `json:"text"`
}

func serve(t *testing.T, r *WSRouter) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = r.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	return conn
}

func TestHandleDecodesTypedPayload(t *testing.T) {
	r := New()
	var seenType string
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			seenType = GetMessageTypeFromCtx(ctx)
			return next(ctx, conn, payload)
		}
	})
	Handle(r, "echo", func(_ context.Context, conn *websocket.Conn, input echoInput) error {
		return conn.WriteJSON(Message{Type: "echo", Payload: input})
	})

	conn := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "echo", "payload": map[string]string{"text": "hi"}}))

	var out struct {
		Type    string    `json:"type"`
		Payload echoInput `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "echo", out.Type)
	assert.Equal(t, "hi", out.Payload.Text)
	assert.Equal(t, "echo", seenType)
}

func TestErrorsGoToErrorHandler(t *testing.T) {
	r := New()
	errHandlerCalled := make(chan error, 4)
	r.SetErrorHandler(func(_ context.Context, _ *websocket.Conn, err error) {
		errHandlerCalled <- err
	})
	r.SetValidateFunc(func(payload any) error {
		if in, ok := payload.(echoInput); ok && in.Text == "" {
			return errors.New("text is required")
		}
		return nil
	})
	Handle(r, "echo", func(_ context.Context, conn *websocket.Conn, input echoInput) error {
		return conn.WriteJSON(Message{Type: "echo", Payload: input})
	})

	conn := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "nope"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "echo", "payload": map[string]string{}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "echo", "payload": "not an object"}))

	for _, want := range []error{ErrUnknownMessageType, ErrInvalidPayload, ErrInvalidPayload} {
		select {
		case err := <-errHandlerCalled:
			assert.ErrorIs(t, err, want)
		case <-time.After(5 * time.Second):
			t.Fatal("error handler was not called")
		}
	}

	// the loop is still alive after errors
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "echo", "payload": map[string]string{"text": "ok"}}))
	var out struct {
		Payload echoInput `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "ok", out.Payload.Text)
}

func TestMalformedFramesKeepConnectionOpen(t *testing.T) {
	r := New()
	errHandlerCalled := make(chan error, 4)
	r.SetErrorHandler(func(_ context.Context, _ *websocket.Conn, err error) {
		errHandlerCalled <- err
	})
	Handle(r, "echo", func(_ context.Context, conn *websocket.Conn, input echoInput) error {
		return conn.WriteJSON(Message{Type: "echo", Payload: input})
	})

	conn := serve(t, r)
	for _, frame := range []string{`{"type":"x"`, ``, `[1,2`} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	}

	for i := 0; i < 3; i++ {
		select {
		case err := <-errHandlerCalled:
			assert.ErrorIs(t, err, ErrInvalidPayload)
		case <-time.After(5 * time.Second):
			t.Fatal("error handler was not called")
		}
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "echo", "payload": map[string]string{"text": "still here"}}))
	var out struct {
		Payload echoInput `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "still here", out.Payload.Text)
}
