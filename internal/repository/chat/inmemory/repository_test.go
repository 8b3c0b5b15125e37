package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryIsBounded(t *testing.T) {
	r := NewRepo(200, slog.Default())
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, r.Append(ctx, "room", domain.ChatMessage{Text: fmt.Sprintf("m%d", i)}))
	}

	messages, err := r.List(ctx, "room")
	require.NoError(t, err)
	require.Len(t, messages, 200)
	assert.Equal(t, "m50", messages[0].Text)
	assert.Equal(t, "m249", messages[199].Text)
}

func TestListReturnsCopy(t *testing.T) {
	r := NewRepo(10, slog.Default())
	ctx := context.Background()
	require.NoError(t, r.Append(ctx, "room", domain.ChatMessage{Text: "a"}))

	messages, _ := r.List(ctx, "room")
	messages[0].Text = "changed"

	again, _ := r.List(ctx, "room")
	assert.Equal(t, "a", again[0].Text)
}

func TestDeleteDropsHistory(t *testing.T) {
	r := NewRepo(10, slog.Default())
	ctx := context.Background()
	require.NoError(t, r.Append(ctx, "room", domain.ChatMessage{Text: "a"}))
	require.NoError(t, r.Delete(ctx, "room"))

	messages, err := r.List(ctx, "room")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
