package redisclient

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	rc, err := NewRedisClient(&Config{Host: s.Host(), Port: port})
	require.NoError(t, err)
	defer rc.Close()
}

func TestNewRedisClientUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	port, _ := strconv.Atoi(s.Port())
	s.Close()

	_, err := NewRedisClient(&Config{Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
