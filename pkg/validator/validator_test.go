package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type input struct {
	RoomId string `json:"room_id" validate:"required,max=64"`
	Type   string `json:"type" validate:"omitempty,oneof=play pause seek"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	_, ok := v.Validate(input{RoomId: "abc123", Type: "play"})
	assert.True(t, ok)

	errs, ok := v.Validate(input{Type: "rewind"})
	assert.False(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "room_id", errs[0].Field)
	assert.Equal(t, "REQUIRED", errs[0].Code)
	assert.Equal(t, "room_id is required", errs[0].Message)
	assert.Equal(t, "ONEOF", errs[1].Code)
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateStruct(input{RoomId: "x"}))
	assert.EqualError(t, v.ValidateStruct(input{}), "room_id is required")
}
