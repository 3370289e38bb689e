package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
)

func TestUserJobCursorRoundTrip(t *testing.T) {
	original := &userjob.Cursor{
		CreatedAt: time.Date(2025, 6, 1, 10, 30, 0, 123456789, time.UTC),
		ID:        "uj-42",
	}

	decoded, err := DecodeUserJobCursor(EncodeUserJobCursor(original))
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, original.ID, decoded.ID)
	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDecodeUserJobCursor(t *testing.T) {
	t.Run("empty cursor decodes to nil", func(t *testing.T) {
		decoded, err := DecodeUserJobCursor("")
		require.NoError(t, err)
		assert.Nil(t, decoded)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeUserJobCursor("!!not-base64!!")
		assert.Error(t, err)
	})

	t.Run("wrong segment count", func(t *testing.T) {
		_, err := DecodeUserJobCursor("bm8tc2VwYXJhdG9y")
		assert.Error(t, err)
	})

	t.Run("non-numeric timestamp", func(t *testing.T) {
		_, err := DecodeUserJobCursor("YWJjfGlk")
		assert.Error(t, err)
	})
}
