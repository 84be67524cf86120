package bot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haoyuedashi/meme-text-bot/internal/models"
)

func segment(t *testing.T, raw string) models.Segment {
	t.Helper()
	var seg models.Segment
	require.NoError(t, json.Unmarshal([]byte(raw), &seg))
	return seg
}

func TestLocateReplyIDFromStructuredChain(t *testing.T) {
	event := &models.MessageEvent{
		Message: []models.Segment{
			segment(t, `{"type":"reply","data":{"id":"123"}}`),
			segment(t, `{"type":"text","data":{"text":"表情加字 哈哈"}}`),
		},
	}

	id, ok := locateReplyID(event)
	require.True(t, ok)
	assert.Equal(t, int64(123), id)
}

func TestLocateReplyIDFromRawList(t *testing.T) {
	event := &models.MessageEvent{
		RawMessage: json.RawMessage(`[{"type":"reply","data":{"id":456}},{"type":"text","data":{"text":"hi"}}]`),
	}

	id, ok := locateReplyID(event)
	require.True(t, ok)
	assert.Equal(t, int64(456), id)
}

func TestLocateReplyIDFromRawObject(t *testing.T) {
	event := &models.MessageEvent{
		RawMessage: json.RawMessage(`{"message":[{"type":"reply","data":{"id":"789"}}]}`),
	}

	id, ok := locateReplyID(event)
	require.True(t, ok)
	assert.Equal(t, int64(789), id)
}

func TestLocateReplyIDStructuredChainWins(t *testing.T) {
	event := &models.MessageEvent{
		Message: []models.Segment{
			segment(t, `{"type":"reply","data":{"id":"1"}}`),
		},
		RawMessage: json.RawMessage(`[{"type":"reply","data":{"id":"2"}}]`),
	}

	id, ok := locateReplyID(event)
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestLocateReplyIDNotFound(t *testing.T) {
	event := &models.MessageEvent{
		Message: []models.Segment{
			segment(t, `{"type":"text","data":{"text":"no quote here"}}`),
		},
		RawMessage: json.RawMessage(`"plain raw text"`),
	}

	_, ok := locateReplyID(event)
	assert.False(t, ok)
}
