package bot

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/haoyuedashi/meme-text-bot/internal/models"
)

// locateReplyID finds the id of the message this event quotes. The
// host encodes the reply marker in one of three shapes, checked in
// order, first match wins: the structured segment chain, a raw payload
// that is itself a segment array, or a raw payload object whose
// "message" field is a segment array.
func locateReplyID(event *models.MessageEvent) (int64, bool) {
	if id, ok := replyIDFromSegments(event.Message); ok {
		return id, true
	}

	if len(event.RawMessage) == 0 {
		return 0, false
	}

	var segments []models.Segment
	if err := json.Unmarshal(event.RawMessage, &segments); err == nil {
		if id, ok := replyIDFromSegments(segments); ok {
			return id, true
		}
	}

	var wrapped struct {
		Message []models.Segment `json:"message"`
	}
	if err := json.Unmarshal(event.RawMessage, &wrapped); err == nil {
		if id, ok := replyIDFromSegments(wrapped.Message); ok {
			return id, true
		}
	}

	return 0, false
}

func replyIDFromSegments(segments []models.Segment) (int64, bool) {
	for _, seg := range segments {
		if seg.Type != "reply" {
			continue
		}
		id, err := strconv.ParseInt(seg.DataString("id"), 10, 64)
		if err != nil {
			continue
		}
		return id, true
	}
	return 0, false
}

// replyImageURL resolves the quoted message and returns the URL of the
// first image segment in it. An empty return means "nothing quoted" or
// "no image in the quote" — not an error.
func (b *Bot) replyImageURL(ctx context.Context, event *models.MessageEvent) string {
	replyID, ok := locateReplyID(event)
	if !ok {
		return ""
	}

	segments, err := b.host.GetMessage(ctx, replyID)
	if err != nil {
		b.logger.Error("failed to fetch quoted message", zap.Int64("reply_id", replyID), zap.Error(err))
		return ""
	}

	for _, seg := range segments {
		if seg.Type == "image" {
			if url := seg.DataString("url"); url != "" {
				return url
			}
		}
	}
	return ""
}
