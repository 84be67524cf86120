package models

import (
	"encoding/json"
	"strings"
)

// Segment is one element of a host message chain, e.g.
// {"type":"image","data":{"url":"..."}}. Data values are left loose
// because hosts send ids both as strings and as numbers.
type Segment struct {
	Type string                     `json:"type"`
	Data map[string]json.RawMessage `json:"data"`
}

// DataString returns the segment's data field as a plain string,
// tolerating both JSON string and number encodings.
func (s Segment) DataString(key string) string {
	raw, ok := s.Data[key]
	if !ok {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}

// MessageEvent is a host "message received" event as pushed to the
// webhook endpoint. RawMessage keeps the untouched payload so reply
// markers can be recovered from hosts that do not populate the
// structured chain.
type MessageEvent struct {
	PostType    string          `json:"post_type"`
	MessageType string          `json:"message_type"`
	MessageID   int64           `json:"message_id"`
	UserID      int64           `json:"user_id"`
	GroupID     int64           `json:"group_id,omitempty"`
	Message     []Segment       `json:"message"`
	RawMessage  json.RawMessage `json:"raw_message,omitempty"`
}

// PlainText concatenates the event's text segments, trimmed. Non-text
// segments (images, replies, at-mentions) are skipped.
func (e *MessageEvent) PlainText() string {
	var b strings.Builder
	for _, seg := range e.Message {
		if seg.Type == "text" {
			b.WriteString(seg.DataString("text"))
		}
	}
	return strings.TrimSpace(b.String())
}

// Target identifies where replies to this event should be sent.
type Target struct {
	MessageType string
	UserID      int64
	GroupID     int64
}

// ReplyTarget derives the outbound target from the inbound event.
func (e *MessageEvent) ReplyTarget() Target {
	return Target{
		MessageType: e.MessageType,
		UserID:      e.UserID,
		GroupID:     e.GroupID,
	}
}
