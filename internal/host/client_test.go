package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/haoyuedashi/meme-text-bot/internal/models"
)

func TestGetMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotParams map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotParams))
		w.Write([]byte(`{"status":"ok","retcode":0,"data":{"message":[{"type":"image","data":{"url":"http://img"}}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", 5*time.Second, zap.NewNop())
	segments, err := client.GetMessage(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, "/get_msg", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.EqualValues(t, 42, gotParams["message_id"])
	require.Len(t, segments, 1)
	assert.Equal(t, "image", segments[0].Type)
	assert.Equal(t, "http://img", segments[0].DataString("url"))
}

func TestSendTextAndImage(t *testing.T) {
	var calls []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		calls = append(calls, params)
		w.Write([]byte(`{"status":"ok","retcode":0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())
	group := models.Target{MessageType: "group", GroupID: 7}
	private := models.Target{MessageType: "private", UserID: 9}

	require.NoError(t, client.SendText(context.Background(), group, "hello"))
	require.NoError(t, client.SendImage(context.Background(), private, "/tmp/meme_1.png"))
	require.Len(t, calls, 2)

	assert.Equal(t, "group", calls[0]["message_type"])
	assert.EqualValues(t, 7, calls[0]["group_id"])

	assert.Equal(t, "private", calls[1]["message_type"])
	assert.EqualValues(t, 9, calls[1]["user_id"])

	segs := calls[1]["message"].([]any)
	seg := segs[0].(map[string]any)
	assert.Equal(t, "image", seg["type"])
	file := seg["data"].(map[string]any)["file"].(string)
	assert.Equal(t, "file:///tmp/meme_1.png", file)
}

func TestCallRejectsBadRetcode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"failed","retcode":100}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())
	_, err := client.GetMessage(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retcode 100")
}

func TestCallRejectsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())
	err := client.SendText(context.Background(), models.Target{MessageType: "private", UserID: 1}, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
