package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roomchat/internal/api/response"
	"github.com/mcoot/roomchat/internal/model"
)

func frame(t *testing.T, typ model.EventType, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	data, err := json.Marshal(response.Event{Type: typ, Room: "ABC123", Timestamp: time.Now(), Payload: raw})
	require.NoError(t, err)
	return data
}

func textOutput() (*Output, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &Output{format: "text", w: buf}, buf
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:8080", "ws://localhost:8080/api/v1/ws"},
		{"https://chat.example.com/", "wss://chat.example.com/api/v1/ws"},
	}
	for _, tt := range tests {
		c := &Config{ServerURL: tt.server}
		assert.Equal(t, tt.want, c.WebSocketURL())
	}
}

func TestRoomPathNormalisesCode(t *testing.T) {
	assert.Equal(t, "/api/v1/rooms/ABC123/join", roomPath(" abc123 ", "join"))
	assert.Equal(t, "/api/v1/rooms/ABC123", roomPath("abc123"))
}

func TestTokenRoundTrip(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "nested", "token")}

	require.NoError(t, c.SaveToken("tok-1"))
	c.Token = ""
	require.NoError(t, c.LoadToken())
	assert.Equal(t, "tok-1", c.Token)

	require.NoError(t, c.ClearToken())
	assert.Empty(t, c.Token)
	require.NoError(t, c.LoadToken())
	assert.Empty(t, c.Token)

	// Clearing twice is fine
	require.NoError(t, c.ClearToken())
}

func TestRenderMessageFrames(t *testing.T) {
	out, buf := textOutput()
	stamp := time.Date(2024, 1, 1, 9, 5, 0, 0, time.Local)

	require.NoError(t, renderFrame(out, frame(t, model.EventNewMessage, response.NewMessagePayload{
		Message: response.Message{Author: "alice", Body: "hi", Timestamp: stamp},
	})))
	require.NoError(t, renderFrame(out, frame(t, model.EventNewMessage, response.NewMessagePayload{
		Message: response.Message{Author: "System", Body: "bob joined the chat.", System: true, Timestamp: stamp},
	})))

	assert.Equal(t, "[09:05] alice: hi\n[09:05] * bob joined the chat.\n", buf.String())
}

func TestRenderStatusFrames(t *testing.T) {
	out, buf := textOutput()

	require.NoError(t, renderFrame(out, frame(t, model.EventStatus, response.StatusPayload{
		Action: model.EventSend, Code: "NOT_IN_ROOM", Message: "not a member",
	})))
	assert.Contains(t, buf.String(), "! send failed: not a member (NOT_IN_ROOM)")

	err := renderFrame(out, frame(t, model.EventStatus, response.StatusPayload{Action: model.EventLeave, OK: true}))
	assert.ErrorIs(t, err, errLeft)
}

func TestRenderRoomDeletedEndsSession(t *testing.T) {
	out, buf := textOutput()

	err := renderFrame(out, frame(t, model.EventRoomDeleted, response.RoomDeletedPayload{Code: "ABC123", By: "root"}))
	assert.ErrorIs(t, err, errRoomGone)
	assert.Equal(t, "Room ABC123 was deleted by root\n", buf.String())
}

func TestRenderJSONPassesFramesThrough(t *testing.T) {
	buf := &bytes.Buffer{}
	out := &Output{format: "json", w: buf}

	data := frame(t, model.EventStatus, response.StatusPayload{Action: model.EventLeave, OK: true})
	assert.ErrorIs(t, renderFrame(out, data), errLeft)
	assert.Equal(t, string(data)+"\n", buf.String())
}

func TestPrintRoomList(t *testing.T) {
	out, buf := textOutput()
	out.Print([]response.RoomSummary{
		{Code: "ABC123", Name: "general", MemberCount: 2},
		{Code: "XYZ789", Name: "secret", MemberCount: 1, Protected: true},
	})

	assert.Contains(t, buf.String(), "ABC123  general")
	assert.Contains(t, buf.String(), "1 member(s) [protected]")

	buf.Reset()
	out.Print([]response.RoomSummary{})
	assert.Equal(t, "No rooms\n", buf.String())
}

func TestClientDecodesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"WRONG_PASSWORD","message":"wrong room password"}}`))
	}))
	defer srv.Close()

	trace := &bytes.Buffer{}
	c := NewClient(srv.URL+"/", "tok")
	c.SetVerbose(trace)

	err := c.Post(context.Background(), roomPath("abc123", "join"), map[string]string{}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "WRONG_PASSWORD", apiErr.Code)
	assert.Equal(t, "wrong room password (WRONG_PASSWORD)", err.Error())
	assert.Contains(t, trace.String(), "POST /api/v1/rooms/ABC123/join -> 403")
}

func TestClientDecodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","rooms":3}`))
	}))
	defer srv.Close()

	var health response.HealthResponse
	require.NoError(t, NewClient(srv.URL, "").Get(context.Background(), "/api/v1/health", &health))
	assert.Equal(t, 3, health.Rooms)
}
