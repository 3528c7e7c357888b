package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/auth"
	"github.com/palemoky/turn-party/internal/config"
	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

func startHTTP(t *testing.T, e *testEnv) string {
	t.Helper()
	ts := httptest.NewServer(e.srv.Routes())
	t.Cleanup(ts.Close)
	return ts.URL
}

func wsURL(base, query string) string {
	u := "ws" + strings.TrimPrefix(base, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

type wsClient struct {
	conn   *websocket.Conn
	format codec.Format
}

func dial(t *testing.T, url string, header http.Header, format codec.Format) *wsClient {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{conn: conn, format: format}
}

func (w *wsClient) send(t *testing.T, typ protocol.MessageType, payload any) {
	t.Helper()
	data, err := codec.Encode(codec.MustNewMessage(typ, payload), w.format)
	require.NoError(t, err)
	frame := websocket.TextMessage
	if w.format == codec.FormatProto {
		frame = websocket.BinaryMessage
	}
	require.NoError(t, w.conn.WriteMessage(frame, data))
}

func (w *wsClient) read(t *testing.T, typ protocol.MessageType) *protocol.Message {
	t.Helper()
	require.NoError(t, w.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		frame, data, err := w.conn.ReadMessage()
		require.NoError(t, err)
		if w.format == codec.FormatProto {
			require.Equal(t, websocket.BinaryMessage, frame)
		} else {
			require.Equal(t, websocket.TextMessage, frame)
		}
		msg, err := codec.Decode(data, w.format)
		require.NoError(t, err)
		if msg.Type == typ {
			return msg
		}
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	base := startHTTP(t, e)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var status healthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
	assert.Zero(t, status.Online)
	assert.False(t, status.Maintenance)
}

func TestServer_GuestConnectAndPing(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	c := dial(t, wsURL(startHTTP(t, e), "name=Alice"), nil, codec.FormatJSON)

	connected := parse[protocol.ConnectedPayload](t, c.read(t, protocol.MsgConnected))
	assert.True(t, strings.HasPrefix(connected.PlayerID, "guest-"))
	assert.Equal(t, "Alice", connected.PlayerName)

	c.send(t, protocol.MsgPing, protocol.PingPayload{Timestamp: 99})
	pong := parse[protocol.PongPayload](t, c.read(t, protocol.MsgPong))
	assert.Equal(t, int64(99), pong.ClientTimestamp)

	assert.Eventually(t, func() bool { return e.hub.OnlineCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestServer_ProtoCodec(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	c := dial(t, wsURL(startHTTP(t, e), "codec=proto"), nil, codec.FormatProto)

	connected := parse[protocol.ConnectedPayload](t, c.read(t, protocol.MsgConnected))
	assert.NotEmpty(t, connected.PlayerName, "a nickname is generated")

	c.send(t, protocol.MsgPing, protocol.PingPayload{Timestamp: 7})
	pong := parse[protocol.PongPayload](t, c.read(t, protocol.MsgPong))
	assert.Equal(t, int64(7), pong.ClientTimestamp)
}

func TestServer_TokenRequired(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Auth.JWTSecret = "s3cret"
	cfg.Auth.AllowGuests = false
	e := newTestEnvWith(t, cfg, nil)
	base := startHTTP(t, e)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(base, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	issuer := auth.NewJWTVerifier(auth.Config{Secret: "s3cret", Issuer: cfg.Auth.Issuer, Clock: e.clock})
	token, err := issuer.Issue("p-1", "Alice", time.Hour)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	c := dial(t, wsURL(base, "name=Ignored"), header, codec.FormatJSON)

	connected := parse[protocol.ConnectedPayload](t, c.read(t, protocol.MsgConnected))
	assert.Equal(t, "p-1", connected.PlayerID)
	assert.Equal(t, "Alice", connected.PlayerName)
}

func TestServer_RejectsDuringMaintenance(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	base := startHTTP(t, e)
	e.srv.EnterMaintenanceMode()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(base, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestServer_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Security.AllowedOrigins = []string{"https://party.example"}
	e := newTestEnvWith(t, cfg, nil)
	base := startHTTP(t, e)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(base, ""), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestServer_SessionOverSocket(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	base := startHTTP(t, e)
	alice := dial(t, wsURL(base, "name=Alice"), nil, codec.FormatJSON)
	bob := dial(t, wsURL(base, "name=Bob&codec=proto"), nil, codec.FormatProto)
	alice.read(t, protocol.MsgConnected)
	bobID := parse[protocol.ConnectedPayload](t, bob.read(t, protocol.MsgConnected)).PlayerID

	alice.send(t, protocol.MsgCreateSession, protocol.CreateSessionPayload{GameType: "tictactoe"})
	created := parse[snapshotPayload](t, alice.read(t, protocol.MsgSessionCreated))

	bob.send(t, protocol.MsgJoinSession, protocol.SessionRefPayload{SessionID: created.SessionID})
	state := parse[snapshotPayload](t, bob.read(t, protocol.MsgStateResult))
	assert.Len(t, state.Snapshot.Players, 2)

	joined := parse[protocol.PlayerEventPayload](t, alice.read(t, protocol.MsgPlayerJoined))
	assert.Equal(t, bobID, joined.PlayerID)
	assert.Equal(t, "Bob", joined.PlayerName)

	// closing bob's socket leaves the session
	require.NoError(t, bob.conn.Close())
	left := parse[protocol.PlayerEventPayload](t, alice.read(t, protocol.MsgPlayerLeft))
	assert.Equal(t, bobID, left.PlayerID)
}
