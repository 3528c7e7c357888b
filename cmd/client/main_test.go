package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/protocol"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	msg, err := parseLine(`  create_session {"game_type":"tictactoe"} `)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgCreateSession, msg.Type)
	assert.JSONEq(t, `{"game_type":"tictactoe"}`, string(msg.Payload))

	msg, err = parseLine("get_stats")
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgGetStats, msg.Type)
	assert.Empty(t, msg.Payload)

	msg, err = parseLine("   ")
	require.NoError(t, err)
	assert.Nil(t, msg)

	_, err = parseLine("join_session {oops")
	assert.Error(t, err)
}

func TestPrintMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printMessage(&buf, &protocol.Message{Type: protocol.MsgPong, Payload: json.RawMessage(`{"client_timestamp":1}`)})
	printMessage(&buf, &protocol.Message{Type: protocol.MsgConnected})
	assert.Equal(t, "← pong {\"client_timestamp\":1}\n← connected\n", buf.String())
}
