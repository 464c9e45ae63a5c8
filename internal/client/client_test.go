package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nvivas/backend/tictactoe-ai-server/internal/errors"
	"nvivas/backend/tictactoe-ai-server/internal/hub"
	"nvivas/backend/tictactoe-ai-server/pkg/models"
)

// newTestServer levanta un servidor WebSocket que conecta cada cliente a su sesión
func newTestServer(t *testing.T) (*hub.Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := hub.NewHub(ctx, time.Hour)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(r.URL.Query().Get("client"), h, conn, ctx)
		s, resumed, err := h.RegisterClient(r.Context(), c, r.URL.Query().Get("session"))
		if err != nil {
			conn.Close()
			return
		}
		c.Session = s
		c.SendSessionStarted(resumed)
		go c.ReadPump()
		go c.WritePump()
	}))

	t.Cleanup(func() {
		srv.Close()
		h.Close()
		cancel()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// read lee el siguiente mensaje y comprueba su tipo
func read(t *testing.T, conn *websocket.Conn, wantType string, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var base models.BaseMessage
	require.NoError(t, json.Unmarshal(raw, &base))
	require.Equal(t, wantType, base.Type, "mensaje: %s", raw)
	if v != nil {
		require.NoError(t, json.Unmarshal(raw, v))
	}
}

func write(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func TestClientGame(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv, "client=c1")

	var started models.SessionStartedResponse
	read(t, conn, models.TypeSessionStarted, &started)
	assert.NotEmpty(t, started.SessionID)
	assert.False(t, started.Resumed)

	var state models.GameStateResponse
	read(t, conn, models.TypeGameState, &state)
	assert.Equal(t, "O", state.Board[1][1])

	write(t, conn, `{"type":"MAKE_MOVE","payload":{"move":{"x":0,"y":0}}}`)
	read(t, conn, models.TypeGameState, &state)
	assert.Equal(t, "X", state.Board[0][0])
	require.NotNil(t, state.Reply)
	assert.Equal(t, 0, state.Reply.X)
	assert.Equal(t, 2, state.Reply.Y)

	write(t, conn, `{"type":"MAKE_MOVE","payload":{"move":{"x":0,"y":1}}}`)
	read(t, conn, models.TypeGameState, &state)
	assert.Equal(t, "AUTOMATED_WINS", state.Outcome)

	var over models.GameOverResponse
	read(t, conn, models.TypeGameOver, &over)
	assert.Equal(t, models.WinnerAutomated, over.Winner)

	var errResp models.ErrorResponse
	write(t, conn, `{"type":"MAKE_MOVE","payload":{"move":{"x":2,"y":2}}}`)
	read(t, conn, apperrors.ErrorGameOver, &errResp)
	assert.NotEmpty(t, errResp.Message)

	write(t, conn, `{"type":"RESET_GAME"}`)
	read(t, conn, models.TypeGameState, &state)
	assert.Equal(t, 9, state.EmptyCount)

	write(t, conn, `{"type":"START_GAME"}`)
	read(t, conn, models.TypeGameState, &state)
	assert.Equal(t, 8, state.EmptyCount)

	write(t, conn, `{"type":"GET_STATE"}`)
	read(t, conn, models.TypeGameState, &state)
	assert.Equal(t, started.SessionID, state.SessionID)
}

func TestClientInvalidMessages(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv, "client=c1")
	read(t, conn, models.TypeSessionStarted, nil)
	read(t, conn, models.TypeGameState, nil)

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"JSON inválido", `{"type":`, apperrors.ErrorInvalidMessage},
		{"payload inválido", `{"type":"MAKE_MOVE","payload":{"move":"a1"}}`, apperrors.ErrorInvalidPayload},
		{"tipo desconocido", `{"type":"JOIN_ROOM"}`, apperrors.ErrorUnknownMessageType},
		{"casilla ocupada", `{"type":"MAKE_MOVE","payload":{"move":{"x":1,"y":1}}}`, apperrors.ErrorInvalidMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			write(t, conn, tt.msg)
			read(t, conn, tt.want, nil)
		})
	}
}

func TestClientResumeAndDisconnect(t *testing.T) {
	h, srv := newTestServer(t)

	first := dial(t, srv, "client=c1")
	var started models.SessionStartedResponse
	read(t, first, models.TypeSessionStarted, &started)
	read(t, first, models.TypeGameState, nil)

	second := dial(t, srv, "client=c2&session="+started.SessionID)
	var resumed models.SessionStartedResponse
	read(t, second, models.TypeSessionStarted, &resumed)
	assert.True(t, resumed.Resumed)
	assert.Equal(t, started.SessionID, resumed.SessionID)
	read(t, second, models.TypeGameState, nil)

	// Las jugadas de un cliente llegan a todos los de la sesión
	write(t, first, `{"type":"MAKE_MOVE","payload":{"move":{"x":0,"y":0}}}`)
	read(t, first, models.TypeGameState, nil)
	var state models.GameStateResponse
	read(t, second, models.TypeGameState, &state)
	assert.Equal(t, "X", state.Board[0][0])

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// La sesión sigue viva para el otro cliente
	assert.Equal(t, 1, h.SessionCount())
}
