package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/config"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/registry"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/service"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/session"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/supervisor"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/usecase"
)

const readTimeout = 2 * time.Second

type inbound struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T, grace time.Duration) (*httptest.Server, *Hub) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rooms := registry.New(entity.DefaultRules())
	binder := session.NewBinder(rooms)
	scheduler := supervisor.NewScheduler(logger)
	t.Cleanup(scheduler.Stop)

	auth, err := service.NewAuthService("test-secret", time.Hour)
	require.NoError(t, err)

	manager := usecase.NewGameManager(logger, rooms, binder, scheduler, auth, nil, nil, usecase.Options{
		GracePeriod:     grace,
		ReconnectPolicy: config.ReconnectPolicyResume,
	})

	hub := NewHub(logger)
	manager.SetNotifier(hub)

	conf := config.WebSocket{
		PingPeriod: 54 * time.Second,
		PongWait:   60 * time.Second,
		WriteWait:  10 * time.Second,
		SendBuffer: 256,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(New(logger, conf, hub, manager).Handler(ctx))
	t.Cleanup(srv.Close)

	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	})

	return conn
}

func write(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: body}))
}

// expect reads until an event with the given action arrives.
func expect(t *testing.T, conn *websocket.Conn, action string) json.RawMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	for {
		var event inbound
		require.NoError(t, conn.ReadJSON(&event), "waiting for %s", action)

		if event.Action == action {
			return event.Payload
		}
	}
}

func createRoom(t *testing.T, host *websocket.Conn) usecase.RoomCreatedPayload {
	t.Helper()

	write(t, host, actionCreateRoom, createRoomRequest{Name: "Ann"})

	var created usecase.RoomCreatedPayload
	require.NoError(t, json.Unmarshal(expect(t, host, usecase.ActionRoomCreated), &created))

	return created
}

func TestServer_CreateAndJoin(t *testing.T) {
	t.Run("Guest joins and both sides see the roster", func(t *testing.T) {
		// Given: a host with a fresh room
		srv, _ := newTestServer(t, time.Second)
		host := dial(t, srv)
		guest := dial(t, srv)

		created := createRoom(t, host)
		require.Len(t, created.RoomID, 6)
		require.NotEmpty(t, created.HostToken)

		// When: the guest joins by code
		write(t, guest, actionJoinRoom, joinRoomRequest{RoomID: created.RoomID, Name: "Bob"})

		// Then: the guest is seated as O
		var symbol usecase.PlayerSymbolPayload
		require.NoError(t, json.Unmarshal(expect(t, guest, usecase.ActionPlayerSymbol), &symbol))
		assert.Equal(t, entity.PlayerO, symbol.Symbol)

		// And: the host learns the room can start
		var joined usecase.PlayerJoinedPayload
		require.NoError(t, json.Unmarshal(expect(t, host, usecase.ActionPlayerJoined), &joined))
		assert.Equal(t, 2, joined.PlayerCount)
		assert.True(t, joined.CanStart)
	})

	t.Run("Unknown room code is answered privately", func(t *testing.T) {
		// Given: a connected player
		srv, _ := newTestServer(t, time.Second)
		player := dial(t, srv)

		// When: it joins a room that does not exist
		write(t, player, actionJoinRoom, joinRoomRequest{RoomID: "NOPE42"})

		// Then: it receives room:not_found with the code it asked for
		var ref roomRef
		require.NoError(t, json.Unmarshal(expect(t, player, usecase.ActionRoomNotFound), &ref))
		assert.Equal(t, "NOPE42", ref.RoomID)
	})

	t.Run("Third player is told the room is full", func(t *testing.T) {
		srv, _ := newTestServer(t, time.Second)
		host, guest, third := dial(t, srv), dial(t, srv), dial(t, srv)

		created := createRoom(t, host)
		write(t, guest, actionJoinRoom, joinRoomRequest{RoomID: created.RoomID})
		expect(t, guest, usecase.ActionRoomJoined)

		write(t, third, actionJoinRoom, joinRoomRequest{RoomID: created.RoomID})

		expect(t, third, usecase.ActionRoomFull)
	})
}

func TestServer_Play(t *testing.T) {
	t.Run("Out of turn move is rejected with a code", func(t *testing.T) {
		// Given: a started game where X moves first
		srv, _ := newTestServer(t, time.Second)
		host, guest := dial(t, srv), dial(t, srv)

		created := createRoom(t, host)
		write(t, guest, actionJoinRoom, joinRoomRequest{RoomID: created.RoomID})
		expect(t, host, usecase.ActionPlayerJoined)

		write(t, host, actionStartGame, startGameRequest{RoomID: created.RoomID, Rounds: 1})
		expect(t, guest, usecase.ActionGameStarted)

		// When: O tries to move first
		cell := 4
		write(t, guest, actionMakeMove, makeMoveRequest{RoomID: created.RoomID, Cell: &cell})

		// Then: only O hears about it
		var rejection usecase.ErrorPayload
		require.NoError(t, json.Unmarshal(expect(t, guest, usecase.ActionError), &rejection))
		assert.Equal(t, "out_of_turn", rejection.Code)
		assert.Equal(t, actionMakeMove, rejection.Action)
	})

	t.Run("Accepted move reaches both players", func(t *testing.T) {
		srv, _ := newTestServer(t, time.Second)
		host, guest := dial(t, srv), dial(t, srv)

		created := createRoom(t, host)
		write(t, guest, actionJoinRoom, joinRoomRequest{RoomID: created.RoomID})
		expect(t, host, usecase.ActionPlayerJoined)
		write(t, host, actionStartGame, startGameRequest{RoomID: created.RoomID})
		expect(t, host, usecase.ActionGameStarted)

		cell := 0
		write(t, host, actionMakeMove, makeMoveRequest{RoomID: created.RoomID, Cell: &cell})

		for _, conn := range []*websocket.Conn{host, guest} {
			var move usecase.MovePayload
			require.NoError(t, json.Unmarshal(expect(t, conn, usecase.ActionBoardUpdated), &move))
			assert.Equal(t, entity.PlayerX, move.State.Board[0])
			assert.Equal(t, entity.PlayerO, move.State.Turn)
		}
	})

	t.Run("Missing cell is an invalid argument", func(t *testing.T) {
		srv, _ := newTestServer(t, time.Second)
		host := dial(t, srv)
		created := createRoom(t, host)

		write(t, host, actionMakeMove, makeMoveRequest{RoomID: created.RoomID})

		var rejection usecase.ErrorPayload
		require.NoError(t, json.Unmarshal(expect(t, host, usecase.ActionError), &rejection))
		assert.Equal(t, "invalid_argument", rejection.Code)
		assert.Equal(t, errMissingCell.Error(), rejection.Reason)
	})
}

func TestServer_Messages(t *testing.T) {
	t.Run("Garbage frames do not drop the connection", func(t *testing.T) {
		// Given: a connected player
		srv, _ := newTestServer(t, time.Second)
		player := dial(t, srv)

		// When: it sends something that is not JSON
		require.NoError(t, player.WriteMessage(websocket.TextMessage, []byte("{oops")))

		// Then: it gets an error and can keep playing
		expect(t, player, usecase.ActionError)
		createRoom(t, player)
	})

	t.Run("Unknown action is rejected", func(t *testing.T) {
		srv, _ := newTestServer(t, time.Second)
		player := dial(t, srv)

		write(t, player, "room:explode", struct{}{})

		var rejection usecase.ErrorPayload
		require.NoError(t, json.Unmarshal(expect(t, player, usecase.ActionError), &rejection))
		assert.Equal(t, "room:explode", rejection.Action)
	})
}

func TestServer_Disconnect(t *testing.T) {
	t.Run("Host drop is announced and the host can resume with its token", func(t *testing.T) {
		// Given: a full room
		srv, hub := newTestServer(t, 5*time.Second)
		host, guest := dial(t, srv), dial(t, srv)

		created := createRoom(t, host)
		write(t, guest, actionJoinRoom, joinRoomRequest{RoomID: created.RoomID})
		expect(t, host, usecase.ActionPlayerJoined)

		// When: the host socket goes away
		require.NoError(t, host.Close())

		// Then: the guest hears about it
		var disconnected usecase.OpponentDisconnectedPayload
		require.NoError(t, json.Unmarshal(expect(t, guest, usecase.ActionOpponentDisconnected), &disconnected))
		assert.True(t, disconnected.AwaitingHost)
		require.Eventually(t, func() bool { return hub.Len() == 1 }, readTimeout, 10*time.Millisecond)

		// When: the host comes back on a new socket within the grace period
		back := dial(t, srv)
		write(t, back, actionRejoinRoom, rejoinRoomRequest{RoomID: created.RoomID, HostToken: created.HostToken})

		// Then: the host gets X back
		var joined usecase.RoomJoinedPayload
		require.NoError(t, json.Unmarshal(expect(t, back, usecase.ActionRoomJoined), &joined))
		assert.True(t, joined.IsHost)
		assert.True(t, joined.Resumed)

		var symbol usecase.PlayerSymbolPayload
		require.NoError(t, json.Unmarshal(expect(t, back, usecase.ActionPlayerSymbol), &symbol))
		assert.Equal(t, entity.PlayerX, symbol.Symbol)
	})
}
