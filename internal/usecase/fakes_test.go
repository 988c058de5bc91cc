package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/registry"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/service"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/session"
)

const testGrace = 5 * time.Second

type sent struct {
	connectionID string
	event        Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sent
}

func (that *recordingNotifier) Send(connectionID string, event Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, sent{connectionID: connectionID, event: event})
}

func (that *recordingNotifier) For(connectionID string) []Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	var events []Event
	for _, s := range that.events {
		if s.connectionID == connectionID {
			events = append(events, s.event)
		}
	}

	return events
}

func (that *recordingNotifier) Actions(connectionID string) []string {
	var actions []string
	for _, event := range that.For(connectionID) {
		actions = append(actions, event.Action)
	}

	return actions
}

func (that *recordingNotifier) Last(connectionID string) Event {
	events := that.For(connectionID)
	if len(events) == 0 {
		return Event{}
	}

	return events[len(events)-1]
}

func (that *recordingNotifier) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = nil
}

// manualScheduler fires callbacks only when the test asks for it.
type manualScheduler struct {
	mu      sync.Mutex
	pending map[string]func()
	delays  map[string]time.Duration
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{
		pending: make(map[string]func()),
		delays:  make(map[string]time.Duration),
	}
}

func (that *manualScheduler) Schedule(key string, d time.Duration, fn func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pending[key] = fn
	that.delays[key] = d
}

func (that *manualScheduler) Cancel(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.pending[key]
	delete(that.pending, key)

	return ok
}

func (that *manualScheduler) Pending(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.pending[key]

	return ok
}

// Callback returns the pending callback for key without disarming it.
func (that *manualScheduler) Callback(key string) func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.pending[key]
}

func (that *manualScheduler) Fire(key string) bool {
	that.mu.Lock()
	fn, ok := that.pending[key]
	delete(that.pending, key)
	that.mu.Unlock()

	if ok {
		fn()
	}

	return ok
}

type mockRoomRepo struct {
	mock.Mock
}

func (that *mockRoomRepo) CreateOrUpdate(ctx context.Context, room *entity.Room) error {
	args := that.Called(ctx, room)
	return args.Error(0)
}

func (that *mockRoomRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

type mockResultRepo struct {
	mock.Mock
}

func (that *mockResultRepo) Save(ctx context.Context, result *entity.Result) error {
	args := that.Called(ctx, result)
	return args.Error(0)
}

type fixture struct {
	ctx        context.Context
	manager    *GameManager
	rooms      *registry.Registry
	binder     *session.Binder
	notifier   *recordingNotifier
	scheduler  *manualScheduler
	auth       service.AuthService
	roomRepo   *mockRoomRepo
	resultRepo *mockResultRepo
}

func newFixture(t *testing.T, policy string) *fixture {
	t.Helper()

	var (
		mu   sync.Mutex
		next int
	)
	rooms := registry.New(entity.DefaultRules(), registry.WithIDGenerator(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()

		next++
		return fmt.Sprintf("R%d", next), nil
	}))
	binder := session.NewBinder(rooms)

	auth, err := service.NewAuthService("test-secret", time.Hour)
	require.NoError(t, err)

	roomRepo := &mockRoomRepo{}
	roomRepo.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(nil).Maybe()
	roomRepo.On("DeleteByID", mock.Anything, mock.Anything).Return(nil).Maybe()

	resultRepo := &mockResultRepo{}
	scheduler := newManualScheduler()
	notifier := &recordingNotifier{}

	manager := NewGameManager(
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		rooms,
		binder,
		scheduler,
		auth,
		roomRepo,
		resultRepo,
		Options{GracePeriod: testGrace, ReconnectPolicy: policy},
	)
	manager.SetNotifier(notifier)

	t.Cleanup(func() {
		roomRepo.AssertExpectations(t)
		resultRepo.AssertExpectations(t)
	})

	return &fixture{
		ctx:        context.Background(),
		manager:    manager,
		rooms:      rooms,
		binder:     binder,
		notifier:   notifier,
		scheduler:  scheduler,
		auth:       auth,
		roomRepo:   roomRepo,
		resultRepo: resultRepo,
	}
}

// seatBoth creates R1 for the host and seats the guest.
func (that *fixture) seatBoth(t *testing.T) string {
	t.Helper()

	roomID, err := that.manager.CreateRoom(that.ctx, hostConn, "")
	require.NoError(t, err)
	require.NoError(t, that.manager.JoinRoom(that.ctx, guestConn, roomID, ""))

	return roomID
}

func (that *fixture) hostToken(t *testing.T) string {
	t.Helper()

	for _, event := range that.notifier.For(hostConn) {
		if payload, ok := event.Payload.(RoomCreatedPayload); ok {
			return payload.HostToken
		}
	}

	t.Fatal("host never received room:created")

	return ""
}

func (that *fixture) promotedHostToken(t *testing.T, connectionID string) string {
	t.Helper()

	for _, event := range that.notifier.For(connectionID) {
		if payload, ok := event.Payload.(HostTokenPayload); ok {
			return payload.HostToken
		}
	}

	t.Fatalf("%s never received host:token", connectionID)

	return ""
}

func (that *fixture) play(t *testing.T, roomID string, cells ...int) {
	t.Helper()

	for _, cell := range cells {
		room, err := that.rooms.Find(roomID)
		require.NoError(t, err)

		mover := room.PlayerByMark(room.Turn)
		require.NotNil(t, mover)
		require.NoError(t, that.manager.MakeMove(that.ctx, mover.ConnectionID, roomID, cell))
	}
}
