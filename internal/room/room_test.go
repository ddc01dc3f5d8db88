package room

import (
	"errors"
	"sync"
	"testing"
	"time"

	"sequence-platform/backend/engine"
	"sequence-platform/backend/internal/apperrors"
	"sequence-platform/backend/internal/events"
	"sequence-platform/backend/internal/models"
	"sequence-platform/backend/internal/store"
)

// recordingNotifier captures fan-out calls for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	PlayerID string
	Type     string
	Payload  interface{}
}

func (n *recordingNotifier) SendEvent(playerID, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{playerID, eventType, payload})
}

func (n *recordingNotifier) Broadcast(playerIDs []string, eventType string, payload interface{}) {
	for _, id := range playerIDs {
		n.SendEvent(id, eventType, payload)
	}
}

func (n *recordingNotifier) ofType(eventType string) []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []recordedEvent
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	registry *store.Registry
	notifier *recordingNotifier
	service  *Service
}

func newFixture() *fixture {
	registry := store.NewRegistry(store.DefaultConfig, store.NoopSink{})
	notifier := &recordingNotifier{}
	return &fixture{registry: registry, notifier: notifier, service: NewService(registry, notifier)}
}

func (f *fixture) addSession(t *testing.T, playerID, name string) *models.Session {
	t.Helper()
	s := &models.Session{
		SessionID:    "sess-" + playerID,
		PlayerID:     playerID,
		DisplayName:  name,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}
	f.registry.Mu.Lock()
	f.registry.PutSessionLocked(s)
	f.registry.Mu.Unlock()
	return s
}

func TestCreate(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")

	room, err := f.service.Create(host, "My Room", models.Mode2v2, engine.BoardClassic, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.HostID != "p1" || len(room.Players) != 1 {
		t.Fatalf("creator should be sole host, got host=%s players=%d", room.HostID, len(room.Players))
	}
	seat := room.Players[0]
	if !seat.IsHost || !seat.IsReady || seat.Team != 1 {
		t.Errorf("host seat = %+v, want ready host on team 1", seat)
	}
	if room.MaxPlayers != 4 {
		t.Errorf("2v2 max players = %d, want 4", room.MaxPlayers)
	}
	if host.CurrentRoomID != room.ID {
		t.Error("session should reference the new room")
	}
}

func TestCreate_Invalid(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")

	if _, err := f.service.Create(host, "ab", models.Mode1v1, engine.BoardClassic, ""); !errors.Is(err, apperrors.ErrInvalidArg) {
		t.Errorf("short name: %v, want ErrInvalidArg", err)
	}
	if _, err := f.service.Create(host, "Room", "3v3", engine.BoardClassic, ""); !errors.Is(err, apperrors.ErrInvalidArg) {
		t.Errorf("bad mode: %v, want ErrInvalidArg", err)
	}
	if _, err := f.service.Create(host, "Room", models.Mode1v1, "hexagonal", ""); !errors.Is(err, apperrors.ErrInvalidArg) {
		t.Errorf("bad board: %v, want ErrInvalidArg", err)
	}

	if _, err := f.service.Create(host, "Room", models.Mode1v1, engine.BoardClassic, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.Create(host, "Other", models.Mode1v1, engine.BoardClassic, ""); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("double create: %v, want ErrConflict", err)
	}
}

func TestJoin_BalancesTeams(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Room", models.Mode2v2, engine.BoardClassic, "")
	if err != nil {
		t.Fatal(err)
	}

	second := f.addSession(t, "p2", "Bob")
	if _, err := f.service.Join(second, room.ID, ""); err != nil {
		t.Fatal(err)
	}
	if got := room.Player("p2").Team; got != 2 {
		t.Errorf("second player team = %d, want 2", got)
	}

	third := f.addSession(t, "p3", "Carol")
	if _, err := f.service.Join(third, room.ID, ""); err != nil {
		t.Fatal(err)
	}
	if got := room.Player("p3").Team; got != 1 {
		t.Errorf("third player team = %d, want 1 on tie", got)
	}

	joined := f.notifier.ofType(events.TypePlayerJoined)
	if len(joined) == 0 {
		t.Error("joins should broadcast player_joined")
	}
	if len(f.notifier.ofType(events.TypeRoomUpdated)) == 0 {
		t.Error("joins should broadcast room_updated")
	}
}

func TestJoin_Refusals(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Room", models.Mode1v1, engine.BoardClassic, "secret")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.service.Join(f.addSession(t, "p2", "Bob"), "missing", ""); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unknown room: %v, want ErrNotFound", err)
	}

	wrongPw := f.addSession(t, "p3", "Carol")
	if _, err := f.service.Join(wrongPw, room.ID, "nope"); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("wrong password: %v, want ErrConflict", err)
	}
	if wrongPw.CurrentRoomID != "" {
		t.Error("refused join must not bind the session to the room")
	}

	ok := f.addSession(t, "p4", "Dave")
	if _, err := f.service.Join(ok, room.ID, "secret"); err != nil {
		t.Fatalf("correct password refused: %v", err)
	}

	if _, err := f.service.Join(f.addSession(t, "p5", "Eve"), room.ID, "secret"); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("full room: %v, want ErrConflict", err)
	}
}

func TestLeave_TransfersHost(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Room", models.Mode2v2, engine.BoardClassic, "")
	if err != nil {
		t.Fatal(err)
	}
	second := f.addSession(t, "p2", "Bob")
	if _, err := f.service.Join(second, room.ID, ""); err != nil {
		t.Fatal(err)
	}

	if err := f.service.Leave(host, room.ID); err != nil {
		t.Fatal(err)
	}

	if room.HostID != "p2" {
		t.Errorf("host = %s, want promoted p2", room.HostID)
	}
	seat := room.Player("p2")
	if !seat.IsHost || !seat.IsReady {
		t.Error("promoted host must be marked host and ready")
	}
	if host.CurrentRoomID != "" {
		t.Error("leaver's session should be detached")
	}

	lefts := f.notifier.ofType(events.TypePlayerLeft)
	if len(lefts) == 0 {
		t.Fatal("expected player_left broadcast")
	}
	payload := lefts[0].Payload.(events.PlayerLeft)
	if payload.Reason != ReasonLeave || payload.NewHostID != "p2" {
		t.Errorf("player_left payload = %+v", payload)
	}
}

func TestLeave_LastHumanDeletesRoom(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Room", models.Mode1v1, engine.BoardClassic, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.service.Leave(host, room.ID); err != nil {
		t.Fatal(err)
	}

	f.registry.Mu.Lock()
	_, exists := f.registry.Rooms[room.ID]
	f.registry.Mu.Unlock()
	if exists {
		t.Error("empty room should be deleted")
	}
}

func TestRemovePlayer_Disconnect(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Room", models.Mode2v2, engine.BoardClassic, "")
	if err != nil {
		t.Fatal(err)
	}
	second := f.addSession(t, "p2", "Bob")
	if _, err := f.service.Join(second, room.ID, ""); err != nil {
		t.Fatal(err)
	}

	f.service.RemovePlayer("p2", ReasonDisconnect)

	if room.Player("p2") != nil {
		t.Error("disconnected player should be unseated")
	}
	lefts := f.notifier.ofType(events.TypePlayerLeft)
	if len(lefts) == 0 {
		t.Fatal("expected player_left broadcast")
	}
	if got := lefts[0].Payload.(events.PlayerLeft).Reason; got != ReasonDisconnect {
		t.Errorf("reason = %q, want %q", got, ReasonDisconnect)
	}

	// Unknown players are a no-op.
	f.service.RemovePlayer("ghost", ReasonDisconnect)
}

func TestSetReady(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Room", models.Mode1v1, engine.BoardClassic, "")
	if err != nil {
		t.Fatal(err)
	}
	second := f.addSession(t, "p2", "Bob")
	if _, err := f.service.Join(second, room.ID, ""); err != nil {
		t.Fatal(err)
	}

	if err := f.service.SetReady(second, room.ID, true); err != nil {
		t.Fatal(err)
	}
	if !room.Player("p2").IsReady {
		t.Error("ready flag not set")
	}

	// The host cannot unready.
	if err := f.service.SetReady(host, room.ID, false); err != nil {
		t.Fatal(err)
	}
	if !room.Player("p1").IsReady {
		t.Error("host must stay ready")
	}
}

func TestChangeTeam(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Room", models.Mode2v2, engine.BoardClassic, "")
	if err != nil {
		t.Fatal(err)
	}
	for i, name := range []string{"Bob", "Carol", "Dave"} {
		s := f.addSession(t, []string{"p2", "p3", "p4"}[i], name)
		if _, err := f.service.Join(s, room.ID, ""); err != nil {
			t.Fatal(err)
		}
	}
	// Teams now: p1,p3 on 1; p2,p4 on 2.

	second := f.registry.SessionsByPlayer["p2"]
	if err := f.service.ChangeTeam(second, room.ID, 1); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("full team: %v, want ErrConflict", err)
	}

	// Moving within your own team is allowed; the caller does not count
	// against the cap.
	if err := f.service.ChangeTeam(second, room.ID, 2); err != nil {
		t.Errorf("same-team move: %v", err)
	}

	if err := f.service.ChangeTeam(second, room.ID, 3); !errors.Is(err, apperrors.ErrInvalidArg) {
		t.Errorf("bad team: %v, want ErrInvalidArg", err)
	}
}

func TestChangeTeam_Only2v2(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Room", models.Mode1v1, engine.BoardClassic, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.service.ChangeTeam(host, room.ID, 2); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("1v1 team change: %v, want ErrConflict", err)
	}
}

func TestList(t *testing.T) {
	f := newFixture()
	host := f.addSession(t, "p1", "Alice")
	room, err := f.service.Create(host, "Open Room", models.Mode1v1, engine.BoardClassic, "pw")
	if err != nil {
		t.Fatal(err)
	}

	f.registry.Mu.Lock()
	f.registry.PutRoomLocked(&models.Room{ID: "done", Status: models.RoomFinished})
	f.registry.Mu.Unlock()

	list := f.service.List()
	if len(list) != 1 {
		t.Fatalf("list length = %d, want 1 (finished rooms hidden)", len(list))
	}
	summary := list[0]
	if summary.ID != room.ID || !summary.HasPassword || summary.HostName != "Alice" {
		t.Errorf("summary = %+v", summary)
	}
}
