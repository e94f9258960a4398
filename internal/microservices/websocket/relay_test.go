package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/http-api/repository"
	"coursehub/internal/microservices/http-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	messages   repository.MessageStore
	principals repository.PrincipalRepository
	registry   *Registry
	relay      *Relay
	history    service.HistoryService
	sinks      map[string]*fakeSink
}

func setupRelay(t *testing.T, mode string) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Principal{}, &models.ChatMessage{}))

	env := &testEnv{
		messages:   repository.NewMessageRepository(db),
		principals: repository.NewPrincipalRepository(db),
		registry:   NewRegistry(),
		sinks:      make(map[string]*fakeSink),
	}

	ctx := context.Background()
	for email, role := range map[string]string{
		"admin@x":  models.RoleAdmin,
		"admin2@x": models.RoleAdmin,
		"u1@x":     models.RoleUser,
		"u2@x":     models.RoleUser,
		"u3@x":     models.RoleUser,
	} {
		require.NoError(t, env.principals.Create(ctx, &models.Principal{Email: email, Name: email, Role: role}))
	}

	env.relay = NewRelay(env.messages, env.principals, env.registry, mode)
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	env.relay.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	env.history = service.NewHistoryService(env.messages, env.principals, 100)
	return env
}

// connect registers a fake connection for email and joins it to room
func (e *testEnv) connect(t *testing.T, connID, room, email, role string) *fakeSink {
	t.Helper()
	sink := &fakeSink{}
	e.registry.Register(connID, sink)
	require.NoError(t, e.registry.Join(connID, room, email, role))
	e.sinks[connID] = sink
	return sink
}

func decodeMessage(t *testing.T, env Envelope) models.ChatMessage {
	t.Helper()
	require.Equal(t, EventReceiveMessage, env.Event)
	var msg models.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	return msg
}

func TestRelay_SendUserMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("AdminSenderFlagsMessage", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		a := e.connect(t, "a", "c1", "admin@x", models.RoleAdmin)
		u := e.connect(t, "u", "c1", "u1@x", models.RoleUser)
		other := e.connect(t, "o", "c2", "u2@x", models.RoleUser)

		msg, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "admin@x", SenderName: "Ada", Body: "hello"})
		require.NoError(t, err)
		assert.True(t, msg.IsAdminMessage)
		assert.NotEmpty(t, msg.ID)

		for _, s := range []*fakeSink{a, u} {
			events := s.events(t)
			require.Len(t, events, 1)
			got := decodeMessage(t, events[0])
			assert.Equal(t, msg.ID, got.ID)
			assert.True(t, got.IsAdminMessage)
			assert.False(t, got.Timestamp.IsZero())
		}
		assert.Empty(t, other.events(t))
	})

	t.Run("UserSender", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		u := e.connect(t, "u", "c1", "u1@x", models.RoleUser)

		msg, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "U1@x", Body: "hi"})
		require.NoError(t, err)
		assert.False(t, msg.IsAdminMessage)
		assert.Equal(t, "u1@x", msg.SenderEmail)
		assert.Empty(t, msg.TargetEmail)
		assert.Len(t, u.events(t), 1)
	})

	t.Run("UnknownSenderIsNotAdmin", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		msg, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "new@x", Body: "first"})
		require.NoError(t, err)
		assert.False(t, msg.IsAdminMessage)
	})

	t.Run("TargetIgnored", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		msg, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "u1@x", Body: "psst", TargetEmail: "u2@x"})
		require.NoError(t, err)
		assert.Empty(t, msg.TargetEmail)
	})

	t.Run("Validation", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		u := e.connect(t, "u", "c1", "u1@x", models.RoleUser)

		_, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "u1@x", Body: "  "})
		assert.ErrorIs(t, err, service.ErrValidation)
		_, err = e.relay.SendUserMessage(ctx, Draft{Room: "", SenderEmail: "u1@x", Body: "hi"})
		assert.ErrorIs(t, err, service.ErrValidation)

		assert.Empty(t, u.events(t))
		stored, err := e.messages.Find(ctx, repository.MessageFilter{RoomID: "c1", Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("FullSinkDoesNotBlockOthers", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		slow := e.connect(t, "slow", "c1", "u2@x", models.RoleUser)
		slow.full = true
		fast := e.connect(t, "fast", "c1", "u3@x", models.RoleUser)

		_, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "u1@x", Body: "hi"})
		require.NoError(t, err)
		assert.Empty(t, slow.events(t))
		assert.Len(t, fast.events(t), 1)
	})
}

type failingStore struct {
	repository.MessageStore
}

func (failingStore) Insert(ctx context.Context, message *models.ChatMessage) error {
	return errors.New("disk full")
}

func TestRelay_PersistFailureEmitsNothing(t *testing.T) {
	e := setupRelay(t, config.DeliverRoom)
	u := e.connect(t, "u", "c1", "u1@x", models.RoleUser)
	relay := NewRelay(failingStore{e.messages}, e.principals, e.registry, config.DeliverRoom)

	_, err := relay.SendUserMessage(context.Background(), Draft{Room: "c1", SenderEmail: "u1@x", Body: "hi"})
	require.Error(t, err)
	_, err = relay.SendAdminMessage(context.Background(), Draft{Room: "c1", SenderEmail: "admin@x", Body: "hi"})
	require.Error(t, err)

	assert.Empty(t, u.events(t))
}

func TestRelay_SendAdminMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("NonAdminForbidden", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		u := e.connect(t, "u", "c1", "u1@x", models.RoleUser)

		_, err := e.relay.SendAdminMessage(ctx, Draft{Room: "c1", SenderEmail: "u1@x", Body: "I am admin"})
		assert.ErrorIs(t, err, service.ErrForbidden)

		_, err = e.relay.SendAdminMessage(ctx, Draft{Room: "c1", SenderEmail: "nobody@x", Body: "me too"})
		assert.ErrorIs(t, err, service.ErrForbidden)

		assert.Empty(t, u.events(t))
		stored, err := e.messages.Find(ctx, repository.MessageFilter{RoomID: "c1", Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("DirectedRoomDelivery", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		admin := e.connect(t, "a", "c1", "admin@x", models.RoleAdmin)
		u2 := e.connect(t, "u2", "c1", "u2@x", models.RoleUser)
		u3 := e.connect(t, "u3", "c1", "u3@x", models.RoleUser)

		msg, err := e.relay.SendAdminMessage(ctx, Draft{Room: "c1", SenderEmail: "admin@x", Body: "just for you", TargetEmail: "U2@x"})
		require.NoError(t, err)
		assert.True(t, msg.IsAdminMessage)
		assert.Equal(t, "u2@x", msg.TargetEmail)

		stored, err := e.messages.Find(ctx, repository.MessageFilter{RoomID: "c1", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, stored, 1)

		// every connection in the room gets the event
		for _, s := range []*fakeSink{admin, u2, u3} {
			events := s.events(t)
			require.Len(t, events, 1)
			assert.Equal(t, msg.ID, decodeMessage(t, events[0]).ID)
		}

		// but history stays scoped
		u3History, err := e.history.ListMessages(ctx, "c1", "u3@x")
		require.NoError(t, err)
		assert.Empty(t, u3History)

		u2History, err := e.history.ListMessages(ctx, "c1", "u2@x")
		require.NoError(t, err)
		require.Len(t, u2History, 1)
		assert.Equal(t, msg.ID, u2History[0].ID)
	})

	t.Run("DirectedTargetDelivery", func(t *testing.T) {
		e := setupRelay(t, config.DeliverTarget)
		sender := e.connect(t, "a", "c1", "admin@x", models.RoleAdmin)
		otherAdmin := e.connect(t, "a2", "c1", "admin2@x", models.RoleAdmin)
		u2 := e.connect(t, "u2", "c1", "u2@x", models.RoleUser)
		u3 := e.connect(t, "u3", "c1", "u3@x", models.RoleUser)

		_, err := e.relay.SendAdminMessage(ctx, Draft{Room: "c1", SenderEmail: "admin@x", Body: "just for you", TargetEmail: "u2@x"})
		require.NoError(t, err)

		assert.Len(t, sender.events(t), 1)
		assert.Len(t, otherAdmin.events(t), 1)
		assert.Len(t, u2.events(t), 1)
		assert.Empty(t, u3.events(t))
	})

	t.Run("BroadcastTargetDelivery", func(t *testing.T) {
		e := setupRelay(t, config.DeliverTarget)
		u2 := e.connect(t, "u2", "c1", "u2@x", models.RoleUser)
		u3 := e.connect(t, "u3", "c1", "u3@x", models.RoleUser)

		msg, err := e.relay.SendAdminMessage(ctx, Draft{Room: "c1", SenderEmail: "admin@x", Body: "welcome all"})
		require.NoError(t, err)
		assert.False(t, msg.IsDirected())

		assert.Len(t, u2.events(t), 1)
		assert.Len(t, u3.events(t), 1)
	})
}

func TestRelay_DeleteMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerDeletesOnce", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		watcher := e.connect(t, "w", "c1", "u2@x", models.RoleUser)

		msg, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "u1@x", Body: "oops"})
		require.NoError(t, err)

		require.NoError(t, e.relay.DeleteMessage(ctx, msg.ID, "u1@x"))

		err = e.relay.DeleteMessage(ctx, msg.ID, "u1@x")
		assert.ErrorIs(t, err, service.ErrNotFound)

		events := watcher.events(t)
		require.Len(t, events, 2)
		assert.Equal(t, EventMessageDeleted, events[1].Event)
		var payload MessageDeletedPayload
		require.NoError(t, json.Unmarshal(events[1].Data, &payload))
		assert.Equal(t, msg.ID, payload.MessageID)
	})

	t.Run("StrangerForbidden", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		watcher := e.connect(t, "w", "c1", "u1@x", models.RoleUser)

		msg, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "u1@x", Body: "mine"})
		require.NoError(t, err)

		err = e.relay.DeleteMessage(ctx, msg.ID, "u3@x")
		assert.ErrorIs(t, err, service.ErrForbidden)

		_, err = e.messages.FindByID(ctx, msg.ID)
		assert.NoError(t, err)
		assert.Len(t, watcher.events(t), 1)
	})

	t.Run("AdminDeletesAnyMessage", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		msg, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "u1@x", Body: "spam"})
		require.NoError(t, err)

		require.NoError(t, e.relay.DeleteMessage(ctx, msg.ID, "admin@x"))
		_, err = e.messages.FindByID(ctx, msg.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("UnknownMessage", func(t *testing.T) {
		e := setupRelay(t, config.DeliverRoom)
		err := e.relay.DeleteMessage(ctx, "missing", "admin@x")
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestRelay_RoundTripHistory(t *testing.T) {
	ctx := context.Background()
	e := setupRelay(t, config.DeliverRoom)

	for _, body := range []string{"one", "two", "three"} {
		_, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "u1@x", Body: body})
		require.NoError(t, err)
	}
	_, err := e.relay.SendUserMessage(ctx, Draft{Room: "c1", SenderEmail: "u2@x", Body: "not yours"})
	require.NoError(t, err)

	history, err := e.history.ListMessages(ctx, "c1", "u1@x")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Body)
	assert.Equal(t, "three", history[2].Body)
	assert.True(t, history[0].Timestamp.Before(history[1].Timestamp))
}
