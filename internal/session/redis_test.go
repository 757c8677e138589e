package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbus/internal/clock"
	"smartbus/internal/domain"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestRedisStoreOpen(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	clk := clock.Fake(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	store := NewRedisStore(rdb, clk, time.Hour)
	store.newID = func() string { return "sess-1" }

	want := Session{
		ID:          "sess-1",
		AdminID:     1,
		Email:       "ops@volcano.rw",
		CompanyID:   2,
		CompanyName: "Volcano",
		OpenedAt:    clk.Now(),
		ExpiresAt:   clk.Now().Add(time.Hour),
	}

	mock.ExpectGet("admin_session_email:ops@volcano.rw").RedisNil()
	mock.ExpectSet("admin_session:sess-1", mustJSON(t, want), time.Hour).SetVal("OK")
	mock.ExpectSet("admin_session_email:ops@volcano.rw", "sess-1", time.Hour).SetVal("OK")
	mock.ExpectPublish(ChangedChannel, mustJSON(t, Change{Kind: Opened, Session: want})).SetVal(1)

	var seen []Change
	store.Subscribe(func(c Change) { seen = append(seen, c) })

	got, err := store.Open(context.Background(), Session{AdminID: 1, Email: "Ops@Volcano.rw", CompanyID: 2, CompanyName: "Volcano"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.Len(t, seen, 1)
	assert.Equal(t, Opened, seen[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreGetMissing(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewRedisStore(rdb, clock.Real(), time.Hour)

	mock.ExpectGet("admin_session:nope").RedisNil()

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, domain.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreCloseByEmail(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewRedisStore(rdb, clock.Real(), time.Hour)

	s := Session{ID: "sess-9", Email: "ops@volcano.rw", CompanyID: 2}

	mock.ExpectGet("admin_session_email:ops@volcano.rw").SetVal("sess-9")
	mock.ExpectGet("admin_session:sess-9").SetVal(mustJSON(t, s))
	mock.ExpectDel("admin_session:sess-9", "admin_session_email:ops@volcano.rw").SetVal(2)
	mock.ExpectPublish(ChangedChannel, mustJSON(t, Change{Kind: Closed, Session: s})).SetVal(0)

	require.NoError(t, store.CloseByEmail(context.Background(), "OPS@volcano.rw"))
	require.NoError(t, mock.ExpectationsWereMet())
}
