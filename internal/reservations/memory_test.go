package reservations

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumberFormat(t *testing.T) {
	n := NewNumber(time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(n, "R261020-"), n)
	assert.Len(t, n, len("R261020-ABCD"))
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(SeedDoctors())
	now := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)

	first := NewReservation(now)
	first.UserID = "u-1"
	first.Department = "내과"
	at := now.Add(24 * time.Hour)
	first.ScheduledFor = &at
	require.NoError(t, store.Create(ctx, first))

	second := NewReservation(now.Add(time.Minute))
	second.UserID = "u-1"
	second.Department = "피부과"
	second.ASAP = true
	require.NoError(t, store.Create(ctx, second))

	latest, err := store.Latest(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, second.Number, latest.Number)

	upcoming, err := store.ListUpcoming(ctx, "u-1", now)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, first.Number, upcoming[0].Number, "scheduled before unscheduled")

	latest.Department = "정형외과"
	require.NoError(t, store.Update(ctx, latest))
	got, err := store.GetByNumber(ctx, "u-1", second.Number)
	require.NoError(t, err)
	assert.Equal(t, "정형외과", got.Department)

	_, err = store.GetByNumber(ctx, "u-2", second.Number)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.Cancel(ctx, "u-1", first.Number)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Cancel(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Latest(ctx, "u-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, latest), ErrNotFound)
}

func TestMemoryStoreDirectory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(SeedDoctors())

	depts, err := store.Departments(ctx)
	require.NoError(t, err)
	assert.Contains(t, depts, "내과")

	docs, err := store.ListDoctors(ctx, "내과")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	doc, err := store.FindDoctor(ctx, "", "박지훈")
	require.NoError(t, err)
	assert.Equal(t, "정형외과", doc.Department)

	_, err = store.FindDoctor(ctx, "내과", "박지훈")
	assert.ErrorIs(t, err, ErrNotFound)
}
