package tools

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWaitBoard(t *testing.T) (*RedisWaitBoard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	board := NewRedisWaitBoard(client)
	board.now = func() time.Time { return time.Unix(1_790_000_000, 0) }
	return board, mr
}

func TestRedisWaitBoardSetAndStatus(t *testing.T) {
	board, _ := newTestWaitBoard(t)
	ctx := context.Background()

	info, err := board.Status(ctx, "c1", "내과")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Waiting)

	require.NoError(t, board.Set(ctx, "c1", WaitInfo{Department: "내과", Waiting: 4, MinutesPerPatient: 15}))
	info, err = board.Status(ctx, "c1", "내과")
	require.NoError(t, err)
	assert.Equal(t, 4, info.Waiting)
	assert.Equal(t, 60, info.EstimatedMinutes())
	assert.Equal(t, int64(1_790_000_000), info.UpdatedAt.Unix())
}

func TestRedisWaitBoardAdjustClampsAtZero(t *testing.T) {
	board, _ := newTestWaitBoard(t)
	ctx := context.Background()

	n, err := board.Adjust(ctx, "c1", "피부과", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = board.Adjust(ctx, "c1", "피부과", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	info, err := board.Status(ctx, "c1", "피부과")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Waiting)
	assert.Equal(t, 20, WaitInfo{Waiting: 2}.EstimatedMinutes(), "default minutes per patient")
}
