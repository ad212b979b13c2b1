package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultMinutesPerPatient = 10

// WaitInfo is the current queue for one department.
type WaitInfo struct {
	Department        string
	Waiting           int
	MinutesPerPatient int
	UpdatedAt         time.Time
}

// EstimatedMinutes is the expected wait for a patient joining now.
func (w WaitInfo) EstimatedMinutes() int {
	per := w.MinutesPerPatient
	if per <= 0 {
		per = defaultMinutesPerPatient
	}
	return w.Waiting * per
}

// WaitBoard reports department queues.
type WaitBoard interface {
	Status(ctx context.Context, clinicID, department string) (WaitInfo, error)
}

// RedisWaitBoard keeps one hash per clinic department, updated by the front desk.
type RedisWaitBoard struct {
	redis  *redis.Client
	tracer trace.Tracer
	now    func() time.Time
}

func NewRedisWaitBoard(client *redis.Client) *RedisWaitBoard {
	if client == nil {
		panic("tools: redis client cannot be nil")
	}
	return &RedisWaitBoard{
		redis:  client,
		tracer: otel.Tracer("reservation.internal.tools.waitboard"),
		now:    time.Now,
	}
}

func waitKey(clinicID, department string) string {
	return fmt.Sprintf("waitboard:%s:%s", clinicID, department)
}

// Status reads the queue; a department with no entry has nobody waiting.
func (b *RedisWaitBoard) Status(ctx context.Context, clinicID, department string) (WaitInfo, error) {
	ctx, span := b.tracer.Start(ctx, "tools.waitboard.status")
	defer span.End()

	info := WaitInfo{Department: department}
	fields, err := b.redis.HGetAll(ctx, waitKey(clinicID, department)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		return info, fmt.Errorf("tools: load wait board: %w", err)
	}
	info.Waiting, _ = strconv.Atoi(fields["waiting"])
	info.MinutesPerPatient, _ = strconv.Atoi(fields["minutes_per_patient"])
	if ts, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		info.UpdatedAt = time.Unix(ts, 0).UTC()
	}
	return info, nil
}

// Set overwrites the queue for a department.
func (b *RedisWaitBoard) Set(ctx context.Context, clinicID string, info WaitInfo) error {
	ctx, span := b.tracer.Start(ctx, "tools.waitboard.set")
	defer span.End()

	err := b.redis.HSet(ctx, waitKey(clinicID, info.Department),
		"waiting", info.Waiting,
		"minutes_per_patient", info.MinutesPerPatient,
		"updated_at", b.now().Unix(),
	).Err()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("tools: set wait board: %w", err)
	}
	return nil
}

// Adjust moves the waiting count by delta and never lets it go negative.
func (b *RedisWaitBoard) Adjust(ctx context.Context, clinicID, department string, delta int) (int, error) {
	ctx, span := b.tracer.Start(ctx, "tools.waitboard.adjust")
	defer span.End()

	key := waitKey(clinicID, department)
	pipe := b.redis.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, "waiting", int64(delta))
	pipe.HSet(ctx, key, "updated_at", b.now().Unix())
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("tools: adjust wait board: %w", err)
	}
	n := incr.Val()
	if n < 0 {
		if err := b.redis.HSet(ctx, key, "waiting", 0).Err(); err != nil {
			span.RecordError(err)
			return 0, fmt.Errorf("tools: clamp wait board: %w", err)
		}
		n = 0
	}
	return int(n), nil
}
