package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/cache"
	"github.com/yoockh/prepwise/internal/models"
	mongorepo "github.com/yoockh/prepwise/internal/repositories/mongo"
)

const DefaultEventStream = "session:events"

// RedisEventQueue appends session events to a capped Redis stream.
type RedisEventQueue struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisEventQueue(rdb *redis.Client, stream string) *RedisEventQueue {
	if stream == "" {
		stream = DefaultEventStream
	}
	return &RedisEventQueue{rdb: rdb, stream: stream, maxLen: 100_000}
}

func (q *RedisEventQueue) Enqueue(ctx context.Context, e *models.SessionEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"session_id": e.SessionID,
			"event":      string(b),
		},
	}).Err()
}

// EventWorkerPool drains the event stream into Mongo and republishes each
// event on the session's status channel for websocket subscribers.
type EventWorkerPool struct {
	Redis      *redis.Client
	Events     mongorepo.EventRepository
	Publisher  cache.Publisher
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *EventWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Events == nil || p.Publisher == nil {
		return errors.New("EventWorkerPool missing dependency: Redis/Events/Publisher must be set")
	}
	p.defaults()

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *EventWorkerPool) defaults() {
	if p.Stream == "" {
		p.Stream = DefaultEventStream
	}
	if p.Group == "" {
		p.Group = "event-writers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
}

func (p *EventWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    50,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("event stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *EventWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	raw, _ := msg.Values["event"].(string)
	if raw == "" {
		return
	}
	log := p.Logger.WithField("redis_id", msg.ID)

	var e models.SessionEvent
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.SessionID == "" {
		log.WithError(err).Warn("malformed session event skipped")
		return
	}
	log = log.WithFields(logrus.Fields{"session_id": e.SessionID, "step": e.Step, "outcome": e.Outcome})

	if err := p.Events.Insert(ctx, &e); err != nil {
		log.WithError(err).Error("session event insert failed")
	}
	if err := p.Publisher.Publish(ctx, cache.StatusChannel(e.SessionID), e); err != nil {
		log.WithError(err).Warn("session event publish failed")
	}
	if e.Degraded {
		log.WithField("degraded", true).Warn("step degraded")
	}
}
