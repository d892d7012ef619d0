package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const defaultChannel = "gomoldova:realtime"

// RedisBridge рассылает события между экземплярами сервиса через Redis pub/sub.
// Publish отправляет в канал, Run принимает из канала и раздает в локальный Hub,
// в том числе события, опубликованные этим же экземпляром.
// Пока подписка не активна, события раздаются только локальному Hub.
type RedisBridge struct {
	rdb     *redis.Client
	hub     *Hub
	channel string
	log     *logrus.Logger
	live    atomic.Bool
}

func NewRedisBridge(rdb *redis.Client, hub *Hub, log *logrus.Logger) *RedisBridge {
	return &RedisBridge{rdb: rdb, hub: hub, channel: defaultChannel, log: log}
}

func (b *RedisBridge) Publish(ctx context.Context, ev Event) error {
	if !b.live.Load() {
		b.hub.Dispatch(ev)
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal realtime event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		// свои клиенты получат событие хотя бы с этого экземпляра
		b.hub.Dispatch(ev)
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Live true, пока Run держит подписку на канал
func (b *RedisBridge) Live() bool {
	return b.live.Load()
}

// Run блокируется до отмены ctx
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.live.Store(true)
	defer b.live.Store(false)
	b.log.WithField("channel", b.channel).Info("Подписка на realtime канал Redis")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				b.log.WithError(err).Warn("Некорректное realtime событие")
				continue
			}
			b.hub.Dispatch(ev)
		}
	}
}

func decodeEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, err
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("пустой тип события")
	}
	return ev, nil
}
