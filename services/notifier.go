package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	deliveryTimeout = 2 * time.Minute
	claimBatch      = 100
)

// Notification is one alert message for a Telegram chat. VideoPath is a
// local temp file owned by the notification; delivery removes it.
type Notification struct {
	ChatID    string
	Text      string
	VideoPath string
}

// Dispatcher hands a notification off the request path.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// Sender is the Telegram side of delivery.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
	SendVideo(ctx context.Context, chatID, videoPath string) error
}

// Deliver sends the text and then the clip. Failures are logged, and the
// temp file is removed whatever happens.
func Deliver(ctx context.Context, sender Sender, n Notification, logger *zap.Logger) {
	defer removeTemp(n.VideoPath, logger)

	if err := sender.SendMessage(ctx, n.ChatID, n.Text); err != nil {
		logger.Warn("telegram message not delivered", zap.String("chat_id", n.ChatID), zap.Error(err))
	}
	if n.VideoPath == "" {
		return
	}
	if err := sender.SendVideo(ctx, n.ChatID, n.VideoPath); err != nil {
		logger.Warn("telegram video not delivered", zap.String("chat_id", n.ChatID), zap.Error(err))
	}
}

func removeTemp(path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove temp clip", zap.String("path", path), zap.Error(err))
	}
}

// LocalDispatcher delivers in a goroutine of the API process.
type LocalDispatcher struct {
	sender Sender
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewLocalDispatcher(sender Sender, logger *zap.Logger) *LocalDispatcher {
	return &LocalDispatcher{sender: sender, logger: logger}
}

func (d *LocalDispatcher) Dispatch(_ context.Context, n Notification) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		Deliver(ctx, d.sender, n, d.logger)
	}()
	return nil
}

// Wait blocks until every dispatched notification has been handled.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

// StreamDispatcher queues notifications on a Redis Stream for cmd/notifier.
type StreamDispatcher struct {
	client *redis.Client
	stream string
}

func NewStreamDispatcher(client *redis.Client, stream string) *StreamDispatcher {
	return &StreamDispatcher{client: client, stream: stream}
}

func (d *StreamDispatcher) Dispatch(ctx context.Context, n Notification) error {
	err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]interface{}{
			"chat_id":    n.ChatID,
			"text":       n.Text,
			"video_path": n.VideoPath,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("queueing notification: %w", err)
	}
	return nil
}

// StreamWorker consumes the notification stream as one member of a
// consumer group and acknowledges each entry after delivery.
type StreamWorker struct {
	client    *redis.Client
	stream    string
	group     string
	consumer  string
	claimIdle time.Duration
	sender    Sender
	logger    *zap.Logger
}

func NewStreamWorker(client *redis.Client, stream, group, consumer string, sender Sender, logger *zap.Logger) *StreamWorker {
	return &StreamWorker{
		client:    client,
		stream:    stream,
		group:     group,
		consumer:  consumer,
		claimIdle: deliveryTimeout,
		sender:    sender,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled. Entries left pending by a consumer
// that stopped before acknowledging are taken over once they have been idle
// for longer than a delivery can take.
func (w *StreamWorker) Run(ctx context.Context) error {
	if err := w.ensureGroup(ctx); err != nil {
		return err
	}

	var lastClaim time.Time
	for {
		if ctx.Err() != nil {
			return nil
		}

		if time.Since(lastClaim) >= w.claimIdle {
			if err := w.reclaim(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("reclaiming pending notifications", zap.Error(err))
			}
			lastClaim = time.Now()
		}

		streams, err := w.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.group,
			Consumer: w.consumer,
			Streams:  []string{w.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.logger.Error("reading notification stream", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				w.handle(ctx, msg)
			}
		}
	}
}

func (w *StreamWorker) handle(ctx context.Context, msg redis.XMessage) {
	n := notificationFromValues(msg.Values)
	if n.ChatID == "" {
		w.logger.Warn("dropping notification without chat id", zap.String("id", msg.ID))
		removeTemp(n.VideoPath, w.logger)
	} else {
		deliverCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		Deliver(deliverCtx, w.sender, n, w.logger)
		cancel()
	}

	if err := w.client.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
		w.logger.Error("acknowledging notification", zap.String("id", msg.ID), zap.Error(err))
	}
}

// reclaim claims and delivers pending entries idle for at least claimIdle.
func (w *StreamWorker) reclaim(ctx context.Context) error {
	start := "-"
	for {
		pending, err := w.client.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: w.stream,
			Group:  w.group,
			Start:  start,
			End:    "+",
			Count:  claimBatch,
		}).Result()
		if err != nil {
			return fmt.Errorf("listing pending notifications: %w", err)
		}

		ids := make([]string, 0, len(pending))
		for _, p := range pending {
			if p.Idle >= w.claimIdle {
				ids = append(ids, p.ID)
			}
		}
		if len(ids) > 0 {
			msgs, err := w.client.XClaim(ctx, &redis.XClaimArgs{
				Stream:   w.stream,
				Group:    w.group,
				Consumer: w.consumer,
				MinIdle:  w.claimIdle,
				Messages: ids,
			}).Result()
			if err != nil {
				return fmt.Errorf("claiming pending notifications: %w", err)
			}
			for _, msg := range msgs {
				w.logger.Info("redelivering pending notification", zap.String("id", msg.ID))
				w.handle(ctx, msg)
			}
		}

		if len(pending) < claimBatch {
			return nil
		}
		start = "(" + pending[len(pending)-1].ID
	}
}

func (w *StreamWorker) ensureGroup(ctx context.Context) error {
	err := w.client.XGroupCreateMkStream(ctx, w.stream, w.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group %s: %w", w.group, err)
	}
	return nil
}

func notificationFromValues(values map[string]interface{}) Notification {
	str := func(key string) string {
		if v, ok := values[key].(string); ok {
			return v
		}
		return ""
	}
	return Notification{
		ChatID:    str("chat_id"),
		Text:      str("text"),
		VideoPath: str("video_path"),
	}
}
