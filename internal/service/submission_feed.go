package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/observability"
)

const feedBufferSize = 16

// FeedFilter narrows the events a subscriber receives. Empty fields match everything.
type FeedFilter struct {
	StudentID string
	Status    string
}

func (f FeedFilter) matches(event dto.SubmissionEvent) bool {
	if f.StudentID != "" && f.StudentID != event.Submission.StudentID {
		return false
	}
	if f.Status != "" && f.Status != event.Submission.Status {
		return false
	}
	return true
}

// SubmissionFeed pushes submission changes to live subscribers, across nodes when a broker is configured.
type SubmissionFeed interface {
	Publish(ctx context.Context, event dto.SubmissionEvent)
	Subscribe(filter FeedFilter) (<-chan dto.SubmissionEvent, func())
	Start(ctx context.Context)
}

type submissionFeed struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *feedBroker
	nodeID       string
}

type feedEnvelope struct {
	Source string              `json:"source"`
	Event  dto.SubmissionEvent `json:"event"`
	SentAt time.Time           `json:"sent_at"`
}

type feedBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.SubmissionEvent]FeedFilter
}

// NewSubmissionFeed constructs a feed. Redis and NATS are optional fan-out transports.
func NewSubmissionFeed(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) SubmissionFeed {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":submissions"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".submissions"
	}

	return &submissionFeed{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "submission_feed").Logger(),
		broker:       &feedBroker{subscribers: make(map[chan dto.SubmissionEvent]FeedFilter)},
		nodeID:       uuid.NewString(),
	}
}

func (f *submissionFeed) Start(ctx context.Context) {
	if f.redis != nil && f.redisChannel != "" {
		go f.consumeRedis(ctx)
	}
	if f.nats != nil && f.natsSubject != "" {
		go f.consumeNATS(ctx)
	}
}

func (f *submissionFeed) Publish(ctx context.Context, event dto.SubmissionEvent) {
	f.deliver(event)

	if err := f.fanOut(ctx, event); err != nil {
		f.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to fan out submission event")
	}
}

func (f *submissionFeed) Subscribe(filter FeedFilter) (<-chan dto.SubmissionEvent, func()) {
	channel := make(chan dto.SubmissionEvent, feedBufferSize)

	f.broker.subscribe(channel, filter)
	observability.FeedSubscribers().Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.broker.unsubscribe(channel)
			observability.FeedSubscribers().Dec()
		})
	}

	return channel, cancel
}

func (f *submissionFeed) deliver(event dto.SubmissionEvent) {
	observability.FeedEvents().WithLabelValues(event.Type).Inc()
	f.broker.broadcast(event)
}

func (f *submissionFeed) fanOut(ctx context.Context, event dto.SubmissionEvent) error {
	if (f.redis == nil || f.redisChannel == "") && (f.nats == nil || f.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(feedEnvelope{
		Source: f.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if f.redis != nil && f.redisChannel != "" {
		if err := f.redis.Publish(ctx, f.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if f.nats != nil && f.natsSubject != "" {
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (f *submissionFeed) consumeRedis(ctx context.Context) {
	pubsub := f.redis.Subscribe(ctx, f.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			f.logger.Error().Err(err).Msg("submission redis subscription closed")
			return
		}
		f.handleEnvelope([]byte(msg.Payload))
	}
}

func (f *submissionFeed) consumeNATS(ctx context.Context) {
	// Every node needs every event, so this is a plain subscription rather than a queue group.
	sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
		f.handleEnvelope(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to nats submissions subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain submission nats subscription")
		}
	}()
}

func (f *submissionFeed) handleEnvelope(payload []byte) {
	var envelope feedEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		f.logger.Warn().Err(err).Msg("invalid submission event payload")
		return
	}

	if envelope.Source == f.nodeID {
		return
	}

	f.deliver(envelope.Event)
}

func (b *feedBroker) subscribe(ch chan dto.SubmissionEvent, filter FeedFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[ch] = filter
}

func (b *feedBroker) unsubscribe(ch chan dto.SubmissionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *feedBroker) broadcast(event dto.SubmissionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch, filter := range b.subscribers {
		if !filter.matches(event) {
			continue
		}
		select {
		case ch <- event:
		default:
		}
	}
}
