package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"skillenergy/internal/config"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// Event is the envelope every domain event is published in.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// PublishEvent marshals an Event and publishes it to topic.
func PublishEvent(ctx context.Context, p Publisher, topic, eventType string, data any) (string, error) {
	payload, err := json.Marshal(Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return p.Publish(ctx, topic, payload)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
// Topic handles are reused across publishes and stopped on Close.
type PubSubPublisher struct {
	client *pubsub.Client

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
	closed bool
}

// ErrPublisherClosed is returned by Publish once Close has been called.
var ErrPublisherClosed = errors.New("publisher is closed")

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("failed to create Pub/Sub client: GCP project ID is empty")
	}
	var opts []option.ClientOption
	if cfg.GCPCredentialsFile != "" && cfg.PubSubEmulatorHost == "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client, topics: make(map[string]*pubsub.Topic)}, nil
}

func (p *PubSubPublisher) topic(name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}
	t, ok := p.topics[name]
	if !ok {
		t = p.client.Topic(name)
		p.topics[name] = t
	}
	return t, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	t, err := p.topic(topic)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	result := t.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}

// Close flushes pending messages and releases the client. Calls after the first are no-ops.
func (p *PubSubPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, t := range p.topics {
		t.Stop()
	}
	p.topics = nil
	p.mu.Unlock()
	return p.client.Close()
}

// LogPublisher writes messages to the log instead of a broker. It is used when no GCP project is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "LogPublisher").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.logger.Debug().Str("topic", topic).RawJSON("payload", payload).Msg("Event published")
	return "", nil
}
