package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultDeliveryTimeout bounds how long one transition may wait for the broker.
const DefaultDeliveryTimeout = 5 * time.Second

// KafkaPublisher produces transitions as JSON records keyed by record id.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(DefaultDeliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, timeout: DefaultDeliveryTimeout}, nil
}

// Emit waits at most the delivery timeout for the broker, whatever ctx allows.
// A record still buffered when Emit gives up is failed by the client later.
func (p *KafkaPublisher) Emit(ctx context.Context, t Transition) error {
	value, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transition: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(t.RecordID),
		Value: value,
	}
	done := make(chan error, 1)
	p.client.Produce(ctx, rec, func(_ *kgo.Record, err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("produce transition: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("produce transition: %w", ctx.Err())
	}
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
