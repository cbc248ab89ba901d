package stock

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventWriter is the slice of kafka.Writer the poller uses; tests swap in
// a fake.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains committed sale events to Kafka. Publishing is at
// least once: an event is only marked processed after the broker accepted
// it, so consumers must tolerate duplicates.
type OutboxPoller struct {
	tick   time.Duration
	store  Store
	writer EventWriter
}

func NewOutboxPoller(store Store, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "sales-committed",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{tick: time.Second, store: store, writer: w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.publishPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() {
	if c, ok := p.writer.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.Printf("error closing writer: %v", err)
		}
	}
}

func (p *OutboxPoller) publishPending(ctx context.Context) {
	events, err := p.store.UnprocessedEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		msg := kafka.Message{
			Key:   []byte(event.AggregateID),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
			},
		}
		if e2 := p.writer.WriteMessages(ctx, msg); e2 != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, e2)
			continue
		}
		if e2 := p.store.MarkEventProcessed(ctx, event.ID); e2 != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, e2)
		}
	}
}
