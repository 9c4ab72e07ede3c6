package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	kafka "github.com/segmentio/kafka-go"

	"github.com/riskdesk/fi-risk-engine/internal/errs"
)

// Producer publishes Ticks to the bus topic, keyed by curve type so
// each curve streams through a single partition in offset order.
type Producer struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewProducer builds a Producer against brokerAddr/topic.
func NewProducer(brokerAddr, topic string, log zerolog.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokerAddr),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 5 * time.Millisecond,
			Compression:  kafka.Snappy,
		},
		log: log.With().Str("component", "feed_producer").Logger(),
	}
}

// Produce serializes and publishes one tick.
func (p *Producer) Produce(ctx context.Context, tick Tick) error {
	value, err := json.Marshal(tick)
	if err != nil {
		return fmt.Errorf("%w: marshal tick: %v", errs.ErrBus, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tick.CurveType),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBus, err)
	}
	return nil
}

// Close flushes buffered messages and releases the writer.
func (p *Producer) Close() error {
	p.log.Info().Msg("closing feed producer")
	return p.writer.Close()
}
