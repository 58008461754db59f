package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/floodbar/internal/domain"
)

// Kafka publishes every order event as JSON, keyed by order id so one
// order's events stay ordered within a partition.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaWithProducer(producer, topic), nil
}

func NewKafkaWithProducer(p sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: p, topic: topic}
}

func (n *Kafka) Name() string { return "kafka" }

func (n *Kafka) Notify(_ context.Context, e domain.OrderEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	partition, offset, err := n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(e.Order.ID.String()),
		Value: sarama.ByteEncoder(b),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(e.Kind)},
		},
	})
	if err != nil {
		return err
	}
	log.Debug().Str("topic", n.topic).Int32("partition", partition).Int64("offset", offset).Str("kind", string(e.Kind)).Msg("event terkirim")
	return nil
}

func (n *Kafka) Close() error {
	return n.producer.Close()
}
