package notifications

import (
	"context"
	"fmt"
	"time"

	"travelenda/internal/bookings"
	"travelenda/pkg/logger"

	"github.com/IBM/sarama"
)

// ProducerConfig contains configuration for the booking event producer
type ProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	Timeout          time.Duration
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
	// SendTimeout bounds how long Publish waits for the broker acknowledgement
	SendTimeout time.Duration
}

// DefaultProducerConfig returns a default producer configuration
func DefaultProducerConfig(brokers []string, topic string) ProducerConfig {
	return ProducerConfig{
		Brokers:          brokers,
		Topic:            topic,
		RetryMax:         3,
		Timeout:          10 * time.Second,
		RequiredAcks:     sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
		SendTimeout:      3 * time.Second,
	}
}

func (c ProducerConfig) toSarama() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = c.RequiredAcks
	saramaConfig.Producer.Compression = c.CompressionType
	saramaConfig.Producer.Retry.Max = c.RetryMax
	saramaConfig.Producer.Timeout = c.Timeout
	saramaConfig.Producer.Idempotent = c.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = c.MaxMessageBytes

	// Idempotent producers need a single in-flight request and a broker version that supports them.
	if c.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
		saramaConfig.Version = sarama.V2_1_0_0
	}

	// Hash partitioning keeps every event of a booking on one partition, in order.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	return saramaConfig
}

// KafkaPublisher publishes booking lifecycle events. It implements bookings.Publisher.
type KafkaPublisher struct {
	producer    sarama.SyncProducer
	topic       string
	sendTimeout time.Duration
	log         *logger.Logger
}

type sendResult struct {
	partition int32
	offset    int64
	err       error
}

// NewKafkaPublisher connects a sync producer to the configured brokers
func NewKafkaPublisher(config ProducerConfig, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(config.Brokers, config.toSarama())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	publisher := NewKafkaPublisherWithProducer(producer, config.Topic, log)
	if config.SendTimeout > 0 {
		publisher.sendTimeout = config.SendTimeout
	}
	return publisher, nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.GetDefault()
	}
	return &KafkaPublisher{producer: producer, topic: topic, sendTimeout: 3 * time.Second, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event bookings.Event) error {
	message, err := encodeEvent(p.topic, event)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()

	// The producer keeps retrying in the background if we stop waiting
	done := make(chan sendResult, 1)
	go func() {
		partition, offset, err := p.producer.SendMessage(message)
		done <- sendResult{partition: partition, offset: offset, err: err}
	}()

	var result sendResult
	select {
	case result = <-done:
	case <-sendCtx.Done():
		return fmt.Errorf("booking event %s not acknowledged: %w", event.BookingID, sendCtx.Err())
	}
	if result.err != nil {
		return fmt.Errorf("failed to send booking event to Kafka: %w", result.err)
	}
	partition, offset := result.partition, result.offset

	p.log.Info("📤 Booking event published",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"type", string(event.Type),
		"booking_id", event.BookingID,
	)
	return nil
}

// Close closes the Kafka producer
func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	p.log.Info("📤 Kafka booking producer closed")
	return nil
}
