package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"travelenda/internal/bookings"
	"travelenda/pkg/logger"

	"github.com/IBM/sarama"
)

// Handler reacts to booking events. Handlers must be idempotent: delivery is at-least-once.
type Handler interface {
	Name() string
	Handles(eventType bookings.EventType) bool
	Handle(ctx context.Context, event bookings.Event) error
}

type ConsumerConfig struct {
	Brokers           []string
	GroupID           string
	Topics            []string
	SessionTimeout    time.Duration
	Heartbeat         time.Duration
	MaxProcessingTime time.Duration
	OffsetOldest      bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

func DefaultConsumerConfig(brokers []string, groupID, topic string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topics:            []string{topic},
		SessionTimeout:    30 * time.Second,
		Heartbeat:         3 * time.Second,
		MaxProcessingTime: 5 * time.Minute,
		OffsetOldest:      true,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
	}
}

// Dispatcher runs every matching handler for an event, retrying each with exponential backoff.
type Dispatcher struct {
	handlers   []Handler
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func NewDispatcher(handlers []Handler, maxRetries int, backoff time.Duration, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Dispatcher{handlers: handlers, maxRetries: maxRetries, backoff: backoff, log: log}
}

// Dispatch returns the joined errors of the handlers that still failed after their retries.
func (d *Dispatcher) Dispatch(ctx context.Context, event bookings.Event) error {
	var errs []error
	for _, h := range d.handlers {
		if !h.Handles(event.Type) {
			continue
		}
		if err := d.executeWithRetry(ctx, h, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) executeWithRetry(ctx context.Context, h Handler, event bookings.Event) error {
	for attempt := 0; ; attempt++ {
		err := h.Handle(ctx, event)
		if err == nil {
			if attempt > 0 {
				d.log.Info("📥 Handler succeeded after retries", "handler", h.Name(), "booking_id", event.BookingID, "retries", attempt)
			}
			return nil
		}

		if attempt >= d.maxRetries {
			return err
		}

		delay := d.backoff * time.Duration(1<<attempt)
		d.log.Warn("📥 Retrying handler", "handler", h.Name(), "booking_id", event.BookingID, "attempt", attempt+1, "delay", delay.String(), "error", err.Error())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// KafkaConsumer feeds booking events from a consumer group into a Dispatcher.
type KafkaConsumer struct {
	group      sarama.ConsumerGroup
	topics     []string
	dispatcher *Dispatcher
	log        *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewKafkaConsumer(config ConsumerConfig, dispatcher *Dispatcher, log *logger.Logger) (*KafkaConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &KafkaConsumer{
		group:      group,
		topics:     config.Topics,
		dispatcher: dispatcher,
		log:        log,
	}, nil
}

// Start launches numWorkers consume loops. They stop when ctx is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context, numWorkers int) {
	ctx, c.cancel = context.WithCancel(ctx)
	if numWorkers <= 0 {
		numWorkers = 1
	}

	c.log.Info("📥 Starting booking event consumers", "workers", numWorkers, "topics", c.topics)

	go c.handleErrors()

	for i := 0; i < numWorkers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}
}

func (c *KafkaConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &ConsumerGroupHandler{dispatcher: c.dispatcher, workerID: workerID, log: c.log}

	for {
		if err := c.group.Consume(ctx, c.topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			c.log.Error("📥 Error consuming booking events", "worker", workerID, "error", err.Error())
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			c.log.Info("📥 Consumer worker shutting down", "worker", workerID)
			return
		}
	}
}

func (c *KafkaConsumer) handleErrors() {
	for err := range c.group.Errors() {
		c.log.Error("📥 Consumer group error", "error", err.Error())
	}
}

// Stop cancels the workers, waits for them and closes the group
func (c *KafkaConsumer) Stop() error {
	c.log.Info("📥 Stopping booking event consumer...")
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	c.log.Info("📥 Booking event consumer stopped")
	return nil
}

// ConsumerGroupHandler implements sarama.ConsumerGroupHandler
type ConsumerGroupHandler struct {
	dispatcher *Dispatcher
	workerID   int
	log        *logger.Logger
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.log.Debug("📥 Consumer group session started", "worker", h.workerID)
	return nil
}

func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.log.Debug("📥 Consumer group session ended", "worker", h.workerID)
	return nil
}

func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			h.processMessage(session.Context(), message)
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// processMessage never blocks the partition: undecodable records and handlers that
// exhausted their retries are logged and skipped.
func (h *ConsumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) {
	event, err := DecodeEvent(message)
	if err != nil {
		h.log.Error("📥 Dropping malformed booking event",
			"topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err.Error())
		return
	}
	if event.Type == "" {
		event.Type = bookings.EventType(header(message, HeaderEventType))
	}

	if err := h.dispatcher.Dispatch(ctx, event); err != nil {
		h.log.Error("📥 Booking event handling failed",
			"worker", h.workerID, "type", string(event.Type), "booking_id", event.BookingID, "error", err.Error())
		return
	}
	h.log.Debug("📥 Booking event handled", "worker", h.workerID, "type", string(event.Type), "booking_id", event.BookingID)
}
