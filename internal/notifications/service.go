package notifications

import (
	"context"
	"errors"
	"fmt"

	"travelenda/internal/bookings"
	"travelenda/internal/shared/config"
	"travelenda/pkg/logger"
)

// Service owns the booking event pipeline: the producer handed to the booking
// service and the consumer group that delivers emails and archives.
type Service struct {
	publisher bookings.Publisher
	producer  *KafkaPublisher
	consumer  *KafkaConsumer
	workers   int
	log       *logger.Logger
}

// NewService builds the pipeline from configuration. Without brokers it publishes nothing.
func NewService(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.GetDefault()
	}

	svc := &Service{publisher: bookings.NoopPublisher{}, workers: cfg.Kafka.Workers, log: log}
	if !cfg.KafkaEnabled() {
		log.Warn("⚠️ Kafka brokers not configured, booking notifications are disabled")
		return svc, nil
	}

	handlers, err := buildHandlers(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	producerConfig := DefaultProducerConfig(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic)
	producerConfig.SendTimeout = cfg.Kafka.SendTimeout
	producer, err := NewKafkaPublisher(producerConfig, log)
	if err != nil {
		return nil, err
	}
	svc.producer = producer
	svc.publisher = producer

	if len(handlers) == 0 {
		log.Warn("⚠️ No notification handlers configured, booking events are published but not consumed")
		return svc, nil
	}

	consumerCfg := DefaultConsumerConfig(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingTopic)
	dispatcher := NewDispatcher(handlers, consumerCfg.MaxRetries, consumerCfg.RetryBackoff, log)
	consumer, err := NewKafkaConsumer(consumerCfg, dispatcher, log)
	if err != nil {
		_ = producer.Close()
		return nil, err
	}
	svc.consumer = consumer

	return svc, nil
}

func buildHandlers(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]Handler, error) {
	var handlers []Handler

	if cfg.EmailEnabled() {
		sender, err := NewSMTPSender(SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
		}
		handlers = append(handlers, NewConfirmationMailer(sender, cfg.PublicBaseURL))
		log.Info("📧 Confirmation emails enabled", "smtp_host", cfg.Email.SMTPHost)
	}

	if cfg.AWS.S3Bucket != "" {
		client, err := NewS3Client(ctx, S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, NewS3Archiver(client, cfg.AWS.S3Bucket))
		log.Info("🗄️ Confirmation archive enabled", "bucket", cfg.AWS.S3Bucket)
	}

	return handlers, nil
}

// Publisher is what the booking service publishes through.
func (s *Service) Publisher() bookings.Publisher {
	return s.publisher
}

// Start launches the consumer workers, if any.
func (s *Service) Start(ctx context.Context) {
	if s.consumer != nil {
		s.consumer.Start(ctx, s.workers)
	}
}

// Stop shuts the consumer down before closing the producer
func (s *Service) Stop() error {
	var errs []error
	if s.consumer != nil {
		errs = append(errs, s.consumer.Stop())
	}
	if s.producer != nil {
		errs = append(errs, s.producer.Close())
	}
	return errors.Join(errs...)
}
