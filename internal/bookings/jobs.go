package bookings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"travelenda/pkg/logger"
)

// JobProcessor runs background maintenance for bookings
type JobProcessor struct {
	service Service
	config  *JobConfig
	log     *logger.Logger
	done    chan struct{}
	stop    sync.Once
	now     func() time.Time
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	CompleteStaysInterval time.Duration
	BatchSize             int
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		CompleteStaysInterval: time.Hour,
		BatchSize:             200,
	}
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, config *JobConfig, log *logger.Logger) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultJobConfig().BatchSize
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &JobProcessor{
		service: service,
		config:  config,
		log:     log,
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start starts all background jobs
func (jp *JobProcessor) Start(ctx context.Context) {
	go jp.startStayCompleter(ctx)
	jp.log.Info("Booking background jobs started",
		slog.Duration("complete_stays_interval", jp.config.CompleteStaysInterval),
	)
}

// Stop stops all background jobs
func (jp *JobProcessor) Stop() {
	jp.stop.Do(func() {
		close(jp.done)
		jp.log.Info("Booking background jobs stopped")
	})
}

func (jp *JobProcessor) startStayCompleter(ctx context.Context) {
	ticker := time.NewTicker(jp.config.CompleteStaysInterval)
	defer ticker.Stop()

	// Run immediately on startup
	jp.completeStays(ctx)

	for {
		select {
		case <-ticker.C:
			jp.completeStays(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// completeStays drains finished stays batch by batch
func (jp *JobProcessor) completeStays(ctx context.Context) int {
	total := 0
	for {
		completed, err := jp.service.CompleteFinishedStays(ctx, jp.now(), jp.config.BatchSize)
		total += completed
		if err != nil {
			jp.log.ErrorWithContext(ctx, "Error completing finished stays", err, nil)
			break
		}
		if completed < jp.config.BatchSize {
			break
		}
	}

	if total > 0 {
		jp.log.InfoContext(ctx, "Completed finished stays", slog.Int("count", total))
	}
	return total
}

// GetJobStatus returns the status of background jobs
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	status := "running"
	select {
	case <-jp.done:
		status = "stopped"
	default:
	}
	return map[string]interface{}{
		"complete_stays_interval": jp.config.CompleteStaysInterval.String(),
		"batch_size":              jp.config.BatchSize,
		"status":                  status,
	}
}
