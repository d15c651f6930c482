package notifications

import (
	"context"
	"fmt"
	"strings"

	"travelenda/internal/bookings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const archivePrefix = "confirmations/"

// ObjectPutter is the part of the S3 client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds the archive bucket and credentials. Empty keys fall back to the default chain.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// NewS3Client loads AWS configuration for the archive bucket
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// S3Archiver stores the latest confirmation document of every booking.
type S3Archiver struct {
	client ObjectPutter
	bucket string
}

func NewS3Archiver(client ObjectPutter, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket}
}

func (a *S3Archiver) Name() string { return "s3_archive" }

func (a *S3Archiver) Handles(eventType bookings.EventType) bool {
	switch eventType {
	case bookings.EventBookingConfirmed, bookings.EventBookingCancelled, bookings.EventBookingCompleted:
		return true
	}
	return false
}

// Handle overwrites the object, so redelivered events are harmless.
func (a *S3Archiver) Handle(ctx context.Context, event bookings.Event) error {
	b := event.Booking
	key := ArchiveKey(&b)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(bookings.ExportText(&b)),
		ContentType: aws.String("text/plain; charset=utf-8"),
		Metadata: map[string]string{
			"booking-id": b.ID.String(),
			"status":     b.Status.String(),
			"event":      string(event.Type),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

// ArchiveKey is the object key of a booking's confirmation document.
func ArchiveKey(b *bookings.Booking) string {
	return archivePrefix + bookings.ExportFilename(b)
}
