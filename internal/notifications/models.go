package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"travelenda/internal/bookings"

	"github.com/IBM/sarama"
)

// Kafka record headers set on every booking event.
const (
	HeaderEventType  = "event_type"
	HeaderBookingID  = "booking_id"
	HeaderVersion    = "version"
	HeaderProducer   = "producer"
	HeaderOccurredAt = "occurred_at"

	messageVersion = "1"
	producerName   = "travelenda-bookings"
)

func eventHeaders(event bookings.Event) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte(HeaderEventType), Value: []byte(event.Type)},
		{Key: []byte(HeaderBookingID), Value: []byte(event.BookingID)},
		{Key: []byte(HeaderVersion), Value: []byte(messageVersion)},
		{Key: []byte(HeaderProducer), Value: []byte(producerName)},
		{Key: []byte(HeaderOccurredAt), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}
}

func encodeEvent(topic string, event bookings.Event) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking event: %w", err)
	}

	return &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(event.BookingID),
		Value:     sarama.ByteEncoder(payload),
		Headers:   eventHeaders(event),
		Timestamp: event.OccurredAt,
	}, nil
}

// DecodeEvent parses a consumed record back into a booking event.
func DecodeEvent(message *sarama.ConsumerMessage) (bookings.Event, error) {
	var event bookings.Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal booking event: %w", err)
	}
	if event.BookingID == "" {
		event.BookingID = string(message.Key)
	}
	return event, nil
}

func header(message *sarama.ConsumerMessage, key string) string {
	for _, h := range message.Headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}
