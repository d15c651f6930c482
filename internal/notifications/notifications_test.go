package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"travelenda/internal/bookings"
	"travelenda/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	sarama.SyncProducer
	sent []*sarama.ProducerMessage
	err  error
}

func (p *fakeProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if p.err != nil {
		return 0, 0, p.err
	}
	p.sent = append(p.sent, msg)
	return 0, int64(len(p.sent) - 1), nil
}

func (p *fakeProducer) Close() error { return nil }

func confirmedEvent() bookings.Event {
	id := uuid.New()
	return bookings.Event{
		Type:       bookings.EventBookingConfirmed,
		BookingID:  id.String(),
		OccurredAt: time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC),
		Booking: bookings.Booking{
			ID:                 id,
			ConfirmationNumber: "LITE-42",
			Status:             bookings.StatusConfirmed,
			HotelName:          "Hotel Le Marais",
			Checkin:            time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			Checkout:           time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC),
			Adults:             2,
			Guest:              bookings.Guest{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
			Pricing:            bookings.Pricing{RoomRate: 150, Nights: 3, Rooms: 1, Subtotal: 450, Taxes: 54, Fees: 25, Total: 529, Currency: "USD"},
		},
	}
}

func TestKafkaPublisher_KeysByBookingID(t *testing.T) {
	producer := &fakeProducer{}
	publisher := NewKafkaPublisherWithProducer(producer, "booking-events", logger.Discard())
	event := confirmedEvent()

	require.NoError(t, publisher.Publish(context.Background(), event))

	require.Len(t, producer.sent, 1)
	msg := producer.sent[0]
	assert.Equal(t, "booking-events", msg.Topic)

	key, err := msg.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, event.BookingID, string(key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[string(h.Key)] = string(h.Value)
	}
	assert.Equal(t, "booking.confirmed", headers[HeaderEventType])
	assert.Equal(t, event.BookingID, headers[HeaderBookingID])

	value, err := msg.Value.Encode()
	require.NoError(t, err)
	decoded, err := DecodeEvent(&sarama.ConsumerMessage{Value: value})
	require.NoError(t, err)
	assert.Equal(t, "LITE-42", decoded.Booking.ConfirmationNumber)
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	publisher := NewKafkaPublisherWithProducer(&fakeProducer{err: sarama.ErrOutOfBrokers}, "t", logger.Discard())

	err := publisher.Publish(context.Background(), confirmedEvent())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

type stalledProducer struct {
	sarama.SyncProducer
	unblock chan struct{}
}

func (p *stalledProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	<-p.unblock
	return 0, 0, nil
}

func TestKafkaPublisher_StopsWaitingOnSlowBroker(t *testing.T) {
	producer := &stalledProducer{unblock: make(chan struct{})}
	defer close(producer.unblock)
	publisher := NewKafkaPublisherWithProducer(producer, "t", logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := publisher.Publish(ctx, confirmedEvent())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

type recordingHandler struct {
	mu       sync.Mutex
	name     string
	types    []bookings.EventType
	failures int
	calls    int
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Handles(t bookings.EventType) bool {
	for _, candidate := range h.types {
		if candidate == t {
			return true
		}
	}
	return false
}

func (h *recordingHandler) Handle(ctx context.Context, event bookings.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failures {
		return errors.New("temporary failure")
	}
	return nil
}

func TestDispatcher(t *testing.T) {
	mailer := &recordingHandler{name: "mail", types: []bookings.EventType{bookings.EventBookingConfirmed}, failures: 2}
	archive := &recordingHandler{name: "archive", types: []bookings.EventType{bookings.EventBookingCompleted}}
	broken := &recordingHandler{name: "broken", types: []bookings.EventType{bookings.EventBookingConfirmed}, failures: 100}

	dispatcher := NewDispatcher([]Handler{mailer, archive, broken}, 2, time.Millisecond, logger.Discard())
	err := dispatcher.Dispatch(context.Background(), confirmedEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.NotContains(t, err.Error(), "mail:")
	assert.Equal(t, 3, mailer.calls)
	assert.Equal(t, 0, archive.calls)
	assert.Equal(t, 3, broken.calls)
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	broken := &recordingHandler{name: "broken", types: []bookings.EventType{bookings.EventBookingConfirmed}, failures: 100}
	dispatcher := NewDispatcher([]Handler{broken}, 5, time.Hour, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := dispatcher.Dispatch(ctx, confirmedEvent())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, broken.calls)
}

func TestConsumerGroupHandler_SkipsMalformedRecords(t *testing.T) {
	handler := &recordingHandler{name: "mail", types: []bookings.EventType{bookings.EventBookingConfirmed}}
	cgh := &ConsumerGroupHandler{dispatcher: NewDispatcher([]Handler{handler}, 0, 0, logger.Discard()), log: logger.Discard()}

	cgh.processMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{not json")})
	assert.Equal(t, 0, handler.calls)

	payload, err := json.Marshal(confirmedEvent())
	require.NoError(t, err)
	cgh.processMessage(context.Background(), &sarama.ConsumerMessage{Value: payload})
	assert.Equal(t, 1, handler.calls)
}

type fakeSender struct {
	sent []Email
}

func (s *fakeSender) Send(ctx context.Context, email Email) error {
	s.sent = append(s.sent, email)
	return nil
}

func TestConfirmationMailer(t *testing.T) {
	sender := &fakeSender{}
	mailer := NewConfirmationMailer(sender, "https://travelenda.example/")
	event := confirmedEvent()

	require.NoError(t, mailer.Handle(context.Background(), event))

	require.Len(t, sender.sent, 1)
	email := sender.sent[0]
	assert.Equal(t, "jane@example.com", email.To)
	assert.Equal(t, "Jane Doe", email.ToName)
	assert.Equal(t, "Booking confirmed: LITE-42 at Hotel Le Marais", email.Subject)
	assert.Contains(t, email.Text, "LITE-42")
	assert.Contains(t, email.Text, "$529.00")
	assert.Contains(t, email.Text, "https://travelenda.example/bookings/"+event.BookingID)

	assert.False(t, mailer.Handles(bookings.EventBookingCompleted))
}

func TestConfirmationMailer_NoGuestEmail(t *testing.T) {
	sender := &fakeSender{}
	event := confirmedEvent()
	event.Booking.Guest.Email = ""

	require.NoError(t, NewConfirmationMailer(sender, "").Handle(context.Background(), event))
	assert.Empty(t, sender.sent)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
}

func (p *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.input = params
	raw, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	p.body = string(raw)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archiver(t *testing.T) {
	putter := &fakePutter{}
	archiver := NewS3Archiver(putter, "travelenda-confirmations")
	event := confirmedEvent()

	require.NoError(t, archiver.Handle(context.Background(), event))

	require.NotNil(t, putter.input)
	assert.Equal(t, "travelenda-confirmations", *putter.input.Bucket)
	assert.Equal(t, "confirmations/booking-LITE-42.txt", *putter.input.Key)
	assert.Equal(t, "confirmed", putter.input.Metadata["status"])
	assert.True(t, strings.Contains(putter.body, "Hotel Le Marais"))
}
