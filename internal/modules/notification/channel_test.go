package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"

	"venuebook/internal/config"
	"venuebook/internal/domain"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func sampleMessage() domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:        "5f0c6f0e-4d4e-4a55-9a43-2f8f9f1d2c11",
		UserID:    7,
		Type:      domain.NotifBookingCancelled,
		Title:     "Booking cancelled",
		Body:      "Your booking was cancelled.",
		LinkURL:   "https://venuebook.test/bookings/3",
		Payload:   `{"booking_id":3,"refund_due":200000}`,
		CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestEmailChannel_Deliver(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Email: "planner@example.com"}, nil)

	sender := &fakeSender{}
	ch := &EmailChannel{users: users, sender: sender, from: "noreply@venuebook.test"}

	require.NoError(t, ch.Deliver(context.Background(), sampleMessage()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"planner@example.com"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Booking cancelled"}, sender.sent[0].GetHeader("Subject"))
	assert.False(t, ch.Durable())
}

func TestEmailChannel_UnknownRecipient(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByID", mock.Anything, int64(7)).Return(nil, errors.New("record not found"))

	ch := &EmailChannel{users: users, sender: &fakeSender{}, from: "noreply@venuebook.test"}
	assert.Error(t, ch.Deliver(context.Background(), sampleMessage()))
}

func TestKafkaChannel_KeysByOutboxID(t *testing.T) {
	w := &fakeWriter{}
	ch := &KafkaChannel{writer: w}

	msg := sampleMessage()
	require.NoError(t, ch.Deliver(context.Background(), msg))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, msg.ID, string(w.msgs[0].Key))
	assert.Contains(t, string(w.msgs[0].Value), `"refund_due":200000`)
	assert.Equal(t, "type", w.msgs[0].Headers[0].Key)

	require.NoError(t, ch.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaChannel_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaChannel(config.KafkaConfig{Topic: "booking-lifecycle"})
	assert.Error(t, err)
}
