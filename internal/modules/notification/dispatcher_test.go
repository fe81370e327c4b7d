package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/repository"
	"venuebook/internal/testutil"
)

type MockChannel struct {
	mock.Mock
	name    string
	durable bool
}

func (m *MockChannel) Name() string  { return m.name }
func (m *MockChannel) Durable() bool { return m.durable }

func (m *MockChannel) Deliver(ctx context.Context, msg domain.OutboxMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

var dispatchNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

type dispatchFixture struct {
	db     *gorm.DB
	outbox *repository.OutboxRepository
	inbox  *repository.NotificationRepository
	clock  *clock.Fixed
	user   *domain.User
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	db := testutil.NewDB(t)
	return &dispatchFixture{
		db:     db,
		outbox: repository.NewOutboxRepository(db),
		inbox:  repository.NewNotificationRepository(db),
		clock:  clock.NewFixed(dispatchNow),
		user:   testutil.CreateUser(t, db, "planner@example.com", domain.RolePlanner),
	}
}

func (f *dispatchFixture) enqueue(t *testing.T, typ domain.NotificationType) *domain.OutboxMessage {
	t.Helper()
	msg := &domain.OutboxMessage{
		UserID:    f.user.ID,
		Type:      typ,
		Title:     "Booking accepted",
		Body:      "Riverside Hall accepted your booking.",
		Payload:   `{"booking_id":1}`,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.outbox.Enqueue(context.Background(), msg))
	return msg
}

func (f *dispatchFixture) reload(t *testing.T, id string) domain.OutboxMessage {
	t.Helper()
	var m domain.OutboxMessage
	require.NoError(t, f.db.First(&m, "id = ?", id).Error)
	return m
}

func TestDispatcher_DeliversToAllChannels(t *testing.T) {
	f := newDispatchFixture(t)
	msg := f.enqueue(t, domain.NotifBookingAccepted)

	push := &MockChannel{name: "websocket"}
	push.On("Deliver", mock.Anything, mock.MatchedBy(func(m domain.OutboxMessage) bool {
		return m.ID == msg.ID
	})).Return(nil).Once()

	d := NewDispatcher(f.outbox, []Channel{NewInboxChannel(f.inbox), push}, f.clock, nil, DispatcherConfig{})
	rep, err := d.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{Claimed: 1, Delivered: 1}, rep)
	push.AssertExpectations(t)

	got := f.reload(t, msg.ID)
	require.NotNil(t, got.DeliveredAt)
	assert.Empty(t, got.ClaimToken)

	list, total, err := f.inbox.ListByUser(context.Background(), f.user.ID, false, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, domain.NotifBookingAccepted, list[0].Type)
	assert.Equal(t, msg.ID, list[0].OutboxID)

	// Nothing left to claim.
	rep, err = d.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Claimed)
}

func TestDispatcher_BestEffortFailureStillDelivers(t *testing.T) {
	f := newDispatchFixture(t)
	msg := f.enqueue(t, domain.NotifBookingPaid)

	email := &MockChannel{name: "email"}
	email.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	d := NewDispatcher(f.outbox, []Channel{NewInboxChannel(f.inbox), email}, f.clock, nil, DispatcherConfig{})
	rep, err := d.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Delivered)
	assert.NotNil(t, f.reload(t, msg.ID).DeliveredAt)
}

func TestDispatcher_RetryThenDeadLetter(t *testing.T) {
	f := newDispatchFixture(t)
	msg := f.enqueue(t, domain.NotifBookingCancelled)

	broker := &MockChannel{name: "kafka", durable: true}
	broker.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))

	push := &MockChannel{name: "websocket"}
	push.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()

	d := NewDispatcher(f.outbox, []Channel{broker, push}, f.clock, nil, DispatcherConfig{MaxAttempts: 2})

	rep, err := d.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Retried)
	got := f.reload(t, msg.ID)
	assert.Equal(t, 1, got.Attempts)
	assert.Contains(t, got.LastError, "broker unavailable")
	assert.Nil(t, got.DeliveredAt)

	rep, err = d.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.DeadLettered)
	got = f.reload(t, msg.ID)
	assert.Equal(t, 2, got.Attempts)
	assert.NotNil(t, got.DeadLetteredAt)

	rep, err = d.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Claimed)

	broker.AssertNumberOfCalls(t, "Deliver", 2)
	// Retries skip best-effort channels.
	push.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestDispatcher_LeasedMessagesAreSkipped(t *testing.T) {
	f := newDispatchFixture(t)
	f.enqueue(t, domain.NotifBookingRequested)

	now := f.clock.Now()
	claimed, err := f.outbox.Claim(context.Background(), 10, "other-worker", now, now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	d := NewDispatcher(f.outbox, []Channel{NewInboxChannel(f.inbox)}, f.clock, nil, DispatcherConfig{})
	rep, err := d.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Claimed)

	// The lease ran out, so the message is claimable again.
	f.clock.Advance(2 * time.Minute)
	rep, err = d.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Delivered)
}

func TestInboxChannel_Idempotent(t *testing.T) {
	f := newDispatchFixture(t)
	msg := f.enqueue(t, domain.NotifBookingConfirmed)

	ch := NewInboxChannel(f.inbox)
	require.NoError(t, ch.Deliver(context.Background(), *msg))
	require.NoError(t, ch.Deliver(context.Background(), *msg))

	n, err := f.inbox.CountUnread(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
