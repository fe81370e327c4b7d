package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/repository"
	"venuebook/internal/testutil"
)

var (
	testNow   = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	eventDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	clk     *clock.Fixed
	blocked *repository.BlockedDateRepository

	planner *domain.User
	owner   *domain.User
	admin   *domain.User
	venue   *domain.Venue
	hall    *domain.Hall
}

func defaultHall() domain.Hall {
	return domain.Hall{Capacity: 200, Price: 800000, DepositPercentage: 25, BalanceDueDays: 14}
}

func newFixture(t *testing.T, hall domain.Hall) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	clk := clock.NewFixed(testNow)

	f := &fixture{
		db:      db,
		clk:     clk,
		blocked: repository.NewBlockedDateRepository(db),
		planner: testutil.CreateUser(t, db, "planner@example.com", domain.RolePlanner),
		owner:   testutil.CreateUser(t, db, "holder@example.com", domain.RoleVenueHolder),
		admin:   testutil.CreateUser(t, db, "admin@example.com", domain.RoleAdmin),
	}
	f.venue, f.hall = testutil.CreateVenueWithHall(t, db, f.owner.ID, hall)

	f.svc = NewService(Deps{
		Tx:       repository.NewStore(db),
		Bookings: repository.NewBookingRepository(db),
		Halls:    repository.NewHallRepository(db),
		Venues:   repository.NewVenueRepository(db),
		Blocked:  f.blocked,
		Outbox:   repository.NewOutboxRepository(db),
		Clock:    clk,
	}, Config{
		ExpiryLookahead:     72 * time.Hour,
		PaymentGracePeriod:  24 * time.Hour,
		AutoCompleteEnabled: true,
		PublicBaseURL:       "https://venuebook.test",
	})
	return f
}

func (f *fixture) plannerActor() Actor { return Actor{UserID: f.planner.ID, Role: domain.RolePlanner} }
func (f *fixture) ownerActor() Actor   { return Actor{UserID: f.owner.ID, Role: domain.RoleVenueHolder} }
func (f *fixture) adminActor() Actor   { return Actor{UserID: f.admin.ID, Role: domain.RoleAdmin} }

func (f *fixture) create(t *testing.T, guests int, start time.Time) *domain.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), f.plannerActor(), CreateBookingInput{
		HallID:    f.hall.ID,
		StartDate: start,
		Guests:    guests,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) apply(t *testing.T, id int64, ev Event, actor Actor, reason string) *domain.Booking {
	t.Helper()
	b, err := f.svc.Transition(context.Background(), id, ev, actor, reason)
	require.NoError(t, err)
	return b
}

// confirmed walks a fresh booking to confirmed.
func (f *fixture) confirmed(t *testing.T) *domain.Booking {
	t.Helper()
	b := f.create(t, 100, eventDate)
	f.apply(t, b.ID, EventAccept, f.ownerActor(), "")
	f.apply(t, b.ID, EventDepositSettled, f.ownerActor(), "")
	return f.apply(t, b.ID, EventBalanceSettled, f.ownerActor(), "")
}

func (f *fixture) countOutbox(t *testing.T, bookingID int64, typ domain.NotificationType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.OutboxMessage{}).
		Where("booking_id = ? AND type = ?", bookingID, typ).
		Count(&n).Error)
	return n
}

func (f *fixture) history(t *testing.T, bookingID int64) []domain.BookingEvent {
	t.Helper()
	var events []domain.BookingEvent
	require.NoError(t, f.db.Where("booking_id = ?", bookingID).Order("id ASC").Find(&events).Error)
	return events
}

func (f *fixture) blockedDays(t *testing.T) []string {
	t.Helper()
	var days []string
	require.NoError(t, f.db.Model(&domain.BlockedDate{}).Where("hall_id = ?", f.hall.ID).Order("day").Pluck("day", &days).Error)
	return days
}
