package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifBookingRequested             NotificationType = "booking_requested"
	NotifBookingAccepted              NotificationType = "booking_accepted"
	NotifBookingPaid                  NotificationType = "booking_paid"
	NotifBookingConfirmed             NotificationType = "booking_confirmed"
	NotifBookingCompleted             NotificationType = "booking_completed"
	NotifBookingCancelled             NotificationType = "booking_cancelled"
	NotifBookingCancellationRequested NotificationType = "booking_cancellation_requested"
	NotifBookingCancellationDeclined  NotificationType = "booking_cancellation_declined"
	NotifBookingPaymentFailed         NotificationType = "booking_payment_failed"
	NotifBookingPaymentDue            NotificationType = "booking_payment_due"
)

// Notification is an in-app inbox entry.
type Notification struct {
	ID        int64            `json:"id"`
	OutboxID  string           `json:"-" gorm:"size:36;uniqueIndex"`
	UserID    int64            `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"size:64;not null"`
	Title     string           `json:"title"`
	Body      string           `json:"body,omitempty" gorm:"type:text"`
	LinkURL   string           `json:"link_url,omitempty"`
	Data      string           `json:"data,omitempty" gorm:"type:text"`
	IsRead    bool             `json:"is_read" gorm:"not null;default:false;index"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// OutboxMessage is written in the same transaction as the change it announces
// and delivered later by the dispatcher.
type OutboxMessage struct {
	ID             string           `json:"id" gorm:"primaryKey;size:36"`
	UserID         int64            `json:"user_id" gorm:"not null;index"`
	BookingID      *int64           `json:"booking_id,omitempty" gorm:"index"`
	Type           NotificationType `json:"type" gorm:"size:64;not null"`
	Title          string           `json:"title"`
	Body           string           `json:"body" gorm:"type:text"`
	LinkURL        string           `json:"link_url,omitempty"`
	Payload        string           `json:"payload" gorm:"type:text"`
	Attempts       int              `json:"attempts" gorm:"not null;default:0"`
	LastError      string           `json:"last_error,omitempty" gorm:"type:text"`
	ClaimToken     string           `json:"-" gorm:"size:36;index"`
	ClaimUntil     *time.Time       `json:"-"`
	DeliveredAt    *time.Time       `json:"delivered_at,omitempty" gorm:"index"`
	DeadLetteredAt *time.Time       `json:"dead_lettered_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at" gorm:"index"`
}

func (OutboxMessage) TableName() string {
	return "notification_outbox"
}

func (m *OutboxMessage) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
