package models

import "time"

// TimeUnit is one bookable time grain owned by the scheduling backend.
// Grains are contiguous fixed-length units within a day; StartMinute is
// minutes after midnight.
type TimeUnit struct {
	ID          string `json:"id"`
	StartMinute int    `json:"startMinute"`
}

// OrderRequest is the order-creation payload sent to the scheduling backend
// once a session is complete and confirmed.
type OrderRequest struct {
	ServiceID      string   `json:"serviceId"`
	LocationID     string   `json:"locationId"`
	Date           string   `json:"date"` // 2006-01-02
	TimeUnitIDs    []string `json:"timeUnitIds"`
	CustomerName   string   `json:"customerName"`
	CustomerEmail  string   `json:"customerEmail"`
	ConversationID string   `json:"conversationId,omitempty"`
	IdempotencyKey string   `json:"idempotencyKey,omitempty"`
}

// OrderReceipt is the backend's answer to a successful order creation.
type OrderReceipt struct {
	BookingID  string `json:"bookingId"`
	PaymentRef string `json:"paymentRef,omitempty"`
}

// BookingRecord is the durable record of a confirmed appointment, kept for
// history and reminder scheduling.
type BookingRecord struct {
	ID              string    `bson:"id" json:"id"`
	BookingID       string    `bson:"bookingId" json:"bookingId"`
	PaymentRef      string    `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	CustomerID      string    `bson:"customerId,omitempty" json:"customerId,omitempty"`
	ConversationID  string    `bson:"conversationId" json:"conversationId"`
	ServiceID       string    `bson:"serviceId" json:"serviceId"`
	ServiceName     string    `bson:"serviceName" json:"serviceName"`
	LocationID      string    `bson:"locationId" json:"locationId"`
	Date            string    `bson:"date" json:"date"`
	StartMinute     int       `bson:"startMinute" json:"startMinute"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	CustomerName    string    `bson:"customerName" json:"customerName"`
	CustomerEmail   string    `bson:"customerEmail" json:"customerEmail"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

// ReminderPayload is the queued payload for an appointment reminder.
type ReminderPayload struct {
	BookingID     string `json:"bookingId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	ServiceName   string `json:"serviceName"`
	Date          string `json:"date"`
	StartMinute   int    `json:"startMinute"`
}
