package bookingRepo

import (
	"context"

	"bookline/database"
	"bookline/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRecordRepository persists confirmed appointments.
type BookingRecordRepository interface {
	Create(ctx context.Context, record models.BookingRecord) (string, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.BookingRecord, error)
	GetByConversationID(ctx context.Context, conversationID string) ([]models.BookingRecord, error)
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a BookingRecordRepository backed by MongoDB.
func NewMongoBookingRepo() BookingRecordRepository {
	return &mongoBookingRepo{
		coll: database.Database().Collection("booking_records"),
	}
}
