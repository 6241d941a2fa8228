package bookingRepo

import (
	"context"
	"time"

	"bookline/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new booking record and returns its ID.
func (r *mongoBookingRepo) Create(ctx context.Context, record models.BookingRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return "", err
	}
	return record.ID, nil
}

// GetByBookingID returns the record for a backend-issued booking identifier.
func (r *mongoBookingRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.BookingRecord, error) {
	var record models.BookingRecord
	err := r.coll.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByConversationID fetches all bookings made from a conversation, newest first.
func (r *mongoBookingRepo) GetByConversationID(ctx context.Context, conversationID string) ([]models.BookingRecord, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.coll.Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.BookingRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
