package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"bookline/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeSendReminder = "reminder:send"

// reminderLead is how long before the appointment the reminder fires.
const reminderLead = 24 * time.Hour

// NewReminderTask builds the queued task for one appointment reminder.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}

// ReminderScheduler enqueues appointment reminders for confirmed bookings.
type ReminderScheduler struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewReminderScheduler(redisAddr, redisPassword string, db int, logger *zap.Logger) *ReminderScheduler {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})
	return &ReminderScheduler{client: client, logger: logger}
}

// ScheduleForBooking enqueues a reminder ahead of the appointment start.
// Appointments closer than the lead time get no reminder.
func (s *ReminderScheduler) ScheduleForBooking(record models.BookingRecord) error {
	day, err := time.Parse("2006-01-02", record.Date)
	if err != nil {
		return fmt.Errorf("parse booking date: %w", err)
	}
	startAt := day.Add(time.Duration(record.StartMinute) * time.Minute)

	fireAt := startAt.Add(-reminderLead)
	if !fireAt.After(time.Now()) {
		s.logger.Debug("appointment too close for a reminder",
			zap.String("bookingId", record.BookingID))
		return nil
	}

	payload := models.ReminderPayload{
		BookingID:     record.BookingID,
		CustomerName:  record.CustomerName,
		CustomerEmail: record.CustomerEmail,
		ServiceName:   record.ServiceName,
		Date:          record.Date,
		StartMinute:   record.StartMinute,
	}

	task, opts, err := NewReminderTask(payload, fireAt)
	if err != nil {
		return err
	}
	info, err := s.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}

	s.logger.Info("reminder scheduled",
		zap.String("bookingId", record.BookingID),
		zap.String("taskId", info.ID),
		zap.Time("fireAt", fireAt))
	return nil
}

// Close releases the underlying queue client.
func (s *ReminderScheduler) Close() error {
	return s.client.Close()
}
