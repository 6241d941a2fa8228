package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	bookingRepo "bookline/database/repository/booking"
	"bookline/models"
	"bookline/services/scheduling"
	"bookline/services/tasks"

	"go.uber.org/zap"
)

// maxSubmitAttempts bounds one confirmation: the original submission plus
// two alternate time combinations.
const maxSubmitAttempts = 3

// submitTimeout caps each backend call within the turn. A timeout is a
// backend error, never an availability verdict.
const submitTimeout = 10 * time.Second

// SubmitResult is the reconciler's structured outcome.
type SubmitResult struct {
	Success    bool
	BookingID  string
	PaymentRef string
	Failure    FailureKind
	Detail     string
}

// AvailabilityReconciler submits a completed, confirmed session to the
// scheduling backend and absorbs availability conflicts through bounded
// retries, so a conflict degrades to "ask again for just the time" instead
// of destroying collected progress.
type AvailabilityReconciler struct {
	Backend  scheduling.Client
	Store    *SessionStore
	Bookings bookingRepo.BookingRecordRepository
	Reminder *tasks.ReminderScheduler
	Logger   *zap.Logger
}

// Submit builds an order from the validated slots and drives it to a booking
// or a structured failure. On unavailability it probes the backend for the
// next contiguous time combinations on the same date and retries, at most
// maxSubmitAttempts submissions in total, all within this turn.
func (r *AvailabilityReconciler) Submit(ctx context.Context, key string, session *models.BookingSession) *SubmitResult {
	service := session.SlotFor(models.SlotService)
	location := session.SlotFor(models.SlotLocation)
	date := session.SlotFor(models.SlotDate)
	timeSlot := session.SlotFor(models.SlotTime)

	req := models.OrderRequest{
		ServiceID:      service.ServiceID,
		LocationID:     location.LocationID,
		Date:           date.ISODate,
		CustomerName:   session.SlotFor(models.SlotName).Value,
		CustomerEmail:  session.SlotFor(models.SlotEmail).Value,
		ConversationID: session.ConversationID,
	}

	attempts := []timeCombination{{startMinute: timeSlot.StartMinute, unitIDs: timeSlot.TimeUnitIDs}}

	for attempt := 0; attempt < maxSubmitAttempts; attempt++ {
		if attempt >= len(attempts) {
			break
		}
		combo := attempts[attempt]
		req.TimeUnitIDs = combo.unitIDs
		// Each attempt carries different units, so each needs its own key;
		// a shared key would let a deduplicating backend short-circuit the
		// alternates.
		req.IdempotencyKey = fmt.Sprintf("%s-%d-%d", session.SessionID, session.TurnCount, attempt)

		receipt, err := r.submitOnce(ctx, req)
		if err == nil {
			adoptCombination(session, combo)
			return r.finalize(ctx, key, session, receipt, combo.unitIDs)
		}

		if !errors.Is(err, scheduling.ErrSlotUnavailable) {
			r.Logger.Warn("order submission failed",
				zap.String("conversationId", session.ConversationID), zap.Error(err))
			return &SubmitResult{Failure: FailureBackend, Detail: err.Error()}
		}

		r.Logger.Info("time units taken, probing alternates",
			zap.String("conversationId", session.ConversationID),
			zap.Int("attempt", attempt+1))

		// Only probe once: attempts beyond the first come from one
		// availability snapshot taken after the original conflict.
		if attempt == 0 {
			alternates, probeErr := r.alternateCombinations(ctx, req, service.DurationMinutes, timeSlot.StartMinute)
			if probeErr != nil {
				return &SubmitResult{Failure: FailureBackend, Detail: probeErr.Error()}
			}
			attempts = append(attempts, alternates...)
		}
	}

	// Every combination was taken. Downgrade only the time slot; the rest
	// of the session is still correct and stays validated.
	downgradeTimeSlot(session)
	return &SubmitResult{Failure: FailureUnavailable, Detail: "all time combinations taken"}
}

func (r *AvailabilityReconciler) submitOnce(ctx context.Context, req models.OrderRequest) (*models.OrderReceipt, error) {
	callCtx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()
	return r.Backend.SubmitOrder(callCtx, req)
}

// timeCombination is one candidate set of contiguous units for the order.
type timeCombination struct {
	startMinute int
	unitIDs     []string
}

// adoptCombination writes the combination that actually got booked back into
// the time slot, so the persisted session and the booking record match what
// the backend holds.
func adoptCombination(session *models.BookingSession, combo timeCombination) {
	slot := session.SlotFor(models.SlotTime)
	if slot.StartMinute == combo.startMinute {
		return
	}
	slot.Value = minutesToClock(combo.startMinute)
	slot.StartMinute = combo.startMinute
	slot.TimeUnitIDs = combo.unitIDs
	session.SetSlot(models.SlotTime, slot)
}

// alternateCombinations returns up to two contiguous time-unit combinations
// for the same service and date, starting after the conflicted start, in
// increasing offset order.
func (r *AvailabilityReconciler) alternateCombinations(ctx context.Context, req models.OrderRequest, durationMinutes, afterMinute int) ([]timeCombination, error) {
	callCtx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	units, err := r.Backend.QueryAvailability(callCtx, req.ServiceID, req.LocationID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("probe availability: %w", err)
	}

	needed := unitsNeeded(durationMinutes)
	var alternates []timeCombination
	for _, unit := range sortedByStart(units) {
		if unit.StartMinute <= afterMinute {
			continue
		}
		if ids, ok := contiguousUnitsAt(units, unit.StartMinute, needed); ok {
			alternates = append(alternates, timeCombination{startMinute: unit.StartMinute, unitIDs: ids})
			if len(alternates) == maxSubmitAttempts-1 {
				break
			}
		}
	}
	return alternates, nil
}

// finalize marks the session complete, persists it and records the booking.
// The record write and reminder are best-effort; the booking already exists
// on the backend.
func (r *AvailabilityReconciler) finalize(ctx context.Context, key string, session *models.BookingSession, receipt *models.OrderReceipt, unitIDs []string) *SubmitResult {
	session.CurrentStep = models.StepComplete
	if err := r.Store.Save(ctx, key, session); err != nil {
		r.Logger.Warn("failed to persist completed session", zap.Error(err))
	}

	service := session.SlotFor(models.SlotService)
	record := models.BookingRecord{
		BookingID:       receipt.BookingID,
		PaymentRef:      receipt.PaymentRef,
		CustomerID:      session.CustomerID,
		ConversationID:  session.ConversationID,
		ServiceID:       service.ServiceID,
		ServiceName:     service.Value,
		LocationID:      session.SlotFor(models.SlotLocation).LocationID,
		Date:            session.SlotFor(models.SlotDate).ISODate,
		StartMinute:     session.SlotFor(models.SlotTime).StartMinute,
		DurationMinutes: service.DurationMinutes,
		CustomerName:    session.SlotFor(models.SlotName).Value,
		CustomerEmail:   session.SlotFor(models.SlotEmail).Value,
	}

	if r.Bookings != nil {
		if _, err := r.Bookings.Create(ctx, record); err != nil {
			r.Logger.Warn("failed to store booking record",
				zap.String("bookingId", receipt.BookingID), zap.Error(err))
		}
	}
	if r.Reminder != nil {
		if err := r.Reminder.ScheduleForBooking(record); err != nil {
			r.Logger.Warn("failed to schedule reminder",
				zap.String("bookingId", receipt.BookingID), zap.Error(err))
		}
	}

	r.Logger.Info("booking confirmed",
		zap.String("bookingId", receipt.BookingID),
		zap.String("conversationId", session.ConversationID),
		zap.Strings("timeUnitIds", unitIDs))

	return &SubmitResult{
		Success:    true,
		BookingID:  receipt.BookingID,
		PaymentRef: receipt.PaymentRef,
	}
}

// downgradeTimeSlot resets only the time slot and reverts the step, so the
// orchestrator naturally re-prompts for a new time.
func downgradeTimeSlot(session *models.BookingSession) {
	session.SetSlot(models.SlotTime, models.Slot{})
	recomputeProgress(session)
}

func sortedByStart(units []models.TimeUnit) []models.TimeUnit {
	out := make([]models.TimeUnit, len(units))
	copy(out, units)
	sort.Slice(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out
}
