package assistant

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"bookline/models"

	"go.uber.org/zap"
)

// stallThreshold is how many consecutive no-progress turns the assistant
// tolerates before signaling a human handoff.
const stallThreshold = 3

type persistAction int

const (
	persistSave persistAction = iota
	persistClear
)

// HandleTurn runs one conversation turn: merge the extractor's candidates
// into the session, decide the next question (or submit on confirmation) and
// persist the session. The whole turn holds the per-key lock, so turns for
// one conversation are strictly serialized.
func (s *DefaultAssistantService) HandleTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResult, error) {
	if req.ConversationID == "" {
		return nil, NewSessionError("turn request missing conversation id")
	}

	key := SessionKey(req.ConversationID)
	unlock := s.Store.LockKey(key)
	defer unlock()

	session, err := s.Store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = NewBookingSession(req.ConversationID, req.CustomerID, req.Language)
	}
	if req.CustomerID != "" {
		session.CustomerID = req.CustomerID
	}
	if req.Language != "" {
		session.Language = req.Language
	}
	session.TurnCount++

	var result *models.TurnResult
	action := persistSave
	if session.CurrentStep == models.StepConfirmation {
		result, action = s.confirmationTurn(ctx, key, session, req)
	} else {
		result = s.collectionTurn(ctx, session, req)
	}

	session.UpdatedAt = time.Now()
	switch action {
	case persistClear:
		if err := s.Store.Clear(ctx, key); err != nil {
			return nil, err
		}
	default:
		if err := s.Store.Save(ctx, key, session); err != nil {
			return nil, err
		}
	}

	s.Logger.Debug("turn handled",
		zap.String("conversationId", req.ConversationID),
		zap.String("step", string(session.CurrentStep)),
		zap.Int("completion", session.CompletionPercentage),
		zap.Bool("escalated", result.IsEscalated))
	return result, nil
}

// CancelSession resets the conversation's session explicitly.
func (s *DefaultAssistantService) CancelSession(ctx context.Context, conversationID string) error {
	key := SessionKey(conversationID)
	unlock := s.Store.LockKey(key)
	defer unlock()
	return s.Store.Clear(ctx, key)
}

// Session returns the current session for a conversation, or nil when the
// conversation has no session yet.
func (s *DefaultAssistantService) Session(ctx context.Context, conversationID string) (*models.BookingSession, error) {
	key := SessionKey(conversationID)
	unlock := s.Store.LockKey(key)
	defer unlock()
	return s.Store.Load(ctx, key)
}

// collectionTurn merges candidates into the slots and computes the reply.
// The merge is monotonic and idempotent: a validated slot is only ever
// replaced by another accepted candidate, never knocked back by a rejected
// one, and replaying an accepted candidate changes nothing.
func (s *DefaultAssistantService) collectionTurn(ctx context.Context, session *models.BookingSession, req models.TurnRequest) *models.TurnResult {
	var accepted []models.SlotKind
	var firstReject *ValidationOutcome
	progressed := false

	for _, kind := range models.SlotOrder {
		raw, ok := req.Candidates[kind]
		if !ok {
			continue
		}

		outcome := s.Validator.Validate(ctx, kind, raw, session)
		if outcome.Accepted {
			session.SetSlot(kind, outcome.Slot)
			markCompleted(session, kind)
			accepted = append(accepted, kind)
			progressed = true
			continue
		}

		session.Errors = append(session.Errors, fmt.Sprintf("%s: %s", kind, outcome.Reason))
		if firstReject == nil {
			o := outcome
			firstReject = &o
		}
	}

	recomputeProgress(session)

	if progressed {
		session.RetryCount = 0
	} else {
		session.RetryCount++
	}

	return s.buildReply(session, accepted, firstReject)
}

// confirmationTurn recognizes the closed yes/no vocabulary and otherwise
// treats the message as "not yet confirmed", stalling like any other step.
func (s *DefaultAssistantService) confirmationTurn(ctx context.Context, key string, session *models.BookingSession, req models.TurnRequest) (*models.TurnResult, persistAction) {
	switch {
	case isAffirmative(req.Message):
		return s.submitTurn(ctx, key, session)

	case isNegative(req.Message):
		// Explicit cancellation discards collected progress.
		return &models.TurnResult{
			ReplyText: replyText(session.Language, "canceled"),
		}, persistClear

	default:
		session.RetryCount++
		return s.buildReply(session, nil, nil), persistSave
	}
}

// submitTurn drives the reconciler and phrases its outcome.
func (s *DefaultAssistantService) submitTurn(ctx context.Context, key string, session *models.BookingSession) (*models.TurnResult, persistAction) {
	res := s.Reconciler.Submit(ctx, key, session)

	switch {
	case res.Success:
		return &models.TurnResult{
			ReplyText:  fmt.Sprintf(replyText(session.Language, "booked"), res.BookingID),
			IsComplete: true,
		}, persistClear

	case res.Failure == FailureUnavailable:
		// The reconciler reset the time slot; ask for a new time without
		// restarting the rest of the flow.
		prompt := promptFor(session.Language, promptKey(models.SlotTime), session.TurnCount, session.LastPrompt)
		session.LastPrompt = prompt
		return &models.TurnResult{
			ReplyText: replyText(session.Language, "unavailable") + " " + prompt,
		}, persistSave

	default:
		session.RetryCount++
		escalated := session.RetryCount >= stallThreshold
		reply := replyText(session.Language, "backend_error")
		if escalated {
			reply = promptFor(session.Language, promptEscalation, session.TurnCount, "")
		}
		return &models.TurnResult{ReplyText: reply, IsEscalated: escalated}, persistSave
	}
}

// buildReply assembles acknowledgment + clarification + next question, with
// escalation taking the place of the question once the session stalls.
func (s *DefaultAssistantService) buildReply(session *models.BookingSession, accepted []models.SlotKind, rejected *ValidationOutcome) *models.TurnResult {
	var parts []string

	for _, kind := range accepted {
		if ack := ackFor(session.Language, kind, session.SlotFor(kind).Value); ack != "" {
			parts = append(parts, ack)
		}
	}

	if rejected != nil && rejected.Code != RejectPrerequisite {
		if text := clarificationFor(session.Language, rejected.Code); text != "" {
			parts = append(parts, text)
		}
	}

	if session.RetryCount >= stallThreshold {
		parts = append(parts, promptFor(session.Language, promptEscalation, session.TurnCount, ""))
		return &models.TurnResult{
			ReplyText:   strings.Join(parts, " "),
			IsEscalated: true,
		}
	}

	if session.CurrentStep == models.StepConfirmation {
		parts = append(parts, confirmationSummary(session))
	}
	prompt := promptFor(session.Language, nextPromptKey(session), session.TurnCount, session.LastPrompt)
	session.LastPrompt = prompt
	parts = append(parts, prompt)

	return &models.TurnResult{ReplyText: strings.Join(parts, " ")}
}

// nextPromptKey maps the current step to a phrasing pool. The contact step
// asks for whichever of name and email is still missing, name first.
func nextPromptKey(session *models.BookingSession) promptKey {
	switch session.CurrentStep {
	case models.StepContact:
		if !session.SlotFor(models.SlotName).Validated {
			return promptKey(models.SlotName)
		}
		return promptKey(models.SlotEmail)
	case models.StepConfirmation, models.StepComplete:
		return promptConfirmation
	default:
		return promptKey(models.SlotKind(session.CurrentStep))
	}
}

// markCompleted records a validated kind, deduplicated.
func markCompleted(session *models.BookingSession, kind models.SlotKind) {
	for _, k := range session.CompletedSteps {
		if k == kind {
			return
		}
	}
	session.CompletedSteps = append(session.CompletedSteps, kind)
}

// recomputeProgress rederives everything that is a function of the slots:
// completed steps, completion percentage and the current step. It holds
// after every transition, not just at rest.
func recomputeProgress(session *models.BookingSession) {
	completed := make([]models.SlotKind, 0, len(models.SlotOrder))
	for _, kind := range models.SlotOrder {
		if session.SlotFor(kind).Validated {
			completed = append(completed, kind)
		}
	}
	session.CompletedSteps = completed
	session.CompletionPercentage = int(math.Round(float64(len(completed)) / float64(len(models.SlotOrder)) * 100))

	if session.CurrentStep == models.StepComplete {
		return
	}
	session.CurrentStep = deriveStep(session)
}

// deriveStep is the canonical step derivation: the first unvalidated slot
// kind in order, with name/email folded into contact, or confirmation once
// everything is validated.
func deriveStep(session *models.BookingSession) models.BookingStep {
	for _, kind := range models.SlotOrder {
		if session.SlotFor(kind).Validated {
			continue
		}
		switch kind {
		case models.SlotName, models.SlotEmail:
			return models.StepContact
		default:
			return models.BookingStep(kind)
		}
	}
	return models.StepConfirmation
}
