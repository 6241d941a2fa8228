package assistant

import (
	"context"

	"bookline/models"

	"go.uber.org/zap"
)

// AssistantService is the single entry point the messaging-channel layer
// calls per inbound message. Every call yields exactly one reply.
type AssistantService interface {
	HandleTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResult, error)
	CancelSession(ctx context.Context, conversationID string) error
	Session(ctx context.Context, conversationID string) (*models.BookingSession, error)
}

// DefaultAssistantService implements AssistantService.
type DefaultAssistantService struct {
	Store      *SessionStore
	Validator  *SlotValidator
	Reconciler *AvailabilityReconciler
	Logger     *zap.Logger
}
