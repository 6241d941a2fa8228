package models

import "time"

// BookingStep is the coarse position of a session in the collection flow.
// Contact covers both the name and email slots.
type BookingStep string

const (
	StepService      BookingStep = "service"
	StepLocation     BookingStep = "location"
	StepDate         BookingStep = "date"
	StepTime         BookingStep = "time"
	StepContact      BookingStep = "contact"
	StepConfirmation BookingStep = "confirmation"
	StepComplete     BookingStep = "complete"
)

// BookingSession holds the full collected and partial state for one ongoing
// booking conversation. Exactly one session exists per conversation; it is
// mutated turn-by-turn by the assistant and persisted after every mutation.
type BookingSession struct {
	SessionID      string `json:"sessionId"`
	CustomerID     string `json:"customerId,omitempty"`
	ConversationID string `json:"conversationId"`

	Slots map[SlotKind]Slot `json:"slots"`

	CurrentStep          BookingStep `json:"currentStep"`
	CompletedSteps       []SlotKind  `json:"completedSteps,omitempty"`
	CompletionPercentage int         `json:"completionPercentage"`

	Errors     []string `json:"errors,omitempty"`
	RetryCount int      `json:"retryCount"`
	TurnCount  int      `json:"turnCount"`
	LastPrompt string   `json:"lastPrompt,omitempty"`
	Language   string   `json:"language,omitempty"`

	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SlotFor returns the session's slot for the given kind.
func (s *BookingSession) SlotFor(kind SlotKind) Slot {
	if s.Slots == nil {
		return Slot{}
	}
	return s.Slots[kind]
}

// SetSlot stores the slot for the given kind.
func (s *BookingSession) SetSlot(kind SlotKind, slot Slot) {
	if s.Slots == nil {
		s.Slots = make(map[SlotKind]Slot, len(SlotOrder))
	}
	s.Slots[kind] = slot
}
