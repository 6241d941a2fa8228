package assistant

import (
	"context"
	"errors"
	"testing"

	"bookline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstTurnCreatesSessionAndAsksForService(t *testing.T) {
	svc, _, store := newTestService(t)

	result := turn(t, svc, "conv-1", "hi there", nil)

	assert.False(t, result.IsComplete)
	assert.False(t, result.IsEscalated)
	assert.NotEmpty(t, result.ReplyText)

	session := loadSession(t, store, "conv-1")
	require.NotNil(t, session)
	assert.Equal(t, models.StepService, session.CurrentStep)
	assert.Equal(t, 0, session.CompletionPercentage)
	assert.Equal(t, 1, session.RetryCount)
}

func TestServiceAcceptedAdvancesToLocation(t *testing.T) {
	svc, _, store := newTestService(t)

	result := turn(t, svc, "conv-1", "I'd like a manicure", models.CandidateMap{
		models.SlotService: "manicure",
	})

	assert.Contains(t, result.ReplyText, "Manicure")

	session := loadSession(t, store, "conv-1")
	slot := session.SlotFor(models.SlotService)
	assert.True(t, slot.Validated)
	assert.Equal(t, "svc-1", slot.ServiceID)
	assert.Equal(t, 30, slot.DurationMinutes)
	assert.Equal(t, models.StepLocation, session.CurrentStep)
	assert.Equal(t, 17, session.CompletionPercentage)
	assert.Equal(t, 0, session.RetryCount)
	assert.Equal(t, []models.SlotKind{models.SlotService}, session.CompletedSteps)
}

func TestAmbiguousServiceGetsClarifyingQuestion(t *testing.T) {
	svc, _, store := newTestService(t)

	result := turn(t, svc, "conv-1", "something with ma", models.CandidateMap{
		models.SlotService: "ma",
	})

	assert.Contains(t, result.ReplyText, "more than one")

	session := loadSession(t, store, "conv-1")
	assert.False(t, session.SlotFor(models.SlotService).Validated)
	assert.Equal(t, models.StepService, session.CurrentStep)
}

func TestUnknownServiceGetsNotFoundPhrasing(t *testing.T) {
	svc, _, _ := newTestService(t)

	res := turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotService: "haircut"})
	assert.Contains(t, res.ReplyText, "couldn't find")
	assert.NotContains(t, res.ReplyText, "more than one")
}

func TestMergeIsIdempotent(t *testing.T) {
	svc, _, store := newTestService(t)

	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotService: "manicure"})
	first := loadSession(t, store, "conv-1")
	firstCompleted := append([]models.SlotKind(nil), first.CompletedSteps...)
	firstPct := first.CompletionPercentage

	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotService: "manicure"})
	second := loadSession(t, store, "conv-1")

	assert.Equal(t, firstCompleted, second.CompletedSteps)
	assert.Equal(t, firstPct, second.CompletionPercentage)
	assert.Equal(t, first.SlotFor(models.SlotService), second.SlotFor(models.SlotService))
}

func TestValidatedSlotSurvivesLaterRejectedCandidate(t *testing.T) {
	svc, _, store := newTestService(t)

	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotService: "manicure"})
	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotService: "xyzzy"})

	session := loadSession(t, store, "conv-1")
	slot := session.SlotFor(models.SlotService)
	assert.True(t, slot.Validated)
	assert.Equal(t, "Manicure", slot.Value)
}

func TestStepDerivationAcrossFullFlow(t *testing.T) {
	svc, _, store := newTestService(t)

	expected := []models.BookingStep{
		models.StepLocation,
		models.StepDate,
		models.StepTime,
		models.StepContact,
		models.StepContact,
		models.StepConfirmation,
	}
	candidates := []models.CandidateMap{
		{models.SlotService: "manicure"},
		{models.SlotLocation: "downtown"},
		{models.SlotDate: "tomorrow"},
		{models.SlotTime: "3pm"},
		{models.SlotName: "Jane Doe"},
		{models.SlotEmail: "jane@example.com"},
	}

	for i, c := range candidates {
		turn(t, svc, "conv-1", "msg", c)
		session := loadSession(t, store, "conv-1")
		assert.Equal(t, expected[i], session.CurrentStep, "after turn %d", i+1)
	}
}

func TestCompletionPercentageArithmetic(t *testing.T) {
	svc, _, store := newTestService(t)

	expected := []int{17, 33, 50, 67, 83, 100}
	candidates := []models.CandidateMap{
		{models.SlotService: "manicure"},
		{models.SlotLocation: "downtown"},
		{models.SlotDate: "tomorrow"},
		{models.SlotTime: "3pm"},
		{models.SlotName: "Jane Doe"},
		{models.SlotEmail: "jane@example.com"},
	}

	for i, c := range candidates {
		turn(t, svc, "conv-1", "msg", c)
		session := loadSession(t, store, "conv-1")
		assert.Equal(t, expected[i], session.CompletionPercentage, "after turn %d", i+1)
	}
}

func TestTimeResolvedWithBackendUnits(t *testing.T) {
	svc, _, store := newTestService(t)

	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotService: "manicure"})
	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotLocation: "downtown"})
	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotDate: "tomorrow"})
	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotTime: "3pm"})

	session := loadSession(t, store, "conv-1")
	slot := session.SlotFor(models.SlotTime)
	require.True(t, slot.Validated)
	assert.Equal(t, 900, slot.StartMinute)
	// 30-minute manicure over 15-minute units needs two IDs.
	assert.Equal(t, []string{"u900", "u915"}, slot.TimeUnitIDs)
}

func TestEarlyTimeCandidateIsPrerequisiteNotError(t *testing.T) {
	svc, _, store := newTestService(t)

	result := turn(t, svc, "conv-1", "3pm please", models.CandidateMap{
		models.SlotTime: "3pm",
	})

	session := loadSession(t, store, "conv-1")
	// Step still points at the true first missing slot.
	assert.Equal(t, models.StepService, session.CurrentStep)
	assert.False(t, session.SlotFor(models.SlotTime).Validated)
	// A single unit of stall penalty for the no-progress turn, nothing more.
	assert.Equal(t, 1, session.RetryCount)
	assert.False(t, result.IsEscalated)
}

func TestStallEscalatesAfterThreeEmptyTurns(t *testing.T) {
	svc, _, store := newTestService(t)

	r1 := turn(t, svc, "conv-1", "blah", nil)
	r2 := turn(t, svc, "conv-1", "blah", nil)
	r3 := turn(t, svc, "conv-1", "blah", nil)

	assert.False(t, r1.IsEscalated)
	assert.False(t, r2.IsEscalated)
	assert.True(t, r3.IsEscalated)
	assert.Contains(t, r3.ReplyText, "staff")

	// The session is not cleared; a valid candidate still lands normally.
	result := turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotService: "manicure"})
	assert.False(t, result.IsEscalated)

	session := loadSession(t, store, "conv-1")
	assert.True(t, session.SlotFor(models.SlotService).Validated)
	assert.Equal(t, 0, session.RetryCount)
}

func TestNoExactPromptRepetition(t *testing.T) {
	svc, _, _ := newTestService(t)

	r1 := turn(t, svc, "conv-1", "blah", nil)
	r2 := turn(t, svc, "conv-1", "blah", nil)

	assert.NotEqual(t, r1.ReplyText, r2.ReplyText)
}

func TestConfirmationYesCompletesAndClearsSession(t *testing.T) {
	svc, backend, store := newTestService(t)
	fillSession(t, svc, "conv-1")

	result := turn(t, svc, "conv-1", "yes", nil)

	assert.True(t, result.IsComplete)
	assert.Contains(t, result.ReplyText, "bk-001")
	assert.Len(t, backend.submitted, 1)

	session := loadSession(t, store, "conv-1")
	require.NotNil(t, session)
	assert.Equal(t, models.StepService, session.CurrentStep)
	assert.Equal(t, 0, session.CompletionPercentage)
	assert.Equal(t, "conv-1", session.ConversationID)
}

func TestConfirmationUnrecognizedRepromptsThenEscalates(t *testing.T) {
	svc, backend, store := newTestService(t)
	fillSession(t, svc, "conv-1")

	r1 := turn(t, svc, "conv-1", "hmm let me think", nil)
	assert.False(t, r1.IsEscalated)
	assert.Empty(t, backend.submitted)

	session := loadSession(t, store, "conv-1")
	assert.Equal(t, models.StepConfirmation, session.CurrentStep)
	assert.Equal(t, 1, session.RetryCount)

	turn(t, svc, "conv-1", "still thinking", nil)
	r3 := turn(t, svc, "conv-1", "thinking more", nil)
	assert.True(t, r3.IsEscalated)
}

func TestConfirmationBackendErrorCountsOneStallPerTurn(t *testing.T) {
	svc, backend, store := newTestService(t)
	fillSession(t, svc, "conv-1")
	backend.submitErrs = []error{
		errors.New("upstream 502"),
		errors.New("upstream 502"),
		errors.New("upstream 502"),
	}

	r1 := turn(t, svc, "conv-1", "yes", nil)
	assert.False(t, r1.IsEscalated)
	session := loadSession(t, store, "conv-1")
	assert.Equal(t, 1, session.RetryCount)
	assert.Equal(t, models.StepConfirmation, session.CurrentStep)

	r2 := turn(t, svc, "conv-1", "yes", nil)
	assert.False(t, r2.IsEscalated)
	session = loadSession(t, store, "conv-1")
	assert.Equal(t, 2, session.RetryCount)

	r3 := turn(t, svc, "conv-1", "yes", nil)
	assert.True(t, r3.IsEscalated)
}

func TestConfirmationNoDiscardsSession(t *testing.T) {
	svc, backend, store := newTestService(t)
	fillSession(t, svc, "conv-1")

	result := turn(t, svc, "conv-1", "no", nil)

	assert.False(t, result.IsComplete)
	assert.Contains(t, result.ReplyText, "discarded")
	assert.Empty(t, backend.submitted)

	session := loadSession(t, store, "conv-1")
	assert.Equal(t, models.StepService, session.CurrentStep)
	assert.False(t, session.SlotFor(models.SlotService).Validated)
}

func TestSpanishSessionGetsSpanishPrompts(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.HandleTurn(context.Background(), models.TurnRequest{
		ConversationID: "conv-es",
		Language:       "es",
		Message:        "hola",
	})
	require.NoError(t, err)
	assert.Contains(t, result.ReplyText, "servicio")
}

func TestCancelSessionResetsState(t *testing.T) {
	svc, _, store := newTestService(t)
	turn(t, svc, "conv-1", "msg", models.CandidateMap{models.SlotService: "manicure"})

	require.NoError(t, svc.CancelSession(context.Background(), "conv-1"))

	session := loadSession(t, store, "conv-1")
	assert.Equal(t, models.StepService, session.CurrentStep)
	assert.False(t, session.SlotFor(models.SlotService).Validated)
}
