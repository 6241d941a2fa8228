package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookline/models"
	"bookline/services/catalog"

	"go.uber.org/zap"
)

// fakeBackend is a scripted scheduling backend. SubmitOrder consumes
// submitErrs in order and succeeds once the script runs out.
type fakeBackend struct {
	mu sync.Mutex

	services  []models.Service
	locations []models.Location
	units     []models.TimeUnit

	availabilityErr error
	submitErrs      []error

	submitted         []models.OrderRequest
	availabilityCalls int
}

func newFakeBackend() *fakeBackend {
	units := make([]models.TimeUnit, 0, 32)
	for minute := 9 * 60; minute < 17*60; minute += 15 {
		units = append(units, models.TimeUnit{ID: fmt.Sprintf("u%d", minute), StartMinute: minute})
	}
	return &fakeBackend{
		services: []models.Service{
			{ID: "svc-1", Name: "Manicure", DurationMinutes: 30},
			{ID: "svc-2", Name: "Pedicure", DurationMinutes: 45},
			{ID: "svc-3", Name: "Massage", DurationMinutes: 60},
		},
		locations: []models.Location{
			{ID: "loc-1", Name: "Downtown"},
			{ID: "loc-2", Name: "Westside"},
		},
		units: units,
	}
}

func (b *fakeBackend) ListServices(ctx context.Context) ([]models.Service, error) {
	return b.services, nil
}

func (b *fakeBackend) ListLocations(ctx context.Context) ([]models.Location, error) {
	return b.locations, nil
}

func (b *fakeBackend) QueryAvailability(ctx context.Context, serviceID, locationID, date string) ([]models.TimeUnit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.availabilityCalls++
	if b.availabilityErr != nil {
		return nil, b.availabilityErr
	}
	return b.units, nil
}

func (b *fakeBackend) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderReceipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted = append(b.submitted, req)
	if len(b.submitErrs) > 0 {
		err := b.submitErrs[0]
		b.submitErrs = b.submitErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &models.OrderReceipt{BookingID: "bk-001", PaymentRef: "pay-001"}, nil
}

// memDurableStore is an in-memory DurableSessionStore with a settable write
// failure, standing in for Redis.
type memDurableStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	putErr error
}

func newMemDurableStore() *memDurableStore {
	return &memDurableStore{blobs: make(map[string][]byte)}
}

func (m *memDurableStore) GetSessionBlob(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return blob, nil
}

func (m *memDurableStore) PutSessionBlob(ctx context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.blobs[key] = blob
	return nil
}

func (m *memDurableStore) DeleteSessionBlob(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func newTestService(t *testing.T) (*DefaultAssistantService, *fakeBackend, *SessionStore) {
	t.Helper()
	backend := newFakeBackend()
	catalogSvc := catalog.NewDefaultCatalogService(backend, time.Hour)
	store := NewSessionStore(newMemDurableStore(), zap.NewNop())

	svc := &DefaultAssistantService{
		Store:     store,
		Validator: &SlotValidator{Catalog: catalogSvc, Backend: backend},
		Reconciler: &AvailabilityReconciler{
			Backend: backend,
			Store:   store,
			Logger:  zap.NewNop(),
		},
		Logger: zap.NewNop(),
	}
	return svc, backend, store
}

func turn(t *testing.T, svc *DefaultAssistantService, conversationID string, message string, candidates models.CandidateMap) *models.TurnResult {
	t.Helper()
	result, err := svc.HandleTurn(context.Background(), models.TurnRequest{
		ConversationID: conversationID,
		Message:        message,
		Candidates:     candidates,
	})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	return result
}

// fillSession drives a conversation through all six slots.
func fillSession(t *testing.T, svc *DefaultAssistantService, conversationID string) {
	t.Helper()
	steps := []models.CandidateMap{
		{models.SlotService: "manicure"},
		{models.SlotLocation: "downtown"},
		{models.SlotDate: "tomorrow"},
		{models.SlotTime: "3pm"},
		{models.SlotName: "Jane Doe"},
		{models.SlotEmail: "jane@example.com"},
	}
	for _, candidates := range steps {
		turn(t, svc, conversationID, "msg", candidates)
	}
}

func loadSession(t *testing.T, store *SessionStore, conversationID string) *models.BookingSession {
	t.Helper()
	session, err := store.Load(context.Background(), SessionKey(conversationID))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return session
}
