package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"bookline/models"

	"go.uber.org/zap"
)

// ErrSessionNotFound is what a DurableSessionStore returns for an absent key.
var ErrSessionNotFound = errors.New("booking session not found")

// DurableSessionStore is the persistence collaborator behind the in-process
// session cache. Implementations store opaque JSON blobs keyed by session key.
type DurableSessionStore interface {
	GetSessionBlob(ctx context.Context, key string) ([]byte, error)
	PutSessionBlob(ctx context.Context, key string, blob []byte) error
	DeleteSessionBlob(ctx context.Context, key string) error
}

// SessionStore is the two-tier session store: an in-process map in front of
// a durable store. Save writes memory first and treats the durable write as
// best-effort; within a process the in-memory view is authoritative, so a
// Load after a Save always observes the latest write. Conversational
// continuity is worth more than losing one update on a process restart.
//
// Each store owns its cache; there is no package-level state, so tests can
// run any number of independent stores.
type SessionStore struct {
	durable DurableSessionStore
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]*models.BookingSession
	locks map[string]*sync.Mutex
}

func NewSessionStore(durable DurableSessionStore, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		durable: durable,
		logger:  logger,
		cache:   make(map[string]*models.BookingSession),
		locks:   make(map[string]*sync.Mutex),
	}
}

// LockKey serializes turns for one session key. Turns for different keys run
// in parallel; two messages for the same conversation arriving close together
// must not race each other's load/save.
func (s *SessionStore) LockKey(key string) func() {
	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Load returns the session for key, or nil when none exists. On an in-process
// miss it reads through to the durable store and populates the cache.
func (s *SessionStore) Load(ctx context.Context, key string) (*models.BookingSession, error) {
	s.mu.Lock()
	if session, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return session, nil
	}
	s.mu.Unlock()

	blob, err := s.durable.GetSessionBlob(ctx, key)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, NewSessionError("failed to read booking session: " + err.Error())
	}

	var session models.BookingSession
	if err := json.Unmarshal(blob, &session); err != nil {
		return nil, NewSessionError("corrupt booking session blob: " + err.Error())
	}

	s.mu.Lock()
	s.cache[key] = &session
	s.mu.Unlock()
	return &session, nil
}

// Save writes the session to both tiers. A durable-store failure is logged
// and does not roll back the in-process tier.
func (s *SessionStore) Save(ctx context.Context, key string, session *models.BookingSession) error {
	if session == nil {
		return NewSessionError("cannot save nil session")
	}

	s.mu.Lock()
	s.cache[key] = session
	s.mu.Unlock()

	blob, err := json.Marshal(session)
	if err != nil {
		return NewSessionError("failed to marshal booking session: " + err.Error())
	}
	if err := s.durable.PutSessionBlob(ctx, key, blob); err != nil {
		s.logger.Warn("durable session write failed, in-memory tier stays authoritative",
			zap.String("sessionKey", key), zap.Error(err))
	}
	return nil
}

// Clear resets the session for key to a fresh, empty one. Conversation
// identity and language carry over; collected slots do not. The session is
// reset rather than deleted so the next message starts a clean flow. The old
// session is loaded through both tiers, so a reset right after a process
// restart still keeps the conversation's identity.
func (s *SessionStore) Clear(ctx context.Context, key string) error {
	old, err := s.Load(ctx, key)
	if err != nil {
		return err
	}

	var fresh *models.BookingSession
	if old != nil {
		fresh = NewBookingSession(old.ConversationID, old.CustomerID, old.Language)
	} else {
		fresh = NewBookingSession(strings.TrimPrefix(key, "sess:"), "", "")
	}
	return s.Save(ctx, key, fresh)
}

// NewBookingSession builds an empty session with every slot unvalidated and
// the current step at the first kind in canonical order.
func NewBookingSession(conversationID, customerID, language string) *models.BookingSession {
	now := time.Now()
	session := &models.BookingSession{
		SessionID:      "sess:" + conversationID,
		ConversationID: conversationID,
		CustomerID:     customerID,
		Slots:          make(map[models.SlotKind]models.Slot, len(models.SlotOrder)),
		CurrentStep:    models.StepService,
		Language:       language,
		StartedAt:      now,
		UpdatedAt:      now,
	}
	for _, kind := range models.SlotOrder {
		session.Slots[kind] = models.Slot{}
	}
	return session
}

// SessionKey derives the store key for a conversation.
func SessionKey(conversationID string) string {
	return "sess:" + conversationID
}
