package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/metrics"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/google/uuid"
)

// Session is the state of one user's open flow.
type Session struct {
	UpdatedAt time.Time  `json:"updated_at"`
	ID        string     `json:"id"`
	Flow      model.Flow `json:"flow"`
	Current   Snapshot   `json:"current"`
	History   []Snapshot `json:"history,omitempty"`
	UserID    int64      `json:"user_id"`
}

// NewSession opens flow for userID with nothing selected.
func NewSession(userID int64, flow model.Flow, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Flow:      flow,
		UpdatedAt: now,
	}
}

// State derives the prompt the session is waiting on.
func (s *Session) State() State {
	return deriveState(s.Flow, s.Current)
}

// Push records a copy of the current snapshot. Call it before every mutation.
func (s *Session) Push() {
	s.History = append(s.History, s.Current.Clone())
}

// Back restores the previous snapshot. With no history left the session
// returns to the flow's entry state.
func (s *Session) Back() {
	if len(s.History) == 0 {
		s.Current = Snapshot{}
		return
	}
	last := len(s.History) - 1
	s.Current = s.History[last]
	s.History = s.History[:last]
}

func (s *Session) clone() *Session {
	out := *s
	out.Current = s.Current.Clone()
	out.History = make([]Snapshot, len(s.History))
	for i, snap := range s.History {
		out.History[i] = snap.Clone()
	}
	return &out
}

func (s *Session) stored() (model.StoredSession, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return model.StoredSession{}, fmt.Errorf("failed to encode session: %w", err)
	}
	return model.StoredSession{
		ID:        s.ID,
		UserID:    s.UserID,
		Flow:      s.Flow,
		Payload:   payload,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

func sessionFromStored(stored model.StoredSession) (*Session, error) {
	var s Session
	if err := json.Unmarshal(stored.Payload, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", stored.ID, err)
	}
	if !s.Flow.Valid() || s.UserID != stored.UserID {
		return nil, fmt.Errorf("session %s: inconsistent payload", stored.ID)
	}
	return &s, nil
}

// StoreOptions configures a SessionStore.
type StoreOptions struct {
	Persistence     service.SessionPersistence
	Metrics         metrics.Recorder
	Now             func() time.Time
	MaxIdle         time.Duration
	CleanupInterval time.Duration
}

type userSlot struct {
	session *Session
	mu      sync.Mutex
}

// SessionStore holds at most one session per user. Callers take the user's
// lock with Lock for the duration of one event; sessions of different users
// are independent. Sessions are written through to the optional persistence.
type SessionStore struct {
	persistence service.SessionPersistence
	metrics     metrics.Recorder
	now         func() time.Time
	slots       map[int64]*userSlot
	stopCh      chan struct{}
	maxIdle     time.Duration
	interval    time.Duration
	open        int
	mu          sync.Mutex
	once        sync.Once
}

// NewSessionStore creates a store. Call Start to run the expiry loop.
func NewSessionStore(opts StoreOptions) *SessionStore {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = 24 * time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Hour
	}
	return &SessionStore{
		persistence: opts.Persistence,
		metrics:     metrics.OrNop(opts.Metrics),
		now:         opts.Now,
		slots:       make(map[int64]*userSlot),
		stopCh:      make(chan struct{}),
		maxIdle:     opts.MaxIdle,
		interval:    opts.CleanupInterval,
	}
}

// Lease is exclusive access to one user's session until Release.
type Lease struct {
	store  *SessionStore
	slot   *userSlot
	userID int64
}

// Lock waits for exclusive access to userID's session. Slots are never
// removed, so two callers for the same user always share one mutex.
func (s *SessionStore) Lock(userID int64) *Lease {
	s.mu.Lock()
	slot, ok := s.slots[userID]
	if !ok {
		slot = &userSlot{}
		s.slots[userID] = slot
	}
	s.mu.Unlock()

	slot.mu.Lock()
	return &Lease{store: s, slot: slot, userID: userID}
}

// Release gives up access.
func (h *Lease) Release() {
	h.slot.mu.Unlock()
}

// Session returns the user's open session, loading it from persistence when
// it is not in memory. It returns common.ErrNoSession when there is none or
// it has been idle too long.
func (h *Lease) Session(ctx context.Context) (*Session, error) {
	if h.slot.session != nil {
		if h.store.expired(h.slot.session) {
			h.drop(ctx)
			return nil, common.ErrNoSession
		}
		return h.slot.session, nil
	}
	if h.store.persistence == nil {
		return nil, common.ErrNoSession
	}

	stored, err := h.store.persistence.LoadSession(ctx, h.userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrNoSession
	}
	if err != nil {
		return nil, common.Unavailable("load session", err)
	}
	session, err := sessionFromStored(stored)
	if err != nil {
		slog.Warn("Discarding unreadable session", "user_id", h.userID, "error", err)
		h.drop(ctx)
		return nil, common.ErrNoSession
	}
	if h.store.expired(session) {
		h.drop(ctx)
		return nil, common.ErrNoSession
	}
	h.store.assign(h.slot, session)
	return session, nil
}

// Put stores session as the user's session, replacing any other.
func (h *Lease) Put(ctx context.Context, session *Session) {
	session.UpdatedAt = h.store.now()
	h.store.assign(h.slot, session)

	if h.store.persistence == nil {
		return
	}
	stored, err := session.stored()
	if err == nil {
		err = h.store.persistence.SaveSession(ctx, stored)
	}
	if err != nil {
		// The in-memory copy stays authoritative for this process.
		slog.Warn("Failed to persist session", "user_id", h.userID, "session_id", session.ID, "error", err)
	}
}

// Delete removes the user's session.
func (h *Lease) Delete(ctx context.Context) {
	h.drop(ctx)
}

func (h *Lease) drop(ctx context.Context) {
	h.store.assign(h.slot, nil)
	if h.store.persistence == nil {
		return
	}
	if err := h.store.persistence.DeleteSession(ctx, h.userID); err != nil {
		slog.Warn("Failed to delete stored session", "user_id", h.userID, "error", err)
	}
}

// assign sets the session of a slot whose lock the caller holds.
func (s *SessionStore) assign(slot *userSlot, session *Session) {
	had := slot.session != nil
	slot.session = session

	s.mu.Lock()
	switch {
	case had && session == nil:
		s.open--
	case !had && session != nil:
		s.open++
	}
	open := s.open
	s.mu.Unlock()

	s.metrics.SessionsActive(open)
}

func (s *SessionStore) expired(session *Session) bool {
	return s.now().Sub(session.UpdatedAt) > s.maxIdle
}

// Active returns the number of sessions held in memory.
func (s *SessionStore) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Start runs the expiry loop until ctx is done or Close is called.
func (s *SessionStore) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.Purge(ctx)
			}
		}
	}()
}

// Purge drops every session idle for longer than the configured maximum and
// returns how many in-memory sessions were removed. Users mid-event are
// skipped until the next pass.
func (s *SessionStore) Purge(ctx context.Context) int {
	s.mu.Lock()
	slots := make([]*userSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		slots = append(slots, slot)
	}
	s.mu.Unlock()

	removed := 0
	for _, slot := range slots {
		if !slot.mu.TryLock() {
			continue
		}
		if slot.session != nil && s.expired(slot.session) {
			s.assign(slot, nil)
			removed++
		}
		slot.mu.Unlock()
	}

	if s.persistence != nil {
		n, err := s.persistence.PurgeSessions(ctx, s.now().Add(-s.maxIdle))
		if err != nil {
			slog.Warn("Failed to purge stored sessions", "error", err)
		} else if n > 0 {
			slog.Info("Purged idle sessions", "count", n)
		}
	}
	return removed
}

// Close stops the expiry loop. It is safe to call more than once.
func (s *SessionStore) Close() {
	s.once.Do(func() { close(s.stopCh) })
}
