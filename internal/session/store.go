package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chantierhq/access/internal/audit"
	"github.com/chantierhq/access/internal/authz"
	"github.com/chantierhq/access/internal/observability/logger"
	"github.com/chantierhq/access/internal/storage"
)

// DefaultSlotKey is the durable slot the store persists the principal under.
const DefaultSlotKey = "auth_user"

// Listener receives the principal after a state transition completes; nil
// means the session became anonymous. Callbacks run synchronously on the
// goroutine that performed the transition.
type Listener func(*Principal)

// Store is the authoritative holder of the session state. It ingests
// identity-provider claim sets, persists the resulting principal to a single
// durable slot, rehydrates it on startup, and notifies subscribers on every
// transition.
//
// Persistence faults never surface to callers: the store logs once, emits an
// audit event, and continues in memory only for the rest of the process.
type Store struct {
	storage storage.Store
	deriver *RoleDeriver
	auditor audit.Logger
	slotKey string

	mu           sync.RWMutex
	current      *Principal
	rehydrated   bool
	degraded     bool
	listeners    map[int]Listener
	nextListener int
}

// NewStore creates a session store over the given durable storage and role
// deriver. An empty slotKey selects DefaultSlotKey.
func NewStore(st storage.Store, deriver *RoleDeriver, auditor audit.Logger, slotKey string) *Store {
	if slotKey == "" {
		slotKey = DefaultSlotKey
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Store{
		storage:   st,
		deriver:   deriver,
		auditor:   auditor,
		slotKey:   slotKey,
		listeners: make(map[int]Listener),
	}
}

// Ingest validates a claim set, constructs the principal, persists it, and
// transitions the session to authenticated. The only error it returns is
// ErrInvalidClaims, in which case state is unchanged. Ingesting identical
// claims twice leaves the session observably unchanged.
func (s *Store) Ingest(ctx context.Context, claims Claims) (*Principal, error) {
	if err := claims.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	name := claims.Name
	if name == "" {
		name = email
	}
	avatar := claims.Picture
	if avatar == "" {
		avatar = fmt.Sprintf(avatarFallback, email)
	}

	principal := &Principal{
		ID:          claims.Subject,
		Email:       email,
		DisplayName: name,
		AvatarURL:   avatar,
		Role:        s.deriver.Derive(email),
		CreatedAt:   time.Now().UnixMilli(),
	}

	s.mu.Lock()
	if s.current != nil && s.current.sameIdentity(principal) {
		// Same claims as the live session: keep the original principal so
		// CreatedAt stays stable.
		principal = s.current
	}
	s.current = principal
	s.persistLocked(ctx, principal)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.auditor.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ActorID:  principal.ID,
		Resource: "session",
		Metadata: map[string]any{audit.AttrRole: string(principal.Role)},
	})

	notify(listeners, principal)
	return principal, nil
}

// Logout transitions to anonymous and purges the durable slot. Safe to call
// in any state; calling it twice is the same as calling it once.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	wasAuthenticated := s.current != nil
	actorID := ""
	if s.current != nil {
		actorID = s.current.ID
	}
	s.current = nil
	s.removeLocked(ctx)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if !wasAuthenticated {
		return
	}

	s.auditor.Log(ctx, audit.Event{
		Type:     audit.TypeLogout,
		ActorID:  actorID,
		Resource: "session",
	})
	notify(listeners, nil)
}

// Rehydrate reads the durable slot and restores the session if the stored
// value passes schema validation. It runs at most once per store; later
// calls are no-ops. Malformed content, an unknown role, or a corrupt sealed
// value are not errors: the slot is purged and the session stays anonymous.
func (s *Store) Rehydrate(ctx context.Context) {
	s.mu.Lock()
	if s.rehydrated {
		s.mu.Unlock()
		return
	}
	s.rehydrated = true

	value, ok, err := s.storage.Get(s.slotKey)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			s.purgeLocked(ctx, "corrupt_slot")
			s.mu.Unlock()
			return
		}
		s.degradeLocked(ctx, err)
		s.mu.Unlock()
		return
	}
	if !ok {
		s.mu.Unlock()
		return
	}

	var principal Principal
	if err := json.Unmarshal([]byte(value), &principal); err != nil {
		s.purgeLocked(ctx, "unparseable_slot")
		s.mu.Unlock()
		return
	}
	if err := principal.Validate(); err != nil {
		reason := "invalid_schema"
		if errors.Is(err, ErrUnknownRole) {
			reason = "unknown_role"
		}
		s.purgeLocked(ctx, reason)
		s.mu.Unlock()
		return
	}

	s.current = &principal
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.auditor.Log(ctx, audit.Event{
		Type:     audit.TypeSessionRehydrated,
		ActorID:  principal.ID,
		Resource: "session",
		Metadata: map[string]any{audit.AttrRole: string(principal.Role)},
	})
	notify(listeners, &principal)
}

// Current returns the authenticated principal, or nil for an anonymous
// session.
func (s *Store) Current() *Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// IsAuthenticated reports whether a principal is present.
func (s *Store) IsAuthenticated() bool {
	return s.Current() != nil
}

// CurrentRole implements authz.RoleSource.
func (s *Store) CurrentRole() (authz.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Role, true
}

// Subscribe registers a listener for state transitions and returns its
// unsubscribe function.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// persistLocked writes the principal to the durable slot. Callers hold the
// write lock.
func (s *Store) persistLocked(ctx context.Context, principal *Principal) {
	if s.degraded {
		return
	}
	encoded, err := json.Marshal(principal)
	if err != nil {
		// Principal is a plain struct; this cannot fail in practice.
		slog.ErrorContext(ctx, "failed to encode principal", logger.Error(err))
		return
	}
	if err := s.storage.Set(s.slotKey, string(encoded)); err != nil {
		s.degradeLocked(ctx, err)
	}
}

// removeLocked purges the durable slot, absorbing backend faults.
func (s *Store) removeLocked(ctx context.Context) {
	if s.degraded {
		return
	}
	if err := s.storage.Remove(s.slotKey); err != nil {
		s.degradeLocked(ctx, err)
	}
}

// purgeLocked drops an unusable slot and records why.
func (s *Store) purgeLocked(ctx context.Context, reason string) {
	_ = s.storage.Remove(s.slotKey)
	slog.WarnContext(ctx, "purged unusable session slot", logger.String("reason", reason))
	s.auditor.Log(ctx, audit.Event{
		Type:     audit.TypeSessionPurged,
		Resource: "session",
		Metadata: map[string]any{audit.AttrReason: reason},
	})
}

// degradeLocked switches the store to in-memory-only mode. Logged once per
// process; never surfaced to callers so navigation stays available.
func (s *Store) degradeLocked(ctx context.Context, err error) {
	if s.degraded {
		return
	}
	s.degraded = true
	slog.WarnContext(ctx, "session storage unavailable, continuing in memory only", logger.Error(err))
	s.auditor.Log(ctx, audit.Event{
		Type:     audit.TypeStorageDegraded,
		Resource: "session",
		Metadata: map[string]any{audit.AttrReason: err.Error()},
	})
}

func (s *Store) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, principal *Principal) {
	for _, fn := range listeners {
		fn(principal)
	}
}
