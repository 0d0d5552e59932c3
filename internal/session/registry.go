package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"cdpclient/internal/catalog"
	"cdpclient/internal/cdp"
	"cdpclient/internal/transport"
)

// Registry owns one Session per connected target and routes inbound frames
// to the right one. Sessions are independent: ids and event names may
// collide across targets without ever crossing over.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	catalog  *catalog.Catalog
	dedupCap int
}

func NewRegistry(cat *catalog.Catalog, dedupCap int) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		catalog:  cat,
		dedupCap: dedupCap,
	}
}

// Open creates a fresh correlator + dispatcher pair for targetID over the
// given transport.
func (r *Registry) Open(targetID string, tr transport.Transport) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[targetID]; exists {
		return nil, fmt.Errorf("session for target %q already open", targetID)
	}

	s := newSession(targetID, r.catalog, tr, r.dedupCap)
	r.sessions[targetID] = s

	log.Info().Str("target", targetID).Msg("session opened")
	return s, nil
}

func (r *Registry) Get(targetID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[targetID]
	return s, ok
}

// Route hands an inbound frame to the session owning targetID. Frames for
// unopened or already-closed targets are dropped with a logged warning; the
// returned violation is informational and never fatal to the registry.
func (r *Registry) Route(targetID string, msg *cdp.Message) error {
	r.mu.RLock()
	s, ok := r.sessions[targetID]
	r.mu.RUnlock()

	if !ok {
		err := &cdp.ProtocolViolation{
			Context: "route",
			Reason:  fmt.Sprintf("no open session for target %q", targetID),
		}
		log.Warn().Str("target", targetID).Msg("dropping frame for unknown session")
		return err
	}

	s.HandleFrame(msg)
	return nil
}

// Close tears down the session for targetID: every pending request rejects
// with a connection-closed error in ascending id order, dedup state is
// discarded, and no further frames route to it.
func (r *Registry) Close(targetID string) error {
	r.mu.Lock()
	s, ok := r.sessions[targetID]
	if ok {
		delete(r.sessions, targetID)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("no open session for target %q", targetID)
	}

	s.close()
	log.Info().Str("target", targetID).Msg("session closed")
	return nil
}

// CloseAll tears down every open session, for process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// SessionDTO is the introspection view of one session.
type SessionDTO struct {
	TargetID     string    `json:"target_id"`
	PendingCount int       `json:"pending_count"`
	Listeners    int       `json:"listeners"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Session) ToModel() *SessionDTO {
	return &SessionDTO{
		TargetID:     s.targetID,
		PendingCount: s.correlator.PendingCount(),
		Listeners:    s.dispatcher.ListenerCount(),
		CreatedAt:    s.createdAt,
	}
}

// List returns DTOs for every open session.
func (r *Registry) List() []*SessionDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*SessionDTO, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.ToModel())
	}
	return out
}
