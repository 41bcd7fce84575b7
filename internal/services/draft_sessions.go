package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/graficaops/envelopamento-api/pkg/logger"
)

// ErrSessionNotFound is returned for unknown or foreign session ids
var ErrSessionNotFound = errors.New("sessão de orçamento não encontrada")

type draftSession struct {
	userID     uint
	orch       *FinalizationOrchestrator
	lastAccess time.Time
}

// DraftSessions keeps one FinalizationOrchestrator per open quote form
type DraftSessions struct {
	mu       sync.Mutex
	sessions map[string]*draftSession
	newDeps  func(userID uint) OrchestratorDeps
	now      func() time.Time
}

// NewDraftSessions creates a registry. newDeps builds the collaborators of
// each new session.
func NewDraftSessions(newDeps func(userID uint) OrchestratorDeps) *DraftSessions {
	return &DraftSessions{
		sessions: make(map[string]*draftSession),
		newDeps:  newDeps,
		now:      time.Now,
	}
}

// Open starts a session and consumes its intent
func (r *DraftSessions) Open(ctx context.Context, userID uint, intent Intent) (string, *FinalizationOrchestrator, error) {
	orch := NewFinalizationOrchestrator(r.newDeps(userID))
	if err := orch.Initialize(ctx, intent); err != nil {
		orch.Close()
		return "", nil, err
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &draftSession{userID: userID, orch: orch, lastAccess: r.now()}
	r.mu.Unlock()

	logger.Info("Quote session opened", "session_id", id, "user_id", userID, "finalize", intent.Finalize)
	return id, orch, nil
}

// Get returns the session owned by userID
func (r *DraftSessions) Get(id string, userID uint) (*FinalizationOrchestrator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	s.lastAccess = r.now()
	return s.orch, nil
}

// Close discards a session
func (r *DraftSessions) Close(id string, userID uint) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || s.userID != userID {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	s.orch.Close()
	return nil
}

// Sweep closes sessions idle for longer than maxIdle and returns how many
func (r *DraftSessions) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	var stale []*draftSession

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.lastAccess.Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.orch.Close()
	}
	return len(stale)
}

// Len returns the number of open sessions
func (r *DraftSessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll discards every session, used on shutdown
func (r *DraftSessions) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*draftSession)
	r.mu.Unlock()

	for _, s := range all {
		s.orch.Close()
	}
}
