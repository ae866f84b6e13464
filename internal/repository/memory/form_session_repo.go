package memory

import (
	"context"
	"sync"
	"time"

	"beta-signup/internal/domain"
)

type entry struct {
	state     domain.FormState
	expiresAt time.Time
}

// FormSessionRepository keeps form sessions in process memory. It is the
// fallback when redis is not configured.
type FormSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func NewFormSessionRepository(ttl time.Duration) *FormSessionRepository {
	return &FormSessionRepository{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *FormSessionRepository) Get(ctx context.Context, id string) (*domain.FormState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.live(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	state := e.state
	return &state, nil
}

func (r *FormSessionRepository) Update(ctx context.Context, id string, fn func(state *domain.FormState) error) (*domain.FormState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var state domain.FormState
	if e, ok := r.live(id); ok {
		state = e.state
	}

	if err := fn(&state); err != nil {
		return nil, err
	}

	r.sessions[id] = &entry{state: state, expiresAt: r.now().Add(r.ttl)}
	out := state
	return &out, nil
}

func (r *FormSessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Len counts stored sessions, expired ones included until the next sweep.
func (r *FormSessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartCleanup sweeps expired sessions every interval until ctx is done.
func (r *FormSessionRepository) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep()
			}
		}
	}()
}

func (r *FormSessionRepository) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, e := range r.sessions {
		if now.After(e.expiresAt) {
			delete(r.sessions, id)
		}
	}
}

// live must be called with mu held.
func (r *FormSessionRepository) live(id string) (*entry, bool) {
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if r.now().After(e.expiresAt) {
		delete(r.sessions, id)
		return nil, false
	}
	return e, true
}
