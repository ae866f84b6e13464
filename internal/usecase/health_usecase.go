package usecase

import (
	"context"
	"time"

	"beta-signup/internal/domain"
)

const healthTimeout = 2 * time.Second

type HealthUsecase interface {
	// Check reports component states and whether this service can serve.
	Check(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	backend domain.BetaTesterRepository
	store   func(ctx context.Context) error
}

// NewHealthUsecase checks the backend and, when non-nil, the session store.
// An unreachable backend only degrades the service; a broken store fails it.
func NewHealthUsecase(backend domain.BetaTesterRepository, store func(ctx context.Context) error) HealthUsecase {
	return &healthUsecase{backend: backend, store: store}
}

func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	out := map[string]string{
		"status":  "ok",
		"backend": "ok",
		"store":   "ok",
	}
	healthy := true

	if u.store != nil {
		if err := u.store(ctx); err != nil {
			out["store"] = "unavailable"
			out["status"] = "unavailable"
			healthy = false
		}
	}

	if err := u.backend.Ping(ctx); err != nil {
		out["backend"] = "unavailable"
		if healthy {
			out["status"] = "degraded"
		}
	}

	return out, healthy
}
