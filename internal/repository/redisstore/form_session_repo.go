package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"beta-signup/internal/domain"
)

const (
	keyPrefix = "beta:form:"
	// optimistic transaction attempts before giving up with ErrSessionConflict
	maxTxAttempts = 5
)

type formSessionRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewFormSessionRepository stores each session as a JSON blob with a sliding TTL.
func NewFormSessionRepository(client *goredis.Client, ttl time.Duration) domain.FormSessionRepository {
	return &formSessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func (r *formSessionRepository) Get(ctx context.Context, id string) (*domain.FormState, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decode(data)
}

// Update runs fn inside WATCH/MULTI so two requests for the same session
// cannot interleave. fn may run more than once when the key changes underneath.
func (r *formSessionRepository) Update(ctx context.Context, id string, fn func(state *domain.FormState) error) (*domain.FormState, error) {
	key := sessionKey(id)

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		var result *domain.FormState

		err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
			state := &domain.FormState{}
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				if state, err = decode(data); err != nil {
					return err
				}
			case !errors.Is(err, goredis.Nil):
				return fmt.Errorf("redis get session: %w", err)
			}

			if err := fn(state); err != nil {
				return err
			}

			encoded, err := json.Marshal(state)
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, r.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			result = state
			return nil
		}, key)

		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	return nil, domain.ErrSessionConflict
}

func (r *formSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func decode(data []byte) (*domain.FormState, error) {
	state := &domain.FormState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return state, nil
}
