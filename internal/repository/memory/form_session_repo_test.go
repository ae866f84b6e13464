package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beta-signup/internal/domain"
)

func TestUpdateCreatesAndGetReturnsCopy(t *testing.T) {
	repo := NewFormSessionRepository(time.Minute)
	ctx := context.Background()

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	state, err := repo.Update(ctx, "s1", func(s *domain.FormState) error {
		s.Email = "a@b.co"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", state.Email)

	state.Email = "mutated"
	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", got.Email)
}

func TestUpdateErrorDiscardsChanges(t *testing.T) {
	repo := NewFormSessionRepository(time.Minute)
	ctx := context.Background()
	_, _ = repo.Update(ctx, "s1", func(s *domain.FormState) error {
		s.Phone = "1"
		return nil
	})

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "s1", func(s *domain.FormState) error {
		s.Phone = "2"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := repo.Get(ctx, "s1")
	assert.Equal(t, "1", got.Phone)
}

func TestExpiredSessionsAreDropped(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewFormSessionRepository(time.Minute)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = repo.Update(ctx, "old", func(s *domain.FormState) error { return nil })
	now = now.Add(2 * time.Minute)
	_, _ = repo.Update(ctx, "new", func(s *domain.FormState) error { return nil })

	_, err := repo.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	repo.sweep()
	assert.Equal(t, 1, repo.Len())
}

func TestUpdateIsAtomicPerSession(t *testing.T) {
	repo := NewFormSessionRepository(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Update(ctx, "s", func(s *domain.FormState) error {
				s.Remarks += "x"
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, got.Remarks, 50)
}

func TestDelete(t *testing.T) {
	repo := NewFormSessionRepository(time.Minute)
	ctx := context.Background()
	_, _ = repo.Update(ctx, "s", func(s *domain.FormState) error { return nil })
	require.NoError(t, repo.Delete(ctx, "s"))
	_, err := repo.Get(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
