package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/server/models"
)

// MemoryRepository is a process-local Repository. It honours the same
// conditional-revoke contract as the persistent stores and is used in
// tests and single-process tools.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	tokens map[string]*models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]*models.RefreshToken)}
}

func (r *MemoryRepository) Create(ctx context.Context, userID int64, token string, expiresAt, createdAt time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token]; ok {
		return 0, ErrDuplicateToken
	}
	r.nextID++
	r.tokens[token] = &models.RefreshToken{
		ID:        r.nextID,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}
	return r.nextID, nil
}

func (r *MemoryRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) Revoke(ctx context.Context, token string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok || t.Revoked {
		return false, nil
	}
	revoke(t, at)
	return true, nil
}

func (r *MemoryRepository) RevokeAll(ctx context.Context, userID int64, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Revoked {
			revoke(t, at)
			n++
		}
	}
	return n, nil
}

func revoke(t *models.RefreshToken, at time.Time) {
	t.Revoked = true
	t.RevokedAt = &at
}
