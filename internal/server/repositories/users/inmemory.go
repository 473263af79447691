package users

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// InMemoryRepository keeps user records in process memory. It is used by
// tests and by local runs that have no store to talk to. The email lookup is
// case-insensitive, mirroring the unique index of the SQL backend.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(email)
}

func (r *InMemoryRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[emailKey(user.Email)]; ok {
		return common.ErrorAlreadyExists
	}
	if _, ok := r.byID[user.UserID]; ok {
		return common.ErrorAlreadyExists
	}

	r.byID[user.UserID] = *user
	r.byEmail[emailKey(user.Email)] = user.UserID
	return nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &user, nil
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	user := r.byID[id]
	return &user, nil
}
