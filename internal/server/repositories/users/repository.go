// Package users contains the credential store adapters: one repository
// contract with DynamoDB, Postgres, and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the sole gateway to user records.
//
// Implementations return common.ErrorNotFound for missing records and
// common.ErrorAlreadyExists when a Create collides with the unique email
// constraint (only backends that enforce uniqueness at write time can report
// this). Any other failure is storage I/O and is returned wrapped.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
