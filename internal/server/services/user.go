// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and token-guarded profile
// reads.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/password"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// LoginResult is what a successful login returns to the client: the session
// token plus the user's public fields. The password hash never leaves the
// service.
type LoginResult struct {
	Token    string
	UserID   string
	Name     string
	Email    string
	Role     string
	IsActive bool
}

// UserService provides the authentication flows:
//   - Register: uniqueness check, hash, persist
//   - Login: lookup, verify password, issue token
//   - GetProfile: verify token, fetch the identity it names
//
// Each call is stateless and safe to run in parallel with any other; the
// only shared state is the store itself.
type UserService struct {
	repo   users.Repository
	hasher *password.Hasher
	tokens *auth.TokenService
}

func NewUserService(repo users.Repository, hasher *password.Hasher, tokens *auth.TokenService) *UserService {
	return &UserService{repo: repo, hasher: hasher, tokens: tokens}
}

// Register creates a new account and returns its generated userId.
//
// The email uniqueness check here is read-then-write and is not atomic for
// backends without a store-level constraint; see the users package for which
// backends close the race.
func (s *UserService) Register(ctx context.Context, name, email, plaintext string) (string, error) {

	if name == "" || email == "" || plaintext == "" {
		return "", common.ErrorValidation
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return "", common.ErrorEmailExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", fmt.Errorf("error checking email: %w", err)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	active := true
	user := &models.User{
		UserID:       uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.DefaultRole,
		IsActive:     &active,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// A concurrent registration for the same email won the write.
			return "", common.ErrorEmailExists
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}

	return user.UserID, nil
}

// Login verifies the credentials and, on success, returns a session token
// with the user's public fields. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {

	if email == "" || plaintext == "" {
		return nil, common.ErrorValidation
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	role := models.ResolveRole(user.Role)

	token, err := s.tokens.Issue(user.UserID, user.Email, role)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	return &LoginResult{
		Token:    token,
		UserID:   user.UserID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     role,
		IsActive: models.ResolveActive(user.IsActive),
	}, nil
}

// GetProfile verifies the presented token and returns the public fields of
// the user it names. The token stays valid even if the account has since
// been deleted; that case surfaces as common.ErrorNotFound, not as a
// credential failure.
func (s *UserService) GetProfile(ctx context.Context, tokenString string) (*models.PublicUser, error) {

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		// common.ErrTokenExpired or common.ErrInvalidToken, already mapped.
		return nil, err
	}

	if claims.UserID == "" {
		return nil, common.ErrorNoUserID
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	pub := user.Public()
	return &pub, nil
}
