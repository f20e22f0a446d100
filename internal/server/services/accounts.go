// Package services contains server-side business logic. This file implements
// AccountService: signup, credential verification and token issue.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/cryptox"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/repomanager"
)

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	ExpiresAt time.Time
	AccountID string
}

type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.PasswordHasher
	issuer      *auth.Issuer
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher *cryptox.PasswordHasher, issuer *auth.Issuer) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
	}
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if len(password) > cryptox.MaxPasswordLen {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, cryptox.MaxPasswordLen)
	}
	return nil
}

// Register creates an account. A taken email yields common.ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, email, password string) (*models.Account, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	account, err := s.repomanager.Accounts(s.db).Create(ctx, &models.Account{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return account, nil
}

// Verify returns the account when password matches. An unknown email and a
// wrong password both yield common.ErrorUnauthorized after comparable work.
func (s *AccountService) Verify(ctx context.Context, email, password string) (*models.Account, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = s.hasher.CompareDummy(pw)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	if err := s.hasher.Compare(account.PasswordHash, pw); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return account, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, claims, err := s.issuer.Issue(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresIn: s.issuer.TTL(),
		ExpiresAt: claims.ExpiresAt.Time,
		AccountID: account.ID,
	}, nil
}
