// Package services contains server-side business logic. This file implements
// UserService: the credential store and access-token issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/dbx"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/config"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/repomanager"
)

// Session is what signup and login hand back to the client.
type Session struct {
	Token string
	User  *models.User
}

// UserService provides authentication-related operations:
// - Register: create a user and log them in
// - Login: verify credentials and mint an access token
// - CreateUser: create a user without a session (admin commands)
// - Authenticate: resolve an access token to a user ID
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  cfg.BcryptCost,
	}
}

// Register creates an active user and returns a Session for it. A missing
// email or password yields ErrValidation, a taken email ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.CreateUser(ctx, email, password, true)
	if err != nil {
		return nil, err
	}
	return s.newSession(user)
}

// CreateUser stores a new user with a bcrypt hash of password.
func (s *UserService) CreateUser(ctx context.Context, email, password string, active bool) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := requireCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			return nil, common.ErrorAlreadyExists
		case !errors.Is(err, common.ErrorNotFound):
			return nil, fmt.Errorf("error looking up user: %w", err)
		}

		user, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash, IsActive: active})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return nil, err
			}
			return nil, fmt.Errorf("error creating user: %w", err)
		}
		return user, nil
	})
}

// Login verifies email and password and returns a new Session. Unknown emails
// and wrong passwords are both reported as ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := requireCredentials(email, password); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same bcrypt time as a real check
			_, _ = auth.CheckPassword(s.getDummyHash(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	return s.newSession(user)
}

// Authenticate resolves an access token to the user ID it was issued for.
func (s *UserService) Authenticate(token string) (int64, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// --- helpers below ---

func requireCredentials(email, password string) error {
	if email == "" {
		return common.Invalid("Email is required")
	}
	if password == "" {
		return common.Invalid("Password is required")
	}
	return nil
}

func (s *UserService) newSession(user *models.User) (*Session, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &Session{Token: token, User: user}, nil
}

func (s *UserService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("sheetkeeper-dummy", s.bcryptCost)
	})
	return s.dummyHash
}
