// Package services holds the portal's business logic. Handlers call into
// services; services call repositories obtained from the RepositoryManager.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/logging"
	"github.com/dmitrijs2005/incidentportal/internal/server/auth"
	"github.com/dmitrijs2005/incidentportal/internal/server/config"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
	"github.com/dmitrijs2005/incidentportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/incidentportal/internal/server/validation"
)

const (
	msgEmailTaken         = "User with this email already exists."
	msgInvalidCredentials = "Invalid email or password."
	msgUserNotFound       = "User not found."
)

// AuthResult is returned by Register and Login. Token is empty for
// profile reads.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UserService handles registration, login and profile lookups.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger

	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration

	// overridable in tests; bcrypt at full cost is slow
	hashPassword  func(string) (string, error)
	checkPassword func(hash, password string) (bool, error)
	dummyHash     func() (string, error)
}

// unknownUserHash is compared against on logins for unknown emails so that
// both failure paths cost one bcrypt comparison.
var unknownUserHash = sync.OnceValues(func() (string, error) {
	return auth.HashPassword("incidentportal-unknown-user")
})

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		log:                         log.With("module", "users"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		hashPassword:                auth.HashPassword,
		checkPassword:               auth.CheckPassword,
		dummyHash:                   unknownUserHash,
	}
}

// Register creates an account and signs a token for it. The email is
// stored lower-cased; a duplicate (including one that wins a concurrent
// race at the unique index) is reported as common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, in validation.RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if err := validation.ValidateRegister(in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.NewError(common.ErrorAlreadyExists, msgEmailTaken)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.NewValidationError(validation.MsgPasswordTooLong)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{Email: in.Email, PasswordHash: hash, Name: in.Name})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewError(common.ErrorAlreadyExists, msgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error.
func (s *UserService) Login(ctx context.Context, in validation.LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)

	if err := validation.ValidateLogin(in); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnComparison(in.Password)
			return nil, common.NewError(common.ErrorUnauthorized, msgInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.checkPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, common.NewError(common.ErrorUnauthorized, msgInvalidCredentials)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Profile returns the user with the given id. No token is issued.
func (s *UserService) Profile(ctx context.Context, id string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, msgUserNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &AuthResult{User: user, Token: ""}, nil
}

func (s *UserService) burnComparison(password string) {
	hash, err := s.dummyHash()
	if err != nil {
		return
	}
	_, _ = s.checkPassword(hash, password)
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(auth.Identity{UserID: user.ID, Email: user.Email, Name: user.Name},
		s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
