// Package services contains server-side business logic. This file implements
// UserService: login and token refresh, profile management and the admin
// user operations.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
	"github.com/dmitrijs2005/workloadtracker/internal/server/policy"
	"github.com/dmitrijs2005/workloadtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/workloadtracker/internal/server/revocation"
	"github.com/dmitrijs2005/workloadtracker/internal/server/validation"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// Session is the result of a successful login or refresh.
type Session struct {
	User  *models.User
	Token auth.Token
}

// UserService handles sessions, the caller's own account and user
// administration.
type UserService struct {
	db          database.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	revoked     revocation.Store
	logger      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService. revoked may be nil, in which case
// logout is purely client side.
func NewUserService(db database.DB, m repomanager.RepositoryManager, tokens *auth.TokenService,
	revoked revocation.Store, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		revoked:     revoked,
		logger:      logger,
	}
}

// Login verifies username and password and issues a session token. Unknown
// users and wrong passwords fail identically, including the bcrypt cost.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.Unauthorized("username and password are required")
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			models.CheckPassword(s.dummy(), password)
			s.logger.Warn(ctx, "login failed", "username", username, "reason", "unknown user")
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !models.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn(ctx, "login failed", "username", username, "reason", "wrong password")
		return nil, common.ErrInvalidCredentials
	}
	user.PasswordHash = ""

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID, "username", user.Username)
	return &Session{User: user, Token: token}, nil
}

// Refresh issues a new token for an already authenticated caller.
func (s *UserService) Refresh(ctx context.Context, id auth.Identity) (*Session, error) {
	user, err := s.Me(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Unauthorized("user not found")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Logout denylists the token's jti until it expires when revocation is
// enabled. Otherwise it only acknowledges.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoked == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	s.logger.Info(ctx, "token revoked", "user_id", claims.UserID, "jti", claims.ID)
	return nil
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, id auth.Identity) (*models.User, error) {
	return s.load(ctx, s.db, id.ID)
}

func (s *UserService) List(ctx context.Context, id auth.Identity, page, limit int) ([]models.User, models.Page, error) {
	if err := policy.CanListUsers(id); err != nil {
		return nil, models.Page{}, err
	}

	page, limit = normalizePage(page, limit)
	users, total, err := s.repomanager.Users(s.db).List(ctx, page, limit)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("error listing users: %w", err)
	}
	return users, models.NewPage(page, limit, total), nil
}

// Get returns targetID. Permission is decided before existence.
func (s *UserService) Get(ctx context.Context, id auth.Identity, targetID int64) (*models.User, error) {
	if err := policy.CanReadUser(id, targetID); err != nil {
		return nil, err
	}
	return s.load(ctx, s.db, targetID)
}

func (s *UserService) Create(ctx context.Context, id auth.Identity, in models.UserPatch) (*models.User, error) {
	if err := policy.CanCreateUser(id); err != nil {
		return nil, err
	}
	if err := validation.NewUser(in); err != nil {
		return nil, err
	}
	role := models.RoleUser
	if in.Role != nil {
		role = *in.Role
	}

	hash, err := models.HashPassword(*in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrInternal, err)
	}

	user := &models.User{
		Username:     strings.TrimSpace(*in.Username),
		PasswordHash: hash,
		Nama:         strings.TrimSpace(*in.Nama),
		NIP:          blankToNil(in.NIP),
		Golongan:     blankToNil(in.Golongan),
		Jabatan:      blankToNil(in.Jabatan),
		Role:         role,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user created", "by", id.ID, "user_id", created.ID, "role", created.Role)
	return created, nil
}

// Update applies in to targetID after narrowing it to what the caller may
// change. A password in the patch is re-hashed.
func (s *UserService) Update(ctx context.Context, id auth.Identity, targetID int64, in models.UserPatch) (*models.User, error) {
	patch, err := policy.UserPatchFor(id, targetID, in)
	if err != nil {
		return nil, err
	}
	if err := validation.UserUpdate(patch); err != nil {
		return nil, err
	}

	err = s.db.Transaction(ctx, func(ctx context.Context, q database.Querier) error {
		repo := s.repomanager.Users(q)

		if err := repo.Update(ctx, targetID, patch); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.NotFound("user not found")
			}
			return err
		}

		if patch.Password != nil {
			hash, err := models.HashPassword(*patch.Password)
			if err != nil {
				return fmt.Errorf("%w: hash password: %v", common.ErrInternal, err)
			}
			if err := repo.UpdatePassword(ctx, targetID, hash); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, s.db, targetID)
}

// ChangePassword replaces the caller's password after checking the current
// one.
func (s *UserService) ChangePassword(ctx context.Context, id auth.Identity, current, next string) error {
	if err := validation.PasswordChange(current, next); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)
	hash, err := repo.GetPasswordHash(ctx, id.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("user not found")
		}
		return err
	}
	if !models.CheckPassword(hash, current) {
		return common.Unauthorized("current password is incorrect")
	}

	newHash, err := models.HashPassword(next)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", common.ErrInternal, err)
	}
	if err := repo.UpdatePassword(ctx, id.ID, newHash); err != nil {
		return err
	}

	s.logger.Info(ctx, "password changed", "user_id", id.ID)
	return nil
}

// Delete removes targetID. With force, the user's workloads are removed in
// the same transaction; without it, owning workloads is a conflict.
func (s *UserService) Delete(ctx context.Context, id auth.Identity, targetID int64, force bool) error {
	if err := policy.CanDeleteUser(id, targetID, 0, true); err != nil {
		return err
	}

	return s.db.Transaction(ctx, func(ctx context.Context, q database.Querier) error {
		users := s.repomanager.Users(q)

		if _, err := s.load(ctx, q, targetID); err != nil {
			return err
		}
		owned, err := users.CountWorkloads(ctx, targetID)
		if err != nil {
			return err
		}
		if err := policy.CanDeleteUser(id, targetID, owned, force); err != nil {
			return err
		}

		if owned > 0 {
			if _, err := s.repomanager.Workloads(q).DeleteByUser(ctx, targetID); err != nil {
				return err
			}
		}
		if err := users.Delete(ctx, targetID); err != nil {
			return err
		}

		s.logger.Info(ctx, "user deleted", "by", id.ID, "user_id", targetID, "workloads", owned)
		return nil
	})
}

// SeedDefaults creates the default administrator when no user exists yet.
func (s *UserService) SeedDefaults(ctx context.Context) error {
	repo := s.repomanager.Users(s.db)

	n, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("error counting users: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := models.HashPassword(defaultAdminPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", common.ErrInternal, err)
	}
	_, err = repo.Create(ctx, &models.User{
		Username:     defaultAdminUsername,
		PasswordHash: hash,
		Nama:         "Administrator",
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("error seeding admin: %w", err)
	}

	s.logger.Warn(ctx, "seeded default admin account, change its password", "username", defaultAdminUsername)
	return nil
}

func (s *UserService) load(ctx context.Context, q database.Querier, userID int64) (*models.User, error) {
	user, err := s.repomanager.Users(q).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// dummy is a valid bcrypt hash compared against when the user does not
// exist, so both failure paths cost the same.
func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := models.HashPassword("not-a-real-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func blankToNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
