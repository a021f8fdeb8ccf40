// Package account manages user records and authentication. Password hashes
// never leave the core: every user returned by this service is the public
// view.
package account

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tillpos/internal/apperror"
	"tillpos/internal/config"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/storage"
)

const bcryptCost = 12

type Service struct {
	store *storage.Store
	cfg   *config.Config
}

func NewService(store *storage.Store, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// Login verifies the name/password pair and issues a bearer token carrying
// the user's role and branch assignments. The same failure is reported for an
// unknown name and a wrong password.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	var match *model.User
	err := s.store.View(ctx, func(tx *storage.Tx) error {
		users, err := storage.ReadAll[model.User](ctx, tx, storage.Users)
		if err != nil {
			return err
		}
		for _, u := range users {
			if strings.EqualFold(u.Name, req.Name) {
				match = &u
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, &apperror.InvalidArgumentError{Detail: "invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(match.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &apperror.InvalidArgumentError{Detail: "invalid credentials"}
	}

	token, err := s.generateToken(match, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWTExpirationHours * 3600,
		User:        match.Public(),
	}, nil
}

// Create adds a user account. Branch assignments must be non-empty — an
// account without a branch cannot start a shift or sell anything.
func (s *Service) Create(ctx context.Context, req dto.CreateUserRequest) (*model.User, error) {
	role := model.Role(req.Role)
	if role != model.RoleAdmin && role != model.RoleCashier {
		return nil, &apperror.InvalidArgumentError{Detail: "unknown role " + req.Role}
	}
	if len(req.BranchIDs) == 0 {
		return nil, &apperror.InvalidArgumentError{Detail: "user needs at least one branch"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, &apperror.StorageError{Op: "hash password", Err: err}
	}

	created := model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         role,
		BranchIDs:    req.BranchIDs,
	}
	err = s.store.Update(ctx, func(tx *storage.Tx) error {
		users, err := storage.ReadAll[model.User](ctx, tx, storage.Users)
		if err != nil {
			return err
		}
		for _, u := range users {
			if strings.EqualFold(u.Name, req.Name) {
				return &apperror.ConflictError{Detail: "a user with that name already exists"}
			}
		}
		users = append(users, created)
		return storage.ReplaceAll(ctx, tx, storage.Users, users)
	})
	if err != nil {
		return nil, err
	}
	public := created.Public()
	return &public, nil
}

// List returns every account without password hashes.
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := s.store.View(ctx, func(tx *storage.Tx) error {
		users, err := storage.ReadAll[model.User](ctx, tx, storage.Users)
		if err != nil {
			return err
		}
		out = make([]model.User, 0, len(users))
		for _, u := range users {
			out = append(out, u.Public())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureDefaults seeds the demo admin and cashier the first time the store is
// used, assigned to branchID.
func (s *Service) EnsureDefaults(ctx context.Context, branchID string) error {
	return s.store.Update(ctx, func(tx *storage.Tx) error {
		users, err := storage.ReadAll[model.User](ctx, tx, storage.Users)
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return nil
		}
		defaults := []struct {
			name     string
			password string
			role     model.Role
		}{
			{"Alice", "password123", model.RoleAdmin},
			{"Bob", "password456", model.RoleCashier},
		}
		for _, d := range defaults {
			hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcryptCost)
			if err != nil {
				return &apperror.StorageError{Op: "hash password", Err: err}
			}
			users = append(users, model.User{
				ID:           uuid.NewString(),
				Name:         d.name,
				PasswordHash: string(hash),
				Role:         d.role,
				BranchIDs:    []string{branchID},
			})
		}
		return storage.ReplaceAll(ctx, tx, storage.Users, users)
	})
}

func (s *Service) generateToken(user *model.User, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"name":       user.Name,
		"role":       string(user.Role),
		"branch_ids": user.BranchIDs,
		"exp":        time.Now().Add(duration).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
