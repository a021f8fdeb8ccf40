// Package branch administers store locations. Branches are created by admin
// action and immutable afterwards; they are referenced by users, shifts,
// stock rows, and sales, so there is no delete.
package branch

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"tillpos/internal/apperror"
	"tillpos/internal/model"
	"tillpos/internal/storage"
)

type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	err := s.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		branches, err = storage.ReadAll[model.Branch](ctx, tx, storage.Branches)
		return err
	})
	if err != nil {
		return nil, err
	}
	return branches, nil
}

func (s *Service) Create(ctx context.Context, name string) (*model.Branch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &apperror.InvalidArgumentError{Detail: "branch name is required"}
	}
	created := model.Branch{ID: uuid.NewString(), Name: name}
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		branches, err := storage.ReadAll[model.Branch](ctx, tx, storage.Branches)
		if err != nil {
			return err
		}
		for _, b := range branches {
			if strings.EqualFold(b.Name, name) {
				return &apperror.ConflictError{Detail: "a branch with that name already exists"}
			}
		}
		branches = append(branches, created)
		return storage.ReplaceAll(ctx, tx, storage.Branches, branches)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EnsureDefault guarantees at least one branch exists and returns the first.
// Migration v5 normally seeds it; this covers stores created at the current
// version.
func (s *Service) EnsureDefault(ctx context.Context) (*model.Branch, error) {
	var first model.Branch
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		branches, err := storage.ReadAll[model.Branch](ctx, tx, storage.Branches)
		if err != nil {
			return err
		}
		if len(branches) == 0 {
			branches = []model.Branch{{ID: storage.DefaultBranchID, Name: storage.DefaultBranchName}}
			if err := storage.ReplaceAll(ctx, tx, storage.Branches, branches); err != nil {
				return err
			}
		}
		first = branches[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &first, nil
}
