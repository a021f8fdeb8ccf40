// Package session persists the running session — signed-in user, selected
// branch, in-progress cart — under reserved app-state keys so a process
// restart resumes exactly where the register left off.
package session

import (
	"context"

	"tillpos/internal/model"
	"tillpos/internal/storage"
)

type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// CurrentUser returns the signed-in user, or nil when nobody is.
func (s *Service) CurrentUser(ctx context.Context) (*model.User, error) {
	return getOptional[model.User](ctx, s.store, storage.KeyCurrentUser)
}

// SetCurrentUser records the signed-in user; nil signs out.
func (s *Service) SetCurrentUser(ctx context.Context, user *model.User) error {
	return s.store.Update(ctx, func(tx *storage.Tx) error {
		return storage.SetScalar(ctx, tx, storage.KeyCurrentUser, user)
	})
}

// CurrentBranch returns the branch the session operates in, or nil.
func (s *Service) CurrentBranch(ctx context.Context) (*model.Branch, error) {
	return getOptional[model.Branch](ctx, s.store, storage.KeyCurrentBranch)
}

func (s *Service) SetCurrentBranch(ctx context.Context, branch *model.Branch) error {
	return s.store.Update(ctx, func(tx *storage.Tx) error {
		return storage.SetScalar(ctx, tx, storage.KeyCurrentBranch, branch)
	})
}

// Cart returns the in-progress order lines, empty when none.
func (s *Service) Cart(ctx context.Context) ([]model.OrderItem, error) {
	items, err := getOptional[[]model.OrderItem](ctx, s.store, storage.KeyCurrentOrder)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return []model.OrderItem{}, nil
	}
	return *items, nil
}

// SetCart replaces the in-progress cart; nil clears it.
func (s *Service) SetCart(ctx context.Context, items []model.OrderItem) error {
	return s.store.Update(ctx, func(tx *storage.Tx) error {
		if items == nil {
			return storage.SetScalar[[]model.OrderItem](ctx, tx, storage.KeyCurrentOrder, nil)
		}
		return storage.SetScalar(ctx, tx, storage.KeyCurrentOrder, &items)
	})
}

// Reset clears the whole session: user, branch, and cart.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.Update(ctx, func(tx *storage.Tx) error {
		if err := storage.SetScalar[model.User](ctx, tx, storage.KeyCurrentUser, nil); err != nil {
			return err
		}
		if err := storage.SetScalar[model.Branch](ctx, tx, storage.KeyCurrentBranch, nil); err != nil {
			return err
		}
		return storage.SetScalar[[]model.OrderItem](ctx, tx, storage.KeyCurrentOrder, nil)
	})
}

func getOptional[T any](ctx context.Context, store *storage.Store, key string) (*T, error) {
	var out *T
	err := store.View(ctx, func(tx *storage.Tx) error {
		value, ok, err := storage.GetScalar[T](ctx, tx, key)
		if err != nil {
			return err
		}
		if ok {
			out = &value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
