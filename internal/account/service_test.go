package account

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/internal/apperror"
	"tillpos/internal/config"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store, &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
	})
}

func TestCreateAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateUserRequest{
		Name:      "Carol",
		Password:  "hunter2hunter2",
		Role:      "Cashier",
		BranchIDs: []string{"branch-1"},
	})
	require.NoError(t, err)
	assert.Empty(t, created.PasswordHash)

	resp, err := svc.Login(ctx, dto.LoginRequest{Name: "Carol", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, created.ID, resp.User.ID)
	assert.Empty(t, resp.User.PasswordHash)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, created.ID, claims["user_id"])
	assert.Equal(t, "Cashier", claims["role"])
}

func TestLoginIsCaseInsensitiveOnName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateUserRequest{
		Name:      "Carol",
		Password:  "hunter2hunter2",
		Role:      "Cashier",
		BranchIDs: []string{"branch-1"},
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Name: "cArOl", Password: "hunter2hunter2"})
	require.NoError(t, err)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateUserRequest{
		Name:      "Carol",
		Password:  "hunter2hunter2",
		Role:      "Cashier",
		BranchIDs: []string{"branch-1"},
	})
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, dto.LoginRequest{Name: "Mallory", Password: "hunter2hunter2"})
	_, wrongErr := svc.Login(ctx, dto.LoginRequest{Name: "Carol", Password: "wrong"})

	var badArg *apperror.InvalidArgumentError
	require.ErrorAs(t, unknownErr, &badArg)
	require.ErrorAs(t, wrongErr, &badArg)
	// An attacker probing names must not be able to tell the two apart.
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := dto.CreateUserRequest{
		Name:      "Carol",
		Password:  "hunter2hunter2",
		Role:      "Cashier",
		BranchIDs: []string{"branch-1"},
	}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	req.Name = "carol"
	_, err = svc.Create(ctx, req)
	var conflict *apperror.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCreateValidatesRoleAndBranches(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var badArg *apperror.InvalidArgumentError
	_, err := svc.Create(ctx, dto.CreateUserRequest{
		Name: "Carol", Password: "hunter2hunter2", Role: "Owner", BranchIDs: []string{"b1"},
	})
	require.ErrorAs(t, err, &badArg)

	_, err = svc.Create(ctx, dto.CreateUserRequest{
		Name: "Carol", Password: "hunter2hunter2", Role: "Cashier",
	})
	require.ErrorAs(t, err, &badArg)
}

func TestEnsureDefaultsSeedsOnceOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaults(ctx, "branch-1"))
	require.NoError(t, svc.EnsureDefaults(ctx, "branch-1"))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.Equal(t, []string{"branch-1"}, users[0].BranchIDs)

	_, err = svc.Login(ctx, dto.LoginRequest{Name: "Alice", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, dto.LoginRequest{Name: "Bob", Password: "password456"})
	require.NoError(t, err)
}

func TestListHidesPasswordHashes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaults(ctx, "branch-1"))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}
