package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/scoretracker/internal/model"
	"github.com/hitoshi/scoretracker/internal/repository"
)

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	listAllFn    func(ctx context.Context) ([]*model.User, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockScoreRepo struct {
	deleteByOwnerIDFn func(ctx context.Context, ownerID string) error
}

func (m *mockScoreRepo) Create(ctx context.Context, score *model.Score) error { return nil }

func (m *mockScoreRepo) FindByID(ctx context.Context, id string) (*model.Score, error) {
	return nil, nil
}

func (m *mockScoreRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Score, error) {
	return nil, nil
}

func (m *mockScoreRepo) DeleteByID(ctx context.Context, id string) error { return nil }

func (m *mockScoreRepo) DeleteByOwnerID(ctx context.Context, ownerID string) error {
	if m.deleteByOwnerIDFn != nil {
		return m.deleteByOwnerIDFn(ctx, ownerID)
	}
	return nil
}

type mockSessionRevoker struct {
	revokeAllFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRevoker) RevokeAllForUser(ctx context.Context, userID string) error {
	if m.revokeAllFn != nil {
		return m.revokeAllFn(ctx, userID)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.ScoreRepository = (*mockScoreRepo)(nil)
var _ SessionRevoker = (*mockSessionRevoker)(nil)

var adminRoles = []string{model.RoleUser, model.RoleAdmin}

// --- ListUsers ---

func TestListUsers_Admin_ReturnsAllUsers(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		listAllFn: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{
				{ID: "u1", Email: "a@example.com"},
				{ID: "u2", Email: "b@example.com"},
			}, nil
		},
	}
	svc := NewService(users, &mockScoreRepo{}, &mockSessionRevoker{})

	got, err := svc.ListUsers(ctx, adminRoles)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestListUsers_NonAdmin_ReturnsForbidden(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		listAllFn: func(ctx context.Context) ([]*model.User, error) {
			t.Error("repository should not be called for non-admin actor")
			return nil, nil
		},
	}
	svc := NewService(users, &mockScoreRepo{}, &mockSessionRevoker{})

	_, err := svc.ListUsers(ctx, []string{model.RoleUser})
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

// --- DeleteUser ---

func TestDeleteUser_DeletesScoresSessionsThenUser(t *testing.T) {
	ctx := context.Background()

	var order []string
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			order = append(order, "user")
			return nil
		},
	}
	scores := &mockScoreRepo{
		deleteByOwnerIDFn: func(ctx context.Context, ownerID string) error {
			order = append(order, "scores")
			return nil
		},
	}
	sessions := &mockSessionRevoker{
		revokeAllFn: func(ctx context.Context, userID string) error {
			order = append(order, "sessions")
			return nil
		},
	}
	svc := NewService(users, scores, sessions)

	if err := svc.DeleteUser(ctx, adminRoles, "u1"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	want := []string{"scores", "sessions", "user"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDeleteUser_MissingUser_ReturnsNotFound(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			t.Error("delete should not be called for missing user")
			return nil
		},
	}
	svc := NewService(users, &mockScoreRepo{}, &mockSessionRevoker{})

	err := svc.DeleteUser(ctx, adminRoles, "missing")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

func TestDeleteUser_NonAdmin_ReturnsForbidden(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockUserRepo{}, &mockScoreRepo{}, &mockSessionRevoker{})

	err := svc.DeleteUser(ctx, []string{model.RoleUser}, "u1")
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestDeleteUser_SessionRevokeError_AbortsBeforeUserDelete(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			t.Error("user delete should not run after session revoke failure")
			return nil
		},
	}
	sessions := &mockSessionRevoker{
		revokeAllFn: func(ctx context.Context, userID string) error {
			return errors.New("redis down")
		},
	}
	svc := NewService(users, &mockScoreRepo{}, sessions)

	if err := svc.DeleteUser(ctx, adminRoles, "u1"); err == nil {
		t.Fatal("expected error")
	}
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %q, want %q", apiErr.Code, code)
	}
}
