package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/scoretracker/internal/model"
)

type mockUserService struct {
	listUsersFn  func(ctx context.Context, actorRoles []string) ([]*model.User, error)
	deleteUserFn func(ctx context.Context, actorRoles []string, userID string) error
}

func (m *mockUserService) ListUsers(ctx context.Context, actorRoles []string) ([]*model.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx, actorRoles)
	}
	return nil, nil
}

func (m *mockUserService) DeleteUser(ctx context.Context, actorRoles []string, userID string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, actorRoles, userID)
	}
	return nil
}

var _ UserServiceInterface = (*mockUserService)(nil)

func TestListUsers_ReturnsUsers(t *testing.T) {
	service := &mockUserService{
		listUsersFn: func(ctx context.Context, actorRoles []string) ([]*model.User, error) {
			return []*model.User{
				{ID: "u1", Email: "a@example.com", FullName: "A", Roles: []string{model.RoleUser}},
				{ID: "u2", Email: "b@example.com", FullName: "B", Roles: []string{model.RoleUser, model.RoleAdmin}},
			}, nil
		},
	}
	h := NewUserHandler(service)

	req := actorRequest(http.MethodGet, "/users", "", "admin", []string{model.RoleAdmin})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp []userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("len = %d, want 2", len(resp))
	}
	if resp[0].ID != "u1" || resp[1].ID != "u2" {
		t.Errorf("response = %+v", resp)
	}
}

func TestListUsers_Forbidden_Returns403(t *testing.T) {
	service := &mockUserService{
		listUsersFn: func(ctx context.Context, actorRoles []string) ([]*model.User, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewUserHandler(service)

	req := actorRequest(http.MethodGet, "/users", "", "bob", []string{model.RoleUser})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func deleteUserViaRouter(h *UserHandler, roles []string, userID string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Delete("/users/{id}", h.Delete)

	req := actorRequest(http.MethodDelete, "/users/"+userID, "", "admin", roles)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDeleteUser_Returns204(t *testing.T) {
	var gotUserID string
	service := &mockUserService{
		deleteUserFn: func(ctx context.Context, actorRoles []string, userID string) error {
			gotUserID = userID
			return nil
		},
	}
	h := NewUserHandler(service)

	rec := deleteUserViaRouter(h, []string{model.RoleAdmin}, "u1")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if gotUserID != "u1" {
		t.Errorf("userID = %q", gotUserID)
	}
}

func TestDeleteUser_NotFound_Returns404(t *testing.T) {
	service := &mockUserService{
		deleteUserFn: func(ctx context.Context, actorRoles []string, userID string) error {
			return model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(service)

	rec := deleteUserViaRouter(h, []string{model.RoleAdmin}, "missing")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
