package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/scoretracker/internal/middleware"
	"github.com/hitoshi/scoretracker/internal/model"
)

type mockScoreService struct {
	listOwnFn     func(ctx context.Context, actorID string) ([]*model.Score, error)
	listForUserFn func(ctx context.Context, actorRoles []string, ownerID string) ([]*model.Score, error)
	createFn      func(ctx context.Context, actorID string, value int) (*model.Score, error)
	deleteFn      func(ctx context.Context, actorID string, actorRoles []string, scoreID string) error
}

func (m *mockScoreService) ListOwn(ctx context.Context, actorID string) ([]*model.Score, error) {
	if m.listOwnFn != nil {
		return m.listOwnFn(ctx, actorID)
	}
	return nil, nil
}

func (m *mockScoreService) ListForUser(ctx context.Context, actorRoles []string, ownerID string) ([]*model.Score, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, actorRoles, ownerID)
	}
	return nil, nil
}

func (m *mockScoreService) Create(ctx context.Context, actorID string, value int) (*model.Score, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actorID, value)
	}
	return &model.Score{ID: "s1", Value: value, OwnerID: actorID, DateRecorded: time.Now().UTC()}, nil
}

func (m *mockScoreService) Delete(ctx context.Context, actorID string, actorRoles []string, scoreID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, actorID, actorRoles, scoreID)
	}
	return nil
}

var _ ScoreServiceInterface = (*mockScoreService)(nil)

// actorRequest はアクター情報をコンテキストに注入したリクエストを生成する。
func actorRequest(method, target, body, userID string, roles []string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.ContextWithActor(req.Context(), userID, roles))
}

func TestListOwn_ReturnsScores(t *testing.T) {
	recorded := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	service := &mockScoreService{
		listOwnFn: func(ctx context.Context, actorID string) ([]*model.Score, error) {
			if actorID != "alice" {
				t.Errorf("actorID = %q", actorID)
			}
			return []*model.Score{
				{ID: "s2", Value: 20, DateRecorded: recorded, OwnerID: "alice"},
				{ID: "s1", Value: 10, DateRecorded: recorded.Add(-time.Hour), OwnerID: "alice"},
			}, nil
		},
	}
	h := NewScoreHandler(service)

	req := actorRequest(http.MethodGet, "/scores", "", "alice", []string{model.RoleUser})
	rec := httptest.NewRecorder()

	h.ListOwn(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp []scoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].Value != 20 || resp[1].Value != 10 {
		t.Errorf("response = %+v", resp)
	}
}

func TestListOwn_EmptyList_ReturnsEmptyArray(t *testing.T) {
	h := NewScoreHandler(&mockScoreService{})

	req := actorRequest(http.MethodGet, "/scores", "", "alice", nil)
	rec := httptest.NewRecorder()

	h.ListOwn(rec, req)

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListOwn_NoActor_Returns401(t *testing.T) {
	h := NewScoreHandler(&mockScoreService{})

	req := httptest.NewRequest(http.MethodGet, "/scores", nil)
	rec := httptest.NewRecorder()

	h.ListOwn(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCreateScore_Returns201(t *testing.T) {
	service := &mockScoreService{
		createFn: func(ctx context.Context, actorID string, value int) (*model.Score, error) {
			return &model.Score{ID: "s1", Value: value, OwnerID: actorID, DateRecorded: time.Now().UTC()}, nil
		},
	}
	h := NewScoreHandler(service)

	req := actorRequest(http.MethodPost, "/scores", `{"value":42}`, "alice", []string{model.RoleUser})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp scoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Value != 42 {
		t.Errorf("Value = %d, want 42", resp.Value)
	}
}

func TestCreateScore_MalformedBody_Returns400(t *testing.T) {
	h := NewScoreHandler(&mockScoreService{})

	req := actorRequest(http.MethodPost, "/scores", "not json", "alice", nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// deleteViaRouter はchiのURLパラメータを通すためルーター経由でDeleteを呼ぶ。
func deleteViaRouter(h *ScoreHandler, userID string, roles []string, scoreID string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Delete("/scores/{id}", h.Delete)

	req := actorRequest(http.MethodDelete, "/scores/"+scoreID, "", userID, roles)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDeleteScore_Returns204(t *testing.T) {
	var gotScoreID string
	service := &mockScoreService{
		deleteFn: func(ctx context.Context, actorID string, actorRoles []string, scoreID string) error {
			gotScoreID = scoreID
			return nil
		},
	}
	h := NewScoreHandler(service)

	rec := deleteViaRouter(h, "alice", []string{model.RoleUser}, "s1")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if gotScoreID != "s1" {
		t.Errorf("scoreID = %q", gotScoreID)
	}
}

func TestDeleteScore_NotFound_Returns404(t *testing.T) {
	service := &mockScoreService{
		deleteFn: func(ctx context.Context, actorID string, actorRoles []string, scoreID string) error {
			return model.NewScoreNotFoundError(scoreID)
		},
	}
	h := NewScoreHandler(service)

	rec := deleteViaRouter(h, "alice", []string{model.RoleUser}, "missing")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteScore_Forbidden_Returns403(t *testing.T) {
	service := &mockScoreService{
		deleteFn: func(ctx context.Context, actorID string, actorRoles []string, scoreID string) error {
			return model.NewForbiddenError()
		},
	}
	h := NewScoreHandler(service)

	rec := deleteViaRouter(h, "bob", []string{model.RoleUser}, "s1")

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestListForUser_PassesTargetUserID(t *testing.T) {
	service := &mockScoreService{
		listForUserFn: func(ctx context.Context, actorRoles []string, ownerID string) ([]*model.Score, error) {
			if ownerID != "alice" {
				t.Errorf("ownerID = %q", ownerID)
			}
			return []*model.Score{{ID: "s1", Value: 10, OwnerID: "alice"}}, nil
		},
	}
	h := NewScoreHandler(service)

	r := chi.NewRouter()
	r.Get("/scores/user/{userId}", h.ListForUser)

	req := actorRequest(http.MethodGet, "/scores/user/alice", "", "admin", []string{model.RoleAdmin})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestListForUser_Forbidden_Returns403(t *testing.T) {
	service := &mockScoreService{
		listForUserFn: func(ctx context.Context, actorRoles []string, ownerID string) ([]*model.Score, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewScoreHandler(service)

	r := chi.NewRouter()
	r.Get("/scores/user/{userId}", h.ListForUser)

	req := actorRequest(http.MethodGet, "/scores/user/alice", "", "bob", []string{model.RoleUser})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
