package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/scoretracker/internal/middleware"
	"github.com/hitoshi/scoretracker/internal/model"
)

// UserServiceInterface はユーザー管理ハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// ListUsers は全ユーザーを返す。Adminのみ実行できる。
	ListUsers(ctx context.Context, actorRoles []string) ([]*model.User, error)
	// DeleteUser は指定ユーザーを関連データごと削除する。Adminのみ実行できる。
	DeleteUser(ctx context.Context, actorRoles []string, userID string) error
}

// UserHandler はAdmin向けユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// List は全ユーザー一覧を返す。
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actorRoles, err := middleware.RolesFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	users, err := h.service.ListUsers(r.Context(), actorRoles)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Delete はユーザーを関連データごと削除する。
// DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorRoles, err := middleware.RolesFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("id"))
		return
	}

	if err := h.service.DeleteUser(r.Context(), actorRoles, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
