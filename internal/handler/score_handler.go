package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/scoretracker/internal/middleware"
	"github.com/hitoshi/scoretracker/internal/model"
)

// ScoreServiceInterface はスコアハンドラーが必要とするサービスインターフェース。
type ScoreServiceInterface interface {
	// ListOwn は操作ユーザー自身のスコア一覧を記録日時降順で返す。
	ListOwn(ctx context.Context, actorID string) ([]*model.Score, error)
	// ListForUser はAdminが任意ユーザーのスコア一覧を取得する。
	ListForUser(ctx context.Context, actorRoles []string, ownerID string) ([]*model.Score, error)
	// Create は操作ユーザーのスコアを登録する。
	Create(ctx context.Context, actorID string, value int) (*model.Score, error)
	// Delete は指定IDのスコアを削除する。
	Delete(ctx context.Context, actorID string, actorRoles []string, scoreID string) error
}

// ScoreHandler はスコア管理のHTTPハンドラー。
type ScoreHandler struct {
	service ScoreServiceInterface
}

// NewScoreHandler はScoreHandlerを生成する。
func NewScoreHandler(service ScoreServiceInterface) *ScoreHandler {
	return &ScoreHandler{service: service}
}

// createScoreRequest はスコア登録リクエストのボディ。
// 記録日時はサーバー側で決定するため受け取らない。
type createScoreRequest struct {
	Value int `json:"value"`
}

// scoreResponse はスコア情報のAPIレスポンス。
type scoreResponse struct {
	ID           string    `json:"id"`
	Value        int       `json:"value"`
	DateRecorded time.Time `json:"dateRecorded"`
}

// ListOwn は操作ユーザー自身のスコア一覧を返す。
// GET /scores
func (h *ScoreHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	scores, err := h.service.ListOwn(r.Context(), actorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toScoreResponses(scores))
}

// Create はスコアを登録する。
// POST /scores
func (h *ScoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	score, err := h.service.Create(r.Context(), actorID, req.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toScoreResponse(score))
}

// Delete はスコアを削除する。
// 存在しないスコアは404、権限がない場合は403を返す。
// DELETE /scores/{id}
func (h *ScoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	actorRoles, err := middleware.RolesFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	scoreID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), actorID, actorRoles, scoreID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListForUser はAdminが任意ユーザーのスコア一覧を取得する。
// GET /scores/user/{userId}
func (h *ScoreHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	actorRoles, err := middleware.RolesFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	ownerID := chi.URLParam(r, "userId")

	scores, err := h.service.ListForUser(r.Context(), actorRoles, ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toScoreResponses(scores))
}

// --- ヘルパー関数 ---

// toScoreResponse はmodel.ScoreからAPIレスポンスに変換する。
func toScoreResponse(score *model.Score) scoreResponse {
	return scoreResponse{
		ID:           score.ID,
		Value:        score.Value,
		DateRecorded: score.DateRecorded,
	}
}

// toScoreResponses はスコアのスライスをAPIレスポンスに変換する。
// 空の場合もnullではなく空配列を返す。
func toScoreResponses(scores []*model.Score) []scoreResponse {
	responses := make([]scoreResponse, 0, len(scores))
	for _, score := range scores {
		responses = append(responses, toScoreResponse(score))
	}
	return responses
}
