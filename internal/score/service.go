// Package score はスコアの登録・一覧・削除のビジネスロジックを提供する。
package score

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/scoretracker/internal/authz"
	"github.com/hitoshi/scoretracker/internal/model"
	"github.com/hitoshi/scoretracker/internal/repository"
)

// Service はスコアに関するビジネスロジックを提供する。
type Service struct {
	scores repository.ScoreRepository
}

// NewService はServiceを生成する。
func NewService(scores repository.ScoreRepository) *Service {
	return &Service{scores: scores}
}

// ListOwn は操作ユーザー自身のスコア一覧を記録日時降順で返す。
func (s *Service) ListOwn(ctx context.Context, actorID string) ([]*model.Score, error) {
	scores, err := s.scores.ListByOwner(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}

// ListForUser はAdminが任意ユーザーのスコア一覧を取得する。
// Adminロールを持たない場合はForbiddenを返す。
func (s *Service) ListForUser(ctx context.Context, actorRoles []string, ownerID string) ([]*model.Score, error) {
	if !authz.CanAccessAdminEndpoints(actorRoles) {
		return nil, model.NewForbiddenError()
	}
	scores, err := s.scores.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}

// Create は操作ユーザーのスコアを登録する。
// 記録日時はクライアントの申告値を無視し、常にサーバー側のUTC現在時刻を使う。
func (s *Service) Create(ctx context.Context, actorID string, value int) (*model.Score, error) {
	score := &model.Score{
		ID:           uuid.New().String(),
		Value:        value,
		DateRecorded: time.Now().UTC(),
		OwnerID:      actorID,
	}

	if err := s.scores.Create(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to create score: %w", err)
	}

	slog.Info("score created",
		slog.String("score_id", score.ID),
		slog.String("owner_id", actorID),
		slog.Int("value", value),
	)
	return score, nil
}

// Delete は指定IDのスコアを削除する。
// スコアが存在しない場合は権限に関わらずScoreNotFoundを返す。
// 存在する場合、所有者本人またはAdminのみ削除できる。
func (s *Service) Delete(ctx context.Context, actorID string, actorRoles []string, scoreID string) error {
	score, err := s.scores.FindByID(ctx, scoreID)
	if err != nil {
		return fmt.Errorf("failed to find score: %w", err)
	}
	if score == nil {
		return model.NewScoreNotFoundError(scoreID)
	}

	if !authz.CanDeleteScore(actorID, actorRoles, score) {
		return model.NewForbiddenError()
	}

	if err := s.scores.DeleteByID(ctx, scoreID); err != nil {
		return fmt.Errorf("failed to delete score: %w", err)
	}

	slog.Info("score deleted",
		slog.String("score_id", scoreID),
		slog.String("actor_id", actorID),
	)
	return nil
}
