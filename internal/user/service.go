// Package user はAdmin向けユーザー管理のビジネスロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/scoretracker/internal/authz"
	"github.com/hitoshi/scoretracker/internal/model"
	"github.com/hitoshi/scoretracker/internal/repository"
)

// SessionRevoker はユーザー削除時に全セッションを失効させるインターフェース。
// session.Managerの部分集合として定義する。
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Service はユーザー管理のビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	scores   repository.ScoreRepository
	sessions SessionRevoker
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	scores repository.ScoreRepository,
	sessions SessionRevoker,
) *Service {
	return &Service{
		users:    users,
		scores:   scores,
		sessions: sessions,
	}
}

// ListUsers は全ユーザーを作成日時昇順で返す。Adminのみ実行できる。
func (s *Service) ListUsers(ctx context.Context, actorRoles []string) ([]*model.User, error) {
	if !authz.CanAccessAdminEndpoints(actorRoles) {
		return nil, model.NewForbiddenError()
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser は指定ユーザーを関連データごと削除する。Adminのみ実行できる。
// スコア、セッション、ユーザー本体の順に削除し、削除されたユーザーの
// 有効なセッションは即座に使えなくなる。
// 対象が存在しない場合はUserNotFoundを返す。
func (s *Service) DeleteUser(ctx context.Context, actorRoles []string, userID string) error {
	if !authz.CanAccessAdminEndpoints(actorRoles) {
		return model.NewForbiddenError()
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if target == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.scores.DeleteByOwnerID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user scores: %w", err)
	}
	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	if err := s.users.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted",
		slog.String("user_id", userID),
	)
	return nil
}
