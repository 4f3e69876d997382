package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/scoretracker/internal/model"
)

// PostgresSessionStore はPostgreSQLを使用したセッションストア。
// 期限切れ行はFindで除外し、cleanupワーカーが日次で物理削除する。
type PostgresSessionStore struct {
	db *sql.DB
}

// NewPostgresSessionStore はPostgresSessionStoreを生成する。
func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

// Save はセッションを保存する。
func (s *PostgresSessionStore) Save(ctx context.Context, session *model.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		session.Token, session.UserID, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Find は指定トークンのセッションを取得する。
// 未知または期限切れの場合はnilを返す。
func (s *PostgresSessionStore) Find(ctx context.Context, token string) (*model.Session, error) {
	session := &model.Session{}
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at
		 FROM sessions
		 WHERE token = $1 AND expires_at > now()`,
		token,
	).Scan(&session.Token, &session.UserID, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// Touch はセッションの有効期限を更新する。
// 期限切れ・削除済みのセッションには効果がない（last-writer-wins）。
func (s *PostgresSessionStore) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = $2 WHERE token = $1 AND expires_at > now()`,
		token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Delete は指定トークンのセッションを削除する。冪等。
func (s *PostgresSessionStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (s *PostgresSessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionStore = (*PostgresSessionStore)(nil)
