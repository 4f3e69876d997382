// Package session はセッションの発行・検証・失効を提供する。
// トークンは推測不能な不透明値で、サーバー側のセッションレコードに紐づく。
// Cookieには署名付きで格納され、署名鍵は全インスタンスで共有される。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/scoretracker/internal/model"
	"github.com/hitoshi/scoretracker/internal/repository"
)

// DefaultIdleTimeout はアイドルタイムアウトのデフォルト値。
const DefaultIdleTimeout = 60 * time.Minute

// Manager はセッションのライフサイクルを管理する。
// 状態遷移: Active →（タイムアウト）Expired / （ログアウト）Revoked。
// ExpiredとRevokedからの復帰はなく、再ログインは常に新しいトークンを発行する。
type Manager struct {
	store       repository.SessionStore
	signer      *Signer
	idleTimeout time.Duration
}

// NewManager はManagerを生成する。
// idleTimeoutが0以下の場合はDefaultIdleTimeoutを使用する。
func NewManager(store repository.SessionStore, signer *Signer, idleTimeout time.Duration) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		store:       store,
		signer:      signer,
		idleTimeout: idleTimeout,
	}
}

// Issue は指定ユーザーのActiveセッションを新規発行する。
// 戻り値はセッションレコードと、Cookieに格納する署名付き値。
func (m *Manager) Issue(ctx context.Context, userID string) (*model.Session, string, error) {
	token, err := generateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(m.idleTimeout),
		CreatedAt: now,
	}

	if err := m.store.Save(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}

	return session, m.signer.Sign(token), nil
}

// Validate は署名付きCookie値を検証し、対応するセッションを返す。
// 署名不正・未知・期限切れ・失効済みはいずれもUnauthorizedとなる。
// 検証成功時はアイドルタイムアウトをスライディング延長する。
// 同一セッションへの並行リクエストの延長はlast-writer-winsで問題ない。
func (m *Manager) Validate(ctx context.Context, cookieValue string) (*model.Session, error) {
	token, ok := m.signer.Verify(cookieValue)
	if !ok {
		return nil, model.NewUnauthorizedError()
	}

	session, err := m.store.Find(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	// スライディング延長。失敗してもリクエスト自体は通す
	newExpiry := time.Now().UTC().Add(m.idleTimeout)
	if err := m.store.Touch(ctx, token, newExpiry); err != nil {
		slog.Warn("failed to extend session",
			slog.String("error", err.Error()),
		)
	} else {
		session.ExpiresAt = newExpiry
	}

	return session, nil
}

// Revoke は署名付きCookie値に対応するセッションを失効させる。
// 署名不正や存在しないトークンも成功として扱う（冪等）。
func (m *Manager) Revoke(ctx context.Context, cookieValue string) error {
	token, ok := m.signer.Verify(cookieValue)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser は指定ユーザーの全セッションを失効させる。
// ユーザー削除時のカスケード無効化で使用する。
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := m.store.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

// generateToken は暗号的に安全なセッショントークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
