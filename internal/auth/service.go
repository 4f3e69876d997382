// Package auth は登録・ログイン・セッション確立のビジネスロジックを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/scoretracker/internal/model"
	"github.com/hitoshi/scoretracker/internal/repository"
)

// SessionIssuer は認証サービスが必要とするセッション操作のインターフェース。
// session.Managerの部分集合として定義する。
type SessionIssuer interface {
	// Issue は新しいセッションを発行し、署名付きCookie値を返す。
	Issue(ctx context.Context, userID string) (*model.Session, string, error)
	// Validate は署名付きCookie値を検証しセッションを返す。
	Validate(ctx context.Context, cookieValue string) (*model.Session, error)
	// Revoke はセッションを失効させる。冪等。
	Revoke(ctx context.Context, cookieValue string) error
}

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
// 未設定（nil）の場合は記録をスキップする。
type MetricsRecorder interface {
	RecordRegistration()
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordSessionRevoked()
}

// AuthResult は登録・ログイン成功時の結果。
// CookieValueはHTTP層がセッションCookieとして設定する署名付き値。
type AuthResult struct {
	User        *model.User
	Session     *model.Session
	CookieValue string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	sessions SessionIssuer
	hasher   *PasswordHasher
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	users repository.UserRepository,
	sessions SessionIssuer,
	hasher *PasswordHasher,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		metrics:  metrics,
	}
}

// Register は新規ユーザーを登録し、セッションを発行する。
// メールアドレスの一意性チェックと挿入はDB制約により原子的に行われ、
// 同一メールアドレスの並行登録は1件しか成功しない。
func (s *Service) Register(ctx context.Context, email, fullName, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	// 構造的な検証のみ。パスワード強度ポリシーは設けない
	if email == "" {
		return nil, model.NewValidationError("email")
	}
	if fullName == "" {
		return nil, model.NewValidationError("fullName")
	}
	if password == "" {
		return nil, model.NewValidationError("password")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Roles:        []string{model.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	session, cookieValue, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	slog.Info("new user registered",
		slog.String("user_id", user.ID),
	)

	return &AuthResult{User: user, Session: session, CookieValue: cookieValue}, nil
}

// Login はメールアドレスとパスワードで認証し、セッションを発行する。
// アカウント列挙を防ぐため、メールアドレス不明とパスワード誤りは
// 同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		// 応答時間の差からも登録有無が分からないようダミー検証を行う
		s.hasher.verifyDummy(password)
		if s.metrics != nil {
			s.metrics.RecordLoginFailure()
		}
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		if s.metrics != nil {
			s.metrics.RecordLoginFailure()
		}
		return nil, model.NewInvalidCredentialsError()
	}

	session, cookieValue, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &AuthResult{User: user, Session: session, CookieValue: cookieValue}, nil
}

// Logout はセッションを失効させる。
// 無効なCookie値や失効済みセッションでも成功として扱う。
func (s *Service) Logout(ctx context.Context, cookieValue string) error {
	if err := s.sessions.Revoke(ctx, cookieValue); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordSessionRevoked()
	}
	return nil
}

// CurrentUser は署名付きCookie値から現在のユーザーを取得する。
// セッションが有効でもユーザーが既に削除されている場合はUnauthorizedを返す。
func (s *Service) CurrentUser(ctx context.Context, cookieValue string) (*model.User, error) {
	session, err := s.sessions.Validate(ctx, cookieValue)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}
