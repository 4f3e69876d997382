// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/scoretracker/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレス（大文字小文字無視）が重複する場合はDuplicateEmailエラーを返す。
	// 一意性チェックと挿入はDBの一意制約により原子的に行われる。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail はメールアドレス（大文字小文字無視）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// ListAll は全ユーザーを作成日時昇順で返す。
	ListAll(ctx context.Context) ([]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 存在しない場合はUserNotFoundエラーを返す。
	DeleteByID(ctx context.Context, id string) error
}

// ScoreRepository はスコアデータの永続化インターフェース。
type ScoreRepository interface {
	// Create はスコアを作成する。
	Create(ctx context.Context, score *model.Score) error

	// FindByID は指定IDのスコアを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Score, error)

	// ListByOwner は指定ユーザーのスコア一覧をdate_recorded降順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Score, error)

	// DeleteByID は指定IDのスコアを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByOwnerID は指定ユーザーの全スコアを削除する。
	// ユーザー削除時のカスケード処理で使用する。
	DeleteByOwnerID(ctx context.Context, ownerID string) error
}

// SessionStore はセッションデータの永続化インターフェース。
// 実装はPostgreSQL（単一インスタンス向け）とRedis（分散キャッシュ向け）がある。
type SessionStore interface {
	// Save はセッションを保存する。
	Save(ctx context.Context, session *model.Session) error

	// Find は指定トークンのセッションを取得する。
	// 未知または期限切れの場合はnilを返す。
	Find(ctx context.Context, token string) (*model.Session, error)

	// Touch はセッションの有効期限を更新する（スライディング延長）。
	// 同一セッションへの並行リクエストではlast-writer-winsとなる。
	Touch(ctx context.Context, token string, expiresAt time.Time) error

	// Delete は指定トークンのセッションを削除する。
	// 存在しないトークンの削除は成功として扱う（冪等）。
	Delete(ctx context.Context, token string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
