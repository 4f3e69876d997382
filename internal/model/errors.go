// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeScoreNotFound      = "SCORE_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("必須項目が未入力です: %s", field),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
// 登録済みのメールアドレス自体はメッセージに含めない。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// アカウント列挙を防ぐため、メールアドレス不明とパスワード誤りで
// 同一のエラーを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分のリソースに対してのみ操作を行ってください。",
	}
}

// NewScoreNotFoundError はスコア未検出エラーを生成する。
func NewScoreNotFoundError(scoreID string) *APIError {
	return &APIError{
		Code:     ErrCodeScoreNotFound,
		Message:  fmt.Sprintf("指定されたスコアが見つかりません: %s", scoreID),
		Category: "validation",
		Action:   "スコアIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}
