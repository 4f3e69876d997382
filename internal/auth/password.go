package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash はユーザーが存在しない場合のダミー検証に使う固定ハッシュ。
// 応答時間の差からメールアドレスの登録有無が推測されるのを防ぐ。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// PasswordHasher はbcryptによるパスワードのハッシュ化と検証を提供する。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使用する。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash は平文パスワードのbcryptハッシュを返す。
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify はハッシュと平文パスワードの一致を検証する。
func (h *PasswordHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// verifyDummy はユーザー不在時に呼び、検証と同等の計算時間を消費する。
func (h *PasswordHasher) verifyDummy(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
