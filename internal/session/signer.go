package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/hitoshi/scoretracker/internal/keys"
)

// Signer はセッショントークンのHMAC-SHA256署名を行う。
// Cookie値は「トークン.署名」の形式で、共有鍵を持つ全インスタンスが
// ストア参照の前に偽造Cookieを弾ける。
type Signer struct {
	keyStore keys.Store
}

// NewSigner はSignerを生成する。
func NewSigner(keyStore keys.Store) *Signer {
	return &Signer{keyStore: keyStore}
}

// Sign はトークンに署名を付与したCookie値を返す。
func (s *Signer) Sign(token string) string {
	return token + "." + s.mac(token)
}

// Verify はCookie値の署名を検証し、トークンを取り出す。
// 署名が不正な場合はok=falseを返す。
func (s *Signer) Verify(value string) (token string, ok bool) {
	token, sig, found := strings.Cut(value, ".")
	if !found || token == "" || sig == "" {
		return "", false
	}
	if !hmac.Equal([]byte(s.mac(token)), []byte(sig)) {
		return "", false
	}
	return token, true
}

// mac はトークンのHMAC-SHA256を16進文字列で返す。
func (s *Signer) mac(token string) string {
	h := hmac.New(sha256.New, s.keyStore.SigningKey())
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
