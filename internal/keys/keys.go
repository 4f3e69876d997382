// Package keys はセッションCookie署名用の鍵素材の管理を提供する。
// 鍵は全APIインスタンスから参照できる永続的な共有ストレージに置き、
// どのインスタンスでも同一のCookieを検証できるようにする。
package keys

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 署名鍵のバイト長（HMAC-SHA256用）。
const keySize = 32

// Store は署名鍵素材を提供するインターフェース。
// 実装は共有ボリューム上のファイル、KMS、DBの行などが考えられる。
type Store interface {
	// SigningKey は現在の署名鍵を返す。
	SigningKey() []byte
}

// FileStore は共有ボリューム上のファイルから鍵を読み込むStore実装。
// 鍵は16進文字列1行としてファイルに保存される。
// 同じファイルを参照する全インスタンスが同一の鍵で署名・検証を行う。
type FileStore struct {
	key []byte
}

// LoadOrCreateFile は指定パスから鍵を読み込むFileStoreを生成する。
// ファイルが存在しない場合は新しい鍵を生成してパーミッション0600で保存する。
// 複数インスタンスで共有する場合は、初回起動前に鍵ファイルを配置しておくこと。
func LoadOrCreateFile(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key, decodeErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode session key file %s: %w", path, decodeErr)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("session key file %s: invalid key length %d (want %d)", path, len(key), keySize)
		}
		return &FileStore{key: key}, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read session key file: %w", err)
	}

	// 鍵ファイルが存在しない場合は新規生成する
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session key directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write session key file: %w", err)
	}

	return &FileStore{key: key}, nil
}

// SigningKey は現在の署名鍵を返す。
func (s *FileStore) SigningKey() []byte {
	return s.key
}

// compile-time interface check
var _ Store = (*FileStore)(nil)

// StaticStore は固定の鍵を返すStore実装。テスト用。
type StaticStore struct {
	Key []byte
}

// SigningKey は固定鍵を返す。
func (s *StaticStore) SigningKey() []byte {
	return s.Key
}

var _ Store = (*StaticStore)(nil)
