package keys

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateFile_CreatesNewKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")

	store, err := LoadOrCreateFile(path)
	if err != nil {
		t.Fatalf("LoadOrCreateFile() error = %v", err)
	}

	if len(store.SigningKey()) != keySize {
		t.Errorf("key length = %d, want %d", len(store.SigningKey()), keySize)
	}

	// ファイルが0600で作成されること
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("key file should exist: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadOrCreateFile_ReloadsSameKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")

	first, err := LoadOrCreateFile(path)
	if err != nil {
		t.Fatalf("LoadOrCreateFile() error = %v", err)
	}

	// 別インスタンスが同じファイルを読み込むと同一の鍵を得ること
	second, err := LoadOrCreateFile(path)
	if err != nil {
		t.Fatalf("LoadOrCreateFile() second load error = %v", err)
	}

	if !bytes.Equal(first.SigningKey(), second.SigningKey()) {
		t.Error("reloaded key should equal the originally generated key")
	}
}

func TestLoadOrCreateFile_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.key")

	if _, err := LoadOrCreateFile(path); err != nil {
		t.Fatalf("LoadOrCreateFile() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("key file should exist under nested directory: %v", err)
	}
}

func TestLoadOrCreateFile_InvalidContent_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")
	if err := os.WriteFile(path, []byte("not-hex!!\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadOrCreateFile(path); err == nil {
		t.Error("expected error for non-hex key file content")
	}
}

func TestLoadOrCreateFile_WrongKeyLength_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")
	// 16バイト（短すぎる）の鍵
	if err := os.WriteFile(path, []byte("00112233445566778899aabbccddeeff\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadOrCreateFile(path); err == nil {
		t.Error("expected error for wrong key length")
	}
}
