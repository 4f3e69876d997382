package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/scoretracker/internal/model"
)

// newTestRedisStore はminiredisを使ったテスト用のRedisSessionStoreを生成する。
func newTestRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisSessionStore(client), mr
}

func testSession(token, userID string, ttl time.Duration) *model.Session {
	now := time.Now().UTC()
	return &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func TestRedisSessionStore_SaveAndFind(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	session := testSession("token-1", "user-1", time.Hour)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	found, err := store.Find(ctx, "token-1")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found == nil {
		t.Fatal("expected session to be found")
	}
	if found.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", found.UserID)
	}
	if found.Token != "token-1" {
		t.Errorf("Token = %q, want token-1", found.Token)
	}
}

func TestRedisSessionStore_Find_UnknownToken_ReturnsNil(t *testing.T) {
	store, _ := newTestRedisStore(t)

	found, err := store.Find(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestRedisSessionStore_Find_ExpiredByTTL_ReturnsNil(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	session := testSession("token-exp", "user-1", time.Minute)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// RedisのTTLを経過させる
	mr.FastForward(2 * time.Minute)

	found, err := store.Find(ctx, "token-exp")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found != nil {
		t.Error("expected nil for expired session")
	}
}

func TestRedisSessionStore_Touch_ExtendsExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	session := testSession("token-touch", "user-1", time.Minute)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// 有効期限を1時間先に延長
	newExpiry := time.Now().UTC().Add(time.Hour)
	if err := store.Touch(ctx, "token-touch", newExpiry); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	// 元のTTL（1分）を超えてもセッションが残っていること
	mr.FastForward(10 * time.Minute)

	found, err := store.Find(ctx, "token-touch")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found == nil {
		t.Fatal("expected session to survive after touch")
	}
	if !found.ExpiresAt.Equal(newExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", found.ExpiresAt, newExpiry)
	}
}

func TestRedisSessionStore_Touch_UnknownToken_IsNoop(t *testing.T) {
	store, _ := newTestRedisStore(t)

	err := store.Touch(context.Background(), "nope", time.Now().Add(time.Hour))
	if err != nil {
		t.Errorf("Touch() on unknown token should not error: %v", err)
	}
}

func TestRedisSessionStore_Delete_RemovesSession(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	session := testSession("token-del", "user-1", time.Hour)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Delete(ctx, "token-del"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	found, err := store.Find(ctx, "token-del")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found != nil {
		t.Error("expected session to be deleted")
	}
}

func TestRedisSessionStore_Delete_Idempotent(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete() on unknown token should succeed: %v", err)
	}

	session := testSession("token-twice", "user-1", time.Hour)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "token-twice"); err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "token-twice"); err != nil {
		t.Errorf("second Delete() should succeed: %v", err)
	}
}

func TestRedisSessionStore_DeleteByUserID_RemovesAllUserSessions(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	for _, token := range []string{"t1", "t2", "t3"} {
		if err := store.Save(ctx, testSession(token, "user-multi", time.Hour)); err != nil {
			t.Fatalf("Save(%s) error = %v", token, err)
		}
	}
	// 別ユーザーのセッションは残ること
	if err := store.Save(ctx, testSession("other", "user-other", time.Hour)); err != nil {
		t.Fatalf("Save(other) error = %v", err)
	}

	if err := store.DeleteByUserID(ctx, "user-multi"); err != nil {
		t.Fatalf("DeleteByUserID() error = %v", err)
	}

	for _, token := range []string{"t1", "t2", "t3"} {
		found, err := store.Find(ctx, token)
		if err != nil {
			t.Fatalf("Find(%s) error = %v", token, err)
		}
		if found != nil {
			t.Errorf("session %s should be deleted", token)
		}
	}

	found, err := store.Find(ctx, "other")
	if err != nil {
		t.Fatalf("Find(other) error = %v", err)
	}
	if found == nil {
		t.Error("other user's session should survive")
	}
}

// RedisSessionStoreはSessionStoreインターフェースを満たすことを検証
func TestRedisSessionStore_ImplementsInterface(t *testing.T) {
	var _ SessionStore = (*RedisSessionStore)(nil)
}
