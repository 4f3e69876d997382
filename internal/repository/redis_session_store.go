package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/scoretracker/internal/model"
)

const (
	// sessionKeyPrefix はセッション本体のキープレフィックス。
	sessionKeyPrefix = "scoretracker:session:"
	// userSessionsKeyPrefix はユーザーごとのトークン集合のキープレフィックス。
	// ユーザー削除時の一括無効化に使用する。
	userSessionsKeyPrefix = "scoretracker:user_sessions:"
)

// redisSessionRecord はRedisに保存するセッションのJSON表現。
type redisSessionRecord struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisSessionStore はRedisを使用した分散セッションストア。
// 複数のAPIインスタンスが同一のRedisを参照することでセッションを共有する。
// 有効期限はRedisのTTLで管理され、期限切れエントリは自動的に消える。
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore はRedisSessionStoreを生成する。
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Save はセッションを保存する。TTLは有効期限までの残り時間。
func (s *RedisSessionStore) Save(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(redisSessionRecord{
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.Token, data, ttl)
	pipe.SAdd(ctx, userSessionsKeyPrefix+session.UserID, session.Token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Find は指定トークンのセッションを取得する。
// 未知または期限切れ（TTL超過で消えたもの）の場合はnilを返す。
func (s *RedisSessionStore) Find(ctx context.Context, token string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session in redis: %w", err)
	}

	var rec redisSessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// TTLが消し忘れた場合に備えた遅延チェック
	if !rec.ExpiresAt.After(time.Now()) {
		return nil, nil
	}

	return &model.Session{
		Token:     token,
		UserID:    rec.UserID,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Touch はセッションの有効期限を更新する。
// 並行リクエスト間ではlast-writer-winsとなる。
func (s *RedisSessionStore) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session for touch: %w", err)
	}

	var rec redisSessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}

	rec.ExpiresAt = expiresAt
	updated, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+token, updated, ttl).Err(); err != nil {
		return fmt.Errorf("failed to touch session in redis: %w", err)
	}
	return nil
}

// Delete は指定トークンのセッションを削除する。冪等。
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	// ユーザー集合からも外すため、まず所有者を特定する
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session for delete: %w", err)
	}

	var rec redisSessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+token)
	pipe.SRem(ctx, userSessionsKeyPrefix+rec.UserID, token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (s *RedisSessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	setKey := userSessionsKeyPrefix + userID
	tokens, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKeyPrefix+token)
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user sessions from redis: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionStore = (*RedisSessionStore)(nil)
