// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/scoretracker/internal/model"
)

// SessionCookieName はセッションCookieの名前。
const SessionCookieName = "st_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// rolesContextKey はリクエストコンテキストにロール一覧を格納するためのキー。
var rolesContextKey = contextKey("roles")

// SessionValidator はセッションの検証に必要なインターフェース。
// session.Managerの部分集合として定義する。
type SessionValidator interface {
	Validate(ctx context.Context, cookieValue string) (*model.Session, error)
}

// UserLoader は認証済みユーザーの取得に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewSessionMiddleware はHTTP Only Cookieから署名付きセッション値を読み取り、
// 有効性を検証するミドルウェアを返す。
// 検証後にユーザーを取得し、ユーザーIDとロール一覧をリクエストコンテキストに注入する。
// セッションが有効でもユーザーが削除済みの場合は401を返す。
func NewSessionMiddleware(sessions SessionValidator, users UserLoader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieから署名付きセッション値を取得
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w)
				return
			}

			// 2. 署名とセッションの有効性を検証（成功時はアイドル期限が延長される）
			session, err := sessions.Validate(r.Context(), cookie.Value)
			if err != nil {
				if !isUnauthorized(err) {
					slog.Error("failed to validate session",
						slog.String("error", err.Error()),
					)
				}
				writeUnauthorized(w)
				return
			}

			// 3. ユーザーを取得。セッション発行後に削除されている場合は未認証扱い
			user, err := users.FindByID(r.Context(), session.UserID)
			if err != nil {
				slog.Error("failed to load session user",
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w)
				return
			}
			if user == nil {
				writeUnauthorized(w)
				return
			}

			// 4. 認証済みユーザーIDとロールをコンテキストに注入
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), user.ID, user.Roles)))
		})
	}
}

// RequireAdmin はAdminロールを持たないリクエストに403を返すミドルウェア。
// SessionMiddlewareの後に配置する必要がある。
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roles, err := RolesFromContext(r.Context())
		if err != nil {
			writeUnauthorized(w)
			return
		}

		user := &model.User{Roles: roles}
		if !user.HasRole(model.RoleAdmin) {
			apiErr := model.NewForbiddenError()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{
				"code":     apiErr.Code,
				"message":  apiErr.Message,
				"category": apiErr.Category,
				"action":   apiErr.Action,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// RolesFromContext はリクエストコンテキストからロール一覧を取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func RolesFromContext(ctx context.Context) ([]string, error) {
	roles, ok := ctx.Value(rolesContextKey).([]string)
	if !ok {
		return nil, fmt.Errorf("roles not found in context")
	}
	return roles, nil
}

// ContextWithActor はコンテキストにユーザーIDとロール一覧を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithActor(ctx context.Context, userID string, roles []string) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	return context.WithValue(ctx, rolesContextKey, roles)
}

// isUnauthorized はエラーが未認証のAPIErrorかどうかを判定する。
func isUnauthorized(err error) bool {
	apiErr, ok := err.(*model.APIError)
	return ok && apiErr.Code == model.ErrCodeUnauthorized
}

// writeUnauthorized は401 Unauthorizedレスポンスを統一フォーマットで書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	apiErr := model.NewUnauthorizedError()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"code":     apiErr.Code,
		"message":  apiErr.Message,
		"category": apiErr.Category,
		"action":   apiErr.Action,
	})
}
