// Package authz は認可ポリシーを提供する。
// ポリシーは純粋関数として実装し、ストレージやHTTPに依存しない。
package authz

import (
	"slices"

	"github.com/hitoshi/scoretracker/internal/model"
)

// RuleKind は認可ルールの種別を表す。
type RuleKind int

const (
	// SelfOnly は本人のリソースに対してのみ操作を許可する。
	SelfOnly RuleKind = iota
	// SelfOrAdmin は本人またはAdminロールに操作を許可する。
	SelfOrAdmin
	// RolesOnly は指定ロールのいずれかを持つ場合にのみ操作を許可する。
	RolesOnly
)

// Rule は1つの操作に対する認可ルール。
// ロールは固定enumではなく文字列集合のため、新しいロールの追加は
// ルールテーブルの変更だけで済む。
type Rule struct {
	Kind  RuleKind
	Roles []string // KindがRolesOnlyの場合に使用
}

// Allows はルールが（操作者ID、操作者ロール、リソース所有者ID）の
// 組み合わせに対して操作を許可するかを返す。
func (r Rule) Allows(actorID string, actorRoles []string, ownerID string) bool {
	switch r.Kind {
	case SelfOnly:
		return actorID == ownerID
	case SelfOrAdmin:
		return actorID == ownerID || hasAnyRole(actorRoles, model.RoleAdmin)
	case RolesOnly:
		return hasAnyRole(actorRoles, r.Roles...)
	default:
		return false
	}
}

// CanDeleteScore はスコア削除の認可判定。
// 所有者本人またはAdminロールを持つ操作者に許可する。
func CanDeleteScore(actorID string, actorRoles []string, score *model.Score) bool {
	return Rule{Kind: SelfOrAdmin}.Allows(actorID, actorRoles, score.OwnerID)
}

// CanAccessAdminEndpoints は管理者専用エンドポイントへのアクセス判定。
func CanAccessAdminEndpoints(actorRoles []string) bool {
	return Rule{Kind: RolesOnly, Roles: []string{model.RoleAdmin}}.Allows("", actorRoles, "")
}

// hasAnyRole はactorRolesがrolesのいずれかを含むかを返す。
func hasAnyRole(actorRoles []string, roles ...string) bool {
	for _, role := range roles {
		if slices.Contains(actorRoles, role) {
			return true
		}
	}
	return false
}
