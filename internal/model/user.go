// Package model はドメインモデルを定義する。
package model

import (
	"slices"
	"time"
)

// ロール名の定数。ロールは固定enumではなく文字列集合として扱い、
// 将来のロール追加に対応できる構造にする。
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// User は登録済みユーザーを表す。
// PasswordHashは平文を含まず、レスポンスやログに出力してはならない。
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole はユーザーが指定ロールを持つかを返す。
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// Session はユーザーのログインセッションを表す。
// Tokenは推測不能な不透明値で、Cookieには署名付きで格納される。
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Score はユーザーが記録した1件のスコアを表す。
// OwnerIDは作成時に確定し、以後変更されない。
type Score struct {
	ID           string
	Value        int
	DateRecorded time.Time
	OwnerID      string
}
