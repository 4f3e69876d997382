package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/scoretracker/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを作成する。
// lower(email)の一意インデックスにより、並行登録でも重複は1件しか成功しない。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, roles, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.FullName, user.PasswordHash,
		pq.Array(user.Roles), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.NewDuplicateEmailError()
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByEmail はメールアドレス（大文字小文字無視）でユーザーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, password_hash, roles, created_at, updated_at
		 FROM users WHERE lower(email) = lower($1)`,
		email,
	))
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, password_hash, roles, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	))
}

// ListAll は全ユーザーを作成日時昇順で返す。
func (r *PostgresUserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, full_name, password_hash, roles, created_at, updated_at
		 FROM users ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(
			&user.ID, &user.Email, &user.FullName, &user.PasswordHash,
			pq.Array(&user.Roles), &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 存在しない場合はUserNotFoundエラーを返す。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}
	return nil
}

// scanOne は1行のユーザーをスキャンする。行が存在しない場合はnilを返す。
func (r *PostgresUserRepo) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.FullName, &user.PasswordHash,
		pq.Array(&user.Roles), &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
