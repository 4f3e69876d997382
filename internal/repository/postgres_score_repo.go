package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/scoretracker/internal/model"
)

// PostgresScoreRepo はPostgreSQLを使用したスコアリポジトリ。
type PostgresScoreRepo struct {
	db *sql.DB
}

// NewPostgresScoreRepo はPostgresScoreRepoを生成する。
func NewPostgresScoreRepo(db *sql.DB) *PostgresScoreRepo {
	return &PostgresScoreRepo{db: db}
}

// Create はスコアを作成する。
func (r *PostgresScoreRepo) Create(ctx context.Context, score *model.Score) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scores (id, value, date_recorded, owner_id)
		 VALUES ($1, $2, $3, $4)`,
		score.ID, score.Value, score.DateRecorded, score.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// FindByID は指定IDのスコアを取得する。見つからない場合はnilを返す。
func (r *PostgresScoreRepo) FindByID(ctx context.Context, id string) (*model.Score, error) {
	score := &model.Score{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, value, date_recorded, owner_id FROM scores WHERE id = $1`,
		id,
	).Scan(&score.ID, &score.Value, &score.DateRecorded, &score.OwnerID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find score: %w", err)
	}

	return score, nil
}

// ListByOwner は指定ユーザーのスコア一覧をdate_recorded降順で返す。
func (r *PostgresScoreRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Score, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, value, date_recorded, owner_id
		 FROM scores
		 WHERE owner_id = $1
		 ORDER BY date_recorded DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []*model.Score
	for rows.Next() {
		score := &model.Score{}
		if err := rows.Scan(&score.ID, &score.Value, &score.DateRecorded, &score.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}

	return scores, nil
}

// DeleteByID は指定IDのスコアを削除する。
func (r *PostgresScoreRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM scores WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete score: %w", err)
	}
	return nil
}

// DeleteByOwnerID は指定ユーザーの全スコアを削除する。
func (r *PostgresScoreRepo) DeleteByOwnerID(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM scores WHERE owner_id = $1`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user scores: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ScoreRepository = (*PostgresScoreRepo)(nil)
