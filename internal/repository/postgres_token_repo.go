package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresTokenRepo はPostgreSQLを使用したトークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create はトークンをlastused=now()で保存する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token string, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (token, account_id, lastused) VALUES ($1, $2, now())`,
		token, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// FindAndTouch はトークンに紐付くアカウントIDを返し、lastusedを更新する。
// 単一のUPDATE ... RETURNINGで実行するため競合窓はない。
// lastusedはlast-writer-winsでよい（スイープ粒度の参考値であり順序カウンタではない）。
func (r *PostgresTokenRepo) FindAndTouch(ctx context.Context, token string) (int64, bool, error) {
	var accountID int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE tokens SET lastused = now() WHERE token = $1 RETURNING account_id`,
		token,
	).Scan(&accountID)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to touch token: %w", err)
	}

	return accountID, true, nil
}

// DeleteIdle はlastusedがmaxIdleより古い全トークンを1トランザクションで削除する。
// 冪等であり、削除対象がない場合でもエラーにならない。
func (r *PostgresTokenRepo) DeleteIdle(ctx context.Context, maxIdle time.Duration) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	interval := fmt.Sprintf("%d seconds", int64(maxIdle.Seconds()))
	result, err := tx.ExecContext(ctx,
		`DELETE FROM tokens WHERE lastused < now() - $1::interval`,
		interval,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle tokens: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deleted, nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
