package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"minitwit/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, whoID, whomID int64) (bool, error) {
	query := `
		INSERT INTO followers (who_id, whom_id)
		VALUES ($1, $2)
		ON CONFLICT (who_id, whom_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, whoID, whomID)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return false, model.ErrUnknownUser
		case isCheckViolation(err):
			return false, model.ErrCannotFollowSelf
		}
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, whoID, whomID int64) (bool, error) {
	query := `DELETE FROM followers WHERE who_id = $1 AND whom_id = $2`
	result, err := r.db.ExecContext(ctx, query, whoID, whomID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, whoID, whomID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM followers WHERE who_id = $1 AND whom_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, whoID, whomID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

func (r *followRepository) GetFollowedIDs(ctx context.Context, whoID int64) ([]int64, error) {
	query := `SELECT whom_id FROM followers WHERE who_id = $1 ORDER BY whom_id`
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, whoID); err != nil {
		return nil, fmt.Errorf("failed to get followed ids: %w", err)
	}
	return ids, nil
}

func (r *followRepository) GetFollowerIDs(ctx context.Context, whomID int64) ([]int64, error) {
	query := `SELECT who_id FROM followers WHERE whom_id = $1 ORDER BY who_id`
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, whomID); err != nil {
		return nil, fmt.Errorf("failed to get follower ids: %w", err)
	}
	return ids, nil
}
