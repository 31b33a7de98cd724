package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"minitwit/internal/model"
)

const timelineColumns = `m.message_id, m.author_id, m.text, m.pub_date, u.username, u.email`

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

// timelineRow is a message joined with the columns of its author.
type timelineRow struct {
	model.Message
	Username string `db:"username"`
	Email    string `db:"email"`
}

func (row *timelineRow) entry() model.TimelineEntry {
	return model.TimelineEntry{
		Message: row.Message,
		Author: model.User{
			ID:       row.AuthorID,
			Username: row.Username,
			Email:    row.Email,
		},
	}
}

func toEntries(rows []timelineRow) []model.TimelineEntry {
	entries := make([]model.TimelineEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].entry()
	}
	return entries
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (author_id, text, pub_date)
		VALUES ($1, $2, $3)
		RETURNING message_id
	`
	err := r.db.QueryRowxContext(ctx, query, msg.AuthorID, msg.Text, msg.PubDate).Scan(&msg.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrUnknownUser
		}
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *messageRepository) GetRecent(ctx context.Context, limit int) ([]model.TimelineEntry, error) {
	query := `
		SELECT ` + timelineColumns + `
		FROM messages m
		JOIN users u ON u.user_id = m.author_id
		ORDER BY m.pub_date DESC, m.message_id DESC
		LIMIT $1
	`
	var rows []timelineRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	return toEntries(rows), nil
}

func (r *messageRepository) GetRecentByAuthors(ctx context.Context, authorIDs []int64, limit int) ([]model.TimelineEntry, error) {
	if len(authorIDs) == 0 {
		return []model.TimelineEntry{}, nil
	}

	query := `
		SELECT ` + timelineColumns + `
		FROM messages m
		JOIN users u ON u.user_id = m.author_id
		WHERE m.author_id = ANY($1)
		ORDER BY m.pub_date DESC, m.message_id DESC
		LIMIT $2
	`
	var rows []timelineRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(authorIDs), limit); err != nil {
		return nil, fmt.Errorf("failed to get messages by authors: %w", err)
	}
	return toEntries(rows), nil
}

func (r *messageRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.TimelineEntry, error) {
	if len(ids) == 0 {
		return []model.TimelineEntry{}, nil
	}

	query := `
		SELECT ` + timelineColumns + `
		FROM messages m
		JOIN users u ON u.user_id = m.author_id
		WHERE m.message_id = ANY($1)
	`
	var rows []timelineRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get messages by ids: %w", err)
	}

	byID := make(map[int64]model.TimelineEntry, len(rows))
	for i := range rows {
		byID[rows[i].ID] = rows[i].entry()
	}

	// ANY($1) does not preserve order
	entries := make([]model.TimelineEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
