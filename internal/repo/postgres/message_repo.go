package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindledapp/kindled/internal/domain/model"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `id, match_id, sender_id, content, is_read, sent_at`

// Create stamps sent_at on the server so display order never depends
// on client clocks.
func (r *MessageRepo) Create(ctx context.Context, matchID, senderID int64, content string, now time.Time) (model.Message, error) {
	if matchID <= 0 || senderID <= 0 || content == "" {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}
	if r.pool == nil {
		return model.Message{}, fmt.Errorf("postgres pool is nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	msg, err := scanMessage(r.pool.QueryRow(ctx, `
INSERT INTO messages (
	match_id,
	sender_id,
	content,
	is_read,
	sent_at
) VALUES ($1, $2, $3, FALSE, $4)
RETURNING `+messageColumns+`
`, matchID, senderID, content, now.UTC()))
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}

	return msg, nil
}

// ListByMatch returns one page newest-first; callers reverse for
// display. Total counts the whole conversation, not the page.
func (r *MessageRepo) ListByMatch(ctx context.Context, matchID int64, limit, offset int) ([]model.Message, int, error) {
	if matchID <= 0 {
		return nil, 0, fmt.Errorf("invalid match id")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if r.pool == nil {
		return []model.Message{}, 0, nil
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM messages WHERE match_id = $1
`, matchID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE match_id = $1
ORDER BY sent_at DESC, id DESC
LIMIT $2 OFFSET $3
`, matchID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0, limit)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}

	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	return items, total, nil
}

func (r *MessageRepo) Last(ctx context.Context, matchID int64) (*model.Message, error) {
	if matchID <= 0 {
		return nil, fmt.Errorf("invalid match id")
	}
	if r.pool == nil {
		return nil, nil
	}

	msg, err := scanMessage(r.pool.QueryRow(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE match_id = $1
ORDER BY sent_at DESC, id DESC
LIMIT 1
`, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last message: %w", err)
	}

	return &msg, nil
}

// UnreadCount counts counterpart messages the viewer has not read.
func (r *MessageRepo) UnreadCount(ctx context.Context, matchID, viewerID int64) (int, error) {
	if matchID <= 0 || viewerID <= 0 {
		return 0, fmt.Errorf("invalid unread count payload")
	}
	if r.pool == nil {
		return 0, nil
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM messages
WHERE match_id = $1 AND sender_id <> $2 AND NOT is_read
`, matchID, viewerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}

	return count, nil
}

// UnreadTotal counts unread messages for the viewer across all of
// their active matches, for the inbox badge.
func (r *MessageRepo) UnreadTotal(ctx context.Context, viewerID int64) (int, error) {
	if viewerID <= 0 {
		return 0, fmt.Errorf("invalid viewer id")
	}
	if r.pool == nil {
		return 0, nil
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM messages m
JOIN matches mt ON mt.id = m.match_id
WHERE (mt.user_a_id = $1 OR mt.user_b_id = $1)
	AND mt.is_active
	AND m.sender_id <> $1
	AND NOT m.is_read
`, viewerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread total: %w", err)
	}

	return count, nil
}

// MarkRead flips counterpart messages false -> true; the transition is
// one-way.
func (r *MessageRepo) MarkRead(ctx context.Context, matchID, viewerID int64) error {
	if matchID <= 0 || viewerID <= 0 {
		return fmt.Errorf("invalid mark read payload")
	}
	if r.pool == nil {
		return nil
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE messages
SET is_read = TRUE
WHERE match_id = $1 AND sender_id <> $2 AND NOT is_read
`, matchID, viewerID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}

	return nil
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var m model.Message
	if err := row.Scan(
		&m.ID,
		&m.MatchID,
		&m.SenderID,
		&m.Content,
		&m.IsRead,
		&m.SentAt,
	); err != nil {
		return model.Message{}, err
	}
	return m, nil
}
