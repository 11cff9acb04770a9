package repository

import (
	"context"
	"database/sql"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// MessageRepo persists the 'messages' table.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Create inserts a message and returns its ID.
func (r *MessageRepo) Create(ctx context.Context, m model.Message) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, content, type, related_to, is_read)
		 VALUES (?,?,?,?,?,0)`,
		m.SenderID, m.ReceiverID, m.Content, string(m.Type), m.RelatedTo)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Conversation returns the message history between two users, oldest
// first, and marks the messages the caller received as read.
func (r *MessageRepo) Conversation(ctx context.Context, userID, peerID uint64) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, content, type, is_read, related_to, created_at
		 FROM messages
		 WHERE (sender_id=? AND receiver_id=?) OR (sender_id=? AND receiver_id=?)
		 ORDER BY created_at ASC`,
		userID, peerID, peerID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var (
			m         model.Message
			relatedTo sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Type, &m.Read, &relatedTo, &m.CreatedAt); err != nil {
			return nil, err
		}
		if relatedTo.Valid {
			m.RelatedTo = &relatedTo.String
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_, err = r.DB.ExecContext(ctx,
		"UPDATE messages SET is_read=1 WHERE sender_id=? AND receiver_id=? AND is_read=0",
		peerID, userID)
	return out, err
}

// Conversations summarizes the caller's chats: one row per peer with the
// latest message and the unread count.
func (r *MessageRepo) Conversations(ctx context.Context, userID uint64) ([]model.Conversation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT peer, COALESCE(pr.name,''), m.content, m.created_at,
		        (SELECT COUNT(*) FROM messages u WHERE u.sender_id=peer AND u.receiver_id=? AND u.is_read=0)
		 FROM (
		     SELECT IF(sender_id=?, receiver_id, sender_id) AS peer, MAX(id) AS last_id
		     FROM messages WHERE sender_id=? OR receiver_id=?
		     GROUP BY peer
		 ) latest
		 JOIN messages m ON m.id = latest.last_id
		 LEFT JOIN profiles pr ON pr.id = latest.peer
		 ORDER BY m.created_at DESC`,
		userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.PeerID, &c.PeerName, &c.LastMessage, &c.LastAt, &c.Unread); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UnreadCount returns how many unread messages the user has.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE receiver_id=? AND is_read=0", userID).Scan(&n)
	return n, err
}
