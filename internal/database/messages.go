package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/samber/lo"

	"tripchat/internal/models"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100

	errDuplicateEntry = 1062
)

const (
	messageColumns = `SELECT m.id, m.trip_id, m.sender_id, COALESCE(u.name, ''), m.body, COALESCE(m.client_token, ''), m.created_at
		FROM chat_messages m LEFT JOIN users u ON u.id = m.sender_id`

	insertMessage     = `INSERT INTO chat_messages (trip_id, sender_id, body, client_token) VALUES (?, ?, ?, ?)`
	selectMessageByID = messageColumns + ` WHERE m.id = ?`
	selectByToken     = messageColumns + ` WHERE m.trip_id = ? AND m.sender_id = ? AND m.client_token = ?`
	selectLatest      = messageColumns + ` WHERE m.trip_id = ? ORDER BY m.id DESC LIMIT ?`
	selectAfter       = messageColumns + ` WHERE m.trip_id = ? AND m.id > ? ORDER BY m.id ASC LIMIT ?`
)

// MessageStore is the MySQL chat_messages log.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Append inserts one row and reads back its canonical form in the same
// transaction, so a failed read leaves nothing stored. The created_at column
// is filled by the server clock. A repeated (trip, sender, client token)
// triple hits the unique key and the original row is returned with replayed set.
func (s *MessageStore) Append(ctx context.Context, in models.NewMessage) (models.Message, bool, error) {
	token := sql.NullString{String: in.ClientToken, Valid: in.ClientToken != ""}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Message{}, false, fmt.Errorf("begin append: %w", err)
	}
	// no-op once committed
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, insertMessage, in.RoomID, in.SenderID, in.Body, token)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == errDuplicateEntry && token.Valid {
			_ = tx.Rollback()
			msg, err := scanOne(ctx, s.db, selectByToken, in.RoomID, in.SenderID, in.ClientToken)
			if err != nil {
				return models.Message{}, false, fmt.Errorf("load replayed message: %w", err)
			}
			return msg, true, nil
		}
		return models.Message{}, false, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Message{}, false, fmt.Errorf("last insert id: %w", err)
	}
	msg, err := scanOne(ctx, tx, selectMessageByID, id)
	if err != nil {
		return models.Message{}, false, fmt.Errorf("load message %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return models.Message{}, false, fmt.Errorf("commit message %d: %w", id, err)
	}
	return msg, false, nil
}

// ListSince returns room history in ascending id order.
func (s *MessageStore) ListSince(ctx context.Context, roomID int64, cursor models.Cursor) ([]models.Message, error) {
	limit := cursor.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if cursor.After > 0 {
		rows, err = s.db.QueryContext(ctx, selectAfter, roomID, cursor.After, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, selectLatest, roomID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	if cursor.After <= 0 {
		messages = lo.Reverse(messages)
	}
	return messages, nil
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanOne(ctx context.Context, q rowQuerier, query string, args ...any) (models.Message, error) {
	return scanMessage(q.QueryRowContext(ctx, query, args...))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.SenderName, &m.Body, &m.ClientToken, &m.CreatedAt)
	m.CreatedAt = m.CreatedAt.UTC()
	return m, err
}
