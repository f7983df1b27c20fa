package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripchat/internal/models"
)

var messageRowColumns = []string{"id", "trip_id", "sender_id", "name", "body", "client_token", "created_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}

func TestMessageStore_Append(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(q(insertMessage)).
		WithArgs(int64(3), int64(7), "hello", sql.NullString{}).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(q(selectMessageByID)).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(messageRowColumns).AddRow(12, 3, 7, "Ana", "hello", "", at))
	mock.ExpectCommit()

	store := NewMessageStore(db)
	msg, replayed, err := store.Append(context.Background(), models.NewMessage{RoomID: 3, SenderID: 7, Body: "hello"})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, models.Message{ID: 12, RoomID: 3, SenderID: 7, SenderName: "Ana", Body: "hello", CreatedAt: at}, msg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageStore_AppendReplayedToken(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	token := sql.NullString{String: "tok-1", Valid: true}

	mock.ExpectBegin()
	mock.ExpectExec(q(insertMessage)).
		WithArgs(int64(3), int64(7), "hello", token).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()
	mock.ExpectQuery(q(selectByToken)).
		WithArgs(int64(3), int64(7), "tok-1").
		WillReturnRows(sqlmock.NewRows(messageRowColumns).AddRow(9, 3, 7, "Ana", "hello", "tok-1", at))

	store := NewMessageStore(db)
	msg, replayed, err := store.Append(context.Background(), models.NewMessage{RoomID: 3, SenderID: 7, Body: "hello", ClientToken: "tok-1"})
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, int64(9), msg.ID)
	assert.Equal(t, "tok-1", msg.ClientToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageStore_AppendFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(insertMessage)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	store := NewMessageStore(db)
	_, replayed, err := store.Append(context.Background(), models.NewMessage{RoomID: 3, SenderID: 7, Body: "x"})
	assert.ErrorContains(t, err, "connection reset")
	assert.False(t, replayed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageStore_AppendRollsBackWhenReadBackFails(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(insertMessage)).
		WithArgs(int64(3), int64(7), "x", sql.NullString{}).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(q(selectMessageByID)).
		WithArgs(int64(9)).
		WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	store := NewMessageStore(db)
	_, _, err := store.Append(context.Background(), models.NewMessage{RoomID: 3, SenderID: 7, Body: "x"})
	assert.ErrorContains(t, err, "load message 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageStore_AppendBeginFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, _, err := NewMessageStore(db).Append(context.Background(), models.NewMessage{RoomID: 3, SenderID: 7, Body: "x"})
	assert.ErrorContains(t, err, "begin append")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageStore_ListSinceLatestIsAscending(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(q(selectLatest)).
		WithArgs(int64(3), DefaultHistoryLimit).
		WillReturnRows(sqlmock.NewRows(messageRowColumns).
			AddRow(5, 3, 7, "Ana", "third", "", at.Add(2*time.Minute)).
			AddRow(4, 3, 8, "Ben", "second", "", at.Add(time.Minute)).
			AddRow(2, 3, 7, "Ana", "first", "", at))

	store := NewMessageStore(db)
	got, err := store.ListSince(context.Background(), 3, models.Cursor{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 4, 5}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "Ben", got[1].SenderName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageStore_ListSinceAfterCursor(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(q(selectAfter)).
		WithArgs(int64(3), int64(4), MaxHistoryLimit).
		WillReturnRows(sqlmock.NewRows(messageRowColumns).
			AddRow(5, 3, 7, "Ana", "third", "", time.Now()))

	store := NewMessageStore(db)
	got, err := store.ListSince(context.Background(), 3, models.Cursor{After: 4, Limit: 1000})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageStore_ListSinceEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q(selectLatest)).
		WithArgs(int64(3), 10).
		WillReturnRows(sqlmock.NewRows(messageRowColumns))

	got, err := NewMessageStore(db).ListSince(context.Background(), 3, models.Cursor{Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
