package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"tripchat/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

const (
	insertUser       = `INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`
	userColumns      = `SELECT id, name, email, password_hash, created_at FROM users`
	selectUserByMail = userColumns + ` WHERE email = ?`
	selectUserByID   = userColumns + ` WHERE id = ?`
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user and returns its id. A taken email yields ErrAlreadyExists.
func (s *UserStore) Create(ctx context.Context, name, email, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx, insertUser, name, email, passwordHash)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == errDuplicateEntry {
			return 0, ErrAlreadyExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, selectUserByMail, email)
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	return s.findOne(ctx, selectUserByID, id)
}

func (s *UserStore) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
