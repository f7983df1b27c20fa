package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// Connect opens the MySQL pool and pings it. Times are always parsed as UTC.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// RunMigrations executes every *.sql file in fsys in lexical order
// (001 -> 002 -> ...). Each file holds a single idempotent statement.
func RunMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, log logrus.FieldLogger) error {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		b, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := execMigration(ctx, db, string(b)); err != nil {
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
		log.WithField("file", file).Info("migration applied")
	}
	return nil
}

func execMigration(ctx context.Context, db *sql.DB, stmt string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, stmt)
	return err
}

// Stores groups the per-process store handles over one pool. main builds it
// once and hands the same values to the gateway and the HTTP server.
type Stores struct {
	Users    *UserStore
	Members  *MemberStore
	Messages *MessageStore
}

func NewStores(db *sql.DB) Stores {
	return Stores{
		Users:    NewUserStore(db),
		Members:  NewMemberStore(db),
		Messages: NewMessageStore(db),
	}
}
