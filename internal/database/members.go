package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tripchat/internal/models"
)

const (
	selectMembership = `SELECT 1 FROM trip_members WHERE trip_id = ? AND user_id = ?`
	selectTripsOf    = `SELECT t.id, t.name, t.created_by, t.created_at FROM trips t
		JOIN trip_members m ON t.id = m.trip_id WHERE m.user_id = ? ORDER BY t.id`
)

// MemberStore reads trip membership. Trips and members are written elsewhere.
type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func (s *MemberStore) IsMember(ctx context.Context, tripID, userID int64) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx, selectMembership, tripID, userID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// TripsOf lists the trips userID belongs to, oldest first.
func (s *MemberStore) TripsOf(ctx context.Context, userID int64) ([]models.Trip, error) {
	rows, err := s.db.QueryContext(ctx, selectTripsOf, userID)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	trips := []models.Trip{}
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}
