package chat

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"tripchat/internal/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, in models.NewMessage) (models.Message, bool, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Message), args.Bool(1), args.Error(2)
}

type mockMembers struct {
	mock.Mock
}

func (m *mockMembers) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

// allowAll admits every user to every room.
type allowAll struct{}

func (allowAll) IsMember(context.Context, int64, int64) (bool, error) { return true, nil }

// memStore is an in-memory MessageStore with auto-increment ids.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []models.Message
}

func (s *memStore) Append(_ context.Context, in models.NewMessage) (models.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.ClientToken != "" {
		for _, m := range s.rows {
			if m.RoomID == in.RoomID && m.SenderID == in.SenderID && m.ClientToken == in.ClientToken {
				return m, true, nil
			}
		}
	}
	s.nextID++
	m := models.Message{
		ID:          s.nextID,
		RoomID:      in.RoomID,
		SenderID:    in.SenderID,
		Body:        in.Body,
		ClientToken: in.ClientToken,
		CreatedAt:   time.Now().UTC(),
	}
	s.rows = append(s.rows, m)
	return m, false, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
