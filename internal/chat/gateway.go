package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"tripchat/internal/models"
)

// MaxClientTokenLength bounds the idempotency token a client may attach to a send.
const MaxClientTokenLength = 64

// MessageStore is the append side of the durable message log. History reads
// go through the HTTP handlers, not the gateway.
type MessageStore interface {
	// Append stores a message and returns its canonical form. When the
	// (room, sender, client token) triple was seen before, the original
	// message is returned with replayed set.
	Append(ctx context.Context, in models.NewMessage) (msg models.Message, replayed bool, err error)
}

// MembershipChecker decides whether a user may view a room.
type MembershipChecker interface {
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
}

type Options struct {
	MaxBodyLength     int
	AppendTimeout     time.Duration
	MembershipTimeout time.Duration
	SendBuffer        int
	PresenceEnabled   bool
}

func DefaultOptions() Options {
	return Options{
		MaxBodyLength:     2000,
		AppendTimeout:     5 * time.Second,
		MembershipTimeout: 3 * time.Second,
		SendBuffer:        256,
	}
}

type SendRequest struct {
	RoomID      int64
	Body        string
	ClientToken string
}

type Stats struct {
	Sessions     int    `json:"sessions"`
	Rooms        int    `json:"rooms"`
	MessagesSent uint64 `json:"messagesSent"`
	Deliveries   uint64 `json:"deliveries"`
	Dropped      uint64 `json:"dropped"`
}

// Gateway owns connection lifecycle and message routing. It is the only
// writer of the Registry and the only caller of MessageStore.Append.
type Gateway struct {
	store   MessageStore
	members MembershipChecker
	opts    Options
	log     logrus.FieldLogger

	mu       sync.Mutex
	registry *Registry
	sessions map[string]*Session
	shutdown bool

	messagesSent atomic.Uint64
	deliveries   atomic.Uint64
	dropped      atomic.Uint64
}

func NewGateway(store MessageStore, members MembershipChecker, opts Options, log logrus.FieldLogger) *Gateway {
	def := DefaultOptions()
	if opts.MaxBodyLength <= 0 {
		opts.MaxBodyLength = def.MaxBodyLength
	}
	if opts.AppendTimeout <= 0 {
		opts.AppendTimeout = def.AppendTimeout
	}
	if opts.MembershipTimeout <= 0 {
		opts.MembershipTimeout = def.MembershipTimeout
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = def.SendBuffer
	}
	return &Gateway{
		store:    store,
		members:  members,
		opts:     opts,
		log:      log,
		registry: NewRegistry(),
		sessions: make(map[string]*Session),
	}
}

// Connect creates a session for a verified identity.
func (g *Gateway) Connect(id Identity) (*Session, error) {
	if id.UserID <= 0 {
		return nil, ErrAuthenticationRequired
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shutdown {
		return nil, ErrDisconnected
	}
	s := newSession(id, g.opts.SendBuffer)
	g.sessions[s.ID] = s

	g.sessionLog(s).Debug("session connected")
	return s, nil
}

// Join subscribes s to room after the membership check passes.
func (g *Gateway) Join(ctx context.Context, s *Session, room RoomID) error {
	if s == nil {
		return ErrAuthenticationRequired
	}
	if s.closed() {
		return ErrDisconnected
	}
	if room <= 0 {
		return ErrInvalidRoom
	}

	g.mu.Lock()
	joined := g.registry.Has(room, s)
	g.mu.Unlock()
	if joined {
		return nil
	}

	mctx, cancel := context.WithTimeout(ctx, g.opts.MembershipTimeout)
	ok, err := g.members.IsMember(mctx, room, s.UserID)
	cancel()
	if err != nil {
		g.sessionLog(s).WithField("room_id", room).WithError(err).Warn("membership check failed")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrNotAMember
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// the session may have gone away while the membership query ran
	if s.closed() {
		return ErrDisconnected
	}
	if !g.registry.AddToRoom(room, s) {
		return nil
	}
	s.activate()
	g.sessionLog(s).WithField("room_id", room).Info("joined room")

	if g.opts.PresenceEnabled {
		g.broadcastLocked(room, g.onlineUsersLocked(room))
	}
	return nil
}

// Leave unsubscribes s from room. Leaving a room that is not joined is a no-op.
func (g *Gateway) Leave(s *Session, room RoomID) error {
	if s == nil {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if s.closed() || !g.registry.RemoveFromRoom(room, s) {
		return nil
	}
	g.sessionLog(s).WithField("room_id", room).Info("left room")

	if g.opts.PresenceEnabled {
		g.broadcastLocked(room, g.onlineUsersLocked(room))
	}
	return nil
}

// Send appends a message and fans the stored copy out to every session in
// the room, the sender included. Nothing is broadcast unless the append succeeds.
func (g *Gateway) Send(ctx context.Context, s *Session, req SendRequest) (models.Message, error) {
	if s == nil {
		return models.Message{}, ErrAuthenticationRequired
	}
	if s.closed() {
		return models.Message{}, ErrDisconnected
	}

	g.mu.Lock()
	joined := g.registry.Has(req.RoomID, s)
	g.mu.Unlock()
	if !joined {
		return models.Message{}, ErrNotJoined
	}

	body, err := g.validateBody(req.Body)
	if err != nil {
		return models.Message{}, err
	}
	if len(req.ClientToken) > MaxClientTokenLength {
		return models.Message{}, ErrTokenTooLong
	}

	actx, cancel := context.WithTimeout(ctx, g.opts.AppendTimeout)
	msg, replayed, err := g.store.Append(actx, models.NewMessage{
		RoomID:      req.RoomID,
		SenderID:    s.UserID,
		Body:        body,
		ClientToken: req.ClientToken,
	})
	cancel()
	if err != nil {
		g.sessionLog(s).WithField("room_id", req.RoomID).WithError(err).Warn("append failed")
		return models.Message{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ev := newMessageEvent(msg)
	if replayed {
		// the original send already fanned out; only the retrying sender needs it again
		g.Reply(s, ev)
		return msg, nil
	}

	g.mu.Lock()
	n := g.broadcastLocked(req.RoomID, ev)
	g.mu.Unlock()

	g.messagesSent.Add(1)
	g.sessionLog(s).WithFields(logrus.Fields{
		"room_id":    req.RoomID,
		"message_id": msg.ID,
		"recipients": n,
	}).Debug("message broadcast")
	return msg, nil
}

// Disconnect closes s and removes it from every room. Safe to call repeatedly.
func (g *Gateway) Disconnect(s *Session) {
	if s == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disconnectLocked(s)
}

// Reply queues ev for s alone. A session that cannot accept it is disconnected.
func (g *Gateway) Reply(s *Session, ev Event) bool {
	if s.deliver(ev) {
		return true
	}
	if !s.closed() {
		g.dropped.Add(1)
		g.Disconnect(s)
	}
	return false
}

// Close disconnects every session and rejects new connections.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdown = true
	for _, s := range g.sessions {
		g.disconnectLocked(s)
	}
	g.log.Info("chat gateway closed")
}

// OnlineUsers lists the distinct users currently subscribed to room.
func (g *Gateway) OnlineUsers(room RoomID) []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.UserIDs(room)
}

// RoomsOf lists the rooms s has joined.
func (g *Gateway) RoomsOf(s *Session) []RoomID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.RoomsOf(s)
}

func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	sessions, rooms := len(g.sessions), g.registry.RoomCount()
	g.mu.Unlock()
	return Stats{
		Sessions:     sessions,
		Rooms:        rooms,
		MessagesSent: g.messagesSent.Load(),
		Deliveries:   g.deliveries.Load(),
		Dropped:      g.dropped.Load(),
	}
}

func (g *Gateway) validateBody(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return "", ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > g.opts.MaxBodyLength {
		return "", ErrBodyTooLong
	}
	return body, nil
}

// broadcastLocked queues ev on every session in room and returns how many
// accepted it. Sessions with a full queue are disconnected. g.mu must be held.
func (g *Gateway) broadcastLocked(room RoomID, ev Event) int {
	var delivered int
	var overflow []*Session
	for _, s := range g.registry.MembersOf(room) {
		if s.deliver(ev) {
			delivered++
			continue
		}
		if !s.closed() {
			overflow = append(overflow, s)
		}
	}
	g.deliveries.Add(uint64(delivered))

	for _, s := range overflow {
		g.dropped.Add(1)
		g.sessionLog(s).WithField("room_id", room).Warn("send queue full, disconnecting")
		g.disconnectLocked(s)
	}
	return delivered
}

func (g *Gateway) disconnectLocked(s *Session) {
	if !s.close() {
		return
	}
	rooms := g.registry.RemoveSession(s)
	delete(g.sessions, s.ID)
	g.sessionLog(s).WithField("rooms", rooms).Debug("session disconnected")

	if g.opts.PresenceEnabled {
		for _, room := range rooms {
			g.broadcastLocked(room, g.onlineUsersLocked(room))
		}
	}
}

func (g *Gateway) onlineUsersLocked(room RoomID) Event {
	return Event{Type: EventOnlineUsers, Data: OnlineUsers{RoomID: room, UserIDs: g.registry.UserIDs(room)}}
}

func (g *Gateway) sessionLog(s *Session) logrus.FieldLogger {
	return g.log.WithFields(logrus.Fields{"session_id": s.ID, "user_id": s.UserID})
}
