package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"tripchat/internal/chat"
	"tripchat/internal/middleware"
	"tripchat/internal/utils"
)

type Options struct {
	// MaxBodyLength mirrors the gateway's body limit in runes. Frames too
	// large to carry a valid body are answered with a validation error.
	MaxBodyLength  int
	// MaxFrameBytes is the hard transport cap; a larger frame closes the
	// connection. It is raised to at least twice the body-derived limit.
	MaxFrameBytes  int64
	PongWait       time.Duration
	WriteWait      time.Duration
	PingPeriod     time.Duration
	AllowedOrigins []string
}

func DefaultOptions() Options {
	return Options{
		MaxBodyLength:  chat.DefaultOptions().MaxBodyLength,
		MaxFrameBytes:  64 << 10,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		PingPeriod:     54 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Handler authenticates GET /ws, upgrades the connection and binds it to a
// gateway session for its lifetime.
type Handler struct {
	gateway  *chat.Gateway
	secret   string
	opts     Options
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
	validate *validator.Validate
}

func NewHandler(gateway *chat.Gateway, secret string, opts Options, log logrus.FieldLogger) *Handler {
	def := DefaultOptions()
	if opts.MaxBodyLength <= 0 {
		opts.MaxBodyLength = def.MaxBodyLength
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = def.MaxFrameBytes
	}
	if opts.MaxFrameBytes < 2*opts.frameLimit() {
		opts.MaxFrameBytes = 2 * opts.frameLimit()
	}
	if opts.PongWait <= 0 {
		opts.PongWait = def.PongWait
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = def.WriteWait
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}

	h := &Handler{
		gateway:  gateway,
		secret:   secret,
		opts:     opts,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.ParseJWT(middleware.TokenFromRequest(r), h.secret)
	if err != nil {
		utils.Fail(w, http.StatusUnauthorized, chat.ErrAuthenticationRequired.Error())
		return
	}

	session, err := h.gateway.Connect(chat.Identity{UserID: userID})
	if err != nil {
		utils.Fail(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.gateway.Disconnect(session)
		return
	}

	c := &client{
		handler: h,
		conn:    conn,
		session: session,
		log:     h.log.WithFields(logrus.Fields{"session_id": session.ID, "user_id": userID}),
	}
	go c.writePump()
	c.readPump(context.WithoutCancel(r.Context()))
}

// frameOverhead covers the envelope keys, room id and a fully escaped client token.
const frameOverhead = 2048

// frameLimit is the largest frame that can still hold a valid body: every
// rune escaped as a JSON surrogate pair (12 bytes) plus the envelope.
func (o Options) frameLimit() int64 {
	return int64(o.MaxBodyLength)*12 + frameOverhead
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || lo.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	return lo.Contains(h.opts.AllowedOrigins, origin)
}

var errMalformedFrame = errors.New("malformed frame")

// decode parses and validates one client frame. The partially decoded frame
// is returned alongside any error so the reply can echo its fields.
func (h *Handler) decode(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, errMalformedFrame
	}
	if err := h.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].StructField() {
			case "RoomID":
				return f, chat.ErrInvalidRoom
			case "ClientToken":
				return f, chat.ErrTokenTooLong
			}
		}
		return f, errMalformedFrame
	}
	return f, nil
}
