package room

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"tripchat/internal/database"
	"tripchat/internal/models"
	"tripchat/internal/utils"
)

type RoomMessagesHandler struct {
	Members Members
	History History
	Log     logrus.FieldLogger
}

// ServeHTTP handles GET /rooms/{id}/messages?after=&limit=
func (h *RoomMessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cursor, ok := parseCursor(r)
	if !ok {
		utils.Fail(w, http.StatusBadRequest, "after must be >= 0 and limit between 1 and 100")
		return
	}

	_, roomID, ok := authorizeRoom(w, r, h.Members, h.Log)
	if !ok {
		return
	}

	messages, err := h.History.ListSince(r.Context(), roomID, cursor)
	if err != nil {
		h.Log.WithField("room_id", roomID).WithError(err).Error("list history")
		utils.Fail(w, http.StatusInternalServerError, "DB error")
		return
	}

	msg := "messages fetched"
	if len(messages) == 0 {
		msg = "no history"
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: msg, Data: messages})
}

func parseCursor(r *http.Request) (models.Cursor, bool) {
	q := r.URL.Query()
	cursor := models.Cursor{Limit: database.DefaultHistoryLimit}

	if s := q.Get("after"); s != "" {
		after, err := strconv.ParseInt(s, 10, 64)
		if err != nil || after < 0 {
			return cursor, false
		}
		cursor.After = after
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit <= 0 || limit > database.MaxHistoryLimit {
			return cursor, false
		}
		cursor.Limit = limit
	}
	return cursor, true
}
