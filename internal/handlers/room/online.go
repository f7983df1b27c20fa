package room

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"tripchat/internal/utils"
)

type RoomOnlineHandler struct {
	Members  Members
	Presence Presence
	Log      logrus.FieldLogger
}

// ServeHTTP handles GET /rooms/{id}/online
func (h *RoomOnlineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, roomID, ok := authorizeRoom(w, r, h.Members, h.Log)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Data: map[string]any{
			"roomId":  roomID,
			"userIds": h.Presence.OnlineUsers(roomID),
		},
	})
}
