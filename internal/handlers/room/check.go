package room

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"tripchat/internal/utils"
)

// RoomCheckHandler verifies if the authenticated user is a member of the room
type RoomCheckHandler struct {
	Members Members
	Log     logrus.FieldLogger
}

// ServeHTTP handles GET /rooms/{id}/check
func (h *RoomCheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, roomID, ok := authorizeRoom(w, r, h.Members, h.Log)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "user is a member",
		Data:    map[string]int64{"roomId": roomID, "userId": userID},
	})
}
