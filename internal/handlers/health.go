package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"tripchat/internal/chat"
	"tripchat/internal/utils"
)

// GatewayStats reports realtime counters for the health endpoint.
type GatewayStats interface {
	Stats() chat.Stats
}

type HealthHandler struct {
	DB      *sql.DB
	Gateway GatewayStats
}

type HealthResponse struct {
	Status   string     `json:"status"`
	Database string     `json:"database"`
	Chat     chat.Stats `json:"chat"`
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if h.Gateway != nil {
		resp.Chat = h.Gateway.Stats()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		resp.Status, resp.Database = "degraded", "unreachable"
		utils.JSON(w, http.StatusServiceUnavailable, utils.APIResponse{Success: false, Message: "database unreachable", Data: resp})
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: resp})
}
