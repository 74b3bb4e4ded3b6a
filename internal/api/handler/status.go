package handler

import (
	"net/http"

	"github.com/openmahjong/parlor/internal/api/response"
	"github.com/openmahjong/parlor/internal/services/registry"
)

// StatusHandler reports process liveness and headline counts
type StatusHandler struct {
	registry *registry.Registry
}

// NewStatusHandler creates a StatusHandler
func NewStatusHandler(reg *registry.Registry) *StatusHandler {
	return &StatusHandler{registry: reg}
}

type statusResponse struct {
	Status    string `json:"status"`
	RoomCount int    `json:"roomCount"`
}

// Get returns the server status
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, statusResponse{
		Status:    "ok",
		RoomCount: h.registry.RoomCount(),
	})
}
