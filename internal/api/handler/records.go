package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openmahjong/parlor/internal/api/apierr"
	"github.com/openmahjong/parlor/internal/api/response"
	"github.com/openmahjong/parlor/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RecordsHandler serves completed game records
type RecordsHandler struct {
	store storage.Storage
}

// NewRecordsHandler creates a RecordsHandler
func NewRecordsHandler(store storage.Storage) *RecordsHandler {
	return &RecordsHandler{store: store}
}

// List returns recent game records, most recent first
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			apierr.WriteError(w, apierr.NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	records, err := h.store.ListGameRecords(r.Context(), limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, records)
}

// Get returns one game record by ID
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	record, err := h.store.GetGameRecord(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, record)
}
