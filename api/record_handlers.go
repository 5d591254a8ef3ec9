package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/facturaIA/identity-ocr-service/internal/db"
	"github.com/facturaIA/identity-ocr-service/internal/logger"
	"github.com/facturaIA/identity-ocr-service/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// GetRecords - GET /api/records?page=&limit=&id_number=
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	page, limit := pagination(r)
	offset := (page - 1) * limit
	idNumber := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("id_number")))

	records, total, err := db.GetRecordsPaginated(r.Context(), idNumber, limit, offset)
	if err != nil {
		h.logger.Error("failed to list records", zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, "failed to get records")
		return
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	json.NewEncoder(w).Encode(models.RecordListResponse{
		Records:    records,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

// GetRecordStats - GET /api/records/stats
func (h *Handler) GetRecordStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	stats, err := db.GetRecordStats(r.Context())
	if err != nil {
		h.logger.Error("failed to get record stats", zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	json.NewEncoder(w).Encode(stats)
}

// GetRecord - GET /api/records/{id}
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	rec, err := db.GetRecordByID(r.Context(), id)
	if err != nil {
		h.recordError(w, id, err)
		return
	}

	fields := rec.Record()
	json.NewEncoder(w).Encode(map[string]interface{}{
		"record": rec,
		"fields": fields,
		"review": h.reviewer.Review(&fields, nil),
	})
}

// DeleteRecord - DELETE /api/records/{id}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	if err := db.DeleteRecord(r.Context(), id); err != nil {
		h.recordError(w, id, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "record deleted",
	})
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid record id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) recordError(w http.ResponseWriter, id uuid.UUID, err error) {
	if errors.Is(err, db.ErrRecordNotFound) {
		h.sendError(w, http.StatusNotFound, "record not found")
		return
	}
	h.logger.Error("record operation failed", zap.String(logger.FieldRecordID, id.String()), zap.Error(err))
	h.sendError(w, http.StatusInternalServerError, "internal error")
}

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, defaultPageSize
	if p := r.URL.Query().Get("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= maxPageSize {
			limit = val
		}
	}
	return page, limit
}
