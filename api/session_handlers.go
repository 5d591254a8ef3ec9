package api

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/facturaIA/identity-ocr-service/internal/db"
	"github.com/facturaIA/identity-ocr-service/internal/idparse"
	"github.com/facturaIA/identity-ocr-service/internal/logger"
	"github.com/facturaIA/identity-ocr-service/internal/models"
	"github.com/facturaIA/identity-ocr-service/internal/session"
	"github.com/facturaIA/identity-ocr-service/internal/storage"
)

// CreateSession - POST /api/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	snap := h.sessions.Create()
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.SessionResponse{
		Session: snap,
		Review:  h.reviewer.Review(&snap.Record, &snap),
	})
}

// GetSession - GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.sessions.Get(id)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(models.SessionResponse{
		Session: snap,
		Review:  h.reviewer.Review(&snap.Record, &snap),
	})
}

// Observe - POST /api/sessions/{id}/observations
//
// The body is one OCR text observation, either raw text or JSON {"text": ...}.
func (h *Handler) Observe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.Session.MaxObservationBytes)
	text, err := readObservation(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, http.StatusRequestEntityTooLarge, "observation too large")
			return
		}
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		h.sendError(w, http.StatusBadRequest, "observation text is empty")
		return
	}

	obs, err := h.sessions.Observe(id, text)
	if err != nil {
		h.sessionError(w, err)
		return
	}

	resp := models.ObservationResponse{
		Session:   obs.Snapshot,
		Confirmed: obs.Confirmed,
		Review:    h.reviewer.Review(&obs.Record, &obs.Snapshot),
	}
	if resp.Confirmed == nil {
		resp.Confirmed = []idparse.FieldKind{}
	}

	if h.config.Session.ArchiveObservations && storage.Client != nil {
		path, err := storage.ArchiveObservation(r.Context(), id, obs.CreatedAt, obs.Sequence, text)
		if err != nil {
			h.logger.Warn("failed to archive observation",
				zap.String(logger.FieldSessionID, id.String()), zap.Error(err))
		} else {
			resp.ArchivedAs = path
		}
	}

	json.NewEncoder(w).Encode(resp)
}

// ResetSession - POST /api/sessions/{id}/reset
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.sessions.Reset(id)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(models.SessionResponse{
		Session: snap,
		Review:  h.reviewer.Review(&snap.Record, &snap),
	})
}

// DeleteSession - DELETE /api/sessions/{id}
//
// Archived observations of the session are removed as well.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.sessions.Get(id)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	if err := h.sessions.Delete(id); err != nil {
		h.sessionError(w, err)
		return
	}
	h.PurgeObservations(r.Context(), []session.Snapshot{snap})

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "session deleted",
	})
}

// CommitSession - POST /api/sessions/{id}/commit
//
// Only fully confident records are stored unless ?force=true.
func (h *Handler) CommitSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.sessions.Get(id)
	if err != nil {
		h.sessionError(w, err)
		return
	}

	review := h.reviewer.Review(&snap.Record, &snap)
	if !review.Complete && r.URL.Query().Get("force") != "true" {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  "record is not fully confirmed",
			"review": review,
		})
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	rec := db.NewIdentityRecord(&snap.Record)
	rec.SessionID = &snap.ID
	rec.Observations = snap.Observations
	rec.CreatedBy = operatorID(r)
	if err := db.SaveRecord(r.Context(), rec); err != nil {
		h.logger.Error("failed to save record",
			zap.String(logger.FieldSessionID, id.String()), zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, "failed to save record")
		return
	}
	if h.metrics != nil {
		h.metrics.IncrementRecordsCommitted()
	}
	h.logger.Info("record committed",
		zap.String(logger.FieldSessionID, id.String()),
		zap.String(logger.FieldRecordID, rec.ID.String()),
		zap.String(logger.FieldUserID, rec.CreatedBy))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.CommitResponse{Record: rec, Review: review})
}

// PurgeObservations removes the archived observations of closed sessions.
func (h *Handler) PurgeObservations(ctx context.Context, snaps []session.Snapshot) {
	if storage.Client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for _, snap := range snaps {
		n, err := storage.DeleteSessionObservations(ctx, snap.ID, snap.CreatedAt)
		if err != nil {
			h.logger.Warn("failed to purge observations",
				zap.String(logger.FieldSessionID, snap.ID.String()), zap.Error(err))
			continue
		}
		h.logger.Debug("observations purged",
			zap.String(logger.FieldSessionID, snap.ID.String()), zap.Int(logger.FieldCount, n))
	}
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		h.sendError(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger.Error("session operation failed", zap.Error(err))
	h.sendError(w, http.StatusInternalServerError, "internal error")
}

func readObservation(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req models.ObservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return "", err
			}
			return "", errors.New("invalid request body")
		}
		return req.Text, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
