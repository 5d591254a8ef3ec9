package models

import (
	"github.com/facturaIA/identity-ocr-service/internal/db"
	"github.com/facturaIA/identity-ocr-service/internal/idparse"
	"github.com/facturaIA/identity-ocr-service/internal/services"
	"github.com/facturaIA/identity-ocr-service/internal/session"
)

// ObservationRequest is the JSON form of an observation upload.
type ObservationRequest struct {
	Text string `json:"text"`
}

// SessionResponse reports the state of a document session.
type SessionResponse struct {
	Session session.Snapshot       `json:"session"`
	Review  *services.ReviewResult `json:"review"`
}

// ObservationResponse reports the outcome of one observation.
type ObservationResponse struct {
	Session    session.Snapshot       `json:"session"`
	Confirmed  []idparse.FieldKind    `json:"confirmed"`
	Review     *services.ReviewResult `json:"review"`
	ArchivedAs string                 `json:"archived_as,omitempty"`
}

// CommitResponse reports a persisted record.
type CommitResponse struct {
	Record *db.IdentityRecord     `json:"record"`
	Review *services.ReviewResult `json:"review"`
}

// RecordListResponse is one page of committed records.
type RecordListResponse struct {
	Records    []db.IdentityRecord `json:"records"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
}
