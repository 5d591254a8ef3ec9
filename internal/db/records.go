package db

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
)

// ErrRecordNotFound is returned when no record has the requested id.
var ErrRecordNotFound = errors.New("record not found")

// IdentityRecord is a committed identity record.
type IdentityRecord struct {
	ID              uuid.UUID  `json:"id"`
	SessionID       *uuid.UUID `json:"session_id,omitempty"`
	Name            string     `json:"name"`
	IDNumber        string     `json:"id_number"`
	Nationality     string     `json:"nationality"`
	DateOfBirth     string     `json:"date_of_birth"`
	Gender          string     `json:"gender"`
	Address         string     `json:"address"`
	ConfidentFields []string   `json:"confident_fields"`
	FullyConfident  bool       `json:"fully_confident"`
	Observations    int        `json:"observations"`
	CreatedBy       string     `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewIdentityRecord flattens rec for storage.
func NewIdentityRecord(rec *idparse.Record) *IdentityRecord {
	confident := make([]string, 0, len(idparse.Fields))
	for _, k := range rec.ConfidentFields() {
		confident = append(confident, k.String())
	}
	return &IdentityRecord{
		Name:            rec.Name.Value,
		IDNumber:        rec.IDNumber.Value,
		Nationality:     rec.Nationality.Value,
		DateOfBirth:     rec.DateOfBirth.Value,
		Gender:          rec.Gender.Value,
		Address:         rec.Address.Value,
		ConfidentFields: confident,
		FullyConfident:  rec.FullyConfident(),
	}
}

// Record rebuilds the field-level view of r.
func (r *IdentityRecord) Record() idparse.Record {
	confident := make(map[string]bool, len(r.ConfidentFields))
	for _, name := range r.ConfidentFields {
		confident[name] = true
	}
	field := func(k idparse.FieldKind, v string) idparse.Field {
		return idparse.Field{Value: v, Confident: confident[k.String()]}
	}
	return idparse.Record{
		Name:        field(idparse.FieldName, r.Name),
		IDNumber:    field(idparse.FieldIDNumber, r.IDNumber),
		Nationality: field(idparse.FieldNationality, r.Nationality),
		DateOfBirth: field(idparse.FieldDateOfBirth, r.DateOfBirth),
		Gender:      field(idparse.FieldGender, r.Gender),
		Address:     field(idparse.FieldAddress, r.Address),
	}
}

// RecordStats summarizes committed records.
type RecordStats struct {
	Total          int `json:"total"`
	FullyConfident int `json:"fully_confident"`
	ThisMonth      int `json:"this_month"`
}

const recordColumns = `id, session_id, name, id_number, nationality, date_of_birth, gender, address,
	confident_fields, fully_confident, observations, created_by, created_at`

func scanRecord(row pgx.Row) (*IdentityRecord, error) {
	var rec IdentityRecord
	err := row.Scan(
		&rec.ID, &rec.SessionID, &rec.Name, &rec.IDNumber, &rec.Nationality,
		&rec.DateOfBirth, &rec.Gender, &rec.Address,
		&rec.ConfidentFields, &rec.FullyConfident, &rec.Observations,
		&rec.CreatedBy, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveRecord inserts rec, assigning its id and creation time.
func SaveRecord(ctx context.Context, rec *IdentityRecord) error {
	if Pool == nil {
		return ErrNoDatabase
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.ConfidentFields == nil {
		rec.ConfidentFields = []string{}
	}

	query := `
		INSERT INTO identity_records (
			id, session_id, name, id_number, nationality, date_of_birth, gender, address,
			confident_fields, fully_confident, observations, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	err := Pool.QueryRow(ctx, query,
		rec.ID, rec.SessionID, rec.Name, rec.IDNumber, rec.Nationality, rec.DateOfBirth,
		rec.Gender, rec.Address, rec.ConfidentFields, rec.FullyConfident, rec.Observations,
		rec.CreatedBy,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to save record")
	}
	return nil
}

// GetRecordsPaginated returns records newest first, optionally restricted to
// one id number, with the total count matching the filter.
func GetRecordsPaginated(ctx context.Context, idNumber string, limit, offset int) ([]IdentityRecord, int, error) {
	if Pool == nil {
		return nil, 0, ErrNoDatabase
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM identity_records WHERE ($1 = '' OR id_number = $1)`
	if err := Pool.QueryRow(ctx, countQuery, idNumber).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count records")
	}

	query := `SELECT ` + recordColumns + `
		FROM identity_records
		WHERE ($1 = '' OR id_number = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := Pool.Query(ctx, query, idNumber, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list records")
	}
	defer rows.Close()

	records := []IdentityRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan record")
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "failed to list records")
	}
	return records, total, nil
}

// GetRecordByID retrieves a single record.
func GetRecordByID(ctx context.Context, id uuid.UUID) (*IdentityRecord, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := `SELECT ` + recordColumns + ` FROM identity_records WHERE id = $1`
	rec, err := scanRecord(Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get record")
	}
	return rec, nil
}

// DeleteRecord removes a record.
func DeleteRecord(ctx context.Context, id uuid.UUID) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	tag, err := Pool.Exec(ctx, `DELETE FROM identity_records WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete record")
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// GetRecordStats counts committed records.
func GetRecordStats(ctx context.Context) (*RecordStats, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := `
		SELECT
		    COUNT(*),
		    COUNT(*) FILTER (WHERE fully_confident),
		    COUNT(*) FILTER (WHERE DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE))
		FROM identity_records
	`
	var stats RecordStats
	if err := Pool.QueryRow(ctx, query).Scan(&stats.Total, &stats.FullyConfident, &stats.ThisMonth); err != nil {
		return nil, errors.Wrap(err, "failed to get record stats")
	}
	return &stats, nil
}
