package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
)

type fixedVotes map[idparse.FieldKind]int

func (f fixedVotes) Votes(k idparse.FieldKind) (string, int, bool) {
	n, ok := f[k]
	return "", n, ok
}

func confirmedRecord() idparse.Record {
	return idparse.Record{
		Name:        idparse.Field{Value: "JOHN TAN", Confident: true},
		IDNumber:    idparse.Field{Value: "S8512345I", Confident: true},
		Nationality: idparse.Field{Value: "SINGAPOREAN", Confident: true},
		DateOfBirth: idparse.Field{Value: "15-03-1985", Confident: true},
		Gender:      idparse.Field{Value: "M", Confident: true},
		Address:     idparse.Field{Value: "BLK 123 ANG MO KIO AVE 3 SINGAPORE 560123", Confident: true},
	}
}

func TestReviewComplete(t *testing.T) {
	rec := confirmedRecord()
	result := NewRecordReviewer().Review(&rec, nil)

	assert.True(t, result.Complete)
	assert.False(t, result.NeedsReview)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestReviewEmptyRecord(t *testing.T) {
	result := NewRecordReviewer().Review(&idparse.Record{}, nil)

	assert.False(t, result.Complete)
	assert.False(t, result.NeedsReview)
	require.Len(t, result.Errors, len(idparse.Fields))
	for i, k := range idparse.Fields {
		assert.Equal(t, k.String(), result.Errors[i].Field)
		assert.Equal(t, CodeMissingField, result.Errors[i].Code)
	}
}

func TestReviewWarnings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*idparse.Record)
		votes   VoteSource
		field   string
		code    string
		message string
	}{
		{
			name:    "checksum",
			mutate:  func(r *idparse.Record) { r.IDNumber = idparse.Field{Value: "S1234567A"} },
			field:   "id_number",
			code:    CodeIDChecksumFailed,
			message: "check letter should be D",
		},
		{
			name:   "not an nric",
			mutate: func(r *idparse.Record) { r.IDNumber = idparse.Field{Value: "X1234567A"} },
			field:  "id_number",
			code:   CodeIDFormatInvalid,
		},
		{
			name:   "unknown nationality",
			mutate: func(r *idparse.Record) { r.Nationality = idparse.Field{Value: "ATLANTIS"} },
			field:  "nationality",
			code:   CodeNationalityUnmatched,
		},
		{
			name:    "implausible dob",
			mutate:  func(r *idparse.Record) { r.DateOfBirth = idparse.Field{Value: "15-03-1990"} },
			field:   "date_of_birth",
			code:    CodeDOBImplausible,
			message: "birth year inconsistent with id number S8512345I",
		},
		{
			name:    "name votes",
			mutate:  func(r *idparse.Record) { r.Name.Confident = false },
			votes:   fixedVotes{idparse.FieldName: 2, idparse.FieldAddress: 3},
			field:   "name",
			code:    CodeVotesPending,
			message: "2 of 3 readings agree",
		},
		{
			name:    "address without tally",
			mutate:  func(r *idparse.Record) { r.Address.Confident = false },
			field:   "address",
			code:    CodeVotesPending,
			message: "waiting for repeated readings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := confirmedRecord()
			tt.mutate(&rec)
			result := NewRecordReviewer().Review(&rec, tt.votes)

			assert.False(t, result.Complete)
			assert.True(t, result.NeedsReview)
			assert.Empty(t, result.Errors)
			require.Len(t, result.Warnings, 1)
			w := result.Warnings[0]
			assert.Equal(t, tt.field, w.Field)
			assert.Equal(t, tt.code, w.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, w.Message)
			}
		})
	}
}

func TestReviewWithParser(t *testing.T) {
	p := idparse.New(idparse.Config{CurrentYear: 2025})
	p.Process("NAME\nJOHN TAN")

	result := NewRecordReviewer().Review(p.Record(), p)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "1 of 3 readings agree", result.Warnings[0].Message)
	assert.Len(t, result.Errors, 5)
}
