package services

import (
	"fmt"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
)

// Review codes.
const (
	CodeMissingField         = "missing_field"
	CodeIDFormatInvalid      = "id_format_invalid"
	CodeIDChecksumFailed     = "id_checksum_failed"
	CodeNationalityUnmatched = "nationality_unmatched"
	CodeDOBImplausible       = "dob_implausible"
	CodeVotesPending         = "votes_pending"
	CodeUnconfirmed          = "unconfirmed"
)

// ReviewError is a field the record cannot be committed without.
type ReviewError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ReviewWarning is a field that holds a value which has not been confirmed.
type ReviewWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReviewResult is the outcome of reviewing a record.
type ReviewResult struct {
	Complete    bool            `json:"complete"`
	NeedsReview bool            `json:"needs_review"`
	Errors      []ReviewError   `json:"errors"`
	Warnings    []ReviewWarning `json:"warnings"`
}

// VoteSource reports the tally of voted fields. *idparse.Parser and
// *session.Snapshot both satisfy it.
type VoteSource interface {
	Votes(k idparse.FieldKind) (leader string, count int, ok bool)
}

// RecordReviewer explains why a record is not yet fully confident so an
// operator knows what to rescan or correct by hand.
type RecordReviewer struct {
	minVotes int
}

// NewRecordReviewer creates a reviewer using the parser's default vote
// threshold.
func NewRecordReviewer() *RecordReviewer {
	return &RecordReviewer{minVotes: idparse.DefaultMinVotes}
}

// Review inspects every field of rec. votes may be nil.
func (v *RecordReviewer) Review(rec *idparse.Record, votes VoteSource) *ReviewResult {
	result := &ReviewResult{
		Errors:   []ReviewError{},
		Warnings: []ReviewWarning{},
	}

	for _, k := range idparse.Fields {
		f := rec.Field(k)
		switch {
		case f.Value == "":
			result.Errors = append(result.Errors, ReviewError{
				Field:   k.String(),
				Code:    CodeMissingField,
				Message: "no candidate found yet",
			})
		case !f.Confident:
			result.Warnings = append(result.Warnings, v.unconfirmed(k, f.Value, rec, votes))
		}
	}

	result.Complete = len(result.Errors) == 0 && rec.FullyConfident()
	result.NeedsReview = len(result.Warnings) > 0
	return result
}

func (v *RecordReviewer) unconfirmed(k idparse.FieldKind, value string, rec *idparse.Record, votes VoteSource) ReviewWarning {
	w := ReviewWarning{Field: k.String(), Code: CodeUnconfirmed, Message: "value not confirmed"}

	switch k {
	case idparse.FieldIDNumber:
		want, ok := idparse.NRICCheckLetter(value)
		if !ok || len(value) != idparse.NRICLength {
			w.Code = CodeIDFormatInvalid
			w.Message = "not a NRIC/FIN number"
			return w
		}
		w.Code = CodeIDChecksumFailed
		w.Message = fmt.Sprintf("check letter should be %c", want)

	case idparse.FieldNationality:
		w.Code = CodeNationalityUnmatched
		w.Message = "no reference nationality or country matches"

	case idparse.FieldDateOfBirth:
		w.Code = CodeDOBImplausible
		if rec.IDNumber.Value == "" {
			w.Message = "no id number to check the birth year against"
		} else {
			w.Message = "birth year inconsistent with id number " + rec.IDNumber.Value
		}

	case idparse.FieldName, idparse.FieldAddress:
		w.Code = CodeVotesPending
		w.Message = "waiting for repeated readings"
		if votes != nil {
			if _, count, ok := votes.Votes(k); ok {
				w.Message = fmt.Sprintf("%d of %d readings agree", count, v.minVotes)
			}
		}
	}
	return w
}
