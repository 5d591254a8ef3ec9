// Package idparse extracts identity fields from OCR text of identity documents.
//
// A [Parser] is fed one text observation at a time (one OCR attempt, frame or
// page of the same physical document) and accumulates evidence into a running
// [Record]. Each of the six fields carries a value and a confidence flag. A flag
// is only set once the value passed the field's own validation rule:
//
//   - Name, address: frequency voting. The same candidate must be observed
//     [DefaultMinVotes] times.
//   - ID number: NRIC/FIN mod-11 check letter, or the passport document number
//     check digit when read from the machine-readable zone.
//   - Nationality: exact alpha-3 code or Jaro-Winkler similarity above
//     [SimilarityThreshold] against the reference table.
//   - Date of birth: MRZ check digit, or plausibility against the era encoded
//     in the ID number.
//   - Gender: accepted on first observation of a labelled value or MRZ sex field.
//
// A passport MRZ block, when present, is processed before the per-field
// patterns and may confirm up to five fields in a single call.
//
// Confident fields are never overwritten or downgraded. Call [Parser.Reset] to
// start a new document.
//
// A Parser is not safe for concurrent use. Callers that share one between
// goroutines must serialize access.
//
// Known limitations:
//
//   - Only the TD3 (passport, 2x44) MRZ layout is recognized.
//   - Address detection is tuned for Singapore addresses ending in a six-digit
//     postal code.
//   - Document authenticity is not checked beyond checksum arithmetic.
package idparse
