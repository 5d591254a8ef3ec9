package idparse

import "regexp"

// Labelled field patterns, applied to the raw observation text. Each captures
// the candidate value in group 1.
var (
	namePattern        = regexp.MustCompile(`(?im)NAME\n([A-Z ,\-']*)$`)
	idNumberPattern    = regexp.MustCompile(`(?i)\b([STFG]\d{7}[A-Z])\b`)
	nationalityPattern = regexp.MustCompile(`(?im)(?:NATIONALITY|COUNTRY[\w ]*)\n([A-Z ]*)$`)
	dobPattern         = regexp.MustCompile(`(?i)\b((?:0[1-9]|[12][0-9]|3[01])[- /.](?:0[1-9]|1[012]|JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)[- /.](?:19|20)\d\d)\b`)
	genderPattern      = regexp.MustCompile(`(?im)(?:SEX|GENDER)\s([FM]|FEMALE|MALE)$`)
	addressPattern     = regexp.MustCompile(`(?i)\b((?:APT|BLK|BLOCK|\d{1,4}[A-Z]? )[\s\S]+(?:SINGAPORE \d{6}))\b`)
)

var fieldPatterns = [...]*regexp.Regexp{
	FieldName:        namePattern,
	FieldIDNumber:    idNumberPattern,
	FieldNationality: nationalityPattern,
	FieldDateOfBirth: dobPattern,
	FieldGender:      genderPattern,
	FieldAddress:     addressPattern,
}

// Extract returns the first candidate for field k found in text.
func Extract(k FieldKind, text string) (string, bool) {
	if int(k) < 0 || int(k) >= len(fieldPatterns) {
		return "", false
	}
	m := fieldPatterns[k].FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
