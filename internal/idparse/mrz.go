package idparse

import (
	"regexp"
	"strings"
)

// MRZLineLength is the width of each line of a TD3 (passport) MRZ.
const MRZLineLength = 44

var (
	// mrzPattern matches the two lines of a passport MRZ after blanks are removed.
	mrzPattern = regexp.MustCompile(`\b(P[A-Z0-9<]{43})\n([A-Z0-9<]{44})\b`)

	mrzFiller = regexp.MustCompile(`[\s<]+`)

	blankStripper = strings.NewReplacer(" ", "", "\t", "", "\r", "")
)

// MRZ holds the fields read from a passport machine-readable zone. A field is
// left empty when its check digit failed (document number, date of birth) or
// its value is not allowed (sex).
type MRZ struct {
	Name           string
	DocumentNumber string
	Nationality    string // raw alpha-3 code as printed
	DateOfBirth    string // YYMMDD
	Sex            string // "M" or "F"
}

// ParseMRZ locates a TD3 MRZ block in text and decodes it. Blanks inside the
// text are ignored, line breaks are not.
func ParseMRZ(text string) (MRZ, bool) {
	m := mrzPattern.FindStringSubmatch(blankStripper.Replace(text))
	if m == nil {
		return MRZ{}, false
	}
	line1, line2 := m[1], m[2]

	out := MRZ{
		Name:        strings.TrimSpace(mrzFiller.ReplaceAllString(line1[5:], " ")),
		Nationality: line2[10:13],
	}
	if docNo := line2[0:9]; ValidMRZCheckDigit(docNo, line2[9]) {
		out.DocumentNumber = docNo
	}
	if dob := line2[13:19]; ValidMRZCheckDigit(dob, line2[19]) {
		out.DateOfBirth = dob
	}
	if sex := line2[20:21]; sex == "M" || sex == "F" {
		out.Sex = sex
	}
	return out, true
}
