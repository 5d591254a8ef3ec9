package idparse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xrash/smetrics"
)

// SimilarityThreshold is the Jaro-Winkler score a detected nationality or
// country name must strictly exceed to match a reference entry.
const SimilarityThreshold = 0.86

// Jaro-Winkler parameters: the prefix bonus applies above a Jaro score of 0.7
// and counts at most four leading characters.
const (
	jwBoostThreshold = 0.7
	jwPrefixSize     = 4
)

// Nationality is one row of the reference table.
type Nationality struct {
	Nationality string `json:"nationality" yaml:"nationality"`
	Country     string `json:"country" yaml:"country"`
	Code        string `json:"code" yaml:"code"` // ISO 3166-1 alpha-3
}

// OutputMode selects which column of a matched reference row is reported.
type OutputMode int

const (
	OutputNationality OutputMode = iota // e.g. "SINGAPOREAN"
	OutputCountry                       // e.g. "SINGAPORE"
	OutputCode                          // e.g. "SGP"
)

var outputModeNames = [...]string{
	OutputNationality: "nationality",
	OutputCountry:     "country",
	OutputCode:        "code",
}

// String returns the configuration name of the mode.
func (m OutputMode) String() string {
	if int(m) >= 0 && int(m) < len(outputModeNames) {
		return outputModeNames[m]
	}
	return fmt.Sprintf("OutputMode(%d)", int(m))
}

// ParseOutputMode parses "nationality", "country" or "code" (case-insensitive).
func ParseOutputMode(s string) (OutputMode, error) {
	for i, name := range outputModeNames {
		if strings.EqualFold(s, name) {
			return OutputMode(i), nil
		}
	}
	return 0, errors.Newf("idparse: unknown output mode: %q", s)
}

// MarshalJSON encodes the mode as its name.
func (m OutputMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name.
func (m *OutputMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := ParseOutputMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// UnmarshalYAML decodes a mode name from YAML configuration.
func (m *OutputMode) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	mode, err := ParseOutputMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// NationalityMatcher resolves detected text against a reference table.
type NationalityMatcher struct {
	table []Nationality
	mode  OutputMode
}

// NewNationalityMatcher builds a matcher over table. The table is used as given;
// entries are compared in order and the first match wins.
func NewNationalityMatcher(table []Nationality, mode OutputMode) *NationalityMatcher {
	return &NationalityMatcher{table: table, mode: mode}
}

// Lookup returns the index of the reference row matching detected, or -1.
//
// Resolution order: exact alpha-3 code for three-letter input, then similarity
// against nationality names, then similarity against country names.
func (m *NationalityMatcher) Lookup(detected string) int {
	detected = strings.ToUpper(strings.TrimSpace(detected))
	if detected == "" {
		return -1
	}

	if len(detected) == 3 {
		for i, n := range m.table {
			if detected == n.Code {
				return i
			}
		}
	}
	for i, n := range m.table {
		if Similarity(detected, n.Nationality) > SimilarityThreshold {
			return i
		}
	}
	for i, n := range m.table {
		if Similarity(detected, n.Country) > SimilarityThreshold {
			return i
		}
	}
	return -1
}

// Match resolves detected and returns the configured representation of the
// matching row. ok is false when nothing in the table matches.
func (m *NationalityMatcher) Match(detected string) (value string, ok bool) {
	i := m.Lookup(detected)
	if i < 0 {
		return "", false
	}
	n := m.table[i]
	switch m.mode {
	case OutputCountry:
		return n.Country, true
	case OutputCode:
		return n.Code, true
	default:
		return n.Nationality, true
	}
}

// Similarity is the Jaro-Winkler similarity of a and b in [0, 1].
func Similarity(a, b string) float64 {
	return smetrics.JaroWinkler(a, b, jwBoostThreshold, jwPrefixSize)
}
