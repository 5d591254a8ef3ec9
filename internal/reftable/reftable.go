// Package reftable loads the ordered nationality reference table used by the
// nationality matcher.
package reftable

import (
	_ "embed"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
)

//go:embed nationalities.yaml
var defaultTable []byte

// Default returns the built-in table. The embedded data is validated by tests,
// so a decode failure here is a build defect.
func Default() []idparse.Nationality {
	table, err := Parse(defaultTable)
	if err != nil {
		panic(errors.Wrap(err, "reftable: embedded table"))
	}
	return table
}

// Load reads a YAML table from path. An empty path yields the default table.
func Load(path string) ([]idparse.Nationality, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading nationality table %s", path)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing nationality table %s", path)
	}
	return table, nil
}

// Parse decodes a YAML sequence of {nationality, country, code} rows. Values
// are upper-cased and trimmed; row order is preserved.
func Parse(data []byte) ([]idparse.Nationality, error) {
	var rows []idparse.Nationality
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	if len(rows) == 0 {
		return nil, errors.New("table is empty")
	}

	seen := make(map[string]int, len(rows))
	for i := range rows {
		r := &rows[i]
		r.Nationality = normalize(r.Nationality)
		r.Country = normalize(r.Country)
		r.Code = normalize(r.Code)

		if r.Nationality == "" || r.Country == "" {
			return nil, errors.Newf("row %d: nationality and country are required", i+1)
		}
		if len(r.Code) != 3 {
			return nil, errors.Newf("row %d: code %q is not alpha-3", i+1, r.Code)
		}
		if prev, dup := seen[r.Code]; dup {
			return nil, errors.Newf("row %d: code %s already used by row %d", i+1, r.Code, prev)
		}
		seen[r.Code] = i + 1
	}
	return rows, nil
}

// Collision is a pair of rows whose names are close enough that text naming
// the Later row can resolve to the Earlier one.
type Collision struct {
	Earlier, Later int
	A, B           string
	Score          float64
}

// Collisions reports every pair of rows whose nationality or country names
// score above idparse.SimilarityThreshold against each other. A table with
// collisions still works, but matches for the later row are not reliable.
func Collisions(table []idparse.Nationality) []Collision {
	var out []Collision
	for i := range table {
		for j := i + 1; j < len(table); j++ {
			for _, a := range []string{table[i].Nationality, table[i].Country} {
				for _, b := range []string{table[j].Nationality, table[j].Country} {
					if score := idparse.Similarity(a, b); score > idparse.SimilarityThreshold {
						out = append(out, Collision{Earlier: i, Later: j, A: a, B: b, Score: score})
					}
				}
			}
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
