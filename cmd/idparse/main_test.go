package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
)

const cardText = `IDENTITY CARD NO. S8512345I
NAME
JOHN TAN
DATE OF BIRTH
15-03-1985
SEX M
COUNTRY OF BIRTH
SINGAPORE
BLK 123 ANG MO KIO AVE 3
SINGAPORE 560123`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func decodeResult(t *testing.T, out string) parseResult {
	t.Helper()
	var res parseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	return res
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(cardText), 0o600))
		paths = append(paths, p)
	}

	out, err := execute(t, "", append([]string{"parse", "--year", "2026"}, paths...)...)
	require.NoError(t, err)

	res := decodeResult(t, out)
	assert.Equal(t, 3, res.Observations)
	assert.True(t, res.FullyConfident)
	assert.Equal(t, "JOHN TAN", res.Record.Name.Value)
	assert.Equal(t, "S8512345I", res.Record.IDNumber.Value)
	assert.Equal(t, "SINGAPOREAN", res.Record.Nationality.Value)
	assert.Equal(t, "BLK 123 ANG MO KIO AVE 3\nSINGAPORE 560123", res.Record.Address.Value)
	assert.True(t, res.Review.Complete)
	assert.Empty(t, res.Review.Errors)
}

func TestParseStdinSingleObservation(t *testing.T) {
	out, err := execute(t, cardText, "parse", "--output", "code")
	require.NoError(t, err)

	res := decodeResult(t, out)
	assert.Equal(t, 1, res.Observations)
	assert.False(t, res.FullyConfident)
	assert.Equal(t, "SGP", res.Record.Nationality.Value)
	assert.True(t, res.Record.IDNumber.Confident)
	assert.False(t, res.Record.Name.Confident)
	assert.True(t, res.Review.NeedsReview)
}

func TestParseStdinSplit(t *testing.T) {
	input := strings.Join([]string{cardText, cardText, cardText}, "\n---\n")
	out, err := execute(t, input, "parse", "--split", "---", "-")
	require.NoError(t, err)

	res := decodeResult(t, out)
	assert.Equal(t, 3, res.Observations)
	assert.True(t, res.FullyConfident)
}

func TestParseErrors(t *testing.T) {
	_, err := execute(t, "", "parse", "--output", "flag")
	assert.Error(t, err)

	_, err = execute(t, "", "parse", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = execute(t, "", "parse", "--table", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSplitObservations(t *testing.T) {
	assert.Equal(t, []string{"a\nb"}, splitObservations("a\nb", ""))
	assert.Equal(t, []string{"a", "b"}, splitObservations("a\r\n--\r\nb", "--"))
	assert.Equal(t, []string{"a"}, splitObservations("--\na\n--\n\n--", "--"))
}

func TestTableCommand(t *testing.T) {
	out, err := execute(t, "", "table")
	require.NoError(t, err)

	var rows []idparse.Nationality
	require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	assert.Equal(t, "SGP", rows[0].Code)

	out, err = execute(t, "", "table", "--json")
	require.NoError(t, err)
	var jsonRows []idparse.Nationality
	require.NoError(t, json.Unmarshal([]byte(out), &jsonRows))
	assert.Equal(t, rows, jsonRows)
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "s3cret-pass\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))

	_, err = execute(t, "\n", "hash-password")
	assert.Error(t, err)
}
