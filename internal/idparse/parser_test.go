package idparse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const idCardText = `REPUBLIC OF SINGAPORE
IDENTITY CARD NO. S8512345I
NAME
JOHN TAN
RACE
CHINESE
DATE OF BIRTH
15-03-1985
SEX M
COUNTRY OF BIRTH
SINGAPORE
BLK 123 ANG MO KIO AVE 3
#01-234
SINGAPORE 560123`

func newTestParser(opts ...Option) *Parser {
	return New(Config{CurrentYear: 2025, Nationalities: testTable, Output: OutputNationality}, opts...)
}

func TestParserPassportSingleCall(t *testing.T) {
	p := newTestParser()
	rec := p.Process("REPUBLIC OF SINGAPORE\n" +
		passportMRZ("P<SGPTAN<<JOHN<WEI", "E1234567A4SGP9001158M3001010"))

	assert.Equal(t, Field{"TAN JOHN WEI", true}, rec.Name)
	assert.Equal(t, Field{"E1234567A", true}, rec.IDNumber)
	assert.Equal(t, Field{"SINGAPOREAN", true}, rec.Nationality)
	assert.Equal(t, Field{"900115", true}, rec.DateOfBirth)
	assert.Equal(t, Field{"M", true}, rec.Gender)
	assert.Equal(t, Field{}, rec.Address)
	assert.False(t, rec.FullyConfident())
}

func TestParserPassportUnknownNationality(t *testing.T) {
	p := newTestParser()
	rec := p.Process(specimenLine1 + "\n" + specimenLine2)

	assert.Equal(t, Field{"ERIKSSON ANNA MARIA", true}, rec.Name)
	assert.Equal(t, Field{"L898902C3", true}, rec.IDNumber)
	assert.Equal(t, Field{"740812", true}, rec.DateOfBirth)
	assert.Equal(t, Field{"F", true}, rec.Gender)
	assert.Equal(t, Field{"UTO", false}, rec.Nationality)
}

func TestParserPassportChecksumFailureDropsValue(t *testing.T) {
	line2 := []byte(specimenLine2)
	line2[9] = '7'

	rec := newTestParser().Process(specimenLine1 + "\n" + string(line2))
	assert.Equal(t, Field{}, rec.IDNumber)
	assert.True(t, rec.DateOfBirth.Confident)
}

func TestParserPlainTextVoting(t *testing.T) {
	p := newTestParser()
	obs := "NAME\nJOHN TAN\nSEX M"

	rec := p.Process(obs)
	assert.Equal(t, Field{"JOHN TAN", false}, rec.Name)
	assert.Equal(t, Field{"M", true}, rec.Gender, "gender needs no votes")

	rec = p.Process(obs)
	assert.False(t, rec.Name.Confident)

	rec = p.Process(obs)
	assert.Equal(t, Field{"JOHN TAN", true}, rec.Name)
	assert.Equal(t, Field{}, rec.IDNumber)
	assert.Equal(t, Field{}, rec.Nationality)
	assert.Equal(t, Field{}, rec.DateOfBirth)
	assert.Equal(t, Field{}, rec.Address)
}

func TestParserIdentityCard(t *testing.T) {
	p := newTestParser()

	rec := p.Process(idCardText)
	assert.Equal(t, Field{"S8512345I", true}, rec.IDNumber)
	assert.Equal(t, Field{"SINGAPOREAN", true}, rec.Nationality)
	assert.Equal(t, Field{"15-03-1985", true}, rec.DateOfBirth)
	assert.Equal(t, Field{"M", true}, rec.Gender)
	assert.Equal(t, Field{"JOHN TAN", false}, rec.Name)
	assert.Equal(t, "BLK 123 ANG MO KIO AVE 3\n#01-234\nSINGAPORE 560123", rec.Address.Value)
	assert.False(t, rec.Address.Confident)

	p.Process(idCardText)
	rec = p.Process(idCardText)
	assert.True(t, rec.Name.Confident)
	assert.True(t, rec.Address.Confident)
	assert.True(t, rec.FullyConfident())
}

func TestParserKeepsUnconfirmedBestGuess(t *testing.T) {
	p := newTestParser()
	rec := p.Process("S1234567A\nNATIONALITY\nATLANTIS\nDOB 15/03/1985\nGENDER FEMALE")

	assert.Equal(t, Field{"S1234567A", false}, rec.IDNumber)
	assert.Equal(t, Field{"ATLANTIS", false}, rec.Nationality)
	assert.Equal(t, Field{"15/03/1985", false}, rec.DateOfBirth)
	assert.Equal(t, Field{"F", true}, rec.Gender)
}

func TestParserLowercaseIDNumber(t *testing.T) {
	rec := newTestParser().Process("fin no f1234567n")
	assert.Equal(t, Field{"F1234567N", true}, rec.IDNumber)
}

func TestParserFINDateOfBirth(t *testing.T) {
	p := newTestParser()
	rec := p.Process("G1234567X\n01 JAN 2010")
	assert.False(t, rec.DateOfBirth.Confident, "minor with a FIN")

	rec = p.Process("01 JAN 1990")
	assert.Equal(t, Field{"01 JAN 1990", true}, rec.DateOfBirth)
}

func TestParserNeverDowngrades(t *testing.T) {
	p := newTestParser()
	p.Process(specimenLine1 + "\n" + specimenLine2)
	before := *p.Record()

	contradicting := "NAME\nSOMEONE ELSE\nSEX M\nS1234567D\n01/01/1950\nNATIONALITY\nMALAYSIAN"
	for i := 0; i < 4; i++ {
		p.Process(contradicting)
	}
	rec := p.Record()

	assert.Equal(t, before.Name, rec.Name)
	assert.Equal(t, before.IDNumber, rec.IDNumber)
	assert.Equal(t, before.DateOfBirth, rec.DateOfBirth)
	assert.Equal(t, before.Gender, rec.Gender)
	assert.Equal(t, Field{"MALAYSIAN", true}, rec.Nationality, "unconfirmed fields still improve")
}

func TestParserReturnsLiveRecord(t *testing.T) {
	p := newTestParser()
	first := p.Process("SEX F")
	second := p.Process("NAME\nJANE LIM")
	assert.Same(t, first, second)
	assert.Same(t, p.Record(), second)
	assert.Equal(t, "JANE LIM", first.Name.Value)
}

func TestParserReset(t *testing.T) {
	p := newTestParser()
	for i := 0; i < 3; i++ {
		p.Process(idCardText)
	}
	require.True(t, p.Record().FullyConfident())

	p.Reset()
	assert.Equal(t, Record{}, *p.Record())

	rec := p.Process("NAME\nJOHN TAN")
	assert.Equal(t, Field{"JOHN TAN", false}, rec.Name, "votes do not carry across documents")
}

func TestParserVotes(t *testing.T) {
	p := newTestParser()
	p.Process("NAME\nJOHN TAN")
	p.Process("NAME\nJOHN TAN")

	leader, count, ok := p.Votes(FieldName)
	require.True(t, ok)
	assert.Equal(t, "JOHN TAN", leader)
	assert.Equal(t, 2, count)

	leader, count, ok = p.Votes(FieldAddress)
	require.True(t, ok)
	assert.Empty(t, leader)
	assert.Zero(t, count)

	_, _, ok = p.Votes(FieldGender)
	assert.False(t, ok)
}

func TestParserOutputMode(t *testing.T) {
	p := New(Config{CurrentYear: 2025, Nationalities: testTable, Output: OutputCode})
	rec := p.Process("NATIONALITY\nMALAYSIAN")
	assert.Equal(t, Field{"MYS", true}, rec.Nationality)
}

func TestParserLogsConfirmations(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := newTestParser(WithLogger(zap.New(core)))

	p.Process("SEX M")
	p.Process("SEX F")

	entries := logs.FilterMessage("field confirmed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gender", entries[0].ContextMap()["field"])
}

func TestRecordJSON(t *testing.T) {
	rec := Record{Gender: Field{"M", true}}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": {"value": "", "confident": false},
		"id_number": {"value": "", "confident": false},
		"nationality": {"value": "", "confident": false},
		"date_of_birth": {"value": "", "confident": false},
		"gender": {"value": "M", "confident": true},
		"address": {"value": "", "confident": false}
	}`, string(data))

	kinds, err := json.Marshal(rec.ConfidentFields())
	require.NoError(t, err)
	assert.JSONEq(t, `["gender"]`, string(kinds))

	var k FieldKind
	require.NoError(t, json.Unmarshal([]byte(`"date_of_birth"`), &k))
	assert.Equal(t, FieldDateOfBirth, k)
	assert.Error(t, json.Unmarshal([]byte(`"photo"`), &k))
}
