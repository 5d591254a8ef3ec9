package idparse

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config configures a Parser.
type Config struct {
	// CurrentYear anchors the adult-age check for FIN holders. Zero means the
	// current calendar year at construction time.
	CurrentYear int

	// Nationalities is the ordered reference table.
	Nationalities []Nationality

	// Output selects the reported representation of a matched nationality.
	Output OutputMode
}

// Option customizes a Parser.
type Option func(*Parser)

// WithLogger sets the logger used to report field confirmations.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser accumulates identity fields across repeated text observations of one
// document.
type Parser struct {
	nationality *NationalityMatcher
	dob         *DOBValidator
	names       *Accumulator
	addresses   *Accumulator
	record      *Record
	logger      *zap.Logger
}

// New returns a Parser with an empty record.
func New(cfg Config, opts ...Option) *Parser {
	year := cfg.CurrentYear
	if year == 0 {
		year = time.Now().Year()
	}
	p := &Parser{
		nationality: NewNationalityMatcher(cfg.Nationalities, cfg.Output),
		dob:         NewDOBValidator(year),
		names:       NewAccumulator(DefaultMaxCandidates, DefaultMinVotes),
		addresses:   NewAccumulator(DefaultMaxCandidates, DefaultMinVotes),
		record:      &Record{},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Record returns the running record.
func (p *Parser) Record() *Record {
	return p.record
}

// Process applies one text observation and returns the running record. The
// returned pointer is the parser's own record, updated in place by later calls.
func (p *Parser) Process(text string) *Record {
	if mrz, ok := ParseMRZ(text); ok {
		p.applyMRZ(mrz)
	}

	for _, k := range Fields {
		if p.record.Field(k).Confident {
			continue
		}
		candidate, ok := Extract(k, text)
		if !ok {
			continue
		}
		value, confident := p.confirm(k, candidate)
		if value == "" && !confident {
			continue
		}
		p.update(k, value, confident)
	}
	return p.record
}

// Reset starts a new document: the record and every vote accumulator are
// cleared.
func (p *Parser) Reset() {
	p.record = &Record{}
	p.names.Reset()
	p.addresses.Reset()
}

// Votes reports the leading candidate and its vote count for a voted field
// (name or address). ok is false for every other field.
func (p *Parser) Votes(k FieldKind) (leader string, count int, ok bool) {
	var acc *Accumulator
	switch k {
	case FieldName:
		acc = p.names
	case FieldAddress:
		acc = p.addresses
	default:
		return "", 0, false
	}
	leader = acc.Highest()
	return leader, acc.Count(leader), true
}

func (p *Parser) applyMRZ(m MRZ) {
	if m.Name != "" {
		p.update(FieldName, m.Name, true)
	}
	if m.DocumentNumber != "" {
		p.update(FieldIDNumber, m.DocumentNumber, true)
	}
	if m.DateOfBirth != "" {
		p.update(FieldDateOfBirth, m.DateOfBirth, true)
	}
	if m.Sex != "" {
		p.update(FieldGender, m.Sex, true)
	}
	if v, ok := p.nationality.Match(m.Nationality); ok {
		p.update(FieldNationality, v, true)
	} else {
		p.update(FieldNationality, m.Nationality, false)
	}
}

// confirm routes a pattern match through the validation rule of field k and
// returns the value to display with its confidence.
func (p *Parser) confirm(k FieldKind, candidate string) (string, bool) {
	switch k {
	case FieldName:
		return vote(p.names, candidate)
	case FieldAddress:
		return vote(p.addresses, candidate)
	case FieldIDNumber:
		id := strings.ToUpper(candidate)
		return id, ValidNRIC(id)
	case FieldNationality:
		if v, ok := p.nationality.Match(candidate); ok {
			return v, true
		}
		return candidate, false
	case FieldDateOfBirth:
		return candidate, p.dob.Plausible(candidate, p.record.IDNumber.Value)
	case FieldGender:
		return normalizeGender(candidate), true
	}
	return "", false
}

func (p *Parser) update(k FieldKind, value string, confident bool) {
	if p.record.set(k, value, confident) {
		p.logger.Debug("field confirmed", zap.Stringer("field", k))
	}
}

// vote offers candidate to acc and returns the current leader and whether it
// reached the vote threshold.
func vote(acc *Accumulator, candidate string) (string, bool) {
	acc.Add(candidate)
	if v, ok := acc.Confident(); ok {
		return v, true
	}
	return acc.Highest(), false
}

func normalizeGender(s string) string {
	switch strings.ToUpper(s) {
	case "M", "MALE":
		return "M"
	case "F", "FEMALE":
		return "F"
	}
	return strings.ToUpper(s)
}
