// Package session keeps one identity parser per document being scanned.
//
// The parser itself is not safe for concurrent use; each session serializes
// access with its own lock so observations for different documents proceed
// in parallel.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
	"github.com/facturaIA/identity-ocr-service/internal/logger"
	"github.com/facturaIA/identity-ocr-service/internal/metrics"
)

// DefaultTTL is how long an idle session survives before the sweeper drops it.
const DefaultTTL = 30 * time.Minute

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Tally is the leading candidate of a voted field.
type Tally struct {
	Leader string `json:"leader"`
	Count  int    `json:"count"`
}

// Snapshot is a copy of a session's state, safe to use after the session
// lock is released.
type Snapshot struct {
	ID             uuid.UUID      `json:"id"`
	Record         idparse.Record `json:"record"`
	FullyConfident bool           `json:"fully_confident"`
	Observations   int            `json:"observations"`
	Sequence       int            `json:"sequence"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	tallies map[idparse.FieldKind]Tally
}

// Votes reports the tally of a voted field as of the snapshot.
func (s *Snapshot) Votes(k idparse.FieldKind) (leader string, count int, ok bool) {
	t, ok := s.tallies[k]
	return t.Leader, t.Count, ok
}

// Observation is the outcome of one observation: the new state and the fields
// that became confident during it.
type Observation struct {
	Snapshot
	Confirmed []idparse.FieldKind `json:"confirmed"`
}

type session struct {
	mu           sync.Mutex
	id           uuid.UUID
	parser       *idparse.Parser
	createdAt    time.Time
	updatedAt    time.Time
	observations int // since the last reset
	sequence     int // since creation
}

// snapshot must be called with s.mu held.
func (s *session) snapshot() Snapshot {
	rec := s.parser.Record()
	snap := Snapshot{
		ID:             s.id,
		Record:         *rec,
		FullyConfident: rec.FullyConfident(),
		Observations:   s.observations,
		Sequence:       s.sequence,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
		tallies:        make(map[idparse.FieldKind]Tally, 2),
	}
	for _, k := range idparse.Fields {
		if leader, count, ok := s.parser.Votes(k); ok {
			snap.tallies[k] = Tally{Leader: leader, Count: count}
		}
	}
	return snap
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the store logger. Parsers log through it too.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables metric reporting.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds the open sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	parserCfg idparse.Config
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewStore returns an empty store whose sessions parse with cfg. A ttl of
// zero selects DefaultTTL.
func NewStore(cfg idparse.Config, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		sessions:  make(map[uuid.UUID]*session),
		parserCfg: cfg,
		ttl:       ttl,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new session with an empty record.
func (s *Store) Create() Snapshot {
	id := uuid.New()
	now := s.now()
	sess := &session{
		id:        id,
		createdAt: now,
		updatedAt: now,
		parser: idparse.New(s.parserCfg,
			idparse.WithLogger(s.logger.With(zap.String(logger.FieldSessionID, id.String())))),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.reportActive(n)
	s.logger.Info("session created", zap.String(logger.FieldSessionID, id.String()))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot()
}

// Get returns the current state of session id.
func (s *Store) Get(id uuid.UUID) (Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// Observe feeds one OCR text observation to session id.
func (s *Store) Observe(id uuid.UUID, text string) (Observation, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Observation{}, err
	}
	start := time.Now()

	sess.mu.Lock()
	before := sess.parser.Record().ConfidentFields()
	rec := sess.parser.Process(text)
	sess.observations++
	sess.sequence++
	sess.updatedAt = s.now()
	obs := Observation{
		Snapshot:  sess.snapshot(),
		Confirmed: newlyConfident(before, rec.ConfidentFields()),
	}
	sess.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveObservation(start)
		for _, k := range obs.Confirmed {
			s.metrics.IncrementFieldConfirmed(k.String())
		}
	}
	if len(obs.Confirmed) > 0 {
		s.logger.Info("fields confirmed",
			zap.String(logger.FieldSessionID, id.String()),
			zap.Int(logger.FieldCount, len(obs.Confirmed)),
			zap.Bool("fully_confident", obs.FullyConfident))
	}
	return obs, nil
}

// Reset clears the record and vote history of session id so the next
// observation starts a new document. The sequence keeps counting.
func (s *Store) Reset(id uuid.UUID) (Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.parser.Reset()
	sess.observations = 0
	sess.updatedAt = s.now()
	return sess.snapshot(), nil
}

// Delete closes session id.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.reportActive(n)
	return nil
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepAt removes sessions idle for longer than the TTL as of now and
// returns their final state.
func (s *Store) SweepAt(now time.Time) []Snapshot {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	var expired []Snapshot
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if sess.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, sess.snapshot())
		}
		sess.mu.Unlock()
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if len(expired) > 0 {
		s.reportActive(n)
		if s.metrics != nil {
			s.metrics.AddSessionsExpired(len(expired))
		}
		s.logger.Info("idle sessions expired", zap.Int(logger.FieldCount, len(expired)))
	}
	return expired
}

// Run sweeps idle sessions every interval until ctx is cancelled. onExpire,
// if not nil, receives the sessions removed by each sweep.
func (s *Store) Run(ctx context.Context, interval time.Duration, onExpire func([]Snapshot)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if expired := s.SweepAt(s.now()); len(expired) > 0 && onExpire != nil {
				onExpire(expired)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Store) lookup(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *Store) reportActive(n int) {
	if s.metrics != nil {
		s.metrics.SetActiveSessions(n)
	}
}

func newlyConfident(before, after []idparse.FieldKind) []idparse.FieldKind {
	had := make(map[idparse.FieldKind]bool, len(before))
	for _, k := range before {
		had[k] = true
	}
	var out []idparse.FieldKind
	for _, k := range after {
		if !had[k] {
			out = append(out, k)
		}
	}
	return out
}
