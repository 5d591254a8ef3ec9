package idparse

// Voting defaults for name and address.
const (
	DefaultMaxCandidates = 6
	DefaultMinVotes      = 3
)

// minCandidateLen is the shortest candidate admitted to an Accumulator.
const minCandidateLen = 4

// Accumulator counts how often each candidate string was observed and elects
// the most frequent one. It keeps a bounded number of distinct candidates.
//
// Candidates are kept in first-seen order so that ties between counts are
// broken deterministically in favour of the earliest candidate.
type Accumulator struct {
	maxCandidates int
	minVotes      int
	keys          []string
	counts        map[string]int
}

// NewAccumulator returns an accumulator holding about maxCandidates distinct
// candidates, confident once a candidate reaches minVotes observations.
func NewAccumulator(maxCandidates, minVotes int) *Accumulator {
	return &Accumulator{
		maxCandidates: maxCandidates,
		minVotes:      minVotes,
		counts:        make(map[string]int),
	}
}

// Add records one observation of candidate. Candidates of three characters or
// fewer are ignored. When more than maxCandidates candidates are already held,
// the one with the lowest count is evicted first.
func (a *Accumulator) Add(candidate string) {
	if len(candidate) < minCandidateLen {
		return
	}
	if len(a.keys) > a.maxCandidates {
		a.remove(a.Lowest())
	}
	if _, ok := a.counts[candidate]; !ok {
		a.keys = append(a.keys, candidate)
	}
	a.counts[candidate]++
}

// Highest returns the candidate with the most observations, or "" when empty.
func (a *Accumulator) Highest() string {
	best, top := "", 0
	for _, k := range a.keys {
		if c := a.counts[k]; c > top {
			best, top = k, c
		}
	}
	return best
}

// Lowest returns the candidate with the fewest observations, or "" when empty.
func (a *Accumulator) Lowest() string {
	worst, low := "", 0
	for i, k := range a.keys {
		if c := a.counts[k]; i == 0 || c < low {
			worst, low = k, c
		}
	}
	return worst
}

// Confident returns the most frequent candidate if it reached the vote
// threshold.
func (a *Accumulator) Confident() (string, bool) {
	best := a.Highest()
	if best == "" || a.counts[best] < a.minVotes {
		return "", false
	}
	return best, true
}

// Count returns the number of observations of candidate.
func (a *Accumulator) Count(candidate string) int {
	return a.counts[candidate]
}

// Len returns the number of distinct candidates held.
func (a *Accumulator) Len() int {
	return len(a.keys)
}

// Reset discards all candidates.
func (a *Accumulator) Reset() {
	a.keys = a.keys[:0]
	clear(a.counts)
}

func (a *Accumulator) remove(candidate string) {
	if _, ok := a.counts[candidate]; !ok {
		return
	}
	delete(a.counts, candidate)
	for i, k := range a.keys {
		if k == candidate {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}
