package proposal

import "github.com/commonsdao/fundbot/src/types"

// VoterMatch is the result of a voter lookup. Callers branch on the
// cardinality: none, exactly one, or duplicates.
type VoterMatch struct {
	voters []*types.Voter
}

// None reports that no voter matched.
func (m VoterMatch) None() bool {
	return len(m.voters) == 0
}

// Unique returns the single matching voter when exactly one matched.
func (m VoterMatch) Unique() (*types.Voter, bool) {
	if len(m.voters) == 1 {
		return m.voters[0], true
	}
	return nil, false
}

// Duplicates reports more than one match, which violates the
// (user, voting message) uniqueness invariant.
func (m VoterMatch) Duplicates() bool {
	return len(m.voters) > 1
}

// All returns every match, for logging duplicate entries.
func (m VoterMatch) All() []*types.Voter {
	return m.voters
}
