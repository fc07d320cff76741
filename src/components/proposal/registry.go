package proposal

import (
	"errors"
	"log"
	"sync"

	"github.com/commonsdao/fundbot/src/types"
)

// Store is the slice of the persistence layer the registry needs. The
// concrete implementation lives in src/data.
type Store interface {
	Add(value any) error
	Delete(value any) error
	Append(model any, association string, value any) error
	Remove(model any, association string, value any) error
}

// Registry holds the active governance proposals, keyed by the id of their
// voting message. Discord handlers run on separate goroutines, so every
// access goes through the mutex; the map is never handed out.
type Registry struct {
	mu     sync.RWMutex
	active map[uint64]*types.Proposal
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[uint64]*types.Proposal)}
}

func validateGrantless(p *types.Proposal) error {
	switch {
	case p.MessageID == 0:
		return &ValidationError{Field: "message_id", Reason: "is missing"}
	case p.ChannelID == 0:
		return &ValidationError{Field: "channel_id", Reason: "is missing"}
	case p.AuthorID == "":
		return &ValidationError{Field: "author_id", Reason: "is missing"}
	case p.VotingMessageID == 0:
		return &ValidationError{Field: "voting_message_id", Reason: "is missing"}
	case p.Description == "":
		return &ValidationError{Field: "description", Reason: "is missing"}
	case p.SubmittedAt.IsZero():
		return &ValidationError{Field: "submitted_at", Reason: "is missing"}
	case p.ClosedAt.IsZero():
		return &ValidationError{Field: "closed_at", Reason: "is missing"}
	case p.BotResponseMessageID == 0:
		return &ValidationError{Field: "bot_response_message_id", Reason: "is missing"}
	case p.ThresholdNegative == 0:
		return &ValidationError{Field: "threshold_negative", Reason: "is missing"}
	}
	return nil
}

func validateFinancial(p *types.Proposal) error {
	// Same requirements as a grantless proposal, plus the grant recipients.
	if err := validateGrantless(p); err != nil {
		return err
	}
	if p.FinanceRecipients == nil {
		return &ValidationError{Field: "finance_recipients", Reason: "is missing on a financial proposal"}
	}
	return nil
}

// Insert validates the proposal for its variant and adds it to the
// registry. It does not touch the database; startup recovery uses exactly
// this path when replaying persisted proposals.
func (r *Registry) Insert(p *types.Proposal) error {
	var err error
	if p.Financial {
		err = validateFinancial(p)
	} else {
		err = validateGrantless(p)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.active[p.VotingMessageID] = p
	r.mu.Unlock()

	log.Printf("Added proposal with voting_message_id=%d", p.VotingMessageID)
	return nil
}

// InsertAndPersist adds the proposal to the registry and writes it to the
// durable store.
func (r *Registry) InsertAndPersist(p *types.Proposal, store Store) error {
	if store == nil {
		return errors.New("no store given for persistent insert")
	}
	if err := r.Insert(p); err != nil {
		return err
	}
	if err := store.Add(p); err != nil {
		return err
	}
	log.Printf("Inserted proposal into DB: voting_message_id=%d", p.VotingMessageID)
	return nil
}

// Get returns the active proposal for a voting message id.
func (r *Registry) Get(votingMessageID uint64) (*types.Proposal, error) {
	r.mu.RLock()
	p, ok := r.active[votingMessageID]
	r.mu.RUnlock()
	if !ok {
		log.Printf("CRITICAL: unable to get proposal %d - not in the list of active proposals", votingMessageID)
		return nil, ErrNotFound
	}
	return p, nil
}

// FindByOrigin returns the proposal whose original message or whose bot
// response message has the given id, or nil. Covers users reacting on the
// wrong message.
func (r *Registry) FindByOrigin(messageID uint64) *types.Proposal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.active {
		if p.MessageID == messageID || p.BotResponseMessageID == messageID {
			return p
		}
	}
	return nil
}

// IsActive reports whether a voting message id belongs to an active
// proposal.
func (r *Registry) IsActive(votingMessageID uint64) bool {
	r.mu.RLock()
	_, ok := r.active[votingMessageID]
	r.mu.RUnlock()
	return ok
}

// Count returns the number of active proposals.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// Remove deletes the proposal from the durable store and then drops it
// from the registry. The store delete cascades to the voter rows and must
// succeed first, so a storage failure leaves the registry consistent with
// the database.
func (r *Registry) Remove(votingMessageID uint64, store Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.active[votingMessageID]
	if !ok {
		log.Printf("CRITICAL: unable to remove proposal %d - not in the list of active proposals", votingMessageID)
		return ErrNotFound
	}

	log.Printf("Removing proposal voting_message_id=%d", votingMessageID)
	if err := store.Delete(p); err != nil {
		return err
	}
	delete(r.active, votingMessageID)
	return nil
}

// AddVoter records a vote: the voter row is written first, then attached
// to the proposal's voter collection. Both writes must land to keep the
// collection and the voters table consistent.
func (r *Registry) AddVoter(p *types.Proposal, v *types.Voter, store Store) error {
	if err := store.Add(v); err != nil {
		return err
	}
	return store.Append(p, "Voters", v)
}

// RemoveVoter detaches the voter from the proposal's collection and then
// deletes the row.
func (r *Registry) RemoveVoter(p *types.Proposal, v *types.Voter, store Store) error {
	if err := store.Remove(p, "Voters", v); err != nil {
		return err
	}
	return store.Delete(v)
}

// MatchVoters collects every voter across active proposals matching the
// user and voting message ids. Zero matches means the user has not voted,
// one is the normal case, and more than one is a data integrity error the
// caller must surface.
func (r *Registry) MatchVoters(userID, votingMessageID uint64) VoterMatch {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []*types.Voter
	for _, p := range r.active {
		for i := range p.Voters {
			v := &p.Voters[i]
			if v.UserID == userID && v.VotingMessageID == votingMessageID {
				found = append(found, v)
			}
		}
	}
	return VoterMatch{voters: found}
}

// VotersWithVote filters the proposal's voters by vote value.
func (r *Registry) VotersWithVote(p *types.Proposal, value int) []*types.Voter {
	var voters []*types.Voter
	for i := range p.Voters {
		if p.Voters[i].Value == value {
			voters = append(voters, &p.Voters[i])
		}
	}
	return voters
}
