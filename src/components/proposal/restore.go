package proposal

import (
	"log"

	"github.com/commonsdao/fundbot/src/types"
	"gorm.io/gorm"
)

// RecoveryStore exposes the recovery flag raised while persisted state is
// replayed into the registry.
type RecoveryStore interface {
	SetRecovery(active bool)
}

// Restore reloads every persisted proposal, with voters and finance
// recipients, into the registry. Runs at startup before the bot accepts
// commands; the recovery flag rejects transactions until the replay is
// done.
func Restore(db *gorm.DB, store RecoveryStore, registry *Registry) error {
	store.SetRecovery(true)
	defer store.SetRecovery(false)

	var proposals []types.Proposal
	err := db.Preload("Voters").Preload("FinanceRecipients").Find(&proposals).Error
	if err != nil {
		return err
	}

	for i := range proposals {
		if err := registry.Insert(&proposals[i]); err != nil {
			log.Printf("CRITICAL: skipping malformed persisted proposal voting_message_id=%d: %v",
				proposals[i].VotingMessageID, err)
			continue
		}
	}

	log.Printf("Restored %d active proposals from DB", registry.Count())
	return nil
}
