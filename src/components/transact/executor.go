package transact

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/commonsdao/fundbot/src/components/grant"
	"github.com/commonsdao/fundbot/src/data"
	"github.com/commonsdao/fundbot/src/types"
)

// sendTransaction runs a validated command through the order-sensitive
// transaction sequence: resolve balance, validate, debit, notify the grant
// channel, record history, acknowledge.
//
// The debit is persisted before the grant notification on purpose. If the
// notification fails after the debit, the database holds a known reduced
// balance and a human can reconcile; the reverse order would leave an
// applied grant nothing can roll back. Two overlapping commands from the
// same author are not serialized against each other; the balance
// read-debit window is a known race.
func (h *Handler) sendTransaction(s Session, m *discordgo.MessageCreate, mentions []string, amount float64, description string) error {
	author := m.Author.Mention()

	// Roles were already checked before this point. Resolve the balance,
	// creating it at the season limit on the author's first transaction.
	balance, err := h.config.Store.GetBalance(author)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	if balance == nil {
		balance = &types.FreeBalance{Author: author, Balance: h.config.SeasonLimit}
		if err := h.config.Store.Add(balance); err != nil {
			return fmt.Errorf("create balance: %w", err)
		}
		log.Printf("Added free funding balance for author=%s", author)
	}

	ok, reason := h.config.Validator.Validate(balance, mentions, amount, description)
	if !ok {
		if reason != "" {
			s.ChannelMessageSendReply(m.ChannelID, reason, m.Reference())
		}
		s.MessageReactionAdd(m.ChannelID, m.ID, reactionFailed)
		return nil
	}

	total := amount * float64(len(mentions))

	// Debit first. See the ordering note above.
	balance.Balance -= total
	if err := h.config.Store.Save(balance); err != nil {
		return fmt.Errorf("save balance: %w", err)
	}

	err = h.config.Notifier.Apply(grant.Request{
		Author:      author,
		Mentions:    mentions,
		Amount:      formatAmount(amount),
		Description: description,
		Balance:     formatAmount(balance.Balance),
		JumpURL:     jumpURL(h.config.GuildID, m.ChannelID, m.ID),
	})
	if err != nil {
		s.ChannelMessageSend(m.ChannelID, "Could not apply grant. cc "+h.config.ResponsibleMention)
		log.Printf("CRITICAL: an error occurred while sending grant message, message_id=%s: %v", m.ID, err)
		// The debit already happened but the grant may not have reached the
		// downstream channel; propagate instead of recording history for a
		// transaction that may not exist.
		return fmt.Errorf("apply grant: %w", err)
	}

	tx := &types.FreeTransaction{
		Author:      author,
		Mentions:    strings.Join(mentions, " "),
		Amount:      total,
		Description: description,
		SubmittedAt: time.Now(),
	}
	if err := h.config.Store.AddHistoryItem(tx); err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	if h.config.Redis != nil {
		if err := data.PublishTransaction(context.Background(), h.config.Redis, tx); err != nil {
			log.Printf("Failed to publish transaction to stream: %v", err)
		}
	}

	s.MessageReactionAdd(m.ChannelID, m.ID, reactionSucceeded)
	log.Printf("Successfully sent free funding. author=%s, remaining balance=%s, total_sum=%s, mentions=%v, message_id=%s",
		author, formatAmount(balance.Balance), formatAmount(total), mentions, m.ID)
	return nil
}

func jumpURL(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// formatAmount prints an amount without trailing zeros.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
