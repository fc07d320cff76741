package transact

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/commonsdao/fundbot/src/components/grant"
	"github.com/commonsdao/fundbot/src/types"
	"github.com/redis/go-redis/v9"
)

const (
	reactionSucceeded = "✅" // white heavy check mark
	reactionFailed    = "❌" // cross mark
)

const (
	responseInvalidFormat = "Invalid command format. Use: mention(s), amount, description."
	responsePaused        = "Free funding transactions are paused for now. Please try again later."
	responseRecovery      = "The bot is currently recovering data, transactions are paused. Please try again in a few minutes."
	responseInvalidRole   = "You don't have permission to send free funding."
)

// Store is the slice of the persistence layer the transaction flow uses.
type Store interface {
	GetBalance(author string) (*types.FreeBalance, error)
	Add(value any) error
	Save(value any) error
	AddHistoryItem(tx *types.FreeTransaction) error
	IsRecovery() bool
}

// Session is the slice of the Discord session the handler uses.
type Session interface {
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// Notifier delivers the grant instruction to the downstream channel.
type Notifier interface {
	Apply(req grant.Request) error
}

type Config struct {
	Store              Store
	Notifier           Notifier
	Redis              *redis.Client
	Validator          Validator
	GuildID            string
	CommandPrefix      string
	TransactCommand    string
	ResetCommand       string
	PayerRoleIDs       []string
	ResponsibleMention string
	SeasonLimit        float64
	PauseFlagFile      string
	Environment        string
}

// Handler processes free funding commands.
type Handler struct {
	config Config
}

func NewHandler(config Config) *Handler {
	if config.Validator == nil {
		config.Validator = NewValidator()
	}
	return &Handler{config: config}
}

// HandleMessage is the discordgo entry point for the transaction command.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if firstToken(m.Content) != h.config.CommandPrefix+h.config.TransactCommand {
		return
	}
	h.handle(s, m)
}

// HandleReset is the discordgo entry point for the reset command. It is a
// placeholder outside the production environment.
func (h *Handler) HandleReset(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if firstToken(m.Content) != h.config.CommandPrefix+h.config.ResetCommand {
		return
	}
	h.handleReset(s, m)
}

func (h *Handler) handleReset(s Session, m *discordgo.MessageCreate) {
	if h.config.Environment != "prod" {
		s.MessageReactionAdd(m.ChannelID, m.ID, reactionFailed)
		s.ChannelMessageSendReply(m.ChannelID, "This command isn't available on this server.", m.Reference())
		return
	}
	// TODO: reset individual free funding balances once the season rollover
	// procedure is settled.
}

// handle wraps the whole command sequence in a catch-all boundary: any
// escaped error or panic results in a best-effort apology to the user and
// a critical log, and the bot keeps serving subsequent commands.
func (h *Handler) handle(s Session, m *discordgo.MessageCreate) {
	defer func() {
		if r := recover(); r != nil {
			h.reportFailure(s, m, fmt.Errorf("panic: %v", r), debug.Stack())
		}
	}()

	if err := h.process(s, m); err != nil {
		h.reportFailure(s, m, err, nil)
	}
}

func (h *Handler) reportFailure(s Session, m *discordgo.MessageCreate, err error, stack []byte) {
	// The reply itself may fail (missing permissions, channel gone); that
	// must not mask the log below.
	reply := "An unexpected error occurred during transaction. cc " + h.config.ResponsibleMention
	if _, replyErr := s.ChannelMessageSendReply(m.ChannelID, reply, m.Reference()); replyErr != nil {
		log.Printf("CRITICAL: unable to reply in the chat that a critical error has occurred: %v", replyErr)
	}

	if stack != nil {
		log.Printf("CRITICAL: unexpected error during transaction, channel=%s, message=%s, user=%s: %v\n%s",
			m.ChannelID, m.ID, m.Author.Mention(), err, stack)
		return
	}
	log.Printf("CRITICAL: unexpected error during transaction, channel=%s, message=%s, user=%s: %v",
		m.ChannelID, m.ID, m.Author.Mention(), err)
}

func (h *Handler) process(s Session, m *discordgo.MessageCreate) error {
	log.Printf("Transaction received: %s", m.Content)

	// A reserve mechanism to stop accepting transactions.
	if _, err := os.Stat(h.config.PauseFlagFile); err == nil {
		s.ChannelMessageSendReply(m.ChannelID, responsePaused, m.Reference())
		s.MessageReactionAdd(m.ChannelID, m.ID, reactionFailed)
		log.Printf("Rejecting the transaction from %s because a stopcock file is detected.", m.Author.Mention())
		return nil
	}

	if h.config.Store.IsRecovery() {
		s.ChannelMessageSendReply(m.ChannelID, responseRecovery, m.Reference())
		s.MessageReactionAdd(m.ChannelID, m.ID, reactionFailed)
		log.Printf("Rejecting the transaction from %s because recovery is in progress.", m.Author.Mention())
		return nil
	}

	if !h.hasAllowedRole(s, m.Author.ID) {
		s.ChannelMessageSendReply(m.ChannelID, responseInvalidRole, m.Reference())
		s.MessageReactionAdd(m.ChannelID, m.ID, reactionFailed)
		log.Printf("Unauthorized user. message_id=%s", m.ID)
		return nil
	}

	args := strings.Fields(m.Content)
	if len(args) > 0 {
		args = args[1:]
	}

	// Without arguments the command is a balance inquiry.
	if len(args) == 0 {
		return h.sendBalance(s, m)
	}

	// A mention, an amount and some description are all required, so fewer
	// than 3 args is certainly wrong and not worth running the full match.
	if len(args) < 3 || len(m.Mentions) == 0 {
		return h.rejectMalformed(s, m)
	}

	cmd, err := ParseCommand(h.config.CommandPrefix, m.Content)
	if err != nil {
		if errors.Is(err, ErrMalformedCommand) {
			return h.rejectMalformed(s, m)
		}
		return err
	}

	return h.sendTransaction(s, m, cmd.Mentions, cmd.Amount, cmd.Description)
}

func (h *Handler) rejectMalformed(s Session, m *discordgo.MessageCreate) error {
	s.ChannelMessageSendReply(m.ChannelID, responseInvalidFormat, m.Reference())
	s.MessageReactionAdd(m.ChannelID, m.ID, reactionFailed)
	log.Printf("Invalid command format. message_id=%s, invalid value=%s", m.ID, m.Content)
	return nil
}

func (h *Handler) sendBalance(s Session, m *discordgo.MessageCreate) error {
	balance, err := h.config.Store.GetBalance(m.Author.Mention())
	if err != nil {
		return err
	}

	remaining := h.config.SeasonLimit
	if balance != nil {
		remaining = balance.Balance
	}
	_, err = s.ChannelMessageSendReply(m.ChannelID,
		fmt.Sprintf("Your remaining free funding balance this season is %s.", formatAmount(remaining)),
		m.Reference())
	return err
}

// hasAllowedRole checks the author against the payer role whitelist. An
// empty whitelist allows everyone.
func (h *Handler) hasAllowedRole(s Session, userID string) bool {
	if len(h.config.PayerRoleIDs) == 0 {
		return true
	}

	member, err := s.GuildMember(h.config.GuildID, userID)
	if err != nil {
		log.Printf("Failed to get guild member %s: %v", userID, err)
		return false
	}

	for _, role := range member.Roles {
		for _, allowed := range h.config.PayerRoleIDs {
			if role == allowed {
				return true
			}
		}
	}
	return false
}

func firstToken(content string) string {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
