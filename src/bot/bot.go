package bot

import (
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/commonsdao/fundbot/src/components/grant"
	"github.com/commonsdao/fundbot/src/components/proposal"
	"github.com/commonsdao/fundbot/src/components/transact"
	"github.com/commonsdao/fundbot/src/config"
	"github.com/commonsdao/fundbot/src/data"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Bot wires the Discord session to the free funding and proposal
// components.
type Bot struct {
	session  *discordgo.Session
	db       *gorm.DB
	store    *data.Store
	registry *proposal.Registry
	transact *transact.Handler
	config   config.Config
}

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}

	store := data.NewStore(db)
	registry := proposal.NewRegistry()
	notifier := grant.NewNotifier(dg, cfg.GrantChannelID, cfg.CommandPrefix, cfg.GrantApplyCommand)

	b := &Bot{
		session:  dg,
		db:       db,
		store:    store,
		registry: registry,
		config:   cfg,
		transact: transact.NewHandler(transact.Config{
			Store:              store,
			Notifier:           notifier,
			Redis:              rdb,
			GuildID:            cfg.GuildID,
			CommandPrefix:      cfg.CommandPrefix,
			TransactCommand:    cfg.TransactCommand,
			ResetCommand:       cfg.ResetCommand,
			PayerRoleIDs:       cfg.PayerRoleIDs,
			ResponsibleMention: cfg.ResponsibleMention,
			SeasonLimit:        cfg.SeasonLimit,
			PauseFlagFile:      cfg.PauseFlagFile,
			Environment:        cfg.Environment,
		}),
	}

	dg.AddHandler(b.handleReady)
	dg.AddHandler(b.transact.HandleMessage)
	dg.AddHandler(b.transact.HandleReset)

	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuilds

	return b, nil
}

// Registry exposes the active proposal registry to the voting features.
func (b *Bot) Registry() *proposal.Registry {
	return b.registry
}

// Store exposes the persistence layer shared by all components.
func (b *Bot) Store() *data.Store {
	return b.store
}

func (b *Bot) Start() error {
	return b.session.Open()
}

func (b *Bot) Stop() {
	b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s", event.User.Username)

	// Refill the registry from the database; transactions are rejected
	// while the recovery flag is up.
	if err := proposal.Restore(b.db, b.store, b.registry); err != nil {
		log.Printf("CRITICAL: failed to restore proposals: %v", err)
	}
}
