package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/commonsdao/fundbot/src/data"
	"gorm.io/gorm"
)

// Season allowance granted to every author on first use.
const DefaultSeasonLimit = 500

type Config struct {
	Token              string
	GuildID            string
	CommandPrefix      string
	TransactCommand    string
	ResetCommand       string
	PayerRoleIDs       []string
	GrantChannelID     string
	GrantApplyCommand  string
	ResponsibleMention string
	SeasonLimit        float64
	PauseFlagFile      string
	Environment        string
	MySQLDSN           string
	RedisURL           string
}

// Load reads configuration from the settings table with environment
// fallbacks.
func Load(db *gorm.DB) Config {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	seasonLimit := float64(DefaultSeasonLimit)
	if v := setting("season_limit", "SEASON_LIMIT"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			seasonLimit = parsed
		} else {
			log.Printf("Invalid season_limit %q, using default %v", v, seasonLimit)
		}
	}

	var payerRoles []string
	if v := setting("payer_role_ids", "PAYER_ROLE_IDS"); v != "" {
		payerRoles = strings.Fields(v)
	}

	return Config{
		Token:              setting("discord_token", "DISCORD_TOKEN"),
		GuildID:            setting("guild_id", "GUILD_ID"),
		CommandPrefix:      withDefault(setting("command_prefix", "COMMAND_PREFIX"), "!"),
		TransactCommand:    withDefault(setting("transact_command", "TRANSACT_COMMAND"), "tips"),
		ResetCommand:       withDefault(setting("reset_command", "RESET_COMMAND"), "reset-tips"),
		PayerRoleIDs:       payerRoles,
		GrantChannelID:     setting("grant_channel_id", "GRANT_CHANNEL_ID"),
		GrantApplyCommand:  withDefault(setting("grant_apply_command", "GRANT_APPLY_COMMAND"), "grant"),
		ResponsibleMention: setting("responsible_mention", "RESPONSIBLE_MENTION"),
		SeasonLimit:        seasonLimit,
		PauseFlagFile:      withDefault(setting("pause_flag_file", "PAUSE_FLAG_FILE"), "stop_free_funding"),
		Environment:        withDefault(setting("environment", "SERVER_ENVIRONMENT"), "prod"),
		MySQLDSN:           getenv("MYSQL_DSN", "fundbot:fundbot@tcp(127.0.0.1:3306)/fundbot"),
		RedisURL:           getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
	}
}

func setting(name, envKey string) string {
	if v := data.GetSetting(name); v != "" {
		return v
	}
	return os.Getenv(envKey)
}

func withDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
