package types

import "time"

// Free funding balances, one row per author. Created lazily at the season
// limit on the author's first transaction.
type FreeBalance struct {
	ID        uint64  `gorm:"primaryKey"`
	Author    string  `gorm:"size:64;unique;not null"`
	Balance   float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Free funding transaction history, append-only.
type FreeTransaction struct {
	ID          uint64  `gorm:"primaryKey"`
	Author      string  `gorm:"size:64;not null"`
	Mentions    string  `gorm:"type:text;not null"` // space-separated recipient mentions
	Amount      float64 `gorm:"not null"`           // total across all recipients
	Description string  `gorm:"type:text"`
	SubmittedAt time.Time
}

// Governance proposals. VotingMessageID is the id of the poll message and
// the key the active-proposal registry is indexed by.
type Proposal struct {
	ID                   uint64 `gorm:"primaryKey"`
	MessageID            uint64 `gorm:"not null"`
	ChannelID            uint64 `gorm:"not null"`
	AuthorID             string `gorm:"size:64;not null"`
	VotingMessageID      uint64 `gorm:"uniqueIndex;not null"`
	Description          string `gorm:"type:text"`
	Financial            bool   `gorm:"default:false"`
	SubmittedAt          time.Time
	ClosedAt             time.Time
	BotResponseMessageID uint64
	ThresholdNegative    int
	FinanceRecipients    []FinanceRecipient `gorm:"foreignKey:VotingMessageID;references:VotingMessageID;constraint:OnDelete:CASCADE"`
	Voters               []Voter            `gorm:"foreignKey:VotingMessageID;references:VotingMessageID;constraint:OnDelete:CASCADE"`
}

// Voters of an active proposal. (UserID, VotingMessageID) must be unique;
// duplicates are a data integrity error.
type Voter struct {
	ID              uint64 `gorm:"primaryKey"`
	UserID          uint64 `gorm:"index;not null"`
	VotingMessageID uint64 `gorm:"index;not null"`
	Value           int    `gorm:"not null"`
}

// Recipients of a financial proposal's grant.
type FinanceRecipient struct {
	ID              uint64  `gorm:"primaryKey"`
	VotingMessageID uint64  `gorm:"index;not null"`
	Recipients      string  `gorm:"type:text;not null"` // space-separated mentions
	Amount          float64 `gorm:"not null"`
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}

// Vote values used when filtering a proposal's voters.
const (
	VoteYes = 1
	VoteNo  = -1
)
