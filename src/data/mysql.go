package data

import (
	"log"

	"github.com/commonsdao/fundbot/src/types"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate creates or updates the schema for all bot tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Setting{},
		&types.FreeBalance{},
		&types.FreeTransaction{},
		&types.Proposal{},
		&types.Voter{},
		&types.FinanceRecipient{},
	)
}
