package data

import (
	"errors"
	"sync/atomic"

	"github.com/commonsdao/fundbot/src/types"
	"gorm.io/gorm"
)

// Store is the persistence surface the bot components work against:
// entity writes, collection membership and the transaction history, plus
// the process-wide recovery flag that gates transaction acceptance while
// state is being replayed from the database.
type Store struct {
	db       *gorm.DB
	recovery atomic.Bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetBalance returns the author's free funding balance, or nil when the
// author has no record yet.
func (s *Store) GetBalance(author string) (*types.FreeBalance, error) {
	var balance types.FreeBalance
	err := s.db.Where("author = ?", author).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *Store) Add(value any) error {
	return s.db.Create(value).Error
}

func (s *Store) Save(value any) error {
	return s.db.Save(value).Error
}

// Delete removes an entity; proposal deletes cascade to the voters and
// finance recipients rows through the schema constraints.
func (s *Store) Delete(value any) error {
	return s.db.Delete(value).Error
}

// Append adds value to the named association of model, keeping the row and
// the owning collection consistent.
func (s *Store) Append(model any, association string, value any) error {
	return s.db.Model(model).Association(association).Append(value)
}

// Remove detaches value from the named association of model.
func (s *Store) Remove(model any, association string, value any) error {
	return s.db.Model(model).Association(association).Delete(value)
}

func (s *Store) AddHistoryItem(tx *types.FreeTransaction) error {
	return s.db.Create(tx).Error
}

// IsRecovery reports whether startup recovery is replaying state; new
// transactions are rejected while it is set.
func (s *Store) IsRecovery() bool {
	return s.recovery.Load()
}

func (s *Store) SetRecovery(active bool) {
	s.recovery.Store(active)
}
