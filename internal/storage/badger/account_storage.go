package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// AccountStorage implements interfaces.AccountStorage on Badger.
type AccountStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAccountStorage creates a new AccountStorage instance
func NewAccountStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AccountStorage {
	return &AccountStorage{db: db, logger: logger}
}

func (s *AccountStorage) SaveAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		return fmt.Errorf("account ID is required")
	}
	if err := s.db.Store().Upsert(account.ID, *account); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

func (s *AccountStorage) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Store().Get(id, &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return &account, nil
}

func (s *AccountStorage) FindAccount(ctx context.Context, platform models.Platform) (*models.Account, error) {
	var accounts []models.Account
	query := badgerhold.Where("Platform").Eq(platform).Index("Platform")
	if err := s.db.Store().Find(&accounts, query); err != nil {
		return nil, fmt.Errorf("failed to find account for platform %s: %w", platform, err)
	}
	if len(accounts) == 0 {
		return nil, interfaces.ErrNotFound
	}

	// Prefer the most recently used account
	best := &accounts[0]
	for i := 1; i < len(accounts); i++ {
		a := &accounts[i]
		if a.LastUsedAt != nil && (best.LastUsedAt == nil || a.LastUsedAt.After(*best.LastUsedAt)) {
			best = a
		}
	}
	return best, nil
}

func (s *AccountStorage) ListUnverifiedAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []models.Account
	query := badgerhold.Where("Verified").Eq(false)
	if err := s.db.Store().Find(&accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list unverified accounts: %w", err)
	}

	result := make([]*models.Account, len(accounts))
	for i := range accounts {
		result[i] = &accounts[i]
	}
	return result, nil
}
