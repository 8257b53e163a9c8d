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

// CampaignStorage implements interfaces.CampaignStorage on Badger.
type CampaignStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCampaignStorage creates a new CampaignStorage instance
func NewCampaignStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CampaignStorage {
	return &CampaignStorage{db: db, logger: logger}
}

func (s *CampaignStorage) SaveCampaign(ctx context.Context, campaign *models.QueuedCampaign) error {
	if campaign.ID == "" {
		return fmt.Errorf("campaign ID is required")
	}

	if err := s.db.Store().Upsert(campaign.ID, *campaign); err != nil {
		return fmt.Errorf("failed to save campaign %s: %w", campaign.ID, err)
	}

	s.logger.Trace().
		Str("campaign_id", campaign.ID).
		Str("status", string(campaign.Status)).
		Msg("Campaign saved")
	return nil
}

func (s *CampaignStorage) GetCampaign(ctx context.Context, id string) (*models.QueuedCampaign, error) {
	var campaign models.QueuedCampaign
	if err := s.db.Store().Get(id, &campaign); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get campaign %s: %w", id, err)
	}
	return &campaign, nil
}

func (s *CampaignStorage) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, models.QueuedCampaign{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to delete campaign %s: %w", id, err)
	}
	return nil
}

func (s *CampaignStorage) ListCampaigns(ctx context.Context) ([]*models.QueuedCampaign, error) {
	var campaigns []models.QueuedCampaign
	if err := s.db.Store().Find(&campaigns, nil); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return toPointers(campaigns), nil
}

func (s *CampaignStorage) ListCampaignsByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.QueuedCampaign, error) {
	var campaigns []models.QueuedCampaign
	query := badgerhold.Where("Status").Eq(status).Index("Status")
	if err := s.db.Store().Find(&campaigns, query); err != nil {
		return nil, fmt.Errorf("failed to list campaigns by status %s: %w", status, err)
	}
	return toPointers(campaigns), nil
}

func (s *CampaignStorage) Ping(ctx context.Context) error {
	return s.db.Ping()
}

func toPointers(campaigns []models.QueuedCampaign) []*models.QueuedCampaign {
	result := make([]*models.QueuedCampaign, len(campaigns))
	for i := range campaigns {
		result[i] = &campaigns[i]
	}
	return result
}
