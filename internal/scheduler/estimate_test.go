package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linkforge/linkforge/internal/models"
)

func TestEstimateDuration(t *testing.T) {
	config := &models.CampaignConfig{
		TotalLinksTarget: 100,
		DailyLimit:       20,
		Strategies: []models.StrategyConfig{
			{Type: models.StrategyBlogComment, Enabled: true, QualityThreshold: 50},
			{Type: models.StrategyGuestPost, Enabled: true, QualityThreshold: 70},
			{Type: models.StrategyBrokenLink, Enabled: false, QualityThreshold: 90},
		},
	}

	// 5 base days, complexity 2/8 + 60/200 = 0.55, multiplier 1.275.
	got := EstimateDuration(config)
	assert.Equal(t, 550_800_000*time.Millisecond, got)
}

func TestEstimateDurationPartialDay(t *testing.T) {
	config := &models.CampaignConfig{
		TotalLinksTarget: 21,
		DailyLimit:       20,
		Strategies: []models.StrategyConfig{
			{Type: models.StrategyBlogComment, Enabled: true, QualityThreshold: 0},
		},
	}

	// 21/20 rounds up to 2 base days.
	got := EstimateDuration(config)
	want := time.Duration(2*1.0625*millisPerDay) * time.Millisecond
	assert.Equal(t, want, got)
}

func TestEstimateDurationZeroDailyLimit(t *testing.T) {
	config := &models.CampaignConfig{
		TotalLinksTarget: 3,
		DailyLimit:       0,
		Strategies: []models.StrategyConfig{
			{Type: models.StrategyBlogComment, Enabled: true},
		},
	}

	// Daily limit clamps to 1 instead of dividing by zero.
	got := EstimateDuration(config)
	assert.Greater(t, got, 2*24*time.Hour)
}

func TestStrategyComplexityNoEnabled(t *testing.T) {
	config := &models.CampaignConfig{
		Strategies: []models.StrategyConfig{
			{Type: models.StrategyBlogComment, Enabled: false, QualityThreshold: 100},
		},
	}
	assert.Zero(t, strategyComplexity(config))
}
