package scheduler

import (
	"math"
	"time"

	"github.com/linkforge/linkforge/internal/models"
)

const millisPerDay = 86_400_000

// EstimateDuration computes the expected runtime for a campaign config.
//
// baseDays is the link target spread over the daily limit. Strategy
// complexity grows with the share of enabled strategies and their average
// quality threshold; the multiplier scales base duration by up to 50%
// per unit of complexity.
func EstimateDuration(config *models.CampaignConfig) time.Duration {
	dailyLimit := config.DailyLimit
	if dailyLimit <= 0 {
		dailyLimit = 1
	}
	baseDays := math.Ceil(float64(config.TotalLinksTarget) / float64(dailyLimit))

	complexity := strategyComplexity(config)
	multiplier := 1 + complexity*0.5

	millis := math.Ceil(baseDays * multiplier * millisPerDay)
	return time.Duration(millis) * time.Millisecond
}

// strategyComplexity returns enabledCount/8 + avgQualityThreshold/200
// across the enabled strategies.
func strategyComplexity(config *models.CampaignConfig) float64 {
	enabled := config.EnabledStrategies()
	if len(enabled) == 0 {
		return 0
	}

	thresholdSum := 0
	for _, s := range enabled {
		thresholdSum += s.QualityThreshold
	}
	avgThreshold := float64(thresholdSum) / float64(len(enabled))

	return float64(len(enabled))/float64(len(models.AllStrategyTypes)) + avgThreshold/200
}
