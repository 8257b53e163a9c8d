package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/models"
)

const seedYAML = `owner_id: marketing
priority: high
campaign:
  name: product-launch
  target_url: https://example.com/launch
  keywords:
    - release automation
  daily_limit: 5
  total_links_target: 25
  strategies:
    - type: blog-comment
      enabled: true
      quality_threshold: 60
`

func writeSeed(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadSeedDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "01-launch.yaml", seedYAML)
	writeSeed(t, dir, "ignore.txt", "not yaml")

	defs, err := LoadSeedDefinitions(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	assert.Equal(t, "marketing", defs[0].OwnerID)
	assert.Equal(t, models.PriorityHigh, defs[0].Priority)
	assert.Equal(t, "product-launch", defs[0].Campaign.Name)
	assert.Len(t, defs[0].Campaign.Strategies, 1)
}

func TestLoadSeedDefinitionsMissingDir(t *testing.T) {
	defs, err := LoadSeedDefinitions(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestLoadSeedDefinitionsDefaultsOwner(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "a.yml", "campaign:\n  name: bare\n")

	defs, err := LoadSeedDefinitions(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "seed", defs[0].OwnerID)
}

func TestEnqueueSeedsSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "01-launch.yaml", seedYAML)

	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, manager.EnqueueSeeds(ctx, dir))
	campaigns, err := store.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "marketing", campaigns[0].OwnerID)

	// Second pass is a no-op: same owner and name.
	require.NoError(t, manager.EnqueueSeeds(ctx, dir))
	campaigns, err = store.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
}

func TestEnqueueSeedsSkipsInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "bad.yaml", "campaign:\n  name: broken\n")
	writeSeed(t, dir, "good.yaml", seedYAML)

	store := newMemCampaignStore()
	resolver := resolverWith(&noopHandler{strategyType: models.StrategyBlogComment})
	manager := NewQueueManager(testConfig(0, 1), store, nil, nil, resolver, nil, arbor.NewLogger())

	require.NoError(t, manager.EnqueueSeeds(context.Background(), dir))
	campaigns, err := store.ListCampaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "product-launch", campaigns[0].Config.Name)
}
