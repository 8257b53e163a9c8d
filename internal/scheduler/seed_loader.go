package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linkforge/linkforge/internal/models"
)

// SeedDefinition is one campaign definition file. Definitions let operators
// check campaign configs into a directory and have them enqueued at startup.
type SeedDefinition struct {
	OwnerID  string                `yaml:"owner_id"`
	Priority models.Priority       `yaml:"priority"`
	Campaign models.CampaignConfig `yaml:"campaign"`
}

// LoadSeedDefinitions parses every .yaml/.yml file in dir, sorted by file
// name for deterministic enqueue order. A missing directory is not an error.
func LoadSeedDefinitions(dir string) ([]SeedDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read definitions dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var definitions []SeedDefinition
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read definition %s: %w", name, err)
		}

		var def SeedDefinition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse definition %s: %w", name, err)
		}
		if def.OwnerID == "" {
			def.OwnerID = "seed"
		}
		definitions = append(definitions, def)
	}

	return definitions, nil
}

// EnqueueSeeds loads campaign definitions from dir and enqueues any that are
// not already present (matched by campaign name and owner). Invalid
// definitions are logged and skipped; they never abort startup.
func (m *QueueManager) EnqueueSeeds(ctx context.Context, dir string) error {
	if dir == "" {
		return nil
	}

	definitions, err := LoadSeedDefinitions(dir)
	if err != nil {
		return err
	}
	if len(definitions) == 0 {
		return nil
	}

	existing, err := m.campaigns.ListCampaigns(ctx)
	if err != nil {
		return fmt.Errorf("list campaigns: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c.OwnerID+"/"+c.Config.Name] = true
	}

	enqueued := 0
	for _, def := range definitions {
		if seen[def.OwnerID+"/"+def.Campaign.Name] {
			continue
		}
		if _, err := m.Enqueue(ctx, def.Campaign, def.OwnerID, def.Priority); err != nil {
			m.logger.Warn().
				Err(err).
				Str("campaign", def.Campaign.Name).
				Msg("Skipping invalid campaign definition")
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		m.logger.Info().Int("campaigns", enqueued).Str("dir", dir).Msg("Seed campaigns enqueued")
	}
	return nil
}
