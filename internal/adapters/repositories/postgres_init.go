package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// InitSchema creates the Postgres tables used by the service.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createScenariosQuery := `
	CREATE TABLE IF NOT EXISTS scenarios (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		input_data JSONB NOT NULL,
		optimization_results JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	`

	createScenariosIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_scenarios_updated_at
	ON scenarios(updated_at DESC);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		query TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	statements := []string{
		createScenariosQuery,
		createScenariosIndexQuery,
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// ScenarioSeed is one entry of a seed file.
type ScenarioSeed struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	InputData   domain.InputDocument `yaml:"input_data"`
}

type seedFile struct {
	Scenarios []ScenarioSeed `yaml:"scenarios"`
}

// SeedScenariosFromYAML stores the scenarios of a YAML seed file. Scenarios
// whose name already exists are skipped. It returns how many were created.
func SeedScenariosFromYAML(ctx context.Context, repo ports.ScenarioRepository, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("seed scenarios: read %q: %w", path, err)
	}

	var data seedFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return 0, fmt.Errorf("seed scenarios: parse yaml: %w", err)
	}

	existing, err := repo.ListScenarios(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed scenarios: %w", err)
	}
	names := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		names[s.Name] = struct{}{}
	}

	created := 0
	for i, seed := range data.Scenarios {
		name := strings.TrimSpace(seed.Name)
		if name == "" {
			return created, fmt.Errorf("seed scenarios: entry %d: name cannot be empty", i+1)
		}
		if _, ok := names[name]; ok {
			continue
		}

		now := time.Now().UTC()
		sc := &domain.Scenario{
			ID:          uuid.NewString(),
			Name:        name,
			Description: seed.Description,
			InputData:   seed.InputData,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.CreateScenario(ctx, sc); err != nil {
			return created, fmt.Errorf("seed scenarios: create %q: %w", name, err)
		}
		names[name] = struct{}{}
		created++
	}

	return created, nil
}
