package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/obs"
	"fmt"
)

// Postgres-backed implementation of the ScenarioRepository port.
// Documents are stored as JSONB.
type PostgresScenarioRepository struct{ DB *sql.DB }

func NewPostgresScenarioRepository(db *sql.DB) *PostgresScenarioRepository {
	return &PostgresScenarioRepository{DB: db}
}

const scenarioColumns = `id, name, description, input_data, optimization_results, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (*domain.Scenario, error) {
	var (
		s       domain.Scenario
		input   []byte
		results []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &input, &results, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(input, &s.InputData); err != nil {
		return nil, fmt.Errorf("decode input_data of %s: %w", s.ID, err)
	}
	if len(results) > 0 {
		s.OptimizationResults = &domain.OptimizationResult{}
		if err := json.Unmarshal(results, s.OptimizationResults); err != nil {
			return nil, fmt.Errorf("decode optimization_results of %s: %w", s.ID, err)
		}
	}
	return &s, nil
}

// encodeDocuments returns the JSON columns; results is nil for a scenario never optimized.
func encodeDocuments(s *domain.Scenario) (input string, results *string, err error) {
	raw, err := json.Marshal(s.InputData)
	if err != nil {
		return "", nil, fmt.Errorf("encode input_data: %w", err)
	}
	if s.OptimizationResults == nil {
		return string(raw), nil, nil
	}
	res, err := json.Marshal(s.OptimizationResults)
	if err != nil {
		return "", nil, fmt.Errorf("encode optimization_results: %w", err)
	}
	out := string(res)
	return string(raw), &out, nil
}

func (p *PostgresScenarioRepository) ListScenarios(ctx context.Context) (_ []*domain.Scenario, err error) {
	defer obs.Time(ctx, "scenarios.List")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres scenario repository: DB is nil")
	}

	rows, err := p.DB.QueryContext(ctx, `
	SELECT `+scenarioColumns+`
	FROM scenarios
	ORDER BY updated_at DESC, id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: query scenarios table: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Scenario, 0, 16)
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("list scenarios: scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scenarios: row iteration: %w", err)
	}

	return out, nil
}

func (p *PostgresScenarioRepository) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	if p.DB == nil {
		return nil, errors.New("postgres scenario repository: DB is nil")
	}

	row := p.DB.QueryRowContext(ctx, `
	SELECT `+scenarioColumns+`
	FROM scenarios
	WHERE id::text = $1;
	`, id)

	s, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get scenario %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get scenario %s: %w", id, err)
	}
	return s, nil
}

func (p *PostgresScenarioRepository) CreateScenario(ctx context.Context, s *domain.Scenario) (err error) {
	defer obs.Time(ctx, "scenarios.Create")(&err)

	if p.DB == nil {
		return errors.New("postgres scenario repository: DB is nil")
	}

	input, results, err := encodeDocuments(s)
	if err != nil {
		return fmt.Errorf("create scenario: %w", err)
	}

	_, err = p.DB.ExecContext(ctx, `
	INSERT INTO scenarios (`+scenarioColumns+`)
	VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7);
	`, s.ID, s.Name, s.Description, input, results, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create scenario %s: %w", s.ID, err)
	}
	return nil
}

func (p *PostgresScenarioRepository) UpdateScenario(ctx context.Context, s *domain.Scenario) (err error) {
	defer obs.Time(ctx, "scenarios.Update")(&err)

	if p.DB == nil {
		return errors.New("postgres scenario repository: DB is nil")
	}

	input, results, err := encodeDocuments(s)
	if err != nil {
		return fmt.Errorf("update scenario: %w", err)
	}

	res, err := p.DB.ExecContext(ctx, `
	UPDATE scenarios
	SET name = $2,
		description = $3,
		input_data = $4::jsonb,
		optimization_results = $5::jsonb,
		updated_at = $6
	WHERE id::text = $1;
	`, s.ID, s.Name, s.Description, input, results, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update scenario %s: %w", s.ID, err)
	}
	return expectOneRow(res, "update scenario", s.ID)
}

func (p *PostgresScenarioRepository) DeleteScenario(ctx context.Context, id string) error {
	if p.DB == nil {
		return errors.New("postgres scenario repository: DB is nil")
	}

	res, err := p.DB.ExecContext(ctx, `DELETE FROM scenarios WHERE id::text = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete scenario %s: %w", id, err)
	}
	return expectOneRow(res, "delete scenario", id)
}

func expectOneRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}
