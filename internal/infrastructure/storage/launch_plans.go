package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"WineScout/internal/domain"
	"WineScout/internal/ports"
)

// LaunchPlanStore serves release bulletins.
type LaunchPlanStore struct {
	db *sql.DB
}

var _ ports.LaunchPlanRepository = (*LaunchPlanStore)(nil)

// NewLaunchPlanStore wires a sql.DB implementation.
func NewLaunchPlanStore(db *sql.DB) *LaunchPlanStore {
	return &LaunchPlanStore{db: db}
}

// ListLaunchPlans returns plans, optionally restricted to one year.
func (s *LaunchPlanStore) ListLaunchPlans(ctx context.Context, year int) ([]domain.LaunchPlan, error) {
	if s.db == nil {
		return nil, nil
	}

	builder := psql.Select("id", "title", "plan_date", "plan_year",
		"plan_quarter", "source_url", "created_at").
		From("launch_plans").
		OrderBy("plan_date ASC")
	if year > 0 {
		builder = builder.Where(sq.Eq{"plan_year": year})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query launch plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.LaunchPlan
	for rows.Next() {
		var plan domain.LaunchPlan
		if err := rows.Scan(&plan.ID, &plan.Title, &plan.Date, &plan.Year,
			&plan.Quarter, &plan.SourceURL, &plan.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan launch plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return plans, nil
}

// SaveLaunchPlan inserts one bulletin row.
func (s *LaunchPlanStore) SaveLaunchPlan(ctx context.Context, plan domain.LaunchPlan) error {
	if s.db == nil {
		return nil
	}

	query, args, err := psql.Insert("launch_plans").
		Columns("title", "plan_date", "plan_year", "plan_quarter", "source_url").
		Values(plan.Title, plan.Date, plan.Year, plan.Quarter, plan.SourceURL).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save launch plan: %w", err)
	}
	return nil
}
