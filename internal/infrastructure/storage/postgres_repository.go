package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"WineScout/internal/domain"
	"WineScout/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var wineColumns = []string{
	"product_id", "name", "producer", "category", "country", "region",
	"vintage", "alcohol_pct", "price", "currency", "description",
	"image_url", "assortment", "sales_start", "source",
	"investment_score", "projected_return_1y", "projected_return_3y",
	"projected_return_5y", "projected_return_10y", "storage_time_months",
	"drinking_window_start", "drinking_window_end", "value_appreciation",
}

// PostgresRepository persists scored wines into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.WineRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertWines writes one chunk keyed by product_id. On conflict every
// field is overwritten; `xmax = 0` distinguishes fresh inserts from
// updates so the sync run can report both counts.
func (r *PostgresRepository) UpsertWines(ctx context.Context, wines []domain.Wine) (ports.UpsertResult, error) {
	if r.db == nil || len(wines) == 0 {
		return ports.UpsertResult{}, nil
	}

	builder := psql.Insert("wines").Columns(wineColumns...)
	for _, w := range wines {
		builder = builder.Values(
			w.ProductID, w.Name, w.Producer, w.Category, w.Country, w.Region,
			w.Vintage, w.AlcoholPct, w.Price, w.Currency, w.Description,
			w.ImageURL, w.Assortment, w.SalesStart, w.Source,
			w.Metrics.InvestmentScore,
			w.Metrics.ProjectedReturn1Y, w.Metrics.ProjectedReturn3Y,
			w.Metrics.ProjectedReturn5Y, w.Metrics.ProjectedReturn10Y,
			w.Metrics.StorageTimeMonths,
			w.Metrics.DrinkingWindowFrom, w.Metrics.DrinkingWindowTo,
			w.Metrics.ValueAppreciation,
		)
	}

	builder = builder.Suffix(`ON CONFLICT (product_id) DO UPDATE SET
		name = EXCLUDED.name,
		producer = EXCLUDED.producer,
		category = EXCLUDED.category,
		country = EXCLUDED.country,
		region = EXCLUDED.region,
		vintage = EXCLUDED.vintage,
		alcohol_pct = EXCLUDED.alcohol_pct,
		price = EXCLUDED.price,
		currency = EXCLUDED.currency,
		description = EXCLUDED.description,
		image_url = EXCLUDED.image_url,
		assortment = EXCLUDED.assortment,
		sales_start = EXCLUDED.sales_start,
		source = EXCLUDED.source,
		investment_score = EXCLUDED.investment_score,
		projected_return_1y = EXCLUDED.projected_return_1y,
		projected_return_3y = EXCLUDED.projected_return_3y,
		projected_return_5y = EXCLUDED.projected_return_5y,
		projected_return_10y = EXCLUDED.projected_return_10y,
		storage_time_months = EXCLUDED.storage_time_months,
		drinking_window_start = EXCLUDED.drinking_window_start,
		drinking_window_end = EXCLUDED.drinking_window_end,
		value_appreciation = EXCLUDED.value_appreciation,
		updated_at = NOW()
		RETURNING (xmax = 0) AS inserted`)

	query, args, err := builder.ToSql()
	if err != nil {
		return ports.UpsertResult{}, fmt.Errorf("build upsert: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ports.UpsertResult{}, fmt.Errorf("upsert wines: %w", err)
	}
	defer rows.Close()

	var result ports.UpsertResult
	for rows.Next() {
		var inserted bool
		if err := rows.Scan(&inserted); err != nil {
			return ports.UpsertResult{}, fmt.Errorf("scan upsert result: %w", err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}
	if err := rows.Err(); err != nil {
		return ports.UpsertResult{}, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// ListWines loads the full catalog; filtering happens in memory upstream.
func (r *PostgresRepository) ListWines(ctx context.Context) ([]domain.Wine, error) {
	if r.db == nil {
		return nil, nil
	}

	columns := append([]string{"id"}, wineColumns...)
	columns = append(columns, "created_at", "updated_at")

	query, args, err := psql.Select(columns...).
		From("wines").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wines: %w", err)
	}
	defer rows.Close()

	var wines []domain.Wine
	for rows.Next() {
		var w domain.Wine
		if err := rows.Scan(
			&w.ID, &w.ProductID, &w.Name, &w.Producer, &w.Category,
			&w.Country, &w.Region, &w.Vintage, &w.AlcoholPct, &w.Price,
			&w.Currency, &w.Description, &w.ImageURL, &w.Assortment,
			&w.SalesStart, &w.Source,
			&w.Metrics.InvestmentScore,
			&w.Metrics.ProjectedReturn1Y, &w.Metrics.ProjectedReturn3Y,
			&w.Metrics.ProjectedReturn5Y, &w.Metrics.ProjectedReturn10Y,
			&w.Metrics.StorageTimeMonths,
			&w.Metrics.DrinkingWindowFrom, &w.Metrics.DrinkingWindowTo,
			&w.Metrics.ValueAppreciation,
			&w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wine: %w", err)
		}
		wines = append(wines, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return wines, nil
}

// Reset truncates the wine table. Destructive; admin/test use only.
func (r *PostgresRepository) Reset(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `TRUNCATE wines RESTART IDENTITY`); err != nil {
		return fmt.Errorf("reset wines: %w", err)
	}
	return nil
}
