// Package favorites holds the two FavoritesStore implementations: a
// Postgres-backed one for authenticated users and a local-file one for
// guests. The caller selects one at construction time based on session
// state instead of branching at every call site.
package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"WineScout/internal/domain"
	"WineScout/internal/ports"
)

// ErrListNotFound is returned when a list id does not belong to the owner.
var ErrListNotFound = errors.New("wine list not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore keeps lists in the user_favorites table.
type PostgresStore struct {
	db *sql.DB
}

var _ ports.FavoritesStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Lists returns every list owned by ownerID.
func (s *PostgresStore) Lists(ctx context.Context, ownerID string) ([]domain.WineList, error) {
	query, args, err := listSelect().
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	var lists []domain.WineList
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return lists, nil
}

// GetList fetches one list owned by ownerID.
func (s *PostgresStore) GetList(ctx context.Context, ownerID, listID string) (domain.WineList, error) {
	query, args, err := listSelect().
		Where(sq.Eq{"owner_id": ownerID, "id": listID}).
		ToSql()
	if err != nil {
		return domain.WineList{}, fmt.Errorf("build select: %w", err)
	}

	list, err := scanList(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WineList{}, ErrListNotFound
	}
	if err != nil {
		return domain.WineList{}, fmt.Errorf("get list: %w", err)
	}
	return list, nil
}

// SaveList upserts a list row keyed by id.
func (s *PostgresStore) SaveList(ctx context.Context, list domain.WineList) error {
	query, args, err := psql.Insert("user_favorites").
		Columns("id", "owner_id", "name", "description", "product_ids", "created_at", "updated_at").
		Values(list.ID, list.OwnerID, list.Name, list.Description,
			pq.StringArray(list.ProductIDs), list.CreatedAt, time.Now()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			product_ids = EXCLUDED.product_ids,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save list: %w", err)
	}
	return nil
}

// DeleteList removes one list owned by ownerID.
func (s *PostgresStore) DeleteList(ctx context.Context, ownerID, listID string) error {
	query, args, err := psql.Delete("user_favorites").
		Where(sq.Eq{"owner_id": ownerID, "id": listID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrListNotFound
	}
	return nil
}

// AddWine appends a product id unless it is already present.
func (s *PostgresStore) AddWine(ctx context.Context, ownerID, listID, productID string) error {
	list, err := s.GetList(ctx, ownerID, listID)
	if err != nil {
		return err
	}
	for _, id := range list.ProductIDs {
		if id == productID {
			return nil
		}
	}
	list.ProductIDs = append(list.ProductIDs, productID)
	return s.SaveList(ctx, list)
}

// RemoveWine drops a product id; absent ids are a no-op.
func (s *PostgresStore) RemoveWine(ctx context.Context, ownerID, listID, productID string) error {
	list, err := s.GetList(ctx, ownerID, listID)
	if err != nil {
		return err
	}
	kept := list.ProductIDs[:0]
	for _, id := range list.ProductIDs {
		if id != productID {
			kept = append(kept, id)
		}
	}
	list.ProductIDs = kept
	return s.SaveList(ctx, list)
}

func listSelect() sq.SelectBuilder {
	return psql.Select("id", "owner_id", "name", "description",
		"product_ids", "created_at", "updated_at").
		From("user_favorites")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (domain.WineList, error) {
	var list domain.WineList
	var productIDs pq.StringArray
	err := row.Scan(&list.ID, &list.OwnerID, &list.Name, &list.Description,
		&productIDs, &list.CreatedAt, &list.UpdatedAt)
	list.ProductIDs = []string(productIDs)
	return list, err
}
