// Package store persists logged items, supplement definitions, and
// resolution overrides in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

// SQLiteStore implements ItemStore, SupplementStore, and OverrideStore using
// modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS logged_items (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	day            TEXT NOT NULL,
	name           TEXT NOT NULL,
	servings       REAL NOT NULL,
	logged_unit    TEXT,
	supplement_id  TEXT,
	custom_name    TEXT,
	custom_nutrients TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS supplements (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	serving_size TEXT,
	ingredients  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS resolution_overrides (
	query      TEXT PRIMARY KEY,
	fdc_id     TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_logged_items_day ON logged_items(day);
CREATE INDEX IF NOT EXISTS idx_logged_items_supplement ON logged_items(supplement_id);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateItem inserts a new logged item. A missing ID is generated.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *domain.LoggedItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	nutrientsJSON, err := marshalNutrients(item.CustomNutrients)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO logged_items (id, kind, day, name, servings, logged_unit, supplement_id, custom_name, custom_nutrients, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, string(item.Kind), item.Day, item.Name, item.Servings,
		item.LoggedUnit, item.SupplementID, item.CustomFoodName, nutrientsJSON,
		now, now,
	)
	return eris.Wrap(err, "sqlite: insert item")
}

// GetItem loads one logged item by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*domain.LoggedItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, day, name, servings, logged_unit, supplement_id, custom_name, custom_nutrients, created_at, updated_at
		 FROM logged_items WHERE id = ?`, id)
	return scanItem(row)
}

// ListItemsByDay loads all items logged on a day, oldest first.
func (s *SQLiteStore) ListItemsByDay(ctx context.Context, day string) ([]domain.LoggedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, day, name, servings, logged_unit, supplement_id, custom_name, custom_nutrients, created_at, updated_at
		 FROM logged_items WHERE day = ? ORDER BY created_at, id`, day)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list items for %s", day)
	}
	defer rows.Close()

	var items []domain.LoggedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list items")
}

// UpdateItemNutrition replaces the item's matched food name and custom
// nutrient map.
func (s *SQLiteStore) UpdateItemNutrition(ctx context.Context, id, customFoodName string, nutrients map[string]float64) error {
	nutrientsJSON, err := marshalNutrients(nutrients)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE logged_items SET custom_name = ?, custom_nutrients = ?, updated_at = ? WHERE id = ?`,
		customFoodName, nutrientsJSON, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update item nutrition %s", id)
	}
	return checkItemAffected(res)
}

// UpdateItemServings changes the item's serving count.
func (s *SQLiteStore) UpdateItemServings(ctx context.Context, id string, servings float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE logged_items SET servings = ?, updated_at = ? WHERE id = ?`,
		servings, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update item servings %s", id)
	}
	return checkItemAffected(res)
}

// DeleteItem removes a logged item.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logged_items WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete item %s", id)
	}
	return checkItemAffected(res)
}

// GetSupplement loads one supplement definition.
func (s *SQLiteStore) GetSupplement(ctx context.Context, id string) (*domain.Supplement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, serving_size, ingredients FROM supplements WHERE id = ?`, id)

	var supp domain.Supplement
	var servingSize sql.NullString
	var ingredientsJSON string
	if err := row.Scan(&supp.ID, &supp.Name, &servingSize, &ingredientsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSupplementNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get supplement %s", id)
	}
	supp.ServingSize = servingSize.String

	if err := json.Unmarshal([]byte(ingredientsJSON), &supp.Ingredients); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode ingredients %s", id)
	}
	return &supp, nil
}

// SaveSupplement upserts a supplement definition.
func (s *SQLiteStore) SaveSupplement(ctx context.Context, supp *domain.Supplement) error {
	if supp.ID == "" {
		supp.ID = uuid.New().String()
	}
	ingredientsJSON, err := json.Marshal(supp.Ingredients)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal ingredients")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO supplements (id, name, serving_size, ingredients) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, serving_size = excluded.serving_size, ingredients = excluded.ingredients`,
		supp.ID, supp.Name, supp.ServingSize, string(ingredientsJSON))
	return eris.Wrap(err, "sqlite: save supplement")
}

// Get returns the override for an exact (trimmed) query, or ErrOverrideMiss.
func (s *SQLiteStore) Get(ctx context.Context, query string) (string, error) {
	var fdcID string
	err := s.db.QueryRowContext(ctx,
		`SELECT fdc_id FROM resolution_overrides WHERE query = ?`,
		strings.TrimSpace(query)).Scan(&fdcID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrOverrideMiss
	}
	if err != nil {
		return "", eris.Wrap(err, "sqlite: get override")
	}
	return fdcID, nil
}

// Put upserts an override. Last write wins; overrides never expire.
func (s *SQLiteStore) Put(ctx context.Context, query, fdcID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolution_overrides (query, fdc_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET fdc_id = excluded.fdc_id, updated_at = excluded.updated_at`,
		strings.TrimSpace(query), fdcID, time.Now().UTC())
	return eris.Wrap(err, "sqlite: put override")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.LoggedItem, error) {
	var item domain.LoggedItem
	var kind string
	var loggedUnit, supplementID, customName, nutrientsJSON sql.NullString
	err := row.Scan(&item.ID, &kind, &item.Day, &item.Name, &item.Servings,
		&loggedUnit, &supplementID, &customName, &nutrientsJSON,
		&item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan item")
	}

	item.Kind = domain.ItemKind(kind)
	item.LoggedUnit = loggedUnit.String
	item.SupplementID = supplementID.String
	item.CustomFoodName = customName.String
	if nutrientsJSON.String != "" {
		if err := json.Unmarshal([]byte(nutrientsJSON.String), &item.CustomNutrients); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode nutrients")
		}
	}
	return &item, nil
}

func marshalNutrients(nutrients map[string]float64) (string, error) {
	if nutrients == nil {
		return "", nil
	}
	data, err := json.Marshal(nutrients)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal nutrients")
	}
	return string(data), nil
}

func checkItemAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
