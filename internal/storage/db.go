package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"vitrina/internal"
	"vitrina/internal/catalog"
)

const MetaLastExport = "catalog.last_export"

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tree_json TEXT NOT NULL,
  categoryCount INTEGER NOT NULL,
  productCount INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  ordinal INTEGER NOT NULL,
  name TEXT NOT NULL,
  icon TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  categoryId TEXT NOT NULL,
  ordinal INTEGER NOT NULL,
  name TEXT NOT NULL,
  shortDesc TEXT NOT NULL DEFAULT '',
  longDesc TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL DEFAULT '',
  features_json TEXT NOT NULL DEFAULT '[]',
  specs TEXT NOT NULL DEFAULT '',
  image TEXT,
  icon TEXT,
  FOREIGN KEY(categoryId) REFERENCES categories(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(categoryId, ordinal);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) Load(ctx context.Context) (Snapshot, error) {
	var id int64
	var treeJSON string
	err := d.conn.QueryRowContext(ctx, `SELECT id, tree_json FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&id, &treeJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}

	tree, err := catalog.DecodeTreeBytes([]byte(treeJSON))
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %d: %w", id, err)
	}
	return Snapshot{Tree: tree, Version: strconv.FormatInt(id, 10)}, nil
}

// Save appends a new snapshot and rewrites the category/product tables from it
// in one transaction.
func (d *DB) Save(ctx context.Context, c internal.Catalog, baseVersion string) (string, error) {
	c = catalog.Reconcile(c)
	blob, err := json.Marshal(catalog.Tree(c))
	if err != nil {
		return "", err
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var latest sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(id) FROM snapshots`).Scan(&latest); err != nil {
		return "", err
	}
	current := ""
	if latest.Valid {
		current = strconv.FormatInt(latest.Int64, 10)
	}
	if baseVersion != current {
		return "", fmt.Errorf("%w: base %q, latest %q", ErrConflict, baseVersion, current)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (tree_json, categoryCount, productCount) VALUES (?, ?, ?)`,
		string(blob), len(c.Categories), c.ProductCount(),
	)
	if err != nil {
		return "", err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return "", err
	}

	if err := mirrorCatalog(ctx, tx, c); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func mirrorCatalog(ctx context.Context, tx *sql.Tx, c internal.Catalog) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return err
	}

	catStmt, err := tx.PrepareContext(ctx, `INSERT INTO categories (id, ordinal, name, icon, description) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer catStmt.Close()

	prodStmt, err := tx.PrepareContext(ctx, `
INSERT INTO products (id, categoryId, ordinal, name, shortDesc, longDesc, price, features_json, specs, image, icon)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer prodStmt.Close()

	for i, cat := range c.Categories {
		if _, err := catStmt.ExecContext(ctx, cat.ID, i, cat.Name, cat.Icon, cat.Description); err != nil {
			return fmt.Errorf("category %s: %w", cat.ID, err)
		}
		for j, p := range c.Products[cat.ID] {
			features, _ := json.Marshal(p.Features)
			if _, err := prodStmt.ExecContext(ctx,
				p.ID, cat.ID, j, p.Name, p.ShortDesc, p.LongDesc, p.Price,
				string(features), p.Specs, nullable(p.Image), nullable(p.Icon),
			); err != nil {
				return fmt.Errorf("product %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

// ListProducts reads the mirrored product table in display order, optionally
// restricted to one category.
func (d *DB) ListProducts(ctx context.Context, categoryID string) ([]internal.Product, error) {
	query := `
SELECT p.id, p.name, p.shortDesc, p.longDesc, p.price, p.features_json, p.specs, p.image, p.icon
FROM products p
JOIN categories c ON c.id = p.categoryId`
	args := []any{}
	if categoryID != "" {
		query += ` WHERE p.categoryId = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY c.ordinal ASC, p.ordinal ASC`

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.Product{}
	for rows.Next() {
		var p internal.Product
		var featuresJSON string
		var image, icon sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.ShortDesc, &p.LongDesc, &p.Price, &featuresJSON, &p.Specs, &image, &icon); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(featuresJSON), &p.Features)
		if p.Features == nil {
			p.Features = []string{}
		}
		p.Image = image.String
		p.Icon = icon.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) SnapshotCount(ctx context.Context) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

func (d *DB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx, `
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(ctx context.Context, key string) (*string, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
