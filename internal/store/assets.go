package store

import (
	"database/sql"
	"fmt"
)

const assetColumns = "id, path, kind, hash, size, imported_at"

// UpsertAsset records an asset, replacing any existing row for the same path.
// Returns false without writing when a row with the same kind and hash is
// already present.
func (s *Store) UpsertAsset(a *Asset) (bool, error) {
	existing, err := s.AssetByPath(a.Path)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.Hash == a.Hash && existing.Kind == a.Kind {
		a.ID = existing.ID
		return false, nil
	}

	res, err := s.db.Exec(
		`INSERT INTO assets (path, kind, hash, size, imported_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET kind = excluded.kind, hash = excluded.hash,
		   size = excluded.size, imported_at = excluded.imported_at`,
		a.Path, a.Kind, a.Hash, a.Size, a.ImportedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert asset: %w", err)
	}
	if existing != nil {
		a.ID = existing.ID
		return true, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	return true, nil
}

// AssetByPath returns the ledger row for path, or nil if none exists.
func (s *Store) AssetByPath(path string) (*Asset, error) {
	a := &Asset{}
	err := s.db.QueryRow(
		"SELECT "+assetColumns+" FROM assets WHERE path = ?", path,
	).Scan(&a.ID, &a.Path, &a.Kind, &a.Hash, &a.Size, &a.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("asset by path: %w", err)
	}
	return a, nil
}

// AssetsByKind returns every asset of the given kind ordered by path.
func (s *Store) AssetsByKind(kind string) ([]*Asset, error) {
	return s.queryAssets("SELECT "+assetColumns+" FROM assets WHERE kind = ? ORDER BY path", kind)
}

// AllAssets returns every asset ordered by path.
func (s *Store) AllAssets() ([]*Asset, error) {
	return s.queryAssets("SELECT " + assetColumns + " FROM assets ORDER BY path")
}

func (s *Store) queryAssets(query string, args ...any) ([]*Asset, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()
	var assets []*Asset
	for rows.Next() {
		a := &Asset{}
		if err := rows.Scan(&a.ID, &a.Path, &a.Kind, &a.Hash, &a.Size, &a.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// DeleteAsset removes the row for path. Reports whether a row existed.
func (s *Store) DeleteAsset(path string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM assets WHERE path = ?", path)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
