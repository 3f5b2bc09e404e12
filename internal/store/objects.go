package store

import (
	"context"
	"database/sql"
)

// PutObject records blob metadata, replacing any previous record with the same key.
func (db *DB) PutObject(ctx context.Context, o *Object) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO objects (key, owner_uid, url, content_type, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			owner_uid = excluded.owner_uid,
			url = excluded.url,
			content_type = excluded.content_type,
			size = excluded.size,
			created_at = excluded.created_at`,
		o.Key, o.OwnerUID, o.URL, o.ContentType, o.Size, o.CreatedAt)
	return err
}

// GetObject returns blob metadata by key, or nil if unknown.
func (db *DB) GetObject(ctx context.Context, key string) (*Object, error) {
	var o Object
	err := db.QueryRowContext(ctx, `
		SELECT key, owner_uid, url, content_type, size, created_at
		FROM objects WHERE key = ?`, key).
		Scan(&o.Key, &o.OwnerUID, &o.URL, &o.ContentType, &o.Size, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteObject removes blob metadata. Deleting an unknown key is not an error.
func (db *DB) DeleteObject(ctx context.Context, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM objects WHERE key = ?`, key)
	return err
}

// GetObjectByURL returns the metadata of the object served at url, or nil.
func (db *DB) GetObjectByURL(ctx context.Context, url string) (*Object, error) {
	var o Object
	err := db.QueryRowContext(ctx, `
		SELECT key, owner_uid, url, content_type, size, created_at
		FROM objects WHERE url = ?`, url).
		Scan(&o.Key, &o.OwnerUID, &o.URL, &o.ContentType, &o.Size, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
