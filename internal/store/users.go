package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/matheus3301/parley/internal/model"
)

const userColumns = `uid, email, display_name, photo_url, phone_number, bio, created_at, last_login_at, updated_at, is_online, status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*model.UserProfile, error) {
	var (
		u                model.UserProfile
		created, updated int64
		lastLogin        sql.NullInt64
		status           string
	)
	if err := r.Scan(&u.UID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.PhoneNumber, &u.Bio,
		&created, &lastLogin, &updated, &u.IsOnline, &status); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	if lastLogin.Valid {
		t := fromMillis(lastLogin.Int64)
		u.LastLoginAt = &t
	}
	u.Status = model.Status(status)
	return &u, nil
}

func nullMillis(p *model.UserProfile) any {
	if p.LastLoginAt == nil {
		return nil
	}
	return millis(*p.LastLoginAt)
}

// PutUser writes the whole profile document, replacing any existing one.
func (db *DB) PutUser(ctx context.Context, u *model.UserProfile) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			photo_url = excluded.photo_url,
			phone_number = excluded.phone_number,
			bio = excluded.bio,
			created_at = excluded.created_at,
			last_login_at = excluded.last_login_at,
			updated_at = excluded.updated_at,
			is_online = excluded.is_online,
			status = excluded.status`,
		u.UID, u.Email, u.DisplayName, u.PhotoURL, u.PhoneNumber, u.Bio,
		millis(u.CreatedAt), nullMillis(u), millis(u.UpdatedAt), u.IsOnline, string(u.Status))
	return err
}

// CreateUserIfMissing inserts the profile unless one already exists for the uid.
// Reports whether a row was inserted.
func (db *DB) CreateUserIfMissing(ctx context.Context, u *model.UserProfile) (bool, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO NOTHING`,
		u.UID, u.Email, u.DisplayName, u.PhotoURL, u.PhoneNumber, u.Bio,
		millis(u.CreatedAt), nullMillis(u), millis(u.UpdatedAt), u.IsOnline, string(u.Status))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// UpdateUser applies a partial update and stamps updated_at.
// Returns sql.ErrNoRows if the profile does not exist.
func (db *DB) UpdateUser(ctx context.Context, uid string, p model.UserPatch, now int64) error {
	q := psql.Update("users").Set("updated_at", now).Where(sq.Eq{"uid": uid})
	if p.Email != nil {
		q = q.Set("email", *p.Email)
	}
	if p.DisplayName != nil {
		q = q.Set("display_name", *p.DisplayName)
	}
	if p.PhotoURL != nil {
		q = q.Set("photo_url", *p.PhotoURL)
	}
	if p.PhoneNumber != nil {
		q = q.Set("phone_number", *p.PhoneNumber)
	}
	if p.Bio != nil {
		q = q.Set("bio", *p.Bio)
	}
	if p.Status != nil {
		q = q.Set("status", string(*p.Status))
	}
	if p.IsOnline != nil {
		q = q.Set("is_online", *p.IsOnline)
	}
	if p.LastLoginAt != nil {
		q = q.Set("last_login_at", millis(*p.LastLoginAt))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}
	return db.execOne(ctx, query, args...)
}

// GetUser returns the profile for uid, or nil if none exists.
func (db *DB) GetUser(ctx context.Context, uid string) (*model.UserProfile, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = ?`, uid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// ListUsers returns every profile, or only online ones, ordered by display name.
func (db *DB) ListUsers(ctx context.Context, onlineOnly bool) ([]model.UserProfile, error) {
	q := psql.Select(userColumns).From("users").OrderBy("display_name COLLATE NOCASE", "uid")
	if onlineOnly {
		q = q.Where(sq.Eq{"is_online": true})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user list: %w", err)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []model.UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
