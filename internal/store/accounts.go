package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const accountColumns = `uid, email, password_hash, display_name, photo_url, password_changed_at, created_at, updated_at`

// CreateAccount inserts a new account. Returns ErrDuplicate if the email is taken.
func (db *DB) CreateAccount(ctx context.Context, a *Account) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UID, a.Email, a.PasswordHash, a.DisplayName, a.PhotoURL, a.PasswordChangedAt, a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetAccount returns the account with the given uid, or nil if none exists.
func (db *DB) GetAccount(ctx context.Context, uid string) (*Account, error) {
	return db.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE uid = ?`, uid)
}

// GetAccountByEmail looks an account up by email, case-insensitively.
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return db.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

func (db *DB) getAccount(ctx context.Context, query string, arg any) (*Account, error) {
	var a Account
	err := db.QueryRowContext(ctx, query, arg).Scan(
		&a.UID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.PhotoURL,
		&a.PasswordChangedAt, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAccountPassword replaces the password hash.
func (db *DB) UpdateAccountPassword(ctx context.Context, uid, hash string, now int64) error {
	return db.execOne(ctx, `
		UPDATE accounts SET password_hash = ?, password_changed_at = ?, updated_at = ?
		WHERE uid = ?`, hash, now, now, uid)
}

// UpdateAccountEmail changes the sign-in email. Returns ErrDuplicate if taken.
func (db *DB) UpdateAccountEmail(ctx context.Context, uid, email string, now int64) error {
	err := db.execOne(ctx, `UPDATE accounts SET email = ?, updated_at = ? WHERE uid = ?`, email, now, uid)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateAccountIdentity sets the display name and photo carried by the account.
// Nil arguments are left unchanged.
func (db *DB) UpdateAccountIdentity(ctx context.Context, uid string, displayName, photoURL *string, now int64) error {
	q := psql.Update("accounts").Set("updated_at", now).Where(sq.Eq{"uid": uid})
	if displayName != nil {
		q = q.Set("display_name", *displayName)
	}
	if photoURL != nil {
		q = q.Set("photo_url", *photoURL)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build account update: %w", err)
	}
	return db.execOne(ctx, query, args...)
}

// execOne runs a statement that must affect exactly one row; sql.ErrNoRows otherwise.
func (db *DB) execOne(ctx context.Context, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
