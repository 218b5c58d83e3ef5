package db

import (
	"context"

	"github.com/apnisec/backend/internal/model"
)

const userColumns = `id, email, password_hash, name, role, refresh_token, created_at, updated_at`

func (db *Postgres) CreateUser(ctx context.Context, id, email, passwordHash string, name *string, role string) (*model.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + userColumns
	return db.scanUser(db.Pool.QueryRow(ctx, query, id, email, passwordHash, name, role))
}

func (db *Postgres) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return db.scanUser(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return db.scanUser(db.Pool.QueryRow(ctx, query, email))
}

func (db *Postgres) UpdateUserProfile(ctx context.Context, id string, name, email *string) (*model.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return db.scanUser(db.Pool.QueryRow(ctx, query, id, name, email))
}

func (db *Postgres) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	_, err := db.Pool.Exec(ctx, query, id, passwordHash)
	return err
}

// SetRefreshToken stores the single active refresh token for a user. A nil
// token clears the slot (logout).
func (db *Postgres) SetRefreshToken(ctx context.Context, id string, token *string) error {
	query := `UPDATE users SET refresh_token = $2, updated_at = NOW() WHERE id = $1`
	_, err := db.Pool.Exec(ctx, query, id, token)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *Postgres) scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
