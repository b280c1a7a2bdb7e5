package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkhive/internal/models"
)

// CreateOrUpdateUser upserts a user profile. When the caller supplies
// an ID it is the identity issued by the external auth provider and
// the row is keyed by it; otherwise the email is the upsert key.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	now := time.Now()

	if user.ID != 0 {
		query := `INSERT INTO users (
					id, email, display_name, phone, telegram_chat_id, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?)
	              ON CONFLICT(id) DO UPDATE SET
	                email = excluded.email,
	                display_name = excluded.display_name,
	                phone = COALESCE(NULLIF(excluded.phone, ''), phone),
	                telegram_chat_id = excluded.telegram_chat_id,
	                updated_at = excluded.updated_at`
		_, err := db.ExecContext(ctx, query,
			user.ID,
			user.Email,
			user.DisplayName,
			user.Phone,
			user.TelegramChatID,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to create or update user: %w", err)
		}
		return nil
	}

	query := `INSERT INTO users (
				email, display_name, phone, telegram_chat_id, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?)
              ON CONFLICT(email) DO UPDATE SET
                display_name = excluded.display_name,
                phone = COALESCE(NULLIF(excluded.phone, ''), phone),
                telegram_chat_id = excluded.telegram_chat_id,
                updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		user.Email,
		user.DisplayName,
		user.Phone,
		user.TelegramChatID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, display_name, phone, telegram_chat_id, created_at, updated_at
              FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, display_name, phone, telegram_chat_id, created_at, updated_at
              FROM users WHERE email = ?`
	return db.queryUser(ctx, query, email)
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, email, display_name, phone, telegram_chat_id, created_at, updated_at
              FROM users ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		var chatID sql.NullInt64
		err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Phone, &chatID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.TelegramChatID = chatID.Int64
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) UpdateUserPhone(ctx context.Context, id int64, phone string) error {
	query := `UPDATE users SET phone = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, phone, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user phone: %w", err)
	}
	return nil
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var u models.User
	var chatID sql.NullInt64
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Phone, &chatID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.TelegramChatID = chatID.Int64
	return &u, nil
}
