package database

import (
	"context"
	"testing"

	"parkhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{
		Email:       "driver@example.com",
		DisplayName: "Driver One",
		Phone:       "+256700000001",
	}
	err := db.CreateOrUpdateUser(ctx, user)
	require.NoError(t, err)

	got, err := db.GetUserByEmail(ctx, "driver@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Driver One", got.DisplayName)
	assert.Equal(t, "+256700000001", got.Phone)

	// Update with empty phone keeps the stored one
	user.DisplayName = "Driver Renamed"
	user.Phone = ""
	err = db.CreateOrUpdateUser(ctx, user)
	require.NoError(t, err)

	got, err = db.GetUserByEmail(ctx, "driver@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Driver Renamed", got.DisplayName)
	assert.Equal(t, "+256700000001", got.Phone)

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateOrUpdateUser_ExplicitID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{
		ID:             42,
		Email:          "driver@example.com",
		DisplayName:    "Driver One",
		TelegramChatID: 700,
	}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	got, err := db.GetUserByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "driver@example.com", got.Email)
	assert.Equal(t, int64(700), got.TelegramChatID)

	user.DisplayName = "Driver Renamed"
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	got, err = db.GetUserByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Driver Renamed", got.DisplayName)

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetUserByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserPhone(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	user := &models.User{Email: "owner@example.com", DisplayName: "Owner"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	stored, err := db.GetUserByEmail(ctx, "owner@example.com")
	require.NoError(t, err)

	err = db.UpdateUserPhone(ctx, stored.ID, "+256700000002")
	require.NoError(t, err)

	updated, err := db.GetUserByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "+256700000002", updated.Phone)
}
