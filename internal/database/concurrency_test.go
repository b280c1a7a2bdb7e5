package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"parkhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentApprove(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	assert.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	space := createTestSpace(t, db, 1, 1000)

	request := &models.ParkingRequest{SpaceID: space.ID, UserID: 2}
	require.NoError(t, db.CreateRequest(ctx, request))

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	// All goroutines read the same version, so the version guard must
	// let exactly one transition through
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			results <- db.StartRequestWithVersion(ctx, request.ID, request.Version, time.Now())
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	conflictCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, ErrConcurrentModification):
			conflictCount++
		}
	}

	assert.Equal(t, 1, successCount, "Only one approval should win the version race")
	assert.Equal(t, numGoroutines-1, conflictCount)

	got, err := db.GetRequest(ctx, request.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestConcurrentDebit(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	dbPath := filepath.Join(t.TempDir(), "wallet_concurrency.db")
	db, err := NewDB(dbPath, &logger)
	assert.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreditWallet(ctx, 1, 100))

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	// Each debit takes the full balance; only one may pass
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			results <- db.DebitWallet(ctx, 1, 100)
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
		}
	}
	assert.Equal(t, 1, successCount, "Only one debit should pass on the same balance")

	wallet, err := db.GetWallet(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, float64(0), wallet.Balance)
}
