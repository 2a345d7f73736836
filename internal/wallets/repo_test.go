package wallets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupWalletsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:wallets_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  address TEXT NOT NULL UNIQUE,
  in_use INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS wallet_assignments (
  id TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL UNIQUE,
  wallet_id TEXT NOT NULL UNIQUE,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS purchase_requests (
  id TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL,
  total_amount NUMERIC NOT NULL,
  wallet_address TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  discount_percent INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func seedWallet(t *testing.T, conn *gorm.DB, address string, inUse bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := conn.Exec(
		"INSERT INTO wallets (id, address, in_use, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)",
		id.String(), address, inUse,
	).Error
	require.NoError(t, err)
	return id
}

func TestClaimWinsOnlyOnce(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	walletID := seedWallet(t, conn, "TWallet000000000000000000000000001", false)

	claimed, err := repo.Claim(ctx, walletID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.Claim(ctx, walletID)
	require.NoError(t, err)
	assert.False(t, claimed, "a second claim on the same wallet must lose")
}

func TestFreeCandidatesSkipsClaimedWallets(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedWallet(t, conn, "TWallet000000000000000000000000001", true)
	freeID := seedWallet(t, conn, "TWallet000000000000000000000000002", false)

	candidates, err := repo.FreeCandidates(ctx, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, freeID, candidates[0].ID)
}

func TestAssignmentRoundTrip(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	walletID := seedWallet(t, conn, "TWallet000000000000000000000000001", true)
	require.NoError(t, repo.CreateAssignment(ctx, 42, walletID))

	assigned, err := repo.FindAssigned(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, assigned)
	assert.Equal(t, walletID, assigned.ID)

	removedID, found, err := repo.DeleteAssignment(ctx, 42)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, walletID, removedID)

	assigned, err = repo.FindAssigned(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, assigned)
}

func TestDeleteAssignmentMissingUser(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupWalletsTestDB(t))
	_, found, err := repo.DeleteAssignment(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCounts(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedWallet(t, conn, "TWallet000000000000000000000000001", true)
	seedWallet(t, conn, "TWallet000000000000000000000000002", false)
	seedWallet(t, conn, "TWallet000000000000000000000000003", false)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Available: 2, InUse: 1, Total: 3}, counts)
}

func TestDeleteRefusesAssignedWallet(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	busyID := seedWallet(t, conn, "TWallet000000000000000000000000001", true)
	freeID := seedWallet(t, conn, "TWallet000000000000000000000000002", false)

	deleted, err := repo.Delete(ctx, busyID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(ctx, freeID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestListReportsAssignmentsAndVolume(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	walletID := seedWallet(t, conn, "TWallet000000000000000000000000001", true)
	require.NoError(t, repo.CreateAssignment(ctx, 77, walletID))

	err := conn.Exec(
		"INSERT INTO purchase_requests (id, user_id, total_amount, wallet_address, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		uuid.NewString(), 77, "150.00", "TWallet000000000000000000000000001", "completed",
	).Error
	require.NoError(t, err)

	infos, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)

	info := infos[0]
	require.NotNil(t, info.AssignedUserID)
	assert.Equal(t, int64(77), *info.AssignedUserID)
	assert.Equal(t, "150", info.CompletedVolume.String())
	assert.NotNil(t, info.LastUsedAt)
}
