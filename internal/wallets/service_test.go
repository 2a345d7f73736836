package wallets

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
)

type stubPendingChecker struct {
	pending bool
	err     error
	lastTx  *gorm.DB
}

func (s *stubPendingChecker) HasPendingTx(ctx context.Context, tx *gorm.DB, userID int64) (bool, error) {
	s.lastTx = tx
	return s.pending, s.err
}

func newTestService(t *testing.T, conn *gorm.DB, pending *stubPendingChecker) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "wallets-test", Output: io.Discard})
	return NewService(db.FromGorm(conn), NewRepository(conn), pending, logg)
}

func TestAssignIsSticky(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	seedWallet(t, conn, "TWallet000000000000000000000000001", false)
	seedWallet(t, conn, "TWallet000000000000000000000000002", false)

	svc := newTestService(t, conn, &stubPendingChecker{})
	ctx := context.Background()

	first, err := svc.Assign(ctx, 10)
	require.NoError(t, err)

	second, err := svc.Assign(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeat assignment returns the same address")

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.InUse, "only one wallet claimed for the user")
}

func TestAssignDistinctUsersGetDistinctWallets(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	seedWallet(t, conn, "TWallet000000000000000000000000001", false)
	seedWallet(t, conn, "TWallet000000000000000000000000002", false)

	svc := newTestService(t, conn, &stubPendingChecker{})
	ctx := context.Background()

	addrA, err := svc.Assign(ctx, 1)
	require.NoError(t, err)
	addrB, err := svc.Assign(ctx, 2)
	require.NoError(t, err)
	assert.NotEqual(t, addrA, addrB)
}

func TestAssignExhaustedPool(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	seedWallet(t, conn, "TWallet000000000000000000000000001", false)

	svc := newTestService(t, conn, &stubPendingChecker{})
	ctx := context.Background()

	_, err := svc.Assign(ctx, 1)
	require.NoError(t, err)

	_, err = svc.Assign(ctx, 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExhausted))
}

func TestReleaseReturnsWalletToPool(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	seedWallet(t, conn, "TWallet000000000000000000000000001", false)

	svc := newTestService(t, conn, &stubPendingChecker{})
	ctx := context.Background()

	assigned, err := svc.Assign(ctx, 5)
	require.NoError(t, err)

	released, err := svc.Release(ctx, 5)
	require.NoError(t, err)
	assert.True(t, released)

	// The freed wallet is claimable again, by another user.
	addr, err := svc.Assign(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, assigned, addr)
}

func TestReleaseWithoutAssignment(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, setupWalletsTestDB(t), &stubPendingChecker{})
	released, err := svc.Release(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestReleaseRefusedWhilePendingRequest(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	seedWallet(t, conn, "TWallet000000000000000000000000001", false)

	pending := &stubPendingChecker{}
	svc := newTestService(t, conn, pending)
	ctx := context.Background()

	_, err := svc.Assign(ctx, 5)
	require.NoError(t, err)

	pending.pending = true
	_, err = svc.Release(ctx, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.Reassign(ctx, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestReleasePendingCheckUsesTransaction(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	seedWallet(t, conn, "TWallet000000000000000000000000001", false)

	pending := &stubPendingChecker{}
	svc := newTestService(t, conn, pending)
	ctx := context.Background()

	_, err := svc.Assign(ctx, 5)
	require.NoError(t, err)

	released, err := svc.Release(ctx, 5)
	require.NoError(t, err)
	assert.True(t, released)
	require.NotNil(t, pending.lastTx, "pending check runs inside the release transaction")
	assert.NotSame(t, conn, pending.lastTx)
}

func TestReassignSwitchesWallets(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	seedWallet(t, conn, "TWallet000000000000000000000000001", false)
	seedWallet(t, conn, "TWallet000000000000000000000000002", false)

	svc := newTestService(t, conn, &stubPendingChecker{})
	ctx := context.Background()

	before, err := svc.Assign(ctx, 5)
	require.NoError(t, err)

	after, err := svc.Reassign(ctx, 5)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.InUse, "previous wallet is freed")
}

func TestReassignExhaustedKeepsPreviousWallet(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	seedWallet(t, conn, "TWallet000000000000000000000000001", false)

	svc := newTestService(t, conn, &stubPendingChecker{})
	ctx := context.Background()

	before, err := svc.Assign(ctx, 5)
	require.NoError(t, err)

	_, err = svc.Reassign(ctx, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExhausted))

	// The failed reassignment rolled back: the old wallet is still his.
	addr, err := svc.Assign(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, before, addr)
}

func TestAddWalletValidatesAddress(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, setupWalletsTestDB(t), &stubPendingChecker{})
	ctx := context.Background()

	_, err := svc.AddWallet(ctx, "not-a-wallet")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	id, err := svc.AddWallet(ctx, "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NYqeL")
	require.NoError(t, err)
	require.NotNil(t, id)

	_, err = svc.AddWallet(ctx, "TNPeeaaFB7K9cmo4uQpcU32zGK8G1NYqeL")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestDeleteWalletRefusedWhileAssigned(t *testing.T) {
	t.Parallel()

	conn := setupWalletsTestDB(t)
	walletID := seedWallet(t, conn, "TWallet000000000000000000000000001", false)

	svc := newTestService(t, conn, &stubPendingChecker{})
	ctx := context.Background()

	_, err := svc.Assign(ctx, 5)
	require.NoError(t, err)

	err = svc.DeleteWallet(ctx, walletID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	err = svc.DeleteWallet(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}
