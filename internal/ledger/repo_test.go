package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/serviplace/serviplace-backend/pkg/db/models"
	"github.com/serviplace/serviplace-backend/pkg/enums"
	"github.com/serviplace/serviplace-backend/pkg/pagination"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  order_number TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  technician_id TEXT,
  sub_contractor_id TEXT,
  type TEXT NOT NULL,
  metadata TEXT,
  performed_by TEXT NOT NULL,
  performed_by_role TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB, orderID uuid.UUID, txType enums.TransactionType, created time.Time) *models.Transaction {
	t.Helper()

	entry := &models.Transaction{
		ID:              uuid.New(),
		OrderID:         orderID,
		OrderNumber:     "ORD-202608-0042",
		CustomerID:      uuid.New(),
		Type:            txType,
		PerformedBy:     "system",
		PerformedByRole: enums.ActorRoleSystem,
		CreatedAt:       created,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestLedgerRepositoryListByOrderID(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedTransaction(t, db, orderID, enums.TransactionTypeOrderCreated, base)
	seedTransaction(t, db, orderID, enums.TransactionTypePaymentReceived, base.Add(time.Hour))
	seedTransaction(t, db, uuid.New(), enums.TransactionTypeOrderCreated, base.Add(2*time.Hour))

	rows, err := repo.ListByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// chronological: creation first
	assert.Equal(t, enums.TransactionTypeOrderCreated, rows[0].Type)
	assert.Equal(t, enums.TransactionTypePaymentReceived, rows[1].Type)

	rows, err = repo.ListByOrderID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLedgerRepositoryListRecentPagination(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var newest *models.Transaction
	for i := 0; i < 5; i++ {
		newest = seedTransaction(t, db, uuid.New(), enums.TransactionTypeOrderCreated, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.ListRecent(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	page, hasMore := pagination.Trim(first, 3)
	require.True(t, hasMore)
	require.Len(t, page, 3)
	assert.Equal(t, newest.ID, page[0].ID, "newest first")

	cursor := pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: page[len(page)-1].CreatedAt,
		ID:        page[len(page)-1].ID,
	})
	second, err := repo.ListRecent(ctx, pagination.Params{Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	rest, hasMore := pagination.Trim(second, 3)
	assert.False(t, hasMore)
	assert.Len(t, rest, 2)

	_, err = repo.ListRecent(ctx, pagination.Params{Limit: 3, Cursor: "%%%not-base64%%%"})
	require.Error(t, err)
}
