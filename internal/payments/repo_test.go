package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/pagination"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	properties := `
CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  address TEXT,
  owner_id TEXT NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  contract_id TEXT NOT NULL,
  contract_type TEXT NOT NULL,
  payment_type TEXT NOT NULL,
  amount TEXT NOT NULL,
  due_date DATETIME NOT NULL,
  paid_time DATETIME,
  status TEXT NOT NULL DEFAULT 'PENDING',
  payer_id TEXT,
  payee_id TEXT,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{properties, payments} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func createPayment(t *testing.T, db *gorm.DB, contractID uuid.UUID, paymentType enums.PaymentType, status enums.PaymentStatus, amount int64, dueDate time.Time) *models.Payment {
	t.Helper()
	row := &models.Payment{
		ID:           uuid.New(),
		ContractID:   contractID,
		ContractType: enums.ContractKindPurchase,
		PaymentType:  paymentType,
		Amount:       decimal.NewFromInt(amount),
		DueDate:      dueDate,
		Status:       status,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestRepositoryListFilters(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	contractID := uuid.New()
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	advance := createPayment(t, db, contractID, enums.PaymentTypeAdvance, enums.PaymentStatusPending, 200_000_000, due)
	createPayment(t, db, contractID, enums.PaymentTypeServiceFee, enums.PaymentStatusSuccess, 40_000_000, due.AddDate(0, 1, 0))
	createPayment(t, db, uuid.New(), enums.PaymentTypeDeposit, enums.PaymentStatusPending, 500_000_000, due)

	rows, total, err := repo.List(context.Background(), pagination.Params{Page: 1, Size: 10}, PaymentFilters{
		ContractID: &contractID,
		Statuses:   []enums.PaymentStatus{enums.PaymentStatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, advance.ID, rows[0].ID)
}

func TestRepositoryListAmountRange(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	contractID := uuid.New()
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	createPayment(t, db, contractID, enums.PaymentTypeAdvance, enums.PaymentStatusPending, 200_000_000, due)
	big := createPayment(t, db, contractID, enums.PaymentTypeFullPay, enums.PaymentStatusPending, 1_800_000_000, due.AddDate(0, 2, 0))

	min := decimal.NewFromInt(1_000_000_000)
	rows, total, err := repo.List(context.Background(), pagination.Params{}, PaymentFilters{
		ContractID: &contractID,
		AmountMin:  &min,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, big.ID, rows[0].ID)
}

func TestRepositoryExistsForContract(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	contractID := uuid.New()
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	createPayment(t, db, contractID, enums.PaymentTypeAdvance, enums.PaymentStatusPending, 200_000_000, due)

	exists, err := repo.ExistsForContract(context.Background(), enums.ContractKindPurchase, contractID, enums.PaymentTypeAdvance)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForContract(context.Background(), enums.ContractKindPurchase, contractID, enums.PaymentTypeServiceFee)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoryUpdateStatusIfIsCompareAndSwap(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	payment := createPayment(t, db, uuid.New(), enums.PaymentTypeAdvance, enums.PaymentStatusPending, 200_000_000, due)

	paid := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	rows, err := repo.UpdateStatusIf(context.Background(), payment.ID, enums.PaymentStatusPending, map[string]any{
		"status":    enums.PaymentStatusSuccess,
		"paid_time": paid,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Second settlement attempt raced on the same expected status and loses.
	rows, err = repo.UpdateStatusIf(context.Background(), payment.ID, enums.PaymentStatusPending, map[string]any{
		"status": enums.PaymentStatusFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	refetched, err := repo.Find(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSuccess, refetched.Status)
	require.NotNil(t, refetched.PaidTime)
	assert.Equal(t, paid, refetched.PaidTime.UTC())
}

func TestRepositoryListOverduePending(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	contractID := uuid.New()
	cutoff := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	overdue := createPayment(t, db, contractID, enums.PaymentTypeAdvance, enums.PaymentStatusSystemPending, 200_000_000, cutoff.AddDate(0, 0, -10))
	createPayment(t, db, contractID, enums.PaymentTypeServiceFee, enums.PaymentStatusPending, 40_000_000, cutoff.AddDate(0, 0, 5))
	createPayment(t, db, contractID, enums.PaymentTypeFullPay, enums.PaymentStatusSuccess, 1_800_000_000, cutoff.AddDate(0, 0, -20))

	rows, err := repo.ListOverduePending(context.Background(), cutoff, 100)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, row := range rows {
		if row.ContractID == contractID {
			ids = append(ids, row.ID)
		}
	}
	require.Len(t, ids, 1)
	assert.Equal(t, overdue.ID, ids[0])
}

func TestRepositoryFindPropertyOwner(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	ownerID := uuid.New()
	property := &models.Property{
		ID:      uuid.New(),
		Title:   "Can ho Q4",
		OwnerID: ownerID,
		Price:   decimal.NewFromInt(2_000_000_000),
	}
	require.NoError(t, db.Create(property).Error)

	got, err := repo.FindPropertyOwner(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, got)

	_, err = repo.FindPropertyOwner(context.Background(), uuid.New())
	assert.Error(t, err)
}
