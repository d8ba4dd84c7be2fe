package contracts

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

func setupContractsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  tier TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
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
	depositContracts := `
CREATE TABLE IF NOT EXISTS deposit_contracts (
  id TEXT PRIMARY KEY,
  contract_number TEXT NOT NULL UNIQUE,
  property_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  agent_id TEXT,
  main_contract_type TEXT NOT NULL,
  deposit_amount TEXT NOT NULL,
  agreed_price TEXT NOT NULL,
  cancellation_penalty TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME,
  special_terms TEXT,
  status TEXT NOT NULL DEFAULT 'DRAFT',
  cancellation_reason TEXT,
  cancelled_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	purchaseContracts := `
CREATE TABLE IF NOT EXISTS purchase_contracts (
  id TEXT PRIMARY KEY,
  contract_number TEXT NOT NULL UNIQUE,
  property_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  agent_id TEXT,
  deposit_contract_id TEXT,
  property_value TEXT NOT NULL,
  advance_payment_amount TEXT NOT NULL DEFAULT '0',
  commission_amount TEXT NOT NULL DEFAULT '0',
  start_date DATETIME NOT NULL,
  special_terms TEXT,
  status TEXT NOT NULL DEFAULT 'DRAFT',
  cancellation_reason TEXT,
  cancelled_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	purchaseLinkIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS uq_purchase_contracts_deposit_contract_id
  ON purchase_contracts(deposit_contract_id)
  WHERE deposit_contract_id IS NOT NULL;`
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
	for _, stmt := range []string{users, properties, depositContracts, purchaseContracts, purchaseLinkIndex, payments} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@example.vn",
		FullName: name,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProperty(t *testing.T, db *gorm.DB, title string, owner *models.User) *models.Property {
	t.Helper()
	property := &models.Property{
		ID:      uuid.New(),
		Title:   title,
		OwnerID: owner.ID,
		Price:   decimal.NewFromInt(2_000_000_000),
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

func createDeposit(t *testing.T, db *gorm.DB, property *models.Property, customer *models.User, status enums.ContractStatus) *models.DepositContract {
	t.Helper()
	row := &models.DepositContract{
		ID:                  uuid.New(),
		ContractNumber:      "DC-" + uuid.NewString()[:8],
		PropertyID:          property.ID,
		CustomerID:          customer.ID,
		MainContractType:    enums.MainContractTypePurchase,
		DepositAmount:       decimal.NewFromInt(500_000_000),
		AgreedPrice:         decimal.NewFromInt(2_000_000_000),
		CancellationPenalty: decimal.NewFromInt(500_000_000),
		StartDate:           time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:              status,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func createPurchase(t *testing.T, db *gorm.DB, property *models.Property, customer *models.User, depositID *uuid.UUID, status enums.ContractStatus) *models.PurchaseContract {
	t.Helper()
	row := &models.PurchaseContract{
		ID:                   uuid.New(),
		ContractNumber:       "PC-" + uuid.NewString()[:8],
		PropertyID:           property.ID,
		CustomerID:           customer.ID,
		DepositContractID:    depositID,
		PropertyValue:        decimal.NewFromInt(2_000_000_000),
		AdvancePaymentAmount: decimal.NewFromInt(200_000_000),
		CommissionAmount:     decimal.NewFromInt(40_000_000),
		StartDate:            time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:               status,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestRepositoryListDepositContracts(t *testing.T) {
	db := setupContractsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	owner := createUser(t, db, "Nguyen Van Chu")
	customer := createUser(t, db, "Tran Thi Khach")
	property := createProperty(t, db, "Can ho Q7 view song", owner)

	active := createDeposit(t, db, property, customer, enums.ContractStatusActive)
	createDeposit(t, db, property, customer, enums.ContractStatusPendingPayment)
	createPurchase(t, db, property, customer, &active.ID, enums.ContractStatusDraft)

	customerID := customer.ID
	rows, total, err := repo.ListDepositContracts(context.Background(), pagination.Params{Page: 1, Size: 10}, DepositContractFilters{
		CustomerID: &customerID,
		Statuses:   []enums.ContractStatus{enums.ContractStatusActive},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, active.ID, rows[0].ID)
	assert.Equal(t, "Can ho Q7 view song", rows[0].PropertyTitle)
	assert.Equal(t, "Tran Thi Khach", rows[0].CustomerName)
	assert.True(t, rows[0].LinkedToMainContract)
	assert.True(t, rows[0].DepositAmount.Equal(decimal.NewFromInt(500_000_000)))
}

func TestRepositoryListDepositContractsSearch(t *testing.T) {
	db := setupContractsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	owner := createUser(t, db, "Le Van Chu")
	customer := createUser(t, db, "Pham Minh Tuan")
	property := createProperty(t, db, "Biet thu Thao Dien", owner)
	deposit := createDeposit(t, db, property, customer, enums.ContractStatusActive)

	rows, total, err := repo.ListDepositContracts(context.Background(), pagination.Params{}, DepositContractFilters{
		Search:     "thao dien",
		CustomerID: &deposit.CustomerID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].LinkedToMainContract)
}

func TestRepositoryListPurchaseContractsHasDepositFilter(t *testing.T) {
	db := setupContractsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	owner := createUser(t, db, "Chu Nha")
	customer := createUser(t, db, "Khach Mua")
	property := createProperty(t, db, "Nha pho Binh Thanh", owner)
	deposit := createDeposit(t, db, property, customer, enums.ContractStatusActive)
	linked := createPurchase(t, db, property, customer, &deposit.ID, enums.ContractStatusDraft)
	createPurchase(t, db, property, customer, nil, enums.ContractStatusDraft)

	hasDeposit := true
	customerID := customer.ID
	rows, total, err := repo.ListPurchaseContracts(context.Background(), pagination.Params{}, PurchaseContractFilters{
		CustomerID:         &customerID,
		HasDepositContract: &hasDeposit,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, linked.ID, rows[0].ID)
	assert.True(t, rows[0].HasDepositContract)

	hasDeposit = false
	rows, total, err = repo.ListPurchaseContracts(context.Background(), pagination.Params{}, PurchaseContractFilters{
		CustomerID:         &customerID,
		HasDepositContract: &hasDeposit,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasDepositContract)
}

func TestRepositoryUpdateStatusIfIsCompareAndSwap(t *testing.T) {
	db := setupContractsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	owner := createUser(t, db, "Chu Nha")
	customer := createUser(t, db, "Khach Mua")
	property := createProperty(t, db, "Can ho Thu Duc", owner)
	contract := createPurchase(t, db, property, customer, nil, enums.ContractStatusActive)

	rows, err := repo.UpdatePurchaseStatusIf(context.Background(), contract.ID, enums.ContractStatusActive, enums.ContractStatusVoided, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Second caller raced on the same expected status and loses.
	rows, err = repo.UpdatePurchaseStatusIf(context.Background(), contract.ID, enums.ContractStatusActive, enums.ContractStatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	refetched, err := repo.FindPurchaseContract(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ContractStatusVoided, refetched.Status)
}

func TestRepositoryUpdatePurchaseDraftGuardedOnDraft(t *testing.T) {
	db := setupContractsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	owner := createUser(t, db, "Chu Nha")
	customer := createUser(t, db, "Khach Mua")
	property := createProperty(t, db, "Can ho Tan Binh", owner)
	draft := createPurchase(t, db, property, customer, nil, enums.ContractStatusDraft)
	approved := createPurchase(t, db, property, customer, nil, enums.ContractStatusWaitingOfficial)

	newValue := decimal.NewFromInt(3_000_000_000)
	rows, err := repo.UpdatePurchaseDraft(context.Background(), draft.ID, map[string]any{"property_value": newValue})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// A contract that left DRAFT does not accept field edits.
	rows, err = repo.UpdatePurchaseDraft(context.Background(), approved.ID, map[string]any{"property_value": newValue})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	refetched, err := repo.FindPurchaseContract(context.Background(), approved.ID)
	require.NoError(t, err)
	assert.True(t, refetched.PropertyValue.Equal(approved.PropertyValue))
}

func TestRepositoryUpdateStatusIfRecordsCancellation(t *testing.T) {
	db := setupContractsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	owner := createUser(t, db, "Chu Nha")
	customer := createUser(t, db, "Khach Mua")
	property := createProperty(t, db, "Dat nen Cu Chi", owner)
	deposit := createDeposit(t, db, property, customer, enums.ContractStatusActive)

	rows, err := repo.UpdateDepositStatusIf(context.Background(), deposit.ID, enums.ContractStatusActive, enums.ContractStatusCancelled, map[string]any{
		"cancellation_reason": "doi y",
		"cancelled_by":        enums.CancelPartyCustomer,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	refetched, err := repo.FindDepositContract(context.Background(), deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ContractStatusCancelled, refetched.Status)
	require.NotNil(t, refetched.CancellationReason)
	assert.Equal(t, "doi y", *refetched.CancellationReason)
	require.NotNil(t, refetched.CancelledBy)
	assert.Equal(t, enums.CancelPartyCustomer, *refetched.CancelledBy)
}

func TestRepositoryUniqueDepositLinkage(t *testing.T) {
	db := setupContractsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	owner := createUser(t, db, "Chu Nha")
	customer := createUser(t, db, "Khach Mua")
	property := createProperty(t, db, "Can ho Go Vap", owner)
	deposit := createDeposit(t, db, property, customer, enums.ContractStatusActive)
	createPurchase(t, db, property, customer, &deposit.ID, enums.ContractStatusDraft)

	exists, err := repo.ExistsPurchaseForDeposit(context.Background(), deposit.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	duplicate := &models.PurchaseContract{
		ID:                uuid.New(),
		ContractNumber:    "PC-" + uuid.NewString()[:8],
		PropertyID:        property.ID,
		CustomerID:        customer.ID,
		DepositContractID: &deposit.ID,
		PropertyValue:     decimal.NewFromInt(2_000_000_000),
		StartDate:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:            enums.ContractStatusDraft,
	}
	_, err = repo.CreatePurchaseContract(context.Background(), duplicate)
	assert.Error(t, err)
}

func TestRepositoryListContractPayments(t *testing.T) {
	db := setupContractsTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)

	owner := createUser(t, db, "Chu Nha")
	customer := createUser(t, db, "Khach Mua")
	property := createProperty(t, db, "Can ho Q2", owner)
	contract := createPurchase(t, db, property, customer, nil, enums.ContractStatusActive)

	later := &models.Payment{
		ID:           uuid.New(),
		ContractID:   contract.ID,
		ContractType: enums.ContractKindPurchase,
		PaymentType:  enums.PaymentTypeServiceFee,
		Amount:       decimal.NewFromInt(40_000_000),
		DueDate:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Status:       enums.PaymentStatusPending,
	}
	earlier := &models.Payment{
		ID:           uuid.New(),
		ContractID:   contract.ID,
		ContractType: enums.ContractKindPurchase,
		PaymentType:  enums.PaymentTypeAdvance,
		Amount:       decimal.NewFromInt(200_000_000),
		DueDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:       enums.PaymentStatusPending,
	}
	require.NoError(t, db.Create(later).Error)
	require.NoError(t, db.Create(earlier).Error)

	rows, err := repo.ListContractPayments(context.Background(), enums.ContractKindPurchase, contract.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.PaymentTypeAdvance, rows[0].PaymentType)
	assert.Equal(t, enums.PaymentTypeServiceFee, rows[1].PaymentType)
}
