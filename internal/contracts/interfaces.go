package contracts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/pagination"
)

// Repository exposes contract persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateDepositContract(ctx context.Context, row *models.DepositContract) (*models.DepositContract, error)
	FindDepositContract(ctx context.Context, id uuid.UUID) (*models.DepositContract, error)
	FindDepositContractDetail(ctx context.Context, id uuid.UUID) (*models.DepositContract, error)
	UpdateDepositStatusIf(ctx context.Context, id uuid.UUID, expected, target enums.ContractStatus, extra map[string]any) (int64, error)
	ListDepositContracts(ctx context.Context, params pagination.Params, filters DepositContractFilters) ([]DepositContractSummary, int64, error)

	CreatePurchaseContract(ctx context.Context, row *models.PurchaseContract) (*models.PurchaseContract, error)
	FindPurchaseContract(ctx context.Context, id uuid.UUID) (*models.PurchaseContract, error)
	FindPurchaseContractDetail(ctx context.Context, id uuid.UUID) (*models.PurchaseContract, error)
	UpdatePurchaseDraft(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	UpdatePurchaseStatusIf(ctx context.Context, id uuid.UUID, expected, target enums.ContractStatus, extra map[string]any) (int64, error)
	ListPurchaseContracts(ctx context.Context, params pagination.Params, filters PurchaseContractFilters) ([]PurchaseContractSummary, int64, error)
	ExistsPurchaseForDeposit(ctx context.Context, depositContractID uuid.UUID) (bool, error)

	ListContractPayments(ctx context.Context, kind enums.ContractKind, contractID uuid.UUID) ([]models.Payment, error)
	FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
}
