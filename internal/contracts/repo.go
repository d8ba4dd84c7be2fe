package contracts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds the GORM-backed contract repository.
func NewRepository(db *gorm.DB) (Repository, error) {
	if db == nil {
		return nil, errors.New("db handle is required")
	}
	return repository{db: db}, nil
}

func (r repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return repository{db: tx}
}

func (r repository) CreateDepositContract(ctx context.Context, row *models.DepositContract) (*models.DepositContract, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r repository) FindDepositContract(ctx context.Context, id uuid.UUID) (*models.DepositContract, error) {
	var row models.DepositContract
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r repository) FindDepositContractDetail(ctx context.Context, id uuid.UUID) (*models.DepositContract, error) {
	var row models.DepositContract
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Property.Owner").
		Preload("Customer").
		Preload("Agent").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r repository) UpdateDepositStatusIf(ctx context.Context, id uuid.UUID, expected, target enums.ContractStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{"status": target}
	for column, value := range extra {
		updates[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.DepositContract{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r repository) ListDepositContracts(ctx context.Context, params pagination.Params, filters DepositContractFilters) ([]DepositContractSummary, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.DepositContract{}).
		Joins("JOIN properties ON properties.id = deposit_contracts.property_id").
		Joins("JOIN users customers ON customers.id = deposit_contracts.customer_id")
	base = applyDepositFilters(base, filters)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []DepositContractSummary
	err := base.Session(&gorm.Session{}).
		Select(`deposit_contracts.id,
			deposit_contracts.contract_number,
			properties.title AS property_title,
			deposit_contracts.main_contract_type,
			deposit_contracts.status,
			deposit_contracts.start_date,
			deposit_contracts.end_date,
			deposit_contracts.deposit_amount,
			deposit_contracts.agreed_price,
			customers.full_name AS customer_name,
			EXISTS(
				SELECT 1 FROM purchase_contracts pc
				WHERE pc.deposit_contract_id = deposit_contracts.id
			) AS linked_to_main_contract`).
		Order("deposit_contracts.created_at DESC").
		Order("deposit_contracts.id DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyDepositFilters(query *gorm.DB, filters DepositContractFilters) *gorm.DB {
	if search := strings.TrimSpace(filters.Search); search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(deposit_contracts.contract_number) LIKE ? OR LOWER(properties.title) LIKE ? OR LOWER(customers.full_name) LIKE ?",
			needle, needle, needle,
		)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("deposit_contracts.status IN ?", filters.Statuses)
	}
	if filters.CustomerID != nil {
		query = query.Where("deposit_contracts.customer_id = ?", *filters.CustomerID)
	}
	if filters.AgentID != nil {
		query = query.Where("deposit_contracts.agent_id = ?", *filters.AgentID)
	}
	if filters.PropertyID != nil {
		query = query.Where("deposit_contracts.property_id = ?", *filters.PropertyID)
	}
	if filters.OwnerID != nil {
		query = query.Where("properties.owner_id = ?", *filters.OwnerID)
	}
	if filters.StartDateFrom != nil {
		query = query.Where("deposit_contracts.start_date >= ?", *filters.StartDateFrom)
	}
	if filters.StartDateTo != nil {
		query = query.Where("deposit_contracts.start_date <= ?", *filters.StartDateTo)
	}
	if filters.EndDateFrom != nil {
		query = query.Where("deposit_contracts.end_date >= ?", *filters.EndDateFrom)
	}
	if filters.EndDateTo != nil {
		query = query.Where("deposit_contracts.end_date <= ?", *filters.EndDateTo)
	}
	return query
}

func (r repository) CreatePurchaseContract(ctx context.Context, row *models.PurchaseContract) (*models.PurchaseContract, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r repository) FindPurchaseContract(ctx context.Context, id uuid.UUID) (*models.PurchaseContract, error) {
	var row models.PurchaseContract
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r repository) FindPurchaseContractDetail(ctx context.Context, id uuid.UUID) (*models.PurchaseContract, error) {
	var row models.PurchaseContract
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Property.Owner").
		Preload("Customer").
		Preload("Agent").
		Preload("DepositContract").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdatePurchaseDraft applies field edits guarded on DRAFT status. Zero rows
// affected means the contract moved on since the caller read it.
func (r repository) UpdatePurchaseDraft(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.PurchaseContract{}).
		Where("id = ? AND status = ?", id, enums.ContractStatusDraft).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r repository) UpdatePurchaseStatusIf(ctx context.Context, id uuid.UUID, expected, target enums.ContractStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{"status": target}
	for column, value := range extra {
		updates[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.PurchaseContract{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r repository) ListPurchaseContracts(ctx context.Context, params pagination.Params, filters PurchaseContractFilters) ([]PurchaseContractSummary, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.PurchaseContract{}).
		Joins("JOIN properties ON properties.id = purchase_contracts.property_id").
		Joins("JOIN users customers ON customers.id = purchase_contracts.customer_id")
	base = applyPurchaseFilters(base, filters)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []PurchaseContractSummary
	err := base.Session(&gorm.Session{}).
		Select(`purchase_contracts.id,
			purchase_contracts.contract_number,
			properties.title AS property_title,
			purchase_contracts.status,
			purchase_contracts.start_date,
			purchase_contracts.property_value,
			purchase_contracts.advance_payment_amount,
			purchase_contracts.commission_amount,
			customers.full_name AS customer_name,
			(purchase_contracts.deposit_contract_id IS NOT NULL) AS has_deposit_contract`).
		Order("purchase_contracts.created_at DESC").
		Order("purchase_contracts.id DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyPurchaseFilters(query *gorm.DB, filters PurchaseContractFilters) *gorm.DB {
	if search := strings.TrimSpace(filters.Search); search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(purchase_contracts.contract_number) LIKE ? OR LOWER(properties.title) LIKE ? OR LOWER(customers.full_name) LIKE ?",
			needle, needle, needle,
		)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("purchase_contracts.status IN ?", filters.Statuses)
	}
	if filters.CustomerID != nil {
		query = query.Where("purchase_contracts.customer_id = ?", *filters.CustomerID)
	}
	if filters.AgentID != nil {
		query = query.Where("purchase_contracts.agent_id = ?", *filters.AgentID)
	}
	if filters.PropertyID != nil {
		query = query.Where("purchase_contracts.property_id = ?", *filters.PropertyID)
	}
	if filters.OwnerID != nil {
		query = query.Where("properties.owner_id = ?", *filters.OwnerID)
	}
	if filters.StartDateFrom != nil {
		query = query.Where("purchase_contracts.start_date >= ?", *filters.StartDateFrom)
	}
	if filters.StartDateTo != nil {
		query = query.Where("purchase_contracts.start_date <= ?", *filters.StartDateTo)
	}
	if filters.HasDepositContract != nil {
		if *filters.HasDepositContract {
			query = query.Where("purchase_contracts.deposit_contract_id IS NOT NULL")
		} else {
			query = query.Where("purchase_contracts.deposit_contract_id IS NULL")
		}
	}
	return query
}

func (r repository) ExistsPurchaseForDeposit(ctx context.Context, depositContractID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseContract{}).
		Where("deposit_contract_id = ?", depositContractID).
		Count(&count).Error
	return count > 0, err
}

func (r repository) ListContractPayments(ctx context.Context, kind enums.ContractKind, contractID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("contract_id = ? AND contract_type = ?", contractID, kind).
		Order("due_date ASC").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r repository) FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var row models.Property
	if err := r.db.WithContext(ctx).Preload("Owner").First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
