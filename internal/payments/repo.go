package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds the GORM-backed payment repository.
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

func (r repository) Create(ctx context.Context, row *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r repository) Find(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var row models.Payment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r repository) ExistsForContract(ctx context.Context, kind enums.ContractKind, contractID uuid.UUID, paymentType enums.PaymentType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("contract_id = ? AND contract_type = ? AND payment_type = ?", contractID, kind, paymentType).
		Count(&count).Error
	return count > 0, err
}

func (r repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected enums.PaymentStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r repository) List(ctx context.Context, params pagination.Params, filters PaymentFilters) ([]models.Payment, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Payment{})
	base = applyPaymentFilters(base, filters)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Payment
	err := base.Session(&gorm.Session{}).
		Order("due_date ASC").
		Order("created_at ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyPaymentFilters(query *gorm.DB, filters PaymentFilters) *gorm.DB {
	if filters.ContractID != nil {
		query = query.Where("contract_id = ?", *filters.ContractID)
	}
	if filters.Kind != nil {
		query = query.Where("contract_type = ?", *filters.Kind)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", filters.Statuses)
	}
	if filters.PayerID != nil {
		query = query.Where("payer_id = ?", *filters.PayerID)
	}
	if filters.PayeeID != nil {
		query = query.Where("payee_id = ?", *filters.PayeeID)
	}
	if filters.DueDateFrom != nil {
		query = query.Where("due_date >= ?", *filters.DueDateFrom)
	}
	if filters.DueDateTo != nil {
		query = query.Where("due_date <= ?", *filters.DueDateTo)
	}
	if filters.AmountMin != nil {
		query = query.Where("amount >= ?", *filters.AmountMin)
	}
	if filters.AmountMax != nil {
		query = query.Where("amount <= ?", *filters.AmountMax)
	}
	return query
}

func (r repository) ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND due_date < ?", []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusSystemPending}, cutoff).
		Order("due_date ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r repository) FindPropertyOwner(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).Select("id", "owner_id").First(&property, "id = ?", propertyID).Error; err != nil {
		return uuid.Nil, err
	}
	return property.OwnerID, nil
}
