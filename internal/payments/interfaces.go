package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/pagination"
)

// Repository exposes payment ledger persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, row *models.Payment) (*models.Payment, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ExistsForContract(ctx context.Context, kind enums.ContractKind, contractID uuid.UUID, paymentType enums.PaymentType) (bool, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected enums.PaymentStatus, updates map[string]any) (int64, error)
	List(ctx context.Context, params pagination.Params, filters PaymentFilters) ([]models.Payment, int64, error)
	ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
	FindPropertyOwner(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error)
}
