package contracts

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
)

// resolveLink validates the optional deposit-contract reference on a purchase
// draft. A nil result with nil error means the draft is independent. The
// eligibility and one-to-one checks run again here even though the picker UI
// pre-filters, because the picker result can be stale by submission time. The
// partial unique index on purchase_contracts.deposit_contract_id closes the
// remaining race window.
func resolveLink(ctx context.Context, repo Repository, draft PurchaseDraft) (*models.DepositContract, error) {
	if draft.DepositContractID == nil {
		return nil, nil
	}

	deposit, err := repo.FindDepositContract(ctx, *draft.DepositContractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit contract not found").
				WithReason(pkgerrors.ReasonDepositNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading deposit contract")
	}

	if deposit.Status != enums.ContractStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "deposit contract is not active").
			WithReason(pkgerrors.ReasonDepositNotEligible)
	}

	linked, err := repo.ExistsPurchaseForDeposit(ctx, deposit.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking deposit linkage")
	}
	if linked {
		return nil, depositAlreadyLinkedError()
	}

	if !draft.PropertyValue.Equal(deposit.AgreedPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "propertyValue must equal the linked deposit's agreedPrice").
			WithReason(pkgerrors.ReasonPriceMismatch)
	}

	return deposit, nil
}

func depositAlreadyLinkedError() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConflict, "deposit contract is already linked to another purchase contract").
		WithReason(pkgerrors.ReasonDepositAlreadyLinked)
}
