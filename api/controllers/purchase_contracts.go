package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OneKeyCoder/batdongscam-backend/api/responses"
	"github.com/OneKeyCoder/batdongscam-backend/api/validators"
	"github.com/OneKeyCoder/batdongscam-backend/internal/contracts"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/logger"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/pagination"
)

// PurchaseContractsService is the slice of the contracts service the purchase
// contract handlers call.
type PurchaseContractsService interface {
	CreatePurchaseContract(ctx context.Context, draft contracts.PurchaseDraft, actor contracts.Actor) (*contracts.PurchaseContractSummary, error)
	UpdatePurchaseContract(ctx context.Context, id uuid.UUID, upd contracts.PurchaseUpdate, actor contracts.Actor) (*contracts.PurchaseContractSummary, error)
	GetPurchaseContract(ctx context.Context, id uuid.UUID) (*contracts.PurchaseContractDetail, error)
	ListPurchaseContracts(ctx context.Context, params pagination.Params, filters contracts.PurchaseContractFilters) (pagination.Page[contracts.PurchaseContractSummary], error)
	ApprovePurchaseContract(ctx context.Context, id uuid.UUID, actor contracts.Actor) (*contracts.PurchaseContractSummary, error)
	CompletePurchasePaperwork(ctx context.Context, id uuid.UUID, actor contracts.Actor) (*contracts.PurchaseContractSummary, error)
	VoidPurchaseContract(ctx context.Context, id uuid.UUID, actor contracts.Actor) (*contracts.PurchaseContractSummary, error)
	CancelPurchaseContract(ctx context.Context, input contracts.CancelInput) (*contracts.PurchaseContractSummary, error)
}

type createPurchaseContractRequest struct {
	PropertyID           uuid.UUID       `json:"propertyId" validate:"required"`
	CustomerID           uuid.UUID       `json:"customerId" validate:"required"`
	AgentID              *uuid.UUID      `json:"agentId,omitempty"`
	DepositContractID    *uuid.UUID      `json:"depositContractId,omitempty"`
	ContractNumber       string          `json:"contractNumber,omitempty"`
	PropertyValue        decimal.Decimal `json:"propertyValue" validate:"required"`
	AdvancePaymentAmount decimal.Decimal `json:"advancePaymentAmount"`
	CommissionAmount     decimal.Decimal `json:"commissionAmount"`
	StartDate            time.Time       `json:"startDate" validate:"required"`
	SpecialTerms         *string         `json:"specialTerms,omitempty"`
}

func (req createPurchaseContractRequest) toDraft() contracts.PurchaseDraft {
	return contracts.PurchaseDraft{
		ContractNumber:       req.ContractNumber,
		PropertyID:           req.PropertyID,
		CustomerID:           req.CustomerID,
		AgentID:              req.AgentID,
		DepositContractID:    req.DepositContractID,
		PropertyValue:        req.PropertyValue,
		AdvancePaymentAmount: req.AdvancePaymentAmount,
		CommissionAmount:     req.CommissionAmount,
		StartDate:            req.StartDate,
		SpecialTerms:         req.SpecialTerms,
	}
}

type updatePurchaseContractRequest struct {
	PropertyValue        *decimal.Decimal `json:"propertyValue,omitempty"`
	AdvancePaymentAmount *decimal.Decimal `json:"advancePaymentAmount,omitempty"`
	CommissionAmount     *decimal.Decimal `json:"commissionAmount,omitempty"`
	StartDate            *time.Time       `json:"startDate,omitempty"`
	SpecialTerms         *string          `json:"specialTerms,omitempty"`
}

func (req updatePurchaseContractRequest) toUpdate() contracts.PurchaseUpdate {
	return contracts.PurchaseUpdate{
		PropertyValue:        req.PropertyValue,
		AdvancePaymentAmount: req.AdvancePaymentAmount,
		CommissionAmount:     req.CommissionAmount,
		StartDate:            req.StartDate,
		SpecialTerms:         req.SpecialTerms,
	}
}

// CreatePurchaseContract handles POST /api/v1/purchase-contracts.
func CreatePurchaseContract(svc PurchaseContractsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPurchaseContractRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.CreatePurchaseContract(r.Context(), payload.toDraft(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

// UpdatePurchaseContract handles PATCH /api/v1/purchase-contracts/{contractId}.
func UpdatePurchaseContract(svc PurchaseContractsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseUUIDParam(r, "contractId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePurchaseContractRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.UpdatePurchaseContract(r.Context(), id, payload.toUpdate(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ListPurchaseContracts handles GET /api/v1/purchase-contracts.
func ListPurchaseContracts(svc PurchaseContractsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := purchaseFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPurchaseContracts(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// GetPurchaseContract handles GET /api/v1/purchase-contracts/{contractId}.
func GetPurchaseContract(svc PurchaseContractsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "contractId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetPurchaseContract(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// ApprovePurchaseContract handles POST /api/v1/purchase-contracts/{contractId}/approve.
func ApprovePurchaseContract(svc PurchaseContractsService, logg *logger.Logger) http.HandlerFunc {
	return purchaseTransition(svc, logg, func(ctx context.Context, id uuid.UUID, actor contracts.Actor) (*contracts.PurchaseContractSummary, error) {
		return svc.ApprovePurchaseContract(ctx, id, actor)
	})
}

// CompletePurchasePaperwork handles POST /api/v1/purchase-contracts/{contractId}/complete-paperwork.
func CompletePurchasePaperwork(svc PurchaseContractsService, logg *logger.Logger) http.HandlerFunc {
	return purchaseTransition(svc, logg, func(ctx context.Context, id uuid.UUID, actor contracts.Actor) (*contracts.PurchaseContractSummary, error) {
		return svc.CompletePurchasePaperwork(ctx, id, actor)
	})
}

// VoidPurchaseContract handles POST /api/v1/purchase-contracts/{contractId}/void.
func VoidPurchaseContract(svc PurchaseContractsService, logg *logger.Logger) http.HandlerFunc {
	return purchaseTransition(svc, logg, func(ctx context.Context, id uuid.UUID, actor contracts.Actor) (*contracts.PurchaseContractSummary, error) {
		return svc.VoidPurchaseContract(ctx, id, actor)
	})
}

// CancelPurchaseContract handles POST /api/v1/purchase-contracts/{contractId}/cancel.
func CancelPurchaseContract(svc PurchaseContractsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseUUIDParam(r, "contractId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelContractRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		party, err := enums.ParseCancelParty(payload.CancelledBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cancelling party"))
			return
		}

		summary, err := svc.CancelPurchaseContract(r.Context(), contracts.CancelInput{
			ContractID: id,
			Reason:     payload.Reason,
			Party:      party,
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func purchaseTransition(svc PurchaseContractsService, logg *logger.Logger, apply func(context.Context, uuid.UUID, contracts.Actor) (*contracts.PurchaseContractSummary, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseUUIDParam(r, "contractId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := apply(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func purchaseFiltersFromQuery(r *http.Request) (contracts.PurchaseContractFilters, error) {
	filters := contracts.PurchaseContractFilters{
		Search: r.URL.Query().Get("search"),
	}

	statuses, err := contractStatusesFromQuery(r)
	if err != nil {
		return contracts.PurchaseContractFilters{}, err
	}
	filters.Statuses = statuses

	if filters.CustomerID, err = validators.ParseQueryUUID(r, "customerId"); err != nil {
		return contracts.PurchaseContractFilters{}, err
	}
	if filters.AgentID, err = validators.ParseQueryUUID(r, "agentId"); err != nil {
		return contracts.PurchaseContractFilters{}, err
	}
	if filters.PropertyID, err = validators.ParseQueryUUID(r, "propertyId"); err != nil {
		return contracts.PurchaseContractFilters{}, err
	}
	if filters.OwnerID, err = validators.ParseQueryUUID(r, "ownerId"); err != nil {
		return contracts.PurchaseContractFilters{}, err
	}
	if filters.StartDateFrom, err = validators.ParseQueryDate(r, "startDateFrom"); err != nil {
		return contracts.PurchaseContractFilters{}, err
	}
	if filters.StartDateTo, err = validators.ParseQueryDate(r, "startDateTo"); err != nil {
		return contracts.PurchaseContractFilters{}, err
	}
	if filters.HasDepositContract, err = validators.ParseQueryBool(r, "hasDepositContract"); err != nil {
		return contracts.PurchaseContractFilters{}, err
	}
	return filters, nil
}
