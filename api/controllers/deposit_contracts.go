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

// DepositContractsService is the slice of the contracts service the deposit
// contract handlers call.
type DepositContractsService interface {
	CreateDepositContract(ctx context.Context, draft contracts.DepositDraft, actor contracts.Actor) (*contracts.DepositContractSummary, error)
	GetDepositContract(ctx context.Context, id uuid.UUID) (*contracts.DepositContractDetail, error)
	ListDepositContracts(ctx context.Context, params pagination.Params, filters contracts.DepositContractFilters) (pagination.Page[contracts.DepositContractSummary], error)
	VoidDepositContract(ctx context.Context, id uuid.UUID, actor contracts.Actor) (*contracts.DepositContractSummary, error)
	CancelDepositContract(ctx context.Context, input contracts.CancelInput) (*contracts.DepositContractSummary, error)
}

type createDepositContractRequest struct {
	PropertyID          uuid.UUID        `json:"propertyId" validate:"required"`
	CustomerID          uuid.UUID        `json:"customerId" validate:"required"`
	AgentID             *uuid.UUID       `json:"agentId,omitempty"`
	ContractNumber      string           `json:"contractNumber,omitempty"`
	MainContractType    string           `json:"mainContractType" validate:"required,oneof=PURCHASE RENTAL"`
	DepositAmount       decimal.Decimal  `json:"depositAmount" validate:"required"`
	AgreedPrice         decimal.Decimal  `json:"agreedPrice" validate:"required"`
	CancellationPenalty *decimal.Decimal `json:"cancellationPenalty,omitempty"`
	StartDate           time.Time        `json:"startDate" validate:"required"`
	EndDate             *time.Time       `json:"endDate,omitempty"`
	SpecialTerms        *string          `json:"specialTerms,omitempty"`
}

func (req createDepositContractRequest) toDraft() (contracts.DepositDraft, error) {
	mainType, err := enums.ParseMainContractType(req.MainContractType)
	if err != nil {
		return contracts.DepositDraft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid main contract type")
	}
	return contracts.DepositDraft{
		ContractNumber:      req.ContractNumber,
		PropertyID:          req.PropertyID,
		CustomerID:          req.CustomerID,
		AgentID:             req.AgentID,
		MainContractType:    mainType,
		DepositAmount:       req.DepositAmount,
		AgreedPrice:         req.AgreedPrice,
		CancellationPenalty: req.CancellationPenalty,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		SpecialTerms:        req.SpecialTerms,
	}, nil
}

type cancelContractRequest struct {
	Reason      string `json:"reason" validate:"required,min=3,max=2000"`
	CancelledBy string `json:"cancelledBy" validate:"required,oneof=CUSTOMER OWNER"`
}

// CreateDepositContract handles POST /api/v1/deposit-contracts.
func CreateDepositContract(svc DepositContractsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createDepositContractRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := payload.toDraft()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.CreateDepositContract(r.Context(), draft, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

// ListDepositContracts handles GET /api/v1/deposit-contracts.
func ListDepositContracts(svc DepositContractsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := depositFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListDepositContracts(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// GetDepositContract handles GET /api/v1/deposit-contracts/{contractId}.
func GetDepositContract(svc DepositContractsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "contractId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetDepositContract(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// VoidDepositContract handles POST /api/v1/deposit-contracts/{contractId}/void.
func VoidDepositContract(svc DepositContractsService, logg *logger.Logger) http.HandlerFunc {
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

		summary, err := svc.VoidDepositContract(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CancelDepositContract handles POST /api/v1/deposit-contracts/{contractId}/cancel.
func CancelDepositContract(svc DepositContractsService, logg *logger.Logger) http.HandlerFunc {
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

		summary, err := svc.CancelDepositContract(r.Context(), contracts.CancelInput{
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

func depositFiltersFromQuery(r *http.Request) (contracts.DepositContractFilters, error) {
	filters := contracts.DepositContractFilters{
		Search: r.URL.Query().Get("search"),
	}

	statuses, err := contractStatusesFromQuery(r)
	if err != nil {
		return contracts.DepositContractFilters{}, err
	}
	filters.Statuses = statuses

	if filters.CustomerID, err = validators.ParseQueryUUID(r, "customerId"); err != nil {
		return contracts.DepositContractFilters{}, err
	}
	if filters.AgentID, err = validators.ParseQueryUUID(r, "agentId"); err != nil {
		return contracts.DepositContractFilters{}, err
	}
	if filters.PropertyID, err = validators.ParseQueryUUID(r, "propertyId"); err != nil {
		return contracts.DepositContractFilters{}, err
	}
	if filters.OwnerID, err = validators.ParseQueryUUID(r, "ownerId"); err != nil {
		return contracts.DepositContractFilters{}, err
	}
	if filters.StartDateFrom, err = validators.ParseQueryDate(r, "startDateFrom"); err != nil {
		return contracts.DepositContractFilters{}, err
	}
	if filters.StartDateTo, err = validators.ParseQueryDate(r, "startDateTo"); err != nil {
		return contracts.DepositContractFilters{}, err
	}
	if filters.EndDateFrom, err = validators.ParseQueryDate(r, "endDateFrom"); err != nil {
		return contracts.DepositContractFilters{}, err
	}
	if filters.EndDateTo, err = validators.ParseQueryDate(r, "endDateTo"); err != nil {
		return contracts.DepositContractFilters{}, err
	}
	return filters, nil
}

func contractStatusesFromQuery(r *http.Request) ([]enums.ContractStatus, error) {
	raw := validators.ParseQueryList(r, "statuses")
	if len(raw) == 0 {
		return nil, nil
	}
	statuses := make([]enums.ContractStatus, 0, len(raw))
	for _, value := range raw {
		status, err := enums.ParseContractStatus(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contract status filter")
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
