package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OneKeyCoder/batdongscam-backend/api/responses"
	"github.com/OneKeyCoder/batdongscam-backend/api/validators"
	"github.com/OneKeyCoder/batdongscam-backend/internal/payments"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/logger"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/pagination"
)

// PaymentsService is the slice of the payments service the payment handlers call.
type PaymentsService interface {
	RecordPayment(ctx context.Context, input payments.RecordPaymentInput, actor payments.Actor) (*payments.PaymentSummary, error)
	RecordSettlement(ctx context.Context, input payments.SettlementInput) (*payments.PaymentSummary, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*payments.PaymentSummary, error)
	ListPayments(ctx context.Context, params pagination.Params, filters payments.PaymentFilters) (pagination.Page[payments.PaymentSummary], error)
}

type recordPaymentRequest struct {
	ContractID   uuid.UUID       `json:"contractId" validate:"required"`
	ContractType string          `json:"contractType" validate:"required,oneof=DEPOSIT PURCHASE"`
	PaymentType  string          `json:"paymentType" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	DueDate      time.Time       `json:"dueDate" validate:"required"`
	PayerID      *uuid.UUID      `json:"payerId,omitempty"`
	PayeeID      *uuid.UUID      `json:"payeeId,omitempty"`
	Note         *string         `json:"note,omitempty"`
}

func (req recordPaymentRequest) toInput() (payments.RecordPaymentInput, error) {
	kind, err := enums.ParseContractKind(req.ContractType)
	if err != nil {
		return payments.RecordPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contract type")
	}
	paymentType, err := enums.ParsePaymentType(req.PaymentType)
	if err != nil {
		return payments.RecordPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment type")
	}
	return payments.RecordPaymentInput{
		ContractID:  req.ContractID,
		Kind:        kind,
		PaymentType: paymentType,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		PayerID:     req.PayerID,
		PayeeID:     req.PayeeID,
		Note:        req.Note,
	}, nil
}

type settlePaymentRequest struct {
	Outcome  string     `json:"outcome" validate:"required,oneof=success failure"`
	PaidTime *time.Time `json:"paidTime,omitempty"`
}

// RecordPayment handles POST /api/v1/payments.
func RecordPayment(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.RecordPayment(r.Context(), input, payments.Actor{UserID: actor.UserID, Role: actor.Role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

// SettlePayment handles POST /api/v1/payments/{paymentId}/settle.
func SettlePayment(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload settlePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paidTime := time.Now().UTC()
		if payload.PaidTime != nil {
			paidTime = payload.PaidTime.UTC()
		}

		summary, err := svc.RecordSettlement(r.Context(), payments.SettlementInput{
			PaymentID: id,
			PaidTime:  paidTime,
			Outcome:   payments.SettlementOutcome(payload.Outcome),
			Actor:     payments.Actor{UserID: actor.UserID, Role: actor.Role},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// GetPayment handles GET /api/v1/payments/{paymentId}.
func GetPayment(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.GetPayment(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ListPayments handles GET /api/v1/payments.
func ListPayments(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := paymentFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPayments(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func paymentFiltersFromQuery(r *http.Request) (payments.PaymentFilters, error) {
	var filters payments.PaymentFilters
	var err error

	if filters.ContractID, err = validators.ParseQueryUUID(r, "contractId"); err != nil {
		return payments.PaymentFilters{}, err
	}
	if raw := r.URL.Query().Get("contractType"); raw != "" {
		kind, parseErr := enums.ParseContractKind(raw)
		if parseErr != nil {
			return payments.PaymentFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid contract type filter")
		}
		filters.Kind = &kind
	}
	for _, raw := range validators.ParseQueryList(r, "statuses") {
		status, parseErr := enums.ParsePaymentStatus(raw)
		if parseErr != nil {
			return payments.PaymentFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment status filter")
		}
		filters.Statuses = append(filters.Statuses, status)
	}
	if filters.PayerID, err = validators.ParseQueryUUID(r, "payerId"); err != nil {
		return payments.PaymentFilters{}, err
	}
	if filters.PayeeID, err = validators.ParseQueryUUID(r, "payeeId"); err != nil {
		return payments.PaymentFilters{}, err
	}
	if filters.DueDateFrom, err = validators.ParseQueryDate(r, "dueDateFrom"); err != nil {
		return payments.PaymentFilters{}, err
	}
	if filters.DueDateTo, err = validators.ParseQueryDate(r, "dueDateTo"); err != nil {
		return payments.PaymentFilters{}, err
	}
	if filters.AmountMin, err = validators.ParseQueryDecimal(r, "amountMin"); err != nil {
		return payments.PaymentFilters{}, err
	}
	if filters.AmountMax, err = validators.ParseQueryDecimal(r, "amountMax"); err != nil {
		return payments.PaymentFilters{}, err
	}
	return filters, nil
}
