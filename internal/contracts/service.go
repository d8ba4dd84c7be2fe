package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/OneKeyCoder/batdongscam-backend/pkg/db"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/logger"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/metrics"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/outbox"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// paymentScheduler is the slice of the payment ledger the contract lifecycle
// needs. Scheduling must be idempotent per contract so transition retries do
// not duplicate rows.
type paymentScheduler interface {
	ScheduleDepositPayment(ctx context.Context, tx *gorm.DB, contract *models.DepositContract) error
	ScheduleApprovalPayments(ctx context.Context, tx *gorm.DB, contract *models.PurchaseContract) error
	SchedulePenalty(ctx context.Context, tx *gorm.DB, req PenaltyRequest) error
}

// PenaltyRequest describes the forfeiture payment scheduled on cancellation.
type PenaltyRequest struct {
	Kind       enums.ContractKind
	ContractID uuid.UUID
	Amount     decimal.Decimal
	PayerID    *uuid.UUID
	PayeeID    *uuid.UUID
	Note       string
}

// Service owns the contract lifecycle: creation, draft updates, reads, and
// the guarded status transitions.
type Service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	scheduler paymentScheduler
	metrics   *metrics.ContractMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	scheduler paymentScheduler,
	contractMetrics *metrics.ContractMetrics,
	logg *logger.Logger,
) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if outboxSvc == nil {
		return nil, errors.New("outbox publisher is required")
	}
	if scheduler == nil {
		return nil, errors.New("payment scheduler is required")
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		outbox:    outboxSvc,
		scheduler: scheduler,
		metrics:   contractMetrics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

type depositContractEventData struct {
	ContractID     uuid.UUID            `json:"contractId"`
	ContractNumber string               `json:"contractNumber"`
	Status         enums.ContractStatus `json:"status"`
}

type purchaseContractEventData struct {
	ContractID        uuid.UUID            `json:"contractId"`
	ContractNumber    string               `json:"contractNumber"`
	Status            enums.ContractStatus `json:"status"`
	DepositContractID *uuid.UUID           `json:"depositContractId,omitempty"`
}

type contractCancelledEventData struct {
	ContractID  uuid.UUID          `json:"contractId"`
	Kind        enums.ContractKind `json:"kind"`
	Reason      string             `json:"reason"`
	CancelledBy enums.CancelParty  `json:"cancelledBy"`
}

// CreateDepositContract validates and persists a new deposit contract. The
// contract is created in DRAFT and advanced to PENDING_PAYMENT in the same
// transaction, with the earnest-money payment already scheduled; settlement
// of that payment activates it.
func (s *Service) CreateDepositContract(ctx context.Context, draft DepositDraft, actor Actor) (*DepositContractSummary, error) {
	ApplyDepositDefaults(&draft)
	if violations := ValidateDepositDraft(draft); len(violations) > 0 {
		return nil, violationsError(violations)
	}

	number := strings.TrimSpace(draft.ContractNumber)
	if number == "" {
		number = s.generateContractNumber("DC")
	}

	row := &models.DepositContract{
		ContractNumber:      number,
		PropertyID:          draft.PropertyID,
		CustomerID:          draft.CustomerID,
		AgentID:             draft.AgentID,
		MainContractType:    draft.MainContractType,
		DepositAmount:       draft.DepositAmount,
		AgreedPrice:         draft.AgreedPrice,
		CancellationPenalty: *draft.CancellationPenalty,
		StartDate:           draft.StartDate,
		EndDate:             draft.EndDate,
		SpecialTerms:        draft.SpecialTerms,
		Status:              enums.ContractStatusDraft,
	}

	var summary *DepositContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		property, err := txRepo.FindProperty(ctx, draft.PropertyID)
		if err != nil {
			return loadError(err, "property")
		}

		created, err := txRepo.CreateDepositContract(ctx, row)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "contract number already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating deposit contract")
		}

		// Server policy: a fresh deposit contract immediately awaits its
		// earnest-money payment.
		rows, err := txRepo.UpdateDepositStatusIf(ctx, created.ID, enums.ContractStatusDraft, enums.ContractStatusPendingPayment, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advancing deposit contract to pending payment")
		}
		if rows == 0 {
			return s.staleDeposit(ctx, txRepo, created.ID, actionAwaitPayment)
		}
		created.Status = enums.ContractStatusPendingPayment

		if err := s.scheduler.ScheduleDepositPayment(ctx, tx, created); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDepositContractCreated,
			AggregateType: enums.AggregateDepositContract,
			AggregateID:   created.ID,
			Actor:         buildActor(actor),
			Data: depositContractEventData{
				ContractID:     created.ID,
				ContractNumber: created.ContractNumber,
				Status:         created.Status,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		detail, err := txRepo.FindDepositContractDetail(ctx, created.ID)
		if err != nil {
			return loadError(err, "deposit contract")
		}
		summary = depositSummaryFromModel(detail, property, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithContractID(ctx, summary.ID.String())
		s.logg.Info(logCtx, "deposit contract created")
	}
	return summary, nil
}

// CreatePurchaseContract validates, resolves the optional deposit linkage and
// persists a new purchase contract in DRAFT.
func (s *Service) CreatePurchaseContract(ctx context.Context, draft PurchaseDraft, actor Actor) (*PurchaseContractSummary, error) {
	if violations := ValidatePurchaseDraft(draft); len(violations) > 0 {
		return nil, violationsError(violations)
	}

	number := strings.TrimSpace(draft.ContractNumber)
	if number == "" {
		number = s.generateContractNumber("PC")
	}

	var summary *PurchaseContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		property, err := txRepo.FindProperty(ctx, draft.PropertyID)
		if err != nil {
			return loadError(err, "property")
		}

		deposit, err := resolveLink(ctx, txRepo, draft)
		if err != nil {
			return err
		}

		row := &models.PurchaseContract{
			ContractNumber:       number,
			PropertyID:           draft.PropertyID,
			CustomerID:           draft.CustomerID,
			AgentID:              draft.AgentID,
			PropertyValue:        draft.PropertyValue,
			AdvancePaymentAmount: draft.AdvancePaymentAmount,
			CommissionAmount:     draft.CommissionAmount,
			StartDate:            draft.StartDate,
			SpecialTerms:         draft.SpecialTerms,
			Status:               enums.ContractStatusDraft,
		}
		if deposit != nil {
			row.DepositContractID = &deposit.ID
		}

		created, err := txRepo.CreatePurchaseContract(ctx, row)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_purchase_contracts_deposit_contract_id") {
				return depositAlreadyLinkedError()
			}
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "contract number already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating purchase contract")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseContractCreated,
			AggregateType: enums.AggregatePurchaseContract,
			AggregateID:   created.ID,
			Actor:         buildActor(actor),
			Data: purchaseContractEventData{
				ContractID:        created.ID,
				ContractNumber:    created.ContractNumber,
				Status:            created.Status,
				DepositContractID: created.DepositContractID,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		detail, err := txRepo.FindPurchaseContractDetail(ctx, created.ID)
		if err != nil {
			return loadError(err, "purchase contract")
		}
		summary = purchaseSummaryFromModel(detail, property)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithContractID(ctx, summary.ID.String())
		s.logg.Info(logCtx, "purchase contract created")
	}
	return summary, nil
}

// UpdatePurchaseContract applies a partial update to a DRAFT purchase
// contract. Nil fields are dropped, not cleared. The deposit linkage is fixed
// at creation and cannot be touched here.
func (s *Service) UpdatePurchaseContract(ctx context.Context, id uuid.UUID, upd PurchaseUpdate, actor Actor) (*PurchaseContractSummary, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contract id is required")
	}

	var summary *PurchaseContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		current, err := txRepo.FindPurchaseContract(ctx, id)
		if err != nil {
			return loadError(err, "purchase contract")
		}
		if current.Status != enums.ContractStatusDraft {
			return transitionError(actionUpdate, current.Status)
		}

		merged := PurchaseDraft{
			ContractNumber:       current.ContractNumber,
			PropertyID:           current.PropertyID,
			CustomerID:           current.CustomerID,
			AgentID:              current.AgentID,
			DepositContractID:    current.DepositContractID,
			PropertyValue:        current.PropertyValue,
			AdvancePaymentAmount: current.AdvancePaymentAmount,
			CommissionAmount:     current.CommissionAmount,
			StartDate:            current.StartDate,
			SpecialTerms:         current.SpecialTerms,
		}
		updates := map[string]any{}
		if upd.PropertyValue != nil {
			merged.PropertyValue = *upd.PropertyValue
			updates["property_value"] = *upd.PropertyValue
		}
		if upd.AdvancePaymentAmount != nil {
			merged.AdvancePaymentAmount = *upd.AdvancePaymentAmount
			updates["advance_payment_amount"] = *upd.AdvancePaymentAmount
		}
		if upd.CommissionAmount != nil {
			merged.CommissionAmount = *upd.CommissionAmount
			updates["commission_amount"] = *upd.CommissionAmount
		}
		if upd.StartDate != nil {
			merged.StartDate = *upd.StartDate
			updates["start_date"] = *upd.StartDate
		}
		if upd.SpecialTerms != nil {
			merged.SpecialTerms = upd.SpecialTerms
			updates["special_terms"] = *upd.SpecialTerms
		}

		if violations := ValidatePurchaseDraft(merged); len(violations) > 0 {
			return violationsError(violations)
		}

		if len(updates) > 0 {
			// Guarded on DRAFT so a concurrent approve committing between the
			// read above and this write cannot receive field edits.
			rows, err := txRepo.UpdatePurchaseDraft(ctx, id, updates)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating purchase contract")
			}
			if rows == 0 {
				return s.stalePurchase(ctx, txRepo, id, actionUpdate)
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPurchaseContractUpdated,
				AggregateType: enums.AggregatePurchaseContract,
				AggregateID:   current.ID,
				Actor:         buildActor(actor),
				Data: purchaseContractEventData{
					ContractID:        current.ID,
					ContractNumber:    current.ContractNumber,
					Status:            current.Status,
					DepositContractID: current.DepositContractID,
				},
				Version: 1,
			}); err != nil {
				return err
			}
		}

		detail, err := txRepo.FindPurchaseContractDetail(ctx, id)
		if err != nil {
			return loadError(err, "purchase contract")
		}
		summary = purchaseSummaryFromModel(detail, detail.Property)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetDepositContract returns the full detail view for one deposit contract.
func (s *Service) GetDepositContract(ctx context.Context, id uuid.UUID) (*DepositContractDetail, error) {
	row, err := s.repo.FindDepositContractDetail(ctx, id)
	if err != nil {
		return nil, loadError(err, "deposit contract")
	}
	payments, err := s.repo.ListContractPayments(ctx, enums.ContractKindDeposit, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading contract payments")
	}
	return depositDetailFromModel(row, payments), nil
}

// GetPurchaseContract returns the full detail view for one purchase contract.
func (s *Service) GetPurchaseContract(ctx context.Context, id uuid.UUID) (*PurchaseContractDetail, error) {
	row, err := s.repo.FindPurchaseContractDetail(ctx, id)
	if err != nil {
		return nil, loadError(err, "purchase contract")
	}
	payments, err := s.repo.ListContractPayments(ctx, enums.ContractKindPurchase, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading contract payments")
	}
	return purchaseDetailFromModel(row, payments), nil
}

// ListDepositContracts returns a filtered page of deposit contract summaries.
func (s *Service) ListDepositContracts(ctx context.Context, params pagination.Params, filters DepositContractFilters) (pagination.Page[DepositContractSummary], error) {
	rows, total, err := s.repo.ListDepositContracts(ctx, params, filters)
	if err != nil {
		return pagination.Page[DepositContractSummary]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing deposit contracts")
	}
	return pagination.NewPage(rows, total, params), nil
}

// ListPurchaseContracts returns a filtered page of purchase contract summaries.
func (s *Service) ListPurchaseContracts(ctx context.Context, params pagination.Params, filters PurchaseContractFilters) (pagination.Page[PurchaseContractSummary], error) {
	rows, total, err := s.repo.ListPurchaseContracts(ctx, params, filters)
	if err != nil {
		return pagination.Page[PurchaseContractSummary]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing purchase contracts")
	}
	return pagination.NewPage(rows, total, params), nil
}

func (s *Service) generateContractNumber(prefix string) string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, s.now().Format("20060102"), fragment)
}

func buildActor(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
}

func loadError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading "+what)
}

func partyFromUser(user *models.User) *PartySummary {
	if user == nil {
		return nil
	}
	return &PartySummary{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
		Tier:     user.Tier,
	}
}

func propertyFromModel(property *models.Property) *PropertySummary {
	if property == nil {
		return nil
	}
	return &PropertySummary{
		ID:      property.ID,
		Title:   property.Title,
		Address: property.Address,
		Price:   property.Price,
	}
}

func paymentSummaries(rows []models.Payment) []ContractPaymentSummary {
	out := make([]ContractPaymentSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, ContractPaymentSummary{
			ID:          row.ID,
			PaymentType: row.PaymentType,
			Amount:      row.Amount,
			DueDate:     row.DueDate,
			PaidTime:    row.PaidTime,
			Status:      row.Status,
		})
	}
	return out
}

func depositSummaryFromModel(row *models.DepositContract, property *models.Property, linked bool) *DepositContractSummary {
	summary := &DepositContractSummary{
		ID:                   row.ID,
		ContractNumber:       row.ContractNumber,
		MainContractType:     row.MainContractType,
		Status:               row.Status,
		StartDate:            row.StartDate,
		EndDate:              row.EndDate,
		DepositAmount:        row.DepositAmount,
		AgreedPrice:          row.AgreedPrice,
		LinkedToMainContract: linked,
	}
	if property != nil {
		summary.PropertyTitle = property.Title
	} else if row.Property != nil {
		summary.PropertyTitle = row.Property.Title
	}
	if row.Customer != nil {
		summary.CustomerName = row.Customer.FullName
	}
	return summary
}

func purchaseSummaryFromModel(row *models.PurchaseContract, property *models.Property) *PurchaseContractSummary {
	summary := &PurchaseContractSummary{
		ID:                   row.ID,
		ContractNumber:       row.ContractNumber,
		Status:               row.Status,
		StartDate:            row.StartDate,
		PropertyValue:        row.PropertyValue,
		AdvancePaymentAmount: row.AdvancePaymentAmount,
		CommissionAmount:     row.CommissionAmount,
		HasDepositContract:   row.DepositContractID != nil,
	}
	if property != nil {
		summary.PropertyTitle = property.Title
	} else if row.Property != nil {
		summary.PropertyTitle = row.Property.Title
	}
	if row.Customer != nil {
		summary.CustomerName = row.Customer.FullName
	}
	return summary
}

func depositDetailFromModel(row *models.DepositContract, payments []models.Payment) *DepositContractDetail {
	detail := &DepositContractDetail{
		ID:                  row.ID,
		ContractNumber:      row.ContractNumber,
		MainContractType:    row.MainContractType,
		Status:              row.Status,
		DepositAmount:       row.DepositAmount,
		AgreedPrice:         row.AgreedPrice,
		CancellationPenalty: row.CancellationPenalty,
		StartDate:           row.StartDate,
		EndDate:             row.EndDate,
		SpecialTerms:        row.SpecialTerms,
		CancellationReason:  row.CancellationReason,
		CancelledBy:         row.CancelledBy,
		Customer:            partyFromUser(row.Customer),
		Agent:               partyFromUser(row.Agent),
		Property:            propertyFromModel(row.Property),
		Payments:            paymentSummaries(payments),
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if row.Property != nil {
		detail.Owner = partyFromUser(row.Property.Owner)
	}
	return detail
}

func purchaseDetailFromModel(row *models.PurchaseContract, payments []models.Payment) *PurchaseContractDetail {
	detail := &PurchaseContractDetail{
		ID:                   row.ID,
		ContractNumber:       row.ContractNumber,
		Status:               row.Status,
		PropertyValue:        row.PropertyValue,
		AdvancePaymentAmount: row.AdvancePaymentAmount,
		CommissionAmount:     row.CommissionAmount,
		StartDate:            row.StartDate,
		SpecialTerms:         row.SpecialTerms,
		CancellationReason:   row.CancellationReason,
		CancelledBy:          row.CancelledBy,
		Customer:             partyFromUser(row.Customer),
		Agent:                partyFromUser(row.Agent),
		Property:             propertyFromModel(row.Property),
		DepositContractID:    row.DepositContractID,
		Payments:             paymentSummaries(payments),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	if row.Property != nil {
		detail.Owner = partyFromUser(row.Property.Owner)
	}
	if row.DepositContract != nil {
		status := row.DepositContract.Status
		detail.DepositContractStatus = &status
	}
	return detail
}
