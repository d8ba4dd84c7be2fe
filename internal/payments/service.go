package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/OneKeyCoder/batdongscam-backend/internal/contracts"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/logger"
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

// contractLifecycle is the slice of the contract service driven by payment
// settlement: earnest money activates a deposit, the full payment completes
// a purchase.
type contractLifecycle interface {
	ActivateDepositOnSettlement(ctx context.Context, tx *gorm.DB, depositContractID uuid.UUID) error
	CompletePurchaseOnSettlement(ctx context.Context, tx *gorm.DB, purchaseContractID uuid.UUID) error
}

// Service owns the payment ledger: scheduling, manual entries, settlement and
// reads. Scheduling is idempotent per (contract, payment type) so transition
// retries never duplicate rows.
type Service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	lifecycle contractLifecycle
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if outboxSvc == nil {
		return nil, errors.New("outbox publisher is required")
	}
	return &Service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// BindLifecycle attaches the contract service after construction. The two
// services reference each other, so one side has to be wired late.
func (s *Service) BindLifecycle(lifecycle contractLifecycle) {
	s.lifecycle = lifecycle
}

type paymentEventData struct {
	PaymentID    uuid.UUID           `json:"paymentId"`
	ContractID   uuid.UUID           `json:"contractId"`
	ContractType enums.ContractKind  `json:"contractType"`
	PaymentType  enums.PaymentType   `json:"paymentType"`
	Amount       decimal.Decimal     `json:"amount"`
	Status       enums.PaymentStatus `json:"status"`
	PaidTime     *time.Time          `json:"paidTime,omitempty"`
}

// ScheduleDepositPayment creates the earnest-money obligation for a new
// deposit contract, due immediately.
func (s *Service) ScheduleDepositPayment(ctx context.Context, tx *gorm.DB, contract *models.DepositContract) error {
	txRepo := s.repo.WithTx(tx)

	exists, err := txRepo.ExistsForContract(ctx, enums.ContractKindDeposit, contract.ID, enums.PaymentTypeDeposit)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking scheduled payments")
	}
	if exists {
		return nil
	}

	ownerID, err := txRepo.FindPropertyOwner(ctx, contract.PropertyID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving property owner")
	}
	customerID := contract.CustomerID

	row := &models.Payment{
		ContractID:   contract.ID,
		ContractType: enums.ContractKindDeposit,
		PaymentType:  enums.PaymentTypeDeposit,
		Amount:       contract.DepositAmount,
		DueDate:      s.now(),
		Status:       enums.PaymentStatusSystemPending,
		PayerID:      &customerID,
		PayeeID:      &ownerID,
	}
	return s.createScheduled(ctx, tx, txRepo, row)
}

// ScheduleApprovalPayments derives the payment schedule for an approved
// purchase contract: the advance (when agreed) due immediately and the
// commission fee owed by the owner.
func (s *Service) ScheduleApprovalPayments(ctx context.Context, tx *gorm.DB, contract *models.PurchaseContract) error {
	txRepo := s.repo.WithTx(tx)

	ownerID, err := txRepo.FindPropertyOwner(ctx, contract.PropertyID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving property owner")
	}
	customerID := contract.CustomerID

	if contract.AdvancePaymentAmount.IsPositive() {
		exists, err := txRepo.ExistsForContract(ctx, enums.ContractKindPurchase, contract.ID, enums.PaymentTypeAdvance)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking scheduled payments")
		}
		if !exists {
			owner := ownerID
			customer := customerID
			row := &models.Payment{
				ContractID:   contract.ID,
				ContractType: enums.ContractKindPurchase,
				PaymentType:  enums.PaymentTypeAdvance,
				Amount:       contract.AdvancePaymentAmount,
				DueDate:      s.now(),
				Status:       enums.PaymentStatusSystemPending,
				PayerID:      &customer,
				PayeeID:      &owner,
			}
			if err := s.createScheduled(ctx, tx, txRepo, row); err != nil {
				return err
			}
		}
	}

	if contract.CommissionAmount.IsPositive() {
		exists, err := txRepo.ExistsForContract(ctx, enums.ContractKindPurchase, contract.ID, enums.PaymentTypeServiceFee)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking scheduled payments")
		}
		if !exists {
			owner := ownerID
			note := "sale commission"
			row := &models.Payment{
				ContractID:   contract.ID,
				ContractType: enums.ContractKindPurchase,
				PaymentType:  enums.PaymentTypeServiceFee,
				Amount:       contract.CommissionAmount,
				DueDate:      s.now(),
				Status:       enums.PaymentStatusSystemPending,
				PayerID:      &owner,
				Note:         &note,
			}
			if err := s.createScheduled(ctx, tx, txRepo, row); err != nil {
				return err
			}
		}
	}

	return nil
}

// SchedulePenalty creates the forfeiture payment for a cancelled contract.
func (s *Service) SchedulePenalty(ctx context.Context, tx *gorm.DB, req contracts.PenaltyRequest) error {
	txRepo := s.repo.WithTx(tx)

	exists, err := txRepo.ExistsForContract(ctx, req.Kind, req.ContractID, enums.PaymentTypePenalty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking scheduled payments")
	}
	if exists {
		return nil
	}

	row := &models.Payment{
		ContractID:   req.ContractID,
		ContractType: req.Kind,
		PaymentType:  enums.PaymentTypePenalty,
		Amount:       req.Amount,
		DueDate:      s.now(),
		Status:       enums.PaymentStatusSystemPending,
		PayerID:      req.PayerID,
		PayeeID:      req.PayeeID,
	}
	if req.Note != "" {
		note := req.Note
		row.Note = &note
	}
	return s.createScheduled(ctx, tx, txRepo, row)
}

func (s *Service) createScheduled(ctx context.Context, tx *gorm.DB, txRepo Repository, row *models.Payment) error {
	created, err := txRepo.Create(ctx, row)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPaymentScheduled,
		AggregateType: enums.AggregatePayment,
		AggregateID:   created.ID,
		Data:          eventDataFor(created),
		Version:       1,
	})
}

// RecordPayment registers a manually entered ledger row in PENDING.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput, actor Actor) (*PaymentSummary, error) {
	if input.ContractID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contract id is required").
			WithReason(pkgerrors.ReasonMissingRequiredField)
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contract type must be DEPOSIT or PURCHASE")
	}
	if !input.PaymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment type")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero").
			WithReason(pkgerrors.ReasonNonPositiveAmount)
	}
	if input.DueDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dueDate is required").
			WithReason(pkgerrors.ReasonMissingRequiredField)
	}

	var summary *PaymentSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		row := &models.Payment{
			ContractID:   input.ContractID,
			ContractType: input.Kind,
			PaymentType:  input.PaymentType,
			Amount:       input.Amount,
			DueDate:      input.DueDate,
			Status:       enums.PaymentStatusPending,
			PayerID:      input.PayerID,
			PayeeID:      input.PayeeID,
			Note:         input.Note,
		}
		created, err := txRepo.Create(ctx, row)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentScheduled,
			AggregateType: enums.AggregatePayment,
			AggregateID:   created.ID,
			Actor:         actorRef(actor),
			Data:          eventDataFor(created),
			Version:       1,
		}); err != nil {
			return err
		}
		summary = summaryFromModel(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// RecordSettlement moves a pending payment to its terminal status. paidTime
// is only recorded on success. System-scheduled rows keep their SYSTEM_
// provenance through settlement. Settling the deposit payment activates the
// deposit contract; settling a full payment completes the purchase contract.
func (s *Service) RecordSettlement(ctx context.Context, input SettlementInput) (*PaymentSummary, error) {
	if input.Outcome != SettlementSuccess && input.Outcome != SettlementFailure {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outcome must be success or failure")
	}

	var summary *PaymentSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		payment, err := txRepo.Find(ctx, input.PaymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment")
		}
		if payment.Status.Semantic() != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is already settled").
				WithReason(pkgerrors.ReasonInvalidStateTransition)
		}

		target := settlementTarget(payment.Status, input.Outcome)
		updates := map[string]any{"status": target}
		var paidTime *time.Time
		if input.Outcome == SettlementSuccess {
			paid := input.PaidTime
			if paid.IsZero() {
				paid = s.now()
			}
			paidTime = &paid
			updates["paid_time"] = paid
		}

		rows, err := txRepo.UpdateStatusIf(ctx, payment.ID, payment.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settling payment")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment was modified concurrently").
				WithReason(pkgerrors.ReasonStaleState)
		}
		payment.Status = target
		payment.PaidTime = paidTime

		eventType := enums.EventPaymentSettled
		if input.Outcome == SettlementFailure {
			eventType = enums.EventPaymentFailed
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         actorRef(input.Actor),
			Data:          eventDataFor(payment),
			Version:       1,
		}); err != nil {
			return err
		}

		if input.Outcome == SettlementSuccess {
			if err := s.applyContractEffects(ctx, tx, payment); err != nil {
				return err
			}
		}

		summary = summaryFromModel(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithField(ctx, "payment_id", summary.ID.String())
		s.logg.Info(logCtx, "payment settlement recorded")
	}
	return summary, nil
}

func (s *Service) applyContractEffects(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	switch {
	case payment.ContractType == enums.ContractKindDeposit && payment.PaymentType == enums.PaymentTypeDeposit:
		if s.lifecycle == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "contract lifecycle not configured")
		}
		return s.lifecycle.ActivateDepositOnSettlement(ctx, tx, payment.ContractID)
	case payment.ContractType == enums.ContractKindPurchase && payment.PaymentType == enums.PaymentTypeFullPay:
		if s.lifecycle == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "contract lifecycle not configured")
		}
		return s.lifecycle.CompletePurchaseOnSettlement(ctx, tx, payment.ContractID)
	}
	return nil
}

// GetPayment returns one ledger row.
func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentSummary, error) {
	row, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment")
	}
	return summaryFromModel(row), nil
}

// ListPayments returns a filtered page of ledger rows.
func (s *Service) ListPayments(ctx context.Context, params pagination.Params, filters PaymentFilters) (pagination.Page[PaymentSummary], error) {
	rows, total, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return pagination.Page[PaymentSummary]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing payments")
	}
	summaries := make([]PaymentSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, *summaryFromModel(&rows[i]))
	}
	return pagination.NewPage(summaries, total, params), nil
}

// EmitOverdueEvents flags pending payments past the cutoff, at most once per
// payment. Returns how many events were queued. Used by the cron worker.
func (s *Service) EmitOverdueEvents(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	emitted := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rows, err := txRepo.ListOverduePending(ctx, cutoff, limit)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing overdue payments")
		}
		for i := range rows {
			row := &rows[i]
			if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentOverdue,
				AggregateType: enums.AggregatePayment,
				AggregateID:   row.ID,
				Data:          eventDataFor(row),
				Version:       1,
			}); err != nil {
				return err
			}
			emitted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return emitted, nil
}

func settlementTarget(current enums.PaymentStatus, outcome SettlementOutcome) enums.PaymentStatus {
	system := current.IsSystem()
	if outcome == SettlementSuccess {
		if system {
			return enums.PaymentStatusSystemSuccess
		}
		return enums.PaymentStatusSuccess
	}
	if system {
		return enums.PaymentStatusSystemFailed
	}
	return enums.PaymentStatusFailed
}

func actorRef(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
}

func eventDataFor(row *models.Payment) paymentEventData {
	return paymentEventData{
		PaymentID:    row.ID,
		ContractID:   row.ContractID,
		ContractType: row.ContractType,
		PaymentType:  row.PaymentType,
		Amount:       row.Amount,
		Status:       row.Status,
		PaidTime:     row.PaidTime,
	}
}

func summaryFromModel(row *models.Payment) *PaymentSummary {
	return &PaymentSummary{
		ID:           row.ID,
		ContractID:   row.ContractID,
		ContractType: row.ContractType,
		PaymentType:  row.PaymentType,
		Amount:       row.Amount,
		DueDate:      row.DueDate,
		PaidTime:     row.PaidTime,
		Status:       row.Status,
		PayerID:      row.PayerID,
		PayeeID:      row.PayeeID,
		Note:         row.Note,
		CreatedAt:    row.CreatedAt,
	}
}
