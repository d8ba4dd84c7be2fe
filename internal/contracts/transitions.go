package contracts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/db/models"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
	"github.com/OneKeyCoder/batdongscam-backend/pkg/outbox"
)

const (
	metricKindDeposit  = "deposit"
	metricKindPurchase = "purchase"

	outcomeSuccess = "success"
	outcomeDenied  = "denied"
	outcomeStale   = "stale"
)

// ApprovePurchaseContract moves a DRAFT purchase contract forward. Contracts
// linked to a deposit land directly in ACTIVE; unlinked ones wait for the
// official paperwork first. Approval schedules the advance and commission
// payments.
func (s *Service) ApprovePurchaseContract(ctx context.Context, id uuid.UUID, actor Actor) (*PurchaseContractSummary, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var summary *PurchaseContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		current, err := txRepo.FindPurchaseContract(ctx, id)
		if err != nil {
			return loadError(err, "purchase contract")
		}
		if guardErr := guardPurchaseTransition(current.Status, actionApprove); guardErr != nil {
			s.recordTransition(metricKindPurchase, actionApprove, outcomeDenied)
			return guardErr
		}

		target := approvePurchaseTarget(current.DepositContractID != nil)
		rows, err := txRepo.UpdatePurchaseStatusIf(ctx, id, current.Status, target, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approving purchase contract")
		}
		if rows == 0 {
			return s.stalePurchase(ctx, txRepo, id, actionApprove)
		}
		current.Status = target

		if err := s.scheduler.ScheduleApprovalPayments(ctx, tx, current); err != nil {
			return err
		}

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseContractApproved,
			AggregateType: enums.AggregatePurchaseContract,
			AggregateID:   current.ID,
			Actor:         buildActor(actor),
			Data: purchaseContractEventData{
				ContractID:        current.ID,
				ContractNumber:    current.ContractNumber,
				Status:            target,
				DepositContractID: current.DepositContractID,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		summary = purchaseSummaryFromModel(current, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(metricKindPurchase, actionApprove, outcomeSuccess)
	s.logTransition(ctx, id, "purchase contract approved")
	return summary, nil
}

// CompletePurchasePaperwork moves a WAITING_OFFICIAL purchase contract to
// COMPLETED once the notarized paperwork is recorded.
func (s *Service) CompletePurchasePaperwork(ctx context.Context, id uuid.UUID, actor Actor) (*PurchaseContractSummary, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var summary *PurchaseContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		current, err := txRepo.FindPurchaseContract(ctx, id)
		if err != nil {
			return loadError(err, "purchase contract")
		}
		if guardErr := guardPurchaseTransition(current.Status, actionCompletePaperwork); guardErr != nil {
			s.recordTransition(metricKindPurchase, actionCompletePaperwork, outcomeDenied)
			return guardErr
		}

		rows, err := txRepo.UpdatePurchaseStatusIf(ctx, id, current.Status, enums.ContractStatusCompleted, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "completing purchase paperwork")
		}
		if rows == 0 {
			return s.stalePurchase(ctx, txRepo, id, actionCompletePaperwork)
		}
		current.Status = enums.ContractStatusCompleted

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseContractOfficial,
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

		summary = purchaseSummaryFromModel(current, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(metricKindPurchase, actionCompletePaperwork, outcomeSuccess)
	s.logTransition(ctx, id, "purchase contract paperwork completed")
	return summary, nil
}

// VoidPurchaseContract is the administrative escape hatch. It is blocked only
// from terminal states.
func (s *Service) VoidPurchaseContract(ctx context.Context, id uuid.UUID, actor Actor) (*PurchaseContractSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var summary *PurchaseContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		current, err := txRepo.FindPurchaseContract(ctx, id)
		if err != nil {
			return loadError(err, "purchase contract")
		}
		if guardErr := guardPurchaseTransition(current.Status, actionVoid); guardErr != nil {
			s.recordTransition(metricKindPurchase, actionVoid, outcomeDenied)
			return guardErr
		}

		rows, err := txRepo.UpdatePurchaseStatusIf(ctx, id, current.Status, enums.ContractStatusVoided, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "voiding purchase contract")
		}
		if rows == 0 {
			return s.stalePurchase(ctx, txRepo, id, actionVoid)
		}
		current.Status = enums.ContractStatusVoided

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseContractVoided,
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

		summary = purchaseSummaryFromModel(current, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(metricKindPurchase, actionVoid, outcomeSuccess)
	s.logTransition(ctx, id, "purchase contract voided")
	return summary, nil
}

// CancelPurchaseContract records a customer or owner cancellation.
// Administrators do not cancel; they void.
func (s *Service) CancelPurchaseContract(ctx context.Context, input CancelInput) (*PurchaseContractSummary, error) {
	if err := requireCancelParty(input.Actor); err != nil {
		return nil, err
	}
	if !input.Party.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancelledBy must be CUSTOMER or OWNER")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required").
			WithReason(pkgerrors.ReasonMissingRequiredField)
	}

	var summary *PurchaseContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		current, err := txRepo.FindPurchaseContract(ctx, input.ContractID)
		if err != nil {
			return loadError(err, "purchase contract")
		}
		if guardErr := guardPurchaseTransition(current.Status, actionCancel); guardErr != nil {
			s.recordTransition(metricKindPurchase, actionCancel, outcomeDenied)
			return guardErr
		}

		extra := map[string]any{
			"cancellation_reason": reason,
			"cancelled_by":        input.Party,
		}
		rows, err := txRepo.UpdatePurchaseStatusIf(ctx, input.ContractID, current.Status, enums.ContractStatusCancelled, extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancelling purchase contract")
		}
		if rows == 0 {
			return s.stalePurchase(ctx, txRepo, input.ContractID, actionCancel)
		}
		current.Status = enums.ContractStatusCancelled
		current.CancellationReason = &reason
		party := input.Party
		current.CancelledBy = &party

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContractCancelled,
			AggregateType: enums.AggregatePurchaseContract,
			AggregateID:   current.ID,
			Actor:         buildActor(input.Actor),
			Data: contractCancelledEventData{
				ContractID:  current.ID,
				Kind:        enums.ContractKindPurchase,
				Reason:      reason,
				CancelledBy: input.Party,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		summary = purchaseSummaryFromModel(current, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(metricKindPurchase, actionCancel, outcomeSuccess)
	s.logTransition(ctx, input.ContractID, "purchase contract cancelled")
	return summary, nil
}

// VoidDepositContract is the administrative escape hatch for deposits.
func (s *Service) VoidDepositContract(ctx context.Context, id uuid.UUID, actor Actor) (*DepositContractSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var summary *DepositContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		current, err := txRepo.FindDepositContract(ctx, id)
		if err != nil {
			return loadError(err, "deposit contract")
		}
		if guardErr := guardDepositTransition(current.Status, actionVoid); guardErr != nil {
			s.recordTransition(metricKindDeposit, actionVoid, outcomeDenied)
			return guardErr
		}

		rows, err := txRepo.UpdateDepositStatusIf(ctx, id, current.Status, enums.ContractStatusVoided, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "voiding deposit contract")
		}
		if rows == 0 {
			return s.staleDeposit(ctx, txRepo, id, actionVoid)
		}
		current.Status = enums.ContractStatusVoided

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDepositContractVoided,
			AggregateType: enums.AggregateDepositContract,
			AggregateID:   current.ID,
			Actor:         buildActor(actor),
			Data: depositContractEventData{
				ContractID:     current.ID,
				ContractNumber: current.ContractNumber,
				Status:         current.Status,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		summary = depositSummaryFromModel(current, nil, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(metricKindDeposit, actionVoid, outcomeSuccess)
	s.logTransition(ctx, id, "deposit contract voided")
	return summary, nil
}

// CancelDepositContract records a customer or owner cancellation of a deposit
// and schedules the forfeiture payment. A cancelling customer forfeits the
// full deposit to the owner. A cancelling owner forfeits the agreed penalty
// to the customer.
func (s *Service) CancelDepositContract(ctx context.Context, input CancelInput) (*DepositContractSummary, error) {
	if err := requireCancelParty(input.Actor); err != nil {
		return nil, err
	}
	if !input.Party.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancelledBy must be CUSTOMER or OWNER")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required").
			WithReason(pkgerrors.ReasonMissingRequiredField)
	}

	var summary *DepositContractSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		current, err := txRepo.FindDepositContract(ctx, input.ContractID)
		if err != nil {
			return loadError(err, "deposit contract")
		}
		if guardErr := guardDepositTransition(current.Status, actionCancel); guardErr != nil {
			s.recordTransition(metricKindDeposit, actionCancel, outcomeDenied)
			return guardErr
		}

		property, err := txRepo.FindProperty(ctx, current.PropertyID)
		if err != nil {
			return loadError(err, "property")
		}

		extra := map[string]any{
			"cancellation_reason": reason,
			"cancelled_by":        input.Party,
		}
		rows, err := txRepo.UpdateDepositStatusIf(ctx, input.ContractID, current.Status, enums.ContractStatusCancelled, extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancelling deposit contract")
		}
		if rows == 0 {
			return s.staleDeposit(ctx, txRepo, input.ContractID, actionCancel)
		}
		current.Status = enums.ContractStatusCancelled
		current.CancellationReason = &reason
		party := input.Party
		current.CancelledBy = &party

		penalty := penaltyFor(current, property, input.Party)
		if penalty != nil {
			if err := s.scheduler.SchedulePenalty(ctx, tx, *penalty); err != nil {
				return err
			}
		}

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContractCancelled,
			AggregateType: enums.AggregateDepositContract,
			AggregateID:   current.ID,
			Actor:         buildActor(input.Actor),
			Data: contractCancelledEventData{
				ContractID:  current.ID,
				Kind:        enums.ContractKindDeposit,
				Reason:      reason,
				CancelledBy: input.Party,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		summary = depositSummaryFromModel(current, property, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(metricKindDeposit, actionCancel, outcomeSuccess)
	s.logTransition(ctx, input.ContractID, "deposit contract cancelled")
	return summary, nil
}

// penaltyFor derives the forfeiture payment for a cancelled deposit. The rule
// is asymmetric: customers always forfeit the full deposit, owners forfeit
// the agreed cancellation penalty.
func penaltyFor(contract *models.DepositContract, property *models.Property, party enums.CancelParty) *PenaltyRequest {
	req := PenaltyRequest{
		Kind:       enums.ContractKindDeposit,
		ContractID: contract.ID,
	}
	customerID := contract.CustomerID
	ownerID := property.OwnerID
	switch party {
	case enums.CancelPartyCustomer:
		req.Amount = contract.DepositAmount
		req.PayerID = &customerID
		req.PayeeID = &ownerID
		req.Note = "deposit forfeited on customer cancellation"
	case enums.CancelPartyOwner:
		req.Amount = contract.CancellationPenalty
		req.PayerID = &ownerID
		req.PayeeID = &customerID
		req.Note = "penalty forfeited on owner cancellation"
	default:
		return nil
	}
	if !req.Amount.IsPositive() {
		return nil
	}
	return &req
}

// ActivateDepositOnSettlement moves a deposit contract to ACTIVE when its
// earnest-money payment settles. Runs inside the settlement transaction.
// Already-active contracts are a no-op so repeated settlement processing
// stays safe.
func (s *Service) ActivateDepositOnSettlement(ctx context.Context, tx *gorm.DB, depositContractID uuid.UUID) error {
	txRepo := s.repo.WithTx(tx)

	current, err := txRepo.FindDepositContract(ctx, depositContractID)
	if err != nil {
		return loadError(err, "deposit contract")
	}
	if current.Status == enums.ContractStatusActive {
		return nil
	}
	if guardErr := guardDepositTransition(current.Status, actionActivate); guardErr != nil {
		s.recordTransition(metricKindDeposit, actionActivate, outcomeDenied)
		return guardErr
	}

	rows, err := txRepo.UpdateDepositStatusIf(ctx, depositContractID, current.Status, enums.ContractStatusActive, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activating deposit contract")
	}
	if rows == 0 {
		return s.staleDeposit(ctx, txRepo, depositContractID, actionActivate)
	}

	if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDepositContractActivated,
		AggregateType: enums.AggregateDepositContract,
		AggregateID:   current.ID,
		Data: depositContractEventData{
			ContractID:     current.ID,
			ContractNumber: current.ContractNumber,
			Status:         enums.ContractStatusActive,
		},
		Version: 1,
	}); err != nil {
		return err
	}

	s.recordTransition(metricKindDeposit, actionActivate, outcomeSuccess)
	return nil
}

// CompletePurchaseOnSettlement moves an ACTIVE purchase contract to COMPLETED
// when its full payment settles. Runs inside the settlement transaction.
func (s *Service) CompletePurchaseOnSettlement(ctx context.Context, tx *gorm.DB, purchaseContractID uuid.UUID) error {
	txRepo := s.repo.WithTx(tx)

	current, err := txRepo.FindPurchaseContract(ctx, purchaseContractID)
	if err != nil {
		return loadError(err, "purchase contract")
	}
	if current.Status == enums.ContractStatusCompleted {
		return nil
	}
	if guardErr := guardPurchaseTransition(current.Status, actionComplete); guardErr != nil {
		s.recordTransition(metricKindPurchase, actionComplete, outcomeDenied)
		return guardErr
	}

	rows, err := txRepo.UpdatePurchaseStatusIf(ctx, purchaseContractID, current.Status, enums.ContractStatusCompleted, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "completing purchase contract")
	}
	if rows == 0 {
		return s.stalePurchase(ctx, txRepo, purchaseContractID, actionComplete)
	}

	if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventContractCompleted,
		AggregateType: enums.AggregatePurchaseContract,
		AggregateID:   current.ID,
		Data: purchaseContractEventData{
			ContractID:        current.ID,
			ContractNumber:    current.ContractNumber,
			Status:            enums.ContractStatusCompleted,
			DepositContractID: current.DepositContractID,
		},
		Version: 1,
	}); err != nil {
		return err
	}

	s.recordTransition(metricKindPurchase, actionComplete, outcomeSuccess)
	return nil
}

// stalePurchase refetches after a zero-row guarded write and reports the
// status the row moved to.
func (s *Service) stalePurchase(ctx context.Context, repo Repository, id uuid.UUID, action transitionAction) error {
	s.recordTransition(metricKindPurchase, action, outcomeStale)
	refetched, err := repo.FindPurchaseContract(ctx, id)
	if err != nil {
		return loadError(err, "purchase contract")
	}
	return staleStateError(refetched.Status)
}

func (s *Service) staleDeposit(ctx context.Context, repo Repository, id uuid.UUID, action transitionAction) error {
	s.recordTransition(metricKindDeposit, action, outcomeStale)
	refetched, err := repo.FindDepositContract(ctx, id)
	if err != nil {
		return loadError(err, "deposit contract")
	}
	return staleStateError(refetched.Status)
}

func (s *Service) recordTransition(kind string, action transitionAction, outcome string) {
	s.metrics.IncTransition(kind, string(action), outcome)
}

func (s *Service) logTransition(ctx context.Context, id uuid.UUID, message string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithContractID(ctx, id.String())
	s.logg.Info(logCtx, message)
}

func requireAdmin(actor Actor) error {
	if actor.Role != enums.MemberRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "administrator role required")
	}
	return nil
}

func requireStaff(actor Actor) error {
	if actor.Role != enums.MemberRoleAdmin && actor.Role != enums.MemberRoleAgent {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}
	return nil
}

// requireCancelParty keeps cancel away from administrators, who have void for
// corrections instead.
func requireCancelParty(actor Actor) error {
	if actor.Role != enums.MemberRoleCustomer && actor.Role != enums.MemberRoleOwner {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the customer or owner may cancel")
	}
	return nil
}
