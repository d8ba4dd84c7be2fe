package contracts

import (
	"fmt"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/enums"
	pkgerrors "github.com/OneKeyCoder/batdongscam-backend/pkg/errors"
)

// transitionAction names a lifecycle operation for guard checks and metrics.
type transitionAction string

const (
	actionUpdate            transitionAction = "update"
	actionApprove           transitionAction = "approve"
	actionCompletePaperwork transitionAction = "complete_paperwork"
	actionVoid              transitionAction = "void"
	actionCancel            transitionAction = "cancel"
	actionActivate          transitionAction = "activate"
	actionAwaitPayment      transitionAction = "await_payment"
	actionComplete          transitionAction = "complete"
)

// approvePurchaseTarget resolves the status an approved purchase contract
// lands in. Contracts backed by a deposit skip the paperwork stage because the
// notarized deposit already covers it.
func approvePurchaseTarget(linked bool) enums.ContractStatus {
	if linked {
		return enums.ContractStatusActive
	}
	return enums.ContractStatusWaitingOfficial
}

// guardPurchaseTransition checks whether a purchase contract in the given
// status may undergo the action. It returns the disallowed-transition error
// when the guard fails.
func guardPurchaseTransition(current enums.ContractStatus, action transitionAction) *pkgerrors.Error {
	switch action {
	case actionApprove:
		if current != enums.ContractStatusDraft {
			return transitionError(action, current)
		}
	case actionCompletePaperwork:
		if current != enums.ContractStatusWaitingOfficial {
			return transitionError(action, current)
		}
	case actionVoid:
		if current.IsTerminal() {
			return transitionError(action, current)
		}
	case actionCancel:
		if current != enums.ContractStatusWaitingOfficial && current != enums.ContractStatusActive {
			return transitionError(action, current)
		}
	case actionComplete:
		if current != enums.ContractStatusActive {
			return transitionError(action, current)
		}
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown transition action %q", action))
	}
	return nil
}

// guardDepositTransition checks whether a deposit contract in the given
// status may undergo the action.
func guardDepositTransition(current enums.ContractStatus, action transitionAction) *pkgerrors.Error {
	switch action {
	case actionActivate:
		if current != enums.ContractStatusDraft && current != enums.ContractStatusPendingPayment {
			return transitionError(action, current)
		}
	case actionVoid:
		if current.IsTerminal() {
			return transitionError(action, current)
		}
	case actionCancel:
		if current != enums.ContractStatusPendingPayment &&
			current != enums.ContractStatusWaitingOfficial &&
			current != enums.ContractStatusActive {
			return transitionError(action, current)
		}
	case actionComplete:
		if current != enums.ContractStatusActive {
			return transitionError(action, current)
		}
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown transition action %q", action))
	}
	return nil
}

func transitionError(action transitionAction, current enums.ContractStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot %s a contract in status %s", action, current)).
		WithReason(pkgerrors.ReasonInvalidStateTransition)
}

// staleStateError is returned when the guarded write finds the row already
// moved by a concurrent request. The caller read one status, somebody else
// committed another.
func staleStateError(current enums.ContractStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("contract was modified concurrently, now in status %s", current)).
		WithReason(pkgerrors.ReasonStaleState)
}
