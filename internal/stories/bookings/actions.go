package bookings

import (
	"github.com/samber/lo"

	"decobook/internal/labels"
)

// Action is something the booking list can offer for one booking. Which
// actions show up is purely a function of current status plus the
// processing-flag set; the list never decides transitions itself.
type Action string

const (
	ActionPayDownPayment Action = "pay_dp"
	ActionPayFirst       Action = "pay_first"
	ActionPayFinal       Action = "pay_final"
	ActionCancel         Action = "cancel"
	ActionContactAdmin   Action = "contact_admin"
)

var stageActions = map[Stage]Action{
	StageDP:    ActionPayDownPayment,
	StageFirst: ActionPayFirst,
	StageFinal: ActionPayFinal,
}

// AvailableActions derives the action set for one booking. processing is the
// booking's entry in the engine's processing set: while a payment operation
// is settling, every action is suppressed so a second pay cannot start.
func AvailableActions(b Booking, processing bool) []Action {
	if processing {
		return nil
	}

	status := labels.Normalize(b.Status)
	actions := make([]Action, 0, 4)

	if !IsTerminal(status) {
		payable := lo.Filter(b.AvailablePayments, func(stage Stage, _ int) bool {
			// a stage already in paid_payments must never be offered again,
			// whatever available_payments claims
			return !HasStage(b.PaidPayments, stage)
		})
		for _, stage := range payable {
			if stage == StageFinal && HasStage(payable, StageFirst) {
				// final stays locked until the interim stage settles
				continue
			}
			if action, ok := stageActions[stage]; ok {
				actions = append(actions, action)
			}
		}
	}

	if status != StatusCancelled && status != StatusDone {
		actions = append(actions, ActionCancel)
	}
	if status != StatusCancelled {
		actions = append(actions, ActionContactAdmin)
	}

	return actions
}

// CanPay reports whether the given stage is offered for the booking.
func CanPay(b Booking, stage Stage, processing bool) bool {
	action, ok := stageActions[stage]
	if !ok {
		return false
	}
	return lo.Contains(AvailableActions(b, processing), action)
}
