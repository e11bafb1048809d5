package orders

import (
	"fmt"

	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
)

// fulfillmentRank orders the forward path pending → preparing → delivering →
// delivered. Cancellation is an edge from any non-terminal state and has no
// rank.
var fulfillmentRank = map[enums.OrderStatus]int{
	enums.OrderStatusPending:    0,
	enums.OrderStatusPreparing:  1,
	enums.OrderStatusDelivering: 2,
	enums.OrderStatusDelivered:  3,
}

// checkTransition validates a status change. The caller has already handled
// the same-status no-op case.
func checkTransition(from, to enums.OrderStatus) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is already %s and cannot change status", from))
	}
	if to == enums.OrderStatusCancelled {
		return nil
	}
	fromRank, ok := fulfillmentRank[from]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition from %s", from))
	}
	toRank, ok := fulfillmentRank[to]
	if !ok || toRank != fromRank+1 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition from %s to %s", from, to))
	}
	return nil
}
