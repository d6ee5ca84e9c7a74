package customerorder

import "bookstore/domain/order"

// DeriveStatus folds the sub-order statuses into the customer order's:
//
//	all cancelled            -> CANCELLED
//	all delivered            -> DELIVERED
//	any shipped              -> SHIPPED
//	any processing           -> PROCESSING
//	otherwise                -> PENDING
//
// Cancelled sub-orders are ignored as long as at least one other remains.
func DeriveStatus(statuses []order.Status) order.Status {
	if len(statuses) == 0 {
		return order.StatusPending
	}

	live := make([]order.Status, 0, len(statuses))
	for _, s := range statuses {
		if s != order.StatusCancelled {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		return order.StatusCancelled
	}

	allDelivered := true
	anyShipped, anyProcessing := false, false
	for _, s := range live {
		switch s {
		case order.StatusShipped:
			anyShipped = true
		case order.StatusProcessing:
			anyProcessing = true
		}
		if s != order.StatusDelivered {
			allDelivered = false
		}
	}

	switch {
	case allDelivered:
		return order.StatusDelivered
	case anyShipped:
		return order.StatusShipped
	case anyProcessing:
		return order.StatusProcessing
	default:
		return order.StatusPending
	}
}
