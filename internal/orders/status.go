package orders

import "storefront/internal/models"

var statusRank = map[string]int{
	models.OrderStatusPending:   0,
	models.OrderStatusConfirmed: 1,
	models.OrderStatusShipped:   2,
	models.OrderStatusDelivered: 3,
}

func IsTerminal(status string) bool {
	return status == models.OrderStatusDelivered || status == models.OrderStatusCancelled
}

// CanTransition allows moving forward along Pending, Confirmed, Shipped,
// Delivered (skipping steps is allowed) and cancelling any order that has
// not reached a terminal state.
func CanTransition(from, to string) bool {
	if !models.IsOrderStatus(from) || !models.IsOrderStatus(to) || from == to {
		return false
	}
	if IsTerminal(from) {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}
