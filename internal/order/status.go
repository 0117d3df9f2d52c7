package order

import "github.com/Skotchmaster/craft_store/internal/models"

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusFirstPayment: {
		models.OrderStatusInProcess,
		models.OrderStatusDelivered,
		models.OrderStatusDirectSale,
		models.OrderStatusAnnulled,
	},
	models.OrderStatusInProcess: {
		models.OrderStatusFirstPayment,
		models.OrderStatusDelivered,
		models.OrderStatusDirectSale,
		models.OrderStatusAnnulled,
	},
	models.OrderStatusInDelivery: {
		models.OrderStatusDelivered,
		models.OrderStatusDirectSale,
	},
}

var statuses = []models.OrderStatus{
	models.OrderStatusFirstPayment,
	models.OrderStatusInProcess,
	models.OrderStatusInProduction,
	models.OrderStatusInDelivery,
	models.OrderStatusDelivered,
	models.OrderStatusDirectSale,
	models.OrderStatusAnnulled,
}

func Statuses() []models.OrderStatus {
	out := make([]models.OrderStatus, len(statuses))
	copy(out, statuses)
	return out
}

func ValidStatus(s models.OrderStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
// Self transitions are never edges.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func Next(from models.OrderStatus) []models.OrderStatus {
	out := make([]models.OrderStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

func Terminal(s models.OrderStatus) bool {
	return len(transitions[s]) == 0
}

// Editable reports whether delivery date and adjustment may still change.
func Editable(s models.OrderStatus) bool {
	return s == models.OrderStatusFirstPayment || s == models.OrderStatusInProcess
}
