package history

import (
	"context"
	"fmt"

	"github.com/serviplace/serviplace-backend/pkg/db/models"
	"github.com/serviplace/serviplace-backend/pkg/enums"
)

// Hook translates order lifecycle changes into customer feed entries. It is
// registered with the lifecycle manager and runs after the order write commits.
type Hook struct {
	svc Service
}

// NewHook builds the lifecycle hook backed by the history service.
func NewHook(svc Service) (*Hook, error) {
	if svc == nil {
		return nil, fmt.Errorf("history service required")
	}
	return &Hook{svc: svc}, nil
}

// OrderCreated appends the order_placed feed entry for a new order.
func (h *Hook) OrderCreated(ctx context.Context, order *models.Order) error {
	amount := order.TotalAmount
	currency := order.Currency
	orderID := order.ID
	_, err := h.svc.Record(ctx, RecordInput{
		CustomerID:  order.CustomerID,
		Type:        enums.CustomerHistoryOrderPlaced,
		Title:       "Order placed",
		Description: fmt.Sprintf("Installation order %s was placed.", order.OrderNumber),
		Amount:      &amount,
		Currency:    &currency,
		OrderID:     &orderID,
	})
	return err
}

// OrderTransitioned appends the feed entry matching the resulting status.
// Statuses without a customer-facing meaning are skipped.
func (h *Hook) OrderTransitioned(ctx context.Context, order *models.Order, from, to enums.OrderStatus) error {
	orderID := order.ID
	input := RecordInput{
		CustomerID: order.CustomerID,
		OrderID:    &orderID,
	}

	switch to {
	case enums.OrderStatusAccepted:
		input.Type = enums.CustomerHistoryOrderUpdated
		input.Title = "Order accepted"
		input.Description = fmt.Sprintf("Order %s was accepted by a technician.", order.OrderNumber)
	case enums.OrderStatusInProgress:
		input.Type = enums.CustomerHistoryOrderUpdated
		input.Title = "Installation started"
		input.Description = fmt.Sprintf("Work on order %s is in progress.", order.OrderNumber)
	case enums.OrderStatusCompleted:
		input.Type = enums.CustomerHistoryServiceCompleted
		input.Title = "Service completed"
		input.Description = fmt.Sprintf("Order %s was completed.", order.OrderNumber)
	case enums.OrderStatusCancelled:
		input.Type = enums.CustomerHistoryOrderCancelled
		input.Title = "Order cancelled"
		input.Description = fmt.Sprintf("Order %s was cancelled.", order.OrderNumber)
		if order.Cancellation != nil && order.Cancellation.Reason != "" {
			input.Description = fmt.Sprintf("Order %s was cancelled: %s", order.OrderNumber, order.Cancellation.Reason)
		}
	case enums.OrderStatusRefunded:
		amount := order.TotalAmount
		currency := order.Currency
		input.Type = enums.CustomerHistoryPaymentMade
		input.Title = "Refund issued"
		input.Description = fmt.Sprintf("Payment for order %s was refunded.", order.OrderNumber)
		input.Amount = &amount
		input.Currency = &currency
	default:
		return nil
	}

	_, err := h.svc.Record(ctx, input)
	return err
}
