package service

import (
	"context"
	"strings"

	"restobar/internal/domain"
	"restobar/internal/models"

	"github.com/rs/zerolog"
)

// OrderFilter narrows an order listing. Empty fields match everything.
type OrderFilter struct {
	Status  string
	TableID string
}

// OrderService is the read side of the order store used by the back office.
type OrderService struct {
	orders domain.OrderRepository
	logger *zerolog.Logger
}

func NewOrderService(orders domain.OrderRepository, logger *zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, logger: logger}
}

func (s *OrderService) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

// List returns orders in creation order, filtered by status and table.
func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]*models.Order, error) {
	status := strings.ToLower(strings.TrimSpace(f.Status))

	var (
		orders []*models.Order
		err    error
	)
	switch {
	case status != "":
		orders, err = s.orders.GetOrdersByStatus(ctx, status)
	case f.TableID != "":
		orders, err = s.orders.GetOrdersByTable(ctx, f.TableID)
	default:
		orders, err = s.orders.ListOrders(ctx)
	}
	if err != nil {
		return nil, err
	}

	if status != "" && f.TableID != "" {
		kept := orders[:0]
		for _, o := range orders {
			if o.TableID == f.TableID {
				kept = append(kept, o)
			}
		}
		orders = kept
	}

	s.logger.Debug().
		Str("status", status).
		Str("table_id", f.TableID).
		Int("count", len(orders)).
		Msg("orders listed")
	return orders, nil
}
