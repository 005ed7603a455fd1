package service

import (
	"context"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/pkg/logger"
)

type OrderService interface {
	GetUserOrders(ctx context.Context, userID uint) ([]model.Order, error)
	GetUserOrder(ctx context.Context, userID, orderID uint) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// GetUserOrders lists the user's orders, newest first.
func (s *orderService) GetUserOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetUserOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDAndUser(orderID, userID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}
