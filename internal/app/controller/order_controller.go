package controller

import (
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

func orderResponse(order *model.Order) gin.H {
	return gin.H{
		"order": order,
		"total": order.Total(),
		"count": len(order.Items),
	}
}

// ListOrders returns the caller's orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		apperrors.RespondServiceError(c, err, "list orders")
		return
	}

	list := make([]gin.H, 0, len(orders))
	for i := range orders {
		list = append(list, orderResponse(&orders[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": list,
		"count":  len(list),
	})
}

// GetOrder returns one of the caller's orders with its items
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetUserOrder(c.Request.Context(), userID, id)
	if err != nil {
		apperrors.RespondServiceError(c, err, "get order")
		return
	}

	c.JSON(http.StatusOK, orderResponse(order))
}
