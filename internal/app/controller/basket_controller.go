package controller

import (
	"errors"
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BasketController struct {
	basketService service.BasketService
}

func NewBasketController(basketService service.BasketService) *BasketController {
	return &BasketController{
		basketService: basketService,
	}
}

type AddToBasketRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

type UpdateLineRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CheckoutRequest struct {
	BillingAddressID  uint `json:"billing_address_id" binding:"required"`
	ShippingAddressID uint `json:"shipping_address_id" binding:"required"`
}

func basketResponse(basket *model.Basket) gin.H {
	if basket == nil {
		return gin.H{
			"basket": nil,
			"lines":  []gin.H{},
			"count":  0,
			"total":  decimal.Zero,
		}
	}

	total := decimal.Zero
	lines := make([]gin.H, 0, len(basket.Lines))
	for _, l := range basket.Lines {
		lineTotal := l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)
		lines = append(lines, gin.H{
			"id":         l.ID,
			"product":    l.Product,
			"quantity":   l.Quantity,
			"line_total": lineTotal,
		})
	}

	return gin.H{
		"basket": gin.H{
			"id":      basket.ID,
			"status":  basket.Status,
			"user_id": basket.UserID,
		},
		"lines": lines,
		"count": basket.Count(),
		"total": total,
	}
}

// currentBasket finds the basket this request works on: the session's,
// then the authenticated user's open basket. nil means there is none yet.
func (ctrl *BasketController) currentBasket(c *gin.Context) (*model.Basket, error) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDPtr(c)

	if id := middleware.GetSessionBasketID(c); id != nil {
		basket, err := ctrl.basketService.Get(ctx, *id)
		switch {
		case err == nil:
			if basket.UserID == nil || (userID != nil && *basket.UserID == *userID) {
				return basket, nil
			}
		case !errors.Is(err, service.ErrBasketNotFound):
			return nil, err
		}
	}

	if userID != nil {
		basket, err := ctrl.basketService.GetOpenForUser(ctx, *userID)
		if err == nil {
			return basket, nil
		}
		if !errors.Is(err, service.ErrBasketNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// GetBasket returns the visitor's basket with its lines and totals
// GET /api/v1/basket
func (ctrl *BasketController) GetBasket(c *gin.Context) {
	basket, err := ctrl.currentBasket(c)
	if err != nil {
		apperrors.RespondServiceError(c, err, "get basket")
		return
	}
	c.JSON(http.StatusOK, basketResponse(basket))
}

// AddToBasket adds a product, creating the basket on first use
// POST /api/v1/basket/lines
func (ctrl *BasketController) AddToBasket(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToBasketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	basket, err := ctrl.basketService.AddProduct(c.Request.Context(), service.AddToBasketInput{
		BasketID:  middleware.GetSessionBasketID(c),
		UserID:    middleware.GetUserIDPtr(c),
		ProductID: req.ProductID,
		Quantity:  quantity,
	})
	if err != nil {
		log.Warn("Failed to add to basket", map[string]interface{}{
			"product_id": req.ProductID,
			"error":      err.Error(),
		})
		apperrors.RespondServiceError(c, err, "add product to basket")
		return
	}

	rememberBasket(c, &basket.ID)

	c.JSON(http.StatusOK, basketResponse(basket))
}

// UpdateLine sets a line's quantity; zero removes the line
// PATCH /api/v1/basket/lines/:lineId
func (ctrl *BasketController) UpdateLine(c *gin.Context) {
	lineID, ok := idParam(c, "lineId")
	if !ok {
		return
	}

	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity is required")
		return
	}

	basket, err := ctrl.currentBasket(c)
	if err != nil {
		apperrors.RespondServiceError(c, err, "update basket")
		return
	}
	if basket == nil {
		apperrors.NotFound(c, apperrors.BasketNotFound, service.ErrBasketNotFound.Error())
		return
	}

	basket, err = ctrl.basketService.UpdateLine(c.Request.Context(), basket.ID, lineID, *req.Quantity)
	if err != nil {
		apperrors.RespondServiceError(c, err, "update basket")
		return
	}

	c.JSON(http.StatusOK, basketResponse(basket))
}

// RemoveLine
// DELETE /api/v1/basket/lines/:lineId
func (ctrl *BasketController) RemoveLine(c *gin.Context) {
	lineID, ok := idParam(c, "lineId")
	if !ok {
		return
	}

	basket, err := ctrl.currentBasket(c)
	if err != nil {
		apperrors.RespondServiceError(c, err, "update basket")
		return
	}
	if basket == nil {
		apperrors.NotFound(c, apperrors.BasketNotFound, service.ErrBasketNotFound.Error())
		return
	}

	basket, err = ctrl.basketService.RemoveLine(c.Request.Context(), basket.ID, lineID)
	if err != nil {
		apperrors.RespondServiceError(c, err, "update basket")
		return
	}

	c.JSON(http.StatusOK, basketResponse(basket))
}

// Checkout turns the basket into an order. The session forgets the
// basket once it is submitted.
// POST /api/v1/basket/checkout
func (ctrl *BasketController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "billing_address_id and shipping_address_id are required")
		return
	}

	basket, err := ctrl.currentBasket(c)
	if err != nil {
		apperrors.RespondServiceError(c, err, "checkout")
		return
	}
	if basket == nil {
		apperrors.Conflict(c, apperrors.BasketPrecondition, service.ErrBasketEmpty.Error())
		return
	}

	order, err := ctrl.basketService.Checkout(c.Request.Context(), basket.ID, req.BillingAddressID, req.ShippingAddressID)
	if err != nil {
		log.Warn("Checkout failed", map[string]interface{}{
			"user_id":   userID,
			"basket_id": basket.ID,
			"error":     err.Error(),
		})
		apperrors.RespondServiceError(c, err, "checkout")
		return
	}

	rememberBasket(c, nil)

	log.Info("Order placed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
	})

	c.JSON(http.StatusCreated, orderResponse(order))
}
