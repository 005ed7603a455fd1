package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/pkg/logger"
	appredis "github.com/booktime/booktime-backend/pkg/redis"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mergeLockTTL = 10 * time.Second

// Locker serializes merges per user across server processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// OrderEvents is told about order lifecycle changes.
type OrderEvents interface {
	OrderCreated(order *model.Order)
	OrderPaid(order *model.Order)
}

type AddToBasketInput struct {
	BasketID  *uint // basket referenced by the session, if any
	UserID    *uint // authenticated user, if any
	ProductID uint
	Quantity  int
}

type BasketService interface {
	Get(ctx context.Context, basketID uint) (*model.Basket, error)
	GetOpenForUser(ctx context.Context, userID uint) (*model.Basket, error)
	AddProduct(ctx context.Context, in AddToBasketInput) (*model.Basket, error)
	UpdateLine(ctx context.Context, basketID, lineID uint, quantity int) (*model.Basket, error)
	RemoveLine(ctx context.Context, basketID, lineID uint) (*model.Basket, error)
	Checkout(ctx context.Context, basketID, billingAddressID, shippingAddressID uint) (*model.Order, error)
	Merge(ctx context.Context, userID uint, anonymousBasketID *uint) (*uint, error)
	PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int64, error)
}

type basketService struct {
	db         *gorm.DB
	basketRepo repository.BasketRepository
	orderRepo  repository.OrderRepository
	locker     Locker
	events     OrderEvents
}

// NewBasketService wires the basket workflows. locker and events may be nil.
func NewBasketService(
	db *gorm.DB,
	basketRepo repository.BasketRepository,
	orderRepo repository.OrderRepository,
	locker Locker,
	events OrderEvents,
) BasketService {
	return &basketService{
		db:         db,
		basketRepo: basketRepo,
		orderRepo:  orderRepo,
		locker:     locker,
		events:     events,
	}
}

func (s *basketService) Get(ctx context.Context, basketID uint) (*model.Basket, error) {
	basket, err := s.basketRepo.FindByID(basketID)
	if err != nil {
		return nil, notFound(err, ErrBasketNotFound)
	}
	return basket, nil
}

func (s *basketService) GetOpenForUser(ctx context.Context, userID uint) (*model.Basket, error) {
	basket, err := s.basketRepo.FindOpenByUserID(userID)
	if err != nil {
		return nil, notFound(err, ErrBasketNotFound)
	}
	return basket, nil
}

func lockBasket(tx *gorm.DB, basketID uint) (*model.Basket, error) {
	var basket model.Basket
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&basket, basketID).Error
	if err != nil {
		return nil, notFound(err, ErrBasketNotFound)
	}
	return &basket, nil
}

func lockOpenBasketOfUser(tx *gorm.DB, userID uint) (*model.Basket, error) {
	var basket model.Basket
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, model.BasketStatusOpen).
		First(&basket).Error
	if err != nil {
		return nil, notFound(err, ErrBasketNotFound)
	}
	return &basket, nil
}

func conflictOnDuplicate(err error, conflict error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict
	}
	return err
}

// AddProduct puts Quantity units of a product into the session basket,
// creating the basket when there is none usable. An existing line for the
// product is incremented rather than duplicated.
func (s *basketService) AddProduct(ctx context.Context, in AddToBasketInput) (*model.Basket, error) {
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var product model.Product
	if err := s.db.WithContext(ctx).Where("id = ? AND active = ?", in.ProductID, true).First(&product).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}

	var basketID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := s.resolveBasketForAdd(tx, in)
		if err != nil {
			return err
		}
		basketID = basket.ID

		var line model.BasketLine
		err = tx.Where("basket_id = ? AND product_id = ?", basket.ID, product.ID).
			Order("id ASC").First(&line).Error
		switch {
		case err == nil:
			if err := tx.Model(&line).UpdateColumn("quantity", gorm.Expr("quantity + ?", in.Quantity)).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = model.BasketLine{BasketID: basket.ID, ProductID: product.ID, Quantity: in.Quantity}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return tx.Model(basket).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		logger.Warn("Add to basket failed", map[string]interface{}{
			"product_id": in.ProductID,
			"error":      err.Error(),
		})
		return nil, err
	}

	logger.Info("Product added to basket", map[string]interface{}{
		"basket_id":  basketID,
		"product_id": in.ProductID,
		"quantity":   in.Quantity,
	})
	return s.Get(ctx, basketID)
}

// resolveBasketForAdd returns the locked basket an add should go into:
// the session's basket while it is open and not someone else's, then the
// user's open basket, then a new one.
func (s *basketService) resolveBasketForAdd(tx *gorm.DB, in AddToBasketInput) (*model.Basket, error) {
	if in.BasketID != nil {
		basket, err := lockBasket(tx, *in.BasketID)
		if err != nil && !errors.Is(err, ErrBasketNotFound) {
			return nil, err
		}
		if basket != nil && basket.IsOpen() && sameOwner(basket.UserID, in.UserID) {
			return basket, nil
		}
	}

	if in.UserID != nil {
		basket, err := lockOpenBasketOfUser(tx, *in.UserID)
		if err == nil {
			return basket, nil
		}
		if !errors.Is(err, ErrBasketNotFound) {
			return nil, err
		}
	}

	basket := &model.Basket{UserID: in.UserID, Status: model.BasketStatusOpen}
	if err := tx.Create(basket).Error; err != nil {
		return nil, conflictOnDuplicate(err, ErrCheckoutConflict)
	}
	logger.Info("Basket created", map[string]interface{}{
		"basket_id": basket.ID,
		"user_id":   in.UserID,
	})
	return basket, nil
}

func sameOwner(basketUser, caller *uint) bool {
	if basketUser == nil {
		return true
	}
	return caller != nil && *basketUser == *caller
}

func (s *basketService) UpdateLine(ctx context.Context, basketID, lineID uint, quantity int) (*model.Basket, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := lockBasket(tx, basketID)
		if err != nil {
			return err
		}
		if !basket.IsOpen() {
			return ErrBasketNotOpen
		}

		var line model.BasketLine
		if err := tx.Where("id = ? AND basket_id = ?", lineID, basketID).First(&line).Error; err != nil {
			return notFound(err, ErrBasketLineNotFound)
		}

		if quantity == 0 {
			if err := tx.Delete(&line).Error; err != nil {
				return err
			}
		} else if err := tx.Model(&line).Update("quantity", quantity).Error; err != nil {
			return err
		}
		return tx.Model(basket).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, basketID)
}

func (s *basketService) RemoveLine(ctx context.Context, basketID, lineID uint) (*model.Basket, error) {
	return s.UpdateLine(ctx, basketID, lineID, 0)
}

// Checkout turns an open basket that belongs to a user into a new order.
// Both addresses are copied into the order and every basket line becomes
// one order item per unit, in line order. The basket is submitted in the
// same transaction.
func (s *basketService) Checkout(ctx context.Context, basketID, billingAddressID, shippingAddressID uint) (*model.Order, error) {
	if billingAddressID == 0 || shippingAddressID == 0 {
		return nil, ErrAddressRequired
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := lockBasket(tx, basketID)
		if err != nil {
			return err
		}
		if basket.UserID == nil {
			return ErrBasketHasNoUser
		}
		if !basket.IsOpen() {
			return ErrBasketNotOpen
		}

		if err := tx.Scopes(repository.PreloadLines).First(basket, basket.ID).Error; err != nil {
			return err
		}
		if basket.IsEmpty() {
			return ErrBasketEmpty
		}

		var billing, shipping model.Address
		if err := tx.Where("id = ? AND user_id = ?", billingAddressID, *basket.UserID).First(&billing).Error; err != nil {
			return notFound(err, ErrAddressNotFound)
		}
		if err := tx.Where("id = ? AND user_id = ?", shippingAddressID, *basket.UserID).First(&shipping).Error; err != nil {
			return notFound(err, ErrAddressNotFound)
		}

		logger.Info("Creating order for basket", map[string]interface{}{
			"basket_id":           basket.ID,
			"shipping_address_id": shipping.ID,
			"billing_address_id":  billing.ID,
		})

		order = &model.Order{UserID: *basket.UserID, Status: model.OrderStatusNew}
		order.SetBilling(billing)
		order.SetShipping(shipping)
		for _, line := range basket.Lines {
			for i := 0; i < line.Quantity; i++ {
				order.Items = append(order.Items, model.OrderItem{
					ProductID: line.ProductID,
					Status:    model.OrderItemStatusNew,
					Price:     line.Product.Price,
				})
			}
		}
		if err := tx.Omit("Items.Product").Create(order).Error; err != nil {
			return err
		}

		res := tx.Model(&model.Basket{}).
			Where("id = ? AND status = ?", basket.ID, model.BasketStatusOpen).
			Update("status", model.BasketStatusSubmitted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrCheckoutConflict
		}
		return nil
	})
	if err != nil {
		logger.Warn("Checkout failed", map[string]interface{}{
			"basket_id": basketID,
			"error":     err.Error(),
		})
		return nil, err
	}

	created, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, fmt.Errorf("reload order %d: %w", order.ID, err)
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":   created.ID,
		"basket_id":  basketID,
		"item_count": len(created.Items),
	})
	if s.events != nil {
		s.events.OrderCreated(created)
	}
	return created, nil
}

// Merge runs once per login. It returns the basket the session should
// reference afterwards, or nil when the session has no usable basket.
//
// If the user already has an open basket, the anonymous basket's lines
// move into it unchanged (no coalescing of equal products) and the
// anonymous basket is deleted. Otherwise the user claims the anonymous
// basket.
func (s *basketService) Merge(ctx context.Context, userID uint, anonymousBasketID *uint) (*uint, error) {
	if anonymousBasketID == nil {
		return nil, nil
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, fmt.Sprintf("basket-merge:%d", userID), mergeLockTTL)
		if err != nil {
			if errors.Is(err, appredis.ErrLockNotAcquired) {
				return nil, ErrMergeInProgress
			}
			return nil, fmt.Errorf("%w: %w", ErrDependency, err)
		}
		defer release()
	}

	var result *uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		anon, err := lockBasket(tx, *anonymousBasketID)
		if errors.Is(err, ErrBasketNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !anon.IsOpen() {
			return nil
		}
		if anon.UserID != nil {
			if *anon.UserID == userID {
				result = &anon.ID
			}
			return nil
		}

		existing, err := lockOpenBasketOfUser(tx, userID)
		switch {
		case err == nil:
			if err := tx.Model(&model.BasketLine{}).
				Where("basket_id = ?", anon.ID).
				Update("basket_id", existing.ID).Error; err != nil {
				return err
			}
			if err := tx.Delete(anon).Error; err != nil {
				return err
			}
			if err := tx.Model(existing).Update("updated_at", time.Now()).Error; err != nil {
				return err
			}
			logger.Info("Merged basket", map[string]interface{}{
				"basket_id":        existing.ID,
				"merged_basket_id": anon.ID,
				"user_id":          userID,
			})
			result = &existing.ID
		case errors.Is(err, ErrBasketNotFound):
			if err := tx.Model(anon).Update("user_id", userID).Error; err != nil {
				return conflictOnDuplicate(err, ErrMergeInProgress)
			}
			logger.Info("Assigned user to basket", map[string]interface{}{
				"basket_id": anon.ID,
				"user_id":   userID,
			})
			result = &anon.ID
		default:
			return err
		}
		return nil
	})
	if err != nil {
		logger.Error("Basket merge failed", err, map[string]interface{}{
			"user_id":   userID,
			"basket_id": *anonymousBasketID,
		})
		return nil, err
	}
	return result, nil
}

func (s *basketService) PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	deleted, err := s.basketRepo.DeleteAbandoned(cutoff)
	if err != nil {
		return 0, err
	}
	logger.Info("Abandoned baskets purged", map[string]interface{}{
		"deleted": deleted,
		"cutoff":  cutoff,
	})
	return deleted, nil
}
