package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultAdminPageSize = 20
	MaxAdminPageSize     = 100
)

type AdminPage struct {
	Resource Resource                 `json:"resource"`
	Rows     []map[string]interface{} `json:"rows"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// AdminService is the single admin view used by every staff role. What a
// role can see or change comes from Policies.
type AdminService interface {
	List(ctx context.Context, role model.AdminRole, r Resource, page, pageSize int) (*AdminPage, error)
	Get(ctx context.Context, role model.AdminRole, r Resource, id uint) (map[string]interface{}, error)
	Update(ctx context.Context, role model.AdminRole, r Resource, id uint, changes map[string]interface{}) (map[string]interface{}, error)
}

type adminService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	events    OrderEvents
}

func NewAdminService(db *gorm.DB, orderRepo repository.OrderRepository, events OrderEvents) AdminService {
	return &adminService{
		db:        db,
		orderRepo: orderRepo,
		events:    events,
	}
}

func (s *adminService) policy(role model.AdminRole, r Resource) (ResourcePolicy, resourceMeta, error) {
	meta, ok := resources[r]
	if !ok {
		return ResourcePolicy{}, resourceMeta{}, kindError(ErrNotFound, fmt.Sprintf("unknown resource %q", r))
	}
	policy, ok := PolicyFor(role, r)
	if !ok {
		logger.Warn("Admin resource denied", map[string]interface{}{
			"role":     role,
			"resource": r,
		})
		return ResourcePolicy{}, resourceMeta{}, ErrResourceForbidden
	}
	return policy, meta, nil
}

func (s *adminService) scoped(ctx context.Context, meta resourceMeta, policy ResourcePolicy) *gorm.DB {
	q := s.db.WithContext(ctx).Table(meta.table)
	if policy.Scope != nil {
		q = q.Scopes(policy.Scope)
	}
	return q
}

func (s *adminService) List(ctx context.Context, role model.AdminRole, r Resource, page, pageSize int) (*AdminPage, error) {
	policy, meta, err := s.policy(role, r)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultAdminPageSize
	}
	if pageSize > MaxAdminPageSize {
		pageSize = MaxAdminPageSize
	}

	var total int64
	if err := s.scoped(ctx, meta, policy).Count(&total).Error; err != nil {
		return nil, err
	}

	rows := []map[string]interface{}{}
	err = s.scoped(ctx, meta, policy).
		Select(policy.Visible).
		Order("id ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		logger.Error("Failed to list admin resource", err, map[string]interface{}{
			"resource": r,
		})
		return nil, err
	}

	return &AdminPage{Resource: r, Rows: rows, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *adminService) Get(ctx context.Context, role model.AdminRole, r Resource, id uint) (map[string]interface{}, error) {
	policy, meta, err := s.policy(role, r)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, meta, policy, id)
}

func (s *adminService) get(ctx context.Context, meta resourceMeta, policy ResourcePolicy, id uint) (map[string]interface{}, error) {
	rows := []map[string]interface{}{}
	err := s.scoped(ctx, meta, policy).
		Select(policy.Visible).
		Where(meta.table+".id = ?", id).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, kindError(ErrNotFound, fmt.Sprintf("%s %d not found", meta.table, id))
	}
	return rows[0], nil
}

// Update writes only fields the role may edit, after converting each value
// to its column type. Status fields must hold a known status.
func (s *adminService) Update(ctx context.Context, role model.AdminRole, r Resource, id uint, changes map[string]interface{}) (map[string]interface{}, error) {
	policy, meta, err := s.policy(role, r)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"fields": "no changes given"}}
	}

	values := make(map[string]interface{}, len(changes))
	verr := &ValidationError{}
	for col, raw := range changes {
		kind, known := meta.columns[col]
		if !known {
			verr.Add(col, ErrUnknownAdminField)
			continue
		}
		if !policy.canEdit(col) {
			logger.Warn("Admin field edit denied", map[string]interface{}{
				"role":     role,
				"resource": r,
				"field":    col,
			})
			return nil, ErrFieldNotEditable
		}
		v, err := convertField(kind, raw)
		if err != nil {
			verr.Add(col, err)
			continue
		}
		values[col] = v
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	if meta.updatedColumn != "" {
		values[meta.updatedColumn] = time.Now()
	}

	var becamePaid bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous string
		switch r {
		case ResourceOrders:
			if err := tx.Model(&model.Order{}).Select("status").Where("id = ?", id).Row().Scan(&previous); err != nil {
				return kindError(ErrNotFound, fmt.Sprintf("orders %d not found", id))
			}
		case ResourceBasketLines:
			if err := requireOpenBasketOfLine(tx, id); err != nil {
				return err
			}
		}

		q := tx.Table(meta.table)
		if policy.Scope != nil {
			q = q.Scopes(policy.Scope)
		}
		res := q.Where(meta.table+".id = ?", id).Updates(values)
		if res.Error != nil {
			return conflictOnDuplicate(res.Error, meta.duplicateErr())
		}
		if res.RowsAffected == 0 {
			return kindError(ErrNotFound, fmt.Sprintf("%s %d not found", meta.table, id))
		}
		becamePaid = r == ResourceOrders && values["status"] == model.OrderStatusPaid &&
			previous != string(model.OrderStatusPaid)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Admin resource updated", map[string]interface{}{
		"role":     role,
		"resource": r,
		"id":       id,
		"fields":   len(changes),
	})

	if becamePaid && s.events != nil {
		if order, err := s.orderRepo.FindByID(id); err == nil {
			s.events.OrderPaid(order)
		}
	}

	// the update may have moved the row out of the role's scope
	fresh := policy
	fresh.Scope = nil
	return s.get(ctx, meta, fresh, id)
}

// requireOpenBasketOfLine locks the basket owning the line and refuses
// changes once it has been submitted.
func requireOpenBasketOfLine(tx *gorm.DB, lineID uint) error {
	var line model.BasketLine
	if err := tx.Select("id", "basket_id").First(&line, lineID).Error; err != nil {
		return notFound(err, ErrBasketLineNotFound)
	}
	basket, err := lockBasket(tx, line.BasketID)
	if err != nil {
		return err
	}
	if !basket.IsOpen() {
		return ErrBasketNotOpen
	}
	return nil
}

func convertField(kind fieldKind, raw interface{}) (interface{}, error) {
	switch kind {
	case kindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return strings.TrimSpace(s), nil
	case kindName:
		s, ok := raw.(string)
		if !ok {
			return nil, ErrRequired
		}
		return checkName(s)
	case kindSlug:
		s, ok := raw.(string)
		if !ok {
			return nil, ErrInvalidSlug
		}
		return checkSlug(s, "")
	case kindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("must be true or false")
		}
		return b, nil
	case kindQuantity:
		n, ok := raw.(float64)
		if !ok || n != float64(int(n)) || n < 1 {
			return nil, ErrInvalidQuantity
		}
		return int(n), nil
	case kindPrice:
		var d decimal.Decimal
		switch v := raw.(type) {
		case string:
			parsed, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("must be a decimal number")
			}
			d = parsed
		case float64:
			d = decimal.NewFromFloat(v)
		default:
			return nil, fmt.Errorf("must be a decimal number")
		}
		return checkPrice(d)
	case kindCountry:
		s, _ := raw.(string)
		if !model.IsSupportedCountry(s) {
			return nil, ErrUnsupportedCountry
		}
		return s, nil
	case kindOrderStatus:
		s, _ := raw.(string)
		st := model.OrderStatus(s)
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
		return st, nil
	case kindOrderItemStatus:
		s, _ := raw.(string)
		st := model.OrderItemStatus(s)
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
		return st, nil
	}
	return nil, ErrFieldNotEditable
}
