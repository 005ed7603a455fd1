package repository

import (
	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"gorm.io/gorm"
)

type AddressRepository interface {
	Create(address *model.Address) error
	FindByID(id uint) (*model.Address, error)
	FindByIDAndUser(id, userID uint) (*model.Address, error)
	FindByUserID(userID uint) ([]model.Address, error)
	Update(address *model.Address) error
	Delete(id uint) error
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) Create(address *model.Address) error {
	logger.Debug("Creating address", map[string]interface{}{
		"user_id": address.UserID,
	})
	return r.db.Create(address).Error
}

func (r *addressRepository) FindByID(id uint) (*model.Address, error) {
	var address model.Address
	if err := r.db.First(&address, id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// FindByIDAndUser misses with gorm.ErrRecordNotFound when the address
// belongs to someone else.
func (r *addressRepository) FindByIDAndUser(id, userID uint) (*model.Address, error) {
	var address model.Address
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		logNotFoundOrError("Failed to find address for user", err, map[string]interface{}{
			"address_id": id,
			"user_id":    userID,
		})
		return nil, err
	}
	return &address, nil
}

func (r *addressRepository) FindByUserID(userID uint) ([]model.Address, error) {
	var addresses []model.Address
	if err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&addresses).Error; err != nil {
		logger.Error("Failed to list addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

func (r *addressRepository) Update(address *model.Address) error {
	logger.Debug("Updating address", map[string]interface{}{
		"address_id": address.ID,
	})
	return r.db.Save(address).Error
}

func (r *addressRepository) Delete(id uint) error {
	logger.Debug("Deleting address", map[string]interface{}{
		"address_id": id,
	})
	return r.db.Delete(&model.Address{}, id).Error
}
