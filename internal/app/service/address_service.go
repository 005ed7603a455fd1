package service

import (
	"context"
	"strings"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/pkg/logger"
)

type AddressInput struct {
	Name     string
	Address1 string
	Address2 string
	ZipCode  string
	City     string
	Country  string
}

type AddressService interface {
	GetUserAddresses(ctx context.Context, userID uint) ([]model.Address, error)
	GetUserAddress(ctx context.Context, userID, addressID uint) (*model.Address, error)
	CreateAddress(ctx context.Context, userID uint, in AddressInput) (*model.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID uint, in AddressInput) (*model.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{
		addressRepo: addressRepo,
	}
}

func (s *addressService) GetUserAddresses(ctx context.Context, userID uint) ([]model.Address, error) {
	logger.Debug("Fetching user addresses", map[string]interface{}{
		"user_id": userID,
	})

	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

// GetUserAddress hides other users' addresses behind ErrAddressNotFound.
func (s *addressService) GetUserAddress(ctx context.Context, userID, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByIDAndUser(addressID, userID)
	if err != nil {
		return nil, notFound(err, ErrAddressNotFound)
	}
	return address, nil
}

func validateAddress(in *AddressInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address1 = strings.TrimSpace(in.Address1)
	in.Address2 = strings.TrimSpace(in.Address2)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.ToUpper(strings.TrimSpace(in.Country))

	fields := map[string]string{}
	required := map[string]string{
		"name":     in.Name,
		"address1": in.Address1,
		"zip_code": in.ZipCode,
		"city":     in.City,
	}
	for field, value := range required {
		if value == "" {
			fields[field] = field + " is required"
		}
	}
	if !model.IsSupportedCountry(in.Country) {
		fields["country"] = ErrUnsupportedCountry.Error()
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *addressService) CreateAddress(ctx context.Context, userID uint, in AddressInput) (*model.Address, error) {
	if err := validateAddress(&in); err != nil {
		return nil, err
	}

	address := &model.Address{
		UserID:   userID,
		Name:     in.Name,
		Address1: in.Address1,
		Address2: in.Address2,
		ZipCode:  in.ZipCode,
		City:     in.City,
		Country:  in.Country,
	}
	if err := s.addressRepo.Create(address); err != nil {
		logger.Error("Failed to create address", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Address created", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})
	return address, nil
}

func (s *addressService) UpdateAddress(ctx context.Context, userID, addressID uint, in AddressInput) (*model.Address, error) {
	address, err := s.GetUserAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if err := validateAddress(&in); err != nil {
		return nil, err
	}

	address.Name = in.Name
	address.Address1 = in.Address1
	address.Address2 = in.Address2
	address.ZipCode = in.ZipCode
	address.City = in.City
	address.Country = in.Country
	if err := s.addressRepo.Update(address); err != nil {
		return nil, err
	}

	logger.Info("Address updated", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})
	return address, nil
}

func (s *addressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	address, err := s.GetUserAddress(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if err := s.addressRepo.Delete(address.ID); err != nil {
		return err
	}
	logger.Info("Address deleted", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})
	return nil
}
