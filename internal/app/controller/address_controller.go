package controller

import (
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{
		addressService: addressService,
	}
}

type AddressRequest struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	ZipCode  string `json:"zip_code"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

func (r AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		Name:     r.Name,
		Address1: r.Address1,
		Address2: r.Address2,
		ZipCode:  r.ZipCode,
		City:     r.City,
		Country:  r.Country,
	}
}

// ListAddresses returns the caller's addresses
// GET /api/v1/addresses
func (ctrl *AddressController) ListAddresses(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	addresses, err := ctrl.addressService.GetUserAddresses(c.Request.Context(), userID)
	if err != nil {
		apperrors.RespondServiceError(c, err, "list addresses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// GetAddress
// GET /api/v1/addresses/:id
func (ctrl *AddressController) GetAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	address, err := ctrl.addressService.GetUserAddress(c.Request.Context(), userID, id)
	if err != nil {
		apperrors.RespondServiceError(c, err, "get address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}

// CreateAddress
// POST /api/v1/addresses
func (ctrl *AddressController) CreateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return
	}

	address, err := ctrl.addressService.CreateAddress(c.Request.Context(), userID, req.input())
	if err != nil {
		apperrors.RespondServiceError(c, err, "create address")
		return
	}

	log.Info("Address created", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"address": address,
	})
}

// UpdateAddress
// PUT /api/v1/addresses/:id
func (ctrl *AddressController) UpdateAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return
	}

	address, err := ctrl.addressService.UpdateAddress(c.Request.Context(), userID, id, req.input())
	if err != nil {
		apperrors.RespondServiceError(c, err, "update address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}

// DeleteAddress
// DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.DeleteAddress(c.Request.Context(), userID, id); err != nil {
		apperrors.RespondServiceError(c, err, "delete address")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListCountries returns the countries addresses may use
// GET /api/v1/addresses/countries
func (ctrl *AddressController) ListCountries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"countries": model.SupportedCountries,
	})
}
