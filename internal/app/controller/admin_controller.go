package controller

import (
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AdminController exposes every admin resource through one set of
// handlers. What a caller sees and may change comes from the role policy.
type AdminController struct {
	adminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{
		adminService: adminService,
	}
}

// ListResources describes the resources the caller's role can open
// GET /api/v1/admin/resources
func (ctrl *AdminController) ListResources(c *gin.Context) {
	role, _ := middleware.GetUserRole(c)

	resources := []gin.H{}
	for _, r := range service.ResourcesFor(role) {
		policy, _ := service.PolicyFor(role, r)
		resources = append(resources, gin.H{
			"name":     r,
			"visible":  policy.Visible,
			"editable": policy.Editable,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"role":      role,
		"resources": resources,
	})
}

// List
// GET /api/v1/admin/resources/:resource?page=&page_size=
func (ctrl *AdminController) List(c *gin.Context) {
	role, _ := middleware.GetUserRole(c)

	page, ok := intQuery(c, "page")
	if !ok {
		return
	}
	pageSize, ok := intQuery(c, "page_size")
	if !ok {
		return
	}

	result, err := ctrl.adminService.List(c.Request.Context(), role, service.Resource(c.Param("resource")), page, pageSize)
	if err != nil {
		apperrors.RespondServiceError(c, err, "list "+c.Param("resource"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resource":  result.Resource,
		"rows":      result.Rows,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
	})
}

// Get
// GET /api/v1/admin/resources/:resource/:id
func (ctrl *AdminController) Get(c *gin.Context) {
	role, _ := middleware.GetUserRole(c)

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	row, err := ctrl.adminService.Get(c.Request.Context(), role, service.Resource(c.Param("resource")), id)
	if err != nil {
		apperrors.RespondServiceError(c, err, "get "+c.Param("resource"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"row": row,
	})
}

// Update changes editable fields of one row
// PATCH /api/v1/admin/resources/:resource/:id
func (ctrl *AdminController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	role, _ := middleware.GetUserRole(c)
	userID, _ := middleware.GetUserID(c)

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil || len(changes) == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "A JSON object of field changes is required")
		return
	}

	resource := service.Resource(c.Param("resource"))
	row, err := ctrl.adminService.Update(c.Request.Context(), role, resource, id, changes)
	if err != nil {
		log.Warn("Admin update failed", map[string]interface{}{
			"user_id":  userID,
			"resource": resource,
			"id":       id,
			"error":    err.Error(),
		})
		apperrors.RespondServiceError(c, err, "update "+string(resource))
		return
	}

	log.Info("Admin update", map[string]interface{}{
		"user_id":  userID,
		"role":     role,
		"resource": resource,
		"id":       id,
	})

	c.JSON(http.StatusOK, gin.H{
		"row": row,
	})
}
