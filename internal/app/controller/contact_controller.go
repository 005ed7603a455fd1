package controller

import (
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ContactController struct {
	contactService service.ContactService
}

func NewContactController(contactService service.ContactService) *ContactController {
	return &ContactController{
		contactService: contactService,
	}
}

type ContactRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send forwards a site message to customer service
// POST /api/v1/contact-us
func (ctrl *ContactController) Send(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return
	}

	if err := ctrl.contactService.Send(c.Request.Context(), req.Name, req.Message); err != nil {
		log.Warn("Contact form failed", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondServiceError(c, err, "send message")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Thanks, we will be in touch",
	})
}
