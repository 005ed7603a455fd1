package controller

import (
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// SignupRequest mirrors the signup form; field validation happens in the
// service so that errors come back keyed by form field.
type SignupRequest struct {
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role(),
	}
}

// rememberBasket points the session at the basket the login left the
// visitor with. A failure only costs the visitor their basket reference.
func rememberBasket(c *gin.Context, basketID *uint) {
	if err := middleware.SetSessionBasketID(c, basketID); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Failed to save session", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Signup handles user registration
// POST /api/v1/auth/signup
func (ctrl *AuthController) Signup(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid signup request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return
	}

	result, err := ctrl.authService.Signup(c.Request.Context(), service.SignupInput{
		Email:           req.Email,
		Password:        req.Password1,
		PasswordConfirm: req.Password2,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	}, middleware.GetSessionBasketID(c))
	if err != nil {
		log.Warn("Signup failed", map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		apperrors.RespondServiceError(c, err, "create user")
		return
	}

	rememberBasket(c, result.BasketID)

	log.Info("User signed up", map[string]interface{}{
		"user_id": result.User.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":   "You signed up successfully",
		"user":      userResponse(result.User),
		"tokens":    result.Tokens,
		"basket_id": result.BasketID,
	})
}

// Login handles user login and merges the visitor's anonymous basket
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return
	}

	result, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password, middleware.GetSessionBasketID(c))
	if err != nil {
		log.Warn("Login failed", map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		apperrors.RespondServiceError(c, err, "login")
		return
	}

	rememberBasket(c, result.BasketID)

	log.Info("Login successful", map[string]interface{}{
		"user_id":   result.User.ID,
		"basket_id": result.BasketID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"user":      userResponse(result.User),
		"tokens":    result.Tokens,
		"basket_id": result.BasketID,
	})
}

// Logout revokes the access token used for the request
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), claims); err != nil {
		log.Error("Logout failed", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		apperrors.InternalError(c, "")
		return
	}

	rememberBasket(c, nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		apperrors.RespondServiceError(c, err, "get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}
