package router

import (
	"net/http"
	"time"

	"github.com/booktime/booktime-backend/config"
	"github.com/booktime/booktime-backend/internal/app/controller"
	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authController    *controller.AuthController
	productController *controller.ProductController
	imageController   *controller.ImageController
	basketController  *controller.BasketController
	orderController   *controller.OrderController
	addressController *controller.AddressController
	contactController *controller.ContactController
	adminController   *controller.AdminController
	reportController  *controller.ReportController
	liveController    *controller.LiveController
	authMiddleware    *middleware.AuthMiddleware
	sessionMiddleware *middleware.SessionMiddleware
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	imageController *controller.ImageController,
	basketController *controller.BasketController,
	orderController *controller.OrderController,
	addressController *controller.AddressController,
	contactController *controller.ContactController,
	adminController *controller.AdminController,
	reportController *controller.ReportController,
	liveController *controller.LiveController,
	authMiddleware *middleware.AuthMiddleware,
	sessionMiddleware *middleware.SessionMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		productController: productController,
		imageController:   imageController,
		basketController:  basketController,
		orderController:   orderController,
		addressController: addressController,
		contactController: contactController,
		adminController:   adminController,
		reportController:  reportController,
		liveController:    liveController,
		authMiddleware:    authMiddleware,
		sessionMiddleware: sessionMiddleware,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "BookTime API is running",
		})
	})

	// Product images live on local disk when no bucket is configured
	if r.config.S3.Bucket == "" {
		router.Static(r.config.Media.URL, r.config.Media.Root)
	}

	v1 := router.Group("/api/v1")
	v1.Use(r.sessionMiddleware.Load())
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", r.authController.Signup)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		v1.GET("/products/:tag", r.productController.ListProducts)
		v1.GET("/product/:slug", r.productController.GetProduct)
		v1.GET("/tags", r.productController.ListTags)

		v1.POST("/contact-us", r.contactController.Send)

		basket := v1.Group("/basket")
		basket.Use(r.authMiddleware.OptionalAuthenticate())
		{
			basket.GET("", r.basketController.GetBasket)
			basket.POST("/lines", r.basketController.AddToBasket)
			basket.PATCH("/lines/:lineId", r.basketController.UpdateLine)
			basket.DELETE("/lines/:lineId", r.basketController.RemoveLine)
		}
		v1.POST("/basket/checkout", r.authMiddleware.Authenticate(), r.basketController.Checkout)

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.GET("", r.orderController.ListOrders)
			orders.GET("/:id", r.orderController.GetOrder)
		}

		addresses := v1.Group("/addresses")
		addresses.Use(r.authMiddleware.Authenticate())
		{
			addresses.GET("", r.addressController.ListAddresses)
			addresses.GET("/countries", r.addressController.ListCountries)
			addresses.GET("/:id", r.addressController.GetAddress)
			addresses.POST("", r.addressController.CreateAddress)
			addresses.PUT("/:id", r.addressController.UpdateAddress)
			addresses.DELETE("/:id", r.addressController.DeleteAddress)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireStaff())
		{
			admin.GET("/live", r.liveController.Orders)

			admin.GET("/resources", r.adminController.ListResources)
			admin.GET("/resources/:resource", r.adminController.List)
			admin.GET("/resources/:resource/:id", r.adminController.Get)
			admin.PATCH("/resources/:resource/:id", r.adminController.Update)

			office := admin.Group("")
			office.Use(r.authMiddleware.RequireRole(model.RoleOwner, model.RoleCentralOffice))
			{
				office.POST("/catalog/products", r.productController.CreateProduct)
				office.PUT("/catalog/products/:id", r.productController.UpdateProduct)
				office.DELETE("/catalog/products/:id", r.productController.DeleteProduct)
				office.POST("/catalog/tags", r.productController.CreateTag)

				office.GET("/catalog/products/:id/images", r.imageController.ListImages)
				office.POST("/catalog/products/:id/images", r.imageController.UploadImage)
				office.DELETE("/catalog/products/:id/images/:imageId", r.imageController.DeleteImage)

				office.GET("/reports/sales", r.reportController.Sales)
				office.GET("/reports/sales/export", r.reportController.Export)
			}
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			// credentials forbid a literal wildcard, so echo the origin back
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}
