package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/internal/app/service"
	"github.com/booktime/booktime-backend/internal/db"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/booktime/booktime-backend/internal/session"
	"github.com/booktime/booktime-backend/internal/storage"
	"github.com/booktime/booktime-backend/pkg/mailer"
	appredis "github.com/booktime/booktime-backend/pkg/redis"
	"github.com/booktime/booktime-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret     = "test-secret"
	testCookieName = "sessionid"
	testPassword   = "password123"
)

type orderRecorder struct {
	mu      sync.Mutex
	created []uint
	paid    []uint
}

func (r *orderRecorder) OrderCreated(order *model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, order.ID)
}

func (r *orderRecorder) OrderPaid(order *model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, order.ID)
}

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	outbox  *mailer.Outbox
	objects *storage.MemoryStorage
	events  *orderRecorder
}

// setupControllerTest wires every controller against an in-memory
// database with the same routes the server exposes.
func setupControllerTest(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		db:      testDB,
		outbox:  &mailer.Outbox{},
		objects: storage.NewMemoryStorage(),
		events:  &orderRecorder{},
	}
	blacklist := appredis.NewMemoryBlacklist()

	orderRepo := repository.NewOrderRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)

	basketService := service.NewBasketService(
		testDB, repository.NewBasketRepository(testDB), orderRepo, appredis.NewLocalLocker(), env.events,
	)
	authService := service.NewAuthService(
		repository.NewUserRepository(testDB),
		basketService,
		env.outbox,
		blacklist,
		"noreply@booktime.test",
		testSecret,
		15*time.Minute,
		7*24*time.Hour,
	)

	authCtrl := NewAuthController(authService)
	productCtrl := NewProductController(service.NewCatalogService(productRepo, repository.NewTagRepository(testDB)))
	imageCtrl := NewImageController(service.NewImageService(productRepo, repository.NewProductImageRepository(testDB), env.objects))
	basketCtrl := NewBasketController(basketService)
	orderCtrl := NewOrderController(service.NewOrderService(orderRepo))
	addressCtrl := NewAddressController(service.NewAddressService(repository.NewAddressRepository(testDB)))
	contactCtrl := NewContactController(service.NewContactService(env.outbox, "noreply@booktime.test", "support@booktime.test"))
	adminCtrl := NewAdminController(service.NewAdminService(testDB, orderRepo, env.events))
	reportCtrl := NewReportController(service.NewReportService(repository.NewReportRepository(testDB)))

	authMW := middleware.NewAuthMiddleware(testSecret, blacklist)
	sessionMW := middleware.NewSessionMiddleware(session.NewMemoryStore(time.Hour), testCookieName, time.Hour, false)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(sessionMW.Load())

	v1.POST("/auth/signup", authCtrl.Signup)
	v1.POST("/auth/login", authCtrl.Login)
	v1.POST("/auth/logout", authMW.Authenticate(), authCtrl.Logout)
	v1.GET("/auth/me", authMW.Authenticate(), authCtrl.GetMe)

	v1.GET("/products/:tag", productCtrl.ListProducts)
	v1.GET("/product/:slug", productCtrl.GetProduct)
	v1.GET("/tags", productCtrl.ListTags)
	v1.POST("/contact-us", contactCtrl.Send)

	basket := v1.Group("/basket", authMW.OptionalAuthenticate())
	basket.GET("", basketCtrl.GetBasket)
	basket.POST("/lines", basketCtrl.AddToBasket)
	basket.PATCH("/lines/:lineId", basketCtrl.UpdateLine)
	basket.DELETE("/lines/:lineId", basketCtrl.RemoveLine)
	v1.POST("/basket/checkout", authMW.Authenticate(), basketCtrl.Checkout)

	orders := v1.Group("/orders", authMW.Authenticate())
	orders.GET("", orderCtrl.ListOrders)
	orders.GET("/:id", orderCtrl.GetOrder)

	addresses := v1.Group("/addresses", authMW.Authenticate())
	addresses.GET("", addressCtrl.ListAddresses)
	addresses.GET("/countries", addressCtrl.ListCountries)
	addresses.GET("/:id", addressCtrl.GetAddress)
	addresses.POST("", addressCtrl.CreateAddress)
	addresses.PUT("/:id", addressCtrl.UpdateAddress)
	addresses.DELETE("/:id", addressCtrl.DeleteAddress)

	admin := v1.Group("/admin", authMW.Authenticate(), authMW.RequireStaff())
	admin.GET("/resources", adminCtrl.ListResources)
	admin.GET("/resources/:resource", adminCtrl.List)
	admin.GET("/resources/:resource/:id", adminCtrl.Get)
	admin.PATCH("/resources/:resource/:id", adminCtrl.Update)

	office := admin.Group("", authMW.RequireRole(model.RoleOwner, model.RoleCentralOffice))
	office.POST("/catalog/products", productCtrl.CreateProduct)
	office.PUT("/catalog/products/:id", productCtrl.UpdateProduct)
	office.DELETE("/catalog/products/:id", productCtrl.DeleteProduct)
	office.POST("/catalog/tags", productCtrl.CreateTag)
	office.GET("/catalog/products/:id/images", imageCtrl.ListImages)
	office.POST("/catalog/products/:id/images", imageCtrl.UploadImage)
	office.DELETE("/catalog/products/:id/images/:imageId", imageCtrl.DeleteImage)
	office.GET("/reports/sales", reportCtrl.Sales)
	office.GET("/reports/sales/export", reportCtrl.Export)

	env.router = r
	return env
}

// request carries the optional credentials of one test call.
type request struct {
	token   string
	cookies []*http.Cookie
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}, opts request) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	for _, c := range opts.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	return nil
}

// createUser stores an active user with testPassword. group, if set,
// makes the user staff in that group.
func (env *testEnv) createUser(t *testing.T, email string, superuser bool, group string) *model.User {
	t.Helper()
	hash, err := util.HashPassword(testPassword)
	require.NoError(t, err)
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superuser,
		IsStaff:      superuser || group != "",
	}
	require.NoError(t, env.db.Create(user).Error)
	if group != "" {
		require.NoError(t, repository.NewUserRepository(env.db).AddToGroup(user.ID, group))
	}
	return user
}

// login returns the access token and whatever session cookie the
// response set.
func (env *testEnv) login(t *testing.T, email string, cookies ...*http.Cookie) (string, *httptest.ResponseRecorder) {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Email: email, Password: testPassword}, request{cookies: cookies})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tokens := decode(t, w)["tokens"].(map[string]interface{})
	return tokens["access_token"].(string), w
}

func (env *testEnv) createProduct(t *testing.T, slug, price string, tags ...model.ProductTag) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:    slug,
		Slug:    slug,
		Price:   decimal.RequireFromString(price),
		Active:  true,
		InStock: true,
		Tags:    tags,
	}
	require.NoError(t, env.db.Create(product).Error)
	return product
}

func (env *testEnv) createAddress(t *testing.T, userID uint, city string) *model.Address {
	t.Helper()
	address := &model.Address{
		UserID:   userID,
		Name:     "Home",
		Address1: "1 Nile Street",
		ZipCode:  "11111",
		City:     city,
		Country:  "SD",
	}
	require.NoError(t, env.db.Create(address).Error)
	return address
}
