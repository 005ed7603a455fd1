package controller

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// createOrder stores an order with one item per unit of product.
func (env *testEnv) createOrder(t *testing.T, user *model.User, status model.OrderStatus, product *model.Product, units int) *model.Order {
	t.Helper()
	address := env.createAddress(t, user.ID, "Khartoum")
	order := &model.Order{UserID: user.ID, Status: status}
	order.SetBilling(*address)
	order.SetShipping(*address)
	for i := 0; i < units; i++ {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: product.ID,
			Status:    model.OrderItemStatusNew,
			Price:     product.Price,
		})
	}
	require.NoError(t, env.db.Create(order).Error)
	return order
}

type staffTokens struct {
	owner, office, dispatcher, customer string
}

func (env *testEnv) staff(t *testing.T) staffTokens {
	t.Helper()
	env.createUser(t, "owner@example.com", true, "")
	env.createUser(t, "office@example.com", false, model.GroupEmployees)
	env.createUser(t, "dispatch@example.com", false, model.GroupDispatchers)
	env.createUser(t, "customer@example.com", false, "")

	var tokens staffTokens
	tokens.owner, _ = env.login(t, "owner@example.com")
	tokens.office, _ = env.login(t, "office@example.com")
	tokens.dispatcher, _ = env.login(t, "dispatch@example.com")
	tokens.customer, _ = env.login(t, "customer@example.com")
	return tokens
}

func resourceNames(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var names []string
	for _, r := range decode(t, w)["resources"].([]interface{}) {
		names = append(names, r.(map[string]interface{})["name"].(string))
	}
	return names
}

func TestAdminController_ListResources(t *testing.T) {
	env := setupControllerTest(t)
	tokens := env.staff(t)

	w := env.do(t, http.MethodGet, "/api/v1/admin/resources", nil, request{token: tokens.owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resourceNames(t, w), "users")

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources", nil, request{token: tokens.office})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, resourceNames(t, w), "users")

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources", nil, request{token: tokens.dispatcher})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"products", "orders", "order_items"}, resourceNames(t, w))

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources", nil, request{token: tokens.customer})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHZ_STAFF_ONLY", decode(t, w)["error"])
}

func TestAdminController_DispatcherSeesPaidOrdersOnly(t *testing.T) {
	env := setupControllerTest(t)
	tokens := env.staff(t)
	buyer := env.createUser(t, "buyer@example.com", false, "")
	product := env.createProduct(t, "dune", "9.99")
	env.createOrder(t, buyer, model.OrderStatusNew, product, 1)
	paid := env.createOrder(t, buyer, model.OrderStatusPaid, product, 2)

	w := env.do(t, http.MethodGet, "/api/v1/admin/resources/orders", nil, request{token: tokens.dispatcher})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(1), body["total"])
	row := body["rows"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(paid.ID), row["id"])
	assert.Contains(t, row, "shipping_city")
	assert.NotContains(t, row, "billing_city")
	assert.NotContains(t, row, "user_id")

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources/orders", nil, request{token: tokens.office})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["total"])

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources/users", nil, request{token: tokens.dispatcher})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources/order_items?page=0", nil, request{token: tokens.dispatcher})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminController_UpdateOrder(t *testing.T) {
	env := setupControllerTest(t)
	tokens := env.staff(t)
	buyer := env.createUser(t, "buyer@example.com", false, "")
	product := env.createProduct(t, "dune", "9.99")
	order := env.createOrder(t, buyer, model.OrderStatusNew, product, 1)
	path := fmt.Sprintf("/api/v1/admin/resources/orders/%d", order.ID)

	// not paid yet, so out of the dispatcher's reach
	w := env.do(t, http.MethodPatch, path, map[string]interface{}{"status": "done"}, request{token: tokens.dispatcher})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPatch, path, map[string]interface{}{"status": "paid"}, request{token: tokens.office})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "paid", decode(t, w)["row"].(map[string]interface{})["status"])
	assert.Equal(t, []uint{order.ID}, env.events.paid)

	w = env.do(t, http.MethodPatch, path, map[string]interface{}{"shipping_city": "Riyadh"}, request{token: tokens.dispatcher})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, path, map[string]interface{}{"status": "lost"}, request{token: tokens.office})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, path, map[string]interface{}{"colour": "red"}, request{token: tokens.office})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, path, map[string]interface{}{}, request{token: tokens.office})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	itemPath := fmt.Sprintf("/api/v1/admin/resources/order_items/%d", order.Items[0].ID)
	w = env.do(t, http.MethodPatch, itemPath, map[string]interface{}{"status": "sent"}, request{token: tokens.dispatcher})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "sent", decode(t, w)["row"].(map[string]interface{})["status"])

	w = env.do(t, http.MethodGet, itemPath, nil, request{token: tokens.dispatcher})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w)["row"], "price")
}

func TestReportController_Sales(t *testing.T) {
	env := setupControllerTest(t)
	tokens := env.staff(t)
	buyer := env.createUser(t, "buyer@example.com", false, "")
	dune := env.createProduct(t, "dune", "9.99")
	emma := env.createProduct(t, "emma", "2.50")
	env.createOrder(t, buyer, model.OrderStatusNew, dune, 3)
	env.createOrder(t, buyer, model.OrderStatusPaid, emma, 1)

	w := env.do(t, http.MethodGet, "/api/v1/admin/reports/sales?period=60", nil, request{token: tokens.office})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	report := body["report"].(map[string]interface{})
	assert.Equal(t, float64(60), report["period"])
	assert.NotEmpty(t, report["orders_by_day"])
	top := report["top_products"].([]interface{})
	require.Len(t, top, 2)
	assert.Equal(t, "dune", top[0].(map[string]interface{})["name"])
	assert.Equal(t, float64(3), top[0].(map[string]interface{})["quantity"])
	assert.Equal(t, []interface{}{float64(30), float64(60), float64(90)}, body["periods"])

	w = env.do(t, http.MethodGet, "/api/v1/admin/reports/sales?period=45", nil, request{token: tokens.office})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/reports/sales", nil, request{token: tokens.dispatcher})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportController_Export(t *testing.T) {
	env := setupControllerTest(t)
	tokens := env.staff(t)

	w := env.do(t, http.MethodGet, "/api/v1/admin/reports/sales/export", nil, request{token: tokens.owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sales-report.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Orders per day", "Top products"}, f.GetSheetList())
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (env *testEnv) upload(t *testing.T, path, token, field string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "cover.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestImageController_UploadListDelete(t *testing.T) {
	env := setupControllerTest(t)
	tokens := env.staff(t)
	product := env.createProduct(t, "dune", "9.99")
	base := fmt.Sprintf("/api/v1/admin/catalog/products/%d/images", product.ID)

	w := env.upload(t, base, tokens.office, "image", pngBytes(t, 400, 400))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode(t, w)["image"].(map[string]interface{})
	assert.NotEmpty(t, saved["thumbnail_url"])
	assert.Equal(t, 2, env.objects.Len())

	w = env.do(t, http.MethodGet, base, nil, request{token: tokens.office})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["images"], 1)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, uint(saved["id"].(float64))), nil, request{token: tokens.office})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, env.objects.Len())
}

func TestImageController_UploadRejected(t *testing.T) {
	env := setupControllerTest(t)
	tokens := env.staff(t)
	product := env.createProduct(t, "dune", "9.99")
	base := fmt.Sprintf("/api/v1/admin/catalog/products/%d/images", product.ID)

	w := env.upload(t, base, tokens.office, "file", pngBytes(t, 10, 10))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.upload(t, base, tokens.office, "image", []byte("not an image at all"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// sniffs as PNG but cannot be decoded
	w = env.upload(t, base, tokens.office, "image", []byte("\x89PNG\r\n\x1a\ntruncated"))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = env.upload(t, "/api/v1/admin/catalog/products/999/images", tokens.office, "image", pngBytes(t, 10, 10))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.upload(t, base, tokens.dispatcher, "image", pngBytes(t, 10, 10))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, env.objects.Len())
}
