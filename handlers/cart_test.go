package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nik-nicole/energym1-sub001/cart"
	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func setupCartTest(t *testing.T) (*CartHandler, sqlmock.Sqlmock, *cart.MemoryStore, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	store := cart.NewMemoryStore()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	handler := NewCartHandler(db, store, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(authAs(1, models.RoleCliente))
	router.GET("/cart", handler.GetCart)
	router.POST("/cart/items", handler.AddItem)
	router.PUT("/cart/items/:productId", handler.UpdateItem)
	router.DELETE("/cart/items/:productId", handler.RemoveItem)
	router.DELETE("/cart", handler.ClearCart)

	return handler, mock, store, router
}

func cartProductRow(id int, name string, price float64, stock int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "price", "stock", "category", "image_url", "sede_id"}).
		AddRow(id, name, price, stock, "suplementos", "", 1)
}

func expectCartProduct(mock sqlmock.Sqlmock, id int, rows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT id, name, price, stock, category, COALESCE\\(image_url, ''\\), COALESCE\\(sede_id, 0\\) FROM products WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(rows)
}

func postCartItem(t *testing.T, router *gin.Engine, productID int) *httptest.ResponseRecorder {
	t.Helper()

	data, _ := json.Marshal(addCartItemRequest{ProductID: productID})
	req := httptest.NewRequest("POST", "/cart/items", bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)
	return w
}

func TestCartHandler_AddItem_RecomputesTotals(t *testing.T) {
	handler, mock, _, router := setupCartTest(t)
	defer handler.db.Close()

	expectCartProduct(mock, 10, cartProductRow(10, "Proteína Whey", 10000, 5))
	expectCartProduct(mock, 10, cartProductRow(10, "Proteína Whey", 10000, 5))
	expectCartProduct(mock, 3, cartProductRow(3, "Shaker", 5000, 8))

	postCartItem(t, router, 10)
	postCartItem(t, router, 10)
	w := postCartItem(t, router, 3)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var current cart.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &current); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(current.Items) != 2 {
		t.Fatalf("Expected 2 distinct items, got %d", len(current.Items))
	}
	if current.ItemCount != 3 {
		t.Errorf("Expected item count 3, got %d", current.ItemCount)
	}
	if current.Total != 25000 {
		t.Errorf("Expected total 25000, got %f", current.Total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCartHandler_AddItem_OutOfStock(t *testing.T) {
	handler, mock, _, router := setupCartTest(t)
	defer handler.db.Close()

	expectCartProduct(mock, 10, cartProductRow(10, "Proteína Whey", 10000, 0))

	w := postCartItem(t, router, 10)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Producto sin stock" {
		t.Errorf("Unexpected error message: %q", resp["error"])
	}
}

func TestCartHandler_AddItem_ProductNotFound(t *testing.T) {
	handler, mock, _, router := setupCartTest(t)
	defer handler.db.Close()

	// An empty result set surfaces as sql.ErrNoRows from QueryRow.
	expectCartProduct(mock, 999,
		sqlmock.NewRows([]string{"id", "name", "price", "stock", "category", "image_url", "sede_id"}))

	w := postCartItem(t, router, 999)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestCartHandler_UpdateItem_ClampsToStock(t *testing.T) {
	handler, _, store, router := setupCartTest(t)
	defer handler.db.Close()

	seed := cart.Cart{}.AddItem(cart.Item{ProductID: 10, Name: "Proteína Whey", Price: 10000, Stock: 3})
	store.Save(context.Background(), 1, seed)

	quantity := 50
	data, _ := json.Marshal(updateCartItemRequest{Quantity: &quantity})
	req := httptest.NewRequest("PUT", "/cart/items/10", bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var current cart.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &current); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if current.Items[0].Quantity != 3 {
		t.Errorf("Expected quantity clamped to 3, got %d", current.Items[0].Quantity)
	}
	if current.Total != 30000 {
		t.Errorf("Expected total 30000, got %f", current.Total)
	}
}

func TestCartHandler_RemoveAndClear(t *testing.T) {
	handler, _, store, router := setupCartTest(t)
	defer handler.db.Close()

	seed := cart.Cart{}.
		AddItem(cart.Item{ProductID: 10, Name: "Proteína Whey", Price: 10000, Stock: 5}).
		AddItem(cart.Item{ProductID: 3, Name: "Shaker", Price: 5000, Stock: 8})
	store.Save(context.Background(), 1, seed)

	req := httptest.NewRequest("DELETE", "/cart/items/10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var current cart.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &current); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(current.Items) != 1 || current.Items[0].ProductID != 3 {
		t.Fatalf("Expected only product 3 to remain, got %+v", current.Items)
	}

	req = httptest.NewRequest("DELETE", "/cart", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	loaded, _ := store.Load(context.Background(), 1)
	if len(loaded.Items) != 0 {
		t.Errorf("Expected empty cart after clear, got %d items", len(loaded.Items))
	}
}
