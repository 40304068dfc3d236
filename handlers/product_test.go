package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Nik-nicole/energym1-sub001/images"
	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type stubUploader struct {
	deleted []string
}

func (s *stubUploader) Upload(ctx context.Context, filename string, r io.Reader, folder string) (images.Image, error) {
	return images.Image{URL: "http://img.local/" + filename, PublicID: folder + "/" + filename}, nil
}

func (s *stubUploader) Delete(ctx context.Context, publicID string) error {
	s.deleted = append(s.deleted, publicID)
	return nil
}

func setupProductTest(t *testing.T) (*ProductHandler, sqlmock.Sqlmock, *stubUploader, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	// Nothing listens behind this address, so every cache lookup misses
	// and the handlers fall through to the database.
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	uploader := &stubUploader{}
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	handler := NewProductHandler(db, redisClient, uploader, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/products", handler.GetProducts)
	router.GET("/products/:id", handler.GetProduct)
	router.POST("/products", handler.CreateProduct)
	router.DELETE("/products/:id", handler.DeleteProduct)

	return handler, mock, uploader, router
}

func productColumns() []string {
	return []string{"id", "name", "description", "price", "stock", "category",
		"image_url", "image_public_id", "sede_id", "created_at", "updated_at"}
}

func TestProductHandler_GetProducts(t *testing.T) {
	handler, mock, _, router := setupProductTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT (.+) FROM products").
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow(1, "Proteína Whey", "Vainilla 2lb", 150000.0, 10, "suplementos", "", "", 1, time.Now(), time.Now()).
			AddRow(2, "Guantes de gimnasio", "", 45000.0, 5, "accesorios", "", "", 1, time.Now(), time.Now()))

	req := httptest.NewRequest("GET", "/products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var products []models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &products); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("Expected 2 products, got %d", len(products))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_GetProducts_FilterBySede(t *testing.T) {
	handler, mock, _, router := setupProductTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT (.+) FROM products WHERE sede_id = \\$1").
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow(3, "Shaker", "", 25000.0, 20, "accesorios", "", "", 2, time.Now(), time.Now()))

	req := httptest.NewRequest("GET", "/products?sede_id=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_GetProduct_NotFound(t *testing.T) {
	handler, mock, _, router := setupProductTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = \\$1").
		WithArgs("999").
		WillReturnRows(sqlmock.NewRows(productColumns()))

	req := httptest.NewRequest("GET", "/products/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Producto no encontrado" {
		t.Errorf("Unexpected error message: %q", resp["error"])
	}
}

func TestProductHandler_CreateProduct(t *testing.T) {
	handler, mock, _, router := setupProductTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("Creatina", "Monohidrato 300g", 90000.0, 15, "suplementos", "", "", 1).
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow(5, "Creatina", "Monohidrato 300g", 90000.0, 15, "suplementos", "", "", 1, time.Now(), time.Now()))

	body := models.CreateProductRequest{
		Name:        "Creatina",
		Description: "Monohidrato 300g",
		Price:       90000,
		Stock:       15,
		Category:    "suplementos",
		SedeID:      1,
	}
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/products", bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var product models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &product); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if product.ID != 5 {
		t.Errorf("Expected product ID 5, got %d", product.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_DeleteProduct_CleansUpImage(t *testing.T) {
	handler, mock, uploader, router := setupProductTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT COALESCE\\(image_public_id, ''\\) FROM products WHERE id = \\$1").
		WithArgs("5").
		WillReturnRows(sqlmock.NewRows([]string{"image_public_id"}).AddRow("products/creatina.jpg"))
	mock.ExpectExec("DELETE FROM products WHERE id = \\$1").
		WithArgs("5").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest("DELETE", "/products/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if len(uploader.deleted) != 1 || uploader.deleted[0] != "products/creatina.jpg" {
		t.Errorf("Expected image cleanup for products/creatina.jpg, got %v", uploader.deleted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_DeleteProduct_NotFound(t *testing.T) {
	handler, mock, _, router := setupProductTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT COALESCE\\(image_public_id, ''\\) FROM products WHERE id = \\$1").
		WithArgs("999").
		WillReturnRows(sqlmock.NewRows([]string{"image_public_id"}))

	req := httptest.NewRequest("DELETE", "/products/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
