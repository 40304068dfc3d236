package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Nik-nicole/energym1-sub001/cache"
	"github.com/Nik-nicole/energym1-sub001/images"
	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProductHandler struct {
	db          *sql.DB
	redisClient *redis.Client
	uploader    images.Uploader
	logger      *zap.Logger
}

func NewProductHandler(db *sql.DB, redisClient *redis.Client, uploader images.Uploader, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		db:          db,
		redisClient: redisClient,
		uploader:    uploader,
		logger:      logger,
	}
}

const productSelectColumns = "id, name, COALESCE(description, ''), price, stock, category, COALESCE(image_url, ''), COALESCE(image_public_id, ''), COALESCE(sede_id, 0), created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }, p *models.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category,
		&p.ImageURL, &p.ImagePublicID, &p.SedeID, &p.CreatedAt, &p.UpdatedAt)
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "GetProducts")
	defer span.End()

	query := "SELECT " + productSelectColumns + " FROM products"
	args := []any{}
	argPos := 1

	where := ""
	if sede := c.Query("sede_id"); sede != "" {
		where += " WHERE sede_id = $" + strconv.Itoa(argPos)
		args = append(args, sede)
		argPos++
	}
	if category := c.Query("category"); category != "" {
		if where == "" {
			where += " WHERE"
		} else {
			where += " AND"
		}
		where += " category = $" + strconv.Itoa(argPos)
		args = append(args, category)
	}
	query += where + " ORDER BY id"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan product", zap.Error(err))
			continue
		}
		products = append(products, p)
	}

	span.SetAttributes(attribute.Int("products.count", len(products)))
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "GetProduct")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product.id", id))

	// Try to get from cache first
	cachedData, err := cache.GetProduct(ctx, h.redisClient, id)
	if err == nil {
		var product models.Product
		if err := json.Unmarshal(cachedData, &product); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			c.JSON(http.StatusOK, product)
			return
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	var product models.Product
	err = scanProduct(h.db.QueryRowContext(ctx,
		"SELECT "+productSelectColumns+" FROM products WHERE id = $1", id), &product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	// Cache the product for 5 minutes
	if err := cache.SetProduct(ctx, h.redisClient, id, product, 5*time.Minute); err != nil {
		h.logger.Warn("Failed to cache product", zap.String("product_id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "CreateProduct")
	defer span.End()

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	err := scanProduct(h.db.QueryRowContext(ctx,
		"INSERT INTO products (name, description, price, stock, category, image_url, image_public_id, sede_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING "+productSelectColumns,
		req.Name, req.Description, req.Price, req.Stock, req.Category, req.ImageURL, req.ImagePublicID, req.SedeID), &product)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to create product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	span.SetAttributes(attribute.Int("product.id", product.ID))
	h.logger.Info("Product created", zap.Int("product_id", product.ID))
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "UpdateProduct")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product.id", id))

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Build update query dynamically
	query := "UPDATE products SET updated_at = CURRENT_TIMESTAMP"
	args := []any{}
	argPos := 1

	if req.Name != "" {
		query += ", name = $" + strconv.Itoa(argPos)
		args = append(args, req.Name)
		argPos++
	}
	if req.Description != "" {
		query += ", description = $" + strconv.Itoa(argPos)
		args = append(args, req.Description)
		argPos++
	}
	if req.Price > 0 {
		query += ", price = $" + strconv.Itoa(argPos)
		args = append(args, req.Price)
		argPos++
	}
	if req.Stock >= 0 {
		query += ", stock = $" + strconv.Itoa(argPos)
		args = append(args, req.Stock)
		argPos++
	}
	if req.Category != "" {
		query += ", category = $" + strconv.Itoa(argPos)
		args = append(args, req.Category)
		argPos++
	}
	if req.ImageURL != "" {
		query += ", image_url = $" + strconv.Itoa(argPos) + ", image_public_id = $" + strconv.Itoa(argPos+1)
		args = append(args, req.ImageURL, req.ImagePublicID)
		argPos += 2
	}

	query += " WHERE id = $" + strconv.Itoa(argPos) + " RETURNING " + productSelectColumns
	args = append(args, id)

	var product models.Product
	err := scanProduct(h.db.QueryRowContext(ctx, query, args...), &product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to update product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	// Invalidate cache
	if err := cache.DeleteProduct(ctx, h.redisClient, id); err != nil {
		h.logger.Warn("Failed to invalidate product cache", zap.String("product_id", id), zap.Error(err))
	}

	h.logger.Info("Product updated", zap.String("product_id", id))
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "DeleteProduct")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product.id", id))

	var publicID string
	err := h.db.QueryRowContext(ctx,
		"SELECT COALESCE(image_public_id, '') FROM products WHERE id = $1", id).Scan(&publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	result, err := h.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to delete product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
		return
	}

	// Image cleanup is best effort; the delete already succeeded.
	if publicID != "" {
		if err := h.uploader.Delete(ctx, publicID); err != nil {
			h.logger.Warn("Failed to delete product image", zap.String("public_id", publicID), zap.Error(err))
		}
	}

	if err := cache.DeleteProduct(ctx, h.redisClient, id); err != nil {
		h.logger.Warn("Failed to invalidate product cache", zap.String("product_id", id), zap.Error(err))
	}

	h.logger.Info("Product deleted", zap.String("product_id", id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadImage forwards a multipart file to the image-hosting service and
// returns {url, public_id} for use in product/news payloads.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Archivo requerido"})
		return
	}
	defer file.Close()

	folder := c.PostForm("folder")
	if folder == "" {
		folder = "products"
	}

	img, err := h.uploader.Upload(c.Request.Context(), header.Filename, file, folder)
	if err != nil {
		h.logger.Error("Failed to upload image", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "No se pudo subir la imagen"})
		return
	}

	c.JSON(http.StatusCreated, img)
}
